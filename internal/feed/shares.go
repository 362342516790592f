package feed

import (
	"math"

	"github.com/sells-group/mrio-cli/internal/model"
)

// sourcingShare is the fraction of a consumer's supply of a share group that came from one producer.
type sourcingShare struct {
	producer int
	item     int
	share    float64
}

type groupKey struct {
	consumer, group, year int
}

// sourcingShares computes, per (consumer, share group, year), each producer's share of
// the consumer's crop supply. Only direct flows of items below ceiling count; items
// outside every share group are ignored. Zero-valued flows and non-finite shares get 0.
func sourcingShares(trade []model.TradeFlow, groups map[int][]int, ceiling int) map[groupKey][]sourcingShare {
	type member struct {
		key   groupKey
		flow  model.TradeFlow
		total *float64
	}
	totals := make(map[groupKey]*float64)
	var members []member
	for _, f := range trade {
		if f.HasAnimalProduct() || f.Item >= ceiling {
			continue
		}
		for _, g := range groups[f.Item] {
			k := groupKey{f.Consumer, g, f.Year}
			t, ok := totals[k]
			if !ok {
				t = new(float64)
				totals[k] = t
			}
			*t += f.Value
			members = append(members, member{key: k, flow: f, total: t})
		}
	}

	out := make(map[groupKey][]sourcingShare, len(totals))
	for _, m := range members {
		share := 0.0
		if m.flow.Value != 0 {
			share = m.flow.Value / *m.total
			if math.IsNaN(share) || math.IsInf(share, 0) {
				share = 0
			}
		}
		out[m.key] = append(out[m.key], sourcingShare{producer: m.flow.Producer, item: m.flow.Item, share: share})
	}
	return out
}

// Shares splits each feed requirement across the countries its producer sources
// that feed from: share = feed per unit × sourcing share. The requirement's feed
// item is matched against share groups; the result carries the traded item code.
func Shares(reqs []model.FeedRequirement, trade []model.TradeFlow, groups map[int][]int, ceiling int) []model.FeedShare {
	sourcing := sourcingShares(trade, groups, ceiling)
	var out []model.FeedShare
	for _, r := range reqs {
		for _, s := range sourcing[groupKey{r.Producer, r.FeedItem, r.Year}] {
			out = append(out, model.FeedShare{
				APProducer:    r.Producer,
				Year:          r.Year,
				AnimalProduct: r.AnimalProduct,
				FeedProducer:  s.producer,
				FeedItem:      s.item,
				Share:         r.FeedPerUnit * s.share,
			})
		}
	}
	return out
}
