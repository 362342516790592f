package feed

import (
	"math"
	"sort"

	"github.com/sells-group/mrio-cli/internal/model"
)

type countryYear struct {
	country, year int
}

// Requirements derives the feed needed per unit of each animal product for every
// (producer, year) pair. Feed supply is apportioned across co-produced animal items
// by production weighted with the item's weighing factor:
//
//	rw   = factor / mean(factor)
//	rp   = rw*production / Σ rw*production
//	cell = rp / production * feed
//
// Pairs without positive production or feed yield nothing.
func Requirements(pairs []countryYear, production []model.Production, feedSupply []model.FeedAvailability, weighing []model.WeighingFactor) []model.FeedRequirement {
	prodBy := make(map[countryYear]map[int]float64)
	for _, p := range production {
		if !(p.Value > 0) {
			continue
		}
		k := countryYear{p.Country, p.Year}
		if prodBy[k] == nil {
			prodBy[k] = make(map[int]float64)
		}
		if _, dup := prodBy[k][p.Item]; !dup {
			prodBy[k][p.Item] = p.Value
		}
	}
	feedBy := make(map[countryYear][]model.FeedAvailability)
	for _, f := range feedSupply {
		if !(f.Value > 0) {
			continue
		}
		k := countryYear{f.Country, f.Year}
		feedBy[k] = append(feedBy[k], f)
	}
	factors := positiveFactors(weighing)

	var out []model.FeedRequirement
	for _, pair := range pairs {
		prod := prodBy[pair]
		feed := feedBy[pair]
		if len(prod) == 0 || len(feed) == 0 {
			continue
		}

		type weighted struct {
			item       int
			production float64
			factor     float64
		}
		var rows []weighted
		var factorSum float64
		for _, wf := range factors {
			p, ok := prod[wf.Item]
			if !ok {
				continue
			}
			rows = append(rows, weighted{item: wf.Item, production: p, factor: wf.Factor})
			factorSum += wf.Factor
		}
		if len(rows) == 0 {
			continue
		}
		mean := factorSum / float64(len(rows))

		var total float64
		for _, r := range rows {
			total += r.factor / mean * r.production
		}
		for _, r := range rows {
			relProd := r.factor / mean * r.production / total
			perUnit := relProd / r.production
			for _, f := range feed {
				cell := perUnit * f.Value
				if !(cell > 0) || math.IsInf(cell, 0) {
					continue
				}
				out = append(out, model.FeedRequirement{
					Producer:      pair.country,
					Year:          pair.year,
					AnimalProduct: r.item,
					FeedItem:      f.Item,
					FeedPerUnit:   cell,
				})
			}
		}
	}
	return out
}

// positiveFactors keeps factors > 0, one per item (first wins), in item order.
func positiveFactors(weighing []model.WeighingFactor) []model.WeighingFactor {
	seen := make(map[int]bool, len(weighing))
	out := make([]model.WeighingFactor, 0, len(weighing))
	for _, wf := range weighing {
		if !(wf.Factor > 0) || seen[wf.Item] {
			continue
		}
		seen[wf.Item] = true
		out = append(out, wf)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Item < out[j].Item })
	return out
}

// producerYears returns the distinct (producer, year) pairs of the trade matrix, sorted by year then producer.
func producerYears(trade []model.TradeFlow) []countryYear {
	seen := make(map[countryYear]bool)
	var out []countryYear
	for _, f := range trade {
		k := countryYear{f.Producer, f.Year}
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].year != out[j].year {
			return out[i].year < out[j].year
		}
		return out[i].country < out[j].country
	})
	return out
}
