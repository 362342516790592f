// Package provenance attributes a country's consumption of primary commodities to the
// countries that produced them, directly as food and indirectly as livestock feed.
package provenance

import (
	"math"
	"sort"

	"github.com/sells-group/mrio-cli/internal/model"
)

type ratioKey struct {
	item   int
	source model.SourceType
}

// ImportRatios splits the consumer's supply of each item across producers.
//
// Crop rows are the consumer's direct (non-feed) feed-inclusive flows with a
// non-negative value. Primary rows are the consumer's feed-exclusive flows of
// items that appear as an animal product in its feed-inclusive flows. Ratios are
// normalized within each (item, source) group; groups with a zero or non-finite
// total produce no rows. When known is non-nil, items it rejects are skipped.
func ImportRatios(consumer int, feedInclusive, feedExclusive []model.TradeFlow, known func(item int) bool) []model.ImportRatio {
	if known == nil {
		known = func(int) bool { return true }
	}

	type producerKey struct {
		ratioKey
		producer int
	}
	values := make(map[producerKey]float64)
	animal := make(map[int]bool)

	for _, f := range feedInclusive {
		if f.Consumer != consumer || !known(f.Item) {
			continue
		}
		if f.HasAnimalProduct() {
			animal[f.AnimalProductCode()] = true
			continue
		}
		if f.Value < 0 {
			continue
		}
		values[producerKey{ratioKey{f.Item, model.SourceCrop}, f.Producer}] += f.Value
	}
	for _, f := range feedExclusive {
		if f.Consumer != consumer || f.HasAnimalProduct() || !animal[f.Item] || !known(f.Item) {
			continue
		}
		values[producerKey{ratioKey{f.Item, model.SourcePrimary}, f.Producer}] += f.Value
	}

	totals := make(map[ratioKey]float64)
	for k, v := range values {
		totals[k.ratioKey] += v
	}

	out := make([]model.ImportRatio, 0, len(values))
	for k, v := range values {
		total := totals[k.ratioKey]
		if total == 0 || math.IsNaN(total) || math.IsInf(total, 0) {
			continue
		}
		out = append(out, model.ImportRatio{
			Consumer: consumer,
			Item:     k.item,
			Producer: k.producer,
			Source:   k.source,
			Value:    v,
			Ratio:    v / total,
		})
	}
	sortRatios(out)
	return out
}

func sortRatios(rs []model.ImportRatio) {
	sort.Slice(rs, func(i, j int) bool {
		a, b := rs[i], rs[j]
		if a.Item != b.Item {
			return a.Item < b.Item
		}
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		return a.Producer < b.Producer
	})
}
