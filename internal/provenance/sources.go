package provenance

import (
	"github.com/sells-group/mrio-cli/internal/model"
)

// FeedSource is one positive flow into a country, with its share of all flows
// of the same animal product (0 for direct crops) into that country.
type FeedSource struct {
	Producer      int
	Item          int
	AnimalProduct int
	Value         float64
	Share         float64
}

type sourceKey struct {
	animal, consumer int
}

// FeedSources indexes the feed-inclusive matrix by (animal product, consumer).
// It is built once per year and shared read-only by every consumer's trace.
type FeedSources struct {
	by map[sourceKey][]FeedSource
}

// NewFeedSources normalizes the positive flows of the feed-inclusive matrix within
// each (animal product, consumer) group. Direct crop flows form the group of animal product 0.
func NewFeedSources(flows []model.TradeFlow) *FeedSources {
	by := make(map[sourceKey][]FeedSource)
	totals := make(map[sourceKey]float64)
	for _, f := range flows {
		if !(f.Value > 0) {
			continue
		}
		k := sourceKey{f.AnimalProductCode(), f.Consumer}
		by[k] = append(by[k], FeedSource{
			Producer:      f.Producer,
			Item:          f.Item,
			AnimalProduct: k.animal,
			Value:         f.Value,
		})
		totals[k] += f.Value
	}
	for k, srcs := range by {
		total := totals[k]
		for i := range srcs {
			srcs[i].Share = srcs[i].Value / total
		}
	}
	return &FeedSources{by: by}
}

// For returns the sources of the feed a country used to raise an animal product.
func (s *FeedSources) For(animal, country int) []FeedSource {
	if s == nil {
		return nil
	}
	return s.by[sourceKey{animal, country}]
}
