// Package feed converts traded livestock products into the crop feed embodied in them
// and nets that feed out of the direct crop trade.
package feed

import (
	"sort"

	"github.com/sells-group/mrio-cli/internal/conversion"
	"github.com/sells-group/mrio-cli/internal/model"
)

// maxCountryCode bounds real countries in FAOSTAT area codes; larger codes are regional aggregates.
const maxCountryCode = 300

type availabilityKey struct {
	country, year, item int
}

// Availability converts commodity-balance feed rows into primary-equivalent feed
// supply per (country, year, primary item). Rows of aggregate areas, other
// elements, and items without a usable conversion factor are ignored.
func Availability(rows []model.BalanceRow, factors conversion.Index) []model.FeedAvailability {
	sums := make(map[availabilityKey]float64)
	for _, r := range rows {
		if r.Element != model.ElementFeed || r.Area >= maxCountryCode {
			continue
		}
		primary, v, ok := factors.ToPrimary(r.Item, r.Value)
		if !ok {
			continue
		}
		sums[availabilityKey{r.Area, r.Year, primary}] += v
	}

	out := make([]model.FeedAvailability, 0, len(sums))
	for k, v := range sums {
		out = append(out, model.FeedAvailability{Country: k.country, Year: k.year, Item: k.item, Value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Country != b.Country {
			return a.Country < b.Country
		}
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.Item < b.Item
	})
	return out
}

// ProductionFromBalance keeps the production element of livestock rows.
func ProductionFromBalance(rows []model.BalanceRow) []model.Production {
	var out []model.Production
	for _, r := range rows {
		if r.Element != model.ElementProduction {
			continue
		}
		out = append(out, model.Production{Country: r.Area, Year: r.Year, Item: r.Item, Value: r.Value})
	}
	return out
}
