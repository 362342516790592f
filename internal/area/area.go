// Package area attaches the harvested area embodied in each flow of the feed-inclusive trade matrix.
package area

import (
	"strings"

	"github.com/sells-group/mrio-cli/internal/model"
)

// YieldsFromBalance extracts crop yields in kg/ha. Rows reported in 100 g/ha are rescaled;
// rows in other units are ignored.
func YieldsFromBalance(rows []model.BalanceRow) []model.Yield {
	var out []model.Yield
	for _, r := range rows {
		if r.Element != model.ElementYield && r.Element != model.ElementYieldKg {
			continue
		}
		var kg float64
		switch strings.ReplaceAll(strings.ToLower(r.Unit), " ", "") {
		case "kg/ha":
			kg = r.Value
		case "100g/ha", "hg/ha":
			kg = r.Value / 10
		default:
			continue
		}
		out = append(out, model.Yield{Producer: r.Area, Item: r.Item, Year: r.Year, KgPerHa: kg})
	}
	return out
}

type yieldKey struct {
	producer, item, year int
}

// Attribute computes area_ha = tonnes × 1000 / yield for every flow. Flows without
// a positive yield for their (producer, item, year) carry no area. Feed-embodied
// flows use the yield of the feed crop.
func Attribute(flows []model.TradeFlow, yields []model.Yield) []model.AreaRecord {
	idx := make(map[yieldKey]float64, len(yields))
	for _, y := range yields {
		k := yieldKey{y.Producer, y.Item, y.Year}
		if _, ok := idx[k]; !ok {
			idx[k] = y.KgPerHa
		}
	}

	out := make([]model.AreaRecord, 0, len(flows))
	for _, f := range flows {
		rec := model.AreaRecord{
			Consumer:      f.Consumer,
			Producer:      f.Producer,
			Item:          f.Item,
			AnimalProduct: f.AnimalProduct,
			Year:          f.Year,
			Value:         f.Value,
		}
		if y, ok := idx[yieldKey{f.Producer, f.Item, f.Year}]; ok && y > 0 {
			ha := f.Value * 1000 / y
			rec.AreaHa = &ha
		}
		out = append(out, rec)
	}
	return out
}

// Total sums the attributed area of records that carry one.
func Total(recs []model.AreaRecord) float64 {
	var sum float64
	for _, r := range recs {
		if r.AreaHa != nil {
			sum += *r.AreaHa
		}
	}
	return sum
}
