package provenance

import (
	"math"
	"sort"

	"github.com/sells-group/mrio-cli/internal/conversion"
	"github.com/sells-group/mrio-cli/internal/model"
)

// SupplyFromBalance extracts the consumer's food supply (element 5141) from
// supply-utilization rows and maps CPC codes onto FAO item codes. Rows whose
// CPC code is unknown fall back to the row's own item code.
//
// With window 0 the year's reported value is used as both value and error
// placeholder. With window w > 0 the value is the mean over [year-w, year+w]
// and the error is the standard error of that mean.
func SupplyFromBalance(rows []model.BalanceRow, consumer, year, window int, cpc map[string]int) []model.FoodSupply {
	window = max(window, 0)
	var (
		out     []model.FoodSupply
		samples = make(map[int][]float64)
		order   []int
	)
	for _, r := range rows {
		if r.Area != consumer || r.Element != model.ElementFoodSupply {
			continue
		}
		if r.Year < year-window || r.Year > year+window {
			continue
		}
		item := r.Item
		if code, ok := cpc[r.CPC]; ok && r.CPC != "" {
			item = code
		}
		if window == 0 {
			out = append(out, model.FoodSupply{Country: consumer, Item: item, Year: year, Value: r.Value, Err: r.Value})
			continue
		}
		if _, ok := samples[item]; !ok {
			order = append(order, item)
		}
		samples[item] = append(samples[item], r.Value)
	}

	for _, item := range order {
		mean, sem := meanSEM(samples[item])
		out = append(out, model.FoodSupply{Country: consumer, Item: item, Year: year, Value: mean, Err: sem})
	}
	return out
}

// meanSEM returns the sample mean and its standard error (n-1 denominator).
// A single sample has no spread and yields a zero error.
func meanSEM(vals []float64) (float64, float64) {
	n := float64(len(vals))
	if n == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	mean := sum / n
	if n < 2 {
		return mean, 0
	}
	var ss float64
	for _, v := range vals {
		ss += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(ss/(n-1)) / math.Sqrt(n)
}

// PrimaryConsumption converts food supply into primary-equivalent mass and sums it
// per primary item. Items without a usable conversion factor are dropped. The error
// is the root sum of squares of the contributing supply errors.
func PrimaryConsumption(supply []model.FoodSupply, factors conversion.Index, name func(item int) (string, bool)) []model.PrimaryConsumption {
	type acc struct {
		value, errSq float64
		fallback     string
	}
	sums := make(map[int]*acc)
	for _, s := range supply {
		f, ok := factors.Usable(s.Item)
		if !ok {
			continue
		}
		a, ok := sums[f.PrimaryItem]
		if !ok {
			a = &acc{fallback: f.PrimaryName}
			sums[f.PrimaryItem] = a
		}
		a.value += s.Value / f.Ratio
		a.errSq += s.Err * s.Err
	}

	out := make([]model.PrimaryConsumption, 0, len(sums))
	for item, a := range sums {
		n := a.fallback
		if name != nil {
			if known, ok := name(item); ok {
				n = known
			}
		}
		out = append(out, model.PrimaryConsumption{Item: item, Name: n, Value: a.value, Err: math.Sqrt(a.errSq)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Item < out[j].Item })
	return out
}
