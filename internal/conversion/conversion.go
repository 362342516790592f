// Package conversion derives processed-to-primary item mass ratios from per-100g content tables.
package conversion

import (
	"errors"
	"math"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/mrio-cli/internal/model"
)

// Metric names a nutrient or mass column of the content-factor table.
type Metric string

// Supported metrics.
const (
	DryMatter  Metric = "dry_matter"
	Energy     Metric = "Energy"
	Protein    Metric = "Protein"
	FiberTD    Metric = "Fiber_TD"
	Zinc       Metric = "Zinc"
	Iron       Metric = "Iron"
	Calcium    Metric = "Calcium"
	FolateTot  Metric = "Folate_Tot"
	Riboflavin Metric = "Riboflavin"
	CholineTot Metric = "Choline_Tot"
	Potassium  Metric = "Potassium"
	VitE       Metric = "Vit_E"
	VitB12     Metric = "Vit_B12"
	VitK       Metric = "Vit_K"
	VitA       Metric = "Vit_A"
)

// Metrics lists every supported metric in table order.
var Metrics = []Metric{
	DryMatter, Energy, Protein, FiberTD, Zinc, Iron, Calcium, FolateTot,
	Riboflavin, CholineTot, Potassium, VitE, VitB12, VitK, VitA,
}

// ErrUnknownMetric is returned when a metric outside Metrics is requested.
var ErrUnknownMetric = errors.New("conversion: unknown metric")

// ParseMetric validates a metric name. Matching ignores case.
func ParseMetric(name string) (Metric, error) {
	for _, m := range Metrics {
		if strings.EqualFold(string(m), strings.TrimSpace(name)) {
			return m, nil
		}
	}
	return "", eris.Wrapf(ErrUnknownMetric, "%q not available", name)
}

// MetricTable holds per-100g content values keyed by item code, one map per metric.
type MetricTable map[Metric]map[int]float64

// Column returns the values of one metric, failing if the table does not carry it.
func (t MetricTable) Column(m Metric) (map[int]float64, error) {
	col, ok := t[m]
	if !ok {
		return nil, eris.Wrapf(ErrUnknownMetric, "%q not in content table", m)
	}
	return col, nil
}

// Rekey maps every metric through a code crosswalk (to -> from): the value of
// code `from` becomes the value of code `to`. Unmatched targets are left out.
func (t MetricTable) Rekey(crosswalk map[int]int) MetricTable {
	out := make(MetricTable, len(t))
	for m, col := range t {
		rekeyed := make(map[int]float64, len(crosswalk))
		for to, from := range crosswalk {
			if v, ok := col[from]; ok {
				rekeyed[to] = v
			}
		}
		out[m] = rekeyed
	}
	return out
}

// Resolve joins links to the metric column on both processed and primary code
// and returns ratio = primary / processed for every link whose codes both resolve.
// Non-finite ratios are zeroed. The first link of a processed code wins.
func Resolve(metric Metric, table MetricTable, links []model.ItemLink) ([]model.ConversionFactor, error) {
	col, err := table.Column(metric)
	if err != nil {
		return nil, err
	}

	seen := make(map[int]bool, len(links))
	out := make([]model.ConversionFactor, 0, len(links))
	for _, l := range links {
		if seen[l.Processed] {
			continue
		}
		processed, ok := col[l.Processed]
		if !ok {
			continue
		}
		primary, ok := col[l.Primary]
		if !ok {
			continue
		}
		seen[l.Processed] = true

		ratio := primary / processed
		if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
			ratio = 0
		}
		out = append(out, model.ConversionFactor{
			ProcessedItem: l.Processed,
			PrimaryItem:   l.Primary,
			PrimaryName:   l.PrimaryName,
			Ratio:         ratio,
		})
	}
	return out, nil
}

// Index is a lookup of conversion factors by processed item code.
type Index map[int]model.ConversionFactor

// NewIndex builds an Index. Later duplicates are ignored.
func NewIndex(factors []model.ConversionFactor) Index {
	idx := make(Index, len(factors))
	for _, f := range factors {
		if _, ok := idx[f.ProcessedItem]; !ok {
			idx[f.ProcessedItem] = f
		}
	}
	return idx
}

// Usable returns the factor of a processed item when it can convert quantities.
func (idx Index) Usable(processed int) (model.ConversionFactor, bool) {
	f, ok := idx[processed]
	if !ok || f.Ratio == 0 || math.IsNaN(f.Ratio) || math.IsInf(f.Ratio, 0) {
		return model.ConversionFactor{}, false
	}
	return f, true
}

// ToPrimary converts a processed quantity into primary-equivalent mass.
func (idx Index) ToPrimary(processed int, value float64) (int, float64, bool) {
	f, ok := idx.Usable(processed)
	if !ok {
		return 0, 0, false
	}
	return f.PrimaryItem, value / f.Ratio, true
}
