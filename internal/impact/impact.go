// Package impact turns provenance records into per-item environmental impact summaries.
package impact

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/sells-group/mrio-cli/internal/model"
)

// Lookup finds impact coefficients by (producer, item), falling back to the
// item's producer-independent entry.
type Lookup struct {
	byKey map[[2]int]model.ImpactFactor
}

// NewLookup indexes impact factors. The first entry of a (producer, item) pair wins.
func NewLookup(factors []model.ImpactFactor) *Lookup {
	m := make(map[[2]int]model.ImpactFactor, len(factors))
	for _, f := range factors {
		k := [2]int{f.Producer, f.Item}
		if _, ok := m[k]; !ok {
			m[k] = f
		}
	}
	return &Lookup{byKey: m}
}

// Find returns the coefficients of item produced by producer.
func (l *Lookup) Find(producer, item int) (model.ImpactFactor, bool) {
	if l == nil {
		return model.ImpactFactor{}, false
	}
	if f, ok := l.byKey[[2]int{producer, item}]; ok {
		return f, true
	}
	f, ok := l.byKey[[2]int{0, item}]
	return f, ok
}

// Len reports the number of indexed entries.
func (l *Lookup) Len() int {
	if l == nil {
		return 0
	}
	return len(l.byKey)
}

// Result is the output of Aggregate.
type Result struct {
	Rows []model.ImpactSummary
	// Missing lists items without coefficients, once per item code.
	Missing []model.MissingItem
	// Ungrouped counts summary rows whose item has no group.
	Ungrouped int
}

type summaryKey struct {
	origin model.Origin
	item   int
}

// channel accumulates one impact over the records of a food or feed channel.
type channel struct {
	sum   float64
	relSq float64
}

func (c *channel) add(v, rel float64) {
	c.sum += v
	if v != 0 && !math.IsNaN(rel) && !math.IsInf(rel, 0) {
		c.relSq += rel * rel
	}
}

// err is sum × √Σ rel².
func (c channel) err() float64 {
	return c.sum * math.Sqrt(c.relSq)
}

// rel is the channel's combined relative error, 0 for an empty channel.
func (c channel) rel() float64 {
	if c.sum == 0 {
		return 0
	}
	return c.err() / c.sum
}

type accum struct {
	name            string
	arable, pasture channel
	land, water     channel
	ghgFood         channel
	ghgFeed         channel
	bdFood, bdFeed  channel
	cons            float64
	consErrSq       float64
}

// Aggregate attributes impacts to every record and sums them per (origin, consumed item).
// Food records are keyed by their item, feed records by their animal product. Feed
// carries no pasture and negative biodiversity values are clipped to zero. Records
// without coefficients are skipped; their items are reported once in Missing.
func Aggregate(country int, human, feed []model.ProvenanceRecord, factors *Lookup, groups map[string]string) Result {
	log := zap.L().With(zap.String("component", "impact"), zap.Int("country", country))

	sums := make(map[summaryKey]*accum)
	missing := make(map[int]string)

	get := func(r model.ProvenanceRecord, item int, name string) *accum {
		origin := model.OriginOverseas
		if r.Producer == country {
			origin = model.OriginDomestic
		}
		k := summaryKey{origin, item}
		a, ok := sums[k]
		if !ok {
			a = &accum{name: name}
			sums[k] = a
		}
		return a
	}
	lookup := func(r model.ProvenanceRecord) (model.ImpactFactor, bool) {
		f, ok := factors.Find(r.Producer, r.Item)
		if !ok {
			if _, seen := missing[r.Item]; !seen {
				missing[r.Item] = r.ItemName
				log.Warn("no impact coefficients for item",
					zap.String("item", r.ItemName), zap.Int("item_code", r.Item))
			}
		}
		return f, ok
	}

	for _, r := range human {
		f, ok := lookup(r)
		if !ok {
			continue
		}
		a := get(r, r.Item, r.ItemName)
		p := r.Provenance
		a.arable.add(p*f.Arable.Value, f.Arable.RelErr)
		a.pasture.add(p*f.Pasture.Value, f.Pasture.RelErr)
		a.land.add(p*(f.Arable.Value+f.Pasture.Value), landRel(f, true))
		a.water.add(p*f.Water.Value, f.Water.RelErr)
		a.ghgFood.add(p*f.GHG.Value, f.GHG.RelErr)
		a.bdFood.add(p*f.BDOppCost.Value, f.BDOppCost.RelErr)
		a.cons += p
		a.consErrSq += r.ProvenanceErr * r.ProvenanceErr
	}
	for _, r := range feed {
		f, ok := lookup(r)
		if !ok {
			continue
		}
		a := get(r, r.AnimalProductCode(), r.AnimalProductName)
		p := r.Provenance
		a.arable.add(p*f.Arable.Value, f.Arable.RelErr)
		a.land.add(p*f.Arable.Value, landRel(f, false))
		a.water.add(p*f.Water.Value, f.Water.RelErr)
		a.ghgFeed.add(p*f.GHG.Value, f.GHG.RelErr)
		a.bdFeed.add(math.Max(p*f.BDOppCost.Value, 0), f.BDOppCost.RelErr)
	}

	res := Result{Rows: make([]model.ImpactSummary, 0, len(sums))}
	for k, a := range sums {
		group, ok := groups[a.name]
		if !ok {
			res.Ungrouped++
		}
		ghgTotal := a.ghgFood.sum + a.ghgFeed.sum
		bdTotal := a.bdFood.sum + a.bdFeed.sum
		res.Rows = append(res.Rows, model.ImpactSummary{
			Origin:      k.origin,
			Item:        k.item,
			ItemName:    a.name,
			Group:       group,
			PastureM2:   a.pasture.sum,
			ArableM2:    a.arable.sum,
			LandM2:      a.land.sum,
			LandErr:     a.land.err(),
			WaterL:      a.water.sum,
			WaterErr:    a.water.err(),
			GHGFood:     a.ghgFood.sum,
			GHGFeed:     a.ghgFeed.sum,
			GHGTotal:    ghgTotal,
			GHGTotalErr: combined(ghgTotal, a.ghgFood, a.ghgFeed),
			BDFood:      a.bdFood.sum,
			BDFoodErr:   a.bdFood.err(),
			BDFeed:      a.bdFeed.sum,
			BDFeedErr:   a.bdFeed.err(),
			BDTotal:     bdTotal,
			BDTotalErr:  combined(bdTotal, a.bdFood, a.bdFeed),
			Cons:        a.cons,
			ConsErr:     math.Sqrt(a.consErrSq),
		})
	}
	sort.Slice(res.Rows, func(i, j int) bool {
		a, b := res.Rows[i], res.Rows[j]
		if a.Origin != b.Origin {
			return a.Origin == model.OriginDomestic
		}
		return a.Item < b.Item
	})

	for code, name := range missing {
		res.Missing = append(res.Missing, model.MissingItem{Name: name, Code: code})
	}
	sort.Slice(res.Missing, func(i, j int) bool { return res.Missing[i].Code < res.Missing[j].Code })

	if len(res.Missing) > 0 {
		log.Warn("items missing impact coefficients", zap.Int("count", len(res.Missing)))
	}
	if res.Ungrouped > 0 {
		log.Warn("items missing from item groups", zap.Int("count", res.Ungrouped))
	}
	return res
}

// combined is total × √(food_rel² + feed_rel²).
func combined(total float64, food, feed channel) float64 {
	fo, fe := food.rel(), feed.rel()
	return total * math.Sqrt(fo*fo+fe*fe)
}

// landRel is the relative error of arable (+ pasture) area per tonne.
func landRel(f model.ImpactFactor, withPasture bool) float64 {
	a := f.Arable.Value * f.Arable.RelErr
	total := f.Arable.Value
	var p float64
	if withPasture {
		p = f.Pasture.Value * f.Pasture.RelErr
		total += f.Pasture.Value
	}
	if total == 0 {
		return 0
	}
	return math.Sqrt(a*a+p*p) / total
}

// MergeMissing combines missing-item lists, keeping one entry per code.
func MergeMissing(lists ...[]model.MissingItem) []model.MissingItem {
	seen := make(map[int]bool)
	var out []model.MissingItem
	for _, l := range lists {
		for _, m := range l {
			if seen[m.Code] {
				continue
			}
			seen[m.Code] = true
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
