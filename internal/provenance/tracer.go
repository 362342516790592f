package provenance

import (
	"context"
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/mrio-cli/internal/conversion"
	"github.com/sells-group/mrio-cli/internal/model"
)

// primaryLabel names the animal-product column of food records sourced as primary animal products.
const primaryLabel = "Primary"

// Options tunes the retention thresholds of a trace.
type Options struct {
	// MinRatio drops food records whose import ratio is at or below it.
	MinRatio float64
	// MinValue drops feed records whose underlying flow is at or below it.
	MinValue float64
}

// DefaultOptions returns the default retention thresholds.
func DefaultOptions() Options {
	return Options{MinRatio: 1e-8, MinValue: 1e-8}
}

// Tracer decomposes a consumer's primary consumption into producer contributions.
// A Tracer holds only read-only lookups and is safe for concurrent use.
type Tracer struct {
	dir      *model.Directory
	factors  conversion.Index
	weighing map[int]float64
	opts     Options
}

// NewTracer creates a Tracer. Only the first weighing factor of an item is used.
func NewTracer(dir *model.Directory, factors conversion.Index, weighing []model.WeighingFactor, opts Options) *Tracer {
	if dir == nil {
		dir = model.NewDirectory()
	}
	w := make(map[int]float64, len(weighing))
	for _, f := range weighing {
		if _, ok := w[f.Item]; !ok {
			w[f.Item] = f.Factor
		}
	}
	return &Tracer{dir: dir, factors: factors, weighing: w, opts: opts}
}

// Request is the input of one (year, consumer) trace.
type Request struct {
	Year          int
	Consumer      int
	FeedInclusive []model.TradeFlow
	FeedExclusive []model.TradeFlow
	Supply        []model.FoodSupply
	// Sources indexes the year's whole feed-inclusive matrix, since feed is traced
	// into other countries' supply. When nil it is built from FeedInclusive, which
	// then must not be restricted to the consumer.
	Sources *FeedSources
}

// Result holds the provenance tables of one trace.
type Result struct {
	Human       []model.ProvenanceRecord
	Feed        []model.ProvenanceRecord
	Consumption []model.PrimaryConsumption
	Ratios      []model.ImportRatio
}

// Trace attributes the consumer's primary consumption to producer countries.
// Food provenance is ratio × consumption. Feed provenance follows each animal
// item's import ratios into the feed its producers used. Both carry the
// consumption's relative error: err = provenance × √(1 + (err/value)²).
func (t *Tracer) Trace(ctx context.Context, req Request) (*Result, error) {
	log := zap.L().With(
		zap.String("component", "provenance"),
		zap.Int("year", req.Year),
		zap.Int("consumer", req.Consumer),
	)
	if req.Consumer == 0 {
		return nil, eris.New("provenance: consumer code is required")
	}

	var known func(int) bool
	if t.dir.HasItems() {
		known = func(item int) bool {
			_, ok := t.dir.ItemName(item)
			return ok
		}
	}
	ratios := ImportRatios(req.Consumer, req.FeedInclusive, req.FeedExclusive, known)
	consumption := PrimaryConsumption(req.Supply, t.factors, t.dir.ItemName)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	human := t.human(req, ratios, consumption)

	sources := req.Sources
	if sources == nil {
		sources = NewFeedSources(req.FeedInclusive)
	}
	feed := t.feed(req, ratios, consumption, sources)

	log.Debug("trace complete",
		zap.Int("ratios", len(ratios)),
		zap.Int("consumption_items", len(consumption)),
		zap.Int("human_rows", len(human)),
		zap.Int("feed_rows", len(feed)),
	)
	return &Result{Human: human, Feed: feed, Consumption: consumption, Ratios: ratios}, nil
}

func (t *Tracer) human(req Request, ratios []model.ImportRatio, consumption []model.PrimaryConsumption) []model.ProvenanceRecord {
	byItem := indexConsumption(consumption)
	var out []model.ProvenanceRecord
	for _, r := range ratios {
		pc, ok := byItem[r.Item]
		if !ok || !(r.Ratio > t.opts.MinRatio) {
			continue
		}
		prov := r.Ratio * pc.Value
		if !(prov > 0) || math.IsInf(prov, 0) {
			continue
		}
		rec := model.ProvenanceRecord{
			Year:          req.Year,
			Consumer:      req.Consumer,
			Producer:      r.Producer,
			ProducerISO:   t.dir.ISO(r.Producer),
			Item:          r.Item,
			ItemName:      t.itemName(r.Item),
			Ratio:         r.Ratio,
			Value:         r.Ratio,
			Provenance:    prov,
			ProvenanceErr: propagate(prov, pc.Err, pc.Value),
		}
		if r.Source == model.SourcePrimary {
			rec.AnimalProductName = primaryLabel
		}
		out = append(out, rec)
	}
	model.SortProvenance(out)
	return out
}

type feedKey struct {
	producer, item, animal int
}

func (t *Tracer) feed(req Request, ratios []model.ImportRatio, consumption []model.PrimaryConsumption, sources *FeedSources) []model.ProvenanceRecord {
	ratiosByItem := make(map[int][]model.ImportRatio)
	for _, r := range ratios {
		ratiosByItem[r.Item] = append(ratiosByItem[r.Item], r)
	}

	type acc struct {
		rec      model.ProvenanceRecord
		relErr   float64
		consumed float64
	}
	merged := make(map[feedKey]*acc)
	var order []feedKey

	for _, pc := range consumption {
		factor, ok := t.weighing[pc.Item]
		if !ok || !(factor > 0) {
			continue
		}
		value := pc.Value * factor
		errv := pc.Err * factor
		if !(value > 0) {
			continue
		}
		relErr := errv / value

		for _, r := range ratiosByItem[pc.Item] {
			cVal := value * r.Ratio
			for _, src := range sources.For(pc.Item, r.Producer) {
				prov := src.Share * cVal
				if !(src.Value > t.opts.MinValue) || !(prov > 0) {
					continue
				}
				k := feedKey{src.Producer, src.Item, pc.Item}
				a, ok := merged[k]
				if !ok {
					a = &acc{
						rec: model.ProvenanceRecord{
							Year:              req.Year,
							Consumer:          req.Consumer,
							Producer:          src.Producer,
							ProducerISO:       t.dir.ISO(src.Producer),
							Item:              src.Item,
							ItemName:          t.itemName(src.Item),
							AnimalProduct:     model.Code(pc.Item),
							AnimalProductName: pc.Name,
						},
						relErr:   relErr,
						consumed: value,
					}
					merged[k] = a
					order = append(order, k)
				}
				a.rec.Value += src.Value
				a.rec.Provenance += prov
			}
		}
	}

	out := make([]model.ProvenanceRecord, 0, len(order))
	for _, k := range order {
		a := merged[k]
		a.rec.Ratio = a.rec.Provenance / a.consumed
		a.rec.ProvenanceErr = a.rec.Provenance * math.Sqrt(1+a.relErr*a.relErr)
		out = append(out, a.rec)
	}
	model.SortProvenance(out)
	return out
}

func (t *Tracer) itemName(item int) string {
	name, _ := t.dir.ItemName(item)
	return name
}

func indexConsumption(pcs []model.PrimaryConsumption) map[int]model.PrimaryConsumption {
	m := make(map[int]model.PrimaryConsumption, len(pcs))
	for _, pc := range pcs {
		m[pc.Item] = pc
	}
	return m
}

// propagate scales a quantity's relative error onto a derived value.
func propagate(prov, errv, value float64) float64 {
	if value == 0 {
		return 0
	}
	rel := errv / value
	return prov * math.Sqrt(1+rel*rel)
}

// Totals sums provenance per consumed item: the item of food records and the
// animal product of feed records.
func Totals(recs []model.ProvenanceRecord) map[int]float64 {
	out := make(map[int]float64)
	for _, r := range recs {
		key := r.Item
		if r.AnimalProduct != nil {
			key = *r.AnimalProduct
		}
		out[key] += r.Provenance
	}
	return out
}
