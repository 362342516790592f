package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/mrio-cli/internal/config"
	"github.com/sells-group/mrio-cli/internal/conversion"
	"github.com/sells-group/mrio-cli/internal/dataset"
	"github.com/sells-group/mrio-cli/internal/impact"
	"github.com/sells-group/mrio-cli/internal/model"
	"github.com/sells-group/mrio-cli/internal/provenance"
	"github.com/sells-group/mrio-cli/internal/store"
)

// Engine runs the selected stages for every configured year and country.
// Lookup tables are loaded once and reused across years.
type Engine struct {
	cfg      RunConfig
	store    store.RunStore
	exporter Exporter

	content  conversion.MetricTable
	weighing []model.WeighingFactor
	feedLk   *feedLookups
	provLk   *provenanceLookups
}

// Option configures an Engine.
type Option func(*Engine)

// WithStore records every country task in the run log.
func WithStore(st store.RunStore) Option {
	return func(e *Engine) { e.store = st }
}

// WithExporter publishes provenance tables after each country task.
func WithExporter(x Exporter) Option {
	return func(e *Engine) { e.exporter = x }
}

// New creates an Engine.
func New(cfg RunConfig, opts ...Option) *Engine {
	e := &Engine{cfg: cfg}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Config returns the engine's run configuration.
func (e *Engine) Config() RunConfig {
	return e.cfg
}

// RunOpts narrows a run. Zero fields fall back to the RunConfig.
type RunOpts struct {
	Years     []int
	Countries []string
	Stages    []string
	// Force recomputes the feed matrix even when a checkpoint exists.
	Force bool
	// Progress is called once per finished country task. It may be called concurrently.
	Progress func(year int, r CountryReport)
}

// Tasks returns the number of country tasks a run with opts dispatches.
func (e *Engine) Tasks(opts RunOpts) int {
	o := e.resolve(opts)
	if !hasStage(o.Stages, config.StageProvenance) {
		return 0
	}
	return len(o.Years) * len(o.Countries)
}

func (e *Engine) resolve(opts RunOpts) RunOpts {
	if len(opts.Years) == 0 {
		opts.Years = e.cfg.Years
	}
	if len(opts.Countries) == 0 {
		opts.Countries = e.cfg.Countries
	}
	if len(opts.Stages) == 0 {
		opts.Stages = e.cfg.Stages
	}
	return opts
}

// Run processes every year in order. A failed year is recorded in its report and
// does not stop later years; a failed country never stops its year. The returned
// error reports failed years, or the context error when the run was canceled.
func (e *Engine) Run(ctx context.Context, opts RunOpts) ([]*YearReport, error) {
	opts = e.resolve(opts)
	log := zap.L().With(zap.String("component", "pipeline"))
	log.Info("run starting",
		zap.Ints("years", opts.Years),
		zap.Strings("countries", opts.Countries),
		zap.Strings("stages", opts.Stages),
		zap.String("metric", string(e.cfg.Metric)),
		zap.String("prefer", e.cfg.Layout.Prefer),
	)

	var (
		reports []*YearReport
		failed  int
	)
	for _, year := range opts.Years {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		rep := e.runYear(ctx, year, opts)
		reports = append(reports, rep)
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		if rep.Error != "" {
			failed++
		}
		if err := writeReport(e.cfg.Layout.Report(year), rep); err != nil {
			log.Error("write report failed", zap.Int("year", year), zap.Error(err))
		}
	}

	if failed > 0 {
		return reports, eris.Errorf("pipeline: %d of %d years failed", failed, len(opts.Years))
	}
	return reports, nil
}

func (e *Engine) runYear(ctx context.Context, year int, opts RunOpts) *YearReport {
	log := zap.L().With(zap.String("component", "pipeline"), zap.Int("year", year))
	start := time.Now()
	rep := &YearReport{
		Year:      year,
		Metric:    string(e.cfg.Metric),
		Prefer:    e.cfg.Layout.Prefer,
		Stages:    opts.Stages,
		StartedAt: start.UTC(),
	}
	fail := func(err error) *YearReport {
		rep.Error = err.Error()
		rep.DurationMS = time.Since(start).Milliseconds()
		log.Error("year failed", zap.Error(err))
		return rep
	}

	if hasStage(opts.Stages, config.StageFeed) {
		st, err := e.RunFeed(ctx, year, opts.Force)
		if err != nil {
			return fail(err)
		}
		rep.Feed = st
	}
	if hasStage(opts.Stages, config.StageArea) {
		st, err := e.RunArea(ctx, year)
		if err != nil {
			return fail(err)
		}
		rep.Area = st
	}
	if hasStage(opts.Stages, config.StageProvenance) {
		countries, missing, err := e.runProvenance(ctx, year, opts)
		if err != nil {
			return fail(err)
		}
		rep.Countries = countries
		rep.MissingItems = len(missing)
	}

	rep.DurationMS = time.Since(start).Milliseconds()
	log.Info("year complete",
		zap.Int("countries", len(rep.Countries)),
		zap.Int("failed", rep.Failed()),
		zap.Int("missing_items", rep.MissingItems),
		zap.Int64("duration_ms", rep.DurationMS),
	)
	return rep
}

// yearData holds the read-only tables shared by the country tasks of a year.
type yearData struct {
	year          int
	feedInclusive []model.TradeFlow
	feedExclusive []model.TradeFlow
	sources       *provenance.FeedSources
	supply        []model.BalanceRow
	tracer        *provenance.Tracer
	lk            *provenanceLookups
}

func (e *Engine) loadYear(ctx context.Context, year int) (*yearData, error) {
	l := e.cfg.Layout
	if err := dataset.Check(l.ProvenanceInputs(year)...); err != nil {
		return nil, err
	}
	lk, err := e.loadProvenanceLookups(ctx)
	if err != nil {
		return nil, err
	}
	incl, err := dataset.LoadTradeMatrix(ctx, l.TradeMatrixFeed(year))
	if err != nil {
		return nil, err
	}
	excl, err := dataset.LoadTradeMatrix(ctx, l.TradeMatrix(year))
	if err != nil {
		return nil, err
	}
	supply, err := dataset.LoadBalance(ctx, l.FAOSTAT(dataset.FileSUA, year),
		yearFilter(year, max(e.cfg.SupplyWindow, 0), model.ElementFoodSupply))
	if err != nil {
		return nil, err
	}
	return &yearData{
		year:          year,
		feedInclusive: incl,
		feedExclusive: excl,
		sources:       provenance.NewFeedSources(incl),
		supply:        supply,
		tracer:        provenance.NewTracer(lk.dir, lk.factors, lk.weighing, e.cfg.Provenance),
		lk:            lk,
	}, nil
}

// runProvenance traces every country of a year in parallel and writes the merged
// missing-item list.
func (e *Engine) runProvenance(ctx context.Context, year int, opts RunOpts) ([]CountryReport, []model.MissingItem, error) {
	yd, err := e.loadYear(ctx, year)
	if err != nil {
		return nil, nil, err
	}

	var (
		mu      sync.Mutex
		reports []CountryReport
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.MaxConcurrent)

	for _, iso := range opts.Countries {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			r := e.runCountry(gctx, yd, iso)
			mu.Lock()
			reports = append(reports, r)
			mu.Unlock()
			if opts.Progress != nil {
				opts.Progress(year, r)
			}
			return nil // a failed country does not abort the year
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, eris.Wrap(err, "pipeline: country tasks")
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	lists := make([][]model.MissingItem, len(reports))
	for i, r := range reports {
		lists[i] = r.missing
	}
	missing := impact.MergeMissing(lists...)
	if err := dataset.WriteMissingItems(e.cfg.Layout.MissingItems(year), missing); err != nil {
		return nil, nil, err
	}
	if len(missing) > 0 {
		zap.L().Warn("items missing impact coefficients",
			zap.String("component", "pipeline"),
			zap.Int("year", year),
			zap.Int("count", len(missing)),
		)
	}

	rep := &YearReport{Countries: reports}
	rep.sortCountries()
	return rep.Countries, missing, nil
}
