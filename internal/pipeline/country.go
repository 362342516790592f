package pipeline

import (
	"context"
	"math"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/mrio-cli/internal/dataset"
	"github.com/sells-group/mrio-cli/internal/impact"
	"github.com/sells-group/mrio-cli/internal/model"
	"github.com/sells-group/mrio-cli/internal/provenance"
)

// unattributedTolerance is the relative gap below which an item counts as fully attributed.
const unattributedTolerance = 1e-6

// Per-country output files.
const (
	FileHuman   = "human_consumed.csv"
	FileFeed    = "feed.csv"
	FileImpacts = "impacts.csv"
)

// runCountry traces, aggregates and writes one country. Its outcome is recorded in
// the run log and returned; errors never escape the task.
func (e *Engine) runCountry(ctx context.Context, yd *yearData, iso string) CountryReport {
	log := zap.L().With(zap.String("component", "pipeline"), zap.Int("year", yd.year), zap.String("country", iso))
	start := time.Now()
	rep := CountryReport{Country: iso}

	var runID string
	if e.store != nil {
		run, err := e.store.StartRun(ctx, yd.year, iso)
		if err != nil {
			log.Warn("run log start failed", zap.Error(err))
		} else {
			runID = run.ID
			rep.RunID = run.ID
		}
	}

	err := e.traceCountry(ctx, yd, iso, &rep)
	rep.DurationMS = time.Since(start).Milliseconds()
	switch {
	case err != nil:
		rep.Status = model.RunStatusFailed
		rep.Error = err.Error()
		log.Error("country failed", zap.Error(err))
	case rep.HumanRows == 0 && rep.FeedRows == 0:
		rep.Status = model.RunStatusSkipped
		log.Warn("no consumption attributed, outputs are empty")
	default:
		rep.Status = model.RunStatusComplete
		log.Info("country complete",
			zap.Int("human_rows", rep.HumanRows),
			zap.Int("feed_rows", rep.FeedRows),
			zap.Int("missing_items", rep.MissingItems),
			zap.Int64("duration_ms", rep.DurationMS),
		)
	}

	if runID != "" {
		// The task context may already be canceled; the outcome is still recorded.
		if err := e.store.CompleteRun(context.WithoutCancel(ctx), runID, model.RunResult{
			Status:       rep.Status,
			HumanRows:    rep.HumanRows,
			FeedRows:     rep.FeedRows,
			MissingItems: rep.MissingItems,
			Error:        rep.Error,
		}); err != nil {
			log.Warn("run log completion failed", zap.Error(err))
		}
	}
	return rep
}

func (e *Engine) traceCountry(ctx context.Context, yd *yearData, iso string, rep *CountryReport) error {
	code, err := yd.lk.dir.CountryCode(iso)
	if err != nil {
		return err
	}
	rep.Code = code

	supply := provenance.SupplyFromBalance(yd.supply, code, yd.year, e.cfg.SupplyWindow, yd.lk.cpc)
	res, err := yd.tracer.Trace(ctx, provenance.Request{
		Year:          yd.year,
		Consumer:      code,
		FeedInclusive: model.FilterConsumer(yd.feedInclusive, code),
		FeedExclusive: model.FilterConsumer(yd.feedExclusive, code),
		Supply:        supply,
		Sources:       yd.sources,
	})
	if err != nil {
		return err
	}
	logUnattributed(zap.L().With(zap.String("component", "pipeline"), zap.Int("year", yd.year), zap.String("country", iso)),
		res.Consumption, res.Human)
	agg := impact.Aggregate(code, res.Human, res.Feed, yd.lk.impacts, yd.lk.groups)

	if err := e.writeCountry(yd.year, iso, res, agg); err != nil {
		return err
	}

	rep.HumanRows = len(res.Human)
	rep.FeedRows = len(res.Feed)
	rep.ImpactRows = len(agg.Rows)
	rep.MissingItems = len(agg.Missing)
	rep.Ungrouped = agg.Ungrouped
	rep.missing = agg.Missing

	if e.exporter != nil {
		if err := e.exporter.ExportProvenance(ctx, yd.year, code, res.Human, res.Feed); err != nil {
			return eris.Wrapf(err, "pipeline: export %s", iso)
		}
	}
	return nil
}

// writeCountry publishes the three country tables as one set: a failure leaves
// either the previous set or none of it.
func (e *Engine) writeCountry(year int, iso string, res *provenance.Result, agg impact.Result) error {
	dir := e.cfg.Layout.CountryDir(year, iso)
	var fs dataset.FileSet
	if err := dataset.StageCSV(&fs, filepath.Join(dir, FileHuman), res.Human); err != nil {
		fs.Abort()
		return err
	}
	if err := dataset.StageCSV(&fs, filepath.Join(dir, FileFeed), res.Feed); err != nil {
		fs.Abort()
		return err
	}
	if err := dataset.StageCSV(&fs, filepath.Join(dir, FileImpacts), agg.Rows); err != nil {
		fs.Abort()
		return err
	}
	return fs.Commit()
}

// logUnattributed reports consumption that food provenance does not account for,
// usually items the country consumes but receives no recorded flow of.
func logUnattributed(log *zap.Logger, consumption []model.PrimaryConsumption, human []model.ProvenanceRecord) {
	if !log.Core().Enabled(zap.DebugLevel) {
		return
	}
	totals := provenance.Totals(human)
	var items int
	var gap float64
	for _, pc := range consumption {
		if d := pc.Value - totals[pc.Item]; math.Abs(d) > unattributedTolerance*math.Max(math.Abs(pc.Value), 1) {
			items++
			gap += d
		}
	}
	if items > 0 {
		log.Debug("consumption not fully attributed", zap.Int("items", items), zap.Float64("tonnes", gap))
	}
}
