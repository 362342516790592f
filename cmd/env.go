package main

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/mrio-cli/internal/pipeline"
	"github.com/sells-group/mrio-cli/internal/resilience"
	"github.com/sells-group/mrio-cli/internal/store"
)

// addRunFlags registers the flags that narrow a run on cmd.
func addRunFlags(cmd *cobra.Command, countries bool) {
	cmd.Flags().IntSlice("year", nil, "years to process (default from config)")
	cmd.Flags().String("metric", "", "conversion metric (default from config)")
	cmd.Flags().String("prefer", "", `trade matrix variant, "import" or "export" (default from config)`)
	if countries {
		cmd.Flags().StringSlice("country", nil, "ISO3 codes of the consuming countries (default from config)")
		cmd.Flags().Int("concurrency", 0, "max countries traced in parallel (default from config)")
	}
}

// applyRunFlags copies explicitly set run flags onto the loaded config.
func applyRunFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("year") {
		cfg.Run.Years, _ = flags.GetIntSlice("year")
	}
	if flags.Changed("country") {
		cfg.Run.Countries, _ = flags.GetStringSlice("country")
	}
	if flags.Changed("metric") {
		cfg.Run.ConversionMetric, _ = flags.GetString("metric")
	}
	if flags.Changed("prefer") {
		p, _ := flags.GetString("prefer")
		cfg.Run.Prefer = strings.ToLower(p)
	}
	if flags.Changed("concurrency") {
		cfg.Batch.MaxConcurrent, _ = flags.GetInt("concurrency")
	}
	if flags.Changed("stages") {
		cfg.Run.Stages, _ = flags.GetStringSlice("stages")
	}
}

// runConfig applies the command's flags, validates the config for mode and derives
// the engine configuration.
func runConfig(cmd *cobra.Command, mode string) (pipeline.RunConfig, error) {
	applyRunFlags(cmd)
	if err := cfg.Validate(mode); err != nil {
		return pipeline.RunConfig{}, err
	}
	return pipeline.NewRunConfig(cfg)
}

func initStore(ctx context.Context) (store.RunStore, error) {
	return store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
}

// initExporter connects the provenance exporter when export is enabled. The
// returned close func is never nil.
func initExporter(ctx context.Context) (pipeline.Exporter, func(), error) {
	if !cfg.Export.Enabled {
		return nil, func() {}, nil
	}
	pool, err := pgxpool.New(ctx, cfg.ExportURL())
	if err != nil {
		return nil, func() {}, eris.Wrap(err, "export: connect")
	}
	retry := resilience.DefaultRetryConfig()
	retry.MaxAttempts = cfg.Export.MaxAttempts
	x := pipeline.NewPostgresExporter(pool, cfg.Export.Schema, retry)
	if err := x.Migrate(ctx); err != nil {
		pool.Close()
		return nil, func() {}, err
	}
	zap.L().Info("provenance export enabled", zap.String("schema", cfg.Export.Schema))
	return x, pool.Close, nil
}

// newEngine builds an engine with the run log and, when enabled, the exporter.
// The returned close func releases both.
func newEngine(ctx context.Context, rc pipeline.RunConfig, withStore bool) (*pipeline.Engine, func(), error) {
	var (
		opts    []pipeline.Option
		closers []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if withStore {
		st, err := initStore(ctx)
		if err != nil {
			return nil, closeAll, err
		}
		closers = append(closers, func() { _ = st.Close() })
		opts = append(opts, pipeline.WithStore(st))
	}

	x, closeExport, err := initExporter(ctx)
	if err != nil {
		closeAll()
		return nil, func() {}, err
	}
	closers = append(closers, closeExport)
	if x != nil {
		opts = append(opts, pipeline.WithExporter(x))
	}

	return pipeline.New(rc, opts...), closeAll, nil
}
