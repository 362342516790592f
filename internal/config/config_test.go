package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(orig) })
}

func validConfig() *Config {
	return &Config{
		Paths:      PathsConfig{InputDir: "in", ResultsDir: "out"},
		Run:        RunConfig{Years: []int{2013}, Countries: []string{"GBR"}, ConversionMetric: "dry_matter", Prefer: "import", Stages: []string{"feed", "provenance"}},
		Feed:       FeedConfig{AnimalItemThreshold: 850, CropShareCeiling: 867},
		Provenance: ProvenanceConfig{MinRatio: 1e-8, MinValue: 1e-8},
		Batch:      BatchConfig{MaxConcurrent: 4},
		Store:      StoreConfig{Driver: "sqlite", DatabaseURL: "runs.db"},
		Log:        LogConfig{Level: "info", Format: "json"},
	}
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "./input_data", cfg.Paths.InputDir)
	assert.Equal(t, "./results", cfg.Paths.ResultsDir)
	assert.Equal(t, []int{2013}, cfg.Run.Years)
	assert.Equal(t, []string{"GBR", "USA", "IND", "BRA", "JPN", "UGA"}, cfg.Run.Countries)
	assert.Equal(t, "dry_matter", cfg.Run.ConversionMetric)
	assert.Equal(t, "import", cfg.Run.Prefer)
	assert.Equal(t, 2012, cfg.Run.HistoricBefore)
	assert.Equal(t, 850, cfg.Feed.AnimalItemThreshold)
	assert.Equal(t, 867, cfg.Feed.CropShareCeiling)
	assert.InDelta(t, 1e-8, cfg.Provenance.MinRatio, 1e-20)
	assert.Equal(t, 0, cfg.Provenance.SupplyWindow)
	assert.Equal(t, 4, cfg.Batch.MaxConcurrent)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.False(t, cfg.Export.Enabled)
	assert.Equal(t, "mrio", cfg.Export.Schema)
	assert.Equal(t, 3, cfg.Export.MaxAttempts)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)

	assert.NoError(t, cfg.Validate("run"))
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	content := `
paths:
  input_dir: /data/in
run:
  years: [2010, 2011]
  countries: [GBR]
  conversion_metric: energy
feed:
  animal_item_threshold: 900
log:
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/data/in", cfg.Paths.InputDir)
	assert.Equal(t, []int{2010, 2011}, cfg.Run.Years)
	assert.Equal(t, []string{"GBR"}, cfg.Run.Countries)
	assert.Equal(t, "energy", cfg.Run.ConversionMetric)
	assert.Equal(t, 900, cfg.Feed.AnimalItemThreshold)
	assert.Equal(t, 867, cfg.Feed.CropShareCeiling)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoad_EnvOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("MRIO_RUN_PREFER", "export")
	t.Setenv("MRIO_BATCH_MAX_CONCURRENT", "8")
	t.Setenv("MRIO_STORE_DRIVER", "postgres")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "export", cfg.Run.Prefer)
	assert.Equal(t, 8, cfg.Batch.MaxConcurrent)
	assert.Equal(t, "postgres", cfg.Store.Driver)
}

func TestLoad_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("run: [unclosed"), 0o644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mode    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid run", mode: "run", mutate: func(*Config) {}},
		{name: "unknown metric", mode: "run", mutate: func(c *Config) { c.Run.ConversionMetric = "calories" }, wantErr: "run.conversion_metric"},
		{name: "bad prefer", mode: "feed", mutate: func(c *Config) { c.Run.Prefer = "both" }, wantErr: "run.prefer"},
		{name: "no years", mode: "area", mutate: func(c *Config) { c.Run.Years = nil }, wantErr: "run.years"},
		{name: "no countries", mode: "trace", mutate: func(c *Config) { c.Run.Countries = nil }, wantErr: "run.countries"},
		{name: "concurrency too high", mode: "run", mutate: func(c *Config) { c.Batch.MaxConcurrent = 100 }, wantErr: "batch.max_concurrent"},
		{name: "concurrency zero", mode: "trace", mutate: func(c *Config) { c.Batch.MaxConcurrent = 0 }, wantErr: "batch.max_concurrent"},
		{name: "negative window", mode: "trace", mutate: func(c *Config) { c.Provenance.SupplyWindow = -1 }, wantErr: "supply_window"},
		{name: "zero threshold", mode: "feed", mutate: func(c *Config) { c.Feed.AnimalItemThreshold = 0 }, wantErr: "feed thresholds"},
		{name: "bad driver", mode: "runs", mutate: func(c *Config) { c.Store.Driver = "mysql" }, wantErr: "store.driver"},
		{name: "export without url", mode: "trace", mutate: func(c *Config) { c.Export.Enabled = true }, wantErr: "export.database_url"},
		{name: "export reuses postgres store", mode: "run", mutate: func(c *Config) {
			c.Export.Enabled = true
			c.Store.Driver = "postgres"
			c.Store.DatabaseURL = "postgres://localhost/mrio"
			c.Export.MaxAttempts = 3
		}},
		{name: "export without attempts", mode: "run", mutate: func(c *Config) {
			c.Export = ExportConfig{Enabled: true, DatabaseURL: "postgres://localhost/mrio"}
		}, wantErr: "export.max_attempts"},
		{name: "unknown stage", mode: "run", mutate: func(c *Config) { c.Run.Stages = []string{"feed", "water"} }, wantErr: "unknown stage water"},
		{name: "runs ignores paths", mode: "runs", mutate: func(c *Config) { c.Paths.InputDir = "" }},
		{name: "unknown mode", mode: "serve", mutate: func(*Config) {}, wantErr: "unknown mode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate(tt.mode)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestExportURL(t *testing.T) {
	cfg := validConfig()
	assert.Empty(t, cfg.ExportURL())

	cfg.Store = StoreConfig{Driver: "postgres", DatabaseURL: "postgres://store"}
	assert.Equal(t, "postgres://store", cfg.ExportURL())

	cfg.Export.DatabaseURL = "postgres://export"
	assert.Equal(t, "postgres://export", cfg.ExportURL())
}

func TestInitLogger(t *testing.T) {
	defer zap.ReplaceGlobals(zap.NewNop())

	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.True(t, zap.L().Core().Enabled(zap.DebugLevel))

	require.NoError(t, InitLogger(LogConfig{Level: "warn", Format: "json"}))
	assert.False(t, zap.L().Core().Enabled(zap.InfoLevel))

	err := InitLogger(LogConfig{Level: "loud", Format: "json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse log level")
}
