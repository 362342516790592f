package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/mrio-cli/internal/conversion"
)

// Config holds the full application configuration.
type Config struct {
	Paths      PathsConfig      `yaml:"paths" mapstructure:"paths"`
	Run        RunConfig        `yaml:"run" mapstructure:"run"`
	Feed       FeedConfig       `yaml:"feed" mapstructure:"feed"`
	Provenance ProvenanceConfig `yaml:"provenance" mapstructure:"provenance"`
	Batch      BatchConfig      `yaml:"batch" mapstructure:"batch"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Export     ExportConfig     `yaml:"export" mapstructure:"export"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// PathsConfig locates the input tables and the results tree.
type PathsConfig struct {
	InputDir   string `yaml:"input_dir" mapstructure:"input_dir"`
	ResultsDir string `yaml:"results_dir" mapstructure:"results_dir"`
}

// RunConfig selects what a run computes.
type RunConfig struct {
	Years            []int    `yaml:"years" mapstructure:"years"`
	Countries        []string `yaml:"countries" mapstructure:"countries"`
	ConversionMetric string   `yaml:"conversion_metric" mapstructure:"conversion_metric"`
	Prefer           string   `yaml:"prefer" mapstructure:"prefer"`
	HistoricBefore   int      `yaml:"historic_before" mapstructure:"historic_before"`
	Stages           []string `yaml:"stages" mapstructure:"stages"`
}

// FeedConfig holds the item-code thresholds of the feed allocator.
type FeedConfig struct {
	AnimalItemThreshold int `yaml:"animal_item_threshold" mapstructure:"animal_item_threshold"`
	CropShareCeiling    int `yaml:"crop_share_ceiling" mapstructure:"crop_share_ceiling"`
}

// ProvenanceConfig tunes the provenance tracer.
type ProvenanceConfig struct {
	MinRatio     float64 `yaml:"min_ratio" mapstructure:"min_ratio"`
	MinValue     float64 `yaml:"min_value" mapstructure:"min_value"`
	SupplyWindow int     `yaml:"supply_window" mapstructure:"supply_window"`
	GroupColumn  string  `yaml:"group_column" mapstructure:"group_column"`
}

// BatchConfig configures parallel country processing.
type BatchConfig struct {
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
}

// StoreConfig configures the run log backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ExportConfig configures the optional Postgres export of provenance tables.
type ExportConfig struct {
	Enabled     bool   `yaml:"enabled" mapstructure:"enabled"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	Schema      string `yaml:"schema" mapstructure:"schema"`
	MaxAttempts int    `yaml:"max_attempts" mapstructure:"max_attempts"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("MRIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("paths.input_dir", "./input_data")
	v.SetDefault("paths.results_dir", "./results")
	v.SetDefault("run.years", []int{2013})
	v.SetDefault("run.countries", []string{"GBR", "USA", "IND", "BRA", "JPN", "UGA"})
	v.SetDefault("run.conversion_metric", "dry_matter")
	v.SetDefault("run.prefer", "import")
	v.SetDefault("run.historic_before", 2012)
	v.SetDefault("run.stages", []string{"feed", "provenance"})
	v.SetDefault("feed.animal_item_threshold", 850)
	v.SetDefault("feed.crop_share_ceiling", 867)
	v.SetDefault("provenance.min_ratio", 1e-8)
	v.SetDefault("provenance.min_value", 1e-8)
	v.SetDefault("provenance.supply_window", 0)
	v.SetDefault("provenance.group_column", "group_name_v7")
	v.SetDefault("batch.max_concurrent", 4)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "results/runs.db")
	v.SetDefault("export.enabled", false)
	v.SetDefault("export.schema", "mrio")
	v.SetDefault("export.max_attempts", 3)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Stages a run can execute, in order.
const (
	StageFeed       = "feed"
	StageArea       = "area"
	StageProvenance = "provenance"
)

// Validate checks the configuration required by a command mode
// ("run", "feed", "trace", "area", "runs", "check").
func (c *Config) Validate(mode string) error {
	var errs []string

	pipeline := func() {
		if c.Paths.InputDir == "" {
			errs = append(errs, "paths.input_dir is required")
		}
		if c.Paths.ResultsDir == "" {
			errs = append(errs, "paths.results_dir is required")
		}
		if _, err := conversion.ParseMetric(c.Run.ConversionMetric); err != nil {
			errs = append(errs, "run.conversion_metric "+err.Error())
		}
		if c.Run.Prefer != "import" && c.Run.Prefer != "export" {
			errs = append(errs, `run.prefer must be "import" or "export"`)
		}
		if len(c.Run.Years) == 0 {
			errs = append(errs, "run.years must not be empty")
		}
	}
	countries := func() {
		if len(c.Run.Countries) == 0 {
			errs = append(errs, "run.countries must not be empty")
		}
		if c.Batch.MaxConcurrent < 1 || c.Batch.MaxConcurrent > 64 {
			errs = append(errs, "batch.max_concurrent must be between 1 and 64")
		}
		if c.Provenance.MinRatio < 0 || c.Provenance.MinValue < 0 {
			errs = append(errs, "provenance thresholds must be >= 0")
		}
		if c.Provenance.SupplyWindow < 0 {
			errs = append(errs, "provenance.supply_window must be >= 0")
		}
	}
	feed := func() {
		if c.Feed.AnimalItemThreshold <= 0 || c.Feed.CropShareCeiling <= 0 {
			errs = append(errs, "feed thresholds must be > 0")
		}
	}
	store := func() {
		switch c.Store.Driver {
		case "sqlite", "postgres":
		default:
			errs = append(errs, `store.driver must be "sqlite" or "postgres"`)
		}
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required")
		}
	}
	export := func() {
		if c.Export.Enabled && c.Export.DatabaseURL == "" && c.Store.Driver != "postgres" {
			errs = append(errs, "export.database_url is required when export is enabled")
		}
		if c.Export.Enabled && c.Export.MaxAttempts < 1 {
			errs = append(errs, "export.max_attempts must be >= 1")
		}
	}

	switch mode {
	case "run":
		pipeline()
		countries()
		feed()
		store()
		export()
		for _, s := range c.Run.Stages {
			switch s {
			case StageFeed, StageArea, StageProvenance, "all":
			default:
				errs = append(errs, "run.stages: unknown stage "+s)
			}
		}
	case "feed":
		pipeline()
		feed()
	case "trace":
		pipeline()
		countries()
		export()
	case "area":
		pipeline()
	case "runs":
		store()
	case "check":
		pipeline()
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ExportURL returns the Postgres URL for provenance export, falling back to the run-log URL.
func (c *Config) ExportURL() string {
	if c.Export.DatabaseURL != "" {
		return c.Export.DatabaseURL
	}
	if c.Store.Driver == "postgres" {
		return c.Store.DatabaseURL
	}
	return ""
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
