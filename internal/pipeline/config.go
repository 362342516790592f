// Package pipeline runs the attribution stages over years and countries.
package pipeline

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/mrio-cli/internal/config"
	"github.com/sells-group/mrio-cli/internal/conversion"
	"github.com/sells-group/mrio-cli/internal/dataset"
	"github.com/sells-group/mrio-cli/internal/feed"
	"github.com/sells-group/mrio-cli/internal/provenance"
)

// stageOrder is the execution order of the stages within a year.
var stageOrder = []string{config.StageFeed, config.StageArea, config.StageProvenance}

// RunConfig is the immutable configuration of an Engine.
type RunConfig struct {
	Layout        dataset.Layout
	Metric        conversion.Metric
	Years         []int
	Countries     []string
	Stages        []string
	MaxConcurrent int
	Feed          feed.Options
	Provenance    provenance.Options
	SupplyWindow  int
	GroupColumn   string
}

// NewRunConfig derives a RunConfig from the application configuration.
func NewRunConfig(cfg *config.Config) (RunConfig, error) {
	metric, err := conversion.ParseMetric(cfg.Run.ConversionMetric)
	if err != nil {
		return RunConfig{}, err
	}
	stages, err := ParseStages(cfg.Run.Stages)
	if err != nil {
		return RunConfig{}, err
	}
	countries := make([]string, len(cfg.Run.Countries))
	for i, c := range cfg.Run.Countries {
		countries[i] = strings.ToUpper(strings.TrimSpace(c))
	}

	maxConcurrent := cfg.Batch.MaxConcurrent
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	return RunConfig{
		Layout: dataset.Layout{
			InputDir:       cfg.Paths.InputDir,
			ResultsDir:     cfg.Paths.ResultsDir,
			Prefer:         cfg.Run.Prefer,
			Metric:         string(metric),
			HistoricBefore: cfg.Run.HistoricBefore,
		},
		Metric:        metric,
		Years:         append([]int(nil), cfg.Run.Years...),
		Countries:     countries,
		Stages:        stages,
		MaxConcurrent: maxConcurrent,
		Feed: feed.Options{
			AnimalItemThreshold: cfg.Feed.AnimalItemThreshold,
			CropShareCeiling:    cfg.Feed.CropShareCeiling,
		},
		Provenance: provenance.Options{
			MinRatio: cfg.Provenance.MinRatio,
			MinValue: cfg.Provenance.MinValue,
		},
		SupplyWindow: cfg.Provenance.SupplyWindow,
		GroupColumn:  cfg.Provenance.GroupColumn,
	}, nil
}

// ParseStages validates stage names and returns them in execution order without
// duplicates. An empty list selects every stage.
func ParseStages(names []string) ([]string, error) {
	if len(names) == 0 {
		return append([]string(nil), stageOrder...), nil
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" {
			continue
		}
		if n == "all" {
			return append([]string(nil), stageOrder...), nil
		}
		known := false
		for _, s := range stageOrder {
			if s == n {
				known = true
				break
			}
		}
		if !known {
			return nil, eris.Errorf("pipeline: unknown stage %q", n)
		}
		want[n] = true
	}
	var out []string
	for _, s := range stageOrder {
		if want[s] {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil, eris.New("pipeline: no stages selected")
	}
	return out, nil
}

func hasStage(stages []string, name string) bool {
	for _, s := range stages {
		if s == name {
			return true
		}
	}
	return false
}
