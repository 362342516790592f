package pipeline

import (
	"os"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/mrio-cli/internal/dataset"
	"github.com/sells-group/mrio-cli/internal/model"
)

// CountryReport is the outcome of one country task.
type CountryReport struct {
	Country      string          `yaml:"country"`
	Code         int             `yaml:"code,omitempty"`
	Status       model.RunStatus `yaml:"status"`
	RunID        string          `yaml:"run_id,omitempty"`
	HumanRows    int             `yaml:"human_rows"`
	FeedRows     int             `yaml:"feed_rows"`
	ImpactRows   int             `yaml:"impact_rows"`
	MissingItems int             `yaml:"missing_items"`
	Ungrouped    int             `yaml:"ungrouped_items,omitempty"`
	Error        string          `yaml:"error,omitempty"`
	DurationMS   int64           `yaml:"duration_ms"`

	missing []model.MissingItem
}

// YearReport is written to results/{year}/report.yaml.
type YearReport struct {
	Year         int             `yaml:"year"`
	Metric       string          `yaml:"metric"`
	Prefer       string          `yaml:"prefer"`
	Stages       []string        `yaml:"stages"`
	StartedAt    time.Time       `yaml:"started_at"`
	DurationMS   int64           `yaml:"duration_ms"`
	Feed         *FeedStage      `yaml:"feed,omitempty"`
	Area         *AreaStage      `yaml:"area,omitempty"`
	Countries    []CountryReport `yaml:"countries,omitempty"`
	MissingItems int             `yaml:"missing_items"`
	Error        string          `yaml:"error,omitempty"`
}

// Failed counts the failed country tasks.
func (r *YearReport) Failed() int {
	n := 0
	for _, c := range r.Countries {
		if c.Status == model.RunStatusFailed {
			n++
		}
	}
	return n
}

func (r *YearReport) sortCountries() {
	sort.Slice(r.Countries, func(i, j int) bool { return r.Countries[i].Country < r.Countries[j].Country })
}

func writeReport(path string, r *YearReport) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return eris.Wrap(err, "pipeline: marshal report")
	}
	return dataset.WriteFile(path, data)
}

// ReadReport loads a report written by a previous run.
func ReadReport(path string) (*YearReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: read report %s", path)
	}
	var r YearReport
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, eris.Wrapf(err, "pipeline: parse report %s", path)
	}
	return &r, nil
}
