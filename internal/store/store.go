// Package store keeps the run log: one row per year/country task.
package store

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/sells-group/mrio-cli/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Year    int             `json:"year,omitempty"`
	Country string          `json:"country,omitempty"`
	Status  model.RunStatus `json:"status,omitempty"`
	Limit   int             `json:"limit,omitempty"`
}

// RunStore defines the persistence interface for the run log.
type RunStore interface {
	StartRun(ctx context.Context, year int, country string) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, result model.RunResult) error
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Open connects to the configured backend ("sqlite" or "postgres") and migrates it.
func Open(ctx context.Context, driver, url string) (RunStore, error) {
	var (
		st  RunStore
		err error
	)
	switch driver {
	case "sqlite":
		if dir := filepath.Dir(url); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, eris.Wrapf(err, "store: create %s", dir)
			}
		}
		st, err = NewSQLite(url)
	case "postgres":
		st, err = NewPostgres(ctx, url)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

const defaultListLimit = 100

func listLimit(n int) int {
	if n <= 0 {
		return defaultListLimit
	}
	return n
}
