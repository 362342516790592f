package model

import "time"

// RunStatus represents the state of one year/country task.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusSkipped  RunStatus = "skipped"
	RunStatusFailed   RunStatus = "failed"
)

// Run is the run-log entry of one year/country task.
type Run struct {
	ID           string     `json:"id"`
	Year         int        `json:"year"`
	Country      string     `json:"country"`
	Status       RunStatus  `json:"status"`
	HumanRows    int        `json:"human_rows"`
	FeedRows     int        `json:"feed_rows"`
	MissingItems int        `json:"missing_items"`
	Error        string     `json:"error,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// RunResult holds the counts recorded when a task finishes.
type RunResult struct {
	Status       RunStatus
	HumanRows    int
	FeedRows     int
	MissingItems int
	Error        string
}
