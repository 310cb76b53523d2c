package live

import "time"

// ItemStatus is the display status of one dataset item.
type ItemStatus string

const (
	StatusQueued  ItemStatus = "queued"
	StatusRunning ItemStatus = "running"
	StatusPassed  ItemStatus = "passed"
	StatusFailed  ItemStatus = "failed"
	StatusError   ItemStatus = "error"
)

// ItemRow holds UI state for a single item.
type ItemRow struct {
	Index      int
	ID         string
	Dataset    string
	Prompt     string
	Status     ItemStatus
	Score      int
	Duration   float64
	TPS        float64
	Tokens     int
	HasMetrics bool
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// StatusCounts aggregates counts by status bucket.
type StatusCounts struct {
	Queued  int
	Running int
	Done    int
	Passed  int
	Failed  int
	Errors  int
}

// State captures the live UI state for one run.
type State struct {
	Model     string
	Datasets  []string
	StartedAt time.Time
	Skipped   []string
	Rows      []ItemRow
	Counts    StatusCounts
	LastEvent string

	Finished bool
	RunID    string
	AvgScore float64
	Err      string
}
