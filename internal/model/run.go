package model

// PassThreshold is the score at or above which an item or run counts as passing.
const PassThreshold = 80

// Metrics holds per-call performance numbers reported by an adapter.
type Metrics struct {
	// Wall-clock time of the call in seconds
	DurationSeconds float64 `json:"duration_seconds"`
	// Generated tokens per second as reported by the backend
	TokensPerSecond float64 `json:"tokens_per_second"`
	// Number of generated tokens
	TokenCount int `json:"token_count"`
	// Response length in runes, filled in by the runner
	ResponseLength int `json:"response_length"`
}

// ItemRecord is one evaluated dataset item within a run.
type ItemRecord struct {
	ID              string   `json:"id"`
	Dataset         string   `json:"dataset,omitempty"`
	Prompt          string   `json:"prompt"`
	Response        string   `json:"response"`
	Score           int      `json:"score"`
	MatchedKeywords []string `json:"matched_keywords"`
	MissingKeywords []string `json:"missing_keywords"`
	Note            string   `json:"note,omitempty"`
	Metrics         *Metrics `json:"metrics,omitempty"`
	Error           string   `json:"error,omitempty"`
}

// Passed reports whether the item reached the pass threshold.
func (i ItemRecord) Passed() bool {
	return i.Score >= PassThreshold
}

// RunRecord is the immutable summary of one finished run.
type RunRecord struct {
	// Unique id derived from the completion time
	ID string `json:"id"`
	// Human readable completion time
	Timestamp string `json:"timestamp"`
	Model     string `json:"model"`
	// Dataset names in the order they were evaluated
	Datasets []string `json:"datasets"`
	AvgScore float64  `json:"avg_score"`
	// Averages over items that carry metrics; absent in records written
	// before metrics were collected.
	AvgDuration       *float64     `json:"avg_duration,omitempty"`
	AvgTPS            *float64     `json:"avg_tps,omitempty"`
	AvgResponseLength *float64     `json:"avg_response_length,omitempty"`
	Details           []ItemRecord `json:"details"`
}

// Passed reports whether the run average reached the pass threshold.
func (r RunRecord) Passed() bool {
	return r.AvgScore >= PassThreshold
}

// Float returns a pointer to v, for populating optional averages.
func Float(v float64) *float64 {
	return &v
}
