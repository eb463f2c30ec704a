package domain

import "time"

// RunStatus enumerates the lifecycle states of a research run.
type RunStatus string

const (
	StatusQueued    RunStatus = "queued"
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
)

// Terminal reports whether the status ends the run lifecycle.
func (s RunStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Run tracks one execution of the research-and-report pipeline.
type Run struct {
	ID           string
	BrandID      string
	Status       RunStatus
	StartedAt    time.Time
	CompletedAt  *time.Time
	Result       *RunResult
	ErrorMessage string
}

// RunResult holds the two evaluation buckets attached on completion.
type RunResult struct {
	BrandHealth        []Evaluation `json:"brand_health"`
	MarketIntelligence []Evaluation `json:"market_intelligence"`
}

// Feedback captures a yes/no answer for a delivered run summary.
type Feedback struct {
	ID        int64
	RunID     string
	Value     string
	Timestamp time.Time
}

// VisitedURL is a durable membership record preventing reprocessing.
// Domain is retained for reporting only, not for dedup.
type VisitedURL struct {
	URL         string
	Domain      string
	LastVisited time.Time
}

// EvaluatedSnippet is the append-only projection of an evaluation
// kept for historical reporting.
type EvaluatedSnippet struct {
	URL            string
	Title          string
	ContentSummary string
	RelevanceScore int
	Category       string
	Timestamp      time.Time
}
