package ports

import (
	"context"
	"time"

	"BrandPulse/internal/domain"
)

// RunStore persists run records and drives their lifecycle.
type RunStore interface {
	CreateRun(ctx context.Context, run domain.Run) error
	GetRun(ctx context.Context, id string) (domain.Run, error)
	// MarkRunning transitions a queued run to running.
	MarkRunning(ctx context.Context, id string) error
	// CompleteRun atomically sets a terminal status, completed_at, and
	// either the result payload or the error message.
	CompleteRun(ctx context.Context, id string, status domain.RunStatus, result *domain.RunResult, errMessage string) error
}

// VisitedURLStore is the durable set of every URL ever surfaced.
type VisitedURLStore interface {
	IsVisited(ctx context.Context, url string) (bool, error)
	// Record is idempotent: recording an already-present URL is a no-op.
	Record(ctx context.Context, visit domain.VisitedURL) error
}

// QuotaStore enforces the rolling daily cap on outbound search queries.
type QuotaStore interface {
	// Reserve grants min(requested, cap-used) query slots for the date and
	// increments the used count by the grant in the same atomic step.
	Reserve(ctx context.Context, date time.Time, requested int) (int, error)
}

// FeedbackStore persists yes/no feedback for delivered summaries.
type FeedbackStore interface {
	SaveFeedback(ctx context.Context, fb domain.Feedback) error
}

// EvaluatedSnippetStore appends durable evaluation projections.
type EvaluatedSnippetStore interface {
	AppendEvaluated(ctx context.Context, snip domain.EvaluatedSnippet) error
}

// SearchTransport executes one query against the external search engine.
// Failures surface as an empty result list, never as an error.
type SearchTransport interface {
	Search(ctx context.Context, term string) []domain.Snippet
}

// Message is one chat turn sent to the completion transport.
type Message struct {
	Role    string
	Content string
}

// Completer is the LLM completion transport. Retry policy is internal to
// the implementation; it errors only on exhaustion.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// SnippetEvaluator is the capability to evaluate one piece of text for a
// brand. Injected into the evaluation scheduler so tests can substitute it.
type SnippetEvaluator interface {
	EvaluateSnippet(ctx context.Context, text string, brand domain.BrandConfig, task domain.TaskType) (domain.Evaluation, error)
	SystemPrompt(brand domain.BrandConfig, task domain.TaskType) string
}

// BrandSource is the read-only brand configuration lookup.
type BrandSource interface {
	LoadBrand(brandID string) (domain.BrandConfig, error)
}

// ReportDispatcher delivers the completed-run summary to its audience.
type ReportDispatcher interface {
	Dispatch(ctx context.Context, payload domain.ReportPayload) error
}

// RunQueue hands run requests from the API/scheduler to the worker.
type RunQueue interface {
	Enqueue(ctx context.Context, runID string, override *domain.QueryOverride) error
	// Dequeue blocks until a request is available or ctx is done.
	Dequeue(ctx context.Context) (string, *domain.QueryOverride, error)
}

// Scheduler controls when runs are triggered.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
