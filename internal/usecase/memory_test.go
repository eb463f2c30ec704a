package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"BrandPulse/internal/domain"
	"BrandPulse/internal/ports"
)

// memQuota enforces the daily cap in memory, mirroring the store contract.
type memQuota struct {
	mu       sync.Mutex
	dailyCap int
	used     map[string]int
}

func newMemQuota(dailyCap int) *memQuota {
	return &memQuota{dailyCap: dailyCap, used: map[string]int{}}
}

func (q *memQuota) Reserve(_ context.Context, date time.Time, requested int) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	day := date.UTC().Format("2006-01-02")
	granted := q.dailyCap - q.used[day]
	if granted < 0 {
		granted = 0
	}
	if granted > requested {
		granted = requested
	}
	q.used[day] += granted
	return granted, nil
}

func (q *memQuota) use(date time.Time, n int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.used[date.UTC().Format("2006-01-02")] += n
}

// memVisited is an in-memory visited-URL registry.
type memVisited struct {
	mu        sync.Mutex
	seen      map[string]struct{}
	recordErr error
}

func newMemVisited() *memVisited {
	return &memVisited{seen: map[string]struct{}{}}
}

func (v *memVisited) IsVisited(_ context.Context, url string) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, ok := v.seen[url]
	return ok, nil
}

func (v *memVisited) Record(_ context.Context, visit domain.VisitedURL) error {
	if v.recordErr != nil {
		return v.recordErr
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.seen[visit.URL] = struct{}{}
	return nil
}

// memRuns is an in-memory run store tracking lifecycle transitions.
type memRuns struct {
	mu   sync.Mutex
	runs map[string]domain.Run
}

func newMemRuns(runs ...domain.Run) *memRuns {
	m := &memRuns{runs: map[string]domain.Run{}}
	for _, r := range runs {
		m.runs[r.ID] = r
	}
	return m
}

func (m *memRuns) CreateRun(_ context.Context, run domain.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.ID] = run
	return nil
}

func (m *memRuns) GetRun(_ context.Context, id string) (domain.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return domain.Run{}, errors.New("run not found")
	}
	return run, nil
}

func (m *memRuns) MarkRunning(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return errors.New("run not found")
	}
	run.Status = domain.StatusRunning
	m.runs[id] = run
	return nil
}

func (m *memRuns) CompleteRun(_ context.Context, id string, status domain.RunStatus, result *domain.RunResult, errMessage string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return errors.New("run not found")
	}
	now := time.Now().UTC()
	run.Status = status
	run.CompletedAt = &now
	run.Result = result
	run.ErrorMessage = errMessage
	m.runs[id] = run
	return nil
}

func (m *memRuns) get(id string) domain.Run {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runs[id]
}

// stubTransport replays canned snippets per term and counts calls.
type stubTransport struct {
	mu      sync.Mutex
	results map[string][]domain.Snippet
	calls   int
}

func (t *stubTransport) Search(_ context.Context, term string) []domain.Snippet {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls++
	return t.results[term]
}

func (t *stubTransport) callCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}

// stubEvaluator returns a fixed evaluation per snippet text.
type stubEvaluator struct {
	mu     sync.Mutex
	scores map[string]int
	err    error
	calls  int
}

var _ ports.SnippetEvaluator = (*stubEvaluator)(nil)

func (e *stubEvaluator) EvaluateSnippet(_ context.Context, text string, _ domain.BrandConfig, _ domain.TaskType) (domain.Evaluation, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	if e.err != nil {
		return domain.Evaluation{}, e.err
	}
	score := e.scores[text]
	return domain.Evaluation{
		Summary:        "summary of " + text,
		Headline:       "headline of " + text,
		RelevanceScore: score,
		Categories:     []string{"news"},
	}, nil
}

func (e *stubEvaluator) SystemPrompt(_ domain.BrandConfig, task domain.TaskType) string {
	return "system prompt for " + string(task)
}

func (e *stubEvaluator) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// captureDispatcher records the dispatched payload.
type captureDispatcher struct {
	mu      sync.Mutex
	payload *domain.ReportPayload
}

func (d *captureDispatcher) Dispatch(_ context.Context, payload domain.ReportPayload) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.payload = &payload
	return nil
}

// memBrands serves one fixed brand config.
type memBrands struct {
	brand domain.BrandConfig
	err   error
}

func (b *memBrands) LoadBrand(string) (domain.BrandConfig, error) {
	if b.err != nil {
		return domain.BrandConfig{}, b.err
	}
	return b.brand, nil
}

// identity sampling and first-element choice make term generation
// reproducible in tests.
func identitySample(items []string, n int) []string {
	if n > len(items) {
		n = len(items)
	}
	return items[:n]
}

func firstChoice(items []string) string {
	if len(items) == 0 {
		return ""
	}
	return items[0]
}
