package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"BrandPulse/internal/domain"
	"BrandPulse/internal/ports"
)

func testBrand() domain.BrandConfig {
	return domain.BrandConfig{
		ID:              "acme",
		DisplayName:     "Acme",
		Keywords:        domain.BrandKeywords{Core: []string{"acme"}},
		RotatingPhrases: []string{"news"},
	}
}

// newTestPipeline assembles a pipeline around in-memory collaborators. The
// transport and evaluator stubs are returned for per-test scripting.
func newTestPipeline(runs *memRuns, transport *stubTransport, eval *stubEvaluator, dispatcher ports.ReportDispatcher) *Pipeline {
	gateway := NewSearchGateway(transport, newMemQuota(100), newMemVisited(), nil, nil)
	return NewPipeline(PipelineDeps{
		Runs:       runs,
		Brands:     &memBrands{brand: testBrand()},
		Queries:    NewQueryGenerator(2, nil).WithSampling(identitySample, firstChoice),
		Gateway:    gateway,
		Scheduler:  NewEvaluationScheduler(eval, 4, 20, 0, nil),
		Evaluator:  eval,
		Ranker:     NewRanker(60, 10),
		Dispatcher: dispatcher,
		BrandID:    "acme",
	})
}

func TestProcessRunMissingRecordLeavesNoTrace(t *testing.T) {
	runs := newMemRuns()
	pipe := newTestPipeline(runs, &stubTransport{}, &stubEvaluator{}, nil)

	pipe.ProcessRun(context.Background(), "ghost", nil)

	require.Empty(t, runs.runs)
}

func TestProcessRunSkipsTerminalRun(t *testing.T) {
	runs := newMemRuns(domain.Run{ID: "run-1", BrandID: "acme", Status: domain.StatusCompleted})
	transport := &stubTransport{}
	pipe := newTestPipeline(runs, transport, &stubEvaluator{}, nil)

	pipe.ProcessRun(context.Background(), "run-1", nil)

	require.Equal(t, domain.StatusCompleted, runs.get("run-1").Status)
	require.Zero(t, transport.callCount())
}

func TestProcessRunCompletesWithRankedResult(t *testing.T) {
	runs := newMemRuns(domain.Run{ID: "run-1", BrandID: "acme", Status: domain.StatusQueued})
	transport := &stubTransport{results: map[string][]domain.Snippet{
		"acme news": {
			{URL: "https://news.example/acme", Text: "Acme launches a new product", Title: "Launch"},
			{URL: "https://news.example/other", Text: "unrelated industry story", Title: "Industry"},
		},
	}}
	eval := &stubEvaluator{scores: map[string]int{
		"Acme launches a new product": 90,
		"unrelated industry story":    70,
	}}
	dispatcher := &captureDispatcher{}
	pipe := newTestPipeline(runs, transport, eval, dispatcher)

	pipe.ProcessRun(context.Background(), "run-1", nil)

	run := runs.get("run-1")
	require.Equal(t, domain.StatusCompleted, run.Status)
	require.NotNil(t, run.CompletedAt)
	require.Empty(t, run.ErrorMessage)
	require.NotNil(t, run.Result)
	require.Len(t, run.Result.BrandHealth, 2)
	require.Empty(t, run.Result.MarketIntelligence)

	require.NotNil(t, dispatcher.payload)
	require.Equal(t, "run-1", dispatcher.payload.RunID)
	require.Equal(t, "Acme", dispatcher.payload.BrandDisplayName)
	require.Equal(t, []string{"acme news"}, dispatcher.payload.SearchTerms)
	require.Equal(t, 1, dispatcher.payload.NumSearchCalls)
	require.Len(t, dispatcher.payload.BrandSpecific, 1)
	require.Equal(t, "https://news.example/acme", dispatcher.payload.BrandSpecific[0].URL)
	require.Len(t, dispatcher.payload.BrandRelevant, 1)
}

func TestProcessRunHonorsBrandDomainBlacklist(t *testing.T) {
	runs := newMemRuns(domain.Run{ID: "run-1", BrandID: "acme", Status: domain.StatusQueued})
	transport := &stubTransport{results: map[string][]domain.Snippet{
		"acme news": {
			{URL: "https://banned.example/acme", Text: "Acme covered on a banned site", Title: "b"},
			{URL: "https://news.example/acme", Text: "Acme covered elsewhere", Title: "n"},
		},
	}}
	eval := &stubEvaluator{scores: map[string]int{
		"Acme covered on a banned site": 95,
		"Acme covered elsewhere":        90,
	}}
	pipe := newTestPipeline(runs, transport, eval, nil)
	brand := testBrand()
	brand.DomainBlacklist = []string{"banned.example"}
	pipe.brands = &memBrands{brand: brand}

	pipe.ProcessRun(context.Background(), "run-1", nil)

	run := runs.get("run-1")
	require.Equal(t, domain.StatusCompleted, run.Status)
	require.Len(t, run.Result.BrandHealth, 1)
	require.Equal(t, "https://news.example/acme", run.Result.BrandHealth[0].URL)
	require.Equal(t, 1, eval.callCount())
}

func TestProcessRunLowRelevanceStillCompletes(t *testing.T) {
	runs := newMemRuns(domain.Run{ID: "run-1", BrandID: "acme", Status: domain.StatusQueued})
	transport := &stubTransport{results: map[string][]domain.Snippet{
		"acme news": {{URL: "https://news.example/1", Text: "barely related", Title: "t"}},
	}}
	eval := &stubEvaluator{scores: map[string]int{"barely related": 40}}
	dispatcher := &captureDispatcher{}
	pipe := newTestPipeline(runs, transport, eval, dispatcher)

	pipe.ProcessRun(context.Background(), "run-1", nil)

	run := runs.get("run-1")
	require.Equal(t, domain.StatusCompleted, run.Status)
	require.NotNil(t, dispatcher.payload)
	require.Empty(t, dispatcher.payload.BrandSpecific)
	require.Empty(t, dispatcher.payload.BrandRelevant)
	require.Len(t, dispatcher.payload.ContentSummaries, 1)
}

func TestProcessRunBrandLoadFailureFailsRun(t *testing.T) {
	runs := newMemRuns(domain.Run{ID: "run-1", BrandID: "acme", Status: domain.StatusQueued})
	pipe := newTestPipeline(runs, &stubTransport{}, &stubEvaluator{}, nil)
	pipe.brands = &memBrands{err: context.DeadlineExceeded}

	pipe.ProcessRun(context.Background(), "run-1", nil)

	run := runs.get("run-1")
	require.Equal(t, domain.StatusFailed, run.Status)
	require.Contains(t, run.ErrorMessage, "load brand config")
	require.Nil(t, run.Result)
}

func TestProcessRunPanicBecomesFailedRun(t *testing.T) {
	runs := newMemRuns(domain.Run{ID: "run-1", BrandID: "acme", Status: domain.StatusQueued})
	transport := &stubTransport{results: map[string][]domain.Snippet{
		"acme news": {{URL: "https://news.example/1", Text: "text", Title: "t"}},
	}}
	pipe := newTestPipeline(runs, transport, &stubEvaluator{}, nil)
	pipe.ranker = nil // nil dereference inside execute

	pipe.ProcessRun(context.Background(), "run-1", nil)

	run := runs.get("run-1")
	require.Equal(t, domain.StatusFailed, run.Status)
	require.Contains(t, run.ErrorMessage, "pipeline panic")
}

func TestProcessRunMarketTermsOnlyWhenConfigured(t *testing.T) {
	runs := newMemRuns(domain.Run{ID: "run-1", BrandID: "acme", Status: domain.StatusQueued})
	transport := &stubTransport{results: map[string][]domain.Snippet{
		"acme market trends": {{URL: "https://news.example/m", Text: "market story", Title: "m"}},
	}}
	eval := &stubEvaluator{scores: map[string]int{"market story": 80}}
	pipe := newTestPipeline(runs, transport, eval, &captureDispatcher{})

	override := &domain.QueryOverride{MarketIntelligencePhrases: []string{"market trends"}}
	pipe.ProcessRun(context.Background(), "run-1", override)

	run := runs.get("run-1")
	require.Equal(t, domain.StatusCompleted, run.Status)
	require.Len(t, run.Result.MarketIntelligence, 1)
}

func TestProcessRunHistoryFailureIsNonFatal(t *testing.T) {
	runs := newMemRuns(domain.Run{ID: "run-1", BrandID: "acme", Status: domain.StatusQueued})
	transport := &stubTransport{results: map[string][]domain.Snippet{
		"acme news": {{URL: "https://news.example/1", Text: "story", Title: "t"}},
	}}
	eval := &stubEvaluator{scores: map[string]int{"story": 80}}
	pipe := newTestPipeline(runs, transport, eval, nil)
	pipe.history = failingHistory{}

	pipe.ProcessRun(context.Background(), "run-1", nil)

	require.Equal(t, domain.StatusCompleted, runs.get("run-1").Status)
}

type failingHistory struct{}

func (failingHistory) AppendEvaluated(context.Context, domain.EvaluatedSnippet) error {
	return context.DeadlineExceeded
}
