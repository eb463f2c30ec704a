package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"BrandPulse/internal/domain"
	"BrandPulse/internal/ports"
)

// PipelineDeps wires all collaborators into the run orchestration.
type PipelineDeps struct {
	Runs       ports.RunStore
	Brands     ports.BrandSource
	Queries    *QueryGenerator
	Gateway    *SearchGateway
	Scheduler  *EvaluationScheduler
	Evaluator  ports.SnippetEvaluator
	Ranker     *Ranker
	History    ports.EvaluatedSnippetStore
	Dispatcher ports.ReportDispatcher
	BrandID    string
	Logger     *slog.Logger
}

// Pipeline owns the run state machine: queued -> running -> completed or
// failed. It persists intermediate and final state and hands the summary
// off to the report dispatcher.
type Pipeline struct {
	runs       ports.RunStore
	brands     ports.BrandSource
	queries    *QueryGenerator
	gateway    *SearchGateway
	scheduler  *EvaluationScheduler
	evaluator  ports.SnippetEvaluator
	ranker     *Ranker
	history    ports.EvaluatedSnippetStore
	dispatcher ports.ReportDispatcher
	brandID    string
	now        func() time.Time
	logger     *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		runs:       deps.Runs,
		brands:     deps.Brands,
		queries:    deps.Queries,
		gateway:    deps.Gateway,
		scheduler:  deps.Scheduler,
		evaluator:  deps.Evaluator,
		ranker:     deps.Ranker,
		history:    deps.History,
		dispatcher: deps.Dispatcher,
		brandID:    deps.BrandID,
		now:        time.Now,
		logger:     deps.Logger,
	}
}

// ProcessRun drives one run to a terminal state. It never returns an
// error to the caller: a missing run record aborts without any state
// change, and every failure after the run reaches running is recorded on
// the run itself.
func (p *Pipeline) ProcessRun(ctx context.Context, runID string, override *domain.QueryOverride) {
	run, err := p.runs.GetRun(ctx, runID)
	if err != nil {
		p.log().Error("run record not found, aborting without state change", "run_id", runID, "error", err)
		return
	}
	if run.Status.Terminal() {
		p.log().Warn("run already terminal, skipping redelivery", "run_id", runID, "status", string(run.Status))
		return
	}

	if err := p.runs.MarkRunning(ctx, runID); err != nil {
		p.log().Error("cannot transition run to running", "run_id", runID, "error", err)
		return
	}

	if err := p.execute(ctx, runID, override); err != nil {
		p.log().Error("run failed", "run_id", runID, "error", err)
		if storeErr := p.runs.CompleteRun(ctx, runID, domain.StatusFailed, nil, err.Error()); storeErr != nil {
			p.log().Error("cannot record run failure", "run_id", runID, "error", storeErr)
		}
		return
	}

	p.log().Info("run completed", "run_id", runID)
}

// execute performs the research sequence. Any panic is converted into an
// error so the run record always reaches a terminal state.
func (p *Pipeline) execute(ctx context.Context, runID string, override *domain.QueryOverride) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pipeline panic: %v", r)
		}
	}()

	brand, err := p.brands.LoadBrand(p.brandID)
	if err != nil {
		return fmt.Errorf("load brand config: %w", err)
	}

	brandTerms := p.queries.Generate(brand, override, domain.TaskBrandHealth)
	marketTerms := p.marketTerms(brand, override)

	var (
		executed    []string
		searchTimes []time.Time
	)
	crawl := func(terms []string) ([]domain.Snippet, error) {
		snippets, ran, err := p.gateway.RunSearches(ctx, terms, brand.DomainBlacklist)
		if err != nil {
			return nil, fmt.Errorf("run searches: %w", err)
		}
		executed = append(executed, ran...)
		for range ran {
			searchTimes = append(searchTimes, p.now().UTC())
		}
		return snippets, nil
	}

	brandSnippets, err := crawl(brandTerms)
	if err != nil {
		return err
	}
	marketSnippets, err := crawl(marketTerms)
	if err != nil {
		return err
	}

	brandScored := p.scheduler.EvaluateAll(ctx, brandSnippets, brand, domain.TaskBrandHealth)
	marketScored := p.scheduler.EvaluateAll(ctx, marketSnippets, brand, domain.TaskMarketIntelligence)

	result := domain.RunResult{
		BrandHealth:        evaluations(brandScored),
		MarketIntelligence: evaluations(marketScored),
	}

	allScored := append(append([]domain.ScoredSnippet{}, brandScored...), marketScored...)
	p.appendHistory(ctx, allScored)

	selection := p.ranker.Select(allScored, brand,
		p.evaluator.SystemPrompt(brand, domain.TaskBrandHealth),
		p.evaluator.SystemPrompt(brand, domain.TaskMarketIntelligence),
	)

	if err := p.runs.CompleteRun(ctx, runID, domain.StatusCompleted, &result, ""); err != nil {
		return fmt.Errorf("persist run result: %w", err)
	}

	p.dispatch(ctx, runID, brand, selection, allScored, executed, searchTimes)
	return nil
}

// marketTerms generates market-intelligence queries only when the caller
// or the brand configuration asks for them; unlike brand health, there is
// no implicit keyword-driven fallback.
func (p *Pipeline) marketTerms(brand domain.BrandConfig, override *domain.QueryOverride) []string {
	hasOverride := override != nil && len(override.MarketIntelligencePhrases) > 0
	if !hasOverride && len(brand.DefaultQueriesFor(domain.TaskMarketIntelligence)) == 0 {
		return nil
	}
	return p.queries.Generate(brand, override, domain.TaskMarketIntelligence)
}

// appendHistory persists the durable evaluation projections. Failures are
// logged and skipped: history is reporting-only.
func (p *Pipeline) appendHistory(ctx context.Context, scored []domain.ScoredSnippet) {
	if p.history == nil {
		return
	}
	for _, item := range scored {
		snap := domain.EvaluatedSnippet{
			URL:            item.Snippet.URL,
			Title:          item.Snippet.Title,
			ContentSummary: item.Evaluation.Summary,
			RelevanceScore: item.Evaluation.RelevanceScore,
			Category:       firstCategory(item.Evaluation.Categories),
			Timestamp:      p.now().UTC(),
		}
		if err := p.history.AppendEvaluated(ctx, snap); err != nil {
			p.log().Warn("evaluated snippet write failed", "url", snap.URL, "error", err)
		}
	}
}

// dispatch hands the summary to the report dispatcher. The run is already
// completed at this point, so delivery failures only log.
func (p *Pipeline) dispatch(ctx context.Context, runID string, brand domain.BrandConfig, selection domain.Selection, scored []domain.ScoredSnippet, executed []string, searchTimes []time.Time) {
	if p.dispatcher == nil {
		return
	}

	userPrompt := ""
	if len(scored) > 0 {
		userPrompt = scored[0].Snippet.Text
	}

	payload := domain.ReportPayload{
		RunID:              runID,
		BrandDisplayName:   brand.Name(),
		BrandSpecific:      selection.BrandSpecific,
		BrandRelevant:      selection.BrandRelevant,
		BrandSystemPrompt:  selection.BrandSystemPrompt,
		MarketSystemPrompt: selection.MarketSystemPrompt,
		UserPrompt:         userPrompt,
		SearchTerms:        executed,
		NumSearchCalls:     len(executed),
		SearchTimes:        searchTimes,
		ContentSummaries:   selection.ContentSummaries,
	}

	if err := p.dispatcher.Dispatch(ctx, payload); err != nil {
		p.log().Error("report dispatch failed", "run_id", runID, "error", err)
	}
}

func (p *Pipeline) log() *slog.Logger {
	if p.logger != nil {
		return p.logger
	}
	return slog.Default()
}

func evaluations(scored []domain.ScoredSnippet) []domain.Evaluation {
	out := make([]domain.Evaluation, 0, len(scored))
	for _, item := range scored {
		out = append(out, item.Evaluation)
	}
	return out
}

func firstCategory(categories []string) string {
	if len(categories) == 0 {
		return ""
	}
	return categories[0]
}
