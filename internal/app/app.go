package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"BrandPulse/internal/brand"
	"BrandPulse/internal/config"
	"BrandPulse/internal/httpapi"
	"BrandPulse/internal/infrastructure/email"
	"BrandPulse/internal/infrastructure/llm"
	"BrandPulse/internal/infrastructure/queue"
	"BrandPulse/internal/infrastructure/scheduler"
	"BrandPulse/internal/infrastructure/search"
	"BrandPulse/internal/infrastructure/storage"
	"BrandPulse/internal/usecase"
)

// Application wires configuration to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	store    *storage.PostgresStore
	queue    *queue.RedisQueue
	pipeline *usecase.Pipeline
	trigger  *usecase.Trigger
	server   *httpapi.Server
	periodic *usecase.PeriodicTrigger
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	store, err := storage.Open(cfg.Database.DSN, cfg.Search.DailyCap)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	runQueue, err := queue.Connect(cfg.Redis.URL, cfg.Redis.QueueKey)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("connect queue: %w", err)
	}

	brands := brand.NewLoader(cfg.Brand.RepoPath, baseLogger.With("component", "brand"))
	transport := search.NewDuckDuckGoTransport(nil, cfg.Search.MaxResultsPerTerm, baseLogger.With("component", "search"))
	completer := llm.NewOpenAICompleter(cfg.OpenAI)
	evaluator := usecase.NewContentEvaluator(completer, baseLogger.With("component", "evaluator"))

	gateway := usecase.NewSearchGateway(transport, store, store, cfg.Search.DomainBlacklist, baseLogger.With("component", "gateway"))
	evalScheduler := usecase.NewEvaluationScheduler(evaluator,
		cfg.Evaluate.Concurrency, cfg.Evaluate.BatchSize, cfg.Evaluate.CacheSize,
		baseLogger.With("component", "evaluate"))
	queries := usecase.NewQueryGenerator(cfg.Search.MaxSearchTerms, baseLogger.With("component", "queries"))
	ranker := usecase.NewRanker(cfg.Ranking.MinRelevanceScore, cfg.Ranking.MaxLinks)
	dispatcher := email.NewSender(cfg.Email, cfg.HTTP.BaseURL, baseLogger.With("component", "email"))

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Runs:       store,
		Brands:     brands,
		Queries:    queries,
		Gateway:    gateway,
		Scheduler:  evalScheduler,
		Evaluator:  evaluator,
		Ranker:     ranker,
		History:    store,
		Dispatcher: dispatcher,
		BrandID:    cfg.Brand.ID,
		Logger:     baseLogger.With("component", "pipeline"),
	})

	trigger := usecase.NewTrigger(store, runQueue, cfg.Brand.ID, baseLogger.With("component", "trigger"))
	server := httpapi.NewServer(trigger, store, store, baseLogger.With("component", "api"))
	periodic := usecase.NewPeriodicTrigger(
		scheduler.NewIntervalScheduler(cfg.Scheduler.Interval),
		trigger,
		baseLogger.With("component", "scheduler"),
	)

	return &Application{
		cfg:      cfg,
		logger:   baseLogger,
		store:    store,
		queue:    runQueue,
		pipeline: pipeline,
		trigger:  trigger,
		server:   server,
		periodic: periodic,
	}, nil
}

// RunAPI serves the HTTP surface and the periodic run trigger until ctx
// is canceled.
func (a *Application) RunAPI(ctx context.Context) error {
	if err := a.periodic.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer func() { _ = a.periodic.Stop(context.Background()) }()

	httpServer := &http.Server{
		Addr:              a.cfg.HTTP.BindAddr,
		Handler:           a.server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("api server starting", "addr", a.cfg.HTTP.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve http: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http: %w", err)
	}
	return nil
}

// RunWorker consumes queued runs until ctx is canceled.
func (a *Application) RunWorker(ctx context.Context) error {
	a.logger.Info("worker started", "queue", a.cfg.Redis.QueueKey)

	for {
		runID, override, err := a.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return nil
			}
			a.logger.Error("dequeue failed", "error", err)
			continue
		}

		a.logger.Info("executing run", "run_id", runID)
		a.pipeline.ProcessRun(ctx, runID, override)
	}
}

// Close releases the store and queue connections.
func (a *Application) Close() {
	if a.queue != nil {
		_ = a.queue.Close()
	}
	if a.store != nil {
		_ = a.store.Close()
	}
}
