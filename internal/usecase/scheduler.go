package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"BrandPulse/internal/domain"
	"BrandPulse/internal/ports"
)

// Trigger creates queued runs and hands them to the worker queue. It is
// shared by the HTTP API and the periodic scheduler.
type Trigger struct {
	runs    ports.RunStore
	queue   ports.RunQueue
	brandID string
	now     func() time.Time
	logger  *slog.Logger
}

// NewTrigger wires the run store and queue.
func NewTrigger(runs ports.RunStore, queue ports.RunQueue, brandID string, logger *slog.Logger) *Trigger {
	return &Trigger{
		runs:    runs,
		queue:   queue,
		brandID: brandID,
		now:     time.Now,
		logger:  logger,
	}
}

// StartRun persists a queued run record and enqueues it for the worker.
func (t *Trigger) StartRun(ctx context.Context, override *domain.QueryOverride) (string, error) {
	run := domain.Run{
		ID:        uuid.NewString(),
		BrandID:   t.brandID,
		Status:    domain.StatusQueued,
		StartedAt: t.now().UTC(),
	}

	if err := t.runs.CreateRun(ctx, run); err != nil {
		return "", fmt.Errorf("create run: %w", err)
	}

	if err := t.queue.Enqueue(ctx, run.ID, override); err != nil {
		return "", fmt.Errorf("enqueue run: %w", err)
	}

	if t.logger != nil {
		t.logger.Info("run enqueued", "run_id", run.ID)
	}
	return run.ID, nil
}

// PeriodicTrigger wires the scheduler driver with the run trigger.
type PeriodicTrigger struct {
	driver  ports.Scheduler
	trigger *Trigger
	logger  *slog.Logger
}

// NewPeriodicTrigger returns a helper to start/stop recurring runs.
func NewPeriodicTrigger(driver ports.Scheduler, trigger *Trigger, logger *slog.Logger) *PeriodicTrigger {
	return &PeriodicTrigger{driver: driver, trigger: trigger, logger: logger}
}

// Start registers the run trigger with the underlying scheduler.
func (s *PeriodicTrigger) Start(ctx context.Context) error {
	if s.driver == nil || s.trigger == nil {
		return nil
	}

	job := func(at time.Time) {
		if _, err := s.trigger.StartRun(ctx, nil); err != nil && s.logger != nil {
			s.logger.Error("scheduled run failed to start", "at", at, "error", err)
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *PeriodicTrigger) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}
	return s.driver.Stop(ctx)
}
