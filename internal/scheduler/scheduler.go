// Package scheduler triggers the scheduled run on a fixed tick in serve mode.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"news_bot/internal/pipeline"
)

// Runner runs one scheduled pass behind the error boundary.
type Runner interface {
	TriggerScheduled(ctx context.Context) pipeline.Outcome
}

// Scheduler fires the scheduled run on every tick. Slot idempotency lives in
// the pipeline, so ticks may be more frequent than slots.
type Scheduler struct {
	runner Runner
	log    *slog.Logger
	tick   time.Duration
}

// New creates a Scheduler with a 10-minute tick.
func New(runner Runner, log *slog.Logger) *Scheduler {
	return &Scheduler{
		runner: runner,
		log:    log,
		tick:   10 * time.Minute,
	}
}

// SetTickInterval overrides the default tick.
func (s *Scheduler) SetTickInterval(d time.Duration) {
	if d > 0 {
		s.tick = d
	}
}

// Run starts the scheduler loop, blocking until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.fire(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.fire(ctx)
		}
	}
}

func (s *Scheduler) fire(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	out := s.runner.TriggerScheduled(ctx)
	s.log.Debug("tick", "status", out.Status, "slot", out.Slot, "candidates", out.Candidates)
}
