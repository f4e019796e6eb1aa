// Package scheduler provides the adapter that drives the periodic catalog
// backstop sweep.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// defaultInterval spaces backstop cycles far apart; the event stream is the
// primary trigger and the sweep only catches what it missed.
const defaultInterval = 6 * time.Hour

// CycleRunner runs one backstop pass.
type CycleRunner interface {
	Cycle(ctx context.Context) (int, error)
}

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	Scheduler CycleRunner
	Interval  time.Duration
	Logger    *slog.Logger
}

// Runner ticks the backstop scheduler at a fixed interval, with one
// immediate cycle at startup to cover events lost while the service was
// down. Cycle errors are logged and the loop keeps running.
type Runner struct {
	scheduler CycleRunner
	interval  time.Duration
	logger    *slog.Logger
}

// NewRunner creates a new scheduler runner with the given options.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Scheduler == nil {
		return nil, errors.New("scheduler is required")
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		scheduler: opts.Scheduler,
		interval:  interval,
		logger:    logger.With("component", "scheduler_runner"),
	}, nil
}

// Run starts the backstop loop and runs until the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting scheduler runner", "interval", r.interval.String())

	r.cycle(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			r.cycle(ctx)
		}
	}
}

func (r *Runner) cycle(ctx context.Context) {
	if _, err := r.scheduler.Cycle(ctx); err != nil && ctx.Err() == nil {
		// Keep running despite errors; the next tick retries.
		r.logger.ErrorContext(ctx, "scheduler cycle failed", "error", err)
	}
}
