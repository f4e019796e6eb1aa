// Package reaper provides the startup recovery adapter that seals runs
// orphaned by a killed process.
package reaper

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// defaultMinAge keeps the reaper away from runs that may still be live in
// another replica that started moments ago.
const defaultMinAge = time.Minute

// RunStore is the reaper's view of the audit store.
type RunStore interface {
	ReapOrphanRuns(ctx context.Context, olderThan time.Duration) (int64, error)
}

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	Store  RunStore
	MinAge time.Duration
	Logger *slog.Logger
}

// Runner seals orphaned runs once at worker startup.
type Runner struct {
	store  RunStore
	minAge time.Duration
	logger *slog.Logger
}

// NewRunner creates a new reaper runner with the given options.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Store == nil {
		return nil, errors.New("run store is required")
	}
	minAge := opts.MinAge
	if minAge <= 0 {
		minAge = defaultMinAge
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		store:  opts.Store,
		minAge: minAge,
		logger: logger.With("component", "reaper"),
	}, nil
}

// Run performs the startup sweep. Failures are logged, not fatal: a stuck
// orphan run only affects history views, never new work.
func (r *Runner) Run(ctx context.Context) error {
	sealed, err := r.store.ReapOrphanRuns(ctx, r.minAge)
	if err != nil {
		r.logger.ErrorContext(ctx, "orphan run sweep failed", "error", err)
		return nil
	}
	if sealed > 0 {
		r.logger.InfoContext(ctx, "sealed orphan runs", "count", sealed)
	}
	return nil
}
