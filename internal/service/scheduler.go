package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/apphub/tagging-service/internal/domain/events"
	"github.com/apphub/tagging-service/internal/domain/model"
	"github.com/apphub/tagging-service/internal/observability/metrics"
	"github.com/apphub/tagging-service/internal/observability/statsd"
)

// Scheduler backstop defaults.
const (
	// SchedulerRecencyWindow suppresses backstop enqueues for repositories
	// tagged successfully within it. Wider than the event window so the
	// backstop never races freshly event-tagged repositories.
	SchedulerRecencyWindow = 24 * time.Hour
	// schedulerPageSize is the catalog listing page size.
	schedulerPageSize = 50
)

// SchedulerOptions configures a Scheduler.
type SchedulerOptions struct {
	Catalog Catalog
	Queue   Enqueuer
	Recency RecencyReader
	Window  time.Duration
	Logger  *slog.Logger
	Metrics statsd.Sink
}

// Scheduler is the periodic backstop for lost events: it pages through the
// catalog and enqueues every ready repository without a recent successful
// run. A cycle still in progress when the next tick fires is skipped.
type Scheduler struct {
	catalog Catalog
	queue   Enqueuer
	recency RecencyReader
	window  time.Duration
	logger  *slog.Logger
	metrics statsd.Sink

	running atomic.Bool
}

// NewScheduler creates a Scheduler.
func NewScheduler(opts SchedulerOptions) *Scheduler {
	window := opts.Window
	if window <= 0 {
		window = SchedulerRecencyWindow
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		catalog: opts.Catalog,
		queue:   opts.Queue,
		recency: opts.Recency,
		window:  window,
		logger:  logger.With("component", "scheduler"),
		metrics: opts.Metrics,
	}
}

// Cycle runs one backstop pass and returns how many jobs it enqueued.
// Returns (0, nil) without doing work when a previous cycle is still
// running. Per-repository failures are logged and skipped so one bad row
// cannot starve the rest of the catalog.
func (s *Scheduler) Cycle(ctx context.Context) (int, error) {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.DebugContext(ctx, "scheduler cycle already in progress, skipping")
		return 0, nil
	}
	defer s.running.Store(false)

	start := time.Now()
	enqueued, err := s.sweep(ctx)
	metrics.EmitSchedulerCycle(s.metrics, enqueued, time.Since(start), err)
	if err != nil {
		return enqueued, err
	}

	if enqueued > 0 {
		s.logger.InfoContext(ctx, "scheduler cycle complete",
			"enqueued", enqueued, "elapsed", time.Since(start).String())
	}
	return enqueued, nil
}

func (s *Scheduler) sweep(ctx context.Context) (int, error) {
	enqueued := 0
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return enqueued, err
		}

		summaries, err := s.catalog.ListRepositories(ctx, page, schedulerPageSize)
		if err != nil {
			return enqueued, fmt.Errorf("list catalog page %d: %w", page, err)
		}
		if len(summaries) == 0 {
			return enqueued, nil
		}

		for _, summary := range summaries {
			if s.admit(ctx, summary) {
				enqueued++
			}
		}

		if len(summaries) < schedulerPageSize {
			return enqueued, nil
		}
	}
}

func (s *Scheduler) admit(ctx context.Context, summary model.RepositorySummary) bool {
	if summary.ID == "" {
		return false
	}
	if summary.IngestStatus != "" && summary.IngestStatus != events.IngestStatusReady {
		return false
	}

	recent, err := s.recency.HasRecentSuccessfulRun(ctx, summary.ID, s.window)
	if err != nil {
		s.logger.WarnContext(ctx, "recency check failed, skipping repository",
			"repository_id", summary.ID, "error", err)
		return false
	}
	if recent {
		return false
	}

	jobID, deduped, err := s.queue.Enqueue(ctx, model.EnqueueParams{
		RepositoryID: summary.ID,
		Trigger:      model.TriggerScheduler,
		Reason:       "scheduler backstop",
	})
	if err != nil {
		s.logger.WarnContext(ctx, "scheduler enqueue failed",
			"repository_id", summary.ID, "error", err)
		return false
	}
	if deduped {
		return false
	}

	s.logger.DebugContext(ctx, "scheduler enqueued repository",
		"repository_id", summary.ID, "job_id", jobID)
	return true
}
