// Package tagrunner runs the tagging worker pool over the durable Redis
// queue: reserve, process through the pipeline, acknowledge or fail with
// the failure classification the queue maps into retry vs discard.
package tagrunner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	domainjob "github.com/apphub/tagging-service/internal/domain/job"
	"github.com/apphub/tagging-service/internal/domain/model"
	apperrors "github.com/apphub/tagging-service/internal/errors"
)

const (
	defaultConcurrency     = 2
	defaultPromoteInterval = time.Second
	defaultReclaimInterval = time.Minute
	// idlePollInterval bounds how long the shared wake listener blocks
	// before broadcasting anyway, so idle workers re-check the waiting
	// list. A missed wake therefore delays work instead of stalling it.
	idlePollInterval = 5 * time.Second
)

// JobQueue is the runner's view of the durable queue.
type JobQueue interface {
	ReserveNext(ctx context.Context, consumer string) (*model.QueuedJob, error)
	Complete(ctx context.Context, consumer, jobID string) error
	Fail(ctx context.Context, consumer, jobID, reason string, transient bool) (bool, error)
	PromoteDelayed(ctx context.Context) (int, error)
	ReclaimAbandoned(ctx context.Context) (int, error)
	WaitForWake(ctx context.Context) error
}

// Processor executes one reserved job.
type Processor interface {
	Process(ctx context.Context, job *model.QueuedJob) error
}

// RunnerOptions configures the worker runner.
type RunnerOptions struct {
	Queue           JobQueue
	Pipeline        Processor
	Concurrency     int
	PromoteInterval time.Duration
	ReclaimInterval time.Duration
	Logger          *slog.Logger
}

// Runner drives a fixed pool of workers plus the delayed-job promoter and
// the abandoned-job reclaimer.
type Runner struct {
	queue    JobQueue
	pipeline Processor
	notifier *domainjob.DefaultNotifier
	workers  int
	promote  time.Duration
	reclaim  time.Duration
	logger   *slog.Logger
}

// NewRunner creates a worker runner.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Queue == nil {
		return nil, errors.New("queue is required")
	}
	if opts.Pipeline == nil {
		return nil, errors.New("pipeline is required")
	}
	workers := opts.Concurrency
	if workers <= 0 {
		workers = defaultConcurrency
	}
	promote := opts.PromoteInterval
	if promote <= 0 {
		promote = defaultPromoteInterval
	}
	reclaim := opts.ReclaimInterval
	if reclaim <= 0 {
		reclaim = defaultReclaimInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	notifier, err := domainjob.NewNotifier(domainjob.NotifierOptions{
		Waiter:     opts.Queue,
		WaitWindow: idlePollInterval,
	})
	if err != nil {
		return nil, err
	}
	return &Runner{
		queue:    opts.Queue,
		pipeline: opts.Pipeline,
		notifier: notifier,
		workers:  workers,
		promote:  promote,
		reclaim:  reclaim,
		logger:   logger.With("component", "tagrunner"),
	}, nil
}

// Run starts the workers and the promoter and blocks until the context is
// cancelled. In-flight jobs drain before it returns.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting tagging workers", "workers", r.workers, "promote_interval", r.promote.String())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer r.notifier.StopAll()

	// Requeue jobs a previous process left on its processing lists before
	// this pool starts competing for work.
	r.reclaimAbandoned(ctx)

	var wg sync.WaitGroup
	errCh := make(chan error, 1)
	fatal := func(err error) {
		// first error wins, cancels the pool
		select {
		case errCh <- err:
			cancel()
		default:
		}
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		r.promoteLoop(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		r.reclaimLoop(ctx)
	}()

	for range r.workers {
		// Unique per process lifetime so restarted workers never collide
		// with a processing list still held by a dying replica.
		consumer := "worker-" + uuid.NewString()
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.workerLoop(ctx, consumer); err != nil {
				fatal(err)
			}
		}()
	}

	wg.Wait()

	select {
	case err := <-errCh:
		return err
	default:
		return ctx.Err()
	}
}

func (r *Runner) promoteLoop(ctx context.Context) {
	ticker := time.NewTicker(r.promote)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.queue.PromoteDelayed(ctx); err != nil && ctx.Err() == nil {
				r.logger.WarnContext(ctx, "promote delayed jobs failed", "error", err)
			}
		}
	}
}

func (r *Runner) reclaimLoop(ctx context.Context) {
	ticker := time.NewTicker(r.reclaim)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.reclaimAbandoned(ctx)
		}
	}
}

func (r *Runner) reclaimAbandoned(ctx context.Context) {
	n, err := r.queue.ReclaimAbandoned(ctx)
	if err != nil {
		if ctx.Err() == nil {
			r.logger.WarnContext(ctx, "reclaim abandoned jobs failed", "error", err)
		}
		return
	}
	if n > 0 {
		r.logger.InfoContext(ctx, "requeued abandoned jobs", "count", n)
	}
}

func (r *Runner) workerLoop(ctx context.Context, consumer string) error {
	unsub, wake := r.notifier.Subscribe()
	defer unsub()

	for ctx.Err() == nil {
		job, err := r.queue.ReserveNext(ctx, consumer)
		switch {
		case err == nil:
			r.processJob(ctx, consumer, job)
		case errors.Is(err, model.ErrNoJobsAvailable):
			waitForWork(ctx, wake)
		case ctx.Err() != nil:
			return nil
		default:
			return fmt.Errorf("reserve next: %w", err)
		}
	}
	return nil
}

// waitForWork parks an idle worker until the shared listener broadcasts a
// wake-up or the pool shuts down. A closed wake channel also unparks.
func waitForWork(ctx context.Context, wake <-chan struct{}) {
	select {
	case <-ctx.Done():
	case <-wake:
	}
}

func (r *Runner) processJob(ctx context.Context, consumer string, job *model.QueuedJob) {
	err := r.pipeline.Process(ctx, job)
	if err == nil {
		if ackErr := r.queue.Complete(ctx, consumer, job.ID); ackErr != nil {
			r.logger.ErrorContext(ctx, "complete job failed",
				"job_id", job.ID, "repository_id", job.RepositoryID, "error", ackErr)
		}
		return
	}

	transient := !apperrors.IsPermanent(err)
	retried, failErr := r.queue.Fail(ctx, consumer, job.ID, err.Error(), transient)
	if failErr != nil {
		r.logger.ErrorContext(ctx, "fail job failed",
			"job_id", job.ID, "repository_id", job.RepositoryID, "error", failErr, "run_error", err)
		return
	}
	if retried {
		r.logger.InfoContext(ctx, "job scheduled for retry",
			"job_id", job.ID, "repository_id", job.RepositoryID, "attempt", job.Attempts)
	} else {
		r.logger.WarnContext(ctx, "job discarded",
			"job_id", job.ID, "repository_id", job.RepositoryID, "transient", transient, "error", err)
	}
}
