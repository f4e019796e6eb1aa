package tagrunner

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apphub/tagging-service/internal/domain/model"
	apperrors "github.com/apphub/tagging-service/internal/errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type failRecord struct {
	jobID     string
	reason    string
	transient bool
}

// fakeQueue hands out a fixed job list and cancels the pool once every job
// has been acknowledged, so Run winds down like a normal shutdown.
type fakeQueue struct {
	mu         sync.Mutex
	jobs       []*model.QueuedJob
	reserveErr error
	failErr    error
	retry      bool
	reclaimed  int
	completed  []string
	fails      []failRecord
	promotions int
	reclaims   int
	waiters    int
	maxWaiters int
	pending    int
	drained    context.CancelFunc
}

func (q *fakeQueue) ReserveNext(_ context.Context, _ string) (*model.QueuedJob, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.reserveErr != nil {
		return nil, q.reserveErr
	}
	if len(q.jobs) == 0 {
		return nil, model.ErrNoJobsAvailable
	}
	job := q.jobs[0]
	q.jobs = q.jobs[1:]
	return job, nil
}

func (q *fakeQueue) Complete(_ context.Context, _ string, jobID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.completed = append(q.completed, jobID)
	q.ack()
	return nil
}

func (q *fakeQueue) Fail(_ context.Context, _, jobID, reason string, transient bool) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.failErr != nil {
		q.ack()
		return false, q.failErr
	}
	q.fails = append(q.fails, failRecord{jobID: jobID, reason: reason, transient: transient})
	q.ack()
	return q.retry, nil
}

func (q *fakeQueue) ack() {
	q.pending--
	if q.pending <= 0 && q.drained != nil {
		q.drained()
	}
}

func (q *fakeQueue) PromoteDelayed(context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.promotions++
	return 0, nil
}

func (q *fakeQueue) ReclaimAbandoned(context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.reclaims++
	return q.reclaimed, nil
}

func (q *fakeQueue) WaitForWake(ctx context.Context) error {
	q.mu.Lock()
	q.waiters++
	if q.waiters > q.maxWaiters {
		q.maxWaiters = q.waiters
	}
	q.mu.Unlock()
	defer func() {
		q.mu.Lock()
		q.waiters--
		q.mu.Unlock()
	}()
	<-ctx.Done()
	return ctx.Err()
}

type fakeProcessor struct {
	mu   sync.Mutex
	seen []string
	err  func(job *model.QueuedJob) error
}

func (p *fakeProcessor) Process(_ context.Context, job *model.QueuedJob) error {
	p.mu.Lock()
	p.seen = append(p.seen, job.ID)
	p.mu.Unlock()
	if p.err != nil {
		return p.err(job)
	}
	return nil
}

func runUntilDrained(t *testing.T, queue *fakeQueue, processor *fakeProcessor, concurrency int) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	queue.pending = len(queue.jobs)
	queue.drained = cancel

	runner, err := NewRunner(RunnerOptions{
		Queue:           queue,
		Pipeline:        processor,
		Concurrency:     concurrency,
		PromoteInterval: 10 * time.Millisecond,
		Logger:          testLogger(),
	})
	require.NoError(t, err)
	return runner.Run(ctx)
}

func TestRunnerRequiresQueueAndPipeline(t *testing.T) {
	_, err := NewRunner(RunnerOptions{Pipeline: &fakeProcessor{}})
	require.Error(t, err)

	_, err = NewRunner(RunnerOptions{Queue: &fakeQueue{}})
	require.Error(t, err)
}

func TestRunnerProcessesAndCompletesJobs(t *testing.T) {
	queue := &fakeQueue{jobs: []*model.QueuedJob{
		{ID: "job-1", RepositoryID: "repo-1"},
		{ID: "job-2", RepositoryID: "repo-2"},
	}}
	processor := &fakeProcessor{}

	err := runUntilDrained(t, queue, processor, 1)
	require.ErrorIs(t, err, context.Canceled)

	assert.ElementsMatch(t, []string{"job-1", "job-2"}, processor.seen)
	assert.ElementsMatch(t, []string{"job-1", "job-2"}, queue.completed)
	assert.Empty(t, queue.fails)
}

func TestRunnerFailsTransientForUnclassifiedErrors(t *testing.T) {
	queue := &fakeQueue{
		jobs:  []*model.QueuedJob{{ID: "job-1", RepositoryID: "repo-1"}},
		retry: true,
	}
	processor := &fakeProcessor{err: func(*model.QueuedJob) error {
		return errors.New("catalog timeout")
	}}

	err := runUntilDrained(t, queue, processor, 1)
	require.ErrorIs(t, err, context.Canceled)

	require.Len(t, queue.fails, 1)
	assert.Equal(t, "job-1", queue.fails[0].jobID)
	assert.Equal(t, "catalog timeout", queue.fails[0].reason)
	assert.True(t, queue.fails[0].transient)
	assert.Empty(t, queue.completed)
}

func TestRunnerFailsPermanentWithoutRetry(t *testing.T) {
	queue := &fakeQueue{jobs: []*model.QueuedJob{{ID: "job-1", RepositoryID: "repo-1"}}}
	processor := &fakeProcessor{err: func(*model.QueuedJob) error {
		return apperrors.Permanent("metadata missing repoUrl")
	}}

	err := runUntilDrained(t, queue, processor, 1)
	require.ErrorIs(t, err, context.Canceled)

	require.Len(t, queue.fails, 1)
	assert.False(t, queue.fails[0].transient)
}

func TestRunnerFatalOnReserveError(t *testing.T) {
	queue := &fakeQueue{reserveErr: errors.New("redis connection refused")}
	runner, err := NewRunner(RunnerOptions{
		Queue:    queue,
		Pipeline: &fakeProcessor{},
		Logger:   testLogger(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = runner.Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reserve next")
	assert.ErrorIs(t, err, queue.reserveErr)
}

func TestRunnerReclaimsAbandonedJobs(t *testing.T) {
	queue := &fakeQueue{reclaimed: 3}
	runner, err := NewRunner(RunnerOptions{
		Queue:           queue,
		Pipeline:        &fakeProcessor{},
		Concurrency:     1,
		ReclaimInterval: 10 * time.Millisecond,
		Logger:          testLogger(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err = runner.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	queue.mu.Lock()
	defer queue.mu.Unlock()
	// Once before the workers start, then on the interval.
	assert.GreaterOrEqual(t, queue.reclaims, 2)
}

func TestRunnerIdleWorkersShareOneWakeSubscription(t *testing.T) {
	queue := &fakeQueue{}
	runner, err := NewRunner(RunnerOptions{
		Queue:       queue,
		Pipeline:    &fakeProcessor{},
		Concurrency: 4,
		Logger:      testLogger(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	err = runner.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	queue.mu.Lock()
	defer queue.mu.Unlock()
	assert.Equal(t, 1, queue.maxWaiters)
}

func TestRunnerPromotesDelayedJobs(t *testing.T) {
	queue := &fakeQueue{}
	runner, err := NewRunner(RunnerOptions{
		Queue:           queue,
		Pipeline:        &fakeProcessor{},
		Concurrency:     1,
		PromoteInterval: 5 * time.Millisecond,
		Logger:          testLogger(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err = runner.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	queue.mu.Lock()
	defer queue.mu.Unlock()
	assert.Positive(t, queue.promotions)
}
