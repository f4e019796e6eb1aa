package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apphub/tagging-service/internal/domain/model"
	"github.com/apphub/tagging-service/internal/service"
)

type fakeCatalog struct {
	mu    sync.Mutex
	calls int
	list  func(page, perPage int) ([]model.RepositorySummary, error)
}

func (f *fakeCatalog) ListRepositories(_ context.Context, page, perPage int) ([]model.RepositorySummary, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.list(page, perPage)
}

func (f *fakeCatalog) GetRepository(context.Context, string) (*model.RepositoryMetadata, error) {
	panic("not used by the scheduler")
}

func (f *fakeCatalog) ApplyTags(context.Context, string, []model.TagPayload, []model.TagPayload) error {
	panic("not used by the scheduler")
}

// perRepoRecency answers the recency predicate per repository id.
type perRepoRecency struct {
	recent map[string]bool
	errs   map[string]error
}

func (r *perRepoRecency) HasRecentSuccessfulRun(_ context.Context, repositoryID string, _ time.Duration) (bool, error) {
	if err := r.errs[repositoryID]; err != nil {
		return false, err
	}
	return r.recent[repositoryID], nil
}

func newTestScheduler(catalog *fakeCatalog, queue *stubQueue, recency service.RecencyReader) *service.Scheduler {
	if recency == nil {
		recency = &perRepoRecency{}
	}
	return service.NewScheduler(service.SchedulerOptions{
		Catalog: catalog,
		Queue:   queue,
		Recency: recency,
		Logger:  discardLogger(),
	})
}

func singlePage(summaries ...model.RepositorySummary) *fakeCatalog {
	return &fakeCatalog{list: func(page, _ int) ([]model.RepositorySummary, error) {
		if page == 1 {
			return summaries, nil
		}
		return nil, nil
	}}
}

func TestSchedulerCycleEnqueuesReadyRepositories(t *testing.T) {
	catalog := singlePage(
		model.RepositorySummary{ID: "repo-ready", IngestStatus: "ready"},
		model.RepositorySummary{ID: "repo-pending", IngestStatus: "pending"},
		model.RepositorySummary{ID: "repo-recent", IngestStatus: "ready"},
		model.RepositorySummary{ID: "repo-unknown-status"},
		model.RepositorySummary{ID: ""},
	)
	queue := &stubQueue{jobID: "job"}
	recency := &perRepoRecency{recent: map[string]bool{"repo-recent": true}}

	enqueued, err := newTestScheduler(catalog, queue, recency).Cycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, enqueued)

	require.Len(t, queue.params, 2)
	assert.Equal(t, "repo-ready", queue.params[0].RepositoryID)
	assert.Equal(t, model.TriggerScheduler, queue.params[0].Trigger)
	assert.Equal(t, "scheduler backstop", queue.params[0].Reason)
	// A missing ingest status is treated as ready; older catalogs omit the field.
	assert.Equal(t, "repo-unknown-status", queue.params[1].RepositoryID)
}

func TestSchedulerCyclePagesUntilShortPage(t *testing.T) {
	fullPage := make([]model.RepositorySummary, 50)
	for i := range fullPage {
		fullPage[i] = model.RepositorySummary{ID: fmt.Sprintf("repo-%d", i), IngestStatus: "ready"}
	}
	catalog := &fakeCatalog{list: func(page, perPage int) ([]model.RepositorySummary, error) {
		require.Equal(t, 50, perPage)
		switch page {
		case 1:
			return fullPage, nil
		case 2:
			return []model.RepositorySummary{{ID: "repo-last", IngestStatus: "ready"}}, nil
		default:
			return nil, fmt.Errorf("unexpected page %d", page)
		}
	}}
	queue := &stubQueue{jobID: "job"}

	enqueued, err := newTestScheduler(catalog, queue, nil).Cycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 51, enqueued)
	assert.Equal(t, 2, catalog.calls)
}

func TestSchedulerCycleEmptyCatalog(t *testing.T) {
	catalog := singlePage()
	queue := &stubQueue{}

	enqueued, err := newTestScheduler(catalog, queue, nil).Cycle(context.Background())
	require.NoError(t, err)
	assert.Zero(t, enqueued)
	assert.Empty(t, queue.params)
}

func TestSchedulerCycleCatalogErrorWrapped(t *testing.T) {
	listErr := errors.New("catalog unavailable")
	catalog := &fakeCatalog{list: func(int, int) ([]model.RepositorySummary, error) {
		return nil, listErr
	}}

	_, err := newTestScheduler(catalog, &stubQueue{}, nil).Cycle(context.Background())
	require.ErrorIs(t, err, listErr)
	assert.Contains(t, err.Error(), "list catalog page 1")
}

func TestSchedulerSkipsRepositoryOnRecencyError(t *testing.T) {
	catalog := singlePage(
		model.RepositorySummary{ID: "repo-broken", IngestStatus: "ready"},
		model.RepositorySummary{ID: "repo-ok", IngestStatus: "ready"},
	)
	queue := &stubQueue{jobID: "job"}
	recency := &perRepoRecency{errs: map[string]error{"repo-broken": errors.New("database locked")}}

	enqueued, err := newTestScheduler(catalog, queue, recency).Cycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, enqueued)
	require.Len(t, queue.params, 1)
	assert.Equal(t, "repo-ok", queue.params[0].RepositoryID)
}

func TestSchedulerDedupedEnqueueNotCounted(t *testing.T) {
	catalog := singlePage(model.RepositorySummary{ID: "repo-live", IngestStatus: "ready"})
	queue := &stubQueue{jobID: "job-live", deduped: true}

	enqueued, err := newTestScheduler(catalog, queue, nil).Cycle(context.Background())
	require.NoError(t, err)
	assert.Zero(t, enqueued)
	require.Len(t, queue.params, 1)
}

func TestSchedulerCycleSkipsWhileRunning(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	catalog := &fakeCatalog{list: func(int, int) ([]model.RepositorySummary, error) {
		close(entered)
		<-release
		return nil, nil
	}}
	scheduler := newTestScheduler(catalog, &stubQueue{}, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := scheduler.Cycle(context.Background())
		assert.NoError(t, err)
	}()
	<-entered

	enqueued, err := scheduler.Cycle(context.Background())
	require.NoError(t, err)
	assert.Zero(t, enqueued)
	assert.Equal(t, 1, catalog.calls)

	close(release)
	<-done
}

func TestSchedulerCycleStopsOnContextCancel(t *testing.T) {
	fullPage := make([]model.RepositorySummary, 50)
	for i := range fullPage {
		fullPage[i] = model.RepositorySummary{ID: fmt.Sprintf("repo-%d", i)}
	}
	ctx, cancel := context.WithCancel(context.Background())
	catalog := &fakeCatalog{list: func(int, int) ([]model.RepositorySummary, error) {
		cancel()
		return fullPage, nil
	}}

	_, err := newTestScheduler(catalog, &stubQueue{jobID: "job"}, nil).Cycle(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, catalog.calls)
}
