// Package httpx serves the unauthenticated read API: health probes plus
// thin views over the audit store and the queue.
package httpx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/apphub/tagging-service/internal/domain/model"
)

// ViewStore is the read API's view of the audit store.
type ViewStore interface {
	ListRecentJobs(ctx context.Context, limit, offset int) ([]model.Job, error)
	JobStats(ctx context.Context) (*model.JobStats, error)
	GetJobByID(ctx context.Context, id int64) (*model.Job, error)
	GetJobByRepositoryID(ctx context.Context, repositoryID string) (*model.Job, error)
	ListRunsForJob(ctx context.Context, jobID int64, limit int) ([]model.JobRun, error)
	GetRunByID(ctx context.Context, id int64) (*model.JobRun, error)
	GetAssignmentsForRun(ctx context.Context, runID int64) ([]model.TagAssignment, error)
}

// QueueReader exposes queue depths to the read API.
type QueueReader interface {
	Stats(ctx context.Context) (*model.QueueStats, error)
}

// ReadinessCheck is one named dependency probe for /readyz.
type ReadinessCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

// RouterServices holds the dependencies served by the HTTP router.
type RouterServices struct {
	Store     ViewStore
	Queue     QueueReader
	Readiness []ReadinessCheck
	Logger    *slog.Logger
}

// NewRouter creates and configures the read API router.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	h := &apiHandlers{
		store:     services.Store,
		queue:     services.Queue,
		readiness: services.Readiness,
		logger:    logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.healthz)
	mux.HandleFunc("GET /readyz", h.readyz)
	mux.HandleFunc("GET /api/jobs", h.listJobs)
	mux.HandleFunc("GET /api/jobs/{id}", h.getJob)
	mux.HandleFunc("GET /api/repositories/{id}/job", h.getRepositoryJob)
	mux.HandleFunc("GET /api/runs/{id}", h.getRun)
	mux.HandleFunc("GET /api/queue/stats", h.queueStats)
	return mux
}
