package httpx

import (
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/apphub/tagging-service/internal/domain/model"
)

// jobsListResponse is the /api/jobs payload: the recent jobs plus the
// status breakdown across all jobs.
type jobsListResponse struct {
	Jobs  []model.Job     `json:"jobs"`
	Stats *model.JobStats `json:"stats"`
	Total int             `json:"total"`
}

// listJobs serves GET /api/jobs?limit=. The list and the breakdown are
// independent reads, fetched in parallel.
func (h *apiHandlers) listJobs(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	var (
		jobs  []model.Job
		stats *model.JobStats
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var listErr error
		jobs, listErr = h.store.ListRecentJobs(ctx, limit, 0)
		return listErr
	})
	g.Go(func() error {
		var statsErr error
		stats, statsErr = h.store.JobStats(ctx)
		return statsErr
	})
	if err := g.Wait(); err != nil {
		h.logger.ErrorContext(r.Context(), "list jobs failed", "error", err)
		WriteError(w, err)
		return
	}

	if jobs == nil {
		jobs = []model.Job{}
	}
	WriteJSON(w, http.StatusOK, jobsListResponse{
		Jobs:  jobs,
		Stats: stats,
		Total: stats.Total(),
	})
}

// jobResponse is the single-job payload with its recent runs.
type jobResponse struct {
	Job  *model.Job     `json:"job"`
	Runs []model.JobRun `json:"runs"`
}

// getJob serves GET /api/jobs/{id}.
func (h *apiHandlers) getJob(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	job, err := h.store.GetJobByID(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}
	h.writeJobWithRuns(w, r, job)
}

// getRepositoryJob serves GET /api/repositories/{id}/job.
func (h *apiHandlers) getRepositoryJob(w http.ResponseWriter, r *http.Request) {
	repositoryID := r.PathValue("id")

	job, err := h.store.GetJobByRepositoryID(r.Context(), repositoryID)
	if err != nil {
		WriteError(w, err)
		return
	}
	h.writeJobWithRuns(w, r, job)
}

func (h *apiHandlers) writeJobWithRuns(w http.ResponseWriter, r *http.Request, job *model.Job) {
	runs, err := h.store.ListRunsForJob(r.Context(), job.ID, runsPerJobLimit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list runs failed", "job_id", job.ID, "error", err)
		WriteError(w, err)
		return
	}
	if runs == nil {
		runs = []model.JobRun{}
	}
	WriteJSON(w, http.StatusOK, jobResponse{Job: job, Runs: runs})
}
