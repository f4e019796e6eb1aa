package httpx

import (
	"net/http"

	"github.com/apphub/tagging-service/internal/domain/model"
)

// runResponse is the single-run payload with its recorded assignments.
type runResponse struct {
	Run         *model.JobRun         `json:"run"`
	Assignments []model.TagAssignment `json:"assignments"`
}

// getRun serves GET /api/runs/{id}.
func (h *apiHandlers) getRun(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	run, err := h.store.GetRunByID(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}
	assignments, err := h.store.GetAssignmentsForRun(r.Context(), run.ID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list assignments failed", "run_id", run.ID, "error", err)
		WriteError(w, err)
		return
	}
	if assignments == nil {
		assignments = []model.TagAssignment{}
	}
	WriteJSON(w, http.StatusOK, runResponse{Run: run, Assignments: assignments})
}
