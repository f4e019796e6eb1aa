package httpx

import (
	"log/slog"
	"net/http"
	"strconv"

	apperrors "github.com/apphub/tagging-service/internal/errors"
)

const (
	defaultJobsLimit = 20
	maxJobsLimit     = 100
	runsPerJobLimit  = 20
)

// apiHandlers serves every read API route.
type apiHandlers struct {
	store     ViewStore
	queue     QueueReader
	readiness []ReadinessCheck
	logger    *slog.Logger
}

// pathID parses the {id} path value as a positive integer.
func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.Validationf("invalid id %q", raw)
	}
	return id, nil
}

// queryLimit parses the limit query parameter with a default and a cap.
func queryLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultJobsLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, apperrors.Validationf("invalid limit %q", raw)
	}
	if limit > maxJobsLimit {
		limit = maxJobsLimit
	}
	return limit, nil
}
