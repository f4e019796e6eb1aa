package httpx

import (
	"context"
	"net/http"
	"time"
)

// readinessProbeTimeout bounds each dependency ping.
const readinessProbeTimeout = 2 * time.Second

// healthz serves GET/HEAD /healthz: process liveness only.
func (h *apiHandlers) healthz(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readyz serves GET /readyz: every registered dependency must answer.
func (h *apiHandlers) readyz(w http.ResponseWriter, r *http.Request) {
	for _, check := range h.readiness {
		ctx, cancel := context.WithTimeout(r.Context(), readinessProbeTimeout)
		err := check.Ping(ctx)
		cancel()
		if err != nil {
			h.logger.WarnContext(r.Context(), "readiness probe failed", "dependency", check.Name, "error", err)
			WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"failed": check.Name,
			})
			return
		}
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// queueStats serves GET /api/queue/stats.
func (h *apiHandlers) queueStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.queue.Stats(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "queue stats failed", "error", err)
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}
