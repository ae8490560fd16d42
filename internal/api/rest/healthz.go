package rest

import (
	"context"
	"net/http"
	"time"
)

// Health handles GET /health. Reports "degraded" rather than an error when
// Helm is unreachable so callers can tell infrastructure degradation from
// request failure.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	status := "healthy"
	helmVersion, err := h.helm.Version(ctx)
	if err != nil {
		h.log.Warn("helm unreachable", "error", err)
		status = "degraded"
		helmVersion = ""
	}
	if h.store != nil {
		if err := h.store.Ping(ctx); err != nil {
			h.log.Warn("database unreachable", "error", err)
			status = "degraded"
		}
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"status":       status,
		"helm_version": helmVersion,
	})
}
