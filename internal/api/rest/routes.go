package rest

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

// ListRoutes handles GET /api/routes. Returns the shared tunnel's ingress
// rules without the trailing catch-all.
func (h *Handler) ListRoutes(w http.ResponseWriter, r *http.Request) {
	routes, err := h.cf.ListRoutes(r.Context())
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, routes)
}

// CreateRoute handles POST /api/routes. Upserts a hostname route on the
// shared tunnel.
func (h *Handler) CreateRoute(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Subdomain  string `json:"subdomain"`
		ServiceURL string `json:"service_url"`
		Path       string `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	route, err := h.cf.CreateRoute(r.Context(), req.Subdomain, req.ServiceURL, req.Path)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	if route == nil {
		// Integration disabled; the operation is a documented no-op.
		respondJSON(w, http.StatusOK, map[string]string{"message": "cloudflare integration disabled"})
		return
	}
	respondJSON(w, http.StatusCreated, route)
}

// DeleteRoute handles DELETE /api/routes/{subdomain}.
func (h *Handler) DeleteRoute(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.cf.DeleteRoute(r.Context(), vars["subdomain"]); err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "route deleted"})
}
