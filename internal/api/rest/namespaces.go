package rest

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/WOOWTECH/paas-operator/internal/kube"
)

// CreateNamespace handles POST /api/namespaces. Creates a workspace
// namespace with its resource quota in one call.
func (h *Handler) CreateNamespace(w http.ResponseWriter, r *http.Request) {
	var req kube.NamespaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.kube.CreateNamespace(r.Context(), req); err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{
		"namespace": req.Name,
		"message":   "namespace created with resource quota",
	})
}

// ListNamespaces handles GET /api/namespaces. Returns only namespaces the
// operator manages.
func (h *Handler) ListNamespaces(w http.ResponseWriter, r *http.Request) {
	namespaces, err := h.kube.ListNamespaces(r.Context())
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, namespaces)
}

// DeleteNamespace handles DELETE /api/namespaces/{name}.
func (h *Handler) DeleteNamespace(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if err := h.kube.DeleteNamespace(r.Context(), name); err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"namespace": name,
		"message":   "namespace deleted",
	})
}
