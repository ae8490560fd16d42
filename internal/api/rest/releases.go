package rest

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	"github.com/WOOWTECH/paas-operator/internal/helm"
	"github.com/WOOWTECH/paas-operator/internal/kube"
	"github.com/WOOWTECH/paas-operator/internal/pkg/redact"
)

// InstallRelease handles POST /api/releases.
func (h *Handler) InstallRelease(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Namespace       string                 `json:"namespace"`
		Name            string                 `json:"name"`
		Chart           string                 `json:"chart"`
		Version         string                 `json:"version"`
		Values          map[string]interface{} `json:"values"`
		CreateNamespace bool                   `json:"create_namespace"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.log.Info("installing release",
		"namespace", req.Namespace, "name", req.Name, "chart", req.Chart,
		"values", redact.Values(req.Values))

	info, err := h.helm.Install(r.Context(), helm.InstallRequest{
		Namespace:       req.Namespace,
		Name:            req.Name,
		Chart:           req.Chart,
		Version:         req.Version,
		Values:          req.Values,
		CreateNamespace: req.CreateNamespace,
	})
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, info)
}

// ListReleases handles GET /api/releases?namespace=.
func (h *Handler) ListReleases(w http.ResponseWriter, r *http.Request) {
	namespace := r.URL.Query().Get("namespace")
	releases, err := h.helm.List(r.Context(), namespace)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, releases)
}

// GetRelease handles GET /api/releases/{namespace}/{name}.
func (h *Handler) GetRelease(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	info, err := h.helm.Get(r.Context(), vars["namespace"], vars["name"])
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, info)
}

// UpgradeRelease handles PATCH /api/releases/{namespace}/{name}.
func (h *Handler) UpgradeRelease(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var req struct {
		Chart       string                 `json:"chart"`
		Version     string                 `json:"version"`
		Values      map[string]interface{} `json:"values"`
		ResetValues bool                   `json:"reset_values"`
		ReuseValues bool                   `json:"reuse_values"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	info, err := h.helm.Upgrade(r.Context(), helm.UpgradeRequest{
		Namespace:   vars["namespace"],
		Name:        vars["name"],
		Chart:       req.Chart,
		Version:     req.Version,
		Values:      req.Values,
		ResetValues: req.ResetValues,
		ReuseValues: req.ReuseValues,
	})
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, info)
}

// UninstallRelease handles DELETE /api/releases/{namespace}/{name}.
func (h *Handler) UninstallRelease(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.helm.Uninstall(r.Context(), vars["namespace"], vars["name"]); err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "release uninstalled"})
}

// RollbackRelease handles POST /api/releases/{namespace}/{name}/rollback.
// Revision 0 (or absent) rolls back to the previous revision.
func (h *Handler) RollbackRelease(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var req struct {
		Revision int `json:"revision"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	if err := h.helm.Rollback(r.Context(), vars["namespace"], vars["name"], req.Revision); err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "rollback complete"})
}

// ReleaseRevisions handles GET /api/releases/{namespace}/{name}/revisions.
func (h *Handler) ReleaseRevisions(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	revisions, err := h.helm.History(r.Context(), vars["namespace"], vars["name"])
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, revisions)
}

// ReleaseStatus handles GET /api/releases/{namespace}/{name}/status.
// Fetches the release and its pods concurrently; both are live reads.
func (h *Handler) ReleaseStatus(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	namespace, name := vars["namespace"], vars["name"]

	var (
		info *helm.ReleaseInfo
		pods []kube.PodInfo
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		info, err = h.helm.Get(ctx, namespace, name)
		return err
	})
	g.Go(func() error {
		var err error
		pods, err = h.kube.GetPods(ctx, namespace, "app.kubernetes.io/instance="+name)
		return err
	})
	if err := g.Wait(); err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"release": info,
		"pods":    pods,
	})
}
