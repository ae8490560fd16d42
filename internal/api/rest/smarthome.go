package rest

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/WOOWTECH/paas-operator/internal/api/middleware"
	"github.com/WOOWTECH/paas-operator/internal/cloudflare"
	"github.com/WOOWTECH/paas-operator/internal/errdefs"
	"github.com/WOOWTECH/paas-operator/internal/models"
)

// The smart-home endpoints serve third-party device integrations holding a
// bearer token. Every record is scoped to the token's user: a valid token
// for the wrong user gets a 404, never someone else's data.

// SmartHomeWorkspaces handles GET /api/smarthome/workspaces.
func (h *Handler) SmartHomeWorkspaces(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	workspaces, err := h.store.ListWorkspaces(r.Context(), identity.UserID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, workspaces)
}

// SmartHomeHomes handles GET /api/smarthome/workspaces/{id}/homes.
func (h *Handler) SmartHomeHomes(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	workspaceID := mux.Vars(r)["id"]

	ws, err := h.store.GetWorkspace(r.Context(), workspaceID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	if ws == nil || ws.OwnerID != identity.UserID {
		h.respondServiceError(w, &errdefs.NotFoundError{Resource: "workspace", Name: workspaceID})
		return
	}

	homes, err := h.store.ListHomes(r.Context(), workspaceID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, homes)
}

// SmartHomeHome handles GET /api/smarthome/homes/{id}.
func (h *Handler) SmartHomeHome(w http.ResponseWriter, r *http.Request) {
	home, err := h.homeForUser(r)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, home)
}

// SmartHomeStatus handles GET /api/smarthome/homes/{id}/status.
func (h *Handler) SmartHomeStatus(w http.ResponseWriter, r *http.Request) {
	home, err := h.homeForUser(r)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	if home.TunnelID == "" {
		respondJSON(w, http.StatusOK, &cloudflare.TunnelStatus{Status: "inactive"})
		return
	}
	status, err := h.cf.GetTunnelStatus(r.Context(), home.TunnelID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, status)
}

// SmartHomeTunnelToken handles GET /api/smarthome/homes/{id}/tunnel-token.
// Reaching here requires the smarthome:tunnel scope.
func (h *Handler) SmartHomeTunnelToken(w http.ResponseWriter, r *http.Request) {
	home, err := h.homeForUser(r)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	if home.TunnelID == "" {
		h.respondServiceError(w, &errdefs.NotFoundError{Resource: "tunnel", Name: home.ID})
		return
	}
	token, err := h.cf.GetTunnelToken(r.Context(), home.TunnelID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"token":    token,
		"hostname": home.Hostname,
	})
}

// homeForUser loads the {id} home and checks it belongs to the bearer's
// user via its workspace.
func (h *Handler) homeForUser(r *http.Request) (*models.Home, error) {
	identity := middleware.IdentityFromContext(r.Context())
	homeID := mux.Vars(r)["id"]

	home, err := h.store.GetHome(r.Context(), homeID)
	if err != nil {
		return nil, err
	}
	if home == nil {
		return nil, &errdefs.NotFoundError{Resource: "home", Name: homeID}
	}
	ws, err := h.store.GetWorkspace(r.Context(), home.WorkspaceID)
	if err != nil {
		return nil, err
	}
	if ws == nil || ws.OwnerID != identity.UserID {
		return nil, &errdefs.NotFoundError{Resource: "home", Name: homeID}
	}
	return home, nil
}
