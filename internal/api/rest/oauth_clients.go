package rest

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/WOOWTECH/paas-operator/internal/models"
	"github.com/WOOWTECH/paas-operator/internal/oauth"
)

// CreateOAuthClient handles POST /oauth2/clients. The plaintext secret is
// returned exactly once; only the bcrypt hash is stored.
func (h *Handler) CreateOAuthClient(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name         string   `json:"name"`
		RedirectURIs []string `json:"redirect_uris"`
		Scopes       string   `json:"scopes"`
		GrantTypes   []string `json:"grant_types"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	if len(req.GrantTypes) == 0 {
		req.GrantTypes = []string{string(oauth.GrantAuthorizationCode), string(oauth.GrantRefreshToken)}
	}

	clientID, err := oauth.NewClientID()
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	secret, hash, err := oauth.NewClientSecret()
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	client := &models.OAuthClient{
		ClientID:         clientID,
		ClientSecretHash: hash,
		Name:             req.Name,
		RedirectURIs:     strings.Join(req.RedirectURIs, "\n"),
		Scopes:           req.Scopes,
		GrantTypes:       strings.Join(req.GrantTypes, ","),
		IsActive:         true,
	}
	if err := h.store.CreateOAuthClient(r.Context(), client); err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.log.Info("oauth client created", "client_id", clientID, "name", req.Name)
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"client_id":     client.ClientID,
		"client_secret": secret,
		"name":          client.Name,
		"redirect_uris": req.RedirectURIs,
		"scopes":        client.Scopes,
		"grant_types":   req.GrantTypes,
	})
}

// RegenerateOAuthClientSecret handles POST /oauth2/clients/{id}/regenerate.
// Invalidates the old secret immediately; the new plaintext is shown once.
func (h *Handler) RegenerateOAuthClientSecret(w http.ResponseWriter, r *http.Request) {
	clientID := mux.Vars(r)["id"]
	secret, hash, err := oauth.NewClientSecret()
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	if err := h.store.UpdateOAuthClientSecret(r.Context(), clientID, hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "oauth client not found")
			return
		}
		h.respondServiceError(w, err)
		return
	}
	h.log.Info("oauth client secret regenerated", "client_id", clientID)
	respondJSON(w, http.StatusOK, map[string]string{
		"client_id":     clientID,
		"client_secret": secret,
	})
}
