package rest

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

// CreateTunnel handles POST /api/tunnels. Provisions a dedicated
// remotely-managed tunnel for a tenant.
func (h *Handler) CreateTunnel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	info, err := h.cf.CreateTunnel(r.Context(), req.Name)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, info)
}

// TunnelStatus handles GET /api/tunnels/{id}/status.
func (h *Handler) TunnelStatus(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	status, err := h.cf.GetTunnelStatus(r.Context(), vars["id"])
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, status)
}

// TunnelToken handles GET /api/tunnels/{id}/token. The token is the
// cloudflared run credential; it is returned to the caller and never logged.
func (h *Handler) TunnelToken(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	token, err := h.cf.GetTunnelToken(r.Context(), vars["id"])
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"token": token})
}

// ConfigureTunnel handles POST /api/tunnels/{id}/configure. Sets the
// tunnel's ingress to route hostname -> service_url plus the catch-all.
func (h *Handler) ConfigureTunnel(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var req struct {
		Hostname   string `json:"hostname"`
		ServiceURL string `json:"service_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.cf.ConfigureTunnel(r.Context(), vars["id"], req.Hostname, req.ServiceURL); err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "tunnel configured"})
}

// CreateTunnelDNS handles POST /api/tunnels/{id}/dns. DNS is best-effort:
// a Cloudflare failure here is a warning, not a provisioning failure, so
// the record ID may come back null.
func (h *Handler) CreateTunnelDNS(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var req struct {
		Subdomain string `json:"subdomain"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	recordID, err := h.cf.CreateDNSRecordForTunnel(r.Context(), req.Subdomain, vars["id"])
	if err != nil {
		h.log.Warn("dns record creation failed", "tunnel_id", vars["id"], "error", err)
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"dns_record_id": nil,
			"hostname":      h.cf.Hostname(req.Subdomain),
		})
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"dns_record_id": recordID,
		"hostname":      h.cf.Hostname(req.Subdomain),
	})
}

// DeleteTunnel handles DELETE /api/tunnels/{id}. Removes the tunnel's DNS
// record first, then the tunnel itself with cascade.
func (h *Handler) DeleteTunnel(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.cf.DeleteTunnel(r.Context(), vars["id"]); err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "tunnel deleted"})
}
