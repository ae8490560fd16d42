// Package rest exposes the control-plane HTTP API: Helm release and
// namespace management, Cloudflare route/tunnel provisioning, the OAuth 2.0
// endpoints, and the bearer-protected smart-home device API.
package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/WOOWTECH/paas-operator/internal/api/middleware"
	"github.com/WOOWTECH/paas-operator/internal/cloudflare"
	"github.com/WOOWTECH/paas-operator/internal/helm"
	"github.com/WOOWTECH/paas-operator/internal/kube"
	"github.com/WOOWTECH/paas-operator/internal/oauth"
	"github.com/WOOWTECH/paas-operator/internal/repository"
)

// Handler manages HTTP request handlers.
type Handler struct {
	helm  *helm.Manager
	kube  *kube.Client
	cf    *cloudflare.Client
	oauth *oauth.Server
	store repository.Store
	log   *slog.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(hm *helm.Manager, kc *kube.Client, cf *cloudflare.Client, os *oauth.Server, store repository.Store, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		helm:  hm,
		kube:  kc,
		cf:    cf,
		oauth: os,
		store: store,
		log:   log,
	}
}

// SetupRoutes configures API routes.
func SetupRoutes(router *mux.Router, h *Handler) {
	// Helm releases
	router.HandleFunc("/api/releases", h.InstallRelease).Methods("POST")
	router.HandleFunc("/api/releases", h.ListReleases).Methods("GET")
	router.HandleFunc("/api/releases/{namespace}/{name}", h.GetRelease).Methods("GET")
	router.HandleFunc("/api/releases/{namespace}/{name}", h.UpgradeRelease).Methods("PATCH")
	router.HandleFunc("/api/releases/{namespace}/{name}", h.UninstallRelease).Methods("DELETE")
	router.HandleFunc("/api/releases/{namespace}/{name}/rollback", h.RollbackRelease).Methods("POST")
	router.HandleFunc("/api/releases/{namespace}/{name}/revisions", h.ReleaseRevisions).Methods("GET")
	router.HandleFunc("/api/releases/{namespace}/{name}/status", h.ReleaseStatus).Methods("GET")

	// Workspace namespaces
	router.HandleFunc("/api/namespaces", h.CreateNamespace).Methods("POST")
	router.HandleFunc("/api/namespaces", h.ListNamespaces).Methods("GET")
	router.HandleFunc("/api/namespaces/{name}", h.DeleteNamespace).Methods("DELETE")

	// Shared-tunnel routes
	router.HandleFunc("/api/routes", h.ListRoutes).Methods("GET")
	router.HandleFunc("/api/routes", h.CreateRoute).Methods("POST")
	router.HandleFunc("/api/routes/{subdomain}", h.DeleteRoute).Methods("DELETE")

	// Dedicated tunnels
	router.HandleFunc("/api/tunnels", h.CreateTunnel).Methods("POST")
	router.HandleFunc("/api/tunnels/{id}/status", h.TunnelStatus).Methods("GET")
	router.HandleFunc("/api/tunnels/{id}/token", h.TunnelToken).Methods("GET")
	router.HandleFunc("/api/tunnels/{id}/configure", h.ConfigureTunnel).Methods("POST")
	router.HandleFunc("/api/tunnels/{id}/dns", h.CreateTunnelDNS).Methods("POST")
	router.HandleFunc("/api/tunnels/{id}", h.DeleteTunnel).Methods("DELETE")

	// OAuth 2.0 authorization server
	router.HandleFunc("/oauth2/authorize", h.AuthorizeGet).Methods("GET")
	router.HandleFunc("/oauth2/authorize", h.AuthorizePost).Methods("POST")
	router.HandleFunc("/oauth2/token", h.TokenEndpoint).Methods("POST")
	router.HandleFunc("/oauth2/introspect", h.IntrospectEndpoint).Methods("POST")
	router.HandleFunc("/oauth2/revoke", h.RevokeEndpoint).Methods("POST")

	// Admin OAuth client management (API-key protected)
	router.HandleFunc("/oauth2/clients", h.CreateOAuthClient).Methods("POST")
	router.HandleFunc("/oauth2/clients/{id}/regenerate", h.RegenerateOAuthClientSecret).Methods("POST")

	// Bearer-protected smart-home device API
	read := middleware.RequireScopes(h.oauth, "smarthome:read")
	tunnel := middleware.RequireScopes(h.oauth, "smarthome:tunnel")
	router.Handle("/api/smarthome/workspaces", read(http.HandlerFunc(h.SmartHomeWorkspaces))).Methods("GET")
	router.Handle("/api/smarthome/workspaces/{id}/homes", read(http.HandlerFunc(h.SmartHomeHomes))).Methods("GET")
	router.Handle("/api/smarthome/homes/{id}", read(http.HandlerFunc(h.SmartHomeHome))).Methods("GET")
	router.Handle("/api/smarthome/homes/{id}/status", read(http.HandlerFunc(h.SmartHomeStatus))).Methods("GET")
	router.Handle("/api/smarthome/homes/{id}/tunnel-token", tunnel(http.HandlerFunc(h.SmartHomeTunnelToken))).Methods("GET")

	// Health and metrics
	router.HandleFunc("/health", h.Health).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
