package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/WOOWTECH/paas-operator/internal/api/middleware"
	"github.com/WOOWTECH/paas-operator/internal/api/rest"
	"github.com/WOOWTECH/paas-operator/internal/cloudflare"
	"github.com/WOOWTECH/paas-operator/internal/config"
	"github.com/WOOWTECH/paas-operator/internal/execx"
	"github.com/WOOWTECH/paas-operator/internal/helm"
	"github.com/WOOWTECH/paas-operator/internal/kube"
	"github.com/WOOWTECH/paas-operator/internal/oauth"
	"github.com/WOOWTECH/paas-operator/internal/pkg/logger"
	"github.com/WOOWTECH/paas-operator/internal/repository"
	"github.com/WOOWTECH/paas-operator/migrations"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.LogLevel)
	log.Info("paas-operator starting", "port", cfg.Port)

	// Persistence
	repo, err := repository.NewSQLiteRepository(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer repo.Close()
	if err := repo.RunMigrations(migrations.FS); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	// Subprocess-backed managers
	runner := execx.New(log)
	helmMgr := helm.NewManager(runner, cfg.HelmBinary, cfg.NamespacePrefix, cfg.HelmTimeout(), log)
	kubeClient := kube.NewClient(runner, cfg.KubectlBinary, cfg.NamespacePrefix, cfg.KubectlTimeout(), log)

	// Cloudflare tunnel integration (no-op routes when disabled)
	cfClient := cloudflare.NewClient(cloudflare.Options{
		APIToken:  cfg.CloudflareAPIToken,
		AccountID: cfg.CloudflareAccountID,
		TunnelID:  cfg.CloudflareTunnelID,
		ZoneID:    cfg.CloudflareZoneID,
		Domain:    cfg.CloudflareDomain,
		Enabled:   cfg.CloudflareEnabled,
		Timeout:   cfg.CloudflareTimeout(),
	}, log)
	if !cfClient.Enabled() {
		log.Warn("cloudflare integration disabled, route operations are no-ops")
	}

	// OAuth 2.0 authorization server
	oauthSrv := oauth.NewServer(repo, cfg.AccessTokenTTL(), cfg.RefreshTokenTTL(), cfg.AuthCodeTTL(), log)

	// HTTP surface
	router := mux.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.StructuredLog)
	router.Use(middleware.SecureHeaders)
	router.Use(middleware.RateLimit)
	router.Use(middleware.APIKey(cfg.APIKeyHeader, cfg.APIKey, log))

	handler := rest.NewHandler(helmMgr, kubeClient, cfClient, oauthSrv, repo, log)
	rest.SetupRoutes(router, handler)

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", cfg.APIKeyHeader, "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Limit"},
		AllowCredentials: false,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      c.Handler(router),
		ReadTimeout:  30 * time.Second,
		// Helm installs can legitimately run for minutes.
		WriteTimeout: cfg.HelmTimeout() + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-stop:
		log.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.ShutdownTimeoutSec)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("paas-operator stopped")
	return nil
}
