package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/fieldops/fieldops-api/internal/adapters/httpapi"
	"github.com/fieldops/fieldops-api/internal/adapters/memory/fixtures"
	"github.com/fieldops/fieldops-api/internal/app/clients"
	"github.com/fieldops/fieldops-api/internal/app/incidents"
	"github.com/fieldops/fieldops-api/internal/app/members"
	"github.com/fieldops/fieldops-api/internal/backend"
	"github.com/fieldops/fieldops-api/internal/platform/config"
	"github.com/fieldops/fieldops-api/internal/platform/logging"
	"github.com/fieldops/fieldops-api/internal/platform/metrics"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logging.New(cfg.Log.Level, cfg.Log.Format, "fieldops-api")
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	h, err := backend.New(ctx, backend.Options{Profile: &cfg, Logger: log})
	if err != nil {
		return err
	}
	defer h.Close()

	// Auth configuration:
	// - session: bearer tokens issued by the backend's Auth and checked against its session store
	// - dev: X-Debug-Subject, defaulting to the seeded owner when running on fixtures
	var authMW func(http.Handler) http.Handler
	switch cfg.Server.AuthMode {
	case config.AuthModeDev:
		def := os.Getenv("DEV_SUBJECT")
		if def == "" && h.Backend == config.BackendMock {
			def = string(fixtures.OwnerID)
		}
		authMW = httpapi.NewDevAuthMiddleware(def)
		log.Warn("dev auth enabled; requests are trusted by X-Debug-Subject")
	default:
		authMW = httpapi.NewSessionAuthMiddleware(h.Auth)
	}

	m := metrics.New()
	api := httpapi.NewServer(
		clients.NewService(h.Clients, h.Incidents, log.Named("clients")),
		incidents.NewService(h.Incidents, log.Named("incidents")),
		members.NewService(h.Users, h.Teams, h.Invites, log.Named("members")),
		log.Named("http"),
		m,
	)
	handler := httpapi.NewRouterWithOptions(api, httpapi.RouterOptions{
		AuthMiddleware: authMW,
		Replays:        h.Replays,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("api listening",
			zap.Int("port", cfg.Server.Port),
			zap.String("profile", string(cfg.Profile)),
			zap.String("backend", string(h.Backend)),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
