package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mohammed-shakir/osm-ingest/internal/core/config"
	"github.com/mohammed-shakir/osm-ingest/internal/core/health"
	middleware "github.com/mohammed-shakir/osm-ingest/internal/core/middleware"
	"github.com/mohammed-shakir/osm-ingest/internal/core/router"
)

type Deps struct {
	Service router.IngestService
	// Metrics serves /metrics; nil leaves the route out.
	Metrics http.Handler
	Checks  []health.Check
}

// NewHandler wires the routes.
func NewHandler(cfg config.Config, logger *slog.Logger, d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS())

	r.Get("/healthz", health.Liveness())
	r.Get("/readyz", health.Readiness(2*time.Second, d.Checks...))
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}
	r.Post("/ingest", router.HandleIngest(logger, cfg, d.Service))
	r.Get("/extent/{dataset}", router.HandleExtent(logger, d.Service))
	r.Delete("/extent/{dataset}", router.HandleDelete(logger, d.Service))
	r.Get("/extent/{dataset}/runs/{run_id}", router.HandleRun(logger, d.Service))
	return r
}

// sets up http and starts serving
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger, d Deps) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewHandler(cfg, logger, d),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       5 * time.Minute,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listen", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
