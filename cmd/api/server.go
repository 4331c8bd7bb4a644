// Package api assembles the HTTP server from its dependencies.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/FACorreiaa/formfill-api/pkg/interceptors"
)

// NewRouter builds the HTTP handler with the middleware chain applied
func NewRouter(d *Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(interceptors.RequestLogger(d.Logger))
	r.Use(middleware.Recoverer)
	r.Use(interceptors.CORS(d.Config.Server.AllowedOrigins))
	r.Use(interceptors.RateLimit(d.Config.Server.RateLimitPerSecond, d.Config.Server.RateLimitBurst))

	if d.Config.Observability.MetricsEnabled {
		r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	}

	d.FormFillHandler.Routes(r)

	return r
}

// Serve runs the HTTP server and the cleanup scheduler until ctx is done,
// then shuts both down.
func Serve(ctx context.Context, d *Dependencies) error {
	srv := &http.Server{
		Addr:              d.Config.Server.Addr(),
		Handler:           NewRouter(d),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if d.Scheduler != nil {
		if err := d.Scheduler.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	}
	defer d.Cleanup()

	errCh := make(chan error, 1)
	go func() {
		d.Logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	d.Logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), d.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return nil
}
