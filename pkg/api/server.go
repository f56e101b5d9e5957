// Package api serves dashboard statistics to HTTP pollers.
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

	"github.com/dtnitsch/workflow-stats/pkg/activity"
	"github.com/dtnitsch/workflow-stats/pkg/stats"
)

// Engine is the statistics source behind the endpoints.
type Engine interface {
	Snapshot(ctx context.Context) (stats.Snapshot, error)
	Recent(ctx context.Context) ([]activity.Entry, error)
	Window(ctx context.Context, spec string) (stats.WindowReport, error)
}

// Signaler delivers a refresh signal to the dashboard refresh loop.
type Signaler interface {
	Signal(ctx context.Context) error
}

// Options configures a Server.
type Options struct {
	SignalTimeout time.Duration
	// Metrics, when set, is mounted at /metrics.
	Metrics http.Handler
}

// Server is the stateless HTTP surface. Every request recomputes from the store.
type Server struct {
	engine   Engine
	signaler Signaler
	opts     Options
	logger   *slog.Logger
	router   *chi.Mux
}

// NewServer wires the routes. signaler may be nil, in which case trigger
// requests always fail.
func NewServer(engine Engine, signaler Signaler, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.SignalTimeout <= 0 {
		opts.SignalTimeout = 2 * time.Second
	}

	s := &Server{
		engine:   engine,
		signaler: signaler,
		opts:     opts,
		logger:   logger.With("component", "api"),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.NoCache)
		r.Get("/stats", s.handleStats)
		r.Get("/recent", s.handleRecent)
		r.Get("/session", s.handleSession)
		r.Post("/trigger-update", s.handleTriggerUpdate)
	})

	s.router = r
	return s
}

// ServeHTTP makes Server an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Stopping server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return <-errCh
}
