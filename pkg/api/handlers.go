package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/dtnitsch/workflow-stats/pkg/stats"
)

// handleStats returns the current snapshot.
// GET /api/stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	snap, err := s.engine.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

// handleRecent returns at most ten records, newest first.
// GET /api/recent
func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	entries, err := s.engine.Recent(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, entries)
}

// handleSession reports one named or ad-hoc window.
// GET /api/session?window=diagnostic
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	report, err := s.engine.Window(r.Context(), r.URL.Query().Get("window"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

// handleTriggerUpdate asks the refresh loop to recompute now. The response
// reports delivery of the signal, not the outcome of the refresh.
// POST /api/trigger-update
func (s *Server) handleTriggerUpdate(w http.ResponseWriter, r *http.Request) {
	if s.signaler == nil {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "error",
			"error":  stats.ErrSignalDeliveryFailed.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.opts.SignalTimeout)
	defer cancel()

	if err := s.signaler.Signal(ctx); err != nil {
		s.logger.Warn("refresh signal not delivered", "error", err, "request_id", middleware.GetReqID(r.Context()))
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "error",
			"error":  err.Error(),
		})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, stats.ErrUnknownWindow):
		status = http.StatusBadRequest
	case errors.Is(err, stats.ErrStoreUnavailable):
		status = http.StatusServiceUnavailable
	}

	s.logger.Error("request failed",
		"path", r.URL.Path,
		"status", status,
		"error", err,
		"request_id", middleware.GetReqID(r.Context()))
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("failed to encode response", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// requestLogger logs one line per request through slog.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()))
		})
	}
}
