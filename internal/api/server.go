// Signawave - Digital Signage Player Orchestration Core
// Copyright 2026 Signawave Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signawave/signawave

// Package api serves the loopback status endpoint: health, orchestration
// state, the predicted timeline, and Prometheus metrics. It binds to
// localhost by default and carries no authentication; it is an operator
// window, not a public surface.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/signawave/signawave/internal/config"
	"github.com/signawave/signawave/internal/core"
	"github.com/signawave/signawave/internal/logging"
	"github.com/signawave/signawave/internal/schedule"
	"github.com/signawave/signawave/internal/timeline"
)

// StatusSource is the slice of core the API reads. Core satisfies it.
type StatusSource interface {
	StatusSnapshot() core.Status
	ScheduleSnapshot() (*schedule.Schedule, schedule.Env)
}

// Server is the loopback HTTP server.
type Server struct {
	cfg       config.APIConfig
	source    StatusSource
	durations *timeline.Durations
	hours     int
}

// NewServer builds the server around a status source.
func NewServer(cfg config.APIConfig, source StatusSource, durations *timeline.Durations, timelineHours int) *Server {
	return &Server{
		cfg:       cfg,
		source:    source,
		durations: durations,
		hours:     timelineHours,
	}
}

// Routes assembles the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/api/v1/timeline", s.handleTimeline)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// Serve runs the HTTP server until ctx is canceled. Suture restarts it on
// failure.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              net.JoinHostPort(s.cfg.Host, fmt.Sprintf("%d", s.cfg.Port)),
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", srv.Addr).Msg("status api listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// String names the service in supervisor logs.
func (s *Server) String() string { return "status-api" }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.source.StatusSnapshot())
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	sched, env := s.source.ScheduleSnapshot()
	entries := timeline.Predict(sched, env, s.durations, timeline.Options{
		Hours: s.hours,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"hours":   s.hours,
		"entries": entries,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn().Err(err).Msg("response encode failed")
	}
}
