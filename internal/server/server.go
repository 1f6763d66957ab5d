// Package server provides the trigger surface: a synchronous manual HTTP
// trigger and the scheduled trigger loop. The surface, not the engine,
// decides whether a failure is surfaced or swallowed: manual triggers
// return errors to the caller, scheduled ticks log and move on.
package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"ratesync/internal/config"
	rserrors "ratesync/internal/errors"
	"ratesync/internal/models"
)

// Runner executes one reconciliation run. Satisfied by reconcile.Engine.
type Runner interface {
	Run(ctx context.Context, force bool) (*models.RunResult, error)
}

// Server exposes the manual trigger over HTTP.
type Server struct {
	engine Runner
	cfg    config.ServerConfig
	logger zerolog.Logger
	http   *http.Server
}

// NewServer creates the HTTP trigger surface.
func NewServer(engine Runner, cfg config.ServerConfig, logger zerolog.Logger) *Server {
	s := &Server{
		engine: engine,
		cfg:    cfg,
		logger: logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /run", s.handleRun)
	mux.HandleFunc("GET /run", s.handleRun)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the HTTP handler, primarily for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// ListenAndServe blocks serving HTTP until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.cfg.Addr).Msg("HTTP trigger surface listening")
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// handleRun is the manual trigger: token-checked when a secret is
// configured, honors an optional force query parameter, and surfaces
// engine failures as explicit error responses.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if err := s.authorize(r); err != nil {
		s.logger.Warn().Err(err).Msg("Manual trigger rejected")
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	force := false
	if raw := r.URL.Query().Get("force"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			http.Error(w, "invalid force parameter: "+raw, http.StatusBadRequest)
			return
		}
		force = parsed
	}

	result, err := s.engine.Run(r.Context(), force)
	if err != nil {
		if errors.Is(err, rserrors.ErrRunInFlight) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		s.logger.Error().Err(err).Msg("Manual reconciliation run failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode run result")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// authorize checks the manual-trigger token before any other work. No
// configured secret means the surface is open.
func (s *Server) authorize(r *http.Request) error {
	if s.cfg.AuthToken == "" {
		return nil
	}
	presented := r.Header.Get("X-Auth-Token")
	if presented == "" {
		presented = r.URL.Query().Get("token")
	}
	if subtle.ConstantTimeCompare([]byte(presented), []byte(s.cfg.AuthToken)) != 1 {
		return rserrors.NewAuthError("token mismatch")
	}
	return nil
}
