// Package server exposes page detection over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/brogergvhs/pagedetect/internal/detect"
	"github.com/brogergvhs/pagedetect/internal/providers"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const defaultMaxBody = 8 << 20

type Config struct {
	Addr string
	// Tuning is the base tuning; requests may override single keys.
	Tuning detect.Tuning
	// Source enables POST /v1/scan. Nil leaves the route answering 501.
	Source       providers.CandidateSource
	MaxBodyBytes int64
	Logger       *slog.Logger
}

type Server struct {
	cfg    Config
	router *chi.Mux
}

func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBody
	}
	if cfg.Tuning.IsZero() {
		cfg.Tuning = detect.DefaultTuning()
	}

	s := &Server{cfg: cfg}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/v1/detect", s.handleDetect)
	r.Post("/v1/scan", s.handleScan)

	s.router = r

	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.cfg.Logger.Info("server: listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.cfg.Logger.Info("server: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

type detectRequest struct {
	Candidates           []detect.Candidate `json:"candidates"`
	Debug                bool               `json:"debug"`
	AlwaysGlobalFallback bool               `json:"alwaysGlobalFallback"`
	// Tuning holds only the keys to change.
	Tuning json.RawMessage `json:"tuning,omitempty"`
}

type scanRequest struct {
	URL                  string          `json:"url"`
	Debug                bool            `json:"debug"`
	AlwaysGlobalFallback bool            `json:"alwaysGlobalFallback"`
	Tuning               json.RawMessage `json:"tuning,omitempty"`
}

type scanResponse struct {
	URL    string        `json:"url"`
	Pages  []string      `json:"pages"`
	Result detect.Result `json:"result"`
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	var req detectRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	opts, err := s.options(req.Tuning, req.AlwaysGlobalFallback)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	res := detect.AutoDetectPages(req.Candidates, opts)
	if !req.Debug {
		res.Debug = nil
	}

	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Source == nil {
		writeError(w, http.StatusNotImplemented, errors.New("scanning is not enabled"))
		return
	}

	var req scanRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, errors.New("url is required"))
		return
	}

	opts, err := s.options(req.Tuning, req.AlwaysGlobalFallback)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	ps, err := providers.DetectPages(r.Context(), s.cfg.Source, req.URL, opts)
	switch {
	case errors.Is(err, providers.ErrNoImages):
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	case err != nil:
		s.cfg.Logger.Warn("server: scan failed", "url", req.URL, "error", err)
		writeError(w, http.StatusBadGateway, err)
		return
	}

	if !req.Debug {
		ps.Result.Debug = nil
	}

	writeJSON(w, http.StatusOK, scanResponse{URL: req.URL, Pages: ps.URLs, Result: ps.Result})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}

	return nil
}

// options applies a partial tuning object on top of the server's tuning.
func (s *Server) options(raw json.RawMessage, globalFallback bool) (detect.Options, error) {
	t := s.cfg.Tuning
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &t); err != nil {
			return detect.Options{}, fmt.Errorf("invalid tuning: %w", err)
		}
		if err := t.Validate(); err != nil {
			return detect.Options{}, fmt.Errorf("invalid tuning: %w", err)
		}
	}

	return detect.Options{Tuning: t, AlwaysGlobalFallback: globalFallback}, nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
