// Package webapi exposes the optimizer over HTTP: POST a rule file and
// a program and get the rewritten program back, or GET a health check.
// Grounded on the teacher's api package (api/server.go, api/handlers.go):
// a Server wrapping http.ServeMux and http.Server with a localhost-only
// CORS middleware and writeJSON/writeError helpers, built entirely on
// stdlib net/http rather than a router dependency, matching the
// teacher's own choice not to pull one in either.
package webapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/taylorza/zopt/config"
	"github.com/taylorza/zopt/service"
)

// Server is the optimizer HTTP API. Each request loads its own rule set
// into a fresh service.OptimizerService, so the server itself holds no
// per-session state.
type Server struct {
	mux    *http.ServeMux
	server *http.Server
	port   int
	cfg    *config.Config
}

// NewServer creates an API server bound to port, using
// config.DefaultConfig() for its engine tunables and diff formatting.
func NewServer(port int) *Server {
	return NewServerWithConfig(port, config.DefaultConfig())
}

// NewServerWithConfig creates an API server bound to port, applying cfg's
// engine tunables and diff settings to every request it serves.
func NewServerWithConfig(port int, cfg *config.Config) *Server {
	s := &Server{
		mux:  http.NewServeMux(),
		port: port,
		cfg:  cfg,
	}
	s.registerRoutes()
	return s
}

// Handler returns the HTTP handler with CORS middleware applied.
func (s *Server) Handler() http.Handler {
	return s.corsMiddleware(s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/api/v1/healthz", s.handleHealthz)
	s.mux.HandleFunc("/api/v1/optimize", s.handleOptimize)
}

// Start runs the HTTP server, blocking until it stops.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf("127.0.0.1:%d", s.port),
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	log.Printf("zopt API server starting on http://127.0.0.1:%d", s.port)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if isAllowedOrigin(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isAllowedOrigin(origin string) bool {
	if origin == "" {
		return true
	}
	if strings.HasPrefix(origin, "http://localhost") ||
		strings.HasPrefix(origin, "https://localhost") ||
		strings.HasPrefix(origin, "http://127.0.0.1") ||
		strings.HasPrefix(origin, "https://127.0.0.1") {
		return true
	}
	return false
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// OptimizeRequest is the POST /api/v1/optimize request body.
type OptimizeRequest struct {
	Rules   string `json:"rules"`
	Program string `json:"program"`
}

// OptimizeResponse is the POST /api/v1/optimize response body.
type OptimizeResponse struct {
	Program       string `json:"program"`
	TotalRewrites uint64 `json:"total_rewrites"`
	Diff          string `json:"diff,omitempty"`
}

// ErrorResponse is the JSON body written alongside non-2xx statuses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req OptimizeRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	// Each request carries its own rule set, so a fresh service keeps
	// concurrent requests from racing over shared loaded rules.
	svc := service.NewOptimizerServiceWithConfig(s.cfg)
	if err := svc.LoadRulesFromText(req.Rules); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid rule file: "+err.Error())
		return
	}

	out, result, err := svc.OptimizeText(req.Program)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "optimization failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, OptimizeResponse{
		Program:       out,
		TotalRewrites: result.TotalRewrites,
		Diff:          result.Diff,
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("webapi: error encoding JSON: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}

func readJSON(r *http.Request, v any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1024*1024))
	return decoder.Decode(v)
}
