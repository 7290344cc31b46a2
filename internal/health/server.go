// Package health provides health checking and HTTP endpoints for the MCP server.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server exposes the device intelligence core's liveness, readiness, and
// (optionally) Prometheus metrics over plain HTTP, separate from the MCP
// stdio transport the tools are served over:
//   - /health  - authentication + automation-bridge connectivity checks
//   - /ready   - can the MCP server currently accept tool calls
//   - /live    - is the process still running
//   - /metrics - Prometheus metrics, when enabled
type Server struct {
	checker        *Checker
	logger         *zap.Logger
	httpServer     *http.Server
	port           int
	metricsEnabled bool

	// ready indicates if the server is ready to handle requests
	ready atomic.Bool
}

// NewServer creates a new health HTTP server bound to bindAddr:port.
// bindAddr defaults to 127.0.0.1; pass "0.0.0.0" only when the health
// endpoint must be reachable from outside the host running the MCP server.
func NewServer(checker *Checker, logger *zap.Logger, port int, bindAddr string, metricsEnabled bool) *Server {
	s := &Server{
		checker:        checker,
		logger:         logger,
		port:           port,
		metricsEnabled: metricsEnabled,
	}

	// Default to localhost for security if not specified
	if bindAddr == "" {
		bindAddr = "127.0.0.1"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/ready", s.readyHandler)
	mux.HandleFunc("/live", s.liveHandler)

	if metricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
	}

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", bindAddr, port),
		Handler:           mux,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	return s
}

// SetReady marks the server as ready to handle requests.
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
}

// Start starts the HTTP health server.
func (s *Server) Start() error {
	s.logger.Info("Starting health HTTP server",
		zap.Int("port", s.port),
		zap.Bool("metrics_enabled", s.metricsEnabled),
	)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("health server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down health HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Response represents the response from /health endpoint.
type Response struct {
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Checks    []Check   `json:"checks"`
}

// healthHandler handles the /health endpoint.
// Returns full health status with all component checks.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	status, checks := s.checker.CheckAll(ctx)

	response := Response{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Checks:    checks,
	}

	w.Header().Set("Content-Type", "application/json")

	switch status {
	case StatusHealthy:
		w.WriteHeader(http.StatusOK)
	case StatusDegraded:
		w.WriteHeader(http.StatusOK) // Degraded still answers 200
	case StatusUnhealthy:
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.Error("Failed to encode health response", zap.Error(err))
	}
}

// readyHandler reports whether the MCP server has finished startup and can
// currently accept tool calls; returns 503 before SetReady(true) is called.
func (s *Server) readyHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if !s.ready.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"not_ready"}`))
		return
	}

	// Quick check - just verify we're ready, don't do full health check
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ready"}`))
}

// liveHandler is a bare process-alive check: answering at all means alive.
func (s *Server) liveHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"alive"}`))
}
