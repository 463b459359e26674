// Package ops serves the operational endpoints of internd on a separate
// listener: Prometheus metrics plus liveness and readiness checks.
package ops

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sorenmh/nextintern/internal/internd/metrics"
	"github.com/sorenmh/nextintern/internal/logging"
)

// Pinger is anything readiness depends on
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc adapts a function to Pinger
type PingFunc func(ctx context.Context) error

func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

// Server is the ops HTTP server
type Server struct {
	port   string
	router *chi.Mux
	checks map[string]Pinger
	logger logging.Logger
	http   *http.Server
}

// NewServer creates the ops server. checks are consulted by /readyz.
func NewServer(port string, reg *prometheus.Registry, checks map[string]Pinger, logger logging.Logger) *Server {
	s := &Server{
		port:   port,
		router: chi.NewRouter(),
		checks: checks,
		logger: logger,
	}

	s.router.Use(s.requestLogger)
	s.router.Handle("/metrics", metrics.Handler(reg))
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)
	return s
}

// Handler returns the HTTP handler of the server
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%s", s.port)
	s.http = &http.Server{Addr: addr, Handler: s.router, ReadHeaderTimeout: 5 * time.Second}
	s.logger.Info("starting ops server", map[string]interface{}{"addr": addr})
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the ops server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		if err := check.PingContext(ctx); err != nil {
			results[name] = "error"
			status = http.StatusServiceUnavailable
			s.logger.WithError(err).Warn("readiness check failed", map[string]interface{}{"check": name})
			continue
		}
		results[name] = "ok"
	}

	resp := map[string]interface{}{"status": "ready", "checks": results}
	if status != http.StatusOK {
		resp["status"] = "not_ready"
	}
	writeJSON(w, status, resp)
}

// requestLogger logs ops requests at debug level; health checks are frequent
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		s.logger.Debug("ops request", map[string]interface{}{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rw.statusCode,
			"duration": time.Since(start).String(),
		})
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
