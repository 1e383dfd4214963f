// Package chi serves the ops endpoints (metrics and health) next to a
// pipeline run.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	logpkg "github.com/Autilos/perfun-bot-new/internal/logger"
	healthuc "github.com/Autilos/perfun-bot-new/internal/usecase/health"
)

// healthChecker is the consumer interface for the health use case.
type healthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// HealthResponse is the GET /healthz body.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
	Errors map[string]string `json:"errors,omitempty"`
}

// ErrorResponse is the body of every non-2xx response produced here.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Server handles the ops routes.
type Server struct {
	health   healthChecker
	gatherer prometheus.Gatherer
	logger   *zap.Logger
}

// NewServer creates an ops server. gatherer is usually the registry the run
// registered its metrics on.
func NewServer(health healthChecker, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	return &Server{health: health, gatherer: gatherer, logger: logger}
}

// Router builds the chi router. Non-empty apiKeys protect /metrics with
// Bearer auth; /healthz stays open for probes.
func (s *Server) Router(apiKeys []string) http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(apiKeys))

	r.Get("/healthz", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "not found")
	})
	return r
}

// HealthCheck handles GET /healthz.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
		logpkg.FromContext(r.Context()).Warn("Health check failed", zap.Any("errors", report.Errors))
	}

	resp := HealthResponse{Status: string(report.Status), Checks: checks}
	if len(report.Errors) > 0 {
		resp.Errors = report.Errors
	}
	writeJSON(w, httpStatus, resp)
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}).ServeHTTP(w, r)
}

// Serve listens on port until ctx is done, then shuts down within shutdown.
func Serve(ctx context.Context, port int, handler http.Handler, shutdown time.Duration, logger *zap.Logger) error {
	addr := fmt.Sprintf(":%d", port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting ops server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("ops server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdown)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("ops server shutdown: %w", err)
	}
	logger.Info("Ops server stopped")
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}
