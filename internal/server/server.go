// Package server implements the request gateway: it parses and validates
// compute requests, hands them to the job orchestrator, and renders results
// and progress without ever running CPU-bound work on its own goroutines.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/parlab/sumforge/internal/config"
	"github.com/parlab/sumforge/internal/jobs"
	"github.com/parlab/sumforge/internal/logging"
)

// Server is the HTTP gateway. Handlers only parse, submit, wait, and render;
// all computation happens on the orchestrator's worker pool.
type Server struct {
	cfg          config.AppConfig
	version      string
	logger       logging.Logger
	metrics      *Metrics
	orchestrator *jobs.Orchestrator
	security     SecurityConfig
	limiter      *rate.Limiter
	httpServer   *http.Server
}

// New creates a Server routing compute traffic to the given orchestrator.
// A nil logger discards logs; a nil metrics constructs the default facade.
func New(cfg config.AppConfig, version string, logger logging.Logger, orchestrator *jobs.Orchestrator, metrics *Metrics) *Server {
	if logger == nil {
		logger = logging.Nop()
	}
	if metrics == nil {
		metrics = NewMetrics()
	}
	s := &Server{
		cfg:          cfg,
		version:      version,
		logger:       logger,
		metrics:      metrics,
		orchestrator: orchestrator,
		security:     DefaultSecurityConfig(),
	}
	if cfg.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)
	}
	s.httpServer = &http.Server{
		Addr:              s.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
}

// Handler builds the route tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(s.recoverMiddleware)
	r.Use(s.logMiddleware)
	r.Use(s.metricsMiddleware)
	r.Use(func(next http.Handler) http.Handler {
		return SecurityMiddleware(s.security, next)
	})

	r.Get("/", s.handleIndex)
	r.With(s.rateLimitMiddleware).Get("/compute", s.handleCompute)
	r.Get("/jobs", s.handleJobs)
	r.Get("/jobs/{id}/progress", s.handleJobProgress)
	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", s.metrics.WritePrometheus)

	return r
}

// Start serves HTTP until Shutdown is called. A clean shutdown returns nil.
func (s *Server) Start() error {
	s.logger.Info("http server listening",
		logging.String("addr", s.Addr()),
		logging.String("version", s.version))
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the HTTP server, letting in-flight requests
// finish within ctx's deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// recoverMiddleware converts a handler panic into a generic 500 response so
// one bad request cannot take the gateway down.
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("handler panic",
					logging.String("path", r.URL.Path),
					logging.String("panic", fmt.Sprint(rec)))
				writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// logMiddleware emits one structured line per request.
func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", ww.Status()),
			logging.Dur("elapsed", time.Since(start)))
	})
}

// metricsMiddleware tracks in-flight requests and latency. The decrement is
// deferred so it runs even if a downstream handler panics.
func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.metrics.IncrementActiveRequests()
		start := time.Now()
		defer func() {
			s.metrics.DecrementActiveRequests()
			s.metrics.ObserveRequestDuration(time.Since(start))
		}()
		next.ServeHTTP(w, r)
	})
}

// rateLimitMiddleware applies the optional compute-route token bucket.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "too many requests"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
