// Package ops serves the worker's operational HTTP surface.
package ops

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"f1picks/ingestion/internal/lock"
	"f1picks/ingestion/internal/scheduler"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// HealthChecker reports whether a dependency is usable
type HealthChecker interface {
	Health(ctx context.Context) error
}

// JobRunner triggers named jobs on demand
type JobRunner interface {
	RunNow(ctx context.Context, name string) error
	Jobs() []string
}

// NewRouter builds the ops routes: health, metrics and manual job triggers
func NewRouter(health HealthChecker, jobs JobRunner) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := health.Health(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/jobs", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string][]string{"jobs": jobs.Jobs()})
		})

		r.Post("/{name}", func(w http.ResponseWriter, r *http.Request) {
			name := chi.URLParam(r, "name")

			// A disconnecting caller must not abort a half-written run
			err := jobs.RunNow(context.WithoutCancel(r.Context()), name)
			switch {
			case err == nil:
				writeJSON(w, http.StatusOK, map[string]string{"job": name, "status": "complete"})
			case errors.Is(err, scheduler.ErrUnknownJob):
				writeJSON(w, http.StatusNotFound, map[string]string{"job": name, "error": err.Error()})
			case errors.Is(err, lock.ErrLocked):
				writeJSON(w, http.StatusConflict, map[string]string{"job": name, "status": "already running"})
			default:
				writeJSON(w, http.StatusInternalServerError, map[string]string{"job": name, "error": err.Error()})
			}
		})
	})

	return r
}

// NewServer creates the ops HTTP server on addr
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("Ops request")
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Warn().Err(err).Msg("Failed to write response")
	}
}
