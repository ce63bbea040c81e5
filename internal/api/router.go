package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// healthCheckTimeout bounds each dependency probe in /health.
const healthCheckTimeout = 2 * time.Second

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Get("/metrics", s.handleMetrics)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/status", s.handleStatus)
		r.Post("/command", s.handleCommand)
		r.Put("/time", s.handleSetTime)

		r.Route("/schedule", func(r chi.Router) {
			r.Get("/", s.handleListSchedule)
			r.Put("/", s.handleUpsertSchedule)
			r.Delete("/", s.handleClearSchedule)
			r.Delete("/{day}/{hour}/{minute}", s.handleDeleteSchedule)
		})
	})

	return r
}

// handleHealth reports server liveness and the health of each registered
// dependency. Any failing dependency turns the response into a 503.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	deps := make(map[string]string, len(s.checks))

	for name, check := range s.checks {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		err := check.HealthCheck(ctx)
		cancel()
		if err != nil {
			deps[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	body := map[string]any{
		"status":  "ok",
		"version": s.version,
	}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	if len(deps) > 0 {
		body["dependencies"] = deps
	}
	writeJSON(w, status, body)
}

// handleStatus returns the status snapshot.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Status())
}
