package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// handleMetrics serves the Prometheus exposition of the clock's registry.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if s.metrics == nil {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "metrics disabled")
		return
	}
	promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}).ServeHTTP(w, r)
}
