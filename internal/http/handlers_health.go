package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"spendtrack/internal/log"
)

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewHTMXResponse().BodyString("ok").Write(w)
}

// handleReady reports ready once the expenses API answers at all.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := s.api.Ping(ctx); err != nil {
		log.FromContext(ctx).WithComponent(log.ComponentHTTP).WarnContext(ctx, "Readiness check failed", log.FieldError, err.Error())
		NewHTMXResponse().Status(http.StatusServiceUnavailable).BodyString("api unreachable").Write(w)
		return
	}
	NewHTMXResponse().BodyString("ready").Write(w)
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	security := s.detector.GetMetrics()
	limiter := s.limiter.GetMetrics()
	tracing := s.tracer.GetMetrics()
	var dropped, failed int64
	if s.events != nil {
		dropped, failed = s.events.Stats()
	}

	fmt.Fprintf(w, "# HELP spendtrack_uptime_seconds Time since the server started\n")
	fmt.Fprintf(w, "spendtrack_uptime_seconds %d\n", int64(time.Since(s.started).Seconds()))
	fmt.Fprintf(w, "spendtrack_requests_total %d\n", tracing.TotalRequests)
	fmt.Fprintf(w, "spendtrack_last_request_latency_us %d\n", tracing.LastLatencyUsec)
	fmt.Fprintf(w, "spendtrack_suspicious_requests_total %d\n", security.SuspiciousRequests)
	fmt.Fprintf(w, "spendtrack_auth_rate_limit_hits_total %d\n", limiter.TotalHits)
	fmt.Fprintf(w, "spendtrack_auth_rate_limit_clients %d\n", limiter.ClientCount)
	fmt.Fprintf(w, "spendtrack_category_cache_entries %d\n", s.categories.Size())
	fmt.Fprintf(w, "spendtrack_activity_messages_dropped_total %d\n", dropped)
	fmt.Fprintf(w, "spendtrack_activity_messages_failed_total %d\n", failed)
}
