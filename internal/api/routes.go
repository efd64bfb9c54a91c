package api

import (
	"bufio"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dronefeed/internal/metrics"
)

// Routes registers every endpoint on a new mux wrapped in the logging and
// metrics middleware.
func (s *Server) Routes() http.Handler {
	metrics.RegisterDefault()
	mux := http.NewServeMux()

	// Planning
	mux.HandleFunc("POST /v1/solve", s.SolveHandler)
	mux.HandleFunc("GET /v1/plans", s.PlansHandler)
	mux.HandleFunc("GET /v1/plans/{id}", s.PlanByIDHandler)
	mux.HandleFunc("GET /v1/plans/{id}/submission", s.PlanSubmissionHandler)
	mux.HandleFunc("GET /v1/plans/{id}/events", s.PlanEventsHandler)
	mux.HandleFunc("GET /v1/plans/{id}/stream", s.PlanStreamHandler)
	mux.HandleFunc("GET /v1/presets", s.PresetsHandler)
	mux.HandleFunc("GET /v1/stats", s.StatsHandler)

	// Webhooks
	mux.HandleFunc("/v1/subscriptions", s.SubscriptionsHandler)
	mux.HandleFunc("DELETE /v1/subscriptions/{id}", s.SubscriptionByIDHandler)
	mux.HandleFunc("GET /v1/admin/webhook-deliveries", s.WebhookDeliveriesHandler)

	// Ops
	mux.HandleFunc("GET /healthz", s.HealthHandler)
	mux.HandleFunc("GET /readyz", s.ReadyHandler)
	mux.HandleFunc("GET /v1/version", s.VersionHandler)
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// Docs
	mux.HandleFunc("GET /openapi.yaml", s.OpenAPIHandler)
	mux.HandleFunc("GET /openapi.json", s.OpenAPIJSONHandler)
	mux.HandleFunc("GET /docs", s.DocsHandler)

	return s.observe(s.authenticate(mux))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijack not supported")
	}
	if r.status == 0 {
		r.status = http.StatusSwitchingProtocols
	}
	return h.Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

// observe logs each request and records it under its route pattern so path
// parameters do not blow up label cardinality.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		dur := time.Since(start)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		path := r.Pattern
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(rec.status)
		metrics.HTTPRequests.WithLabelValues(r.Method, path, status).Inc()
		metrics.HTTPDuration.WithLabelValues(r.Method, path, status).Observe(dur.Seconds())
		s.Log.Debug("http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("duration", dur),
			slog.String("remote", r.RemoteAddr))
	})
}
