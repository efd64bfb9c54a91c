// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "dronefeed"

var (
	// Registry is the dedicated Prometheus registry for the service.
	Registry = prometheus.NewRegistry()

	// HTTPRequests counts requests by method, route pattern and status.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: namespace, Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// Solves counts planning runs by resolved strategy and outcome (ok, error).
	Solves = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "solves_total", Help: "Planning runs by strategy and outcome."},
		[]string{"strategy", "outcome"},
	)
	SolveDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: namespace, Name: "solve_duration_seconds", Help: "Planning run duration in seconds.", Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30}},
		[]string{"strategy"},
	)
	TripsPlanned = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "trips_planned_total", Help: "Accepted depot-to-depot trips."},
	)
	TargetsCredited = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "targets_credited_total", Help: "Enclosures credited across all plans."},
	)
	Detours = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "detours_total", Help: "Legs rerouted around exclusion zones."},
	)

	// WebhookDeliveries counts webhook delivery outcomes by event type and status.
	WebhookDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "webhook_deliveries_total", Help: "Webhook deliveries by event type and status."},
		[]string{"event_type", "status"},
	)
	WebhookLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: namespace, Name: "webhook_delivery_latency_ms", Help: "Webhook delivery latency in ms.", Buckets: []float64{10, 50, 100, 200, 500, 1000, 2000, 5000}},
		[]string{"event_type", "status"},
	)
)

var regOnce sync.Once

// RegisterDefault registers every collector on Registry. It is safe to call
// more than once.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests, HTTPDuration)
		Registry.MustRegister(Solves, SolveDuration, TripsPlanned, TargetsCredited, Detours)
		Registry.MustRegister(WebhookDeliveries, WebhookLatency)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

// ObserveSolve records one finished planning run.
func ObserveSolve(strategy string, seconds float64, trips, credited, detours int, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	Solves.WithLabelValues(strategy, outcome).Inc()
	SolveDuration.WithLabelValues(strategy).Observe(seconds)
	if err != nil {
		return
	}
	TripsPlanned.Add(float64(trips))
	TargetsCredited.Add(float64(credited))
	Detours.Add(float64(detours))
}
