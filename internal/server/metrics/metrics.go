// Package metrics owns the Prometheus collectors exported on /metrics.
// All recording methods are safe on a nil *Metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	authEvents    *prometheus.CounterVec
	cacheRequests *prometheus.CounterVec
}

// New registers the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests processed, by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		authEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_events_total",
			Help: "Authentication events by outcome.",
		}, []string{"event", "result"}),
		cacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "project_cache_requests_total",
			Help: "Project cache lookups by result (hit, miss).",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.authEvents,
		m.cacheRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveHTTP(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(seconds)
}

// AuthEvent counts event with result "success" when err is nil, "failure" otherwise.
func (m *Metrics) AuthEvent(event string, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.authEvents.WithLabelValues(event, result).Inc()
}

func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheRequests.WithLabelValues(result).Inc()
}
