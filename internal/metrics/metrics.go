// Package metrics holds the prometheus collectors of the record service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors. Each server gets its own registry so tests
// can build many servers in one process.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal     *prometheus.CounterVec
	RequestDurationMs *prometheus.HistogramVec
	CacheHitsTotal    prometheus.Counter
	CacheMissesTotal  prometheus.Counter
	CacheErrorsTotal  prometheus.Counter
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "waypoint_requests_total",
			Help: "Total HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		RequestDurationMs: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "waypoint_request_duration_ms",
			Help:    "Request duration in milliseconds",
			Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
		}, []string{"method", "route"}),
		CacheHitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "waypoint_cache_hits_total",
			Help: "Total list page cache hits",
		}),
		CacheMissesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "waypoint_cache_misses_total",
			Help: "Total list page cache misses",
		}),
		CacheErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "waypoint_cache_errors_total",
			Help: "Total redis errors that fell back to the database",
		}),
	}
	m.registry.MustRegister(
		m.RequestsTotal,
		m.RequestDurationMs,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.CacheErrorsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler exposes the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
