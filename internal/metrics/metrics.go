// Package metrics owns the Prometheus registry of the dropplan server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles the collectors exported on /metrics. Each Registry has its
// own prometheus.Registry so tests do not share global state.
type Registry struct {
	registry *prometheus.Registry

	requestTotal        *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	capacityComputation *prometheus.CounterVec
	overcommittedDays   prometheus.Histogram
}

// Option customizes a Registry.
type Option func(*prometheus.Registry)

// WithRuntimeCollectors adds the Go runtime and process collectors.
func WithRuntimeCollectors() Option {
	return func(r *prometheus.Registry) {
		r.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
}

// New creates a Registry with every dropplan collector registered.
func New(opts ...Option) *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
		requestTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Number of HTTP requests by route and status",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		capacityComputation: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dropplan_capacity_computations_total",
				Help: "Number of capacity aggregations by kind",
			},
			[]string{"kind"},
		),
		overcommittedDays: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "dropplan_overcommitted_days",
				Help:    "Overcommitted days found per capacity aggregation",
				Buckets: prometheus.LinearBuckets(0, 1, 11),
			},
		),
	}
	r.registry.MustRegister(r.requestTotal, r.requestDuration, r.capacityComputation, r.overcommittedDays)
	for _, opt := range opts {
		opt(r.registry)
	}
	return r
}

// ObserveRequest records one served HTTP request.
func (r *Registry) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if r == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	r.requestTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.requestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveCapacity records one capacity aggregation and how many of its days
// were overcommitted.
func (r *Registry) ObserveCapacity(kind string, overcommittedDays int) {
	if r == nil {
		return
	}
	r.capacityComputation.WithLabelValues(kind).Inc()
	r.overcommittedDays.Observe(float64(overcommittedDays))
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
