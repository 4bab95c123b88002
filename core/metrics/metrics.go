// Package metrics records dispatch metrics with Prometheus.
//
// A Recorder is a router.Observer backed by its own registry, so several
// routers in one process never collide on metric names:
//
//	rec := metrics.New(metrics.WithNamespace("shop"))
//	r := router.New(router.WithObserver(rec))
//	r.Handle(http.MethodGet, "/metrics", rec.Handler())
//
// Requests are labelled by method, matched route template and status code.
// Unmatched requests carry the "@404" route label rather than their path,
// which keeps label cardinality bounded.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultBuckets are the request duration histogram buckets in seconds.
var DefaultBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// Recorder counts requests and observes their duration.
type Recorder struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

type options struct {
	namespace string
	buckets   []float64
	runtime   bool
}

// Option configures a Recorder.
type Option func(*options)

// WithNamespace prefixes every metric name.
func WithNamespace(ns string) Option {
	return func(o *options) {
		o.namespace = ns
	}
}

// WithBuckets overrides DefaultBuckets.
func WithBuckets(buckets ...float64) Option {
	return func(o *options) {
		if len(buckets) > 0 {
			o.buckets = buckets
		}
	}
}

// WithRuntimeMetrics also registers the Go runtime and process collectors.
func WithRuntimeMetrics() Option {
	return func(o *options) {
		o.runtime = true
	}
}

// New creates a recorder with a private registry.
func New(opts ...Option) *Recorder {
	o := &options{buckets: DefaultBuckets}
	for _, opt := range opts {
		opt(o)
	}

	labels := []string{"method", "route", "status"}
	rec := &Recorder{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: o.namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Requests dispatched, by method, route template and status.",
		}, labels),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: o.namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Time spent dispatching requests.",
			Buckets:   o.buckets,
		}, labels),
	}
	rec.registry.MustRegister(rec.requests, rec.duration)
	if o.runtime {
		rec.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return rec
}

// Observe implements router.Observer.
func (r *Recorder) Observe(method, route string, status int, d time.Duration) {
	code := strconv.Itoa(status)
	r.requests.WithLabelValues(method, route, code).Inc()
	r.duration.WithLabelValues(method, route, code).Observe(d.Seconds())
}

// Registry returns the registry the recorder's collectors live in.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
