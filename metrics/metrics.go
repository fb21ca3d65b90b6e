// Package metrics exports Prometheus metrics for the recommendation service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gowthusaidatta/shl-assessment-recommendation-system/core"
)

// Request status label values.
const (
	StatusOK                 = "ok"
	StatusInvalidQuery       = "invalid_query"
	StatusCatalogUnavailable = "catalog_unavailable"
	StatusIndexUnavailable   = "index_unavailable"
	StatusInternalError      = "internal_error"
)

// Rerank outcome label values.
const (
	RerankApplied  = "applied"
	RerankSkipped  = "skipped"
	RerankDisabled = "disabled"
)

// Metrics holds the service's Prometheus collectors on a private registry.
// All record methods accept a nil receiver, so wiring metrics stays optional.
type Metrics struct {
	registry *prometheus.Registry

	requests   *prometheus.CounterVec
	latency    prometheus.Histogram
	resultSize prometheus.Histogram
	reranks    *prometheus.CounterVec
	cacheOps   *prometheus.CounterVec
}

// Config configures the metrics registry.
type Config struct {
	// Registry to register on; nil creates a private one.
	Registry *prometheus.Registry

	// LatencyBuckets for the request histogram, in seconds.
	LatencyBuckets []float64
}

// DefaultConfig returns buckets sized for a sub-second pipeline with an
// optional multi-second LLM call on top.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}
}

// New builds and registers the service collectors.
func New(cfg Config) *Metrics {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}
	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{registry: registry}

	m.requests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shlrec",
			Subsystem: "service",
			Name:      "requests_total",
			Help:      "Recommendation requests by terminal status",
		},
		[]string{"status"},
	)

	m.latency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "shlrec",
			Subsystem: "service",
			Name:      "request_seconds",
			Help:      "End-to-end recommendation latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
	)

	m.resultSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "shlrec",
			Subsystem: "service",
			Name:      "result_size",
			Help:      "Number of recommendations returned per request",
			Buckets:   prometheus.LinearBuckets(0, 1, 12),
		},
	)

	m.reranks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shlrec",
			Subsystem: "service",
			Name:      "rerank_total",
			Help:      "Reranker outcomes per request",
		},
		[]string{"outcome"},
	)

	m.cacheOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shlrec",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Response cache lookups",
		},
		[]string{"result"},
	)

	registry.MustRegister(
		m.requests,
		m.latency,
		m.resultSize,
		m.reranks,
		m.cacheOps,
	)
	return m
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveRequest records one finished request.
func (m *Metrics) ObserveRequest(status string, elapsed time.Duration, results int) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(status).Inc()
	m.latency.Observe(elapsed.Seconds())
	if status == StatusOK {
		m.resultSize.Observe(float64(results))
	}
}

// ObserveRerank records the reranker outcome of one request.
func (m *Metrics) ObserveRerank(outcome string) {
	if m == nil {
		return
	}
	m.reranks.WithLabelValues(outcome).Inc()
}

// ObserveCache records a response-cache lookup.
func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheOps.WithLabelValues(result).Inc()
}

// StatusOf maps a Recommend error to its status label.
func StatusOf(err error) string {
	switch {
	case err == nil:
		return StatusOK
	case core.IsInvalidQuery(err):
		return StatusInvalidQuery
	case core.IsCatalogUnavailable(err):
		return StatusCatalogUnavailable
	case core.IsIndexUnavailable(err):
		return StatusIndexUnavailable
	default:
		return StatusInternalError
	}
}
