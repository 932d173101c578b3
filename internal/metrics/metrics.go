// Package metrics defines the Prometheus instrumentation for the routing
// engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's Prometheus collectors. Create one per process
// with New and register it on a single registry.
type Metrics struct {
	// RoutingDecisions counts completed routing decisions by retrieval
	// strategy and cache outcome.
	RoutingDecisions *prometheus.CounterVec

	// RoutingDuration observes time spent classifying, retrieving, and
	// ranking (dispatch excluded).
	RoutingDuration prometheus.Histogram

	// DispatchDuration observes downstream tool call latency.
	DispatchDuration prometheus.Histogram

	// DispatchFailures counts failed downstream calls by failure kind.
	DispatchFailures *prometheus.CounterVec

	// RoutingFailures counts queries that found no usable route by reason.
	RoutingFailures *prometheus.CounterVec

	// CacheEntries gauges the live decision cache size.
	CacheEntries prometheus.GaugeFunc
}

// New creates and registers the engine collectors on the given registerer.
// cacheLen reports the live decision cache size for the gauge.
func New(reg prometheus.Registerer, cacheLen func() float64) *Metrics {
	m := &Metrics{
		RoutingDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "meridian",
			Name:      "routing_decisions_total",
			Help:      "Completed routing decisions by strategy and cache outcome.",
		}, []string{"strategy", "cached"}),

		RoutingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "meridian",
			Name:      "routing_duration_seconds",
			Help:      "Time spent classifying, retrieving, and ranking.",
			Buckets:   prometheus.DefBuckets,
		}),

		DispatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "meridian",
			Name:      "dispatch_duration_seconds",
			Help:      "Downstream tool call latency.",
			Buckets:   prometheus.DefBuckets,
		}),

		DispatchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "meridian",
			Name:      "dispatch_failures_total",
			Help:      "Failed downstream tool calls by failure kind.",
		}, []string{"kind"}),

		RoutingFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "meridian",
			Name:      "routing_failures_total",
			Help:      "Queries that produced no usable route by reason.",
		}, []string{"reason"}),
	}

	if cacheLen != nil {
		m.CacheEntries = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "meridian",
			Name:      "cache_entries",
			Help:      "Live routing decision cache entries.",
		}, cacheLen)
	}

	reg.MustRegister(
		m.RoutingDecisions,
		m.RoutingDuration,
		m.DispatchDuration,
		m.DispatchFailures,
		m.RoutingFailures,
	)
	if m.CacheEntries != nil {
		reg.MustRegister(m.CacheEntries)
	}
	return m
}
