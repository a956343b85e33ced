// Prometheus - Media Catalog Data Access and Caching Service
// Copyright 2026 Chapster87
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Chapster87/prometheus

// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Cache Backend Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache backend hits",
		},
		[]string{"backend", "family"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache backend misses",
		},
		[]string{"backend", "family"},
	)

	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_errors_total",
			Help: "Cache backend operation failures (treated as misses on read)",
		},
		[]string{"backend", "operation"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_evictions_total",
			Help: "Entries evicted lazily on read after TTL expiry",
		},
		[]string{"backend"},
	)

	// Incremental Cache Metrics
	IncrementalResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "incremental_cache_results_total",
			Help: "Incremental cache lookups by result (hit, stale, miss, oversize)",
		},
		[]string{"result"},
	)

	IncrementalBypass = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "incremental_cache_bypass_total",
			Help: "Public tier reads that skipped the incremental cache",
		},
		[]string{"family"},
	)

	TagRevalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "incremental_cache_tag_revalidations_total",
			Help: "Tag revalidation signals fired",
		},
		[]string{"family"},
	)

	// Upstream Metrics
	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_request_duration_seconds",
			Help:    "Duration of upstream provider calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider", "status"},
	)

	// Hydration Metrics
	HydrationDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hydration_decisions_total",
			Help: "Size gated hydration outcomes (primed, oversize, failed)",
		},
		[]string{"page", "outcome"},
	)

	HydrationProbeBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hydration_probe_bytes",
			Help:    "Serialized size of hydration probes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
		},
		[]string{"page"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, route string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordCacheLookup records a backend hit or miss for a resource family.
func RecordCacheLookup(backend, family string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(backend, family).Inc()
		return
	}
	CacheMisses.WithLabelValues(backend, family).Inc()
}

// RecordUpstream records one upstream provider call. status is the HTTP
// status code, or 0 when the request never produced a response.
func RecordUpstream(provider string, status int, duration time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	UpstreamRequestDuration.WithLabelValues(provider, label).Observe(duration.Seconds())
}

// RecordHydration records a hydration decision and, when known, the probe size.
func RecordHydration(page, outcome string, probeBytes int) {
	HydrationDecisions.WithLabelValues(page, outcome).Inc()
	if probeBytes > 0 {
		HydrationProbeBytes.WithLabelValues(page).Observe(float64(probeBytes))
	}
}
