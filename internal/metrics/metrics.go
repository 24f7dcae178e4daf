// Wayfarer - Travel Map Photo and Tile Services
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

// Package metrics exposes the Prometheus instrumentation for Wayfarer.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of in-flight API requests",
		},
	)

	// Upload Pipeline Metrics
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upload_requests_total",
			Help: "Total number of image uploads by outcome",
		},
		[]string{"result"}, // "success", "degraded", or an error code
	)

	UploadBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "upload_bytes_total",
			Help: "Total bytes accepted by the upload pipeline",
		},
	)

	ImageProcessingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "image_processing_duration_seconds",
			Help:    "Duration of image resize and thumbnail operations",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"operation"}, // "resize", "thumbnail"
	)

	ImageProcessingFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_processing_failures_total",
			Help: "Total number of failed image post-processing steps",
		},
		[]string{"operation"},
	)

	// Tile Cache Metrics
	TileCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tile_cache_requests_total",
			Help: "Total number of tile requests seen by the cache worker",
		},
		[]string{"outcome"}, // "network", "network_uncached", "cache_hit", "offline", "passthrough"
	)

	TileCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tile_cache_entries",
			Help: "Number of entries in the active tile cache generation",
		},
	)

	TileCacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tile_cache_evictions_total",
			Help: "Total number of tile entries removed by cleanup",
		},
	)

	TileCacheClears = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tile_cache_clears_total",
			Help: "Total number of explicit tile cache clears",
		},
	)

	// Settings Metrics
	SettingsQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "settings_query_duration_seconds",
			Help:    "Duration of settings store queries",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	SettingsCacheHits = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "settings_cache_hits",
			Help: "Settings reads served from cache since startup",
		},
	)

	SettingsCacheMisses = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "settings_cache_misses",
			Help: "Settings reads that reached the store since startup",
		},
	)

	SettingsCacheKeys = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "settings_cache_keys",
			Help: "Number of settings keys currently cached",
		},
	)

	SettingsCacheHitRate = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "settings_cache_hit_rate_percent",
			Help: "Settings cache hit rate as a percentage",
		},
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
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordUpload records the outcome of one pass through the upload pipeline.
func RecordUpload(result string, size int64) {
	UploadsTotal.WithLabelValues(result).Inc()
	if size > 0 {
		UploadBytes.Add(float64(size))
	}
}

// RecordImageProcessing records a resize or thumbnail step.
func RecordImageProcessing(operation string, duration time.Duration, err error) {
	ImageProcessingDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		ImageProcessingFailures.WithLabelValues(operation).Inc()
	}
}

// RecordTileRequest records how the tile worker answered a request.
func RecordTileRequest(outcome string) {
	TileCacheRequests.WithLabelValues(outcome).Inc()
}

// RecordSettingsCache publishes a snapshot of the settings cache counters.
func RecordSettingsCache(hits, misses, keys int64, hitRate float64) {
	SettingsCacheHits.Set(float64(hits))
	SettingsCacheMisses.Set(float64(misses))
	SettingsCacheKeys.Set(float64(keys))
	SettingsCacheHitRate.Set(hitRate)
}

// RecordSettingsQuery records a settings store round trip.
func RecordSettingsQuery(operation string, duration time.Duration) {
	SettingsQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
