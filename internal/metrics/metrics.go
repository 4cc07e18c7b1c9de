// HomeView360 - Furniture Catalog Personalization
// Copyright 2026 HomeView360 Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/homeview360/homeview

// Package metrics registers the Prometheus collectors for HomeView360.
//
// Metrics are exposed at /metrics when the ops listener is enabled
// (METRICS_ENABLED=true). They cover the tracking write path, storage
// health, popularity flushes, scoring and the UI event bus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Interaction tracking
	TrackingEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "homeview_tracking_events_total",
			Help: "Total number of interaction events recorded",
		},
		[]string{"kind"}, // product_view, search, category, tags, price
	)

	TrackingSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "homeview_tracking_skipped_total",
			Help: "Interaction events ignored before reaching storage",
		},
		[]string{"reason"}, // empty_query, duplicate_query, ignored_category
	)

	// Storage
	StorageFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "homeview_storage_fallbacks_total",
			Help: "Reads or writes that fell back to defaults because storage failed or held bad data",
		},
		[]string{"key", "reason"}, // reason: corrupt, unavailable, write_failed
	)

	StorageOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "homeview_storage_operation_duration_seconds",
			Help:    "Duration of local storage operations",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
		[]string{"backend", "operation"},
	)

	// Circuit breaker around storage
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "homeview_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "homeview_circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "homeview_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Popularity
	PopularityFlushes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "homeview_popularity_flushes_total",
			Help: "Popularity snapshot flushes",
		},
		[]string{"result"}, // success, failure
	)

	PopularityTrackedProducts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "homeview_popularity_tracked_products",
			Help: "Number of products with at least one recorded view",
		},
	)

	PopularityLastFlush = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "homeview_popularity_last_flush_timestamp",
			Help: "Unix timestamp of the last successful popularity flush",
		},
	)

	// Recommendation scoring
	RecommendEvaluations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "homeview_recommend_evaluations_total",
			Help: "Items scored, by scoring mode",
		},
		[]string{"mode"}, // cold_start, personalized
	)

	RecommendListDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "homeview_recommend_list_duration_seconds",
			Help:    "Time to build a ranked item list",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
		[]string{"list"}, // top, recommended, similar, search
	)

	// Event bus
	EventBusMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "homeview_event_bus_messages_total",
			Help: "UI event messages handled by the in-process bus",
		},
		[]string{"type", "result"}, // result: published, handled, malformed, failed
	)

	// Ops listener
	OpsRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "homeview_ops_requests_total",
			Help: "Requests served by the metrics and health listener",
		},
		[]string{"method", "path", "status"},
	)

	OpsRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "homeview_ops_request_duration_seconds",
			Help:    "Latency of the metrics and health listener",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)
)

// RecordTrackingEvent counts one recorded interaction.
func RecordTrackingEvent(kind string) {
	TrackingEvents.WithLabelValues(kind).Inc()
}

// RecordTrackingSkipped counts an interaction dropped before storage.
func RecordTrackingSkipped(reason string) {
	TrackingSkipped.WithLabelValues(reason).Inc()
}

// RecordStorageFallback counts a read or write that degraded to defaults.
func RecordStorageFallback(key, reason string) {
	StorageFallbacks.WithLabelValues(key, reason).Inc()
}

// RecordStorageOperation observes the duration of one backend call.
func RecordStorageOperation(backend, operation string, duration time.Duration) {
	StorageOperationDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
}

// RecordPopularityFlush records the outcome of a popularity flush.
func RecordPopularityFlush(products int, err error) {
	if err != nil {
		PopularityFlushes.WithLabelValues("failure").Inc()
		return
	}
	PopularityFlushes.WithLabelValues("success").Inc()
	PopularityTrackedProducts.Set(float64(products))
	PopularityLastFlush.Set(float64(time.Now().Unix()))
}

// RecordRecommendEvaluation counts one scored item.
func RecordRecommendEvaluation(coldStart bool) {
	if coldStart {
		RecommendEvaluations.WithLabelValues("cold_start").Inc()
		return
	}
	RecommendEvaluations.WithLabelValues("personalized").Inc()
}

// ObserveListDuration records how long a ranked list took to build.
func ObserveListDuration(list string, start time.Time) {
	RecommendListDuration.WithLabelValues(list).Observe(time.Since(start).Seconds())
}

// RecordEventBusMessage counts one UI event by type and outcome.
func RecordEventBusMessage(eventType, result string) {
	EventBusMessages.WithLabelValues(eventType, result).Inc()
}

// RecordOpsRequest counts one ops listener request.
func RecordOpsRequest(method, path, status string, duration time.Duration) {
	OpsRequests.WithLabelValues(method, path, status).Inc()
	OpsRequestDuration.WithLabelValues(path).Observe(duration.Seconds())
}
