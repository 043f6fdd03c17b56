// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

// Package metrics defines the Prometheus instrumentation for Wayfinder:
// API latency, interaction store queries, recommendation serving, stage
// classification, re-ranker training and held-out validation.
package metrics

import (
	"strconv"
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
			Help: "Number of in-flight API requests",
		},
	)

	// Interaction Store Metrics
	StoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "interaction_store_query_duration_seconds",
			Help:    "Duration of interaction store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	StoreQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interaction_store_errors_total",
			Help: "Total number of interaction store failures",
		},
		[]string{"operation"},
	)

	InteractionsRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "interactions_recorded_total",
			Help: "Total number of interactions appended to the store",
		},
	)

	InteractionsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interactions_rejected_total",
			Help: "Total number of interactions rejected before storage",
		},
		[]string{"reason"}, // "validation", "consent"
	)

	// Recommendation Metrics
	RecommendationsServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendations_served_total",
			Help: "Total number of recommendation responses by scoring mode",
		},
		[]string{"mode"}, // "hybrid", "rule_based"
	)

	RecommendationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommendation_duration_seconds",
			Help:    "Time to score and rank candidates",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		},
	)

	RecommendationCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommendation_cache_hits_total",
			Help: "Total number of recommendation cache hits",
		},
	)

	RecommendationCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommendation_cache_misses_total",
			Help: "Total number of recommendation cache misses",
		},
	)

	// Stage Classification Metrics
	StageClassifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stage_classifications_total",
			Help: "Total number of stage classifications by resulting stage",
		},
		[]string{"stage"},
	)

	// Training Metrics
	TrainingRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reranker_training_runs_total",
			Help: "Total number of re-ranker training runs by outcome",
		},
		[]string{"outcome"}, // "success", "insufficient_data", "error", "busy"
	)

	TrainingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reranker_training_duration_seconds",
			Help:    "Duration of re-ranker training runs",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 300, 600},
		},
	)

	ModelMSE = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reranker_model_mse",
			Help: "Held-out mean squared error of the deployed re-ranker",
		},
	)

	ModelR2 = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reranker_model_r2",
			Help: "Held-out R² of the deployed re-ranker",
		},
	)

	ModelVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reranker_model_version",
			Help: "Version of the deployed re-ranker (0 = rule-based only)",
		},
	)

	// Validation Metrics
	ValidationRuns = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "validation_runs_total",
			Help: "Total number of held-out validation runs",
		},
	)

	ValidationScore = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "validation_score",
			Help: "Latest held-out validation metrics",
		},
		[]string{"metric"}, // "precision", "recall", "f1", "classifier_agreement"
	)

	// Graph Metrics
	GraphDirectories = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "resource_graph_directories",
			Help: "Number of directories in the published resource graph",
		},
	)

	GraphReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resource_graph_reloads_total",
			Help: "Total number of resource graph reloads by outcome",
		},
		[]string{"outcome"},
	)

	// Event Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Total number of events published to the in-process bus",
		},
		[]string{"topic"},
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

// RecordAPIRequest records an API request with its status and duration.
func RecordAPIRequest(method, endpoint string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the in-flight request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
		return
	}
	APIActiveRequests.Dec()
}

// RecordStoreQuery records an interaction store operation.
func RecordStoreQuery(operation string, duration time.Duration, err error) {
	StoreQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		StoreQueryErrors.WithLabelValues(operation).Inc()
	}
}

// RecordRecommendation records a served recommendation response.
func RecordRecommendation(mode string, duration time.Duration, cached bool) {
	RecommendationsServed.WithLabelValues(mode).Inc()
	if cached {
		RecommendationCacheHits.Inc()
		return
	}
	RecommendationCacheMisses.Inc()
	RecommendationDuration.Observe(duration.Seconds())
}

// RecordTraining records the outcome of a training run.
func RecordTraining(outcome string, duration time.Duration) {
	TrainingRuns.WithLabelValues(outcome).Inc()
	if outcome == "success" {
		TrainingDuration.Observe(duration.Seconds())
	}
}

// SetModel publishes the deployed model's quality.
func SetModel(version int, mse, r2 float64) {
	ModelVersion.Set(float64(version))
	ModelMSE.Set(mse)
	ModelR2.Set(r2)
}

// RecordValidation publishes the latest validation scores.
func RecordValidation(precision, recall, f1, agreement float64) {
	ValidationRuns.Inc()
	ValidationScore.WithLabelValues("precision").Set(precision)
	ValidationScore.WithLabelValues("recall").Set(recall)
	ValidationScore.WithLabelValues("f1").Set(f1)
	ValidationScore.WithLabelValues("classifier_agreement").Set(agreement)
}
