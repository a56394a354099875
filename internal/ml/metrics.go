// Package ml provides Prometheus metrics for model service operations.
package ml

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ModelPredictionsTotal tracks total model predictions
	ModelPredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "model_predictions_total",
			Help: "Total number of model predictions made",
		},
		[]string{"source", "cache_hit"},
	)

	// ModelPredictionLatency tracks model prediction latency
	ModelPredictionLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "model_prediction_latency_seconds",
			Help:    "Model prediction latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// ModelHTTPErrorsTotal tracks model service HTTP errors
	ModelHTTPErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "model_http_errors_total",
			Help: "Total number of model service HTTP errors",
		},
		[]string{"endpoint", "error_type"},
	)

	// ModelCacheHitRatio tracks cache hit ratio
	ModelCacheHitRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "model_cache_hit_ratio",
			Help: "Model prediction cache hit ratio",
		},
	)
)
