// Package metrics provides the centralized Prometheus metrics registry for the prediction pipeline.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	ResolverExactHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "goalform",
		Name:      "resolver_exact_hits_total",
		Help:      "Total number of raw names resolved by exact canonical match",
	})
	ResolverCacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "goalform",
		Name:      "resolver_cache_hits_total",
		Help:      "Total number of raw names resolved from the mapping cache",
	})
	ResolverFuzzyAttemptsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "goalform",
		Name:      "resolver_fuzzy_attempts_total",
		Help:      "Total number of fuzzy matching attempts against the canonical set",
	})
	FeatureRowsBuiltTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "goalform",
		Name:      "feature_rows_built_total",
		Help:      "Total number of feature rows emitted by the engineer",
	})
	HeuristicNudgesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "goalform",
		Name:      "heuristic_nudges_total",
		Help:      "Total number of heuristic probability nudges applied",
	})
	LiveAdjustmentsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "goalform",
		Name:      "live_adjustments_total",
		Help:      "Total number of in-play probability adjustments computed",
	})
	PredictionsServedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "goalform",
		Name:      "predictions_served_total",
		Help:      "Total number of predictions produced for upcoming fixtures",
	})
	ValueSignalsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "goalform",
		Name:      "value_signals_total",
		Help:      "Total number of value signals flagged, by market",
	}, []string{"market"})
)

// Gauge metrics
var (
	TrackedTeams = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "goalform",
		Name:      "tracked_teams",
		Help:      "Number of teams with a canonical rating entry",
	})
	ModelCacheEntries = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "goalform",
		Name:      "model_cache_entries",
		Help:      "Number of cached model inference responses",
	})
)

// Histogram metrics
var (
	ModelInferenceLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "goalform",
		Name:      "model_inference_latency_seconds",
		Help:      "Latency of model service inference calls in seconds",
		Buckets:   prometheus.DefBuckets,
	})
	FeatureBuildDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "goalform",
		Name:      "feature_build_duration_seconds",
		Help:      "Duration of full feature table builds in seconds",
		Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		// Register counter metrics
		registry.MustRegister(ResolverExactHitsTotal)
		registry.MustRegister(ResolverCacheHitsTotal)
		registry.MustRegister(ResolverFuzzyAttemptsTotal)
		registry.MustRegister(FeatureRowsBuiltTotal)
		registry.MustRegister(HeuristicNudgesTotal)
		registry.MustRegister(LiveAdjustmentsTotal)
		registry.MustRegister(PredictionsServedTotal)
		registry.MustRegister(ValueSignalsTotal)

		// Register gauge metrics
		registry.MustRegister(TrackedTeams)
		registry.MustRegister(ModelCacheEntries)

		// Register histogram metrics
		registry.MustRegister(ModelInferenceLatency)
		registry.MustRegister(FeatureBuildDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordValueSignal records a flagged value signal for a market.
func RecordValueSignal(market string) {
	ValueSignalsTotal.WithLabelValues(market).Inc()
}

// RecordPrediction records a served prediction.
func RecordPrediction() {
	PredictionsServedTotal.Inc()
}

// UpdateTrackedTeams updates the tracked team count gauge.
func UpdateTrackedTeams(count float64) {
	TrackedTeams.Set(count)
}

// RecordModelInference records a model inference call latency.
func RecordModelInference(durationSeconds float64) {
	ModelInferenceLatency.Observe(durationSeconds)
}
