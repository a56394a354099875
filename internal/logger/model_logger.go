// Package logger provides model-service logging.
package logger

import (
	"github.com/sirupsen/logrus"
)

// ModelLogger provides dedicated logging for model service calls.
type ModelLogger struct {
	*logrus.Entry
}

// NewModelLogger creates a new model logger.
func NewModelLogger(baseLogger *logrus.Logger) *ModelLogger {
	return &ModelLogger{
		Entry: baseLogger.WithField("component", "model"),
	}
}

// LogPredictionRequest logs a model inference request.
func (ml *ModelLogger) LogPredictionRequest(modelVersion string, featureCount int, cacheHit bool, latencyMs float64) {
	ml.WithFields(logrus.Fields{
		"model_version": modelVersion,
		"feature_count": featureCount,
		"cache_hit":     cacheHit,
		"latency_ms":    latencyMs,
	}).Info("Model prediction request completed")
}

// LogModelUnavailable logs a failed inference call where the pipeline falls
// back to implied probabilities.
func (ml *ModelLogger) LogModelUnavailable(modelVersion string, err error) {
	ml.WithFields(logrus.Fields{
		"model_version": modelVersion,
		"error":         err.Error(),
	}).Warn("Model service unavailable, using implied probabilities")
}
