// Package logger provides pipeline-specific logging.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// PipelineLogger provides dedicated logging for feature pipeline runs.
type PipelineLogger struct {
	*logrus.Entry
}

// NewPipelineLogger creates a new pipeline logger.
func NewPipelineLogger(baseLogger *logrus.Logger) *PipelineLogger {
	return &PipelineLogger{
		Entry: baseLogger.WithField("component", "pipeline"),
	}
}

// LogIngestion logs the outcome of a history file ingestion pass.
func (pl *PipelineLogger) LogIngestion(source string, accepted, rejected int, duration time.Duration) {
	pl.WithFields(logrus.Fields{
		"source":        source,
		"rows_accepted": accepted,
		"rows_rejected": rejected,
		"duration_ms":   duration.Milliseconds(),
	}).Info("History ingestion completed")
}

// LogFeatureBuild logs a completed feature table build.
func (pl *PipelineLogger) LogFeatureBuild(matches, rows, dropped int, duration time.Duration) {
	pl.WithFields(logrus.Fields{
		"matches_processed": matches,
		"rows_built":        rows,
		"rows_dropped":      dropped,
		"duration_ms":       duration.Milliseconds(),
	}).Info("Feature build completed")
}

// LogRatingsUpdate logs an Elo ratings pass over new results.
func (pl *PipelineLogger) LogRatingsUpdate(matchesApplied, teamsTracked int) {
	pl.WithFields(logrus.Fields{
		"matches_applied": matchesApplied,
		"teams_tracked":   teamsTracked,
	}).Info("Ratings updated")
}

// LogPrediction logs a produced prediction with its final probabilities.
func (pl *PipelineLogger) LogPrediction(fixtureID, homeTeam, awayTeam string, homeProb, drawProb, awayProb float64, nudges int) {
	pl.WithFields(logrus.Fields{
		"fixture_id": fixtureID,
		"home_team":  homeTeam,
		"away_team":  awayTeam,
		"home_prob":  homeProb,
		"draw_prob":  drawProb,
		"away_prob":  awayProb,
		"nudges":     nudges,
	}).Info("Prediction produced")
}
