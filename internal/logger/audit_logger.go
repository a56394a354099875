// Package logger provides audit logging.
package logger

import (
	"github.com/sirupsen/logrus"
)

// AuditLogger provides a dedicated audit trail for probability adjustments
// and value signals, so every nudge applied to a prediction can be traced
// back after settlement.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogNudge logs a single heuristic probability nudge.
func (al *AuditLogger) LogNudge(league, homeTeam, awayTeam, entry string) {
	al.WithFields(logrus.Fields{
		"league":    league,
		"home_team": homeTeam,
		"away_team": awayTeam,
		"nudge":     entry,
	}).Info("Heuristic nudge applied")
}

// LogValueSignal logs a flagged discrepancy between adjusted and implied probabilities.
func (al *AuditLogger) LogValueSignal(league, homeTeam, awayTeam, market string, edge float64) {
	al.WithFields(logrus.Fields{
		"league":    league,
		"home_team": homeTeam,
		"away_team": awayTeam,
		"market":    market,
		"edge":      edge,
	}).Info("Value signal flagged")
}

// LogMappingChange logs a new or updated raw-to-canonical team name mapping.
func (al *AuditLogger) LogMappingChange(rawName string, canonical *string, score int) {
	fields := logrus.Fields{
		"raw_name":    rawName,
		"match_score": score,
	}
	if canonical != nil {
		fields["canonical"] = *canonical
		al.WithFields(fields).Info("Team mapping recorded")
		return
	}
	al.WithFields(fields).Warn("Team mapping rejected and cached as unresolved")
}

// LogLiveAdjustment logs an in-play probability adjustment.
func (al *AuditLogger) LogLiveAdjustment(fixtureID string, minute int, score string, homeProb, drawProb, awayProb float64) {
	al.WithFields(logrus.Fields{
		"fixture_id": fixtureID,
		"minute":     minute,
		"score":      score,
		"home_prob":  homeProb,
		"draw_prob":  drawProb,
		"away_prob":  awayProb,
	}).Info("Live adjustment recorded")
}
