package logger

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() (*logrus.Logger, *bytes.Buffer) {
	log := logrus.New()
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.DebugLevel)
	return log, buf
}

func parseLogOutput(buf *bytes.Buffer) map[string]interface{} {
	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	if err != nil {
		return nil
	}
	return logEntry
}

func TestNewLoggerLevels(t *testing.T) {
	log := NewLogger("debug")
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())

	log = NewLogger("nonsense")
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
}

func TestAuditLoggerNudge(t *testing.T) {
	log, buf := setupTestLogger()
	auditLogger := NewAuditLogger(log)

	auditLogger.LogNudge(
		"ENGLAND: Premier League",
		"Arsenal",
		"Chelsea",
		"rank gap 8 favours Arsenal (+0.02)",
	)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "audit", logEntry["component"])
	assert.Equal(t, "Arsenal", logEntry["home_team"])
	assert.Equal(t, "rank gap 8 favours Arsenal (+0.02)", logEntry["nudge"])
}

func TestAuditLoggerValueSignal(t *testing.T) {
	log, buf := setupTestLogger()
	auditLogger := NewAuditLogger(log)

	auditLogger.LogValueSignal("ENGLAND: Premier League", "Arsenal", "Chelsea", "match", 0.07)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "match", logEntry["market"])
	assert.Equal(t, 0.07, logEntry["edge"])
}

func TestAuditLoggerMappingChange(t *testing.T) {
	log, buf := setupTestLogger()
	auditLogger := NewAuditLogger(log)

	canonical := "Manchester City"
	auditLogger.LogMappingChange("Man City", &canonical, 95)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "Man City", logEntry["raw_name"])
	assert.Equal(t, "Manchester City", logEntry["canonical"])
}

func TestAuditLoggerMappingRejected(t *testing.T) {
	log, buf := setupTestLogger()
	auditLogger := NewAuditLogger(log)

	auditLogger.LogMappingChange("Unknown FC", nil, 42)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "warning", logEntry["level"])
	assert.NotContains(t, logEntry, "canonical")
}

func TestPipelineLoggerFeatureBuild(t *testing.T) {
	log, buf := setupTestLogger()
	pipelineLogger := NewPipelineLogger(log)

	pipelineLogger.LogFeatureBuild(380, 360, 20, 1500*time.Millisecond)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "pipeline", logEntry["component"])
	assert.Equal(t, float64(360), logEntry["rows_built"])
	assert.Equal(t, float64(20), logEntry["rows_dropped"])
}

func TestPipelineLoggerIngestion(t *testing.T) {
	log, buf := setupTestLogger()
	pipelineLogger := NewPipelineLogger(log)

	pipelineLogger.LogIngestion("E0.csv", 378, 2, 90*time.Millisecond)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "E0.csv", logEntry["source"])
	assert.Equal(t, float64(2), logEntry["rows_rejected"])
}

func TestModelLoggerPredictionRequest(t *testing.T) {
	log, buf := setupTestLogger()
	modelLogger := NewModelLogger(log)

	modelLogger.LogPredictionRequest("v3", 24, true, 45)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "v3", logEntry["model_version"])
	assert.Equal(t, true, logEntry["cache_hit"])
}

func TestLoggerJSONFormat(t *testing.T) {
	log, buf := setupTestLogger()
	auditLogger := NewAuditLogger(log)

	auditLogger.LogValueSignal("ENGLAND: Premier League", "Arsenal", "Chelsea", "totals", 0.06)

	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	assert.NoError(t, err)
	assert.NotEmpty(t, logEntry)
}

func BenchmarkAuditLoggerNudge(b *testing.B) {
	log := logrus.New()
	log.SetOutput(&bytes.Buffer{})
	auditLogger := NewAuditLogger(log)

	for i := 0; i < b.N; i++ {
		auditLogger.LogNudge("ENGLAND: Premier League", "Arsenal", "Chelsea", "strong form for Arsenal (+0.05)")
	}
}
