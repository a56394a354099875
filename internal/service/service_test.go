package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/goalform/internal/adjuster"
	"github.com/yourusername/goalform/internal/elo"
	"github.com/yourusername/goalform/internal/features"
	"github.com/yourusername/goalform/internal/logger"
	"github.com/yourusername/goalform/internal/ml"
	"github.com/yourusername/goalform/internal/models"
	"github.com/yourusername/goalform/internal/resolver"
	"github.com/yourusername/goalform/internal/similarity"
	"github.com/yourusername/goalform/internal/store"
)

const historyCSV = `Div,Date,HomeTeam,AwayTeam,FTHG,FTAG,FTR,B365H,B365D,B365A
E0,12/08/2023,Arsenal,Chelsea,2,1,H,1.80,3.60,4.50
E0,19/08/2023,Chelsea,Arsenal,0,0,D,2.50,3.30,2.80
E0,26/08/2023,Arsenal,Liverpool,3,1,H,2.10,3.40,3.40
E0,02/09/2023,Liverpool,Chelsea,2,2,D,1.90,3.60,4.00
E0,16/09/2023,Chelsea,Liverpool,1,3,A,2.60,3.30,2.70
E0,23/09/2023,Liverpool,Arsenal,1,0,H,2.20,3.40,3.20
`

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestPipeline(t *testing.T) (*PipelineService, *store.RatingStore) {
	t.Helper()
	log := quietLogger()
	dir := t.TempDir()

	ratings := store.NewRatingStore(filepath.Join(dir, "ratings.json"), log)
	mappings := store.NewMappingStore(filepath.Join(dir, "mappings.json"), log)
	matcher := similarity.NewMatcher(80)
	res := resolver.New(ratings, mappings, matcher, log)
	tracker := elo.NewTracker(ratings, 20, 1500, log)
	engineer := features.NewEngineer(5, 10, tracker, log)

	return NewPipelineService(res, engineer, ratings, nil, log), ratings
}

func writeHistoryDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "E0.csv"), []byte(historyCSV), 0o644))
	return dir
}

func TestPipelineRun(t *testing.T) {
	svc, ratings := newTestPipeline(t)
	historyDir := writeHistoryDir(t)
	featuresPath := filepath.Join(t.TempDir(), "features.csv")

	summary, err := svc.Run(context.Background(), historyDir, featuresPath)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.FilesRead)
	assert.Equal(t, 6, summary.MatchesLoaded)
	assert.Equal(t, 3, summary.TeamsTracked)
	assert.Greater(t, summary.RowsBuilt, 0)

	// All three teams end up rated, and the zero-sum exchange keeps the
	// total rating mass at three starting ratings.
	total := 0.0
	for _, team := range []string{"Arsenal", "Chelsea", "Liverpool"} {
		rating, ok := ratings.Get(team)
		assert.True(t, ok, team)
		total += rating
	}
	assert.InDelta(t, 3*1500.0, total, 1e-6)

	data, err := os.ReadFile(featuresPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ip_home")
	assert.Contains(t, string(data), "Arsenal")
}

// With a two-match history the full post-run rating path is small enough to
// pin by hand: a 4-0 win exchanges 20*1.875*0.5 = 18.75 points, and the
// following 0-0 hands back 20*1*(0.553757-0.5) ≈ 1.0752.
func TestPipelineRunAppliesEachMatchOnce(t *testing.T) {
	svc, ratings := newTestPipeline(t)
	historyDir := t.TempDir()
	twoMatches := "Div,Date,HomeTeam,AwayTeam,FTHG,FTAG,FTR\n" +
		"E0,12/08/2023,Arsenal,Chelsea,4,0,H\n" +
		"E0,19/08/2023,Arsenal,Chelsea,0,0,D\n"
	require.NoError(t, os.WriteFile(filepath.Join(historyDir, "E0.csv"), []byte(twoMatches), 0o644))
	featuresPath := filepath.Join(t.TempDir(), "features.csv")

	summary, err := svc.Run(context.Background(), historyDir, featuresPath)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.RowsBuilt)

	home, ok := ratings.Get("Arsenal")
	require.True(t, ok)
	away, ok := ratings.Get("Chelsea")
	require.True(t, ok)
	assert.InDelta(t, 1517.6748, home, 1e-3)
	assert.InDelta(t, 1482.3252, away, 1e-3)

	// The single built row covers the second match and carries the ratings
	// held before it, not any later state.
	f, err := os.Open(featuresPath)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	header, row := records[0], records[1]
	hElo := columnValue(t, header, row, "h_elo")
	aElo := columnValue(t, header, row, "a_elo")
	assert.InDelta(t, 1518.75, hElo, 1e-6)
	assert.InDelta(t, 1481.25, aElo, 1e-6)
}

func columnValue(t *testing.T, header, row []string, name string) float64 {
	t.Helper()
	for i, col := range header {
		if col == name {
			v, err := strconv.ParseFloat(row[i], 64)
			require.NoError(t, err)
			return v
		}
	}
	t.Fatalf("column %s not found", name)
	return 0
}

func TestPipelineRunEmptyDir(t *testing.T) {
	svc, _ := newTestPipeline(t)
	featuresPath := filepath.Join(t.TempDir(), "features.csv")

	_, err := svc.Run(context.Background(), t.TempDir(), featuresPath)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrNoHistory)
}

func TestPipelineRunMissingDir(t *testing.T) {
	svc, _ := newTestPipeline(t)

	_, err := svc.Run(context.Background(), "/nonexistent/history", "features.csv")
	require.Error(t, err)
}

func TestResolveNamesKeepsUnknownRaw(t *testing.T) {
	svc, ratings := newTestPipeline(t)
	ratings.Set("Manchester City", 1600)

	matches := []models.MatchRecord{
		{Date: time.Now(), HomeTeam: "Manchester City FC", AwayTeam: "Zzzz Unknown"},
	}
	resolved := svc.ResolveNames(matches)

	assert.Equal(t, "Manchester City", resolved[0].HomeTeam)
	assert.Equal(t, "Zzzz Unknown", resolved[0].AwayTeam)
	// Input slice is untouched.
	assert.Equal(t, "Manchester City FC", matches[0].HomeTeam)
}

type stubModel struct {
	result *ml.PredictionResult
	err    error
	calls  int
}

func (m *stubModel) Predict(_ context.Context, fixtureID uuid.UUID, _ []float64) (*ml.PredictionResult, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	r := *m.result
	r.FixtureID = fixtureID
	return &r, nil
}

func (m *stubModel) Health(context.Context) error { return m.err }

func newTestPredictionService(t *testing.T, model ModelClient) (*PredictionService, []models.MatchRecord) {
	t.Helper()
	log := quietLogger()
	dir := t.TempDir()

	ratings := store.NewRatingStore(filepath.Join(dir, "ratings.json"), log)
	mappings := store.NewMappingStore(filepath.Join(dir, "mappings.json"), log)
	matcher := similarity.NewMatcher(80)
	res := resolver.New(ratings, mappings, matcher, log)
	tracker := elo.NewTracker(ratings, 20, 1500, log)
	engineer := features.NewEngineer(5, 10, tracker, log)
	standings := store.NewStandingsStore(filepath.Join(dir, "standings"), matcher, log)
	heuristics := adjuster.NewHeuristicAdjuster(standings, logger.NewAuditLogger(log), log)

	pipeline := NewPipelineService(res, engineer, ratings, nil, log)
	historyDir := writeHistoryDir(t)
	history, _, _, err := pipeline.LoadHistoryDir(historyDir)
	require.NoError(t, err)
	_, err = tracker.ProcessHistory(history)
	require.NoError(t, err)

	return NewPredictionService(res, engineer, model, heuristics, nil, log), history
}

func testFixture() *models.Fixture {
	oddsH, oddsD, oddsA := 2.00, 3.50, 3.80
	oddsO, oddsU := 1.90, 1.90
	return &models.Fixture{
		ID:        uuid.New(),
		Kickoff:   time.Date(2023, 10, 1, 15, 0, 0, 0, time.UTC),
		HomeTeam:  "Arsenal",
		AwayTeam:  "Chelsea",
		League:    "England Premier League",
		OddsHome:  &oddsH,
		OddsDraw:  &oddsD,
		OddsAway:  &oddsA,
		OddsOver:  &oddsO,
		OddsUnder: &oddsU,
	}
}

func TestPredictUsesModelOutput(t *testing.T) {
	model := &stubModel{result: &ml.PredictionResult{
		Outcome:       models.OutcomeProbs{Home: 0.55, Draw: 0.25, Away: 0.2},
		ExpectedGoals: 2.8,
		ModelVersion:  "v3",
	}}
	svc, history := newTestPredictionService(t, model)

	fixture := testFixture()
	pred, err := svc.Predict(context.Background(), history, fixture)
	require.NoError(t, err)

	assert.Equal(t, 1, model.calls)
	assert.Equal(t, fixture.ID, pred.FixtureID)
	assert.Equal(t, "Arsenal", pred.HomeTeam)
	assert.InDelta(t, 1.0, pred.Outcome.Sum(), 1e-6)
	assert.InDelta(t, 1.0, pred.Totals.Sum(), 1e-6)
	assert.NotZero(t, pred.HomeElo)
	assert.NotZero(t, pred.AwayElo)
	assert.False(t, pred.PredictedAt.IsZero())

	// Home is the pick at 2.00 decimal with a model edge over the implied
	// 50%, so value numbers are populated.
	assert.NotZero(t, pred.MatchEV)
}

func TestPredictFallsBackToImpliedOdds(t *testing.T) {
	model := &stubModel{err: ml.ErrModelUnavailable}
	svc, history := newTestPredictionService(t, model)

	pred, err := svc.Predict(context.Background(), history, testFixture())
	require.NoError(t, err)

	assert.InDelta(t, 1.0, pred.Outcome.Sum(), 1e-6)
	// 1X2 odds 2.00/3.50/3.80 normalize to home-favored probabilities.
	assert.Greater(t, pred.Outcome.Home, pred.Outcome.Draw)
	assert.Greater(t, pred.Outcome.Home, pred.Outcome.Away)
	// Even-money totals line splits evenly.
	assert.InDelta(t, 0.5, pred.Totals.Over, 1e-6)
}

func TestPredictFailsWithoutOddsFallback(t *testing.T) {
	model := &stubModel{err: errors.New("connection refused")}
	svc, history := newTestPredictionService(t, model)

	fixture := testFixture()
	fixture.OddsHome = nil

	_, err := svc.Predict(context.Background(), history, fixture)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestWritePrediction(t *testing.T) {
	model := &stubModel{result: &ml.PredictionResult{
		Outcome:       models.OutcomeProbs{Home: 0.4, Draw: 0.3, Away: 0.3},
		ExpectedGoals: 2.2,
	}}
	svc, history := newTestPredictionService(t, model)

	pred, err := svc.Predict(context.Background(), history, testFixture())
	require.NoError(t, err)

	dir := t.TempDir()
	path, err := svc.WritePrediction(dir, pred)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, pred.FixtureID.String()+".json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded models.Prediction
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, pred.ID, decoded.ID)
	assert.InDelta(t, pred.Outcome.Home, decoded.Outcome.Home, 1e-9)
}
