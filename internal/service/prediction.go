package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/goalform/internal/adjuster"
	"github.com/yourusername/goalform/internal/features"
	"github.com/yourusername/goalform/internal/logger"
	"github.com/yourusername/goalform/internal/metrics"
	"github.com/yourusername/goalform/internal/ml"
	"github.com/yourusername/goalform/internal/models"
	"github.com/yourusername/goalform/internal/repository"
	"github.com/yourusername/goalform/internal/resolver"
)

// ModelClient is the slice of the model client the prediction flow needs.
type ModelClient interface {
	Predict(ctx context.Context, fixtureID uuid.UUID, features []float64) (*ml.PredictionResult, error)
	Health(ctx context.Context) error
}

// PredictionService produces the final adjusted prediction for one upcoming
// fixture: features, model inference, heuristic nudges, value calculation.
type PredictionService struct {
	resolver   *resolver.Resolver
	engineer   *features.Engineer
	model      ModelClient
	heuristics *adjuster.HeuristicAdjuster
	repo       repository.PredictionRepository
	plog       *logger.PipelineLogger
	logger     *logrus.Logger
}

// NewPredictionService creates the per-fixture prediction flow. repo may be
// nil when no database is configured.
func NewPredictionService(
	res *resolver.Resolver,
	engineer *features.Engineer,
	model ModelClient,
	heuristics *adjuster.HeuristicAdjuster,
	repo repository.PredictionRepository,
	log *logrus.Logger,
) *PredictionService {
	return &PredictionService{
		resolver:   res,
		engineer:   engineer,
		model:      model,
		heuristics: heuristics,
		repo:       repo,
		plog:       logger.NewPipelineLogger(log),
		logger:     log,
	}
}

// Predict resolves the fixture's team names, builds the inference features
// and returns the fully adjusted prediction. When the model service is
// unavailable and the fixture carries 1X2 odds, the normalized implied
// probabilities stand in for the model output.
func (s *PredictionService) Predict(ctx context.Context, history []models.MatchRecord, fixture *models.Fixture) (*models.Prediction, error) {
	homeCanonical, ok := s.resolver.Resolve(fixture.HomeTeam)
	if !ok {
		homeCanonical = fixture.HomeTeam
	}
	awayCanonical, ok := s.resolver.Resolve(fixture.AwayTeam)
	if !ok {
		awayCanonical = fixture.AwayTeam
	}

	row := s.engineer.InferenceRow(history, fixture, homeCanonical, awayCanonical)

	outcome, totals, err := s.modelProbabilities(ctx, fixture, &row)
	if err != nil {
		return nil, err
	}

	matchCtx := adjuster.MatchContext{
		League:    fixture.League,
		HomeTeam:  homeCanonical,
		AwayTeam:  awayCanonical,
		OddsHome:  fixture.OddsHome,
		OddsDraw:  fixture.OddsDraw,
		OddsAway:  fixture.OddsAway,
		OddsOver:  fixture.OddsOver,
		OddsUnder: fixture.OddsUnder,
	}
	outcome, totals, nudges := s.heuristics.Adjust(matchCtx, outcome, totals)

	pred := &models.Prediction{
		ID:            uuid.New(),
		FixtureID:     fixture.ID,
		League:        fixture.League,
		HomeTeam:      homeCanonical,
		AwayTeam:      awayCanonical,
		Outcome:       outcome,
		Totals:        totals,
		HomeElo:       row.HomeElo,
		AwayElo:       row.AwayElo,
		AdjustmentLog: nudges,
		PredictedAt:   time.Now().UTC(),
	}
	s.fillValue(pred, fixture)

	if s.repo != nil {
		if err := s.repo.Insert(ctx, pred); err != nil {
			s.logger.WithError(err).Error("Failed to persist prediction")
		}
	}

	metrics.RecordPrediction()
	s.plog.LogPrediction(fixture.ID.String(), homeCanonical, awayCanonical,
		outcome.Home, outcome.Draw, outcome.Away, len(nudges))

	return pred, nil
}

// modelProbabilities calls the model service and converts the response to
// the 1X2 and over/under vectors. Implied odds are the fallback.
func (s *PredictionService) modelProbabilities(ctx context.Context, fixture *models.Fixture, row *models.FeatureRow) (models.OutcomeProbs, models.TotalsProbs, error) {
	result, err := s.model.Predict(ctx, fixture.ID, row.Vector())
	if err == nil {
		return result.Outcome, result.TotalsProbs(), nil
	}

	if !fixture.HasMatchOdds() {
		return models.OutcomeProbs{}, models.TotalsProbs{},
			fmt.Errorf("model unavailable and fixture has no odds to fall back on: %w", err)
	}

	s.logger.WithError(err).WithField("fixture_id", fixture.ID).
		Warn("Model service unavailable, falling back to implied odds")

	outcome := models.OutcomeProbs{
		Home: models.ImpliedProbability(*fixture.OddsHome),
		Draw: models.ImpliedProbability(*fixture.OddsDraw),
		Away: models.ImpliedProbability(*fixture.OddsAway),
	}.Normalize()

	totals := models.TotalsProbs{Over: 0.5, Under: 0.5}
	if fixture.OddsOver != nil && fixture.OddsUnder != nil {
		totals = models.TotalsProbs{
			Over:  models.ImpliedProbability(*fixture.OddsOver),
			Under: models.ImpliedProbability(*fixture.OddsUnder),
		}.Normalize()
	}

	return outcome, totals, nil
}

// fillValue computes expected value and quarter-Kelly fraction for the most
// likely pick in each market when the fixture carries a price for it.
func (s *PredictionService) fillValue(pred *models.Prediction, fixture *models.Fixture) {
	pick, prob := pred.Outcome.Max()
	var odds *float64
	switch pick {
	case models.ResultHome:
		odds = fixture.OddsHome
	case models.ResultDraw:
		odds = fixture.OddsDraw
	case models.ResultAway:
		odds = fixture.OddsAway
	}
	if odds != nil {
		pred.MatchEV = adjuster.ExpectedValue(*odds, prob)
		pred.MatchKelly = adjuster.KellyStake(*odds, prob)
	}

	totalsOdds := fixture.OddsOver
	totalsProb := pred.Totals.Over
	if pred.Totals.Under > pred.Totals.Over {
		totalsOdds = fixture.OddsUnder
		totalsProb = pred.Totals.Under
	}
	if totalsOdds != nil {
		pred.TotalsEV = adjuster.ExpectedValue(*totalsOdds, totalsProb)
		pred.TotalsKelly = adjuster.KellyStake(*totalsOdds, totalsProb)
	}
}

// WritePrediction writes the prediction as JSON under dir, one file per
// fixture named by its ID.
func (s *PredictionService) WritePrediction(dir string, pred *models.Prediction) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create prediction directory: %w", err)
	}

	path := filepath.Join(dir, pred.FixtureID.String()+".json")
	data, err := json.MarshalIndent(pred, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode prediction: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write prediction: %w", err)
	}
	return path, nil
}
