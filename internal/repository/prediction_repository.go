package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yourusername/goalform/internal/database"
	"github.com/yourusername/goalform/internal/models"
)

const predictionColumns = `id, fixture_id, league, home_team, away_team,
       home_prob, draw_prob, away_prob, over_prob, under_prob,
       home_elo, away_elo, adjustment_log,
       match_ev, match_kelly, totals_ev, totals_kelly, predicted_at`

// PostgresPredictionRepository implements PredictionRepository for PostgreSQL
type PostgresPredictionRepository struct {
	db *database.DB
}

// NewPostgresPredictionRepository creates a new prediction repository
func NewPostgresPredictionRepository(db *database.DB) PredictionRepository {
	return &PostgresPredictionRepository{db: db}
}

// Insert stores a prediction
func (r *PostgresPredictionRepository) Insert(ctx context.Context, prediction *models.Prediction) error {
	query := `
		INSERT INTO predictions (` + predictionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	adjustments := prediction.AdjustmentLog
	if adjustments == nil {
		adjustments = []string{}
	}

	_, err := r.db.GetPool().Exec(ctx, query,
		prediction.ID, prediction.FixtureID, prediction.League, prediction.HomeTeam, prediction.AwayTeam,
		prediction.Outcome.Home, prediction.Outcome.Draw, prediction.Outcome.Away,
		prediction.Totals.Over, prediction.Totals.Under,
		prediction.HomeElo, prediction.AwayElo, adjustments,
		prediction.MatchEV, prediction.MatchKelly, prediction.TotalsEV, prediction.TotalsKelly,
		prediction.PredictedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert prediction: %w", err)
	}

	return nil
}

// GetByID retrieves a prediction by ID
func (r *PostgresPredictionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Prediction, error) {
	query := `SELECT ` + predictionColumns + ` FROM predictions WHERE id = $1`

	p, err := r.scanPrediction(r.db.GetPool().QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get prediction: %w", err)
	}
	return p, nil
}

// GetByFixtureID retrieves all predictions for a fixture, newest first
func (r *PostgresPredictionRepository) GetByFixtureID(ctx context.Context, fixtureID uuid.UUID) ([]*models.Prediction, error) {
	query := `SELECT ` + predictionColumns + ` FROM predictions WHERE fixture_id = $1 ORDER BY predicted_at DESC`
	return r.queryPredictions(ctx, query, fixtureID)
}

// GetRecent retrieves the most recent predictions
func (r *PostgresPredictionRepository) GetRecent(ctx context.Context, limit int) ([]*models.Prediction, error) {
	query := `SELECT ` + predictionColumns + ` FROM predictions ORDER BY predicted_at DESC LIMIT $1`
	return r.queryPredictions(ctx, query, limit)
}

func (r *PostgresPredictionRepository) queryPredictions(ctx context.Context, query string, args ...interface{}) ([]*models.Prediction, error) {
	rows, err := r.db.GetPool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	var predictions []*models.Prediction
	for rows.Next() {
		p, err := r.scanPrediction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		predictions = append(predictions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading prediction rows: %w", err)
	}

	return predictions, nil
}

func (r *PostgresPredictionRepository) scanPrediction(row pgx.Row) (*models.Prediction, error) {
	p := &models.Prediction{}
	err := row.Scan(
		&p.ID, &p.FixtureID, &p.League, &p.HomeTeam, &p.AwayTeam,
		&p.Outcome.Home, &p.Outcome.Draw, &p.Outcome.Away,
		&p.Totals.Over, &p.Totals.Under,
		&p.HomeElo, &p.AwayElo, &p.AdjustmentLog,
		&p.MatchEV, &p.MatchKelly, &p.TotalsEV, &p.TotalsKelly,
		&p.PredictedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}
