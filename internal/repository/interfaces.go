// Package repository provides PostgreSQL data access for the match archive.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/goalform/internal/models"
)

// MatchRepository defines the interface for match history data access
type MatchRepository interface {
	Insert(ctx context.Context, match *models.MatchRecord) error
	InsertBatch(ctx context.Context, matches []models.MatchRecord) (int, error)
	GetByLeague(ctx context.Context, league string) ([]models.MatchRecord, error)
	GetByTeam(ctx context.Context, team string) ([]models.MatchRecord, error)
	GetByDateRange(ctx context.Context, start, end time.Time) ([]models.MatchRecord, error)
	GetAll(ctx context.Context) ([]models.MatchRecord, error)
	Count(ctx context.Context) (int, error)
}

// PredictionRepository defines the interface for prediction data access
type PredictionRepository interface {
	Insert(ctx context.Context, prediction *models.Prediction) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Prediction, error)
	GetByFixtureID(ctx context.Context, fixtureID uuid.UUID) ([]*models.Prediction, error)
	GetRecent(ctx context.Context, limit int) ([]*models.Prediction, error)
}
