package database

import (
	"context"
	"fmt"

	"github.com/yourusername/goalform/internal/config"
)

// schema creates the archive tables when they do not exist yet. Optional
// match columns are nullable on purpose: source files differ in coverage.
const schema = `
CREATE TABLE IF NOT EXISTS matches (
    id                   BIGSERIAL PRIMARY KEY,
    match_date           DATE        NOT NULL,
    league               TEXT        NOT NULL,
    home_team            TEXT        NOT NULL,
    away_team            TEXT        NOT NULL,
    home_goals           INT,
    away_goals           INT,
    home_shots_on_target INT,
    away_shots_on_target INT,
    home_corners         INT,
    away_corners         INT,
    odds_home            DOUBLE PRECISION,
    odds_draw            DOUBLE PRECISION,
    odds_away            DOUBLE PRECISION,
    odds_over            DOUBLE PRECISION,
    odds_under           DOUBLE PRECISION,
    UNIQUE (match_date, home_team, away_team)
);

CREATE INDEX IF NOT EXISTS idx_matches_league_date ON matches (league, match_date);
CREATE INDEX IF NOT EXISTS idx_matches_home_team ON matches (home_team);
CREATE INDEX IF NOT EXISTS idx_matches_away_team ON matches (away_team);

CREATE TABLE IF NOT EXISTS predictions (
    id             UUID PRIMARY KEY,
    fixture_id     UUID        NOT NULL,
    league         TEXT        NOT NULL,
    home_team      TEXT        NOT NULL,
    away_team      TEXT        NOT NULL,
    home_prob      DOUBLE PRECISION NOT NULL,
    draw_prob      DOUBLE PRECISION NOT NULL,
    away_prob      DOUBLE PRECISION NOT NULL,
    over_prob      DOUBLE PRECISION NOT NULL,
    under_prob     DOUBLE PRECISION NOT NULL,
    home_elo       DOUBLE PRECISION NOT NULL,
    away_elo       DOUBLE PRECISION NOT NULL,
    adjustment_log JSONB       NOT NULL DEFAULT '[]',
    match_ev       DOUBLE PRECISION NOT NULL DEFAULT 0,
    match_kelly    DOUBLE PRECISION NOT NULL DEFAULT 0,
    totals_ev      DOUBLE PRECISION NOT NULL DEFAULT 0,
    totals_kelly   DOUBLE PRECISION NOT NULL DEFAULT 0,
    predicted_at   TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_predictions_fixture ON predictions (fixture_id);
CREATE INDEX IF NOT EXISTS idx_predictions_predicted_at ON predictions (predicted_at);
`

// Initialize creates a database connection pool and ensures the archive
// schema exists.
func Initialize(ctx context.Context, cfg *config.Config) (*DB, error) {
	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	if _, err := db.pool.Exec(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	return db, nil
}
