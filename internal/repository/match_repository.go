package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/yourusername/goalform/internal/database"
	"github.com/yourusername/goalform/internal/models"
)

const matchColumns = `match_date, league, home_team, away_team, home_goals, away_goals,
       home_shots_on_target, away_shots_on_target, home_corners, away_corners,
       odds_home, odds_draw, odds_away, odds_over, odds_under`

// PostgresMatchRepository implements MatchRepository for PostgreSQL
type PostgresMatchRepository struct {
	db *database.DB
}

// NewPostgresMatchRepository creates a new match repository
func NewPostgresMatchRepository(db *database.DB) MatchRepository {
	return &PostgresMatchRepository{db: db}
}

// Insert stores one match, ignoring duplicates of the same fixture
func (r *PostgresMatchRepository) Insert(ctx context.Context, match *models.MatchRecord) error {
	query := `
		INSERT INTO matches (` + matchColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (match_date, home_team, away_team) DO NOTHING
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		match.Date, match.League, match.HomeTeam, match.AwayTeam,
		match.HomeGoals, match.AwayGoals,
		match.HomeShotsOnTarget, match.AwayShotsOnTarget,
		match.HomeCorners, match.AwayCorners,
		match.OddsHome, match.OddsDraw, match.OddsAway, match.OddsOver, match.OddsUnder,
	)
	if err != nil {
		return fmt.Errorf("failed to insert match: %w", err)
	}

	return nil
}

// InsertBatch stores matches in one transaction and returns how many were new
func (r *PostgresMatchRepository) InsertBatch(ctx context.Context, matches []models.MatchRecord) (int, error) {
	inserted := 0
	err := r.db.WithTransaction(ctx, func(txCtx context.Context) error {
		for i := range matches {
			m := &matches[i]
			tag, err := r.db.GetPool().Exec(txCtx, `
				INSERT INTO matches (`+matchColumns+`)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
				ON CONFLICT (match_date, home_team, away_team) DO NOTHING
			`,
				m.Date, m.League, m.HomeTeam, m.AwayTeam,
				m.HomeGoals, m.AwayGoals,
				m.HomeShotsOnTarget, m.AwayShotsOnTarget,
				m.HomeCorners, m.AwayCorners,
				m.OddsHome, m.OddsDraw, m.OddsAway, m.OddsOver, m.OddsUnder,
			)
			if err != nil {
				return fmt.Errorf("failed to insert match %s vs %s: %w", m.HomeTeam, m.AwayTeam, err)
			}
			inserted += int(tag.RowsAffected())
		}
		return nil
	})
	return inserted, err
}

// GetByLeague retrieves all matches for a league in chronological order
func (r *PostgresMatchRepository) GetByLeague(ctx context.Context, league string) ([]models.MatchRecord, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE league = $1 ORDER BY match_date`
	return r.queryMatches(ctx, query, league)
}

// GetByTeam retrieves all matches involving a team in chronological order
func (r *PostgresMatchRepository) GetByTeam(ctx context.Context, team string) ([]models.MatchRecord, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE home_team = $1 OR away_team = $1 ORDER BY match_date`
	return r.queryMatches(ctx, query, team)
}

// GetByDateRange retrieves matches between two dates in chronological order
func (r *PostgresMatchRepository) GetByDateRange(ctx context.Context, start, end time.Time) ([]models.MatchRecord, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE match_date >= $1 AND match_date <= $2 ORDER BY match_date`
	return r.queryMatches(ctx, query, start, end)
}

// GetAll retrieves the full archive in chronological order
func (r *PostgresMatchRepository) GetAll(ctx context.Context) ([]models.MatchRecord, error) {
	query := `SELECT ` + matchColumns + ` FROM matches ORDER BY match_date`
	return r.queryMatches(ctx, query)
}

// Count returns the number of archived matches
func (r *PostgresMatchRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetPool().QueryRow(ctx, `SELECT COUNT(*) FROM matches`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count matches: %w", err)
	}
	return count, nil
}

func (r *PostgresMatchRepository) queryMatches(ctx context.Context, query string, args ...interface{}) ([]models.MatchRecord, error) {
	rows, err := r.db.GetPool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	var matches []models.MatchRecord
	for rows.Next() {
		var m models.MatchRecord
		err := rows.Scan(
			&m.Date, &m.League, &m.HomeTeam, &m.AwayTeam,
			&m.HomeGoals, &m.AwayGoals,
			&m.HomeShotsOnTarget, &m.AwayShotsOnTarget,
			&m.HomeCorners, &m.AwayCorners,
			&m.OddsHome, &m.OddsDraw, &m.OddsAway, &m.OddsOver, &m.OddsUnder,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed reading match rows: %w", err)
	}

	return matches, nil
}
