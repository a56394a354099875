// Package datasource provides remote sources for match history and rating seeds.
package datasource

import (
	"context"
	"errors"

	"github.com/yourusername/goalform/internal/features"
	"github.com/yourusername/goalform/internal/models"
)

var (
	// ErrSourceUnavailable indicates the remote source could not be reached
	ErrSourceUnavailable = errors.New("data source unavailable")

	// ErrLeagueNotFound indicates the source has no data for the league/season
	ErrLeagueNotFound = errors.New("league not found at data source")
)

// HistorySource fetches played match history for a league season.
type HistorySource interface {
	// FetchMatches returns parsed matches in chronological order, along with
	// any rows the parser rejected.
	FetchMatches(ctx context.Context, league, season string) ([]models.MatchRecord, []features.RejectedRow, error)

	// Name identifies the source in logs.
	Name() string

	Close() error
}
