package models

import (
	"time"

	"github.com/google/uuid"
)

// Result is the full-time 1X2 outcome of a match.
type Result string

const (
	ResultHome Result = "H"
	ResultDraw Result = "D"
	ResultAway Result = "A"
)

// MatchRecord represents one historical or upcoming fixture after ingestion
// has normalized it to the canonical internal schema. Records are immutable
// once created; goal and statistic fields are nil for fixtures that have not
// been played yet.
type MatchRecord struct {
	Date      time.Time `json:"date" validate:"required"`
	HomeTeam  string    `json:"home_team" validate:"required"`
	AwayTeam  string    `json:"away_team" validate:"required"`
	League    string    `json:"league"`
	HomeGoals *int      `json:"home_goals"`
	AwayGoals *int      `json:"away_goals"`

	// Shots on target and corners are only present for some sources.
	HomeShotsOnTarget *int `json:"home_shots_on_target"`
	AwayShotsOnTarget *int `json:"away_shots_on_target"`
	HomeCorners       *int `json:"home_corners"`
	AwayCorners       *int `json:"away_corners"`

	// Decimal market odds, nil when the source carried none.
	OddsHome  *float64 `json:"odds_home"`
	OddsDraw  *float64 `json:"odds_draw"`
	OddsAway  *float64 `json:"odds_away"`
	OddsOver  *float64 `json:"odds_over"`
	OddsUnder *float64 `json:"odds_under"`
}

// Played reports whether the match has a full-time score.
func (m *MatchRecord) Played() bool {
	return m.HomeGoals != nil && m.AwayGoals != nil
}

// Result derives the full-time 1X2 outcome. It returns an empty result for
// fixtures that have not been played.
func (m *MatchRecord) Result() Result {
	if !m.Played() {
		return ""
	}
	switch {
	case *m.HomeGoals > *m.AwayGoals:
		return ResultHome
	case *m.HomeGoals < *m.AwayGoals:
		return ResultAway
	default:
		return ResultDraw
	}
}

// GoalDiff returns home goals minus away goals, or zero if unplayed.
func (m *MatchRecord) GoalDiff() int {
	if !m.Played() {
		return 0
	}
	return *m.HomeGoals - *m.AwayGoals
}

// TotalGoals returns the combined full-time goal count, or zero if unplayed.
func (m *MatchRecord) TotalGoals() int {
	if !m.Played() {
		return 0
	}
	return *m.HomeGoals + *m.AwayGoals
}

// Over25 reports whether the match finished with more than 2.5 goals.
func (m *MatchRecord) Over25() bool {
	return m.Played() && m.TotalGoals() > 2
}

// HomeScore returns the home result on the {1.0 win, 0.5 draw, 0.0 loss}
// scale used by the Elo update.
func (m *MatchRecord) HomeScore() float64 {
	switch m.Result() {
	case ResultHome:
		return 1.0
	case ResultDraw:
		return 0.5
	default:
		return 0.0
	}
}

// Involves reports whether the given team played in this match.
func (m *MatchRecord) Involves(team string) bool {
	return m.HomeTeam == team || m.AwayTeam == team
}

// Fixture represents an upcoming match as produced by the scraping
// collaborator: team names are raw and unresolved, odds are optional.
type Fixture struct {
	ID       uuid.UUID `json:"id" validate:"required"`
	Kickoff  time.Time `json:"kickoff" validate:"required"`
	HomeTeam string    `json:"home_team" validate:"required"`
	AwayTeam string    `json:"away_team" validate:"required"`
	League   string    `json:"league"`

	OddsHome  *float64 `json:"odds_home"`
	OddsDraw  *float64 `json:"odds_draw"`
	OddsAway  *float64 `json:"odds_away"`
	OddsOver  *float64 `json:"odds_over"`
	OddsUnder *float64 `json:"odds_under"`
}

// HasMatchOdds reports whether all three 1X2 odds are present.
func (f *Fixture) HasMatchOdds() bool {
	return f.OddsHome != nil && f.OddsDraw != nil && f.OddsAway != nil
}
