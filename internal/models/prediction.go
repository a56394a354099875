package models

import (
	"time"

	"github.com/google/uuid"
)

// Prediction holds the final adjusted probability vectors for one fixture,
// together with the human-readable adjustment log, ready for the
// staking/reporting collaborators.
type Prediction struct {
	ID        uuid.UUID `json:"id" validate:"required"`
	FixtureID uuid.UUID `json:"fixture_id" validate:"required"`
	League    string    `json:"league"`
	HomeTeam  string    `json:"home_team"`
	AwayTeam  string    `json:"away_team"`

	Outcome OutcomeProbs `json:"outcome"`
	Totals  TotalsProbs  `json:"totals"`

	HomeElo float64 `json:"home_elo"`
	AwayElo float64 `json:"away_elo"`

	// AdjustmentLog records one rationale string per heuristic nudge applied.
	AdjustmentLog []string `json:"adjustment_log"`

	// Expected value and quarter-Kelly fraction for the most likely pick
	// in each market, reported for the external staking collaborator.
	MatchEV     float64 `json:"match_ev"`
	MatchKelly  float64 `json:"match_kelly"`
	TotalsEV    float64 `json:"totals_ev"`
	TotalsKelly float64 `json:"totals_kelly"`

	PredictedAt time.Time `json:"predicted_at"`
}
