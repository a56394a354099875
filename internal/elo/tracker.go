// Package elo maintains the running team strength ratings updated after
// every processed match.
package elo

import (
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/goalform/internal/models"
	"github.com/yourusername/goalform/internal/store"
)

// Default tuning constants.
const (
	DefaultKFactor     = 20.0
	DefaultStartRating = 1500.0
)

// PrematchRatings carries the rating each side held immediately before a
// match was applied.
type PrematchRatings struct {
	Home float64
	Away float64
}

// Tracker applies margin-of-victory-weighted Elo updates over a borrowed
// rating store. Updates are order-dependent: callers must feed matches
// strictly chronologically.
type Tracker struct {
	k       float64
	start   float64
	ratings *store.RatingStore
	logger  *logrus.Entry
}

// NewTracker creates a tracker over the given rating store.
func NewTracker(ratings *store.RatingStore, kFactor, startRating float64, logger *logrus.Logger) *Tracker {
	if kFactor <= 0 {
		kFactor = DefaultKFactor
	}
	if startRating <= 0 {
		startRating = DefaultStartRating
	}
	return &Tracker{
		k:       kFactor,
		start:   startRating,
		ratings: ratings,
		logger:  logger.WithField("component", "elo"),
	}
}

// Rating returns a team's current rating, defaulting to the start rating
// for unseen teams.
func (t *Tracker) Rating(team string) float64 {
	if r, ok := t.ratings.Get(team); ok {
		return r
	}
	return t.start
}

// ExpectedScore is the logistic Elo expectation for a team rated ratingSelf
// against ratingOpp: 1 / (1 + 10^((Ropp - Rself)/400)).
func ExpectedScore(ratingSelf, ratingOpp float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, (ratingOpp-ratingSelf)/400.0))
}

// goalMultiplier is the margin-of-victory weight: 1 for a draw or one-goal
// margin, 1.5 for two goals, (11+N)/8 beyond that.
func goalMultiplier(goalDiff int) float64 {
	abs := goalDiff
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs <= 1:
		return 1.0
	case abs == 2:
		return 1.5
	default:
		return (11.0 + float64(abs)) / 8.0
	}
}

// Update applies one match result. homeResult is 1.0 for a home win, 0.5
// for a draw, 0.0 for a home loss. Both ratings are read before either is
// written so the exchange is computed symmetrically: home gains exactly
// what away loses.
func (t *Tracker) Update(home, away string, goalDiff int, homeResult float64) {
	rHome := t.Rating(home)
	rAway := t.Rating(away)

	expected := ExpectedScore(rHome, rAway)
	exchange := t.k * goalMultiplier(goalDiff) * (homeResult - expected)

	t.ratings.Set(home, rHome+exchange)
	t.ratings.Set(away, rAway-exchange)
}

// ProcessHistory walks a match history in input order, recording the
// rating each team held immediately before its match, then applying the
// update. The rating path is order-dependent, so the input must already be
// sorted chronologically; out-of-order input is rejected. Unplayed fixtures
// contribute their pre-match ratings but no update.
func (t *Tracker) ProcessHistory(matches []models.MatchRecord) ([]PrematchRatings, error) {
	if !sort.SliceIsSorted(matches, func(i, j int) bool {
		return matches[i].Date.Before(matches[j].Date)
	}) {
		return nil, models.ErrUnorderedInput
	}

	t.logger.WithField("matches", len(matches)).Info("Calculating Elo ratings")

	out := make([]PrematchRatings, len(matches))
	for i := range matches {
		m := &matches[i]
		out[i] = PrematchRatings{
			Home: t.Rating(m.HomeTeam),
			Away: t.Rating(m.AwayTeam),
		}
		if m.Played() {
			t.Update(m.HomeTeam, m.AwayTeam, m.GoalDiff(), m.HomeScore())
		}
	}
	return out, nil
}
