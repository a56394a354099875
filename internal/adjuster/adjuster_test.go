package adjuster

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/goalform/internal/logger"
	"github.com/yourusername/goalform/internal/models"
	"github.com/yourusername/goalform/internal/similarity"
	"github.com/yourusername/goalform/internal/store"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func floatPtr(v float64) *float64 { return &v }

func writeSnapshot(t *testing.T, dir, filename string, entries []*models.StandingsEntry) {
	t.Helper()
	data, err := json.Marshal(entries)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, filename), data, 0o644))
}

// standingsWith builds a store whose overall table ranks the home side well
// clear of the away side, with optional extra snapshot files.
func newAdjuster(t *testing.T, files map[string][]*models.StandingsEntry) *HeuristicAdjuster {
	t.Helper()
	log := quietLogger()
	dir := t.TempDir()
	for name, entries := range files {
		writeSnapshot(t, dir, name, entries)
	}

	standings := store.NewStandingsStore(dir, similarity.NewMatcher(80), log)
	require.NoError(t, standings.Load())
	return NewHeuristicAdjuster(standings, logger.NewAuditLogger(log), log)
}

func evenProbs() models.OutcomeProbs {
	return models.OutcomeProbs{Home: 1.0 / 3, Draw: 1.0 / 3, Away: 1.0 / 3}
}

func evenTotals() models.TotalsProbs {
	return models.TotalsProbs{Over: 0.5, Under: 0.5}
}

func TestAdjustNoStandingsPassesThrough(t *testing.T) {
	adj := newAdjuster(t, nil)

	in := models.OutcomeProbs{Home: 0.5, Draw: 0.3, Away: 0.2}
	out, ou, logs := adj.Adjust(MatchContext{
		League: "ENGLAND: Premier League", HomeTeam: "Arsenal", AwayTeam: "Chelsea",
	}, in, evenTotals())

	assert.Equal(t, in, out)
	assert.Equal(t, evenTotals(), ou)
	assert.Equal(t, []string{NoStandingsData}, logs)
}

func TestAdjustRankDifferentialBoostsHome(t *testing.T) {
	adj := newAdjuster(t, map[string][]*models.StandingsEntry{
		"standings_overall.json": {
			{Country: "ENGLAND", League: "Premier League", TeamName: "Arsenal", Rank: 1, MatchesPlayed: 10, Goals: "15:8"},
			{Country: "ENGLAND", League: "Premier League", TeamName: "Luton", Rank: 18, MatchesPlayed: 10, Goals: "8:20"},
		},
	})

	out, _, logs := adj.Adjust(MatchContext{
		League: "ENGLAND: Premier League", HomeTeam: "Arsenal", AwayTeam: "Luton",
	}, evenProbs(), evenTotals())

	assert.Greater(t, out.Home, out.Away)
	assert.InDelta(t, 1.0, out.Sum(), 1e-9)
	require.Len(t, logs, 1)
	assert.Contains(t, logs[0], "Rank Boost Home")
}

func TestAdjustRankDifferentialBoostsAway(t *testing.T) {
	adj := newAdjuster(t, map[string][]*models.StandingsEntry{
		"standings_overall.json": {
			{Country: "ENGLAND", League: "Premier League", TeamName: "Sheffield United", Rank: 20, MatchesPlayed: 10, Goals: "5:25"},
			{Country: "ENGLAND", League: "Premier League", TeamName: "Manchester City", Rank: 1, MatchesPlayed: 10, Goals: "28:7"},
		},
	})

	out, _, logs := adj.Adjust(MatchContext{
		League: "ENGLAND: Premier League", HomeTeam: "Sheffield United", AwayTeam: "Manchester City",
	}, evenProbs(), evenTotals())

	assert.Greater(t, out.Away, out.Home)
	require.NotEmpty(t, logs)
	assert.Contains(t, logs[0], "Rank Boost Away")
}

func TestAdjustSmallRankGapNoNudge(t *testing.T) {
	adj := newAdjuster(t, map[string][]*models.StandingsEntry{
		"standings_overall.json": {
			{Country: "ENGLAND", League: "Premier League", TeamName: "Arsenal", Rank: 3, MatchesPlayed: 10, Goals: "15:8"},
			{Country: "ENGLAND", League: "Premier League", TeamName: "Tottenham", Rank: 5, MatchesPlayed: 10, Goals: "14:10"},
		},
	})

	out, _, logs := adj.Adjust(MatchContext{
		League: "ENGLAND: Premier League", HomeTeam: "Arsenal", AwayTeam: "Tottenham",
	}, evenProbs(), evenTotals())

	assert.InDelta(t, 1.0/3, out.Home, 1e-9)
	assert.Empty(t, logs)
}

func TestAdjustFormDominance(t *testing.T) {
	adj := newAdjuster(t, map[string][]*models.StandingsEntry{
		"standings_overall.json": {
			{Country: "ENGLAND", League: "Premier League", TeamName: "Arsenal", Rank: 2, MatchesPlayed: 10, Goals: "15:8"},
			{Country: "ENGLAND", League: "Premier League", TeamName: "Chelsea", Rank: 4, MatchesPlayed: 10, Goals: "12:10"},
		},
		"last_5_matches_overall.json": {
			{Country: "ENGLAND", League: "Premier League", TeamName: "Arsenal", LastResults: "W|W|W|W|W"},
			{Country: "ENGLAND", League: "Premier League", TeamName: "Chelsea", LastResults: "L|L|L|L|D"},
		},
	})

	out, _, logs := adj.Adjust(MatchContext{
		League: "ENGLAND: Premier League", HomeTeam: "Arsenal", AwayTeam: "Chelsea",
	}, evenProbs(), evenTotals())

	// Winning streak plus the opponent's losing streak both lean home.
	assert.Greater(t, out.Home, 1.0/3)
	foundBoost, foundFade := false, false
	for _, entry := range logs {
		if entry == "Form Boost Home (Wins=5)" {
			foundBoost = true
		}
		if entry == "Form Fade Away (Losses=4)" {
			foundFade = true
		}
	}
	assert.True(t, foundBoost, "logs: %v", logs)
	assert.True(t, foundFade, "logs: %v", logs)
}

func TestAdjustGoalFestBoostsOver(t *testing.T) {
	adj := newAdjuster(t, map[string][]*models.StandingsEntry{
		"standings_overall.json": {
			{Country: "ENGLAND", League: "Premier League", TeamName: "Arsenal", Rank: 2, MatchesPlayed: 10, Goals: "25:12"},
			{Country: "ENGLAND", League: "Premier League", TeamName: "Chelsea", Rank: 4, MatchesPlayed: 10, Goals: "22:15"},
		},
	})

	_, ou, logs := adj.Adjust(MatchContext{
		League: "ENGLAND: Premier League", HomeTeam: "Arsenal", AwayTeam: "Chelsea",
	}, evenProbs(), evenTotals())

	// 2.5 + 2.2 goals per game clears the goal-fest threshold.
	assert.Greater(t, ou.Over, ou.Under)
	assert.InDelta(t, 1.0, ou.Sum(), 1e-9)
	require.NotEmpty(t, logs)
	assert.Contains(t, logs[0], "Goal Fest Boost")
}

func TestAdjustValueDetectionLogsOnly(t *testing.T) {
	adj := newAdjuster(t, map[string][]*models.StandingsEntry{
		"standings_overall.json": {
			{Country: "ENGLAND", League: "Premier League", TeamName: "Arsenal", Rank: 1, MatchesPlayed: 10, Goals: "15:8"},
			{Country: "ENGLAND", League: "Premier League", TeamName: "Luton", Rank: 20, MatchesPlayed: 10, Goals: "8:20"},
		},
	})

	// Bookmaker prices the home side at only 40% implied.
	out, _, logs := adj.Adjust(MatchContext{
		League: "ENGLAND: Premier League", HomeTeam: "Arsenal", AwayTeam: "Luton",
		OddsHome: floatPtr(2.50), OddsDraw: floatPtr(3.40), OddsAway: floatPtr(3.00),
	}, models.OutcomeProbs{Home: 0.5, Draw: 0.3, Away: 0.2}, evenTotals())

	found := false
	for _, entry := range logs {
		if len(entry) > 6 && entry[:7] == "Value 1" {
			found = true
		}
	}
	assert.True(t, found, "logs: %v", logs)
	// Value entries never move the probabilities themselves.
	assert.InDelta(t, 1.0, out.Sum(), 1e-9)
}

func TestAdjustedProbabilitiesAlwaysValid(t *testing.T) {
	adj := newAdjuster(t, map[string][]*models.StandingsEntry{
		"standings_overall.json": {
			{Country: "ENGLAND", League: "Premier League", TeamName: "Arsenal", Rank: 1, MatchesPlayed: 10, Goals: "30:5"},
			{Country: "ENGLAND", League: "Premier League", TeamName: "Luton", Rank: 20, MatchesPlayed: 10, Goals: "20:30"},
		},
		"standings_home.json": {
			{Country: "ENGLAND", League: "Premier League", TeamName: "Arsenal", Rank: 1},
		},
		"standings_away.json": {
			{Country: "ENGLAND", League: "Premier League", TeamName: "Luton", Rank: 20},
		},
		"last_5_matches_overall.json": {
			{Country: "ENGLAND", League: "Premier League", TeamName: "Arsenal", LastResults: "WWWWW"},
			{Country: "ENGLAND", League: "Premier League", TeamName: "Luton", LastResults: "LLLLL"},
		},
		"last_5_matches_home.json": {
			{Country: "ENGLAND", League: "Premier League", TeamName: "Arsenal", LastResults: "WWWWW"},
		},
		"last_5_matches_away.json": {
			{Country: "ENGLAND", League: "Premier League", TeamName: "Luton", LastResults: "LLLLL"},
		},
		"last_10_matches_overall.json": {
			{Country: "ENGLAND", League: "Premier League", TeamName: "Arsenal", LastResults: "WWWWWWWWWW"},
			{Country: "ENGLAND", League: "Premier League", TeamName: "Luton", LastResults: "LLLLLLLLLL"},
		},
	})

	// An extreme input: every heuristic stacks in the home side's favor.
	out, ou, logs := adj.Adjust(MatchContext{
		League: "ENGLAND: Premier League", HomeTeam: "Arsenal", AwayTeam: "Luton",
	}, models.OutcomeProbs{Home: 0.90, Draw: 0.06, Away: 0.04}, models.TotalsProbs{Over: 0.9, Under: 0.1})

	assert.True(t, out.Valid(1e-6), "outcome %+v", out)
	assert.True(t, ou.Valid(1e-6), "totals %+v", ou)
	assert.GreaterOrEqual(t, out.Away, models.ProbFloor)
	assert.NotEmpty(t, logs)
}

func TestExpectedValue(t *testing.T) {
	assert.InDelta(t, 0.10, ExpectedValue(2.2, 0.5), 1e-9)
	assert.InDelta(t, -0.25, ExpectedValue(1.5, 0.5), 1e-9)
	assert.Zero(t, ExpectedValue(1.0, 0.5))
	assert.Zero(t, ExpectedValue(2.0, 0))
}

func TestKellyStake(t *testing.T) {
	// b=1.2, p=0.5: full Kelly (0.6-0.5)/1.2, quartered.
	assert.InDelta(t, (1.2*0.5-0.5)/1.2/4, KellyStake(2.2, 0.5), 1e-9)
	// Negative edge stakes nothing.
	assert.Zero(t, KellyStake(1.5, 0.5))
	assert.Zero(t, KellyStake(0.9, 0.5))
}

func TestParseScore(t *testing.T) {
	h, a, err := ParseScore("2-1")
	require.NoError(t, err)
	assert.Equal(t, 2, h)
	assert.Equal(t, 1, a)

	h, a, err = ParseScore(" 0 - 0 ")
	require.NoError(t, err)
	assert.Equal(t, 0, h)
	assert.Equal(t, 0, a)

	for _, bad := range []string{"", "N/A", "2:1", "x-1", "2-y"} {
		_, _, err := ParseScore(bad)
		assert.ErrorIs(t, err, models.ErrMalformedScore, bad)
	}
}

func TestDominance(t *testing.T) {
	stats := LiveStats{
		XGHome: 2.0, XGAway: 0.5,
		ShotsHome: 8, ShotsAway: 2,
		PossessionHome: 60, PossessionAway: 40,
	}
	// 1.5*1.5 + 6*0.5 + 2*0.05
	assert.InDelta(t, 5.35, stats.Dominance(), 1e-9)

	assert.InDelta(t, 0.0, LiveStats{PossessionHome: 50, PossessionAway: 50}.Dominance(), 1e-9)
}

func TestLiveAdjustUnparseableScoreFailsSafe(t *testing.T) {
	live := NewLiveAdjuster(quietLogger())
	pre := models.OutcomeProbs{Home: 0.45, Draw: 0.30, Away: 0.25}

	out := live.Adjust(pre, LiveStats{}, 70, "N/A")
	assert.Equal(t, pre, out)
}

func TestLiveAdjustLeaderGainsWithTime(t *testing.T) {
	live := NewLiveAdjuster(quietLogger())
	pre := models.OutcomeProbs{Home: 0.40, Draw: 0.30, Away: 0.30}

	early := live.Adjust(pre, LiveStats{}, 10, "1-0")
	late := live.Adjust(pre, LiveStats{}, 85, "1-0")

	assert.Greater(t, early.Home, pre.Home)
	assert.Greater(t, late.Home, early.Home)
	assert.InDelta(t, 1.0, late.Sum(), 1e-9)
	// Late in the game a one-goal lead approaches but never exceeds the
	// terminal certainty.
	assert.Less(t, late.Home, terminalCertainty+1e-9)
}

func TestLiveAdjustDominantSideWhileDrawn(t *testing.T) {
	live := NewLiveAdjuster(quietLogger())
	pre := models.OutcomeProbs{Home: 1.0 / 3, Draw: 1.0 / 3, Away: 1.0 / 3}

	stats := LiveStats{XGHome: 1.8, XGAway: 0.2, ShotsHome: 10, ShotsAway: 2, PossessionHome: 65, PossessionAway: 35}
	out := live.Adjust(pre, stats, 70, "0-0")

	neutral := live.Adjust(pre, LiveStats{PossessionHome: 50, PossessionAway: 50}, 70, "0-0")
	assert.Greater(t, out.Home, neutral.Home)
	assert.InDelta(t, 1.0, out.Sum(), 1e-9)
}

func TestLiveAdjustEqualizerPressure(t *testing.T) {
	live := NewLiveAdjuster(quietLogger())
	pre := models.OutcomeProbs{Home: 0.30, Draw: 0.30, Away: 0.40}

	// Away leads by one but home dominance is negative here; use away
	// trailing: home leads 1-0 while away dominates.
	stats := LiveStats{XGHome: 0.3, XGAway: 2.4, ShotsHome: 3, ShotsAway: 12, PossessionHome: 35, PossessionAway: 65}
	withPressure := live.Adjust(pre, stats, 75, "1-0")
	noPressure := live.Adjust(pre, LiveStats{PossessionHome: 50, PossessionAway: 50}, 75, "1-0")

	assert.Greater(t, withPressure.Draw, noPressure.Draw)
}

func TestLiveAdjustSterilePossession(t *testing.T) {
	live := NewLiveAdjuster(quietLogger())
	pre := models.OutcomeProbs{Home: 0.45, Draw: 0.30, Away: 0.25}

	sterile := LiveStats{PossessionHome: 72, XGHome: 0.1, PossessionAway: 28, XGAway: 0.1}
	out := live.Adjust(pre, sterile, 60, "0-0")
	baseline := live.Adjust(pre, LiveStats{PossessionHome: 50, PossessionAway: 50}, 60, "0-0")

	assert.Less(t, out.Home, baseline.Home)
	assert.Greater(t, out.Draw, baseline.Draw)

	// Before half time the sterile rule does not engage.
	first := live.Adjust(pre, sterile, 30, "0-0")
	firstBaseline := live.Adjust(pre, LiveStats{PossessionHome: 50, PossessionAway: 50}, 30, "0-0")
	assert.InDelta(t, firstBaseline.Home, first.Home, 1e-9)
}

func TestLiveAdjustOutputAlwaysNormalized(t *testing.T) {
	live := NewLiveAdjuster(quietLogger())

	cases := []struct {
		minute int
		score  string
		stats  LiveStats
	}{
		{5, "0-0", LiveStats{}},
		{95, "4-0", LiveStats{XGHome: 3.5, ShotsHome: 20, PossessionHome: 70, PossessionAway: 30}},
		{90, "0-3", LiveStats{XGAway: 2.8, ShotsAway: 15, PossessionHome: 60, PossessionAway: 40}},
		{55, "1-1", LiveStats{XGHome: 1.1, XGAway: 1.0}},
	}

	pre := models.OutcomeProbs{Home: 0.40, Draw: 0.28, Away: 0.32}
	for _, tc := range cases {
		out := live.Adjust(pre, tc.stats, tc.minute, tc.score)
		assert.True(t, out.Valid(1e-6), "minute=%d score=%s got %+v", tc.minute, tc.score, out)
	}
}
