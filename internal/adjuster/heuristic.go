// Package adjuster applies rule-based and live-state corrections on top of
// raw model probabilities, always returning validly normalized vectors.
package adjuster

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/goalform/internal/logger"
	"github.com/yourusername/goalform/internal/metrics"
	"github.com/yourusername/goalform/internal/models"
	"github.com/yourusername/goalform/internal/store"
)

// Heuristic tuning constants. Nudges are additive on the raw probability
// components and renormalized afterwards; pathological stacks are clamped
// rather than blended in logit space.
const (
	rankDiffThreshold = 5
	rankBoostPerStep  = 0.02
	rankBoostSpecStep = 0.03
	rankBoostCap      = 0.10

	formDominanceWins   = 4
	formBoost           = 0.05
	formBoostVenue      = 0.06
	trendDivergence     = 0.30
	trendHeatingBoost   = 0.04
	trendCoolingPenalty = 0.03
	trendConsistent     = 0.03
	consistentShortBar  = 0.70
	consistentLongBar   = 0.60

	goalFestThreshold = 3.5
	goalFestBoost     = 0.05

	valueEdgeThreshold = 0.05
)

// NoStandingsData is the log entry returned when standings are unavailable
// for either team and the probabilities pass through unmodified.
const NoStandingsData = "No Standings Data"

// MatchContext identifies the fixture being adjusted and carries its
// bookmaker odds for value detection.
type MatchContext struct {
	League   string
	HomeTeam string
	AwayTeam string

	OddsHome  *float64
	OddsDraw  *float64
	OddsAway  *float64
	OddsOver  *float64
	OddsUnder *float64
}

// HeuristicAdjuster nudges model probabilities using league standings and
// recent-form snapshots.
type HeuristicAdjuster struct {
	standings *store.StandingsStore
	audit     *logger.AuditLogger
	logger    *logrus.Entry
}

// NewHeuristicAdjuster creates an adjuster over loaded standings snapshots.
func NewHeuristicAdjuster(standings *store.StandingsStore, audit *logger.AuditLogger, log *logrus.Logger) *HeuristicAdjuster {
	return &HeuristicAdjuster{
		standings: standings,
		audit:     audit,
		logger:    log.WithField("component", "heuristics"),
	}
}

// Adjust applies the ordered heuristic sequence to the raw 1X2 and O/U
// vectors and returns the adjusted vectors together with one rationale
// string per nudge. Missing standings data for either team short-circuits
// to the unmodified inputs with a single explanatory entry.
func (h *HeuristicAdjuster) Adjust(ctx MatchContext, probs1x2 models.OutcomeProbs, probsOU models.TotalsProbs) (models.OutcomeProbs, models.TotalsProbs, []string) {
	sHome := h.standings.Standings(models.TableOverall, ctx.League, ctx.HomeTeam)
	sAway := h.standings.Standings(models.TableOverall, ctx.League, ctx.AwayTeam)
	if sHome == nil || sAway == nil {
		h.logger.WithFields(logrus.Fields{
			"league": ctx.League,
			"home":   ctx.HomeTeam,
			"away":   ctx.AwayTeam,
		}).Debug("No standings snapshot, probabilities unchanged")
		return probs1x2, probsOU, []string{NoStandingsData}
	}

	adj := probs1x2
	var logs []string
	note := func(format string, args ...interface{}) {
		entry := fmt.Sprintf(format, args...)
		logs = append(logs, entry)
		metrics.HeuristicNudgesTotal.Inc()
		h.audit.LogNudge(ctx.League, ctx.HomeTeam, ctx.AwayTeam, entry)
	}

	// 1. Overall standings rank differential.
	adj = h.rankNudge(adj, sHome.Rank, sAway.Rank, rankBoostPerStep, "Rank", note)

	// 2. Venue-specific rank differential: home-table rank against
	// away-table rank, slightly heavier weight.
	sHomeSpec := h.standings.Standings(models.TableHome, ctx.League, ctx.HomeTeam)
	sAwaySpec := h.standings.Standings(models.TableAway, ctx.League, ctx.AwayTeam)
	if sHomeSpec != nil && sAwaySpec != nil {
		adj = h.rankNudge(adj, sHomeSpec.Rank, sAwaySpec.Rank, rankBoostSpecStep, "Spec Rank", note)
	}

	// 3. Overall recent-form dominance.
	fHome := h.standings.Form(models.TableOverall, models.FormLast5, ctx.League, ctx.HomeTeam)
	fAway := h.standings.Form(models.TableOverall, models.FormLast5, ctx.League, ctx.AwayTeam)
	if fHome != nil {
		if w, _, _ := fHome.ResultCounts(); w >= formDominanceWins {
			adj.Home += formBoost
			note("Form Boost Home (Wins=%d)", w)
		}
	}
	if fAway != nil {
		if _, _, l := fAway.ResultCounts(); l >= formDominanceWins {
			adj.Home += formBoost
			note("Form Fade Away (Losses=%d)", l)
		}
	}

	// 4. Venue-specific form dominance.
	fHomeSpec := h.standings.Form(models.TableHome, models.FormLast5, ctx.League, ctx.HomeTeam)
	fAwaySpec := h.standings.Form(models.TableAway, models.FormLast5, ctx.League, ctx.AwayTeam)
	if fHomeSpec != nil {
		if w, _, _ := fHomeSpec.ResultCounts(); w >= formDominanceWins {
			adj.Home += formBoostVenue
			note("Spec Form Home Boost (Wins=%d)", w)
		}
	}
	if fAwaySpec != nil {
		w, _, l := fAwaySpec.ResultCounts()
		switch {
		case l >= formDominanceWins:
			adj.Home += formBoostVenue
			note("Spec Form Away Fade (Losses=%d)", l)
		case w >= formDominanceWins:
			adj.Away += formBoostVenue
			note("Spec Form Away Boost (Wins=%d)", w)
		}
	}

	// 5. Short-vs-medium-term trend divergence.
	fHome10 := h.standings.Form(models.TableOverall, models.FormLast10, ctx.League, ctx.HomeTeam)
	fAway10 := h.standings.Form(models.TableOverall, models.FormLast10, ctx.League, ctx.AwayTeam)
	adj.Home = h.trendNudge(adj.Home, fHome, fHome10, "Home", note)
	adj.Away = h.trendNudge(adj.Away, fAway, fAway10, "Away", note)

	// 6. Renormalize, clamped into the safe interval.
	adj = adj.Normalize().Clamp().Normalize()

	// 7. High-scoring-teams nudge on the totals market.
	adjOU := probsOU
	if sHome.MatchesPlayed > 0 && sAway.MatchesPlayed > 0 {
		combined := sHome.GoalsPerGame() + sAway.GoalsPerGame()
		if combined > goalFestThreshold {
			adjOU.Over += goalFestBoost
			note("Goal Fest Boost (Avg GF: %.2f)", combined)
		}
	}
	adjOU = adjOU.Normalize().Clamp().Normalize()

	// 8. Value detection against bookmaker-implied probabilities. Logging
	// only, no probability mutation.
	h.logValue(ctx, adj, adjOU, &logs)

	return adj, adjOU, logs
}

// rankNudge boosts the side with the materially better league rank. The
// boost scales with the differential and is capped.
func (h *HeuristicAdjuster) rankNudge(p models.OutcomeProbs, homeRank, awayRank int, step float64, label string, note func(string, ...interface{})) models.OutcomeProbs {
	if homeRank <= 0 || awayRank <= 0 {
		return p
	}
	diff := awayRank - homeRank
	switch {
	case diff >= rankDiffThreshold:
		boost := minFloat(step*float64(diff)/float64(rankDiffThreshold), rankBoostCap)
		p.Home += boost
		note("%s Boost Home (+%.2f): H#%d vs A#%d", label, boost, homeRank, awayRank)
	case diff <= -rankDiffThreshold:
		boost := minFloat(step*float64(-diff)/float64(rankDiffThreshold), rankBoostCap)
		p.Away += boost
		note("%s Boost Away (+%.2f): H#%d vs A#%d", label, boost, homeRank, awayRank)
	}
	return p
}

// trendNudge compares a side's last-5 win rate with its last-10 win rate:
// heating up earns a boost, cooling down a penalty, sustained strength in
// both windows a smaller boost.
func (h *HeuristicAdjuster) trendNudge(prob float64, short, long *models.StandingsEntry, side string, note func(string, ...interface{})) float64 {
	if short == nil || long == nil {
		return prob
	}
	wr5 := short.WinRate()
	wr10 := long.WinRate()
	switch {
	case wr5 >= wr10+trendDivergence:
		prob += trendHeatingBoost
		note("%s Heating Up (L5:%.0f%% vs L10:%.0f%%)", side, wr5*100, wr10*100)
	case wr5 <= wr10-trendDivergence:
		prob -= trendCoolingPenalty
		note("%s Cooling Down (L5:%.0f%% vs L10:%.0f%%)", side, wr5*100, wr10*100)
	case wr5 >= consistentShortBar && wr10 >= consistentLongBar:
		prob += trendConsistent
		note("%s Consistent Form (L5:%.0f%% & L10:%.0f%%)", side, wr5*100, wr10*100)
	}
	return prob
}

// logValue appends a log entry for every market side where the adjusted
// probability exceeds the bookmaker-implied probability by more than the
// value threshold.
func (h *HeuristicAdjuster) logValue(ctx MatchContext, p models.OutcomeProbs, ou models.TotalsProbs, logs *[]string) {
	check := func(label string, prob float64, odds *float64) {
		if odds == nil {
			return
		}
		implied := models.ImpliedProbability(*odds)
		if implied <= 0 {
			return
		}
		if edge := prob - implied; edge > valueEdgeThreshold {
			entry := fmt.Sprintf("Value %s(+%.2f%%)", label, edge*100)
			*logs = append(*logs, entry)
			metrics.RecordValueSignal(label)
			h.audit.LogValueSignal(ctx.League, ctx.HomeTeam, ctx.AwayTeam, label, edge)
		}
	}

	check("1", p.Home, ctx.OddsHome)
	check("X", p.Draw, ctx.OddsDraw)
	check("2", p.Away, ctx.OddsAway)
	check("O", ou.Over, ctx.OddsOver)
	check("U", ou.Under, ctx.OddsUnder)
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
