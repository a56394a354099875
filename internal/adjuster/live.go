package adjuster

import (
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/goalform/internal/metrics"
	"github.com/yourusername/goalform/internal/models"
)

// Dominance weights and live thresholds.
const (
	weightXG         = 1.5
	weightShots      = 0.5
	weightPossession = 0.05

	dominanceThreshold = 1.5
	pressureThreshold  = 2.5
	pressureMinute     = 55
	equalizerMinute    = 60
	sterileMinute      = 45

	scoreboardBoost  = 0.08
	terminalCertainty = 0.92
	decayHorizon      = 95.0

	pressureBoost     = 0.15
	pressureDrawShare = 0.7
	pressureLossShare = 0.3

	standardBoost     = 0.07
	standardBoostUnit = 2.0

	equalizerBoost = 0.08

	sterilePossession = 65.0
	sterileXG         = 0.4
	sterilePenalty    = 0.08
	sterileDrawShare  = 0.6
	sterileOppShare   = 0.4
)

// LiveStats carries the in-match statistical state at the moment of
// adjustment.
type LiveStats struct {
	XGHome         float64 `json:"xg_home"`
	XGAway         float64 `json:"xg_away"`
	ShotsHome      float64 `json:"shots_home"`
	ShotsAway      float64 `json:"shots_away"`
	PossessionHome float64 `json:"possession_home"`
	PossessionAway float64 `json:"possession_away"`
}

// Dominance is the signed weighted combination of in-match advantages;
// positive values favor the home side.
func (s LiveStats) Dominance() float64 {
	xgDiff := s.XGHome - s.XGAway
	shotDiff := s.ShotsHome - s.ShotsAway
	possDiff := (s.PossessionHome - s.PossessionAway) / 10.0
	return xgDiff*weightXG + shotDiff*weightShots + possDiff*weightPossession
}

// LiveAdjuster recomputes in-play 1X2 probabilities from pre-match model
// output, elapsed time, score and live statistics.
type LiveAdjuster struct {
	logger *logrus.Entry
}

// NewLiveAdjuster creates a live adjuster.
func NewLiveAdjuster(log *logrus.Logger) *LiveAdjuster {
	return &LiveAdjuster{logger: log.WithField("component", "live")}
}

// Adjust blends pre-match probabilities with the live game state: time
// decay toward the current result, a dominance modifier while drawn or
// chasing, and a sterile possession penalty, then a final clamp and
// renormalization. An unparseable score string fails safe, returning the
// pre-match probabilities unchanged.
func (a *LiveAdjuster) Adjust(pre models.OutcomeProbs, stats LiveStats, minute int, score string) models.OutcomeProbs {
	homeGoals, awayGoals, err := ParseScore(score)
	if err != nil {
		a.logger.WithField("score", score).Warn("Unparseable score, returning pre-match probabilities")
		return pre
	}

	probs := applyTimeDecay(pre, homeGoals, awayGoals, minute)
	probs = applyDominance(probs, stats.Dominance(), homeGoals, awayGoals, minute)
	probs = applySterilePossession(probs, stats, minute)

	metrics.LiveAdjustmentsTotal.Inc()
	return probs.Clamp().Normalize()
}

// ParseScore parses a "H-A" score string, tolerating surrounding spaces.
func ParseScore(score string) (home, away int, err error) {
	s := strings.ReplaceAll(score, " ", "")
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return 0, 0, models.ErrMalformedScore
	}
	home, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, models.ErrMalformedScore
	}
	away, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, models.ErrMalformedScore
	}
	return home, away, nil
}

// applyTimeDecay shifts probability mass toward the current result. A
// non-draw scoreboard earns its leader an immediate fixed boost; the
// leader's probability then interpolates linearly toward the terminal
// certainty as the clock runs down, with the remainder redistributed
// proportionally between the other two outcomes.
func applyTimeDecay(p models.OutcomeProbs, homeGoals, awayGoals, minute int) models.OutcomeProbs {
	leader := leaderOf(homeGoals, awayGoals)

	if leader != models.ResultDraw {
		p = addTo(p, leader, scoreboardBoost)
		p = p.Normalize()
	}

	decay := float64(minute) / decayHorizon
	if decay > 1 {
		decay = 1
	}

	current := component(p, leader)
	target := current + (terminalCertainty-current)*decay
	remaining := 1.0 - target

	sumOthers := p.Sum() - current
	if sumOthers > 0 {
		scale := remaining / sumOthers
		p = scaleOthers(p, leader, scale)
	} else {
		p = setOthers(p, leader, remaining/2)
	}
	return setComponent(p, leader, target)
}

// applyDominance boosts a statistically dominant side that has not yet
// secured the result, and raises the draw for a side trailing by one but
// pressing late.
func applyDominance(p models.OutcomeProbs, dominance float64, homeGoals, awayGoals, minute int) models.OutcomeProbs {
	drawn := homeGoals == awayGoals

	switch {
	case drawn && dominance > pressureThreshold && minute > pressureMinute:
		p.Home += pressureBoost
		p.Draw -= pressureBoost * pressureDrawShare
		p.Away -= pressureBoost * pressureLossShare
	case drawn && dominance < -pressureThreshold && minute > pressureMinute:
		p.Away += pressureBoost
		p.Draw -= pressureBoost * pressureDrawShare
		p.Home -= pressureBoost * pressureLossShare
	case drawn && dominance > dominanceThreshold:
		boost := standardBoost * (dominance / standardBoostUnit)
		p.Home += boost
		p.Draw -= boost / 2
		p.Away -= boost / 2
	case drawn && dominance < -dominanceThreshold:
		boost := standardBoost * (-dominance / standardBoostUnit)
		p.Away += boost
		p.Draw -= boost / 2
		p.Home -= boost / 2
	}

	// Equalizer potential: trailing by exactly one goal while dominant.
	if awayGoals-homeGoals == 1 && dominance > dominanceThreshold && minute > equalizerMinute {
		p.Draw += equalizerBoost
		p.Away -= equalizerBoost
	}
	if homeGoals-awayGoals == 1 && dominance < -dominanceThreshold && minute > equalizerMinute {
		p.Draw += equalizerBoost
		p.Home -= equalizerBoost
	}

	return p.Clamp()
}

// applySterilePossession penalizes a side holding the ball without
// creating chances, redistributing mostly to the draw and partly to the
// opponent's counter-attack chance. Only applies from the second half on.
func applySterilePossession(p models.OutcomeProbs, stats LiveStats, minute int) models.OutcomeProbs {
	if minute < sterileMinute {
		return p
	}

	if stats.PossessionHome > sterilePossession && stats.XGHome < sterileXG {
		p.Home -= sterilePenalty
		p.Draw += sterilePenalty * sterileDrawShare
		p.Away += sterilePenalty * sterileOppShare
	}
	if stats.PossessionAway > sterilePossession && stats.XGAway < sterileXG {
		p.Away -= sterilePenalty
		p.Draw += sterilePenalty * sterileDrawShare
		p.Home += sterilePenalty * sterileOppShare
	}
	return p
}

func leaderOf(homeGoals, awayGoals int) models.Result {
	switch {
	case homeGoals > awayGoals:
		return models.ResultHome
	case awayGoals > homeGoals:
		return models.ResultAway
	default:
		return models.ResultDraw
	}
}

func component(p models.OutcomeProbs, r models.Result) float64 {
	switch r {
	case models.ResultHome:
		return p.Home
	case models.ResultAway:
		return p.Away
	default:
		return p.Draw
	}
}

func setComponent(p models.OutcomeProbs, r models.Result, v float64) models.OutcomeProbs {
	switch r {
	case models.ResultHome:
		p.Home = v
	case models.ResultAway:
		p.Away = v
	default:
		p.Draw = v
	}
	return p
}

func addTo(p models.OutcomeProbs, r models.Result, v float64) models.OutcomeProbs {
	return setComponent(p, r, component(p, r)+v)
}

func scaleOthers(p models.OutcomeProbs, keep models.Result, scale float64) models.OutcomeProbs {
	for _, r := range []models.Result{models.ResultHome, models.ResultDraw, models.ResultAway} {
		if r != keep {
			p = setComponent(p, r, component(p, r)*scale)
		}
	}
	return p
}

func setOthers(p models.OutcomeProbs, keep models.Result, v float64) models.OutcomeProbs {
	for _, r := range []models.Result{models.ResultHome, models.ResultDraw, models.ResultAway} {
		if r != keep {
			p = setComponent(p, r, v)
		}
	}
	return p
}
