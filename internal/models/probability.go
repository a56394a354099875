package models

import "math"

// Probability clamp bounds. Adjusted vectors never carry a degenerate 0 or 1
// component into downstream staking math.
const (
	ProbFloor = 0.01
	ProbCeil  = 0.99
)

// OutcomeProbs is a probability vector over the 1X2 label set.
type OutcomeProbs struct {
	Home float64 `json:"home"`
	Draw float64 `json:"draw"`
	Away float64 `json:"away"`
}

// Sum returns the total mass of the vector.
func (p OutcomeProbs) Sum() float64 {
	return p.Home + p.Draw + p.Away
}

// Normalize rescales the vector to sum to 1. A vector with no positive mass
// normalizes to the uniform distribution.
func (p OutcomeProbs) Normalize() OutcomeProbs {
	total := p.Sum()
	if total <= 0 {
		return OutcomeProbs{Home: 1.0 / 3, Draw: 1.0 / 3, Away: 1.0 / 3}
	}
	return OutcomeProbs{Home: p.Home / total, Draw: p.Draw / total, Away: p.Away / total}
}

// Clamp bounds every component to [ProbFloor, ProbCeil].
func (p OutcomeProbs) Clamp() OutcomeProbs {
	return OutcomeProbs{
		Home: clamp(p.Home),
		Draw: clamp(p.Draw),
		Away: clamp(p.Away),
	}
}

// Valid reports whether the vector is normalized within tol and every
// component sits inside the safe interval.
func (p OutcomeProbs) Valid(tol float64) bool {
	if math.Abs(p.Sum()-1.0) > tol {
		return false
	}
	for _, v := range []float64{p.Home, p.Draw, p.Away} {
		if v < ProbFloor-tol || v > ProbCeil+tol {
			return false
		}
	}
	return true
}

// Max returns the most likely outcome and its probability.
func (p OutcomeProbs) Max() (Result, float64) {
	switch {
	case p.Home >= p.Draw && p.Home >= p.Away:
		return ResultHome, p.Home
	case p.Away >= p.Draw:
		return ResultAway, p.Away
	default:
		return ResultDraw, p.Draw
	}
}

// TotalsProbs is a probability vector over the Over/Under 2.5 label set.
type TotalsProbs struct {
	Under float64 `json:"under"`
	Over  float64 `json:"over"`
}

// Sum returns the total mass of the vector.
func (p TotalsProbs) Sum() float64 {
	return p.Under + p.Over
}

// Normalize rescales the vector to sum to 1.
func (p TotalsProbs) Normalize() TotalsProbs {
	total := p.Sum()
	if total <= 0 {
		return TotalsProbs{Under: 0.5, Over: 0.5}
	}
	return TotalsProbs{Under: p.Under / total, Over: p.Over / total}
}

// Clamp bounds both components to [ProbFloor, ProbCeil].
func (p TotalsProbs) Clamp() TotalsProbs {
	return TotalsProbs{Under: clamp(p.Under), Over: clamp(p.Over)}
}

// Valid reports whether the vector is normalized within tol with both
// components inside the safe interval.
func (p TotalsProbs) Valid(tol float64) bool {
	if math.Abs(p.Sum()-1.0) > tol {
		return false
	}
	return p.Under >= ProbFloor-tol && p.Under <= ProbCeil+tol &&
		p.Over >= ProbFloor-tol && p.Over <= ProbCeil+tol
}

func clamp(v float64) float64 {
	return math.Max(ProbFloor, math.Min(ProbCeil, v))
}

// ImpliedProbability converts decimal odds to the bookmaker-implied
// probability 1/odds. Odds at or below 1.0 are implausible and yield zero.
func ImpliedProbability(odds float64) float64 {
	if odds <= 1.0 {
		return 0
	}
	return 1.0 / odds
}
