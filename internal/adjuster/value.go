package adjuster

import "github.com/shopspring/decimal"

// Quarter-Kelly damping applied to the raw Kelly fraction before it is
// reported to the staking collaborator.
const kellyFraction = 0.25

// ExpectedValue returns p*odds - 1 for a decimal price and model
// probability. Implausible odds yield zero.
func ExpectedValue(odds, prob float64) float64 {
	if odds <= 1.0 || prob <= 0 {
		return 0
	}
	d := decimal.NewFromFloat(odds).Mul(decimal.NewFromFloat(prob)).Sub(decimal.NewFromInt(1))
	v, _ := d.Float64()
	return v
}

// KellyStake returns the quarter-Kelly bankroll fraction for a decimal
// price and model probability. Negative-edge bets stake zero.
func KellyStake(odds, prob float64) float64 {
	if odds <= 1.0 || prob <= 0 {
		return 0
	}
	b := odds - 1.0
	q := 1.0 - prob
	f := (b*prob - q) / b
	if f < 0 {
		return 0
	}
	return f * kellyFraction
}
