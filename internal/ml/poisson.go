package ml

import "math"

// OverProbability converts an expected total goals value into the probability
// of more than 2.5 goals, assuming the total is Poisson distributed:
// P(X > 2) = 1 - e^-lambda * (1 + lambda + lambda^2/2).
func OverProbability(lambda float64) float64 {
	if lambda <= 0 {
		return 0
	}
	return 1 - math.Exp(-lambda)*(1+lambda+lambda*lambda/2)
}
