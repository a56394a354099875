// Package ml provides the client for the external model service.
package ml

import "errors"

var (
	// ErrModelUnavailable indicates the model service is unreachable
	ErrModelUnavailable = errors.New("model service unavailable")

	// ErrInvalidResponse indicates the prediction response is malformed
	ErrInvalidResponse = errors.New("invalid response from model service")

	// ErrInvalidProbabilities indicates returned probabilities do not form a distribution
	ErrInvalidProbabilities = errors.New("model returned invalid probabilities")
)
