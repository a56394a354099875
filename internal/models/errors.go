package models

import "errors"

// Custom errors
var (
	ErrNoHistory       = errors.New("historical dataset is empty")
	ErrUnorderedInput  = errors.New("match history is not in chronological order")
	ErrMalformedOdds   = errors.New("malformed market odds")
	ErrMalformedScore  = errors.New("malformed score string")
	ErrUnknownTeam     = errors.New("team name could not be resolved")
	ErrMissingColumns  = errors.New("required columns missing from source row")
	ErrNotFound        = errors.New("record not found")
)
