// Package similarity provides the shared fuzzy string matching used by the
// entity resolver and the heuristic adjuster's team lookup.
package similarity

import (
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

// DefaultThreshold is the minimum token-set score (0-100 scale) for a fuzzy
// match to be accepted.
const DefaultThreshold = 80

// Matcher scores candidate strings against a target with a fixed acceptance
// threshold.
type Matcher struct {
	Threshold int
}

// NewMatcher returns a matcher with the given threshold; zero or negative
// values fall back to DefaultThreshold.
func NewMatcher(threshold int) *Matcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Matcher{Threshold: threshold}
}

// TokenSetScore returns the token-set similarity of two names on the 0-100
// scale. Token-set scoring is order- and duplication-insensitive, which
// suits team names ("Man City" vs "Manchester City FC").
func (m *Matcher) TokenSetScore(a, b string) int {
	return fuzzy.TokenSetRatio(normalize(a), normalize(b))
}

// Score returns the plain edit-distance ratio of two names on the 0-100
// scale, used where a stricter whole-string comparison is wanted.
func (m *Matcher) Score(a, b string) int {
	return fuzzy.Ratio(normalize(a), normalize(b))
}

// BestMatch returns the candidate with the highest token-set score and
// whether that score meets the threshold.
func (m *Matcher) BestMatch(target string, candidates []string) (string, int, bool) {
	best := ""
	bestScore := -1
	for _, c := range candidates {
		score := m.TokenSetScore(target, c)
		if score > bestScore {
			best = c
			bestScore = score
		}
	}
	if bestScore < 0 {
		return "", 0, false
	}
	return best, bestScore, bestScore >= m.Threshold
}

// BestRatioMatch is BestMatch using the plain ratio scorer. Acceptance is
// strictly above the threshold, a notch tighter than BestMatch: the
// standings lookup it serves has no cache to correct a marginal match later.
func (m *Matcher) BestRatioMatch(target string, candidates []string) (string, int, bool) {
	best := ""
	bestScore := -1
	for _, c := range candidates {
		score := m.Score(target, c)
		if score > bestScore {
			best = c
			bestScore = score
		}
	}
	if bestScore < 0 {
		return "", 0, false
	}
	return best, bestScore, bestScore > m.Threshold
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
