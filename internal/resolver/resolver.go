// Package resolver maps raw scraped team names onto the canonical names
// used across the rating and historical datasets.
package resolver

import (
	"github.com/sirupsen/logrus"

	"github.com/yourusername/goalform/internal/logger"
	"github.com/yourusername/goalform/internal/metrics"
	"github.com/yourusername/goalform/internal/similarity"
	"github.com/yourusername/goalform/internal/store"
)

// Resolver resolves raw team names via exact match, cached mapping and
// fuzzy matching against the canonical rating table, in that order. Every
// fuzzy attempt, successful or not, is persisted immediately so resolution
// decisions stay stable across process restarts.
type Resolver struct {
	ratings  *store.RatingStore
	mappings *store.MappingStore
	matcher  *similarity.Matcher
	logger   *logrus.Entry
	audit    *logger.AuditLogger
}

// New creates a resolver over the given rating table and mapping cache.
func New(ratings *store.RatingStore, mappings *store.MappingStore, matcher *similarity.Matcher, log *logrus.Logger) *Resolver {
	return &Resolver{
		ratings:  ratings,
		mappings: mappings,
		matcher:  matcher,
		logger:   log.WithField("component", "resolver"),
		audit:    logger.NewAuditLogger(log),
	}
}

// Resolve returns the canonical name for a raw scraped name. ok is false
// when no confident match exists; callers substitute neutral defaults
// rather than failing.
func (r *Resolver) Resolve(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}

	// 1. Raw name is already canonical.
	if r.ratings.Has(raw) {
		metrics.ResolverExactHitsTotal.Inc()
		return raw, true
	}

	// 2. Cached mapping, negative results included.
	if canonical, ok := r.mappings.Get(raw); ok {
		metrics.ResolverCacheHitsTotal.Inc()
		if canonical == nil {
			return "", false
		}
		if !r.ratings.Has(*canonical) {
			// The cached target has disappeared from the canonical set.
			// The cache is never rewritten automatically; surface it for
			// operator attention instead.
			r.logger.WithFields(logrus.Fields{
				"raw":       raw,
				"canonical": *canonical,
			}).Warn("Cached mapping points at unknown canonical name")
		}
		return *canonical, true
	}

	// 3. Fuzzy match against all canonical names.
	metrics.ResolverFuzzyAttemptsTotal.Inc()
	best, score, ok := r.matcher.BestMatch(raw, r.ratings.Teams())
	if !ok {
		r.mappings.Put(raw, nil)
		r.flush()
		r.audit.LogMappingChange(raw, nil, score)
		r.logger.WithFields(logrus.Fields{
			"raw":   raw,
			"score": score,
		}).Debug("No confident canonical match, cached negative result")
		return "", false
	}

	r.mappings.Put(raw, &best)
	r.flush()
	r.audit.LogMappingChange(raw, &best, score)
	r.logger.WithFields(logrus.Fields{
		"raw":       raw,
		"canonical": best,
		"score":     score,
	}).Info("Fuzzy-resolved team name")
	return best, true
}

// Invalidate drops the cached mapping for a raw name so the next Resolve
// re-runs the fuzzy match. Cached results, negative ones included, are never
// expired automatically; this is the operator path for fixing a bad mapping.
func (r *Resolver) Invalidate(raw string) {
	r.mappings.Delete(raw)
	r.flush()
	r.logger.WithField("raw", raw).Info("Invalidated cached name mapping")
}

// Rating returns the canonical rating for a raw name, falling back to the
// neutral default when the name cannot be resolved or is unrated.
func (r *Resolver) Rating(raw string, fallback float64) float64 {
	canonical, ok := r.Resolve(raw)
	if !ok {
		return fallback
	}
	rating, ok := r.ratings.Get(canonical)
	if !ok {
		return fallback
	}
	return rating
}

func (r *Resolver) flush() {
	if err := r.mappings.Save(); err != nil {
		r.logger.WithError(err).Error("Failed to flush name-mapping cache")
	}
}
