// Package ml provides caching for model predictions.
package ml

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	cache "github.com/patrickmn/go-cache"

	"github.com/yourusername/goalform/internal/metrics"
)

// CacheKey represents a unique key for caching predictions
type CacheKey struct {
	FixtureID    uuid.UUID
	ModelVersion string
}

// String returns string representation of cache key
func (k CacheKey) String() string {
	return fmt.Sprintf("%s:%s", k.FixtureID, k.ModelVersion)
}

// PredictionCache provides in-memory caching for model predictions
type PredictionCache struct {
	cache     *cache.Cache
	ttl       time.Duration
	mu        sync.RWMutex
	hitCount  uint64
	missCount uint64
}

// NewPredictionCache creates a new prediction cache
func NewPredictionCache(ttl time.Duration) *PredictionCache {
	return &PredictionCache{
		cache: cache.New(ttl, ttl*2),
		ttl:   ttl,
	}
}

// Get retrieves a cached prediction
func (pc *PredictionCache) Get(key CacheKey) *PredictionResult {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	if result, found := pc.cache.Get(key.String()); found {
		pc.hitCount++
		pc.updateMetrics()
		if pred, ok := result.(*PredictionResult); ok {
			return pred
		}
	}

	pc.missCount++
	pc.updateMetrics()
	return nil
}

// Set stores a prediction in cache
func (pc *PredictionCache) Set(key CacheKey, prediction *PredictionResult) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	pc.cache.Set(key.String(), prediction, pc.ttl)
	metrics.ModelCacheEntries.Set(float64(pc.cache.ItemCount()))
}

// Invalidate removes the cache entry for a fixture across model versions
func (pc *PredictionCache) Invalidate(fixtureID uuid.UUID) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	prefix := fixtureID.String() + ":"
	for k := range pc.cache.Items() {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			pc.cache.Delete(k)
		}
	}
	metrics.ModelCacheEntries.Set(float64(pc.cache.ItemCount()))
}

// Clear flushes the entire cache
func (pc *PredictionCache) Clear() {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	pc.cache.Flush()
	pc.hitCount = 0
	pc.missCount = 0
	metrics.ModelCacheEntries.Set(0)
}

// Stats returns cache statistics
func (pc *PredictionCache) Stats() (hits, misses uint64, ratio float64) {
	pc.mu.RLock()
	defer pc.mu.RUnlock()

	hits = pc.hitCount
	misses = pc.missCount
	total := hits + misses
	if total > 0 {
		ratio = float64(hits) / float64(total)
	}
	return
}

// updateMetrics updates Prometheus metrics. Callers hold the lock.
func (pc *PredictionCache) updateMetrics() {
	total := pc.hitCount + pc.missCount
	if total > 0 {
		ModelCacheHitRatio.Set(float64(pc.hitCount) / float64(total))
	}
}

// ItemCount returns the number of items in cache
func (pc *PredictionCache) ItemCount() int {
	return pc.cache.ItemCount()
}
