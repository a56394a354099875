// Package ml provides a cached model client implementation.
package ml

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/goalform/internal/config"
)

// CachedClient wraps Client with prediction caching so repeated prediction
// runs over the same fixture list do not hammer the model service.
type CachedClient struct {
	client *Client
	cache  *PredictionCache
	logger *logrus.Logger
}

// NewCachedClient creates a new cached model client
func NewCachedClient(cfg *config.ModelServiceConfig, log *logrus.Logger) *CachedClient {
	return &CachedClient{
		client: NewClient(cfg, log),
		cache:  NewPredictionCache(cfg.CacheTTL()),
		logger: log,
	}
}

// Predict retrieves a prediction with caching
func (c *CachedClient) Predict(ctx context.Context, fixtureID uuid.UUID, features []float64) (*PredictionResult, error) {
	cacheKey := CacheKey{
		FixtureID:    fixtureID,
		ModelVersion: c.client.version,
	}

	if cached := c.cache.Get(cacheKey); cached != nil {
		c.logger.WithField("cache_key", cacheKey.String()).Debug("Cache hit for prediction")
		ModelPredictionsTotal.WithLabelValues("cache", "true").Inc()
		return cached, nil
	}

	c.logger.WithField("cache_key", cacheKey.String()).Debug("Cache miss, fetching from model service")
	result, err := c.client.Predict(ctx, fixtureID, features)
	if err != nil {
		return nil, err
	}

	c.cache.Set(cacheKey, result)
	ModelPredictionsTotal.WithLabelValues("http", "false").Inc()
	return result, nil
}

// Health checks whether the underlying model service is reachable
func (c *CachedClient) Health(ctx context.Context) error {
	return c.client.Health(ctx)
}

// Invalidate removes cached predictions for a fixture
func (c *CachedClient) Invalidate(fixtureID uuid.UUID) {
	c.cache.Invalidate(fixtureID)
}

// ClearCache clears all cached predictions
func (c *CachedClient) ClearCache() {
	c.cache.Clear()
}

// CacheStats returns cache statistics
func (c *CachedClient) CacheStats() (hits, misses uint64, hitRatio float64) {
	return c.cache.Stats()
}
