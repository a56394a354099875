package ml

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/goalform/internal/models"
)

func TestPredictionCacheGetSet(t *testing.T) {
	cache := NewPredictionCache(time.Minute)
	key := CacheKey{FixtureID: uuid.New(), ModelVersion: "v3"}

	assert.Nil(t, cache.Get(key))

	pred := &PredictionResult{
		FixtureID: key.FixtureID,
		Outcome:   models.OutcomeProbs{Home: 0.5, Draw: 0.3, Away: 0.2},
	}
	cache.Set(key, pred)

	got := cache.Get(key)
	require.NotNil(t, got)
	assert.Equal(t, pred.Outcome, got.Outcome)
	assert.Equal(t, 1, cache.ItemCount())
}

func TestPredictionCacheExpiry(t *testing.T) {
	cache := NewPredictionCache(10 * time.Millisecond)
	key := CacheKey{FixtureID: uuid.New(), ModelVersion: "v3"}

	cache.Set(key, &PredictionResult{FixtureID: key.FixtureID})
	time.Sleep(30 * time.Millisecond)

	assert.Nil(t, cache.Get(key))
}

func TestPredictionCacheInvalidate(t *testing.T) {
	cache := NewPredictionCache(time.Minute)
	fixtureID := uuid.New()
	otherID := uuid.New()

	cache.Set(CacheKey{FixtureID: fixtureID, ModelVersion: "v2"}, &PredictionResult{FixtureID: fixtureID})
	cache.Set(CacheKey{FixtureID: fixtureID, ModelVersion: "v3"}, &PredictionResult{FixtureID: fixtureID})
	cache.Set(CacheKey{FixtureID: otherID, ModelVersion: "v3"}, &PredictionResult{FixtureID: otherID})

	cache.Invalidate(fixtureID)

	assert.Nil(t, cache.Get(CacheKey{FixtureID: fixtureID, ModelVersion: "v2"}))
	assert.Nil(t, cache.Get(CacheKey{FixtureID: fixtureID, ModelVersion: "v3"}))
	assert.NotNil(t, cache.Get(CacheKey{FixtureID: otherID, ModelVersion: "v3"}))
}

func TestPredictionCacheStats(t *testing.T) {
	cache := NewPredictionCache(time.Minute)
	key := CacheKey{FixtureID: uuid.New(), ModelVersion: "v3"}

	cache.Get(key)
	cache.Set(key, &PredictionResult{FixtureID: key.FixtureID})
	cache.Get(key)

	hits, misses, ratio := cache.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(1), misses)
	assert.InDelta(t, 0.5, ratio, 1e-9)
}

func TestCachedClientAvoidsRepeatCalls(t *testing.T) {
	var calls int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		json.NewEncoder(w).Encode(predictResponse{
			HomeProb:     0.5,
			DrawProb:     0.3,
			AwayProb:     0.2,
			ModelVersion: "v3",
		})
	}))
	defer server.Close()

	client := NewCachedClient(testServiceConfig(server.URL), testLogger())
	fixtureID := uuid.New()

	first, err := client.Predict(context.Background(), fixtureID, nil)
	require.NoError(t, err)

	second, err := client.Predict(context.Background(), fixtureID, nil)
	require.NoError(t, err)

	assert.Equal(t, first.Outcome, second.Outcome)
	assert.Equal(t, int64(1), atomic.LoadInt64(&calls))

	// A different fixture misses the cache
	_, err = client.Predict(context.Background(), uuid.New(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), atomic.LoadInt64(&calls))
}

func TestCachedClientClearCache(t *testing.T) {
	var calls int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		json.NewEncoder(w).Encode(predictResponse{
			HomeProb:     0.4,
			DrawProb:     0.3,
			AwayProb:     0.3,
			ModelVersion: "v3",
		})
	}))
	defer server.Close()

	client := NewCachedClient(testServiceConfig(server.URL), testLogger())
	fixtureID := uuid.New()

	_, err := client.Predict(context.Background(), fixtureID, nil)
	require.NoError(t, err)

	client.ClearCache()

	_, err = client.Predict(context.Background(), fixtureID, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), atomic.LoadInt64(&calls))
}
