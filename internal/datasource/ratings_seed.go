package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/goalform/internal/config"
	"github.com/yourusername/goalform/internal/store"
)

// RatingsSeedSource fetches a bootstrap set of team ratings from a remote
// endpoint, used the first time a league is processed so early matches are
// not rated from a flat start.
type RatingsSeedSource struct {
	client *RateLimitedHTTPClient
	url    string
	apiKey string
	logger *logrus.Logger
}

type seedResponse struct {
	Ratings map[string]float64 `json:"ratings"`
}

// NewRatingsSeedSource creates a new ratings seed source
func NewRatingsSeedSource(cfg *config.RatingsSeedConfig, log *logrus.Logger) *RatingsSeedSource {
	httpCfg := DefaultHTTPClientConfig()
	if cfg.RequestsPerSecond > 0 {
		httpCfg.RateLimit = cfg.RequestsPerSecond
	}
	if cfg.RetryAttempts > 0 {
		httpCfg.MaxRetries = cfg.RetryAttempts
	}

	return &RatingsSeedSource{
		client: NewRateLimitedHTTPClient(httpCfg, log),
		url:    cfg.URL,
		apiKey: cfg.APIKey,
		logger: log,
	}
}

// Enabled reports whether a seed endpoint is configured
func (s *RatingsSeedSource) Enabled() bool {
	return s.url != ""
}

// Fetch downloads the seed ratings map
func (s *RatingsSeedSource) Fetch(ctx context.Context) (map[string]float64, error) {
	url := s.url
	if s.apiKey != "" {
		url = fmt.Sprintf("%s?api_key=%s", url, s.apiKey)
	}

	resp, err := s.client.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrSourceUnavailable, resp.StatusCode)
	}

	var seed seedResponse
	if err := json.NewDecoder(resp.Body).Decode(&seed); err != nil {
		return nil, fmt.Errorf("decoding seed ratings: %w", err)
	}

	return seed.Ratings, nil
}

// Seed fetches remote ratings and merges them into the store. Teams already
// present in the store keep their tracked rating.
func (s *RatingsSeedSource) Seed(ctx context.Context, ratings *store.RatingStore) (int, error) {
	seed, err := s.Fetch(ctx)
	if err != nil {
		return 0, err
	}

	added := ratings.Merge(seed)

	s.logger.WithFields(logrus.Fields{
		"fetched": len(seed),
		"added":   added,
	}).Info("Seeded ratings from remote source")
	return added, nil
}

// Close releases the underlying HTTP client
func (s *RatingsSeedSource) Close() error {
	return s.client.Close()
}
