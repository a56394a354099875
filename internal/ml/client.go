// Package ml provides the HTTP client for the external model service.
package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	retryablehttp "github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/goalform/internal/config"
	"github.com/yourusername/goalform/internal/logger"
	"github.com/yourusername/goalform/internal/models"
)

const probabilityTolerance = 1e-6

// PredictionResult is a model service response mapped to internal types.
type PredictionResult struct {
	FixtureID     uuid.UUID
	Outcome       models.OutcomeProbs
	ExpectedGoals float64
	ModelVersion  string
	PredictedAt   time.Time
}

// TotalsProbs derives over/under 2.5 probabilities from the expected total
// goals, modelling the total as Poisson distributed.
func (r *PredictionResult) TotalsProbs() models.TotalsProbs {
	over := OverProbability(r.ExpectedGoals)
	return models.TotalsProbs{Over: over, Under: 1 - over}
}

// Client is an HTTP client for the model service prediction API.
type Client struct {
	http     *retryablehttp.Client
	baseURL  string
	apiKey   string
	version  string
	logger   *logrus.Logger
	modelLog *logger.ModelLogger
}

// NewClient creates a new model service client.
func NewClient(cfg *config.ModelServiceConfig, log *logrus.Logger) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.RetryAttempts
	rc.HTTPClient.Timeout = time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	rc.Logger = nil

	return &Client{
		http:     rc,
		baseURL:  cfg.URL,
		apiKey:   cfg.APIKey,
		version:  cfg.ModelVersion,
		logger:   log,
		modelLog: logger.NewModelLogger(log),
	}
}

type predictRequest struct {
	FixtureID    string    `json:"fixture_id"`
	ModelVersion string    `json:"model_version"`
	FeatureNames []string  `json:"feature_names"`
	Features     []float64 `json:"features"`
}

type predictResponse struct {
	HomeProb      float64 `json:"home_prob"`
	DrawProb      float64 `json:"draw_prob"`
	AwayProb      float64 `json:"away_prob"`
	ExpectedGoals float64 `json:"expected_goals"`
	ModelVersion  string  `json:"model_version"`
}

// Predict requests outcome probabilities for a feature vector.
func (c *Client) Predict(ctx context.Context, fixtureID uuid.UUID, features []float64) (*PredictionResult, error) {
	start := time.Now()
	defer func() {
		ModelPredictionLatency.Observe(time.Since(start).Seconds())
	}()

	reqBody := predictRequest{
		FixtureID:    fixtureID.String(),
		ModelVersion: c.version,
		FeatureNames: models.FeatureNames,
		Features:     features,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/predict", bytes.NewReader(jsonData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		ModelHTTPErrorsTotal.WithLabelValues("predict", "network").Inc()
		c.modelLog.LogModelUnavailable(c.version, err)
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		ModelHTTPErrorsTotal.WithLabelValues("predict", "http_error").Inc()
		return nil, fmt.Errorf("%w: status %d: %s", ErrInvalidResponse, resp.StatusCode, string(body))
	}

	var predResp predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&predResp); err != nil {
		ModelHTTPErrorsTotal.WithLabelValues("predict", "decode").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	outcome := models.OutcomeProbs{
		Home: predResp.HomeProb,
		Draw: predResp.DrawProb,
		Away: predResp.AwayProb,
	}
	if !outcome.Valid(probabilityTolerance) {
		ModelHTTPErrorsTotal.WithLabelValues("predict", "bad_probabilities").Inc()
		return nil, fmt.Errorf("%w: %.4f/%.4f/%.4f", ErrInvalidProbabilities, outcome.Home, outcome.Draw, outcome.Away)
	}

	result := &PredictionResult{
		FixtureID:     fixtureID,
		Outcome:       outcome,
		ExpectedGoals: predResp.ExpectedGoals,
		ModelVersion:  predResp.ModelVersion,
		PredictedAt:   time.Now(),
	}

	c.modelLog.LogPredictionRequest(result.ModelVersion, len(features), false, float64(time.Since(start).Milliseconds()))
	return result, nil
}

// Health checks whether the model service is reachable.
func (c *Client) Health(ctx context.Context) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: health returned status %d", ErrModelUnavailable, resp.StatusCode)
	}
	return nil
}
