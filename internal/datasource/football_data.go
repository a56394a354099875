package datasource

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/goalform/internal/features"
	"github.com/yourusername/goalform/internal/logger"
	"github.com/yourusername/goalform/internal/models"
)

// FootballDataSource downloads season history CSVs from a football-data style
// endpoint. URLs follow the pattern <base>/<season>/<league>.csv, e.g.
// https://www.football-data.co.uk/mmz4281/2324/E0.csv.
type FootballDataSource struct {
	client      *RateLimitedHTTPClient
	baseURL     string
	logger      *logrus.Logger
	pipelineLog *logger.PipelineLogger
}

// NewFootballDataSource creates a new football-data history source
func NewFootballDataSource(baseURL string, cfg HTTPClientConfig, log *logrus.Logger) *FootballDataSource {
	return &FootballDataSource{
		client:      NewRateLimitedHTTPClient(cfg, log),
		baseURL:     baseURL,
		logger:      log,
		pipelineLog: logger.NewPipelineLogger(log),
	}
}

// Name identifies the source in logs
func (s *FootballDataSource) Name() string {
	return "football_data"
}

// FetchMatches downloads and parses a season CSV for a league code
func (s *FootballDataSource) FetchMatches(ctx context.Context, league, season string) ([]models.MatchRecord, []features.RejectedRow, error) {
	start := time.Now()
	url := fmt.Sprintf("%s/%s/%s.csv", s.baseURL, season, league)

	resp, err := s.client.Get(ctx, url)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil, fmt.Errorf("%w: %s season %s", ErrLeagueNotFound, league, season)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("%w: status %d from %s", ErrSourceUnavailable, resp.StatusCode, url)
	}

	matches, rejected, err := features.ReadHistoryCSV(resp.Body, s.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", url, err)
	}

	s.pipelineLog.LogIngestion(url, len(matches), len(rejected), time.Since(start))
	return matches, rejected, nil
}

// Close releases the underlying HTTP client
func (s *FootballDataSource) Close() error {
	return s.client.Close()
}
