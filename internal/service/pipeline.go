// Package service orchestrates the batch feature pipeline and the per-fixture
// prediction flow over the lower-level stores, trackers and clients.
package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/goalform/internal/features"
	"github.com/yourusername/goalform/internal/logger"
	"github.com/yourusername/goalform/internal/metrics"
	"github.com/yourusername/goalform/internal/models"
	"github.com/yourusername/goalform/internal/repository"
	"github.com/yourusername/goalform/internal/resolver"
	"github.com/yourusername/goalform/internal/store"
)

// PipelineSummary reports what one full pipeline run produced.
type PipelineSummary struct {
	FilesRead     int           `json:"files_read"`
	MatchesLoaded int           `json:"matches_loaded"`
	RowsRejected  int           `json:"rows_rejected"`
	RowsBuilt     int           `json:"rows_built"`
	TeamsTracked  int           `json:"teams_tracked"`
	Persisted     int           `json:"persisted"`
	Duration      time.Duration `json:"duration"`
}

// PipelineService runs the batch flow: read raw history files, resolve team
// names, replay the Elo history and emit the training feature table.
type PipelineService struct {
	resolver *resolver.Resolver
	engineer *features.Engineer
	ratings  *store.RatingStore
	repo     repository.MatchRepository
	plog     *logger.PipelineLogger
	logger   *logrus.Logger
}

// NewPipelineService creates the batch pipeline. repo may be nil when no
// database is configured; persisted matches are then skipped.
func NewPipelineService(
	res *resolver.Resolver,
	engineer *features.Engineer,
	ratings *store.RatingStore,
	repo repository.MatchRepository,
	log *logrus.Logger,
) *PipelineService {
	return &PipelineService{
		resolver: res,
		engineer: engineer,
		ratings:  ratings,
		repo:     repo,
		plog:     logger.NewPipelineLogger(log),
		logger:   log,
	}
}

// LoadHistoryDir reads every CSV file under dir and returns the combined
// match records. Rejected rows are counted, not fatal.
func (s *PipelineService) LoadHistoryDir(dir string) ([]models.MatchRecord, int, int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to read history directory: %w", err)
	}

	var all []models.MatchRecord
	filesRead := 0
	rejected := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".csv") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		start := time.Now()
		f, err := os.Open(path)
		if err != nil {
			s.logger.WithError(err).WithField("file", path).Error("Failed to open history file")
			continue
		}

		matches, rejects, err := features.ReadHistoryCSV(f, s.logger)
		f.Close()
		if err != nil {
			s.logger.WithError(err).WithField("file", path).Error("Failed to parse history file")
			continue
		}

		filesRead++
		rejected += len(rejects)
		all = append(all, matches...)
		s.plog.LogIngestion(entry.Name(), len(matches), len(rejects), time.Since(start))
	}

	if len(all) == 0 {
		return nil, filesRead, rejected, models.ErrNoHistory
	}
	return all, filesRead, rejected, nil
}

// ResolveNames maps every raw team name onto its canonical form. Names with
// no confident match are kept raw so the Elo tracker seeds them at the
// neutral default rather than dropping the match.
func (s *PipelineService) ResolveNames(matches []models.MatchRecord) []models.MatchRecord {
	out := make([]models.MatchRecord, len(matches))
	copy(out, matches)
	for i := range out {
		if canonical, ok := s.resolver.Resolve(out[i].HomeTeam); ok {
			out[i].HomeTeam = canonical
		}
		if canonical, ok := s.resolver.Resolve(out[i].AwayTeam); ok {
			out[i].AwayTeam = canonical
		}
	}
	return out
}

// Run executes the full batch pipeline over the history directory and writes
// the feature table to featuresPath.
func (s *PipelineService) Run(ctx context.Context, historyDir, featuresPath string) (*PipelineSummary, error) {
	raw, filesRead, rejected, err := s.LoadHistoryDir(historyDir)
	if err != nil {
		return nil, err
	}
	return s.RunMatches(ctx, raw, filesRead, rejected, featuresPath)
}

// RunMatches resolves, replays and exports an already-loaded match set.
// Ratings are persisted through the rating store afterwards.
func (s *PipelineService) RunMatches(ctx context.Context, raw []models.MatchRecord, filesRead, rejected int, featuresPath string) (*PipelineSummary, error) {
	start := time.Now()

	if len(raw) == 0 {
		return nil, models.ErrNoHistory
	}

	matches := s.ResolveNames(raw)
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Date.Before(matches[j].Date)
	})

	// The engineer owns the rating replay: its chronological sweep applies
	// each match to the shared rating store exactly once, reading each
	// side's rating before the match is folded in.
	buildStart := time.Now()
	rows, err := s.engineer.BuildTrainingTable(matches)
	if err != nil {
		return nil, fmt.Errorf("failed to build feature table: %w", err)
	}
	s.plog.LogFeatureBuild(len(matches), len(rows), len(matches)-len(rows), time.Since(buildStart))

	if err := features.WriteCSVFile(featuresPath, rows); err != nil {
		return nil, err
	}

	if err := s.ratings.Save(); err != nil {
		return nil, fmt.Errorf("failed to persist ratings: %w", err)
	}

	persisted := 0
	if s.repo != nil {
		persisted, err = s.repo.InsertBatch(ctx, matches)
		if err != nil {
			s.logger.WithError(err).Error("Failed to persist match history")
		}
	}

	s.plog.LogRatingsUpdate(len(matches), s.ratings.Len())
	metrics.UpdateTrackedTeams(float64(s.ratings.Len()))

	return &PipelineSummary{
		FilesRead:     filesRead,
		MatchesLoaded: len(matches),
		RowsRejected:  rejected,
		RowsBuilt:     len(rows),
		TeamsTracked:  s.ratings.Len(),
		Persisted:     persisted,
		Duration:      time.Since(start),
	}, nil
}
