// Package store provides the persisted state crossing pipeline runs: the
// canonical rating table, the name-mapping cache and the standings
// snapshots. Files are flat JSON; a corrupt or missing file reinitializes
// to empty state rather than aborting the pipeline.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
)

// RatingStore maps canonical team names to their running strength rating.
// It is loaded at the start of a batch and flushed at defined checkpoints;
// concurrent writers are out of scope, but reads are safe alongside the
// single writer.
type RatingStore struct {
	mu      sync.RWMutex
	path    string
	ratings map[string]float64
	logger  *logrus.Logger
}

// NewRatingStore creates an empty rating store persisted at path.
func NewRatingStore(path string, logger *logrus.Logger) *RatingStore {
	return &RatingStore{
		path:    path,
		ratings: make(map[string]float64),
		logger:  logger,
	}
}

// Load reads the persisted rating table. A missing or unreadable file is
// treated as "start fresh".
func (s *RatingStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.WithField("path", s.path).Info("Rating table not found, starting fresh")
			return nil
		}
		s.logger.WithError(err).Warn("Rating table unreadable, starting fresh")
		return nil
	}

	ratings := make(map[string]float64)
	if err := json.Unmarshal(data, &ratings); err != nil {
		s.logger.WithError(err).Warn("Rating table corrupt, starting fresh")
		s.ratings = make(map[string]float64)
		return nil
	}

	s.ratings = ratings
	s.logger.WithField("teams", len(ratings)).Info("Rating table loaded")
	return nil
}

// Save flushes the rating table to durable storage.
func (s *RatingStore) Save() error {
	s.mu.RLock()
	data, err := json.MarshalIndent(s.ratings, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal rating table: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write rating table: %w", err)
	}
	return nil
}

// Get returns the rating for a canonical team name and whether it is known.
func (s *RatingStore) Get(team string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.ratings[team]
	return r, ok
}

// Set stores the rating for a canonical team name.
func (s *RatingStore) Set(team string, rating float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ratings[team] = rating
}

// Has reports whether the canonical name exists in the table.
func (s *RatingStore) Has(team string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ratings[team]
	return ok
}

// Teams returns the canonical names in sorted order.
func (s *RatingStore) Teams() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	teams := make([]string, 0, len(s.ratings))
	for t := range s.ratings {
		teams = append(teams, t)
	}
	sort.Strings(teams)
	return teams
}

// Len returns the number of rated teams.
func (s *RatingStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ratings)
}

// Merge copies ratings for teams not already present, used when seeding
// from a bootstrap datasource without clobbering locally evolved ratings.
func (s *RatingStore) Merge(ratings map[string]float64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	added := 0
	for team, r := range ratings {
		if _, ok := s.ratings[team]; !ok {
			s.ratings[team] = r
			added++
		}
	}
	return added
}
