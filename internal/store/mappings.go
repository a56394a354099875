package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
)

// MappingStore persists the raw-name to canonical-name cache. A nil value
// is the null sentinel: the name was fuzzy-matched once, found no confident
// canonical match, and is not retried. That negative cache is intentional
// and permanent; it can petrify deprecated-team mismatches, which is
// accepted as design intent rather than silently expired.
type MappingStore struct {
	mu       sync.RWMutex
	path     string
	mappings map[string]*string
	logger   *logrus.Logger
}

// NewMappingStore creates an empty mapping store persisted at path.
func NewMappingStore(path string, logger *logrus.Logger) *MappingStore {
	return &MappingStore{
		path:     path,
		mappings: make(map[string]*string),
		logger:   logger,
	}
}

// Load reads the persisted cache; missing or corrupt files start fresh.
func (s *MappingStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.WithError(err).Warn("Mapping cache unreadable, starting fresh")
		}
		return nil
	}

	mappings := make(map[string]*string)
	if err := json.Unmarshal(data, &mappings); err != nil {
		s.logger.WithError(err).Warn("Mapping cache corrupt, starting fresh")
		s.mappings = make(map[string]*string)
		return nil
	}

	s.mappings = mappings
	s.logger.WithField("entries", len(mappings)).Info("Name-mapping cache loaded")
	return nil
}

// Save flushes the cache to durable storage.
func (s *MappingStore) Save() error {
	s.mu.RLock()
	data, err := json.MarshalIndent(s.mappings, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal mapping cache: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write mapping cache: %w", err)
	}
	return nil
}

// Get returns the cached mapping for a raw name. The second return reports
// whether any entry exists; a true with a nil canonical pointer is a cached
// negative result.
func (s *MappingStore) Get(raw string) (*string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	canonical, ok := s.mappings[raw]
	return canonical, ok
}

// Put records a resolution decision. canonical == nil caches a negative
// result.
func (s *MappingStore) Put(raw string, canonical *string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mappings[raw] = canonical
}

// Delete removes a single entry. Provided for operator-driven cache
// correction; the resolver never calls it.
func (s *MappingStore) Delete(raw string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.mappings, raw)
}

// Len returns the number of cached entries, negative results included.
func (s *MappingStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.mappings)
}
