package livefeed

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/goalform/internal/adjuster"
	"github.com/yourusername/goalform/internal/logger"
	"github.com/yourusername/goalform/internal/models"
)

// Monitor tracks pre-match probabilities per fixture and recomputes in-play
// probabilities as frames arrive.
type Monitor struct {
	adjuster *adjuster.LiveAdjuster
	mu       sync.RWMutex
	prematch map[string]models.OutcomeProbs
	current  map[string]models.OutcomeProbs
	logger   *logrus.Logger
	audit    *logger.AuditLogger
}

// NewMonitor creates a live monitor
func NewMonitor(liveAdjuster *adjuster.LiveAdjuster, log *logrus.Logger) *Monitor {
	return &Monitor{
		adjuster: liveAdjuster,
		prematch: make(map[string]models.OutcomeProbs),
		current:  make(map[string]models.OutcomeProbs),
		logger:   log,
		audit:    logger.NewAuditLogger(log),
	}
}

// Track registers the pre-match probabilities for a fixture. Frames for
// untracked fixtures are ignored.
func (m *Monitor) Track(fixtureID string, pre models.OutcomeProbs) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prematch[fixtureID] = pre
	m.current[fixtureID] = pre
}

// Untrack removes a finished fixture
func (m *Monitor) Untrack(fixtureID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.prematch, fixtureID)
	delete(m.current, fixtureID)
}

// Tracked returns the fixture IDs currently being monitored
func (m *Monitor) Tracked() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.prematch))
	for id := range m.prematch {
		ids = append(ids, id)
	}
	return ids
}

// Current returns the latest in-play probabilities for a fixture
func (m *Monitor) Current(fixtureID string) (models.OutcomeProbs, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	probs, ok := m.current[fixtureID]
	return probs, ok
}

// HandleFrame recomputes probabilities for the fixture in the frame. It is
// intended to be registered on a Client with AddHandler.
func (m *Monitor) HandleFrame(frame Frame) error {
	m.mu.RLock()
	pre, ok := m.prematch[frame.FixtureID]
	m.mu.RUnlock()
	if !ok {
		return nil
	}

	probs := m.adjuster.Adjust(pre, frame.Stats, frame.Minute, frame.Score)

	m.mu.Lock()
	m.current[frame.FixtureID] = probs
	m.mu.Unlock()

	m.audit.LogLiveAdjustment(frame.FixtureID, frame.Minute, frame.Score, probs.Home, probs.Draw, probs.Away)
	return nil
}
