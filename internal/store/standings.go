package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/goalform/internal/models"
	"github.com/yourusername/goalform/internal/similarity"
)

// Snapshot file names as written by the standings scraper.
const (
	fileStandingsOverall = "standings_overall.json"
	fileStandingsHome    = "standings_home.json"
	fileStandingsAway    = "standings_away.json"
	fileFormOverall5     = "last_5_matches_overall.json"
	fileFormHome5        = "last_5_matches_home.json"
	fileFormAway5        = "last_5_matches_away.json"
	fileFormOverall10    = "last_10_matches_overall.json"
)

// leagueTable indexes one snapshot file: "COUNTRY|League" key to team name
// to entry.
type leagueTable map[string]map[string]*models.StandingsEntry

// StandingsStore holds the read-only standings and form snapshots consumed
// by the heuristic adjuster.
type StandingsStore struct {
	dir     string
	logger  *logrus.Logger
	matcher *similarity.Matcher

	standings     leagueTable
	standingsHome leagueTable
	standingsAway leagueTable
	form5         leagueTable
	formHome5     leagueTable
	formAway5     leagueTable
	form10        leagueTable
}

// NewStandingsStore creates a store reading snapshot files from dir and
// using matcher for fuzzy team lookup.
func NewStandingsStore(dir string, matcher *similarity.Matcher, logger *logrus.Logger) *StandingsStore {
	return &StandingsStore{
		dir:     dir,
		logger:  logger,
		matcher: matcher,
	}
}

// Load reads every snapshot file. Missing files load as empty tables; the
// adjuster degrades gracefully when a lookup finds nothing.
func (s *StandingsStore) Load() error {
	s.standings = s.loadTable(fileStandingsOverall)
	s.standingsHome = s.loadTable(fileStandingsHome)
	s.standingsAway = s.loadTable(fileStandingsAway)
	s.form5 = s.loadTable(fileFormOverall5)
	s.formHome5 = s.loadTable(fileFormHome5)
	s.formAway5 = s.loadTable(fileFormAway5)
	s.form10 = s.loadTable(fileFormOverall10)
	return nil
}

func (s *StandingsStore) loadTable(filename string) leagueTable {
	table := make(leagueTable)

	path := filepath.Join(s.dir, filename)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.WithError(err).WithField("file", filename).Warn("Standings snapshot unreadable, skipping")
		}
		return table
	}

	var entries []*models.StandingsEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		s.logger.WithError(err).WithField("file", filename).Warn("Standings snapshot corrupt, skipping")
		return table
	}

	for _, e := range entries {
		if e.TeamName == "" {
			continue
		}
		key := leagueKey(e.Country, e.League)
		if table[key] == nil {
			table[key] = make(map[string]*models.StandingsEntry)
		}
		table[key][e.TeamName] = e
	}

	s.logger.WithFields(logrus.Fields{
		"file":    filename,
		"leagues": len(table),
	}).Debug("Standings snapshot loaded")
	return table
}

// Standings returns the overall or venue-specific standings entry for a
// team, or nil when no snapshot covers it.
func (s *StandingsStore) Standings(table models.TableType, league, team string) *models.StandingsEntry {
	switch table {
	case models.TableHome:
		return s.find(s.standingsHome, league, team)
	case models.TableAway:
		return s.find(s.standingsAway, league, team)
	default:
		return s.find(s.standings, league, team)
	}
}

// Form returns the recent-form entry for a team over the given window and
// table type. Only the overall table carries the 10-match window.
func (s *StandingsStore) Form(table models.TableType, window models.FormWindow, league, team string) *models.StandingsEntry {
	switch {
	case window == models.FormLast10:
		return s.find(s.form10, league, team)
	case table == models.TableHome:
		return s.find(s.formHome5, league, team)
	case table == models.TableAway:
		return s.find(s.formAway5, league, team)
	default:
		return s.find(s.form5, league, team)
	}
}

// find looks up a team inside one snapshot table: exact league key, then
// partial league key, then exact team name, then fuzzy team name.
func (s *StandingsStore) find(table leagueTable, league, team string) *models.StandingsEntry {
	country, name, ok := SplitLeague(league)
	if !ok {
		return nil
	}

	teams := table[leagueKey(country, name)]
	if teams == nil {
		// Scraper league labels occasionally differ by spacing; fall back
		// to a substring scan over the known keys.
		for k, v := range table {
			if strings.Contains(k, country) && strings.Contains(k, name) {
				teams = v
				break
			}
		}
	}
	if teams == nil {
		return nil
	}

	if e, ok := teams[team]; ok {
		return e
	}

	names := make([]string, 0, len(teams))
	for n := range teams {
		names = append(names, n)
	}
	if best, _, ok := s.matcher.BestRatioMatch(team, names); ok {
		return teams[best]
	}
	return nil
}

// SplitLeague parses a scraper league label "ENGLAND: Premier League" into
// its country and league-name parts.
func SplitLeague(label string) (country, name string, ok bool) {
	parts := strings.SplitN(label, ":", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	return strings.ToUpper(strings.TrimSpace(parts[0])), strings.TrimSpace(parts[1]), true
}

func leagueKey(country, league string) string {
	return fmt.Sprintf("%s|%s", strings.ToUpper(strings.TrimSpace(country)), strings.TrimSpace(league))
}
