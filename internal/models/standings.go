package models

import (
	"strconv"
	"strings"
)

// TableType selects which standings table an entry belongs to.
type TableType string

const (
	TableOverall TableType = "overall"
	TableHome    TableType = "home"
	TableAway    TableType = "away"
)

// FormWindow selects the recent-form window of a form snapshot table.
type FormWindow int

const (
	FormLast5  FormWindow = 5
	FormLast10 FormWindow = 10
)

// StandingsEntry is one row of a league standings or form snapshot file as
// produced by the standings scraper. Goals are carried in the scraper's
// "F:A" string form; LastResults is a W/D/L sequence, possibly delimited
// with '|'.
type StandingsEntry struct {
	Country          string `json:"country"`
	League           string `json:"league"`
	TeamName         string `json:"team_name"`
	Rank             int    `json:"rank,string"`
	MatchesPlayed    int    `json:"matches_played,string"`
	Wins             int    `json:"wins,string"`
	Draws            int    `json:"draws,string"`
	Losses           int    `json:"losses,string"`
	Goals            string `json:"goals"`
	GoalsDifference  string `json:"goals_difference"`
	Points           string `json:"points"`
	LastResults      string `json:"last_5_results"`
}

// GoalsFor parses the scored half of the "F:A" goals string. Unparseable
// strings yield zero.
func (e *StandingsEntry) GoalsFor() int {
	f, _ := splitGoals(e.Goals)
	return f
}

// GoalsAgainst parses the conceded half of the "F:A" goals string.
func (e *StandingsEntry) GoalsAgainst() int {
	_, a := splitGoals(e.Goals)
	return a
}

// GoalsPerGame returns average goals scored per match played, or zero when
// no matches have been played.
func (e *StandingsEntry) GoalsPerGame() float64 {
	if e.MatchesPlayed == 0 {
		return 0
	}
	return float64(e.GoalsFor()) / float64(e.MatchesPlayed)
}

// ResultCounts tallies W/D/L codes in the recent-results sequence,
// tolerating both delimited ("W|W|L") and plain ("WWL") forms.
func (e *StandingsEntry) ResultCounts() (wins, draws, losses int) {
	wins = strings.Count(e.LastResults, "W")
	draws = strings.Count(e.LastResults, "D")
	losses = strings.Count(e.LastResults, "L")
	return
}

// WinRate returns the share of wins among counted results, zero when the
// sequence is empty.
func (e *StandingsEntry) WinRate() float64 {
	w, d, l := e.ResultCounts()
	total := w + d + l
	if total == 0 {
		return 0
	}
	return float64(w) / float64(total)
}

func splitGoals(s string) (int, int) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0
	}
	f, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	a, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil {
		return 0, 0
	}
	return f, a
}
