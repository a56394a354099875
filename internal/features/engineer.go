// Package features derives the model-facing feature table from historical
// match data: rolling team form, season-to-date strength, implied
// probabilities and Elo ratings. Every aggregate for a match on date D uses
// only matches strictly before D.
package features

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/goalform/internal/elo"
	"github.com/yourusername/goalform/internal/metrics"
	"github.com/yourusername/goalform/internal/models"
)

// Default rolling windows.
const (
	DefaultWindow     = 5
	DefaultLongWindow = 10
)

// Engineer computes rolling and cumulative team features over a
// chronologically ordered match history.
type Engineer struct {
	window     int
	longWindow int
	elo        *elo.Tracker
	logger     *logrus.Entry
}

// NewEngineer creates a feature engineer with the given rolling windows,
// borrowing the Elo tracker for rating features.
func NewEngineer(window, longWindow int, tracker *elo.Tracker, logger *logrus.Logger) *Engineer {
	if window <= 0 {
		window = DefaultWindow
	}
	if longWindow <= 0 {
		longWindow = DefaultLongWindow
	}
	return &Engineer{
		window:     window,
		longWindow: longWindow,
		elo:        tracker,
		logger:     logger.WithField("component", "features"),
	}
}

// perspective is one played match seen from a single team's side.
type perspective struct {
	date           time.Time
	home           bool
	points         float64
	goalsFor       float64
	goalsAgainst   float64
	over           bool
	shotsFor       float64
	shotsAgainst   float64
	cornersFor     float64
	cornersAgainst float64
	result         string
}

// teamState accumulates a team's history as the chronological sweep
// advances. Season-to-date sums reset at the season boundary.
type teamState struct {
	all  []perspective
	home []perspective
	away []perspective

	season    int
	games     int
	cumPoints float64
	cumGF     float64
	cumGA     float64
}

// leagueState accumulates league-wide goals-for per team-game for the
// relative strength baseline, reset each season.
type leagueState struct {
	season int
	games  int
	cumGF  float64
}

// BuildTrainingTable computes one feature row per played historical match,
// in chronological order. Rows where either team has no prior history are
// dropped: all-default features would corrupt model training. Elo ratings
// in each row are the ratings held immediately before that match.
func (e *Engineer) BuildTrainingTable(history []models.MatchRecord) ([]models.FeatureRow, error) {
	if len(history) == 0 {
		return nil, models.ErrNoHistory
	}

	ordered := make([]models.MatchRecord, len(history))
	copy(ordered, history)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.Before(ordered[j].Date)
	})

	teams := make(map[string]*teamState)
	leagues := make(map[string]*leagueState)

	var rows []models.FeatureRow
	dropped := 0
	for i := range ordered {
		m := &ordered[i]
		if !m.Played() {
			continue
		}

		hState := stateFor(teams, m.HomeTeam)
		aState := stateFor(teams, m.AwayTeam)

		if len(hState.all) > 0 && len(aState.all) > 0 {
			rows = append(rows, e.buildRow(m, hState, aState, leagues))
		} else {
			dropped++
		}

		e.apply(m, hState, aState, leagues)
	}

	metrics.FeatureRowsBuiltTotal.Add(float64(len(rows)))
	e.logger.WithFields(logrus.Fields{
		"rows":    len(rows),
		"dropped": dropped,
	}).Info("Training feature table built")

	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows with sufficient prior history", models.ErrNoHistory)
	}
	return rows, nil
}

// buildRow assembles the feature row for one match from the state
// accumulated strictly before it.
func (e *Engineer) buildRow(m *models.MatchRecord, hState, aState *teamState, leagues map[string]*leagueState) models.FeatureRow {
	row := models.FeatureRow{Match: *m}

	if m.OddsHome != nil {
		row.ImpliedHome = models.ImpliedProbability(*m.OddsHome)
	}
	if m.OddsDraw != nil {
		row.ImpliedDraw = models.ImpliedProbability(*m.OddsDraw)
	}
	if m.OddsAway != nil {
		row.ImpliedAway = models.ImpliedProbability(*m.OddsAway)
	}

	row.HomeForm = snapshot(hState.all, e.window)
	row.AwayForm = snapshot(aState.all, e.window)
	row.HomeFormLong = snapshot(hState.all, e.longWindow)
	row.AwayFormLong = snapshot(aState.all, e.longWindow)
	row.HomeVenueForm = snapshot(hState.home, e.window)
	row.AwayVenueForm = snapshot(aState.away, e.window)

	season := SeasonYear(m.Date)
	baseline := leagueBaseline(leagues, m.League, season)
	row.HomePPG, row.HomeAttStrength, row.HomeDefWeakness = seasonStrength(hState, season, baseline)
	row.AwayPPG, row.AwayAttStrength, row.AwayDefWeakness = seasonStrength(aState, season, baseline)

	row.HomeElo = e.elo.Rating(m.HomeTeam)
	row.AwayElo = e.elo.Rating(m.AwayTeam)

	return row
}

// apply folds a played match into the rating and rolling-state
// accumulators, after its row has been built.
func (e *Engineer) apply(m *models.MatchRecord, hState, aState *teamState, leagues map[string]*leagueState) {
	if !m.Played() {
		return
	}

	e.elo.Update(m.HomeTeam, m.AwayTeam, m.GoalDiff(), m.HomeScore())

	season := SeasonYear(m.Date)
	hp, ap := perspectives(m)

	hState.fold(hp, season)
	aState.fold(ap, season)

	ls := leagueFor(leagues, m.League, season)
	// Each match contributes both sides' goals as team-games.
	ls.cumGF += hp.goalsFor + ap.goalsFor
	ls.games += 2
}

// InferenceRow computes the feature vector for a single upcoming fixture.
// Unlike training, insufficient history degrades to zero-filled defaults
// instead of rejecting the fixture; an unresolved canonical name (empty
// string) yields neutral defaults for that side.
func (e *Engineer) InferenceRow(history []models.MatchRecord, fixture *models.Fixture, homeCanonical, awayCanonical string) models.FeatureRow {
	row := models.FeatureRow{
		Match: models.MatchRecord{
			Date:     fixture.Kickoff,
			HomeTeam: fixture.HomeTeam,
			AwayTeam: fixture.AwayTeam,
			League:   fixture.League,
		},
	}

	if fixture.OddsHome != nil {
		row.ImpliedHome = models.ImpliedProbability(*fixture.OddsHome)
	}
	if fixture.OddsDraw != nil {
		row.ImpliedDraw = models.ImpliedProbability(*fixture.OddsDraw)
	}
	if fixture.OddsAway != nil {
		row.ImpliedAway = models.ImpliedProbability(*fixture.OddsAway)
	}

	cutoff := fixture.Kickoff
	homeAll := teamPerspectives(history, homeCanonical, cutoff, anyVenue)
	awayAll := teamPerspectives(history, awayCanonical, cutoff, anyVenue)
	row.HomeForm = snapshot(homeAll, e.window)
	row.AwayForm = snapshot(awayAll, e.window)
	row.HomeFormLong = snapshot(homeAll, e.longWindow)
	row.AwayFormLong = snapshot(awayAll, e.longWindow)
	row.HomeVenueForm = snapshot(teamPerspectives(history, homeCanonical, cutoff, homeOnly), e.window)
	row.AwayVenueForm = snapshot(teamPerspectives(history, awayCanonical, cutoff, awayOnly), e.window)

	season := SeasonYear(cutoff)
	row.HomePPG, row.HomeAttStrength, row.HomeDefWeakness = inferenceStrength(history, homeCanonical, cutoff, season)
	row.AwayPPG, row.AwayAttStrength, row.AwayDefWeakness = inferenceStrength(history, awayCanonical, cutoff, season)

	row.HomeElo = e.elo.Rating(homeCanonical)
	row.AwayElo = e.elo.Rating(awayCanonical)

	return row
}

func stateFor(teams map[string]*teamState, name string) *teamState {
	s, ok := teams[name]
	if !ok {
		s = &teamState{}
		teams[name] = s
	}
	return s
}

func leagueFor(leagues map[string]*leagueState, league string, season int) *leagueState {
	key := fmt.Sprintf("%s|%d", league, season)
	ls, ok := leagues[key]
	if !ok {
		ls = &leagueState{season: season}
		leagues[key] = ls
	}
	return ls
}

func leagueBaseline(leagues map[string]*leagueState, league string, season int) float64 {
	ls, ok := leagues[fmt.Sprintf("%s|%d", league, season)]
	if !ok || ls.games == 0 {
		// Neutral baseline guards the division at the season start.
		return 1.0
	}
	return ls.cumGF / float64(ls.games)
}

// fold appends a perspective and advances the season-to-date sums,
// resetting them when the perspective crosses into a new season.
func (s *teamState) fold(p perspective, season int) {
	s.all = append(s.all, p)
	if p.home {
		s.home = append(s.home, p)
	} else {
		s.away = append(s.away, p)
	}

	if s.season != season {
		s.season = season
		s.games = 0
		s.cumPoints = 0
		s.cumGF = 0
		s.cumGA = 0
	}
	s.games++
	s.cumPoints += p.points
	s.cumGF += p.goalsFor
	s.cumGA += p.goalsAgainst
}

// seasonStrength returns points-per-game, attack strength and defense
// weakness for the current season; a team with no matches this season
// reads as all zeros.
func seasonStrength(s *teamState, season int, baseline float64) (ppg, att, def float64) {
	if s.season != season || s.games == 0 {
		return 0, 0, 0
	}
	games := float64(s.games)
	if baseline <= 0 {
		baseline = 1.0
	}
	return s.cumPoints / games, (s.cumGF / games) / baseline, (s.cumGA / games) / baseline
}

// snapshot aggregates the most recent n perspectives into a form snapshot.
// Fewer than n matches produce a partial aggregate; none at all produce
// the zero snapshot.
func snapshot(list []perspective, n int) models.FormSnapshot {
	if len(list) == 0 || n <= 0 {
		return models.FormSnapshot{}
	}
	if len(list) > n {
		list = list[len(list)-n:]
	}

	var snap models.FormSnapshot
	seq := make([]string, 0, len(list))
	overs := 0.0
	for _, p := range list {
		snap.Points += p.points
		snap.GoalsFor += p.goalsFor
		snap.GoalsAgainst += p.goalsAgainst
		snap.ShotsFor += p.shotsFor
		snap.ShotsAgainst += p.shotsAgainst
		snap.CornersFor += p.cornersFor
		snap.CornersAgainst += p.cornersAgainst
		if p.over {
			overs++
		}
		seq = append(seq, p.result)
	}

	count := float64(len(list))
	snap.Matches = len(list)
	snap.Points /= count
	snap.GoalsFor /= count
	snap.GoalsAgainst /= count
	snap.ShotsFor /= count
	snap.ShotsAgainst /= count
	snap.CornersFor /= count
	snap.CornersAgainst /= count
	snap.OverRate = overs / count
	snap.Sequence = strings.Join(seq, ",")
	return snap
}

// perspectives splits a played match into its two team-sided views.
// Missing shot and corner counts contribute zero to those aggregates
// without excluding the match from point and goal aggregates.
func perspectives(m *models.MatchRecord) (home, away perspective) {
	hg := float64(*m.HomeGoals)
	ag := float64(*m.AwayGoals)

	home = perspective{
		date:           m.Date,
		home:           true,
		goalsFor:       hg,
		goalsAgainst:   ag,
		over:           m.Over25(),
		shotsFor:       floatOrZero(m.HomeShotsOnTarget),
		shotsAgainst:   floatOrZero(m.AwayShotsOnTarget),
		cornersFor:     floatOrZero(m.HomeCorners),
		cornersAgainst: floatOrZero(m.AwayCorners),
	}
	away = perspective{
		date:           m.Date,
		home:           false,
		goalsFor:       ag,
		goalsAgainst:   hg,
		over:           m.Over25(),
		shotsFor:       floatOrZero(m.AwayShotsOnTarget),
		shotsAgainst:   floatOrZero(m.HomeShotsOnTarget),
		cornersFor:     floatOrZero(m.AwayCorners),
		cornersAgainst: floatOrZero(m.HomeCorners),
	}

	switch m.Result() {
	case models.ResultHome:
		home.points, home.result = 3, "W"
		away.points, away.result = 0, "L"
	case models.ResultAway:
		home.points, home.result = 0, "L"
		away.points, away.result = 3, "W"
	default:
		home.points, home.result = 1, "D"
		away.points, away.result = 1, "D"
	}
	return home, away
}

type venueFilter int

const (
	anyVenue venueFilter = iota
	homeOnly
	awayOnly
)

// teamPerspectives scans the raw history for a team's played matches
// strictly before the cutoff, optionally venue-filtered, in chronological
// order. An empty team name matches nothing.
func teamPerspectives(history []models.MatchRecord, team string, cutoff time.Time, filter venueFilter) []perspective {
	if team == "" {
		return nil
	}
	var out []perspective
	for i := range history {
		m := &history[i]
		if !m.Played() || !m.Date.Before(cutoff) {
			continue
		}
		isHome := m.HomeTeam == team
		if !isHome && m.AwayTeam != team {
			continue
		}
		if (filter == homeOnly && !isHome) || (filter == awayOnly && isHome) {
			continue
		}
		hp, ap := perspectives(m)
		if isHome {
			out = append(out, hp)
		} else {
			out = append(out, ap)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].date.Before(out[j].date) })
	return out
}

// inferenceStrength recomputes season-to-date strength for a single
// fixture by scanning the team's prior matches in the fixture's season.
// The league baseline comes from the league of the team's most recent
// prior match.
func inferenceStrength(history []models.MatchRecord, team string, cutoff time.Time, season int) (ppg, att, def float64) {
	list := teamPerspectives(history, team, cutoff, anyVenue)
	var games, pts, gf, ga float64
	league := ""
	for i := range history {
		m := &history[i]
		if m.Involves(team) && m.Played() && m.Date.Before(cutoff) {
			league = m.League
		}
	}
	for _, p := range list {
		if SeasonYear(p.date) != season {
			continue
		}
		games++
		pts += p.points
		gf += p.goalsFor
		ga += p.goalsAgainst
	}
	if games == 0 {
		return 0, 0, 0
	}

	baseline := 1.0
	if league != "" {
		var lgGames, lgGF float64
		for i := range history {
			m := &history[i]
			if m.League != league || !m.Played() || !m.Date.Before(cutoff) || SeasonYear(m.Date) != season {
				continue
			}
			lgGF += float64(m.TotalGoals())
			lgGames += 2
		}
		if lgGames > 0 && lgGF > 0 {
			baseline = lgGF / lgGames
		}
	}

	return pts / games, (gf / games) / baseline, (ga / games) / baseline
}

func floatOrZero(v *int) float64 {
	if v == nil {
		return 0
	}
	return float64(*v)
}
