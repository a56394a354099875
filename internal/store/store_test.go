package store

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/goalform/internal/models"
	"github.com/yourusername/goalform/internal/similarity"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestRatingStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "ratings.json")
	store := NewRatingStore(path, quietLogger())

	store.Set("Arsenal", 1623.4)
	store.Set("Chelsea", 1488.1)
	require.NoError(t, store.Save())

	reloaded := NewRatingStore(path, quietLogger())
	require.NoError(t, reloaded.Load())

	assert.Equal(t, 2, reloaded.Len())
	rating, ok := reloaded.Get("Arsenal")
	require.True(t, ok)
	assert.InDelta(t, 1623.4, rating, 1e-9)
	assert.True(t, reloaded.Has("Chelsea"))
	assert.False(t, reloaded.Has("Liverpool"))
}

func TestRatingStoreLoadMissingFile(t *testing.T) {
	store := NewRatingStore(filepath.Join(t.TempDir(), "absent.json"), quietLogger())
	require.NoError(t, store.Load())
	assert.Equal(t, 0, store.Len())
}

func TestRatingStoreLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ratings.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	store := NewRatingStore(path, quietLogger())
	require.NoError(t, store.Load())
	assert.Equal(t, 0, store.Len())
}

func TestRatingStoreTeamsSorted(t *testing.T) {
	store := NewRatingStore(filepath.Join(t.TempDir(), "ratings.json"), quietLogger())
	store.Set("Chelsea", 1500)
	store.Set("Arsenal", 1500)
	store.Set("Brentford", 1500)

	assert.Equal(t, []string{"Arsenal", "Brentford", "Chelsea"}, store.Teams())
}

func TestRatingStoreMergeKeepsExisting(t *testing.T) {
	store := NewRatingStore(filepath.Join(t.TempDir(), "ratings.json"), quietLogger())
	store.Set("Arsenal", 1620)

	added := store.Merge(map[string]float64{
		"Arsenal": 1500,
		"Chelsea": 1480,
	})

	assert.Equal(t, 1, added)
	rating, _ := store.Get("Arsenal")
	assert.InDelta(t, 1620.0, rating, 1e-9)
	rating, _ = store.Get("Chelsea")
	assert.InDelta(t, 1480.0, rating, 1e-9)
}

func TestMappingStoreNegativeResult(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mappings.json")
	store := NewMappingStore(path, quietLogger())

	canonical := "Manchester City"
	store.Put("Man City", &canonical)
	store.Put("Unknown FC", nil)
	require.NoError(t, store.Save())

	reloaded := NewMappingStore(path, quietLogger())
	require.NoError(t, reloaded.Load())
	assert.Equal(t, 2, reloaded.Len())

	got, ok := reloaded.Get("Man City")
	require.True(t, ok)
	require.NotNil(t, got)
	assert.Equal(t, "Manchester City", *got)

	// The negative entry survives the round trip as a present-but-nil value.
	got, ok = reloaded.Get("Unknown FC")
	assert.True(t, ok)
	assert.Nil(t, got)

	_, ok = reloaded.Get("Never Seen")
	assert.False(t, ok)
}

func TestMappingStoreDelete(t *testing.T) {
	store := NewMappingStore(filepath.Join(t.TempDir(), "mappings.json"), quietLogger())
	store.Put("Stale", nil)
	store.Delete("Stale")

	_, ok := store.Get("Stale")
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len())
}

func writeStandingsFixture(t *testing.T, dir, filename string, entries []*models.StandingsEntry) {
	t.Helper()
	data, err := json.Marshal(entries)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, filename), data, 0o644))
}

func newLoadedStandings(t *testing.T) *StandingsStore {
	t.Helper()
	dir := t.TempDir()

	writeStandingsFixture(t, dir, "standings_overall.json", []*models.StandingsEntry{
		{Country: "ENGLAND", League: "Premier League", TeamName: "Arsenal", Rank: 2, MatchesPlayed: 10, Goals: "24:10", Points: "23"},
		{Country: "ENGLAND", League: "Premier League", TeamName: "Sheffield United", Rank: 20, MatchesPlayed: 10, Goals: "5:29", Points: "1"},
	})
	writeStandingsFixture(t, dir, "standings_home.json", []*models.StandingsEntry{
		{Country: "ENGLAND", League: "Premier League", TeamName: "Arsenal", Rank: 1, MatchesPlayed: 5, Goals: "15:3"},
	})
	writeStandingsFixture(t, dir, "last_5_matches_overall.json", []*models.StandingsEntry{
		{Country: "ENGLAND", League: "Premier League", TeamName: "Arsenal", LastResults: "W|W|W|W|D"},
	})
	writeStandingsFixture(t, dir, "last_10_matches_overall.json", []*models.StandingsEntry{
		{Country: "ENGLAND", League: "Premier League", TeamName: "Arsenal", LastResults: "WWWWDWWLWD"},
	})

	store := NewStandingsStore(dir, similarity.NewMatcher(80), quietLogger())
	require.NoError(t, store.Load())
	return store
}

func TestStandingsExactLookup(t *testing.T) {
	store := newLoadedStandings(t)

	entry := store.Standings(models.TableOverall, "ENGLAND: Premier League", "Arsenal")
	require.NotNil(t, entry)
	assert.Equal(t, 2, entry.Rank)
	assert.Equal(t, 24, entry.GoalsFor())
	assert.Equal(t, 10, entry.GoalsAgainst())
	assert.InDelta(t, 2.4, entry.GoalsPerGame(), 1e-9)
}

func TestStandingsVenueTable(t *testing.T) {
	store := newLoadedStandings(t)

	entry := store.Standings(models.TableHome, "ENGLAND: Premier League", "Arsenal")
	require.NotNil(t, entry)
	assert.Equal(t, 1, entry.Rank)

	// The home snapshot does not carry Sheffield United.
	assert.Nil(t, store.Standings(models.TableHome, "ENGLAND: Premier League", "Sheffield United"))
}

func TestStandingsFuzzyTeamLookup(t *testing.T) {
	store := newLoadedStandings(t)

	entry := store.Standings(models.TableOverall, "ENGLAND: Premier League", "Sheffield Utd")
	require.NotNil(t, entry)
	assert.Equal(t, "Sheffield United", entry.TeamName)
}

func TestStandingsUnknownLeague(t *testing.T) {
	store := newLoadedStandings(t)

	assert.Nil(t, store.Standings(models.TableOverall, "SPAIN: La Liga", "Arsenal"))
	// Labels without a country part cannot be split.
	assert.Nil(t, store.Standings(models.TableOverall, "Premier League", "Arsenal"))
}

func TestFormWindows(t *testing.T) {
	store := newLoadedStandings(t)

	short := store.Form(models.TableOverall, models.FormLast5, "ENGLAND: Premier League", "Arsenal")
	require.NotNil(t, short)
	w, d, l := short.ResultCounts()
	assert.Equal(t, 4, w)
	assert.Equal(t, 1, d)
	assert.Equal(t, 0, l)
	assert.InDelta(t, 0.8, short.WinRate(), 1e-9)

	long := store.Form(models.TableOverall, models.FormLast10, "ENGLAND: Premier League", "Arsenal")
	require.NotNil(t, long)
	w, _, l = long.ResultCounts()
	assert.Equal(t, 7, w)
	assert.Equal(t, 1, l)
}

func TestStandingsMissingFilesLoadEmpty(t *testing.T) {
	store := NewStandingsStore(t.TempDir(), similarity.NewMatcher(80), quietLogger())
	require.NoError(t, store.Load())
	assert.Nil(t, store.Standings(models.TableOverall, "ENGLAND: Premier League", "Arsenal"))
}

func TestSplitLeague(t *testing.T) {
	country, name, ok := SplitLeague("england: Premier League")
	require.True(t, ok)
	assert.Equal(t, "ENGLAND", country)
	assert.Equal(t, "Premier League", name)

	_, _, ok = SplitLeague("Premier League")
	assert.False(t, ok)
}
