package features

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/goalform/internal/models"
)

// headerMap translates the legacy header spellings of the historical data
// sources onto canonical field names. Both the classic football-data layout
// (Date/HomeTeam/AwayTeam/FTHG/FTAG/FTR/Div) and the newer extra-league
// layout (Home/Away/HG/AG/Res/League) are covered.
var headerMap = map[string]string{
	"Date":     "date",
	"HomeTeam": "home_team",
	"AwayTeam": "away_team",
	"Home":     "home_team",
	"Away":     "away_team",
	"FTHG":     "home_goals",
	"FTAG":     "away_goals",
	"HG":       "home_goals",
	"AG":       "away_goals",
	"FTR":      "result",
	"Res":      "result",
	"Div":      "league",
	"League":   "league",
	"HST":      "home_shots_on_target",
	"AST":      "away_shots_on_target",
	"HC":       "home_corners",
	"AC":       "away_corners",
	"B365H":    "odds_home",
	"B365D":    "odds_draw",
	"B365A":    "odds_away",
	"B365>2.5": "odds_over",
	"B365<2.5": "odds_under",
}

// Odds fallback columns for sources without B365 prices, tried in order.
var oddsFallbacks = [][3]string{
	{"AvgCH", "AvgCD", "AvgCA"},
	{"MaxCH", "MaxCD", "MaxCA"},
}

var dateLayouts = []string{"02/01/2006", "02/01/06", "2006-01-02"}

// RejectedRow records a source row that failed to parse into a MatchRecord,
// together with the reason. Rejection is explicit and logged, never silent.
type RejectedRow struct {
	Line   int
	Reason string
}

// ReadHistoryCSV parses one historical CSV source into normalized match
// records. Rows missing required fields are rejected with a reason; the
// remaining records are returned sorted chronologically. Optional columns
// (shots, corners, odds) parse to nil when absent or malformed.
func ReadHistoryCSV(r io.Reader, logger *logrus.Logger) ([]models.MatchRecord, []RejectedRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}

	index := make(map[string]int)
	for i, col := range header {
		col = strings.TrimSpace(col)
		if canonical, ok := headerMap[col]; ok {
			if _, seen := index[canonical]; !seen {
				index[canonical] = i
			}
		} else {
			index[col] = i
		}
	}

	var (
		records  []models.MatchRecord
		rejected []RejectedRow
		line     = 1
	)
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			rejected = append(rejected, RejectedRow{Line: line, Reason: err.Error()})
			continue
		}

		record, reason := parseRow(row, index)
		if reason != "" {
			rejected = append(rejected, RejectedRow{Line: line, Reason: reason})
			continue
		}
		records = append(records, record)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})

	if len(rejected) > 0 {
		logger.WithFields(logrus.Fields{
			"accepted": len(records),
			"rejected": len(rejected),
		}).Warn("Some historical rows were rejected")
	}
	return records, rejected, nil
}

func parseRow(row []string, index map[string]int) (models.MatchRecord, string) {
	field := func(name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	dateStr := field("date")
	home := field("home_team")
	away := field("away_team")
	if dateStr == "" || home == "" || away == "" {
		return models.MatchRecord{}, "missing date or team names"
	}

	date, ok := parseDate(dateStr)
	if !ok {
		return models.MatchRecord{}, fmt.Sprintf("unparseable date %q", dateStr)
	}

	record := models.MatchRecord{
		Date:     date,
		HomeTeam: home,
		AwayTeam: away,
		League:   field("league"),
	}

	record.HomeGoals = parseIntPtr(field("home_goals"))
	record.AwayGoals = parseIntPtr(field("away_goals"))
	if (record.HomeGoals == nil) != (record.AwayGoals == nil) {
		return models.MatchRecord{}, "partial full-time score"
	}

	record.HomeShotsOnTarget = parseIntPtr(field("home_shots_on_target"))
	record.AwayShotsOnTarget = parseIntPtr(field("away_shots_on_target"))
	record.HomeCorners = parseIntPtr(field("home_corners"))
	record.AwayCorners = parseIntPtr(field("away_corners"))

	h, d, a := field("odds_home"), field("odds_draw"), field("odds_away")
	if h == "" {
		for _, fb := range oddsFallbacks {
			if v := field(fb[0]); v != "" {
				h, d, a = v, field(fb[1]), field(fb[2])
				break
			}
		}
	}
	record.OddsHome = ParseOdds(h)
	record.OddsDraw = ParseOdds(d)
	record.OddsAway = ParseOdds(a)
	record.OddsOver = ParseOdds(field("odds_over"))
	record.OddsUnder = ParseOdds(field("odds_under"))

	return record, ""
}

// ParseOdds parses a decimal odds string. Sources use both '.' and ','
// decimal separators; implausible prices at or below 1.0 and non-numeric
// values yield nil so the affected feature is skipped rather than poisoned.
func ParseOdds(s string) *float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" || s == "-" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	v, _ := d.Float64()
	if v <= 1.0 {
		return nil
	}
	return &v
}

func parseIntPtr(s string) *int {
	if s == "" {
		return nil
	}
	// Some sources export counts as floats ("4.0").
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		n := int(f)
		return &n
	}
	return nil
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
