package features

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/yourusername/goalform/internal/models"
)

// metaColumns precede the numeric feature columns in the exported table.
var metaColumns = []string{"date", "league", "home_team", "away_team", "fthg", "ftag", "ftr"}

// WriteCSV writes the feature table with one header row: match metadata
// columns followed by the model-facing feature columns in vector order.
func WriteCSV(w io.Writer, rows []models.FeatureRow) error {
	cw := csv.NewWriter(w)

	header := append(append([]string{}, metaColumns...), models.FeatureNames...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write feature header: %w", err)
	}

	for i := range rows {
		r := &rows[i]
		m := &r.Match

		record := make([]string, 0, len(header))
		record = append(record,
			m.Date.Format("2006-01-02"),
			m.League,
			m.HomeTeam,
			m.AwayTeam,
			intPtrString(m.HomeGoals),
			intPtrString(m.AwayGoals),
			string(m.Result()),
		)
		for _, v := range r.Vector() {
			record = append(record, strconv.FormatFloat(v, 'f', 6, 64))
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write feature row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes the feature table to path, creating parent
// directories as needed.
func WriteCSVFile(path string, rows []models.FeatureRow) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create features directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create features file: %w", err)
	}
	defer f.Close()

	return WriteCSV(f, rows)
}

func intPtrString(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
