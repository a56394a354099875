package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/goalform/internal/config"
	"github.com/yourusername/goalform/internal/elo"
	"github.com/yourusername/goalform/internal/evaluation"
	"github.com/yourusername/goalform/internal/features"
	"github.com/yourusername/goalform/internal/logger"
	"github.com/yourusername/goalform/internal/metrics"
	"github.com/yourusername/goalform/internal/models"
	"github.com/yourusername/goalform/internal/resolver"
	"github.com/yourusername/goalform/internal/service"
	"github.com/yourusername/goalform/internal/similarity"
	"github.com/yourusername/goalform/internal/store"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configFile     string
	predictionsDir string
	reportFile     string

	appLogger *logrus.Logger
	cfg       *config.Config
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.Flags().StringVarP(&predictionsDir, "predictions", "p", "", "Override the configured prediction directory")
	rootCmd.Flags().StringVarP(&reportFile, "report", "r", "", "Write the metrics report to this JSON file")
}

var rootCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Settle stored predictions against final results",
	Long:  `Matches stored predictions with the played fixtures in the history data and reports accuracy, Brier score, log loss and flat-stake ROI.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadWithDefaults(configFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if err := config.Validate(cfg); err != nil {
			return fmt.Errorf("failed to validate configuration: %w", err)
		}
		appLogger = logger.NewLogger(cfg.App.LogLevel)
		metrics.InitRegistry()
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEvaluate(cmd.Context())
	},
	Version: fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildDate),
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func loadPredictions(dir string) ([]models.Prediction, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read prediction directory: %w", err)
	}

	var preds []models.Prediction
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read prediction %s: %w", entry.Name(), err)
		}
		var pred models.Prediction
		if err := json.Unmarshal(data, &pred); err != nil {
			return nil, fmt.Errorf("failed to parse prediction %s: %w", entry.Name(), err)
		}
		preds = append(preds, pred)
	}
	return preds, nil
}

// settle pairs each prediction with the first played fixture between the
// same teams on or after the prediction date. Unsettleable predictions are
// skipped and counted.
func settle(preds []models.Prediction, history []models.MatchRecord) ([]evaluation.SettledPrediction, int) {
	var settled []evaluation.SettledPrediction
	unsettled := 0

	for i := range preds {
		pred := &preds[i]
		cutoff := pred.PredictedAt.Truncate(24 * time.Hour)

		var match *models.MatchRecord
		for j := range history {
			rec := &history[j]
			if !rec.Played() || rec.Date.Before(cutoff) {
				continue
			}
			if rec.HomeTeam != pred.HomeTeam || rec.AwayTeam != pred.AwayTeam {
				continue
			}
			if match == nil || rec.Date.Before(match.Date) {
				match = rec
			}
		}
		if match == nil {
			unsettled++
			continue
		}

		settled = append(settled, evaluation.SettledPrediction{
			Prediction: *pred,
			Result:     match.Result(),
			TotalGoals: match.TotalGoals(),
			OddsHome:   match.OddsHome,
			OddsDraw:   match.OddsDraw,
			OddsAway:   match.OddsAway,
		})
	}
	return settled, unsettled
}

func runEvaluate(ctx context.Context) error {
	predDir := cfg.Data.PredictionDir
	if predictionsDir != "" {
		predDir = predictionsDir
	}

	preds, err := loadPredictions(predDir)
	if err != nil {
		return err
	}
	if len(preds) == 0 {
		return fmt.Errorf("no stored predictions to evaluate in %s", predDir)
	}

	ratings := store.NewRatingStore(cfg.Data.RatingsFile, appLogger)
	if err := ratings.Load(); err != nil {
		return fmt.Errorf("failed to load ratings: %w", err)
	}
	mappings := store.NewMappingStore(cfg.Data.MappingsFile, appLogger)
	if err := mappings.Load(); err != nil {
		return fmt.Errorf("failed to load name mappings: %w", err)
	}

	matcher := similarity.NewMatcher(cfg.Resolver.FuzzyThreshold)
	res := resolver.New(ratings, mappings, matcher, appLogger)
	tracker := elo.NewTracker(ratings, cfg.Elo.KFactor, cfg.Elo.StartRating, appLogger)
	engineer := features.NewEngineer(cfg.Features.Window, cfg.Features.LongWindow, tracker, appLogger)

	pipeline := service.NewPipelineService(res, engineer, ratings, nil, appLogger)
	history, _, _, err := pipeline.LoadHistoryDir(cfg.Data.HistoryDir)
	if err != nil {
		return fmt.Errorf("failed to load match history: %w", err)
	}
	history = pipeline.ResolveNames(history)

	settled, unsettled := settle(preds, history)
	if len(settled) == 0 {
		return fmt.Errorf("none of the %d predictions could be matched with a played fixture", len(preds))
	}

	report := evaluation.Evaluate(settled)

	appLogger.WithFields(logrus.Fields{
		"predictions":     len(preds),
		"settled":         len(settled),
		"unsettled":       unsettled,
		"correct_picks":   report.CorrectPicks,
		"accuracy":        report.Accuracy,
		"brier_score":     report.BrierScore,
		"log_loss":        report.LogLoss,
		"totals_accuracy": report.TotalsAccuracy,
		"flat_stake_roi":  report.FlatStakeROI,
	}).Info("Evaluation completed")

	if reportFile != "" {
		if err := os.MkdirAll(filepath.Dir(reportFile), 0o755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
		if err := os.WriteFile(reportFile, []byte(report.ToJSON()), 0o644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		appLogger.WithField("path", reportFile).Info("Report written")
	}

	return nil
}
