package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/goalform/internal/adjuster"
	"github.com/yourusername/goalform/internal/config"
	"github.com/yourusername/goalform/internal/database"
	"github.com/yourusername/goalform/internal/elo"
	"github.com/yourusername/goalform/internal/features"
	"github.com/yourusername/goalform/internal/health"
	"github.com/yourusername/goalform/internal/logger"
	"github.com/yourusername/goalform/internal/metrics"
	"github.com/yourusername/goalform/internal/ml"
	"github.com/yourusername/goalform/internal/models"
	"github.com/yourusername/goalform/internal/repository"
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
	configFile   string
	fixturesFile string

	appLogger *logrus.Logger
	cfg       *config.Config
	db        *database.DB
	repos     *repository.Repositories
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.Flags().StringVarP(&fixturesFile, "fixtures", "f", "", "Path to JSON file listing upcoming fixtures")
	rootCmd.MarkFlagRequired("fixtures")
}

var rootCmd = &cobra.Command{
	Use:   "predict",
	Short: "Produce adjusted predictions for upcoming fixtures",
	Long:  `Builds inference features for each listed fixture, calls the model service and applies the heuristic adjustments before writing the predictions out.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if err := setupDependencies(cmd.Context()); err != nil {
			return fmt.Errorf("failed to setup dependencies: %w", err)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPredict(cmd.Context())
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

func loadConfig() error {
	var err error
	cfg, err = config.LoadWithDefaults(configFile)
	if err != nil {
		return err
	}
	return config.Validate(cfg)
}

func setupDependencies(ctx context.Context) error {
	appLogger = logger.NewLogger(cfg.App.LogLevel)
	metrics.InitRegistry()

	if cfg.DatabaseEnabled() {
		var err error
		db, err = database.Initialize(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		repos, err = repository.NewRepositories(db)
		if err != nil {
			return fmt.Errorf("failed to initialize repositories: %w", err)
		}
	}

	return nil
}

func loadFixtures(path string) ([]models.Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures file: %w", err)
	}

	var fixtures []models.Fixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return nil, fmt.Errorf("failed to parse fixtures file: %w", err)
	}
	if len(fixtures) == 0 {
		return nil, fmt.Errorf("fixtures file %s lists no fixtures", path)
	}
	return fixtures, nil
}

func runPredict(ctx context.Context) error {
	defer func() {
		if db != nil {
			db.Close()
		}
	}()

	if cfg.Metrics.Enabled {
		go serveMetrics()
	}

	fixtures, err := loadFixtures(fixturesFile)
	if err != nil {
		return err
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

	standings := store.NewStandingsStore(cfg.Data.StandingsDir, matcher, appLogger)
	if err := standings.Load(); err != nil {
		appLogger.WithError(err).Warn("Standings unavailable, heuristic adjustments will pass through")
	}
	heuristics := adjuster.NewHeuristicAdjuster(standings, logger.NewAuditLogger(appLogger), appLogger)

	model := ml.NewCachedClient(&cfg.ModelService, appLogger)

	healthCfg := health.Config{
		ServiceName: cfg.App.Name,
		Version:     Version,
		Commit:      GitCommit,
		Logger:      appLogger,
		Model:       model,
	}
	if db != nil {
		healthCfg.DB = db
	}
	healthServer := health.NewServer(healthCfg)
	if err := healthServer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start health server: %w", err)
	}

	var predRepo repository.PredictionRepository
	var matchRepo repository.MatchRepository
	if repos != nil {
		predRepo = repos.Prediction
		matchRepo = repos.Match
	}

	pipeline := service.NewPipelineService(res, engineer, ratings, matchRepo, appLogger)
	history, _, _, err := pipeline.LoadHistoryDir(cfg.Data.HistoryDir)
	if err != nil {
		return fmt.Errorf("failed to load match history: %w", err)
	}
	history = pipeline.ResolveNames(history)
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].Date.Before(history[j].Date)
	})

	// The persisted ratings already reflect the history replayed by
	// feature-build; replaying again would apply every exchange twice.
	// Only a cold start with no rating file rebuilds them here.
	if ratings.Len() == 0 {
		appLogger.Warn("No persisted ratings found, replaying match history")
		if _, err := tracker.ProcessHistory(history); err != nil {
			return fmt.Errorf("failed to replay rating history: %w", err)
		}
	}

	predictor := service.NewPredictionService(res, engineer, model, heuristics, predRepo, appLogger)
	healthServer.SetReady(true)

	failed := 0
	for i := range fixtures {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		fixture := &fixtures[i]
		pred, err := predictor.Predict(ctx, history, fixture)
		if err != nil {
			failed++
			appLogger.WithError(err).WithFields(logrus.Fields{
				"fixture_id": fixture.ID,
				"home_team":  fixture.HomeTeam,
				"away_team":  fixture.AwayTeam,
			}).Error("Prediction failed")
			continue
		}

		path, err := predictor.WritePrediction(cfg.Data.PredictionDir, pred)
		if err != nil {
			failed++
			appLogger.WithError(err).WithField("fixture_id", fixture.ID).Error("Failed to write prediction")
			continue
		}
		appLogger.WithFields(logrus.Fields{
			"fixture_id": fixture.ID,
			"path":       path,
		}).Debug("Prediction written")
	}

	appLogger.WithFields(logrus.Fields{
		"fixtures":  len(fixtures),
		"failed":    failed,
		"succeeded": len(fixtures) - failed,
	}).Info("Prediction run completed")

	if failed == len(fixtures) {
		return fmt.Errorf("all %d predictions failed", failed)
	}
	return nil
}

func serveMetrics() {
	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Path, metrics.Handler())

	addr := fmt.Sprintf(":%d", cfg.Metrics.Port)
	appLogger.WithField("addr", addr).Info("Metrics server starting")
	if err := http.ListenAndServe(addr, mux); err != nil {
		appLogger.WithError(err).Error("Metrics server error")
	}
}
