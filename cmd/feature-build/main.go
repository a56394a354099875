package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/goalform/internal/config"
	"github.com/yourusername/goalform/internal/database"
	"github.com/yourusername/goalform/internal/datasource"
	"github.com/yourusername/goalform/internal/elo"
	"github.com/yourusername/goalform/internal/features"
	"github.com/yourusername/goalform/internal/logger"
	"github.com/yourusername/goalform/internal/metrics"
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
	outputFile   string
	seedRemote   bool
	fetchHistory bool

	appLogger *logrus.Logger
	cfg       *config.Config
	db        *database.DB
	repos     *repository.Repositories
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Override the configured features file path")
	rootCmd.Flags().BoolVar(&seedRemote, "seed", false, "Seed missing team ratings from the remote ratings source")
	rootCmd.Flags().BoolVar(&fetchHistory, "fetch", false, "Fetch history from the configured remote source instead of the history directory")
}

var rootCmd = &cobra.Command{
	Use:   "feature-build",
	Short: "Build the training feature table from historical match data",
	Long:  `Reads raw history CSVs, resolves team names, replays Elo ratings and writes the enriched feature table.`,
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
		return runFeatureBuild(cmd.Context())
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

func runFeatureBuild(ctx context.Context) error {
	defer func() {
		if db != nil {
			db.Close()
		}
	}()

	if cfg.Metrics.Enabled {
		go serveMetrics()
	}

	ratings := store.NewRatingStore(cfg.Data.RatingsFile, appLogger)
	if err := ratings.Load(); err != nil {
		return fmt.Errorf("failed to load ratings: %w", err)
	}
	mappings := store.NewMappingStore(cfg.Data.MappingsFile, appLogger)
	if err := mappings.Load(); err != nil {
		return fmt.Errorf("failed to load name mappings: %w", err)
	}

	if seedRemote {
		seed := datasource.NewRatingsSeedSource(&cfg.RatingsSeed, appLogger)
		if seed.Enabled() {
			added, err := seed.Seed(ctx, ratings)
			if err != nil {
				appLogger.WithError(err).Warn("Remote ratings seed failed, continuing with local ratings")
			} else {
				appLogger.WithField("teams_added", added).Info("Seeded ratings from remote source")
			}
			seed.Close()
		} else {
			appLogger.Warn("Ratings seed requested but no seed URL is configured")
		}
	}

	matcher := similarity.NewMatcher(cfg.Resolver.FuzzyThreshold)
	res := resolver.New(ratings, mappings, matcher, appLogger)
	tracker := elo.NewTracker(ratings, cfg.Elo.KFactor, cfg.Elo.StartRating, appLogger)
	engineer := features.NewEngineer(cfg.Features.Window, cfg.Features.LongWindow, tracker, appLogger)

	var matchRepo repository.MatchRepository
	if repos != nil {
		matchRepo = repos.Match
	}

	pipeline := service.NewPipelineService(res, engineer, ratings, matchRepo, appLogger)

	featuresPath := cfg.Data.FeaturesFile
	if outputFile != "" {
		featuresPath = outputFile
	}

	var (
		summary *service.PipelineSummary
		err     error
	)
	if fetchHistory {
		summary, err = runFromRemote(ctx, pipeline, featuresPath)
	} else {
		summary, err = pipeline.Run(ctx, cfg.Data.HistoryDir, featuresPath)
	}
	if err != nil {
		return fmt.Errorf("pipeline run failed: %w", err)
	}

	appLogger.WithFields(logrus.Fields{
		"files_read":     summary.FilesRead,
		"matches_loaded": summary.MatchesLoaded,
		"rows_rejected":  summary.RowsRejected,
		"rows_built":     summary.RowsBuilt,
		"teams_tracked":  summary.TeamsTracked,
		"persisted":      summary.Persisted,
		"duration":       summary.Duration.String(),
		"features_file":  featuresPath,
	}).Info("Feature build completed")

	return nil
}

// runFromRemote downloads each configured league/season CSV and runs the
// pipeline over the combined records.
func runFromRemote(ctx context.Context, pipeline *service.PipelineService, featuresPath string) (*service.PipelineSummary, error) {
	src := cfg.HistorySource
	if src.BaseURL == "" {
		return nil, fmt.Errorf("no history source URL configured")
	}
	if len(src.Leagues) == 0 || len(src.Seasons) == 0 {
		return nil, fmt.Errorf("history source needs at least one league and one season")
	}

	httpCfg := datasource.DefaultHTTPClientConfig()
	if src.RequestsPerSecond > 0 {
		httpCfg.RateLimit = src.RequestsPerSecond
	}
	if src.RetryAttempts > 0 {
		httpCfg.MaxRetries = src.RetryAttempts
	}

	source := datasource.NewFootballDataSource(src.BaseURL, httpCfg, appLogger)
	defer source.Close()

	var all []models.MatchRecord
	filesRead := 0
	rejected := 0
	for _, season := range src.Seasons {
		for _, league := range src.Leagues {
			matches, rejects, err := source.FetchMatches(ctx, league, season)
			if err != nil {
				appLogger.WithError(err).WithFields(logrus.Fields{
					"league": league,
					"season": season,
				}).Error("Failed to fetch season history")
				continue
			}
			filesRead++
			rejected += len(rejects)
			all = append(all, matches...)
		}
	}

	return pipeline.RunMatches(ctx, all, filesRead, rejected, featuresPath)
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
