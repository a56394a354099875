package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/goalform/internal/adjuster"
	"github.com/yourusername/goalform/internal/config"
	"github.com/yourusername/goalform/internal/health"
	"github.com/yourusername/goalform/internal/livefeed"
	"github.com/yourusername/goalform/internal/logger"
	"github.com/yourusername/goalform/internal/metrics"
	"github.com/yourusername/goalform/internal/models"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configFile string

	appLogger *logrus.Logger
	cfg       *config.Config
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
}

var rootCmd = &cobra.Command{
	Use:   "live-monitor",
	Short: "Adjust pre-match predictions from the in-play feed",
	Long:  `Connects to the live match feed and re-evaluates the stored pre-match probabilities as score, minute and momentum frames arrive.`,
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
		return runMonitor(cmd.Context())
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

// loadPredictions reads every stored prediction from the prediction
// directory so the monitor can track its pre-match probabilities.
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

func runMonitor(ctx context.Context) error {
	if cfg.Live.FeedURL == "" {
		return fmt.Errorf("no live feed URL configured")
	}

	if cfg.Metrics.Enabled {
		go serveMetrics()
	}

	preds, err := loadPredictions(cfg.Data.PredictionDir)
	if err != nil {
		return err
	}
	if len(preds) == 0 {
		return fmt.Errorf("no stored predictions to monitor in %s", cfg.Data.PredictionDir)
	}

	monitor := livefeed.NewMonitor(adjuster.NewLiveAdjuster(appLogger), appLogger)
	fixtureIDs := make([]string, 0, len(preds))
	for i := range preds {
		id := preds[i].FixtureID.String()
		monitor.Track(id, preds[i].Outcome)
		fixtureIDs = append(fixtureIDs, id)
	}

	client := livefeed.NewClient(cfg.Live.FeedURL, cfg.Live.FeedToken, appLogger)
	client.AddHandler(monitor.HandleFrame)

	if err := client.ConnectWithRetry(ctx); err != nil {
		return fmt.Errorf("failed to connect to live feed: %w", err)
	}
	defer client.Close()

	if err := client.Subscribe(fixtureIDs); err != nil {
		return fmt.Errorf("failed to subscribe to fixtures: %w", err)
	}

	healthServer := health.NewServer(health.Config{
		ServiceName: cfg.App.Name,
		Version:     Version,
		Commit:      GitCommit,
		Logger:      appLogger,
	})
	if err := healthServer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start health server: %w", err)
	}
	healthServer.SetReady(true)

	appLogger.WithFields(logrus.Fields{
		"fixtures": len(fixtureIDs),
		"feed_url": cfg.Live.FeedURL,
	}).Info("Live monitor running")

	pingInterval := time.Duration(cfg.Live.PingIntervalSeconds) * time.Second
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			appLogger.Info("Live monitor shutting down")
			return nil
		case <-ticker.C:
			if !client.IsConnected() {
				appLogger.Warn("Live feed disconnected, reconnecting")
				if err := client.ConnectWithRetry(ctx); err != nil {
					return fmt.Errorf("failed to reconnect to live feed: %w", err)
				}
				if err := client.Subscribe(fixtureIDs); err != nil {
					appLogger.WithError(err).Error("Failed to resubscribe after reconnect")
				}
				continue
			}
			if err := client.Ping(); err != nil {
				appLogger.WithError(err).Warn("Live feed ping failed")
			}
		}
	}
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
