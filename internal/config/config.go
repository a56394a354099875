// Package config provides configuration management for the Goalform application.
package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App           AppConfig           `mapstructure:"app" validate:"required"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Data          DataConfig          `mapstructure:"data" validate:"required"`
	Elo           EloConfig           `mapstructure:"elo" validate:"required"`
	Resolver      ResolverConfig      `mapstructure:"resolver" validate:"required"`
	Features      FeaturesConfig      `mapstructure:"features" validate:"required"`
	Adjuster      AdjusterConfig      `mapstructure:"adjuster" validate:"required"`
	Live          LiveConfig          `mapstructure:"live" validate:"required"`
	ModelService  ModelServiceConfig  `mapstructure:"model_service" validate:"required"`
	RatingsSeed   RatingsSeedConfig   `mapstructure:"ratings_seed"`
	HistorySource HistorySourceConfig `mapstructure:"history_source"`
	Metrics       MetricsConfig       `mapstructure:"metrics" validate:"required"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatabaseConfig represents the optional PostgreSQL match archive. When Host
// is empty the pipeline runs entirely from flat files.
type DatabaseConfig struct {
	Host               string `mapstructure:"host"`
	Port               int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Name               string `mapstructure:"name"`
	User               string `mapstructure:"user"`
	Password           string `mapstructure:"password"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"omitempty,gt=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"omitempty,gt=0"`
}

// DataConfig represents file locations for history, standings and stores
type DataConfig struct {
	HistoryDir    string `mapstructure:"history_dir" validate:"required"`
	StandingsDir  string `mapstructure:"standings_dir" validate:"required"`
	RatingsFile   string `mapstructure:"ratings_file" validate:"required"`
	MappingsFile  string `mapstructure:"mappings_file" validate:"required"`
	FeaturesFile  string `mapstructure:"features_file" validate:"required"`
	PredictionDir string `mapstructure:"prediction_dir" validate:"required"`
}

// EloConfig represents rating system parameters
type EloConfig struct {
	KFactor     float64 `mapstructure:"k_factor" validate:"required,gt=0"`
	StartRating float64 `mapstructure:"start_rating" validate:"required,gt=0"`
}

// ResolverConfig represents team name resolution parameters
type ResolverConfig struct {
	FuzzyThreshold int `mapstructure:"fuzzy_threshold" validate:"required,min=1,max=100"`
}

// FeaturesConfig represents feature engineering parameters
type FeaturesConfig struct {
	Window     int `mapstructure:"window" validate:"required,gt=0"`
	LongWindow int `mapstructure:"long_window" validate:"required,gt=0"`
}

// AdjusterConfig represents heuristic adjustment parameters
type AdjusterConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	ValueThreshold float64 `mapstructure:"value_threshold" validate:"required,gt=0,lt=1"`
}

// LiveConfig represents in-play monitoring configuration
type LiveConfig struct {
	FeedURL                string `mapstructure:"feed_url" validate:"omitempty,url|startswith=ws"`
	FeedToken              string `mapstructure:"feed_token"`
	ReconnectDelaySeconds  int    `mapstructure:"reconnect_delay_seconds" validate:"required,gt=0"`
	PingIntervalSeconds    int    `mapstructure:"ping_interval_seconds" validate:"required,gt=0"`
}

// ModelServiceConfig represents the external model service configuration
type ModelServiceConfig struct {
	URL                   string `mapstructure:"url" validate:"required,url"`
	ModelVersion          string `mapstructure:"model_version" validate:"required"`
	APIKey                string `mapstructure:"api_key"`
	RequestTimeoutSeconds int    `mapstructure:"request_timeout_seconds" validate:"required,gt=0"`
	RetryAttempts         int    `mapstructure:"retry_attempts" validate:"required,gte=0"`
	CacheTTLSeconds       int    `mapstructure:"cache_ttl_seconds" validate:"required,gt=0"`
}

// RatingsSeedConfig represents the optional remote source used to bootstrap
// ratings for a league the store has never seen.
type RatingsSeedConfig struct {
	URL               string  `mapstructure:"url" validate:"omitempty,url"`
	APIKey            string  `mapstructure:"api_key"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"omitempty,gt=0"`
	RetryAttempts     int     `mapstructure:"retry_attempts" validate:"omitempty,gte=0"`
}

// HistorySourceConfig represents the optional remote endpoint historical
// season CSVs are fetched from. Leagues use football-data codes (E0, SP1)
// and seasons the compact form (2324).
type HistorySourceConfig struct {
	BaseURL           string   `mapstructure:"base_url" validate:"omitempty,url"`
	Leagues           []string `mapstructure:"leagues"`
	Seasons           []string `mapstructure:"seasons"`
	RequestsPerSecond float64  `mapstructure:"requests_per_second" validate:"omitempty,gt=0"`
	RetryAttempts     int      `mapstructure:"retry_attempts" validate:"omitempty,gte=0"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// DatabaseEnabled reports whether the PostgreSQL match archive is configured
func (c *Config) DatabaseEnabled() bool {
	return c.Database.Host != ""
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// RequestTimeout returns the model service request timeout
func (m *ModelServiceConfig) RequestTimeout() time.Duration {
	return time.Duration(m.RequestTimeoutSeconds) * time.Second
}

// CacheTTL returns the model prediction cache TTL
func (m *ModelServiceConfig) CacheTTL() time.Duration {
	return time.Duration(m.CacheTTLSeconds) * time.Second
}
