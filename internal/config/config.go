package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/teamarete/TBBAS/internal/models"
)

const (
	SourceModeFile = "file"
	SourceModeHTTP = "http"

	seasonDateLayout = "2006-01-02"
)

// Config holds all application configuration
type Config struct {
	// Application
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Database
	DatabaseHost     string `envconfig:"DATABASE_HOST" default:"localhost"`
	DatabasePort     int    `envconfig:"DATABASE_PORT" default:"5432"`
	DatabaseName     string `envconfig:"DATABASE_NAME" default:"tbbas"`
	DatabaseUser     string `envconfig:"DATABASE_USER" default:"tbbas_user"`
	DatabasePassword string `envconfig:"DATABASE_PASSWORD" required:"true"`
	DatabaseSSLMode  string `envconfig:"DATABASE_SSL_MODE" default:"disable"`

	// Redis snapshot mirror
	RedisEnabled     bool   `envconfig:"REDIS_ENABLED" default:"true"`
	RedisHost        string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort        int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword    string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB          int    `envconfig:"REDIS_DB" default:"0"`
	RedisSnapshotKey string `envconfig:"REDIS_SNAPSHOT_KEY" default:"rankings:snapshot"`

	// Ranking sources
	SourceMode       string        `envconfig:"SOURCE_MODE" default:"file"`
	SourceDir        string        `envconfig:"SOURCE_DIR" default:"data/sources"`
	SourceBaseURL    string        `envconfig:"SOURCE_BASE_URL" default:""`
	SourceTimeout    time.Duration `envconfig:"SOURCE_TIMEOUT" default:"30s"`
	SourceRateLimit  float64       `envconfig:"SOURCE_RATE_LIMIT" default:"5"`
	SourceMaxRetries int           `envconfig:"SOURCE_MAX_RETRIES" default:"3"`

	// Output
	OutputPath string `envconfig:"OUTPUT_PATH" default:"data/rankings.json"`

	// Curated tables; empty means the embedded defaults
	CuratedTablesPath     string `envconfig:"CURATED_TABLES_PATH" default:""`
	DistrictOverridesPath string `envconfig:"DISTRICT_OVERRIDES_PATH" default:""`

	// Matching and fusion
	MatchThreshold          float64            `envconfig:"MATCH_THRESHOLD" default:"0.90"`
	MinCalculatedGames      int                `envconfig:"MIN_CALCULATED_GAMES" default:"15"`
	DistrictMinSubstringLen int                `envconfig:"DISTRICT_MIN_SUBSTRING_LEN" default:"5"`
	UILPublicationSize      int                `envconfig:"UIL_PUBLICATION_SIZE" default:"25"`
	PrivatePublicationSize  int                `envconfig:"PRIVATE_PUBLICATION_SIZE" default:"10"`
	RecordTrustOrder        []string           `envconfig:"RECORD_TRUST_ORDER" default:"tabc,calculated,media"`
	SourceWeights           map[string]float64 `envconfig:"SOURCE_WEIGHTS"`

	// Scheduler
	EnableScheduler bool   `envconfig:"ENABLE_SCHEDULER" default:"true"`
	RankingsCron    string `envconfig:"RANKINGS_CRON" default:"0 6 * * 1"`
	RunOnStart      bool   `envconfig:"RUN_ON_START" default:"false"`
	SeasonStart     string `envconfig:"SEASON_START" default:""`
	SeasonEnd       string `envconfig:"SEASON_END" default:""`

	// Monitoring
	EnableMetrics bool `envconfig:"ENABLE_METRICS" default:"true"`
	MetricsPort   int  `envconfig:"METRICS_PORT" default:"9090"`
}

// Load loads configuration from environment variables
// It first attempts to load from .env file if in development mode
func Load() (*Config, error) {
	// Try to load .env file (ignore error if doesn't exist)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.DatabasePassword == "" {
		return fmt.Errorf("DATABASE_PASSWORD is required")
	}

	if c.MatchThreshold <= 0 || c.MatchThreshold > 1 {
		return fmt.Errorf("MATCH_THRESHOLD must be in (0, 1], got %v", c.MatchThreshold)
	}

	if c.UILPublicationSize <= 0 || c.PrivatePublicationSize <= 0 {
		return fmt.Errorf("publication sizes must be positive")
	}

	if c.MinCalculatedGames < 0 {
		return fmt.Errorf("MIN_CALCULATED_GAMES must not be negative")
	}

	switch c.SourceMode {
	case SourceModeFile:
	case SourceModeHTTP:
		if c.SourceBaseURL == "" {
			return fmt.Errorf("SOURCE_BASE_URL is required when SOURCE_MODE=http")
		}
	default:
		return fmt.Errorf("unknown SOURCE_MODE %q", c.SourceMode)
	}

	if _, err := c.TrustOrder(); err != nil {
		return err
	}

	if _, err := c.Weights(); err != nil {
		return err
	}

	if _, _, err := c.SeasonWindow(); err != nil {
		return err
	}

	return nil
}

// TrustOrder returns RECORD_TRUST_ORDER as sources
func (c *Config) TrustOrder() ([]models.Source, error) {
	out := make([]models.Source, 0, len(c.RecordTrustOrder))
	for _, s := range c.RecordTrustOrder {
		src, err := models.ParseSource(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("RECORD_TRUST_ORDER: %w", err)
		}
		out = append(out, src)
	}
	return out, nil
}

// Weights returns SOURCE_WEIGHTS keyed by source. Unlisted sources default
// to 1 in the fusion engine; a weight of 0 leaves the source out of the
// average.
func (c *Config) Weights() (map[models.Source]float64, error) {
	out := make(map[models.Source]float64, len(c.SourceWeights))
	for k, w := range c.SourceWeights {
		src, err := models.ParseSource(strings.TrimSpace(k))
		if err != nil {
			return nil, fmt.Errorf("SOURCE_WEIGHTS: %w", err)
		}
		if w < 0 {
			return nil, fmt.Errorf("SOURCE_WEIGHTS: weight for %s must not be negative", src)
		}
		out[src] = w
	}
	return out, nil
}

// SeasonWindow parses SEASON_START and SEASON_END. A zero time means the
// bound is open.
func (c *Config) SeasonWindow() (start, end time.Time, err error) {
	if c.SeasonStart != "" {
		if start, err = time.Parse(seasonDateLayout, c.SeasonStart); err != nil {
			return start, end, fmt.Errorf("SEASON_START: %w", err)
		}
	}
	if c.SeasonEnd != "" {
		if end, err = time.Parse(seasonDateLayout, c.SeasonEnd); err != nil {
			return start, end, fmt.Errorf("SEASON_END: %w", err)
		}
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return start, end, fmt.Errorf("SEASON_END is before SEASON_START")
	}
	return start, end, nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// MustLoad loads configuration or panics on error
// Use this in main() where we want to fail fast
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}
