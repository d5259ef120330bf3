package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
)

// Config holds all application configuration
type Config struct {
	// Data provider (OpenF1-compatible REST API)
	ProviderBaseURL        string        `envconfig:"PROVIDER_BASE_URL" default:"https://api.openf1.org/v1" validate:"required,url"`
	ProviderAPIKey         string        `envconfig:"PROVIDER_API_KEY" default:""`
	ProviderTimeout        time.Duration `envconfig:"PROVIDER_TIMEOUT" default:"30s" validate:"gt=0"`
	ProviderMaxRetries     int           `envconfig:"PROVIDER_MAX_RETRIES" default:"3" validate:"gte=0,lte=10"`
	ProviderRetryDelay     time.Duration `envconfig:"PROVIDER_RETRY_DELAY" default:"1s"`
	ProviderMaxConcurrency int           `envconfig:"PROVIDER_MAX_CONCURRENCY" default:"4" validate:"gte=1"`
	ProviderCacheTTL       time.Duration `envconfig:"PROVIDER_CACHE_TTL" default:"5m"`
	ProviderCacheSize      int           `envconfig:"PROVIDER_CACHE_SIZE" default:"256" validate:"gte=1"`

	// Database
	DatabaseHost     string `envconfig:"DATABASE_HOST" default:"localhost" validate:"required"`
	DatabasePort     int    `envconfig:"DATABASE_PORT" default:"5432" validate:"gt=0,lte=65535"`
	DatabaseName     string `envconfig:"DATABASE_NAME" default:"f1picks" validate:"required"`
	DatabaseUser     string `envconfig:"DATABASE_USER" default:"f1picks" validate:"required"`
	DatabasePassword string `envconfig:"DATABASE_PASSWORD" required:"true"`
	DatabaseSSLMode  string `envconfig:"DATABASE_SSL_MODE" default:"disable" validate:"oneof=disable allow prefer require verify-ca verify-full"`
	RunMigrations    bool   `envconfig:"RUN_MIGRATIONS" default:"true"`

	// Redis (job locks)
	RedisEnabled  bool          `envconfig:"REDIS_ENABLED" default:"false"`
	RedisHost     string        `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int           `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	JobLockTTL    time.Duration `envconfig:"JOB_LOCK_TTL" default:"2h" validate:"gt=0"`

	// Application
	AppEnv   string `envconfig:"APP_ENV" default:"development" validate:"oneof=development staging production test"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	OpsPort  int    `envconfig:"OPS_PORT" default:"9090" validate:"gt=0,lte=65535"`

	// Scheduler
	EnableScheduler    bool          `envconfig:"ENABLE_SCHEDULER" default:"true"`
	InitialSyncEnabled bool          `envconfig:"INITIAL_SYNC_ENABLED" default:"true"`
	SyncCron           string        `envconfig:"SYNC_CRON" default:"0 3 * * *" validate:"required"`
	ScoringCron        string        `envconfig:"SCORING_CRON" default:"0 * * * *" validate:"required"`
	ScoringWindow      time.Duration `envconfig:"SCORING_WINDOW" default:"24h" validate:"gt=0"`

	// SeasonYear pins the season to synchronize; 0 follows the current UTC year.
	SeasonYear int `envconfig:"SEASON_YEAR" default:"0" validate:"gte=0"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

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
	if err := validate.Struct(c); err != nil {
		return err
	}

	if c.DatabasePassword == "" {
		return fmt.Errorf("DATABASE_PASSWORD is required")
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(c.SyncCron); err != nil {
		return fmt.Errorf("SYNC_CRON is not a valid schedule: %w", err)
	}
	if _, err := parser.Parse(c.ScoringCron); err != nil {
		return fmt.Errorf("SCORING_CRON is not a valid schedule: %w", err)
	}

	if c.RedisEnabled && strings.TrimSpace(c.RedisHost) == "" {
		return fmt.Errorf("REDIS_HOST is required when REDIS_ENABLED is set")
	}

	return nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DatabaseUser,
		c.DatabasePassword,
		c.DatabaseHost,
		c.DatabasePort,
		c.DatabaseName,
		c.DatabaseSSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// Season returns the season year to synchronize at the given instant.
func (c *Config) Season(now time.Time) int {
	if c.SeasonYear > 0 {
		return c.SeasonYear
	}
	return now.UTC().Year()
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
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
