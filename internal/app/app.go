// Package app wires configuration into the worker's long-lived components.
package app

import (
	"context"
	"fmt"
	"time"

	"f1picks/ingestion/internal/client"
	"f1picks/ingestion/internal/config"
	"f1picks/ingestion/internal/ingest"
	"f1picks/ingestion/internal/lock"
	"f1picks/ingestion/internal/repository"
	"f1picks/ingestion/internal/scheduler"
	"f1picks/ingestion/internal/scoring"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// App holds the worker's components
type App struct {
	Config    *config.Config
	DB        *repository.Database
	Client    *client.Client
	Ingest    *ingest.Service
	Scorer    *scoring.Scorer
	Scheduler *scheduler.Scheduler

	redis *redis.Client
}

// New connects to the database (and Redis when enabled) and builds every
// component. Close releases the connections.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := repository.NewDatabase(ctx, repository.Config{
		Host:     cfg.DatabaseHost,
		Port:     cfg.DatabasePort,
		User:     cfg.DatabaseUser,
		Password: cfg.DatabasePassword,
		Database: cfg.DatabaseName,
		SSLMode:  cfg.DatabaseSSLMode,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.RunMigrations {
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
	}

	a := &App{Config: cfg, DB: db}

	var locker lock.Locker = lock.NewLocal()
	if cfg.RedisEnabled {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr(),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		rl := lock.NewRedis(a.redis, "f1picks:lock:")
		if err := rl.Ping(ctx); err != nil {
			a.Close()
			return nil, err
		}
		locker = rl
		log.Info().Str("addr", cfg.RedisAddr()).Msg("Redis job locks enabled")
	}

	a.Client = client.NewClient(
		cfg.ProviderBaseURL,
		cfg.ProviderAPIKey,
		cfg.ProviderTimeout,
		client.WithMaxRetries(cfg.ProviderMaxRetries),
		client.WithRetryDelay(cfg.ProviderRetryDelay),
		client.WithMaxConcurrency(cfg.ProviderMaxConcurrency),
		client.WithResponseCache(cfg.ProviderCacheSize, cfg.ProviderCacheTTL),
	)
	log.Info().Str("base_url", cfg.ProviderBaseURL).Msg("Provider client initialized")

	a.Ingest = ingest.NewService(a.Client, db)
	a.Scorer = scoring.NewScorer(a.Client, db, cfg.ScoringWindow)

	a.Scheduler = scheduler.NewScheduler(locker, cfg.JobLockTTL)
	if err := a.Scheduler.Register(scheduler.JobSync, cfg.SyncCron, a.SyncJob); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.Scheduler.Register(scheduler.JobScore, cfg.ScoringCron, a.ScoreJob); err != nil {
		a.Close()
		return nil, err
	}

	return a, nil
}

// SyncJob runs the full synchronization for the configured season
func (a *App) SyncJob(ctx context.Context) error {
	_, err := a.Ingest.SynchronizeAll(ctx, a.Config.Season(time.Now()))
	return err
}

// ScoreJob grades predictions of recently finished races
func (a *App) ScoreJob(ctx context.Context) error {
	_, err := a.Scorer.ScorePendingPredictions(ctx)
	return err
}

// Close releases database and Redis connections
func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close Redis client")
		}
	}
	if a.DB != nil {
		a.DB.Close()
	}
}
