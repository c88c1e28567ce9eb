package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"chat-minigame-bot/internal/config"
	"chat-minigame-bot/internal/pkg/db"
	"chat-minigame-bot/internal/repository"
	"chat-minigame-bot/internal/service"
	"chat-minigame-bot/internal/storage/redis"
	"chat-minigame-bot/internal/storage/sqlite"
)

// openBackend connects the score backend selected by storage.driver. The
// returned func releases it.
func openBackend(ctx context.Context, cfg *config.Config) (service.ScoreBackend, func(), error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		pool, err := db.NewPool(ctx, &cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := repository.Migrate(ctx, pool.Pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("failed to run database migrations: %w", err)
		}
		return repository.NewScoreRepository(pool.Pool), closer("postgres", pool.Close), nil

	case config.DriverRedis:
		loc, err := cfg.Storage.Location()
		if err != nil {
			return nil, nil, err
		}
		store, err := redis.Open(ctx, cfg.Storage.RedisURL,
			redis.WithLocation(loc),
			redis.WithPrefix(cfg.Storage.RedisPrefix),
		)
		if err != nil {
			return nil, nil, err
		}
		return store, closer("redis", store.Close), nil

	default:
		store, err := sqlite.Open(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("path", cfg.Storage.SQLitePath).Msg("SQLite score store opened")
		return store, closer("sqlite", store.Close), nil
	}
}

func closer(name string, fn func() error) func() {
	return func() {
		if err := fn(); err != nil {
			log.Warn().Err(err).Str("backend", name).Msg("Failed to close score backend")
		}
	}
}
