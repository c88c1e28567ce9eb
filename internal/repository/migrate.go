package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// migrations are applied in order; every statement is idempotent.
var migrations = []struct {
	name string
	sql  string
}{
	{
		name: "players table",
		sql: `
			CREATE TABLE IF NOT EXISTS players (
				id BIGINT PRIMARY KEY,
				username VARCHAR(255) NOT NULL DEFAULT '',
				points BIGINT NOT NULL DEFAULT 0,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_players_points ON players(points DESC);
		`,
	},
	{
		name: "score_events table",
		sql: `
			CREATE TABLE IF NOT EXISTS score_events (
				id BIGSERIAL PRIMARY KEY,
				player_id BIGINT NOT NULL REFERENCES players(id) ON DELETE CASCADE,
				amount BIGINT NOT NULL,
				reason VARCHAR(50) NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_score_events_time ON score_events(created_at DESC);
			CREATE INDEX IF NOT EXISTS idx_score_events_player_time ON score_events(player_id, created_at DESC);
		`,
	},
}

// Migrate creates the score schema.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	log.Info().Msg("Running database migrations...")

	for i, m := range migrations {
		if _, err := pool.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("failed to apply migration %d (%s): %w", i+1, m.name, err)
		}
		log.Info().Int("migration", i+1).Str("name", m.name).Msg("Migration applied")
	}

	log.Info().Msg("All migrations completed successfully")
	return nil
}
