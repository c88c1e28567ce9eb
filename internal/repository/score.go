// Package repository provides the PostgreSQL score backend.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"chat-minigame-bot/internal/model"
)

// ScoreRepository persists player points and the score ledger.
type ScoreRepository struct {
	pool *pgxpool.Pool
}

// NewScoreRepository creates a new ScoreRepository instance.
func NewScoreRepository(pool *pgxpool.Pool) *ScoreRepository {
	return &ScoreRepository{pool: pool}
}

// AddPoints adds amount to the player's total, creating the player on first
// use, and records a ledger event. Both writes share one transaction.
func (r *ScoreRepository) AddPoints(ctx context.Context, playerID int64, username string, amount int64, reason string) (*model.Player, error) {
	const upsert = `
		INSERT INTO players (id, username, points, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE
		SET points = players.points + EXCLUDED.points,
		    username = CASE WHEN EXCLUDED.username = '' THEN players.username ELSE EXCLUDED.username END,
		    updated_at = NOW()
		RETURNING id, username, points, created_at, updated_at
	`
	const event = `
		INSERT INTO score_events (player_id, amount, reason, created_at)
		VALUES ($1, $2, $3, NOW())
	`

	var player model.Player
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, upsert, playerID, username, amount).Scan(
			&player.ID,
			&player.Username,
			&player.Points,
			&player.CreatedAt,
			&player.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert player: %w", err)
		}
		if _, err := tx.Exec(ctx, event, playerID, amount, reason); err != nil {
			return fmt.Errorf("failed to record score event: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add points: %w", err)
	}

	return &player, nil
}

// GetPlayer retrieves a player by ID.
// Returns model.ErrPlayerNotFound if the player has never scored.
func (r *ScoreRepository) GetPlayer(ctx context.Context, playerID int64) (*model.Player, error) {
	const query = `
		SELECT id, username, points, created_at, updated_at
		FROM players
		WHERE id = $1
	`

	var player model.Player
	err := r.pool.QueryRow(ctx, query, playerID).Scan(
		&player.ID,
		&player.Username,
		&player.Points,
		&player.CreatedAt,
		&player.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to get player: %w", err)
	}

	return &player, nil
}

// TopPlayers retrieves the top N players by total points.
func (r *ScoreRepository) TopPlayers(ctx context.Context, limit int) ([]*model.Rank, error) {
	const query = `
		SELECT id, username, points
		FROM players
		ORDER BY points DESC, id ASC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top players: %w", err)
	}
	return collectRanks(rows)
}

// DailyTop retrieves the top N players by points earned in the 24 hours
// starting at day.
func (r *ScoreRepository) DailyTop(ctx context.Context, day time.Time, limit int) ([]*model.Rank, error) {
	const query = `
		SELECT e.player_id, p.username, SUM(e.amount) AS points
		FROM score_events e
		JOIN players p ON p.id = e.player_id
		WHERE e.created_at >= $1
		  AND e.created_at < $2
		GROUP BY e.player_id, p.username
		HAVING SUM(e.amount) > 0
		ORDER BY points DESC, e.player_id ASC
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, day, day.AddDate(0, 0, 1), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily top: %w", err)
	}
	return collectRanks(rows)
}

func collectRanks(rows pgx.Rows) ([]*model.Rank, error) {
	ranks, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*model.Rank, error) {
		var rank model.Rank
		if err := row.Scan(&rank.PlayerID, &rank.Username, &rank.Points); err != nil {
			return nil, err
		}
		return &rank, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan ranks: %w", err)
	}
	return ranks, nil
}
