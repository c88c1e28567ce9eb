// Package sqlite provides a single-file score backend on the pure-Go
// modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"chat-minigame-bot/internal/model"
)

// Store is the SQLite score backend.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db, now: time.Now}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
// Timestamps are unix nanoseconds.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS players (
			id INTEGER PRIMARY KEY,
			username TEXT NOT NULL DEFAULT '',
			points INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_players_points ON players(points DESC);

		CREATE TABLE IF NOT EXISTS score_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			player_id INTEGER NOT NULL REFERENCES players(id) ON DELETE CASCADE,
			amount INTEGER NOT NULL,
			reason TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_score_events_time ON score_events(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// AddPoints adds amount to the player's total and records a ledger event.
func (s *Store) AddPoints(ctx context.Context, playerID int64, username string, amount int64, reason string) (*model.Player, error) {
	now := s.now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot begin transaction: %w", err)
	}
	defer tx.Rollback()

	var (
		player           model.Player
		created, updated int64
	)
	err = tx.QueryRowContext(ctx, `
		INSERT INTO players (id, username, points, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE
		SET points = players.points + excluded.points,
		    username = CASE WHEN excluded.username = '' THEN players.username ELSE excluded.username END,
		    updated_at = excluded.updated_at
		RETURNING id, username, points, created_at, updated_at`,
		playerID, username, amount, now.UnixNano(), now.UnixNano(),
	).Scan(&player.ID, &player.Username, &player.Points, &created, &updated)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot upsert player: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO score_events (player_id, amount, reason, created_at) VALUES (?, ?, ?, ?)",
		playerID, amount, reason, now.UnixNano(),
	); err != nil {
		return nil, fmt.Errorf("storage: cannot record score event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("storage: cannot commit: %w", err)
	}

	player.CreatedAt = time.Unix(0, created)
	player.UpdatedAt = time.Unix(0, updated)
	return &player, nil
}

// GetPlayer retrieves a player by ID.
func (s *Store) GetPlayer(ctx context.Context, playerID int64) (*model.Player, error) {
	var (
		player           model.Player
		created, updated int64
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, username, points, created_at, updated_at FROM players WHERE id = ?",
		playerID,
	).Scan(&player.ID, &player.Username, &player.Points, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, fmt.Errorf("storage: cannot get player: %w", err)
	}

	player.CreatedAt = time.Unix(0, created)
	player.UpdatedAt = time.Unix(0, updated)
	return &player, nil
}

// TopPlayers retrieves the top N players by total points.
func (s *Store) TopPlayers(ctx context.Context, limit int) ([]*model.Rank, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, username, points FROM players ORDER BY points DESC, id ASC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query top players: %w", err)
	}
	return scanRanks(rows)
}

// DailyTop retrieves the top N players by points earned in the 24 hours
// starting at day.
func (s *Store) DailyTop(ctx context.Context, day time.Time, limit int) ([]*model.Rank, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.player_id, p.username, SUM(e.amount) AS total
		FROM score_events e
		JOIN players p ON p.id = e.player_id
		WHERE e.created_at >= ? AND e.created_at < ?
		GROUP BY e.player_id, p.username
		HAVING total > 0
		ORDER BY total DESC, e.player_id ASC
		LIMIT ?`,
		day.UnixNano(), day.AddDate(0, 0, 1).UnixNano(), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query daily top: %w", err)
	}
	return scanRanks(rows)
}

func scanRanks(rows *sql.Rows) ([]*model.Rank, error) {
	defer rows.Close()

	var ranks []*model.Rank
	for rows.Next() {
		var r model.Rank
		if err := rows.Scan(&r.PlayerID, &r.Username, &r.Points); err != nil {
			return nil, fmt.Errorf("storage: cannot scan rank: %w", err)
		}
		ranks = append(ranks, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: rows error: %w", err)
	}
	return ranks, nil
}
