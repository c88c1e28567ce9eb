// Package service provides business logic implementations.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog/log"

	"chat-minigame-bot/internal/game"
	"chat-minigame-bot/internal/model"
	"chat-minigame-bot/internal/pkg/lock"
)

// Score-related errors.
var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidLimit  = errors.New("invalid limit: must be positive")
)

// DefaultLeaderboardSize is used when a caller passes no limit.
const DefaultLeaderboardSize = 10

// DefaultLockTimeout bounds how long an award waits for the player's lock.
const DefaultLockTimeout = 5 * time.Second

// ScoreBackend is the persistence seen by ScoreService. The PostgreSQL
// repository and the SQLite and Redis stores implement it.
type ScoreBackend interface {
	AddPoints(ctx context.Context, playerID int64, username string, amount int64, reason string) (*model.Player, error)
	GetPlayer(ctx context.Context, playerID int64) (*model.Player, error)
	TopPlayers(ctx context.Context, limit int) ([]*model.Rank, error)
	DailyTop(ctx context.Context, day time.Time, limit int) ([]*model.Rank, error)
}

// ScoreService handles point awards and leaderboards.
type ScoreService struct {
	backend  ScoreBackend
	locks    *lock.KeyedLock
	timezone *time.Location
	clock    clock.Clock

	lockTimeout time.Duration
}

// NewScoreService creates a new ScoreService instance.
func NewScoreService(backend ScoreBackend, timezone *time.Location) *ScoreService {
	if timezone == nil {
		timezone = time.UTC
	}
	return &ScoreService{
		backend:  backend,
		locks:    lock.NewKeyedLock(),
		timezone: timezone,
		clock:    clock.New(),

		lockTimeout: DefaultLockTimeout,
	}
}

var _ game.ScoreStore = (*ScoreService)(nil)

// AwardPoints credits a positive amount earned in a game.
func (s *ScoreService) AwardPoints(ctx context.Context, player game.Player, amount int64, reason string) error {
	if amount <= 0 {
		return fmt.Errorf("%w: award must be positive, got %d", ErrInvalidAmount, amount)
	}

	updated, err := s.add(ctx, player.ID, player.Name, amount, reason)
	if err != nil {
		return err
	}

	log.Info().
		Int64("user_id", player.ID).
		Int64("amount", amount).
		Int64("points", updated.Points).
		Str("game", reason).
		Msg("Points awarded")
	return nil
}

// AdminAdjust adds a signed, non-zero amount to a player's total.
func (s *ScoreService) AdminAdjust(ctx context.Context, adminID, playerID int64, amount int64) (*model.Player, error) {
	if amount == 0 {
		return nil, fmt.Errorf("%w: adjustment cannot be zero", ErrInvalidAmount)
	}

	updated, err := s.add(ctx, playerID, "", amount, model.ReasonAdmin)
	if err != nil {
		return nil, err
	}

	log.Info().
		Int64("admin_id", adminID).
		Int64("user_id", playerID).
		Int64("amount", amount).
		Int64("points", updated.Points).
		Msg("Admin adjusted points")
	return updated, nil
}

// add serializes writes per player. It gives up with lock.ErrLockTimeout
// when another award for the same player holds the lock for too long.
func (s *ScoreService) add(ctx context.Context, playerID int64, username string, amount int64, reason string) (*model.Player, error) {
	var updated *model.Player
	err := s.locks.WithLockContext(ctx, playerID, s.lockTimeout, func() error {
		var err error
		updated, err = s.backend.AddPoints(ctx, playerID, username, amount, reason)
		if err != nil {
			return fmt.Errorf("failed to add %d points to %d: %w", amount, playerID, err)
		}
		return nil
	})
	if errors.Is(err, lock.ErrLockTimeout) || errors.Is(err, context.Canceled) {
		return nil, fmt.Errorf("failed to lock player %d: %w", playerID, err)
	}
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// GetScore retrieves a player's account.
// Returns model.ErrPlayerNotFound if the player never scored.
func (s *ScoreService) GetScore(ctx context.Context, playerID int64) (*model.Player, error) {
	player, err := s.backend.GetPlayer(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get score: %w", err)
	}
	return player, nil
}

// TopPlayers retrieves the all-time leaderboard.
func (s *ScoreService) TopPlayers(ctx context.Context, limit int) ([]*model.Rank, error) {
	limit, err := normalizeLimit(limit)
	if err != nil {
		return nil, err
	}
	return s.backend.TopPlayers(ctx, limit)
}

// DailyTop retrieves today's leaderboard in the service timezone.
func (s *ScoreService) DailyTop(ctx context.Context, limit int) ([]*model.Rank, error) {
	limit, err := normalizeLimit(limit)
	if err != nil {
		return nil, err
	}
	return s.backend.DailyTop(ctx, s.Today(), limit)
}

// Today returns the start of the current day in the service timezone.
func (s *ScoreService) Today() time.Time {
	now := s.clock.Now().In(s.timezone)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.timezone)
}

func normalizeLimit(limit int) (int, error) {
	if limit == 0 {
		return DefaultLeaderboardSize, nil
	}
	if limit < 0 {
		return 0, ErrInvalidLimit
	}
	return limit, nil
}
