// Package model defines the persisted data models of the minigame bot.
package model

import (
	"errors"
	"time"
)

// ErrPlayerNotFound is returned when a player has never scored.
var ErrPlayerNotFound = errors.New("player not found")

// Player is a chat user's score account.
type Player struct {
	ID        int64     `db:"id"`
	Username  string    `db:"username"`
	Points    int64     `db:"points"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Rank is one leaderboard row.
type Rank struct {
	PlayerID int64  `db:"player_id"`
	Username string `db:"username"`
	Points   int64  `db:"points"`
}

// ReasonAdmin marks manual adjustments. Game awards use the game's command
// as their reason.
const ReasonAdmin = "admin"
