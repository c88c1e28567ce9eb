// Package game implements the turn-based minigame engine shared by every
// chat game: per-channel sessions, the start/guess/end/show lifecycle, the
// auto-fail timeout and pooled scoring.
//
// Adding a new game only requires implementing Variant and Puzzle; the
// Arena takes care of locking, timers, messaging and awards.
package game

import (
	"context"
	"strconv"
)

// ChannelID identifies a chat channel (Telegram chat ID, Discord channel snowflake).
type ChannelID int64

// Player identifies a chat user taking part in a round.
type Player struct {
	ID   int64
	Name string
}

// DisplayName returns a printable name for the player.
func (p Player) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return "User" + strconv.FormatInt(p.ID, 10)
}

// MessageRef points at a message previously sent through a Messenger.
type MessageRef struct {
	ChannelID ChannelID
	MessageID string
}

// Messenger is the chat transport seen by the engine.
// Implementations must be safe for concurrent use.
type Messenger interface {
	// Send posts text to a channel and returns a handle to the new message.
	Send(ctx context.Context, ch ChannelID, text string) (MessageRef, error)

	// Edit replaces the text of a previously sent message.
	Edit(ctx context.Context, ref MessageRef, text string) error

	// Delete removes a previously sent message.
	Delete(ctx context.Context, ref MessageRef) error
}

// ScoreStore receives the points awarded at the end of a won round.
// One call is issued per participant per round; no cross-participant
// transaction is expected.
type ScoreStore interface {
	AwardPoints(ctx context.Context, player Player, amount int64, reason string) error
}

// Variant is a concrete game type (Hangman, Anagram, ...).
type Variant interface {
	// Name returns the game's display name (e.g., "Hangman").
	Name() string

	// Command returns the command that addresses this game (e.g., "hangman").
	Command() string

	// Start builds the puzzle for a new round.
	Start(ctx context.Context) (Puzzle, error)
}

// Puzzle is the variant-owned state of one round. The Arena only calls it
// while holding the channel lock, so implementations need no locking.
type Puzzle interface {
	// Guess evaluates a player's input against the solution.
	Guess(input string) GuessResult

	// Board renders the current board for the display message.
	Board() string

	// Reveal renders the board with the full solution shown.
	Reveal() string

	// Solution returns the answer in a short printable form.
	Solution() string
}

// Verdict classifies the outcome of a single guess.
type Verdict int

const (
	// VerdictInvalid is malformed input; nothing changes.
	VerdictInvalid Verdict = iota
	// VerdictDuplicate is a guess that was already tried; nothing changes.
	VerdictDuplicate
	// VerdictHit is progress towards the solution at no cost.
	VerdictHit
	// VerdictMiss is a wrong guess and costs an attempt.
	VerdictMiss
	// VerdictQuestion is an answered question and costs an attempt.
	VerdictQuestion
	// VerdictSolved wins the round.
	VerdictSolved
	// VerdictBust loses the round immediately.
	VerdictBust
)

var verdictNames = map[Verdict]string{
	VerdictInvalid:   "invalid",
	VerdictDuplicate: "duplicate",
	VerdictHit:       "hit",
	VerdictMiss:      "miss",
	VerdictQuestion:  "question",
	VerdictSolved:    "solved",
	VerdictBust:      "bust",
}

func (v Verdict) String() string {
	if s, ok := verdictNames[v]; ok {
		return s
	}
	return "verdict(" + strconv.Itoa(int(v)) + ")"
}

// Recognized reports whether the guess counts towards participation.
func (v Verdict) Recognized() bool {
	return v != VerdictInvalid && v != VerdictDuplicate
}

// costsAttempt reports whether the verdict consumes one of the round's attempts.
func (v Verdict) costsAttempt() bool {
	return v == VerdictMiss || v == VerdictQuestion
}

// GuessResult is what a Puzzle reports back for one guess.
type GuessResult struct {
	Verdict Verdict
	Notice  string // Optional text shown to the channel
}

// Status is the engine's answer to a lifecycle call. State-contract
// violations are reported here rather than as errors.
type Status int

const (
	StatusNotRunning Status = iota
	StatusAlreadyRunning
	StatusStarted
	StatusShown
	StatusInvalid
	StatusDuplicate
	StatusHit
	StatusMiss
	StatusWon
	StatusFailed
	StatusAborted
	StatusQuiet
)

var statusNames = map[Status]string{
	StatusNotRunning:     "not_running",
	StatusAlreadyRunning: "already_running",
	StatusStarted:        "started",
	StatusShown:          "shown",
	StatusInvalid:        "invalid",
	StatusDuplicate:      "duplicate",
	StatusHit:            "hit",
	StatusMiss:           "miss",
	StatusWon:            "won",
	StatusFailed:         "failed",
	StatusAborted:        "aborted",
	StatusQuiet:          "quiet",
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return "status(" + strconv.Itoa(int(s)) + ")"
}

// Ended reports whether the call finished the round.
func (s Status) Ended() bool {
	return s == StatusWon || s == StatusFailed || s == StatusAborted || s == StatusQuiet
}
