package game

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"chat-minigame-bot/internal/pkg/lock"
)

// Settings tunes one Arena.
type Settings struct {
	Timeout     time.Duration // 0 disables the auto-fail timer
	MaxScore    int64
	MaxAttempts int   // 0 means attempts are not tracked
	WinnerBonus int64 // Extra points for the player who solved the puzzle
}

// Option configures an Arena.
type Option func(*Arena)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c clock.Clock) Option {
	return func(a *Arena) {
		a.clock = c
	}
}

// Arena runs one Variant across every channel. It owns the channel→Session
// map and serializes all lifecycle calls per channel.
type Arena struct {
	variant   Variant
	settings  Settings
	messenger Messenger
	scores    ScoreStore
	clock     clock.Clock
	locks     *lock.KeyedLock

	mu       sync.RWMutex
	sessions map[ChannelID]*Session
}

// NewArena creates an Arena for variant.
func NewArena(variant Variant, settings Settings, messenger Messenger, scores ScoreStore, opts ...Option) *Arena {
	a := &Arena{
		variant:   variant,
		settings:  settings,
		messenger: messenger,
		scores:    scores,
		clock:     clock.New(),
		locks:     lock.NewKeyedLock(),
		sessions:  make(map[ChannelID]*Session),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name returns the variant's display name.
func (a *Arena) Name() string {
	return a.variant.Name()
}

// Command returns the variant's command.
func (a *Arena) Command() string {
	return a.variant.Command()
}

// Settings returns the arena configuration.
func (a *Arena) Settings() Settings {
	return a.settings
}

// withSession runs fn with the channel's session while holding its lock.
// The session is looked up after the lock is taken so Sweep can never hand
// out a session that is being evicted.
func (a *Arena) withSession(ctx context.Context, ch ChannelID, fn func(s *Session) (Status, error)) (Status, error) {
	if err := a.locks.LockContext(ctx, int64(ch)); err != nil {
		return StatusNotRunning, fmt.Errorf("failed to lock channel %d: %w", ch, err)
	}
	defer a.locks.Unlock(int64(ch))

	s := a.session(ch)
	s.touched = a.clock.Now()
	return fn(s)
}

// session returns the channel's session, creating it on first use.
func (a *Arena) session(ch ChannelID) *Session {
	a.mu.RLock()
	s, ok := a.sessions[ch]
	a.mu.RUnlock()
	if ok {
		return s
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if s, ok := a.sessions[ch]; ok {
		return s
	}
	s = newSession(ch, a.clock.Now())
	a.sessions[ch] = s
	return s
}

// IsRunning reports whether a round is active in the channel.
func (a *Arena) IsRunning(ch ChannelID) bool {
	a.mu.RLock()
	s, ok := a.sessions[ch]
	a.mu.RUnlock()
	if !ok {
		return false
	}

	var running bool
	_ = a.locks.WithLock(int64(ch), func() error {
		running = s.running
		return nil
	})
	return running
}

// Start begins a new round in the channel.
func (a *Arena) Start(ctx context.Context, ch ChannelID, by Player) (Status, error) {
	return a.withSession(ctx, ch, func(s *Session) (Status, error) {
		if s.running {
			return StatusAlreadyRunning, a.notice(ctx, ch, fmt.Sprintf("❌ A %s game is already running here.", a.Name()))
		}

		puzzle, err := a.variant.Start(ctx)
		if err != nil {
			return StatusNotRunning, fmt.Errorf("failed to start %s: %w", a.Command(), err)
		}

		s.puzzle = puzzle
		s.attempts = a.settings.MaxAttempts
		s.round = uuid.New()

		ref, err := a.messenger.Send(ctx, ch, a.render(s, puzzle.Board()))
		if err != nil {
			s.reset()
			return StatusNotRunning, fmt.Errorf("failed to send %s board: %w", a.Command(), err)
		}

		s.display = &ref
		s.running = true
		s.startedAt = a.clock.Now()
		if a.settings.Timeout > 0 {
			round := s.round
			s.timer = a.clock.AfterFunc(a.settings.Timeout, func() {
				a.expire(ch, round)
			})
		}

		log.Info().
			Int64("channel_id", int64(ch)).
			Int64("user_id", by.ID).
			Str("game", a.Command()).
			Str("round", s.round.String()).
			Msg("Round started")

		return StatusStarted, nil
	})
}

// Guess submits a player's input to the running round.
func (a *Arena) Guess(ctx context.Context, ch ChannelID, by Player, input string) (Status, error) {
	return a.withSession(ctx, ch, func(s *Session) (Status, error) {
		if !s.running {
			return StatusNotRunning, a.notRunning(ctx, ch)
		}

		res := s.puzzle.Guess(strings.TrimSpace(input))
		if !res.Verdict.Recognized() {
			if res.Verdict == VerdictDuplicate {
				return StatusDuplicate, a.notice(ctx, ch, withDefault(res.Notice, "❌ That has already been tried."))
			}
			return StatusInvalid, a.notice(ctx, ch, withDefault(res.Notice, "❌ That is not a valid guess."))
		}

		s.addParticipant(by)

		switch res.Verdict {
		case VerdictSolved:
			return a.end(ctx, s, StatusWon, &by)
		case VerdictBust:
			var noticeErr error
			if res.Notice != "" {
				noticeErr = a.notice(ctx, ch, res.Notice)
			}
			status, err := a.end(ctx, s, StatusFailed, nil)
			return status, errors.Join(noticeErr, err)
		}

		status := StatusHit
		if res.Verdict.costsAttempt() {
			status = StatusMiss
			if a.settings.MaxAttempts > 0 {
				s.attempts--
				if s.attempts <= 0 {
					return a.end(ctx, s, StatusFailed, nil)
				}
			}
		}

		var errs []error
		if err := a.refresh(ctx, s); err != nil {
			errs = append(errs, err)
		}
		if res.Notice != "" {
			errs = append(errs, a.notice(ctx, ch, res.Notice))
		}
		return status, errors.Join(errs...)
	})
}

// End aborts the running round.
func (a *Arena) End(ctx context.Context, ch ChannelID) (Status, error) {
	return a.withSession(ctx, ch, func(s *Session) (Status, error) {
		if !s.running {
			return StatusNotRunning, a.notRunning(ctx, ch)
		}
		return a.end(ctx, s, StatusAborted, nil)
	})
}

// QuietEnd tears the running round down without any chat output. It is used
// when the display message disappeared. A non-empty messageID limits the
// call to rounds whose display message has that ID.
func (a *Arena) QuietEnd(ctx context.Context, ch ChannelID, messageID string) (Status, error) {
	return a.withSession(ctx, ch, func(s *Session) (Status, error) {
		if !s.running {
			return StatusNotRunning, nil
		}
		if messageID != "" && (s.display == nil || s.display.MessageID != messageID) {
			return StatusNotRunning, nil
		}
		return a.end(ctx, s, StatusQuiet, nil)
	})
}

// Show re-posts the board as a fresh message.
func (a *Arena) Show(ctx context.Context, ch ChannelID) (Status, error) {
	return a.withSession(ctx, ch, func(s *Session) (Status, error) {
		if !s.running {
			return StatusNotRunning, a.notRunning(ctx, ch)
		}

		if s.display != nil {
			if err := a.messenger.Delete(ctx, *s.display); err != nil {
				log.Debug().Err(err).Int64("channel_id", int64(ch)).Msg("Failed to delete old board")
			}
		}

		ref, err := a.messenger.Send(ctx, ch, a.render(s, s.puzzle.Board()))
		if err != nil {
			s.display = nil
			return StatusShown, fmt.Errorf("failed to send %s board: %w", a.Command(), err)
		}
		s.display = &ref
		return StatusShown, nil
	})
}

// expire is the timeout callback. The round id check discards callbacks
// that fire after their round already ended.
func (a *Arena) expire(ch ChannelID, round uuid.UUID) {
	ctx := context.Background()
	status, err := a.withSession(ctx, ch, func(s *Session) (Status, error) {
		if !s.running || s.round != round {
			return StatusNotRunning, nil
		}
		return a.end(ctx, s, StatusFailed, nil)
	})
	if err != nil {
		log.Error().Err(err).
			Int64("channel_id", int64(ch)).
			Str("game", a.Command()).
			Msg("Failed to expire round")
		return
	}
	if status == StatusFailed {
		log.Info().Int64("channel_id", int64(ch)).Str("game", a.Command()).Msg("Round timed out")
	}
}

// end finishes the round with the given outcome. The session is reset before
// any messaging so a transport failure cannot leave it stuck running.
func (a *Arena) end(ctx context.Context, s *Session, outcome Status, winner *Player) (Status, error) {
	s.stopTimer()
	round := s.snapshot()
	elapsed := a.clock.Now().Sub(round.startedAt)
	s.reset()

	log.Info().
		Int64("channel_id", int64(s.ChannelID)).
		Str("game", a.Command()).
		Str("round", round.round.String()).
		Str("status", outcome.String()).
		Int("participants", len(round.participants)).
		Dur("elapsed", elapsed).
		Msg("Round ended")

	if outcome == StatusQuiet {
		return outcome, nil
	}

	var errs []error
	if round.display != nil {
		if err := a.messenger.Edit(ctx, *round.display, a.renderFinal(round.puzzle)); err != nil {
			errs = append(errs, fmt.Errorf("failed to reveal %s board: %w", a.Command(), err))
		}
	}

	answer := round.puzzle.Solution()
	switch outcome {
	case StatusAborted:
		errs = append(errs, a.notice(ctx, s.ChannelID,
			fmt.Sprintf("🛑 The %s game was ended. The answer was: %s", a.Name(), answer)))
	case StatusFailed:
		errs = append(errs, a.notice(ctx, s.ChannelID,
			fmt.Sprintf("⏰ Game over! Nobody solved the %s. The answer was: %s", a.Name(), answer)))
	case StatusWon:
		errs = append(errs, a.award(ctx, s.ChannelID, round, elapsed, winner, answer)...)
	}

	return outcome, errors.Join(errs...)
}

// award pays out a won round and announces it.
func (a *Arena) award(ctx context.Context, ch ChannelID, round roundSnapshot, elapsed time.Duration, winner *Player, answer string) []error {
	raw := ComputeRoundScore(a.settings.MaxScore, a.settings.Timeout, elapsed)
	share := PerPlayerScore(raw, len(round.participants))

	var errs []error
	names := make([]string, 0, len(round.participants))
	for _, p := range round.participants {
		amount := share
		if winner != nil && p.ID == winner.ID {
			amount += a.settings.WinnerBonus
		}
		if err := a.scores.AwardPoints(ctx, p, amount, a.Command()); err != nil {
			errs = append(errs, fmt.Errorf("failed to award %d points to %d: %w", amount, p.ID, err))
		}
		names = append(names, p.DisplayName())
	}

	var b strings.Builder
	who := "Someone"
	if winner != nil {
		who = winner.DisplayName()
	}
	fmt.Fprintf(&b, "🎉 %s solved the %s! The answer was: %s\n", who, a.Name(), answer)
	fmt.Fprintf(&b, "🏆 %s each earn %d points.", strings.Join(names, ", "), share)
	if winner != nil && a.settings.WinnerBonus > 0 {
		fmt.Fprintf(&b, "\n⭐ %s gets a %d point bonus.", who, a.settings.WinnerBonus)
	}
	errs = append(errs, a.notice(ctx, ch, b.String()))
	return errs
}

// Sweep evicts sessions that are not running and have been idle for longer
// than idle. Sessions whose lock is busy are skipped. Returns the number of
// sessions removed.
func (a *Arena) Sweep(idle time.Duration) int {
	now := a.clock.Now()

	a.mu.RLock()
	candidates := make([]ChannelID, 0)
	for ch, s := range a.sessions {
		if !s.running && now.Sub(s.touched) >= idle {
			candidates = append(candidates, ch)
		}
	}
	a.mu.RUnlock()

	removed := 0
	for _, ch := range candidates {
		if !a.locks.TryLock(int64(ch)) {
			continue
		}
		a.mu.Lock()
		if s, ok := a.sessions[ch]; ok && !s.running && now.Sub(s.touched) >= idle {
			delete(a.sessions, ch)
			removed++
		}
		a.mu.Unlock()
		a.locks.Unlock(int64(ch))
	}

	if removed > 0 {
		log.Debug().
			Str("game", a.Command()).
			Int("removed", removed).
			Int("sessions", a.SessionCount()).
			Int("locks", a.locks.Len()).
			Msg("Swept idle sessions")
	}
	return removed
}

// SessionCount returns the number of tracked channels.
func (a *Arena) SessionCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.sessions)
}

// refresh edits the display message, or posts a new one if the last Show
// lost it.
func (a *Arena) refresh(ctx context.Context, s *Session) error {
	text := a.render(s, s.puzzle.Board())
	if s.display == nil {
		ref, err := a.messenger.Send(ctx, s.ChannelID, text)
		if err != nil {
			return fmt.Errorf("failed to send %s board: %w", a.Command(), err)
		}
		s.display = &ref
		return nil
	}
	if err := a.messenger.Edit(ctx, *s.display, text); err != nil {
		return fmt.Errorf("failed to update %s board: %w", a.Command(), err)
	}
	return nil
}

// render builds the display message text.
func (a *Arena) render(s *Session, board string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎮 %s\n%s", a.Name(), board)
	if a.settings.MaxAttempts > 0 {
		fmt.Fprintf(&b, "\n❤️ Attempts left: %d", s.attempts)
	}
	return b.String()
}

func (a *Arena) renderFinal(p Puzzle) string {
	return fmt.Sprintf("🎮 %s\n%s", a.Name(), p.Reveal())
}

func (a *Arena) notRunning(ctx context.Context, ch ChannelID) error {
	return a.notice(ctx, ch, fmt.Sprintf("❌ There is no %s game in progress.", a.Name()))
}

// notice sends a one-off message to the channel.
func (a *Arena) notice(ctx context.Context, ch ChannelID, text string) error {
	if _, err := a.messenger.Send(ctx, ch, text); err != nil {
		return fmt.Errorf("failed to send %s notice: %w", a.Command(), err)
	}
	return nil
}

func withDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
