package game

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
)

// Session is the per-channel state of one Arena. It is created lazily on
// the first command in a channel and reset, not destroyed, after each round.
// All fields are guarded by the Arena's channel lock.
type Session struct {
	ChannelID ChannelID

	running      bool
	puzzle       Puzzle
	attempts     int
	startedAt    time.Time
	round        uuid.UUID
	timer        *clock.Timer
	display      *MessageRef
	participants []Player
	seen         map[int64]struct{}
	touched      time.Time
}

func newSession(ch ChannelID, now time.Time) *Session {
	return &Session{
		ChannelID: ch,
		seen:      make(map[int64]struct{}),
		touched:   now,
	}
}

// addParticipant records a player once per round.
func (s *Session) addParticipant(p Player) {
	if _, ok := s.seen[p.ID]; ok {
		return
	}
	s.seen[p.ID] = struct{}{}
	s.participants = append(s.participants, p)
}

// stopTimer cancels the pending timeout, if any.
func (s *Session) stopTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// reset clears every per-round field.
func (s *Session) reset() {
	s.stopTimer()
	s.running = false
	s.puzzle = nil
	s.attempts = 0
	s.startedAt = time.Time{}
	s.round = uuid.Nil
	s.display = nil
	s.participants = nil
	s.seen = make(map[int64]struct{})
}

// roundSnapshot is what end() keeps of a round after the session is reset.
type roundSnapshot struct {
	puzzle       Puzzle
	display      *MessageRef
	participants []Player
	startedAt    time.Time
	round        uuid.UUID
}

func (s *Session) snapshot() roundSnapshot {
	return roundSnapshot{
		puzzle:       s.puzzle,
		display:      s.display,
		participants: s.participants,
		startedAt:    s.startedAt,
		round:        s.round,
	}
}
