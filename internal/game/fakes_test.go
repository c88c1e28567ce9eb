package game

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
)

var errTransport = errors.New("transport unavailable")

type sentMessage struct {
	Ref  MessageRef
	Text string
}

// fakeMessenger records everything the arena sends.
type fakeMessenger struct {
	mu      sync.Mutex
	nextID  int
	sent    []sentMessage
	edits   []sentMessage
	deletes []MessageRef

	failSend   bool
	failEdit   bool
	failDelete bool
}

func (m *fakeMessenger) Send(_ context.Context, ch ChannelID, text string) (MessageRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSend {
		return MessageRef{}, errTransport
	}
	m.nextID++
	ref := MessageRef{ChannelID: ch, MessageID: strconv.Itoa(m.nextID)}
	m.sent = append(m.sent, sentMessage{Ref: ref, Text: text})
	return ref, nil
}

func (m *fakeMessenger) Edit(_ context.Context, ref MessageRef, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failEdit {
		return errTransport
	}
	m.edits = append(m.edits, sentMessage{Ref: ref, Text: text})
	return nil
}

func (m *fakeMessenger) Delete(_ context.Context, ref MessageRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDelete {
		return errTransport
	}
	m.deletes = append(m.deletes, ref)
	return nil
}

// countContaining returns how many sent messages contain substr.
func (m *fakeMessenger) countContaining(substr string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.sent {
		if strings.Contains(s.Text, substr) {
			n++
		}
	}
	return n
}

func (m *fakeMessenger) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func (m *fakeMessenger) lastSent() sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return sentMessage{}
	}
	return m.sent[len(m.sent)-1]
}

type award struct {
	Player Player
	Amount int64
	Reason string
}

// fakeScores records every award.
type fakeScores struct {
	mu     sync.Mutex
	awards []award
	fail   bool
}

func (s *fakeScores) AwardPoints(_ context.Context, player Player, amount int64, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("store unavailable")
	}
	s.awards = append(s.awards, award{Player: player, Amount: amount, Reason: reason})
	return nil
}

func (s *fakeScores) list() []award {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]award(nil), s.awards...)
}

// wordVariant is a minimal game: guess the word. "hint" is a free hit,
// "boom" busts the round, an empty guess is invalid.
type wordVariant struct {
	word string
	err  error
}

func (v *wordVariant) Name() string    { return "Word" }
func (v *wordVariant) Command() string { return "word" }

func (v *wordVariant) Start(context.Context) (Puzzle, error) {
	if v.err != nil {
		return nil, v.err
	}
	return &wordPuzzle{word: v.word, tried: make(map[string]bool)}, nil
}

type wordPuzzle struct {
	word  string
	tried map[string]bool
	hints int
}

func (p *wordPuzzle) Guess(input string) GuessResult {
	input = strings.ToLower(input)
	switch {
	case input == "":
		return GuessResult{Verdict: VerdictInvalid}
	case p.tried[input]:
		return GuessResult{Verdict: VerdictDuplicate}
	}
	p.tried[input] = true

	switch input {
	case p.word:
		return GuessResult{Verdict: VerdictSolved}
	case "hint":
		p.hints++
		return GuessResult{Verdict: VerdictHit, Notice: "It starts with " + p.word[:1]}
	case "boom":
		return GuessResult{Verdict: VerdictBust, Notice: "💥 It blew up!"}
	}
	return GuessResult{Verdict: VerdictMiss}
}

func (p *wordPuzzle) Board() string {
	return strings.Repeat("_ ", len(p.word))
}

func (p *wordPuzzle) Reveal() string {
	return strings.ToUpper(p.word)
}

func (p *wordPuzzle) Solution() string {
	return p.word
}
