// Package q20 implements Twenty Questions: players narrow down a hidden
// subject by asking about its attributes, then name it.
package q20

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"chat-minigame-bot/internal/content"
	"chat-minigame-bot/internal/game"
	"chat-minigame-bot/internal/pkg/random"
)

// SubjectSource supplies hidden subjects.
type SubjectSource interface {
	RandomSubject(r *random.Source) (content.Subject, error)
}

// Game is the Twenty Questions variant.
type Game struct {
	subjects SubjectSource
	rng      *random.Source
}

// New creates a Twenty Questions game.
func New(subjects SubjectSource, rng *random.Source) *Game {
	return &Game{subjects: subjects, rng: rng}
}

func (g *Game) Name() string    { return "Twenty Questions" }
func (g *Game) Command() string { return "q20" }

// Start picks a subject.
func (g *Game) Start(ctx context.Context) (game.Puzzle, error) {
	s, err := g.subjects.RandomSubject(g.rng)
	if err != nil {
		return nil, fmt.Errorf("failed to pick subject: %w", err)
	}
	return newPuzzle(s), nil
}

type answer struct {
	question string
	yes      bool
}

type puzzle struct {
	subject content.Subject
	asked   map[string]bool
	answers []answer
	names   []string
}

func newPuzzle(s content.Subject) *puzzle {
	return &puzzle{subject: s, asked: make(map[string]bool)}
}

// Guess handles "<attribute> <value>" questions and plain name guesses.
func (p *puzzle) Guess(input string) game.GuessResult {
	input = strings.Join(strings.Fields(strings.ToLower(input)), " ")
	if input == "" {
		return game.GuessResult{Verdict: game.VerdictInvalid, Notice: "❌ Ask \"<attribute> <value>\" or guess a name."}
	}
	if p.asked[input] {
		return game.GuessResult{Verdict: game.VerdictDuplicate, Notice: fmt.Sprintf("❌ %q was already asked.", input)}
	}

	if p.subject.Matches(input) {
		p.asked[input] = true
		return game.GuessResult{Verdict: game.VerdictSolved}
	}

	if attr, value, ok := strings.Cut(input, " "); ok {
		if actual, known := p.subject.Attributes[attr]; known {
			p.asked[input] = true
			yes := actual == value
			p.answers = append(p.answers, answer{question: attr + " " + value, yes: yes})
			return game.GuessResult{Verdict: game.VerdictQuestion, Notice: fmt.Sprintf("❓ Is its %s %s? %s", attr, value, yesNo(yes))}
		}
	}

	p.asked[input] = true
	p.names = append(p.names, input)
	return game.GuessResult{Verdict: game.VerdictMiss, Notice: fmt.Sprintf("❌ It is not %s.", input)}
}

func (p *puzzle) Board() string {
	var b strings.Builder
	b.WriteString("🤔 I'm thinking of something. Ask with: guess <attribute> <value>")
	fmt.Fprintf(&b, "\nAttributes: %s", strings.Join(p.attributeNames(), ", "))
	for _, a := range p.answers {
		fmt.Fprintf(&b, "\n• %s → %s", a.question, yesNo(a.yes))
	}
	if len(p.names) > 0 {
		fmt.Fprintf(&b, "\nNot: %s", strings.Join(p.names, ", "))
	}
	return b.String()
}

func (p *puzzle) Reveal() string {
	var b strings.Builder
	fmt.Fprintf(&b, "It was %s!", p.Solution())
	for _, k := range p.attributeNames() {
		fmt.Fprintf(&b, "\n• %s: %s", k, p.subject.Attributes[k])
	}
	return b.String()
}

func (p *puzzle) Solution() string {
	r, size := utf8.DecodeRuneInString(p.subject.Name)
	return string(unicode.ToUpper(r)) + p.subject.Name[size:]
}

func (p *puzzle) attributeNames() []string {
	names := make([]string, 0, len(p.subject.Attributes))
	for k := range p.subject.Attributes {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func yesNo(yes bool) string {
	if yes {
		return "Yes"
	}
	return "No"
}
