// Package trashcans implements the Vermilion Gym trash can puzzle: find two
// hidden switches, the second always next to the first. Missing the second
// switch resets both.
package trashcans

import (
	"context"
	"fmt"
	"strings"

	"chat-minigame-bot/internal/game"
	"chat-minigame-bot/internal/pkg/random"
)

// Grid dimensions.
const (
	Rows = 3
	Cols = 5
)

// Can is a trash can position.
type Can struct {
	Row, Col int
}

func (c Can) String() string {
	return fmt.Sprintf("%c%d", 'A'+c.Col, c.Row+1)
}

// ParseCan reads a position like "B2" (column letter, row number).
func ParseCan(s string) (Can, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) != 2 {
		return Can{}, false
	}
	c := Can{Row: int(s[1] - '1'), Col: int(s[0] - 'A')}
	if c.Row < 0 || c.Row >= Rows || c.Col < 0 || c.Col >= Cols {
		return Can{}, false
	}
	return c, true
}

// Neighbors returns the cans sharing an edge with c.
func (c Can) Neighbors() []Can {
	var out []Can
	for _, d := range [][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
		n := Can{Row: c.Row + d[0], Col: c.Col + d[1]}
		if n.Row >= 0 && n.Row < Rows && n.Col >= 0 && n.Col < Cols {
			out = append(out, n)
		}
	}
	return out
}

// Game is the Trashcans variant.
type Game struct {
	rng *random.Source
}

// New creates a Trashcans game.
func New(rng *random.Source) *Game {
	return &Game{rng: rng}
}

func (g *Game) Name() string    { return "Trashcans" }
func (g *Game) Command() string { return "trashcans" }

// Start hides both switches.
func (g *Game) Start(ctx context.Context) (game.Puzzle, error) {
	p := &puzzle{rng: g.rng}
	p.shuffle()
	return p, nil
}

type puzzle struct {
	rng     *random.Source
	first   Can
	second  Can
	found   bool
	checked map[Can]bool
	resets  int
}

// shuffle places both switches anew and forgets what was checked.
func (p *puzzle) shuffle() {
	p.first = Can{Row: p.rng.IntN(Rows), Col: p.rng.IntN(Cols)}
	n := p.first.Neighbors()
	p.second = n[p.rng.IntN(len(n))]
	p.found = false
	p.checked = make(map[Can]bool)
}

func (p *puzzle) Guess(input string) game.GuessResult {
	c, ok := ParseCan(input)
	if !ok {
		return game.GuessResult{Verdict: game.VerdictInvalid, Notice: "❌ Check a can by its position, like B2."}
	}
	if p.checked[c] {
		return game.GuessResult{Verdict: game.VerdictDuplicate, Notice: fmt.Sprintf("❌ %s was already checked.", c)}
	}
	p.checked[c] = true

	if !p.found {
		if c == p.first {
			p.found = true
			return game.GuessResult{Verdict: game.VerdictHit, Notice: "🔌 Found the first switch! The second one is in a can right next to it."}
		}
		return game.GuessResult{Verdict: game.VerdictMiss, Notice: fmt.Sprintf("🗑️ Nothing in %s but trash.", c)}
	}

	if c == p.second {
		return game.GuessResult{Verdict: game.VerdictSolved}
	}
	p.resets++
	p.shuffle()
	return game.GuessResult{Verdict: game.VerdictMiss, Notice: "⚡ Wrong can! The electric locks reset and both switches moved."}
}

func (p *puzzle) Board() string {
	var b strings.Builder
	b.WriteString(p.render(false))
	if p.found {
		b.WriteString("\nFirst switch found. Now find the second!")
	}
	if p.resets > 0 {
		fmt.Fprintf(&b, "\nResets: %d", p.resets)
	}
	return b.String()
}

func (p *puzzle) Reveal() string {
	return p.render(true)
}

func (p *puzzle) Solution() string {
	return fmt.Sprintf("%s and %s", p.first, p.second)
}

func (p *puzzle) render(reveal bool) string {
	var b strings.Builder
	b.WriteString("   ")
	for c := 0; c < Cols; c++ {
		fmt.Fprintf(&b, " %c ", 'A'+c)
	}
	for r := 0; r < Rows; r++ {
		fmt.Fprintf(&b, "\n%d  ", r+1)
		for c := 0; c < Cols; c++ {
			can := Can{Row: r, Col: c}
			switch {
			case (reveal || p.found) && can == p.first:
				b.WriteString("[1]")
			case reveal && can == p.second:
				b.WriteString("[2]")
			case p.checked[can]:
				b.WriteString("[x]")
			default:
				b.WriteString("[ ]")
			}
		}
	}
	return b.String()
}
