// Package voltorb implements Voltorb Flip: flip every 2 and 3 on a 5x5 grid
// without hitting a Voltorb.
package voltorb

import (
	"context"
	"fmt"
	"strings"

	"chat-minigame-bot/internal/game"
	"chat-minigame-bot/internal/pkg/random"
)

// Game is the Voltorb Flip variant.
type Game struct {
	layout Layout
	rng    *random.Source
}

// New creates a Voltorb Flip game.
func New(layout Layout, rng *random.Source) *Game {
	return &Game{layout: layout, rng: rng}
}

func (g *Game) Name() string    { return "Voltorb Flip" }
func (g *Game) Command() string { return "voltorb" }

// Start deals a new board.
func (g *Game) Start(ctx context.Context) (game.Puzzle, error) {
	if g.layout.Voltorbs+g.layout.Twos+g.layout.Threes > Size*Size {
		return nil, fmt.Errorf("layout has more than %d special tiles", Size*Size)
	}
	if g.layout.Twos+g.layout.Threes == 0 {
		return nil, fmt.Errorf("layout needs at least one 2 or 3")
	}
	return &puzzle{board: NewBoard(g.layout, g.rng)}, nil
}

type puzzle struct {
	board *Board
}

func (p *puzzle) Guess(input string) game.GuessResult {
	c, ok := ParseCoord(input)
	if !ok {
		return game.GuessResult{Verdict: game.VerdictInvalid, Notice: "❌ Flip a tile by its coordinate, like B3."}
	}
	if p.board.Flipped(c) {
		return game.GuessResult{Verdict: game.VerdictDuplicate, Notice: fmt.Sprintf("❌ %s is already flipped.", c)}
	}

	switch v := p.board.Flip(c); {
	case v == 0:
		return game.GuessResult{Verdict: game.VerdictBust, Notice: fmt.Sprintf("💥 %s was a Voltorb!", c)}
	case p.board.Cleared():
		return game.GuessResult{Verdict: game.VerdictSolved}
	default:
		return game.GuessResult{Verdict: game.VerdictHit}
	}
}

func (p *puzzle) Board() string {
	return fmt.Sprintf("%s\nCoins: %d", p.board.Render(false), p.board.Coins())
}

func (p *puzzle) Reveal() string {
	return p.board.Render(true)
}

// Solution lists the positions of the 2s and 3s.
func (p *puzzle) Solution() string {
	var parts []string
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if v := p.board.tiles[r][c]; v >= 2 {
				parts = append(parts, fmt.Sprintf("%s=%d", Coord{Row: r, Col: c}, v))
			}
		}
	}
	return strings.Join(parts, ", ")
}
