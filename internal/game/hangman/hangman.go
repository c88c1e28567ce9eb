// Package hangman implements the classic letter guessing game.
package hangman

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"chat-minigame-bot/internal/game"
	"chat-minigame-bot/internal/pkg/random"
)

// WordSource supplies secret words.
type WordSource interface {
	RandomWord(r *random.Source) (string, error)
}

// Game is the Hangman variant.
type Game struct {
	words WordSource
	rng   *random.Source
}

// New creates a Hangman game drawing words from words.
func New(words WordSource, rng *random.Source) *Game {
	return &Game{words: words, rng: rng}
}

// Name returns the display name.
func (g *Game) Name() string {
	return "Hangman"
}

// Command returns the command.
func (g *Game) Command() string {
	return "hangman"
}

// Start picks a new word.
func (g *Game) Start(ctx context.Context) (game.Puzzle, error) {
	word, err := g.words.RandomWord(g.rng)
	if err != nil {
		return nil, fmt.Errorf("failed to pick word: %w", err)
	}
	return newPuzzle(word), nil
}

type puzzle struct {
	word    string
	letters map[rune]bool
	words   map[string]bool
}

func newPuzzle(word string) *puzzle {
	return &puzzle{
		word:    strings.ToLower(word),
		letters: make(map[rune]bool),
		words:   make(map[string]bool),
	}
}

// Guess accepts a single letter or a whole word.
func (p *puzzle) Guess(input string) game.GuessResult {
	input = strings.ToLower(input)
	if !isLetters(input) {
		return game.GuessResult{Verdict: game.VerdictInvalid, Notice: "❌ Guess a single letter or the whole word."}
	}

	if len(input) == 1 {
		return p.guessLetter(rune(input[0]))
	}

	if p.words[input] {
		return game.GuessResult{Verdict: game.VerdictDuplicate, Notice: fmt.Sprintf("❌ %q was already guessed.", input)}
	}
	p.words[input] = true
	if input == p.word {
		return game.GuessResult{Verdict: game.VerdictSolved}
	}
	return game.GuessResult{Verdict: game.VerdictMiss, Notice: fmt.Sprintf("❌ %s is not the word.", strings.ToUpper(input))}
}

func (p *puzzle) guessLetter(r rune) game.GuessResult {
	if p.letters[r] {
		return game.GuessResult{Verdict: game.VerdictDuplicate, Notice: fmt.Sprintf("❌ %s was already guessed.", strings.ToUpper(string(r)))}
	}
	p.letters[r] = true

	if !strings.ContainsRune(p.word, r) {
		return game.GuessResult{Verdict: game.VerdictMiss}
	}
	if p.complete() {
		return game.GuessResult{Verdict: game.VerdictSolved}
	}
	return game.GuessResult{Verdict: game.VerdictHit}
}

func (p *puzzle) complete() bool {
	for _, r := range p.word {
		if !p.letters[r] {
			return false
		}
	}
	return true
}

// Board shows the word with unknown letters masked and the misses so far.
func (p *puzzle) Board() string {
	var b strings.Builder
	b.WriteString(p.mask(false))

	var misses []string
	for r := range p.letters {
		if !strings.ContainsRune(p.word, r) {
			misses = append(misses, strings.ToUpper(string(r)))
		}
	}
	if len(misses) > 0 {
		sort.Strings(misses)
		fmt.Fprintf(&b, "\nMisses: %s", strings.Join(misses, " "))
	}
	return b.String()
}

func (p *puzzle) Reveal() string {
	return p.mask(true)
}

func (p *puzzle) Solution() string {
	return strings.ToUpper(p.word)
}

func (p *puzzle) mask(all bool) string {
	cells := make([]string, 0, len(p.word))
	for _, r := range p.word {
		if all || p.letters[r] {
			cells = append(cells, strings.ToUpper(string(r)))
		} else {
			cells = append(cells, "_")
		}
	}
	return strings.Join(cells, " ")
}

func isLetters(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}
