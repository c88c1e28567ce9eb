// Package anagram implements the unscramble-the-word game.
package anagram

import (
	"context"
	"fmt"
	"strings"

	"chat-minigame-bot/internal/game"
	"chat-minigame-bot/internal/pkg/random"
)

// maxShuffles bounds the retries for a scramble that differs from the word.
const maxShuffles = 10

// WordSource supplies secret words.
type WordSource interface {
	RandomWord(r *random.Source) (string, error)
}

// Game is the Anagram variant.
type Game struct {
	words WordSource
	rng   *random.Source
}

// New creates an Anagram game.
func New(words WordSource, rng *random.Source) *Game {
	return &Game{words: words, rng: rng}
}

func (g *Game) Name() string    { return "Anagram" }
func (g *Game) Command() string { return "anagram" }

// Start picks a word and scrambles it.
func (g *Game) Start(ctx context.Context) (game.Puzzle, error) {
	word, err := g.words.RandomWord(g.rng)
	if err != nil {
		return nil, fmt.Errorf("failed to pick word: %w", err)
	}
	word = strings.ToLower(word)
	return &puzzle{
		word:     word,
		scramble: Scramble(word, g.rng),
		tried:    make(map[string]bool),
	}, nil
}

// Scramble shuffles the letters of word. When the word has at least two
// distinct letters the result never equals the word.
func Scramble(word string, rng *random.Source) string {
	letters := []rune(word)
	if len(letters) < 2 {
		return word
	}
	for i := 0; i < maxShuffles; i++ {
		rng.Shuffle(len(letters), func(i, j int) {
			letters[i], letters[j] = letters[j], letters[i]
		})
		if string(letters) != word {
			return string(letters)
		}
	}
	// Rotation is guaranteed to differ unless every letter is the same.
	rotated := append(letters[1:], letters[0])
	return string(rotated)
}

type puzzle struct {
	word     string
	scramble string
	tried    map[string]bool
}

func (p *puzzle) Guess(input string) game.GuessResult {
	input = strings.ToLower(input)
	if input == "" || strings.ContainsAny(input, " \t\n") {
		return game.GuessResult{Verdict: game.VerdictInvalid, Notice: "❌ Guess a single word."}
	}
	if p.tried[input] {
		return game.GuessResult{Verdict: game.VerdictDuplicate, Notice: fmt.Sprintf("❌ %s was already tried.", strings.ToUpper(input))}
	}
	p.tried[input] = true

	if input == p.word {
		return game.GuessResult{Verdict: game.VerdictSolved}
	}
	if len(input) != len(p.word) {
		return game.GuessResult{Verdict: game.VerdictMiss, Notice: fmt.Sprintf("❌ The word has %d letters.", len(p.word))}
	}
	return game.GuessResult{Verdict: game.VerdictMiss, Notice: fmt.Sprintf("❌ %s is not it.", strings.ToUpper(input))}
}

func (p *puzzle) Board() string {
	return fmt.Sprintf("🔤 Unscramble: %s", strings.ToUpper(p.scramble))
}

func (p *puzzle) Reveal() string {
	return fmt.Sprintf("🔤 %s → %s", strings.ToUpper(p.scramble), strings.ToUpper(p.word))
}

func (p *puzzle) Solution() string {
	return strings.ToUpper(p.word)
}
