// Package random provides a goroutine-safe random source shared by the game
// variants. Tests seed it for reproducible boards.
package random

import (
	"math/rand/v2"
	"sync"
)

// Source is a mutex-guarded *rand.Rand.
type Source struct {
	mu sync.Mutex
	r  *rand.Rand
}

// New returns a deterministic source for the given seed.
func New(seed uint64) *Source {
	return &Source{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NewDefault returns a randomly seeded source.
func NewDefault() *Source {
	return New(rand.Uint64())
}

// IntN returns a value in [0, n). It panics if n <= 0.
func (s *Source) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.IntN(n)
}

// Shuffle randomizes the order of n elements using swap.
func (s *Source) Shuffle(n int, swap func(i, j int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.r.Shuffle(n, swap)
}

// Perm returns a random permutation of [0, n).
func (s *Source) Perm(n int) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Perm(n)
}
