package game

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Registry holds the Arena of every enabled game, keyed by command.
type Registry struct {
	arenas map[string]*Arena
	mu     sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		arenas: make(map[string]*Arena),
	}
}

// Register adds an arena. An arena with the same command is replaced.
func (r *Registry) Register(a *Arena) error {
	if a == nil {
		return fmt.Errorf("cannot register nil arena")
	}
	if a.Command() == "" {
		return fmt.Errorf("game command cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.arenas[a.Command()] = a
	return nil
}

// Get retrieves an arena by its command.
func (r *Registry) Get(command string) (*Arena, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.arenas[command]
	return a, ok
}

// List returns all arenas sorted by command.
func (r *Registry) List() []*Arena {
	r.mu.RLock()
	defer r.mu.RUnlock()

	arenas := make([]*Arena, 0, len(r.arenas))
	for _, a := range r.arenas {
		arenas = append(arenas, a)
	}
	sort.Slice(arenas, func(i, j int) bool {
		return arenas[i].Command() < arenas[j].Command()
	})
	return arenas
}

// Commands returns all registered commands, sorted.
func (r *Registry) Commands() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	commands := make([]string, 0, len(r.arenas))
	for cmd := range r.arenas {
		commands = append(commands, cmd)
	}
	sort.Strings(commands)
	return commands
}

// Count returns the number of registered arenas.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.arenas)
}

// Unregister removes an arena by command and reports whether it existed.
func (r *Registry) Unregister(command string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.arenas[command]; ok {
		delete(r.arenas, command)
		return true
	}
	return false
}

// QuietEndAll quietly ends every round in the channel whose display message
// has the given ID. Returns the number of rounds ended.
func (r *Registry) QuietEndAll(ctx context.Context, ch ChannelID, messageID string) int {
	ended := 0
	for _, a := range r.List() {
		status, err := a.QuietEnd(ctx, ch, messageID)
		if err != nil {
			log.Error().Err(err).Int64("channel_id", int64(ch)).Str("game", a.Command()).Msg("Failed to end round quietly")
			continue
		}
		if status == StatusQuiet {
			ended++
		}
	}
	return ended
}

// SweepAll evicts idle sessions from every arena.
func (r *Registry) SweepAll(idle time.Duration) int {
	removed := 0
	for _, a := range r.List() {
		removed += a.Sweep(idle)
	}
	return removed
}

// RunJanitor sweeps idle sessions every interval until ctx is cancelled.
func (r *Registry) RunJanitor(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.SweepAll(idle); n > 0 {
				log.Debug().Int("removed", n).Msg("Swept idle game sessions")
			}
		}
	}
}
