package game

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type namedVariant struct {
	wordVariant
	command string
}

func (v *namedVariant) Command() string { return v.command }

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	m := &fakeMessenger{}

	require.Error(t, r.Register(nil))
	require.Error(t, r.Register(NewArena(&namedVariant{}, testSettings(), m, &fakeScores{})))

	b := NewArena(&namedVariant{wordVariant: wordVariant{word: "b"}, command: "beta"}, testSettings(), m, &fakeScores{})
	a := NewArena(&namedVariant{wordVariant: wordVariant{word: "a"}, command: "alpha"}, testSettings(), m, &fakeScores{})
	require.NoError(t, r.Register(b))
	require.NoError(t, r.Register(a))

	assert.Equal(t, 2, r.Count())
	assert.Equal(t, []string{"alpha", "beta"}, r.Commands())
	assert.Equal(t, []*Arena{a, b}, r.List())

	got, ok := r.Get("alpha")
	require.True(t, ok)
	assert.Same(t, a, got)

	_, ok = r.Get("gamma")
	assert.False(t, ok)

	assert.True(t, r.Unregister("alpha"))
	assert.False(t, r.Unregister("alpha"))
	assert.Equal(t, 1, r.Count())
}

func TestRegistryQuietEndAll(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry()
	m := &fakeMessenger{}

	a := NewArena(&namedVariant{wordVariant: wordVariant{word: "a"}, command: "alpha"}, testSettings(), m, &fakeScores{})
	b := NewArena(&namedVariant{wordVariant: wordVariant{word: "b"}, command: "beta"}, testSettings(), m, &fakeScores{})
	require.NoError(t, r.Register(a))
	require.NoError(t, r.Register(b))

	_, err := a.Start(ctx, 1, alice)
	require.NoError(t, err)
	_, err = b.Start(ctx, 1, alice)
	require.NoError(t, err)

	display := a.sessions[1].display.MessageID
	assert.Equal(t, 1, r.QuietEndAll(ctx, 1, display))
	assert.False(t, a.IsRunning(1))
	assert.True(t, b.IsRunning(1))
}

func TestRegistryJanitor(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := NewRegistry()
	clk := clock.NewMock()
	a := NewArena(&wordVariant{word: "go"}, testSettings(), &fakeMessenger{}, &fakeScores{}, WithClock(clk))
	require.NoError(t, r.Register(a))

	_, err := a.Show(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 1, a.SessionCount())
	clk.Add(time.Hour)

	done := make(chan struct{})
	go func() {
		r.RunJanitor(ctx, 5*time.Millisecond, time.Minute)
		close(done)
	}()

	require.Eventually(t, func() bool { return a.SessionCount() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}
