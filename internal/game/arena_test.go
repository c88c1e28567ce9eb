package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var (
	alice = Player{ID: 1, Name: "alice"}
	bob   = Player{ID: 2, Name: "bob"}
)

func newTestArena(settings Settings) (*Arena, *fakeMessenger, *fakeScores, *clock.Mock) {
	m := &fakeMessenger{}
	s := &fakeScores{}
	clk := clock.NewMock()
	a := NewArena(&wordVariant{word: "gopher"}, settings, m, s, WithClock(clk))
	return a, m, s, clk
}

func testSettings() Settings {
	return Settings{Timeout: 90 * time.Second, MaxScore: 1000, MaxAttempts: 3}
}

func TestArenaStartSendsBoard(t *testing.T) {
	ctx := context.Background()
	a, m, _, _ := newTestArena(testSettings())

	status, err := a.Start(ctx, 10, alice)
	require.NoError(t, err)
	assert.Equal(t, StatusStarted, status)
	assert.True(t, a.IsRunning(10))
	assert.False(t, a.IsRunning(11))

	last := m.lastSent()
	assert.Contains(t, last.Text, "Word")
	assert.Contains(t, last.Text, "_ _ _ _ _ _")
	assert.Contains(t, last.Text, "Attempts left: 3")
}

// TestArenaConcurrentStart checks that exactly one of many concurrent starts
// on the same channel wins.
func TestArenaConcurrentStart(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ctx := context.Background()
		a, m, _, _ := newTestArena(testSettings())
		n := rapid.IntRange(2, 16).Draw(t, "callers")

		var wg sync.WaitGroup
		statuses := make([]Status, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				statuses[i], _ = a.Start(ctx, 42, Player{ID: int64(i + 1)})
			}(i)
		}
		wg.Wait()

		started, rejected := 0, 0
		for _, s := range statuses {
			switch s {
			case StatusStarted:
				started++
			case StatusAlreadyRunning:
				rejected++
			}
		}
		if started != 1 || rejected != n-1 {
			t.Fatalf("expected 1 start and %d rejections, got %d and %d", n-1, started, rejected)
		}
		if got := m.countContaining("already running"); got != n-1 {
			t.Fatalf("expected %d already-running notices, got %d", n-1, got)
		}
	})
}

// TestArenaNotRunningIsNoOp checks guess, end and show without a round.
func TestArenaNotRunningIsNoOp(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ctx := context.Background()
		a, m, s, _ := newTestArena(testSettings())
		ch := ChannelID(rapid.Int64Range(1, 1<<40).Draw(t, "channel"))
		op := rapid.IntRange(0, 2).Draw(t, "op")

		var status Status
		var err error
		switch op {
		case 0:
			status, err = a.Guess(ctx, ch, alice, rapid.String().Draw(t, "input"))
		case 1:
			status, err = a.End(ctx, ch)
		case 2:
			status, err = a.Show(ctx, ch)
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if status != StatusNotRunning {
			t.Fatalf("expected not_running, got %s", status)
		}
		if a.IsRunning(ch) {
			t.Fatal("round started by a no-op call")
		}
		if m.countContaining("no Word game in progress") != 1 || m.sentCount() != 1 {
			t.Fatalf("expected exactly one not-running notice, got %d messages", m.sentCount())
		}
		if len(s.list()) != 0 {
			t.Fatal("no-op call awarded points")
		}

		sess := a.sessions[ch]
		if sess.puzzle != nil || sess.display != nil || len(sess.participants) != 0 || sess.attempts != 0 {
			t.Fatal("no-op call mutated the session")
		}
	})
}

func TestArenaTimeoutFiresOnce(t *testing.T) {
	ctx := context.Background()
	a, m, s, clk := newTestArena(testSettings())

	_, err := a.Start(ctx, 7, alice)
	require.NoError(t, err)
	_, err = a.Guess(ctx, 7, alice, "wrong")
	require.NoError(t, err)

	clk.Add(89 * time.Second)
	assert.True(t, a.IsRunning(7))

	clk.Add(time.Second)
	require.Eventually(t, func() bool { return !a.IsRunning(7) }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return m.countContaining("Game over") == 1 }, time.Second, 5*time.Millisecond)

	clk.Add(10 * time.Minute)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, m.countContaining("Game over"))
	assert.Empty(t, s.list())
}

// TestArenaStaleTimerAfterWin fires the timeout callback of a round that was
// already won and expects nothing to happen.
func TestArenaStaleTimerAfterWin(t *testing.T) {
	ctx := context.Background()
	a, m, s, _ := newTestArena(testSettings())

	_, err := a.Start(ctx, 3, alice)
	require.NoError(t, err)
	round := a.sessions[3].round

	status, err := a.Guess(ctx, 3, alice, "gopher")
	require.NoError(t, err)
	require.Equal(t, StatusWon, status)

	sent := m.sentCount()
	a.expire(3, round)

	assert.Equal(t, sent, m.sentCount())
	assert.Len(t, s.list(), 1)
	assert.Equal(t, 0, m.countContaining("Game over"))
}

func TestArenaStaleTimerDoesNotEndNextRound(t *testing.T) {
	ctx := context.Background()
	a, _, _, _ := newTestArena(testSettings())

	_, err := a.Start(ctx, 3, alice)
	require.NoError(t, err)
	old := a.sessions[3].round

	_, err = a.End(ctx, 3)
	require.NoError(t, err)
	_, err = a.Start(ctx, 3, bob)
	require.NoError(t, err)

	a.expire(3, old)
	assert.True(t, a.IsRunning(3))
}

func TestArenaWinAtStartAwardsMaxScore(t *testing.T) {
	ctx := context.Background()
	a, m, s, _ := newTestArena(testSettings())

	_, err := a.Start(ctx, 1, alice)
	require.NoError(t, err)
	status, err := a.Guess(ctx, 1, alice, "GOPHER")
	require.NoError(t, err)
	assert.Equal(t, StatusWon, status)

	awards := s.list()
	require.Len(t, awards, 1)
	assert.Equal(t, alice, awards[0].Player)
	assert.Equal(t, int64(1000), awards[0].Amount)
	assert.Equal(t, "word", awards[0].Reason)
	assert.Equal(t, 1, m.countContaining("alice solved the Word"))
	assert.False(t, a.IsRunning(1))

	// The display message is edited to reveal the solution.
	require.NotEmpty(t, m.edits)
	assert.Contains(t, m.edits[len(m.edits)-1].Text, "GOPHER")
}

func TestArenaPooledAward(t *testing.T) {
	ctx := context.Background()
	settings := testSettings()
	settings.WinnerBonus = 50
	a, _, s, clk := newTestArena(settings)

	_, err := a.Start(ctx, 1, alice)
	require.NoError(t, err)
	_, err = a.Guess(ctx, 1, alice, "hint")
	require.NoError(t, err)

	clk.Add(60 * time.Second)
	status, err := a.Guess(ctx, 1, bob, "gopher")
	require.NoError(t, err)
	require.Equal(t, StatusWon, status)

	// ceil(1000 * 30/90) = 334, split in two = 167.
	awards := s.list()
	require.Len(t, awards, 2)
	got := map[int64]int64{}
	for _, aw := range awards {
		got[aw.Player.ID] = aw.Amount
	}
	assert.Equal(t, int64(167), got[alice.ID])
	assert.Equal(t, int64(167+50), got[bob.ID])
}

func TestArenaInvalidAndDuplicateGuesses(t *testing.T) {
	ctx := context.Background()
	a, m, _, _ := newTestArena(testSettings())

	_, err := a.Start(ctx, 1, alice)
	require.NoError(t, err)

	status, err := a.Guess(ctx, 1, alice, "   ")
	require.NoError(t, err)
	assert.Equal(t, StatusInvalid, status)

	status, err = a.Guess(ctx, 1, alice, "nope")
	require.NoError(t, err)
	assert.Equal(t, StatusMiss, status)

	status, err = a.Guess(ctx, 1, bob, "nope")
	require.NoError(t, err)
	assert.Equal(t, StatusDuplicate, status)

	// Invalid and duplicate guesses neither cost attempts nor add participants.
	sess := a.sessions[1]
	assert.Equal(t, 2, sess.attempts)
	assert.Equal(t, []Player{alice}, sess.participants)
	assert.Equal(t, 1, m.countContaining("not a valid guess"))
	assert.Equal(t, 1, m.countContaining("already been tried"))
}

func TestArenaAttemptsExhausted(t *testing.T) {
	ctx := context.Background()
	a, m, s, _ := newTestArena(testSettings())

	_, err := a.Start(ctx, 1, alice)
	require.NoError(t, err)

	var status Status
	for _, g := range []string{"a", "b", "c"} {
		status, err = a.Guess(ctx, 1, alice, g)
		require.NoError(t, err)
	}
	assert.Equal(t, StatusFailed, status)
	assert.False(t, a.IsRunning(1))
	assert.Equal(t, 1, m.countContaining("Game over"))
	assert.Empty(t, s.list())
}

func TestArenaHitDoesNotCostAttempt(t *testing.T) {
	ctx := context.Background()
	a, m, _, _ := newTestArena(testSettings())

	_, err := a.Start(ctx, 1, alice)
	require.NoError(t, err)
	status, err := a.Guess(ctx, 1, alice, "hint")
	require.NoError(t, err)
	assert.Equal(t, StatusHit, status)
	assert.Equal(t, 3, a.sessions[1].attempts)
	assert.Equal(t, 1, m.countContaining("It starts with g"))
}

func TestArenaBustEndsRound(t *testing.T) {
	ctx := context.Background()
	a, m, s, _ := newTestArena(testSettings())

	_, err := a.Start(ctx, 1, alice)
	require.NoError(t, err)
	status, err := a.Guess(ctx, 1, alice, "boom")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, status)
	assert.Empty(t, s.list())

	assert.Equal(t, 1, m.countContaining("💥 It blew up!"))
	assert.Equal(t, 1, m.countContaining("Game over"))
	assert.Contains(t, m.lastSent().Text, "Game over")
}

func TestArenaAbortResetsSession(t *testing.T) {
	ctx := context.Background()
	a, m, s, clk := newTestArena(testSettings())

	_, err := a.Start(ctx, 5, alice)
	require.NoError(t, err)
	_, err = a.Guess(ctx, 5, bob, "wrong")
	require.NoError(t, err)

	status, err := a.End(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, StatusAborted, status)
	assert.Equal(t, 1, m.countContaining("was ended"))

	sess := a.sessions[5]
	assert.False(t, sess.running)
	assert.Nil(t, sess.puzzle)
	assert.Nil(t, sess.timer)
	assert.Nil(t, sess.display)
	assert.Empty(t, sess.participants)
	assert.Zero(t, sess.attempts)

	// The cancelled timer never fires.
	clk.Add(5 * time.Minute)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, m.countContaining("Game over"))
	assert.Empty(t, s.list())

	status, err = a.Start(ctx, 5, bob)
	require.NoError(t, err)
	assert.Equal(t, StatusStarted, status)
}

func TestArenaShowReplacesDisplay(t *testing.T) {
	ctx := context.Background()
	a, m, _, _ := newTestArena(testSettings())

	_, err := a.Start(ctx, 1, alice)
	require.NoError(t, err)
	first := *a.sessions[1].display

	status, err := a.Show(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusShown, status)
	assert.Equal(t, []MessageRef{first}, m.deletes)

	second := *a.sessions[1].display
	assert.NotEqual(t, first.MessageID, second.MessageID)
	assert.Equal(t, m.sent[0].Text, m.lastSent().Text)
	assert.True(t, a.IsRunning(1))
}

func TestArenaShowIgnoresDeleteFailure(t *testing.T) {
	ctx := context.Background()
	a, m, _, _ := newTestArena(testSettings())

	_, err := a.Start(ctx, 1, alice)
	require.NoError(t, err)
	m.failDelete = true

	status, err := a.Show(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusShown, status)
	assert.Equal(t, 2, m.sentCount())
}

func TestArenaStartSendFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	a, m, _, _ := newTestArena(testSettings())
	m.failSend = true

	status, err := a.Start(ctx, 1, alice)
	require.ErrorIs(t, err, errTransport)
	assert.Equal(t, StatusNotRunning, status)
	assert.False(t, a.IsRunning(1))
	assert.Nil(t, a.sessions[1].timer)

	m.failSend = false
	status, err = a.Start(ctx, 1, alice)
	require.NoError(t, err)
	assert.Equal(t, StatusStarted, status)
}

func TestArenaRevealFailureStillEndsRound(t *testing.T) {
	ctx := context.Background()
	a, m, s, _ := newTestArena(testSettings())

	_, err := a.Start(ctx, 1, alice)
	require.NoError(t, err)
	m.failEdit = true
	m.failSend = true

	status, err := a.Guess(ctx, 1, alice, "gopher")
	require.Error(t, err)
	assert.Equal(t, StatusWon, status)
	assert.False(t, a.IsRunning(1))
	assert.Len(t, s.list(), 1)
}

func TestArenaAwardFailureStillEndsRound(t *testing.T) {
	ctx := context.Background()
	a, _, s, _ := newTestArena(testSettings())
	s.fail = true

	_, err := a.Start(ctx, 1, alice)
	require.NoError(t, err)
	status, err := a.Guess(ctx, 1, alice, "gopher")
	require.Error(t, err)
	assert.Equal(t, StatusWon, status)
	assert.False(t, a.IsRunning(1))
}

func TestArenaQuietEnd(t *testing.T) {
	ctx := context.Background()
	a, m, s, _ := newTestArena(testSettings())

	_, err := a.Start(ctx, 1, alice)
	require.NoError(t, err)
	display := a.sessions[1].display.MessageID
	sent := m.sentCount()

	status, err := a.QuietEnd(ctx, 1, "unrelated")
	require.NoError(t, err)
	assert.Equal(t, StatusNotRunning, status)
	assert.True(t, a.IsRunning(1))

	status, err = a.QuietEnd(ctx, 1, display)
	require.NoError(t, err)
	assert.Equal(t, StatusQuiet, status)
	assert.False(t, a.IsRunning(1))
	assert.Equal(t, sent, m.sentCount())
	assert.Empty(t, m.edits)
	assert.Empty(t, s.list())
}

func TestArenaChannelsAreIndependent(t *testing.T) {
	ctx := context.Background()
	a, _, _, _ := newTestArena(testSettings())

	_, err := a.Start(ctx, 1, alice)
	require.NoError(t, err)
	status, err := a.Start(ctx, 2, bob)
	require.NoError(t, err)
	assert.Equal(t, StatusStarted, status)

	_, err = a.End(ctx, 1)
	require.NoError(t, err)
	assert.False(t, a.IsRunning(1))
	assert.True(t, a.IsRunning(2))
}

func TestArenaOpenEndedRoundHasNoTimer(t *testing.T) {
	ctx := context.Background()
	a, _, s, clk := newTestArena(Settings{MaxScore: 1000})

	_, err := a.Start(ctx, 1, alice)
	require.NoError(t, err)
	assert.Nil(t, a.sessions[1].timer)

	clk.Add(300 * time.Second)
	_, err = a.Guess(ctx, 1, alice, "gopher")
	require.NoError(t, err)

	awards := s.list()
	require.Len(t, awards, 1)
	assert.Equal(t, int64(500), awards[0].Amount)
}

func TestArenaSweep(t *testing.T) {
	ctx := context.Background()
	a, _, _, clk := newTestArena(Settings{MaxScore: 1000})

	_, err := a.Start(ctx, 1, alice)
	require.NoError(t, err)
	_, err = a.Start(ctx, 2, alice)
	require.NoError(t, err)
	_, err = a.End(ctx, 2)
	require.NoError(t, err)

	assert.Equal(t, 0, a.Sweep(time.Hour))

	clk.Add(2 * time.Hour)
	_, err = a.Show(ctx, 3)
	require.NoError(t, err)

	// Channel 1 is running and channel 3 was just touched.
	assert.Equal(t, 1, a.Sweep(time.Hour))
	assert.Equal(t, 2, a.SessionCount())
	assert.True(t, a.IsRunning(1))
}

func TestArenaSweepLeavesNoLockEntries(t *testing.T) {
	ctx := context.Background()
	a, _, _, clk := newTestArena(Settings{MaxScore: 1000})

	for ch := ChannelID(1); ch <= 1000; ch++ {
		_, err := a.Show(ctx, ch)
		require.NoError(t, err)
	}
	assert.Equal(t, 1000, a.SessionCount())
	assert.Equal(t, 0, a.locks.Len())

	clk.Add(2 * time.Hour)
	assert.Equal(t, 1000, a.Sweep(time.Hour))
	assert.Equal(t, 0, a.SessionCount())
	assert.Equal(t, 0, a.locks.Len())
}

func TestArenaStartFailureFromVariant(t *testing.T) {
	ctx := context.Background()
	m := &fakeMessenger{}
	a := NewArena(&wordVariant{err: assert.AnError}, testSettings(), m, &fakeScores{})

	status, err := a.Start(ctx, 1, alice)
	require.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, StatusNotRunning, status)
	assert.False(t, a.IsRunning(1))
	assert.Zero(t, m.sentCount())
}
