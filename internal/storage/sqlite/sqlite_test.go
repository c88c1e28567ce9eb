package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-minigame-bot/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "scores.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreOpenCreatesFile(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "dir", "test.db")

	store, err := Open(dbPath)
	require.NoError(t, err)
	defer store.Close()

	_, err = os.Stat(dbPath)
	assert.NoError(t, err)
}

func TestStoreReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := Open(dbPath)
	require.NoError(t, err)
	_, err = store.AddPoints(ctx, 1, "alice", 10, "hangman")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = Open(dbPath)
	require.NoError(t, err)
	defer store.Close()

	player, err := store.GetPlayer(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(10), player.Points)
}

func TestStoreAddPoints(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	player, err := store.AddPoints(ctx, 7, "alice", 300, "hangman")
	require.NoError(t, err)
	assert.Equal(t, int64(300), player.Points)
	assert.Equal(t, "alice", player.Username)

	player, err = store.AddPoints(ctx, 7, "", -100, model.ReasonAdmin)
	require.NoError(t, err)
	assert.Equal(t, int64(200), player.Points)
	assert.Equal(t, "alice", player.Username)

	player, err = store.AddPoints(ctx, 7, "alice2", 1, "anagram")
	require.NoError(t, err)
	assert.Equal(t, "alice2", player.Username)
}

func TestStoreGetPlayerNotFound(t *testing.T) {
	store := openTestStore(t)

	_, err := store.GetPlayer(context.Background(), 99)
	assert.ErrorIs(t, err, model.ErrPlayerNotFound)
}

func TestStoreTopPlayers(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	for i, pts := range []int64{100, 500, 300, 500} {
		_, err := store.AddPoints(ctx, int64(i+1), "", pts, "voltorb")
		require.NoError(t, err)
	}

	top, err := store.TopPlayers(ctx, 3)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, []int64{2, 4, 3}, []int64{top[0].PlayerID, top[1].PlayerID, top[2].PlayerID})
}

func TestStoreDailyTop(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	at := func(ts time.Time) { store.now = func() time.Time { return ts } }

	at(day.Add(-time.Minute))
	_, err := store.AddPoints(ctx, 1, "alice", 1000, "hangman")
	require.NoError(t, err)

	at(day.Add(time.Hour))
	_, err = store.AddPoints(ctx, 1, "alice", 50, "hangman")
	require.NoError(t, err)
	_, err = store.AddPoints(ctx, 2, "bob", 80, "anagram")
	require.NoError(t, err)
	_, err = store.AddPoints(ctx, 3, "carol", 10, "q20")
	require.NoError(t, err)
	_, err = store.AddPoints(ctx, 3, "carol", -10, model.ReasonAdmin)
	require.NoError(t, err)

	at(day.Add(24 * time.Hour))
	_, err = store.AddPoints(ctx, 2, "bob", 1000, "anagram")
	require.NoError(t, err)

	top, err := store.DailyTop(ctx, day, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, model.Rank{PlayerID: 2, Username: "bob", Points: 80}, *top[0])
	assert.Equal(t, model.Rank{PlayerID: 1, Username: "alice", Points: 50}, *top[1])
}

func TestStoreDailyTopCoversLongDSTDay(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// Clocks fall back on this date, so the local day lasts 25 hours.
	day := time.Date(2024, 11, 3, 0, 0, 0, 0, ny)
	store.now = func() time.Time { return time.Date(2024, 11, 3, 23, 30, 0, 0, ny) }
	_, err = store.AddPoints(ctx, 1, "alice", 70, "hangman")
	require.NoError(t, err)

	store.now = func() time.Time { return time.Date(2024, 11, 4, 0, 30, 0, 0, ny) }
	_, err = store.AddPoints(ctx, 2, "bob", 90, "hangman")
	require.NoError(t, err)

	top, err := store.DailyTop(ctx, day, 10)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, model.Rank{PlayerID: 1, Username: "alice", Points: 70}, *top[0])
}
