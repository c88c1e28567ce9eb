package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"chat-minigame-bot/internal/game"
	"chat-minigame-bot/internal/model"
	"chat-minigame-bot/internal/service"
)

// maxLeaderboardSize caps the rows a user can ask for.
const maxLeaderboardSize = 25

// ScoreHandler handles leaderboard commands.
type ScoreHandler struct {
	scores    *service.ScoreService
	messenger game.Messenger
}

// NewScoreHandler creates a new ScoreHandler.
func NewScoreHandler(scores *service.ScoreService, messenger game.Messenger) *ScoreHandler {
	return &ScoreHandler{scores: scores, messenger: messenger}
}

// HandleTop handles the /top command.
// Format: /top [limit]
func (h *ScoreHandler) HandleTop(ctx context.Context, cmd Command) error {
	limit, ok := parseLimit(cmd)
	if !ok {
		return h.reply(ctx, cmd, fmt.Sprintf("❌ Usage: /top [1-%d]", maxLeaderboardSize))
	}

	ranks, err := h.scores.TopPlayers(ctx, limit)
	if err != nil {
		_ = h.reply(ctx, cmd, "❌ Failed to load the leaderboard, please try again later.")
		return err
	}
	return h.reply(ctx, cmd, FormatLeaderboard("🏆 All-time leaderboard", ranks))
}

// HandleDailyTop handles the /daily_top command.
// Format: /daily_top [limit]
func (h *ScoreHandler) HandleDailyTop(ctx context.Context, cmd Command) error {
	limit, ok := parseLimit(cmd)
	if !ok {
		return h.reply(ctx, cmd, fmt.Sprintf("❌ Usage: /daily_top [1-%d]", maxLeaderboardSize))
	}

	ranks, err := h.scores.DailyTop(ctx, limit)
	if err != nil {
		_ = h.reply(ctx, cmd, "❌ Failed to load the leaderboard, please try again later.")
		return err
	}
	title := fmt.Sprintf("📊 Today's leaderboard (%s)", h.scores.Today().Format("2006-01-02"))
	return h.reply(ctx, cmd, FormatLeaderboard(title, ranks))
}

// HandleScore handles the /score command.
// Format: /score [user_id]
func (h *ScoreHandler) HandleScore(ctx context.Context, cmd Command) error {
	target := cmd.Player.ID
	if len(cmd.Args) > 0 {
		id, err := strconv.ParseInt(cmd.Args[0], 10, 64)
		if err != nil {
			return h.reply(ctx, cmd, "❌ Usage: /score [user_id]")
		}
		target = id
	}

	player, err := h.scores.GetScore(ctx, target)
	if errors.Is(err, model.ErrPlayerNotFound) {
		return h.reply(ctx, cmd, "🎯 No points yet. Win a game to get on the board!")
	}
	if err != nil {
		_ = h.reply(ctx, cmd, "❌ Failed to load the score, please try again later.")
		return err
	}

	name := player.Username
	if name == "" {
		name = game.Player{ID: player.ID}.DisplayName()
	}
	return h.reply(ctx, cmd, fmt.Sprintf("🎯 %s has %d points.", name, player.Points))
}

// FormatLeaderboard renders ranks with medals for the top three.
func FormatLeaderboard(title string, ranks []*model.Rank) string {
	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n━━━━━━━━━━━━━━━")
	if len(ranks) == 0 {
		b.WriteString("\nNo scores yet.")
		return b.String()
	}

	medals := []string{"🥇", "🥈", "🥉"}
	for i, r := range ranks {
		pos := fmt.Sprintf("%d.", i+1)
		if i < len(medals) {
			pos = medals[i]
		}
		name := r.Username
		if name == "" {
			name = game.Player{ID: r.PlayerID}.DisplayName()
		}
		fmt.Fprintf(&b, "\n%s %s: %d", pos, name, r.Points)
	}
	return b.String()
}

func parseLimit(cmd Command) (int, bool) {
	if len(cmd.Args) == 0 {
		return service.DefaultLeaderboardSize, true
	}
	n, err := strconv.Atoi(cmd.Args[0])
	if err != nil || n < 1 || n > maxLeaderboardSize {
		return 0, false
	}
	return n, true
}

func (h *ScoreHandler) reply(ctx context.Context, cmd Command, text string) error {
	_, err := h.messenger.Send(ctx, cmd.ChannelID, text)
	return err
}
