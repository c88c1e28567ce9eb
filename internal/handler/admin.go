package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"chat-minigame-bot/internal/game"
	"chat-minigame-bot/internal/service"
)

// AdminHandler handles admin-related commands.
type AdminHandler struct {
	scores    *service.ScoreService
	registry  *game.Registry
	messenger game.Messenger
	prefix    string
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(scores *service.ScoreService, registry *game.Registry, messenger game.Messenger, prefix string) *AdminHandler {
	return &AdminHandler{scores: scores, registry: registry, messenger: messenger, prefix: prefix}
}

// HandleAward handles the /admin_award command. Negative amounts deduct.
// Format: /admin_award <user_id> <amount>
func (h *AdminHandler) HandleAward(ctx context.Context, cmd Command) error {
	if len(cmd.Args) != 2 {
		return h.reply(ctx, cmd, "❌ Usage: "+h.prefix+"admin_award <user_id> <amount>")
	}
	targetID, err := strconv.ParseInt(cmd.Args[0], 10, 64)
	if err != nil {
		return h.reply(ctx, cmd, "❌ Invalid user ID")
	}
	amount, err := strconv.ParseInt(cmd.Args[1], 10, 64)
	if err != nil {
		return h.reply(ctx, cmd, "❌ Invalid amount")
	}

	player, err := h.scores.AdminAdjust(ctx, cmd.Player.ID, targetID, amount)
	if errors.Is(err, service.ErrInvalidAmount) {
		return h.reply(ctx, cmd, "❌ Amount cannot be zero")
	}
	if err != nil {
		_ = h.reply(ctx, cmd, "❌ Operation failed, please try again later.")
		return err
	}

	log.Info().
		Int64("admin_id", cmd.Player.ID).
		Int64("target_id", targetID).
		Int64("amount", amount).
		Str("operation", "admin_award").
		Msg("Admin operation executed")

	return h.reply(ctx, cmd, fmt.Sprintf(
		"✅ Done\n\n👤 User: %d\n➕ Change: %+d\n🎯 Points: %d",
		targetID, amount, player.Points,
	))
}

// HandleAbort handles the /admin_abort command: it ends a running game in
// the current channel.
// Format: /admin_abort <game>
func (h *AdminHandler) HandleAbort(ctx context.Context, cmd Command) error {
	if len(cmd.Args) != 1 {
		return h.reply(ctx, cmd, "❌ Usage: "+h.prefix+"admin_abort <game>")
	}
	name := strings.ToLower(strings.TrimPrefix(cmd.Args[0], h.prefix))
	arena, ok := h.registry.Get(name)
	if !ok {
		return h.reply(ctx, cmd, fmt.Sprintf("❌ Unknown game %q", name))
	}

	status, err := arena.End(ctx, cmd.ChannelID)
	if err != nil {
		return err
	}

	log.Info().
		Int64("admin_id", cmd.Player.ID).
		Int64("channel_id", int64(cmd.ChannelID)).
		Str("game", name).
		Str("status", status.String()).
		Str("operation", "admin_abort").
		Msg("Admin operation executed")
	return nil
}

func (h *AdminHandler) reply(ctx context.Context, cmd Command, text string) error {
	_, err := h.messenger.Send(ctx, cmd.ChannelID, text)
	return err
}
