package handler

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"chat-minigame-bot/internal/game"
)

// GameHandler maps game subcommands onto an Arena.
type GameHandler struct {
	messenger game.Messenger
	prefix    string
}

// NewGameHandler creates a new GameHandler. prefix is shown in usage hints.
func NewGameHandler(messenger game.Messenger, prefix string) *GameHandler {
	return &GameHandler{messenger: messenger, prefix: prefix}
}

// Handle runs one game command. Without a subcommand a round is started.
// Format: <prefix><game> [start|guess <input>|show|end]
func (h *GameHandler) Handle(ctx context.Context, arena *game.Arena, cmd Command) error {
	var (
		status game.Status
		err    error
	)

	switch cmd.Sub() {
	case "", "start", "new", "play":
		// Admission check ahead of the engine's own check.
		if arena.IsRunning(cmd.ChannelID) {
			return h.reply(ctx, cmd, fmt.Sprintf("❌ A %s game is already running here. Use %s%s show to see it.", arena.Name(), h.prefix, arena.Command()))
		}
		status, err = arena.Start(ctx, cmd.ChannelID, cmd.Player)
	case "guess", "g":
		input := cmd.Rest()
		if input == "" {
			return h.reply(ctx, cmd, fmt.Sprintf("❌ Usage: %s%s guess <answer>", h.prefix, arena.Command()))
		}
		status, err = arena.Guess(ctx, cmd.ChannelID, cmd.Player, input)
	case "show", "board":
		status, err = arena.Show(ctx, cmd.ChannelID)
	case "end", "stop", "quit":
		status, err = arena.End(ctx, cmd.ChannelID)
	default:
		return h.reply(ctx, cmd, fmt.Sprintf("❌ Unknown subcommand %q. Use %s%s start, guess <x>, show or end.", cmd.Sub(), h.prefix, arena.Command()))
	}

	log.Debug().
		Int64("channel_id", int64(cmd.ChannelID)).
		Int64("user_id", cmd.Player.ID).
		Str("game", arena.Command()).
		Str("status", status.String()).
		Bool("round_over", status.Ended()).
		Msg("Game command handled")

	if err != nil {
		return fmt.Errorf("%s %s: %w", arena.Command(), cmd.Sub(), err)
	}
	return nil
}

func (h *GameHandler) reply(ctx context.Context, cmd Command, text string) error {
	_, err := h.messenger.Send(ctx, cmd.ChannelID, text)
	return err
}
