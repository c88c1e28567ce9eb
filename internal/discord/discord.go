// Package discord runs the game engine on Discord.
package discord

import (
	"context"
	"fmt"
	"strconv"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"chat-minigame-bot/internal/config"
	"chat-minigame-bot/internal/game"
	"chat-minigame-bot/internal/handler"
)

// Dispatcher executes parsed commands.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd handler.Command) error
}

// QuietEnder ends rounds whose board message was deleted.
type QuietEnder interface {
	QuietEndAll(ctx context.Context, ch game.ChannelID, messageID string) int
}

// Bot connects a discordgo session to the router.
type Bot struct {
	session *discordgo.Session
	cfg     *config.Config
	router  Dispatcher
	games   QuietEnder
}

// NewSession creates the discordgo session with the intents the bot needs.
func NewSession(cfg *config.Config) (*discordgo.Session, error) {
	if cfg.Bot.DiscordToken == "" {
		return nil, fmt.Errorf("discord token is required")
	}
	s, err := discordgo.New("Bot " + cfg.Bot.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsMessageContent
	return s, nil
}

// New registers the message handlers on session.
func New(session *discordgo.Session, cfg *config.Config, router Dispatcher, games QuietEnder) *Bot {
	b := &Bot{
		session: session,
		cfg:     cfg,
		router:  router,
		games:   games,
	}
	session.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Message == nil {
			return
		}
		if err := b.onMessage(context.Background(), m.Message); err != nil {
			log.Error().Err(err).Str("channel_id", m.ChannelID).Str("text", m.Content).Msg("Discord handler error")
		}
	})
	session.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageDelete) {
		if m.Message == nil {
			return
		}
		b.onDelete(context.Background(), m.Message)
	})
	return b
}

// Start opens the gateway connection.
func (b *Bot) Start() error {
	log.Info().Str("prefix", b.cfg.Bot.Prefix).Msg("Starting Discord bot...")
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord gateway: %w", err)
	}
	return nil
}

// Stop closes the gateway connection.
func (b *Bot) Stop() {
	log.Info().Msg("Stopping Discord bot...")
	if err := b.session.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close discord session")
	}
}

func (b *Bot) onMessage(ctx context.Context, m *discordgo.Message) error {
	if m.Author == nil || m.Author.Bot {
		return nil
	}

	name, args, ok := handler.ParseCommand(m.Content, b.cfg.CommandPrefix())
	if !ok {
		return nil
	}

	channelID, err := strconv.ParseInt(m.ChannelID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid channel id %q: %w", m.ChannelID, err)
	}
	userID, err := strconv.ParseInt(m.Author.ID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid user id %q: %w", m.Author.ID, err)
	}

	if !b.cfg.IsChatAllowed(channelID) {
		log.Debug().Int64("channel_id", channelID).Msg("Ignoring command from non-whitelisted channel")
		return nil
	}

	log.Debug().
		Int64("user_id", userID).
		Str("username", m.Author.Username).
		Int64("channel_id", channelID).
		Str("text", m.Content).
		Msg("Received message")

	return b.router.Dispatch(ctx, handler.Command{
		ChannelID: game.ChannelID(channelID),
		Player:    game.Player{ID: userID, Name: m.Author.Username},
		Name:      name,
		Args:      args,
	})
}

func (b *Bot) onDelete(ctx context.Context, m *discordgo.Message) {
	channelID, err := strconv.ParseInt(m.ChannelID, 10, 64)
	if err != nil {
		return
	}
	if n := b.games.QuietEndAll(ctx, game.ChannelID(channelID), m.ID); n > 0 {
		log.Info().
			Int64("channel_id", channelID).
			Str("message_id", m.ID).
			Int("games", n).
			Msg("Board deleted, round ended")
	}
}

// api is the part of *discordgo.Session the Messenger uses.
type api interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEdit(channelID, messageID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
}

// Messenger implements game.Messenger on top of the Discord REST API.
type Messenger struct {
	api api
}

// NewMessenger creates a Messenger.
func NewMessenger(session *discordgo.Session) *Messenger {
	return &Messenger{api: session}
}

var _ game.Messenger = (*Messenger)(nil)

// Send posts text to a channel.
func (m *Messenger) Send(ctx context.Context, ch game.ChannelID, text string) (game.MessageRef, error) {
	msg, err := m.api.ChannelMessageSend(channelString(ch), text, discordgo.WithContext(ctx))
	if err != nil {
		return game.MessageRef{}, fmt.Errorf("discord send: %w", err)
	}
	return game.MessageRef{ChannelID: ch, MessageID: msg.ID}, nil
}

// Edit replaces the text of a message the bot sent.
func (m *Messenger) Edit(ctx context.Context, ref game.MessageRef, text string) error {
	if _, err := m.api.ChannelMessageEdit(channelString(ref.ChannelID), ref.MessageID, text, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord edit: %w", err)
	}
	return nil
}

// Delete removes a message the bot sent.
func (m *Messenger) Delete(ctx context.Context, ref game.MessageRef) error {
	if err := m.api.ChannelMessageDelete(channelString(ref.ChannelID), ref.MessageID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord delete: %w", err)
	}
	return nil
}

func channelString(ch game.ChannelID) string {
	return strconv.FormatInt(int64(ch), 10)
}
