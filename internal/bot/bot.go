// Package bot runs the game engine on Telegram.
package bot

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"chat-minigame-bot/internal/config"
	"chat-minigame-bot/internal/game"
	"chat-minigame-bot/internal/handler"
)

// Dispatcher executes parsed commands.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd handler.Command) error
	Commands() []string
}

// Bot wraps the telebot instance with application dependencies.
type Bot struct {
	bot    *tele.Bot
	cfg    *config.Config
	router Dispatcher
}

// NewTeleBot creates the telebot client. It is separate from New so the
// client can back the Messenger before the router exists.
func NewTeleBot(cfg *config.Config) (*tele.Bot, error) {
	if cfg.Bot.TelegramToken == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	teleBot, err := tele.NewBot(tele.Settings{
		Token:  cfg.Bot.TelegramToken,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
		OnError: logHandlerError,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	return teleBot, nil
}

// logHandlerError is the single place a failed command is logged.
func logHandlerError(err error, c tele.Context) {
	event := log.Error().Err(err)
	if c != nil {
		if chat := c.Chat(); chat != nil {
			event = event.Int64("chat_id", chat.ID)
		}
		if sender := c.Sender(); sender != nil {
			event = event.Int64("user_id", sender.ID)
		}
		event = event.Str("text", c.Text())
	}
	event.Msg("Telegram handler error")
}

// New mounts every router command on teleBot.
func New(teleBot *tele.Bot, cfg *config.Config, router Dispatcher) *Bot {
	b := &Bot{
		bot:    teleBot,
		cfg:    cfg,
		router: router,
	}

	b.bot.Use(RecoveryMiddleware())
	b.bot.Use(WhitelistMiddleware(cfg, newPrivateUsers()))
	b.bot.Use(LoggingMiddleware())

	for _, name := range router.Commands() {
		b.bot.Handle("/"+name, b.handleCommand)
	}
	return b
}

// handleCommand converts a Telegram update into a handler.Command.
func (b *Bot) handleCommand(c tele.Context) error {
	chat, sender := c.Chat(), c.Sender()
	if chat == nil || sender == nil {
		return nil
	}

	name, args, ok := handler.ParseCommand(c.Text(), "/")
	if !ok {
		return nil
	}

	return b.router.Dispatch(context.Background(), handler.Command{
		ChannelID: game.ChannelID(chat.ID),
		Player:    PlayerFromUser(sender),
		Name:      name,
		Args:      args,
	})
}

// PlayerFromUser maps a Telegram user onto a game player.
func PlayerFromUser(u *tele.User) game.Player {
	name := u.Username
	if name == "" {
		name = u.FirstName
	}
	return game.Player{ID: u.ID, Name: name}
}

// Start starts the bot polling. It blocks until Stop is called.
func (b *Bot) Start() {
	log.Info().Strs("commands", b.router.Commands()).Msg("Starting Telegram bot...")
	b.bot.Start()
}

// Stop stops the bot gracefully.
func (b *Bot) Stop() {
	log.Info().Msg("Stopping Telegram bot...")
	b.bot.Stop()
}

// api is the part of *tele.Bot the Messenger uses.
type api interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	Edit(msg tele.Editable, what interface{}, opts ...interface{}) (*tele.Message, error)
	Delete(msg tele.Editable) error
}

// Messenger implements game.Messenger on top of the Bot API.
type Messenger struct {
	api api
}

// NewMessenger creates a Messenger.
func NewMessenger(teleBot *tele.Bot) *Messenger {
	return &Messenger{api: teleBot}
}

var _ game.Messenger = (*Messenger)(nil)

// Send posts text to a chat.
func (m *Messenger) Send(_ context.Context, ch game.ChannelID, text string) (game.MessageRef, error) {
	msg, err := m.api.Send(&tele.Chat{ID: int64(ch)}, text)
	if err != nil {
		return game.MessageRef{}, fmt.Errorf("telegram send: %w", err)
	}
	return game.MessageRef{ChannelID: ch, MessageID: strconv.Itoa(msg.ID)}, nil
}

// Edit replaces the text of a message the bot sent.
func (m *Messenger) Edit(_ context.Context, ref game.MessageRef, text string) error {
	if _, err := m.api.Edit(stored(ref), text); err != nil {
		return fmt.Errorf("telegram edit: %w", err)
	}
	return nil
}

// Delete removes a message the bot sent.
func (m *Messenger) Delete(_ context.Context, ref game.MessageRef) error {
	if err := m.api.Delete(stored(ref)); err != nil {
		return fmt.Errorf("telegram delete: %w", err)
	}
	return nil
}

func stored(ref game.MessageRef) tele.StoredMessage {
	return tele.StoredMessage{MessageID: ref.MessageID, ChatID: int64(ref.ChannelID)}
}
