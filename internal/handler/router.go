// Package handler turns parsed chat commands into engine and service calls.
// It does not know which chat platform a command came from; transports
// parse their native updates into a Command and call Router.Dispatch.
package handler

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"chat-minigame-bot/internal/config"
	"chat-minigame-bot/internal/game"
	"chat-minigame-bot/internal/service"
)

// Command is one chat command, e.g. "/hangman guess e" or "!hangman guess e".
type Command struct {
	ChannelID game.ChannelID
	Player    game.Player
	Name      string
	Args      []string
}

// Sub returns the first argument lowercased, or "".
func (c Command) Sub() string {
	if len(c.Args) == 0 {
		return ""
	}
	return strings.ToLower(c.Args[0])
}

// Rest returns the arguments after the subcommand joined by spaces.
func (c Command) Rest() string {
	if len(c.Args) < 2 {
		return ""
	}
	return strings.Join(c.Args[1:], " ")
}

// ParseCommand splits text like "!hangman guess e" into a command name and
// arguments. The prefix must match; a "@botname" suffix on the name is
// dropped.
func ParseCommand(text, prefix string) (name string, args []string, ok bool) {
	text = strings.TrimSpace(text)
	if prefix == "" || !strings.HasPrefix(text, prefix) {
		return "", nil, false
	}
	fields := strings.Fields(strings.TrimPrefix(text, prefix))
	if len(fields) == 0 {
		return "", nil, false
	}
	name, _, _ = strings.Cut(fields[0], "@")
	name = strings.ToLower(name)
	if name == "" {
		return "", nil, false
	}
	return name, fields[1:], true
}

// HandlerFunc handles one command.
type HandlerFunc func(ctx context.Context, cmd Command) error

type route struct {
	handle HandlerFunc
	admin  bool
	usage  string
}

// Router maps command names to handlers.
type Router struct {
	cfg       *config.Config
	messenger game.Messenger
	registry  *game.Registry
	prefix    string
	routes    map[string]route
}

// NewRouter wires every game in the registry plus the score, admin and help
// commands.
func NewRouter(cfg *config.Config, messenger game.Messenger, registry *game.Registry, scores *service.ScoreService) *Router {
	r := &Router{
		cfg:       cfg,
		messenger: messenger,
		registry:  registry,
		prefix:    cfg.CommandPrefix(),
		routes:    make(map[string]route),
	}

	games := NewGameHandler(messenger, r.prefix)
	for _, a := range registry.List() {
		arena := a
		r.Handle(arena.Command(), func(ctx context.Context, cmd Command) error {
			return games.Handle(ctx, arena, cmd)
		}, fmt.Sprintf("play %s (start, guess <x>, show, end)", arena.Name()))
	}

	scoreHandler := NewScoreHandler(scores, messenger)
	r.Handle("top", scoreHandler.HandleTop, "all-time leaderboard")
	r.Handle("daily_top", scoreHandler.HandleDailyTop, "today's leaderboard")
	r.Handle("score", scoreHandler.HandleScore, "your points")

	admin := NewAdminHandler(scores, registry, messenger, r.prefix)
	r.HandleAdmin("admin_award", admin.HandleAward, "<user_id> <amount>")
	r.HandleAdmin("admin_abort", admin.HandleAbort, "<game>")

	r.Handle("help", r.handleHelp, "this message")
	r.Handle("start", r.handleHelp, "")
	return r
}

// Handle registers a public command.
func (r *Router) Handle(name string, fn HandlerFunc, usage string) {
	r.routes[name] = route{handle: fn, usage: usage}
}

// HandleAdmin registers a command restricted to admin.ids.
func (r *Router) HandleAdmin(name string, fn HandlerFunc, usage string) {
	r.routes[name] = route{handle: fn, admin: true, usage: usage}
}

// Prefix returns the command prefix shown in help and usage hints.
func (r *Router) Prefix() string {
	return r.prefix
}

// Commands returns every registered command name, sorted.
func (r *Router) Commands() []string {
	names := make([]string, 0, len(r.routes))
	for name := range r.routes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch runs the handler for cmd. Unknown commands are ignored so the
// bot stays quiet when it shares a chat with other bots. Handler errors
// are returned unlogged; the transport logs them.
func (r *Router) Dispatch(ctx context.Context, cmd Command) error {
	rt, ok := r.routes[cmd.Name]
	if !ok {
		return nil
	}

	if rt.admin && !r.cfg.IsAdmin(cmd.Player.ID) {
		log.Warn().
			Int64("user_id", cmd.Player.ID).
			Str("command", cmd.Name).
			Msg("Unauthorized admin command attempt")
		return r.reply(ctx, cmd, "❌ You are not allowed to use this command.")
	}

	if err := rt.handle(ctx, cmd); err != nil {
		return fmt.Errorf("%s: %w", cmd.Name, err)
	}
	return nil
}

func (r *Router) handleHelp(ctx context.Context, cmd Command) error {
	var b strings.Builder
	b.WriteString("🎮 Minigames\n")
	for _, a := range r.registry.List() {
		fmt.Fprintf(&b, "\n%s%s: %s", r.prefix, a.Command(), r.routes[a.Command()].usage)
	}
	b.WriteString("\n\n📊 Scores\n")
	for _, name := range []string{"top", "daily_top", "score"} {
		fmt.Fprintf(&b, "\n%s%s: %s", r.prefix, name, r.routes[name].usage)
	}
	if r.cfg.IsAdmin(cmd.Player.ID) {
		b.WriteString("\n\n🔧 Admin\n")
		for _, name := range []string{"admin_award", "admin_abort"} {
			fmt.Fprintf(&b, "\n%s%s %s", r.prefix, name, r.routes[name].usage)
		}
	}
	return r.reply(ctx, cmd, b.String())
}

func (r *Router) reply(ctx context.Context, cmd Command, text string) error {
	_, err := r.messenger.Send(ctx, cmd.ChannelID, text)
	return err
}
