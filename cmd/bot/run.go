package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"chat-minigame-bot/internal/bot"
	"chat-minigame-bot/internal/config"
	"chat-minigame-bot/internal/content"
	"chat-minigame-bot/internal/discord"
	"chat-minigame-bot/internal/game"
	"chat-minigame-bot/internal/game/anagram"
	"chat-minigame-bot/internal/game/hangman"
	"chat-minigame-bot/internal/game/q20"
	"chat-minigame-bot/internal/game/trashcans"
	"chat-minigame-bot/internal/game/voltorb"
	"chat-minigame-bot/internal/handler"
	"chat-minigame-bot/internal/pkg/random"
	"chat-minigame-bot/internal/service"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Connect to the chat platform and serve games (default)",
	Args:  cobra.NoArgs,
	RunE:  runBot,
}

func runBot(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, closeBackend, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeBackend()

	loc, err := cfg.Storage.Location()
	if err != nil {
		return err
	}
	scores := service.NewScoreService(backend, loc)

	catalog, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	switch cfg.Bot.Transport {
	case config.TransportDiscord:
		session, err := discord.NewSession(cfg)
		if err != nil {
			return err
		}
		messenger := discord.NewMessenger(session)
		registry, err := buildRegistry(cfg, catalog, messenger, scores)
		if err != nil {
			return err
		}
		router := handler.NewRouter(cfg, messenger, registry, scores)
		discordBot := discord.New(session, cfg, router, registry)

		go registry.RunJanitor(ctx, cfg.Games.SweepInterval, cfg.Games.IdleAfter)
		if err := discordBot.Start(); err != nil {
			return err
		}
		<-ctx.Done()
		log.Info().Msg("Received shutdown signal")
		discordBot.Stop()

	default:
		teleBot, err := bot.NewTeleBot(cfg)
		if err != nil {
			return err
		}
		messenger := bot.NewMessenger(teleBot)
		registry, err := buildRegistry(cfg, catalog, messenger, scores)
		if err != nil {
			return err
		}
		router := handler.NewRouter(cfg, messenger, registry, scores)
		telegramBot := bot.New(teleBot, cfg, router)

		go registry.RunJanitor(ctx, cfg.Games.SweepInterval, cfg.Games.IdleAfter)
		go telegramBot.Start()
		<-ctx.Done()
		log.Info().Msg("Received shutdown signal")
		telegramBot.Stop()
	}

	log.Info().Msg("Bot stopped gracefully")
	return nil
}

func loadCatalog(cfg *config.Config) (*content.Catalog, error) {
	if cfg.Content.Path == "" {
		return content.Default()
	}
	catalog, err := content.Load(cfg.Content.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load content: %w", err)
	}
	log.Info().
		Str("path", cfg.Content.Path).
		Int("words", len(catalog.Words)).
		Int("subjects", len(catalog.Subjects)).
		Msg("Content catalog loaded")
	return catalog, nil
}

// buildRegistry creates an arena for every enabled game.
func buildRegistry(cfg *config.Config, catalog *content.Catalog, messenger game.Messenger, scores game.ScoreStore) (*game.Registry, error) {
	rng := random.NewDefault()
	variants := map[string]game.Variant{
		"hangman":   hangman.New(catalog, rng),
		"anagram":   anagram.New(catalog, rng),
		"voltorb":   voltorb.New(voltorb.DefaultLayout, rng),
		"trashcans": trashcans.New(rng),
		"q20":       q20.New(catalog, rng),
	}

	registry := game.NewRegistry()
	for command, gc := range cfg.Games.ByCommand() {
		if !gc.Enabled {
			continue
		}
		arena := game.NewArena(variants[command], gc.Settings(), messenger, scores)
		if err := registry.Register(arena); err != nil {
			return nil, fmt.Errorf("failed to register %s: %w", command, err)
		}
	}

	log.Info().
		Int("game_count", registry.Count()).
		Strs("games", registry.Commands()).
		Msg("Games registered")
	return registry, nil
}
