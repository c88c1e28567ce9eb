// bot runs the chat minigame bot on Telegram or Discord.
//
// Usage:
//
//	bot [run]                   - Connect to the configured transport and serve games
//	bot migrate                 - Create the PostgreSQL schema
//	bot top [--limit n] [--daily] - Print a leaderboard
//
// Global flags:
//
//	--config <dir>  - Directory containing config.yaml (default: config)
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"chat-minigame-bot/internal/config"
)

var flagConfigDir string

func main() {
	// .env is optional
	_ = godotenv.Load()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "bot",
	Short: "Turn-based chat minigames for Telegram and Discord",
	Long: `bot hosts Hangman, Anagram, Voltorb Flip, Trashcans and 20 Questions
in group chats, keeps per-player scores and serves leaderboards.

Examples:
  bot
  bot migrate --config ./deploy
  bot top --daily --limit 5`,
	SilenceUsage: true,
	RunE:         runBot,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config", "config", "Directory containing config.yaml")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(topCmd)
}

// loadConfig reads the configuration and applies the log level.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		log.Warn().Str("level", cfg.Log.Level).Msg("Unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("transport", cfg.Bot.Transport).
		Str("storage", cfg.Storage.Driver).
		Msg("Configuration loaded successfully")
	return cfg, nil
}
