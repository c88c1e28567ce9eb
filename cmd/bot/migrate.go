package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"chat-minigame-bot/internal/config"
	"chat-minigame-bot/internal/pkg/db"
	"chat-minigame-bot/internal/repository"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the PostgreSQL schema",
	Long: `Create the players and score_events tables in the database named by
the database section of the configuration. SQLite and Redis backends do not
need this step.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Storage.Driver != config.DriverPostgres {
			log.Warn().Str("storage", cfg.Storage.Driver).Msg("Migrations only apply to the postgres driver")
		}

		pool, err := db.NewPool(cmd.Context(), &cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		return repository.Migrate(cmd.Context(), pool.Pool)
	},
}
