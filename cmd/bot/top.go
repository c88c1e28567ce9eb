package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"chat-minigame-bot/internal/handler"
	"chat-minigame-bot/internal/service"
)

var (
	flagTopLimit int
	flagTopDaily bool
)

var topCmd = &cobra.Command{
	Use:   "top",
	Short: "Print a leaderboard",
	Long: `Print the all-time leaderboard, or today's with --daily.

Examples:
  bot top
  bot top --daily --limit 3`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		backend, closeBackend, err := openBackend(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer closeBackend()

		loc, err := cfg.Storage.Location()
		if err != nil {
			return err
		}
		scores := service.NewScoreService(backend, loc)

		if flagTopDaily {
			ranks, err := scores.DailyTop(cmd.Context(), flagTopLimit)
			if err != nil {
				return err
			}
			fmt.Println(handler.FormatLeaderboard("Today ("+scores.Today().Format("2006-01-02")+")", ranks))
			return nil
		}

		ranks, err := scores.TopPlayers(cmd.Context(), flagTopLimit)
		if err != nil {
			return err
		}
		fmt.Println(handler.FormatLeaderboard("All time", ranks))
		return nil
	},
}

func init() {
	topCmd.Flags().IntVar(&flagTopLimit, "limit", service.DefaultLeaderboardSize, "Number of players to show")
	topCmd.Flags().BoolVar(&flagTopDaily, "daily", false, "Show today's leaderboard")
}
