package commands

// Root command for Cobra CLI
// Registers the shared configuration flags and all subcommands

import (
	"hot-claimer/internal/infra/config"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "hot-claimer",
	Short: "HOT claimer - periodic HOT claims for NEAR accounts with Telegram reports",
	Long: `HOT claimer submits the "claim" call of game.hot.tg for every account in the
account file on a fixed schedule and reports each result to Telegram.`,
	Version:      "1.0.0",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	config.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(claimOnceCmd)
	rootCmd.AddCommand(accountsCmd)
	rootCmd.AddCommand(balanceCmd)
	rootCmd.AddCommand(historyCmd)
}
