package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "telegram-mock",
	Short: "telegram-mock is a fake Telegram Bot API server for tests",
	Long: `telegram-mock serves the Telegram Bot API over HTTP from in-memory state.

Bots under test point their API endpoint at the mock, while tests play the
user's side through the /client endpoints: sending messages, commands,
button presses and media, then inspecting what the bot replied.`,
	SilenceUsage: true,
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(echoCmd)
}
