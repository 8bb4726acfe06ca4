package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/werdnum/telegram-bot-api-mock/internal/bot"
	"github.com/werdnum/telegram-bot-api-mock/internal/logger"
	"github.com/werdnum/telegram-bot-api-mock/pkg/constants"
)

var (
	echoToken    string
	echoURL      string
	echoInterval time.Duration
	echoDebug    bool
)

var echoCmd = &cobra.Command{
	Use:   "echo",
	Short: "Run an echo bot against a mock server",
	Long: `Run a Bot API client that polls getUpdates and echoes every text message
back as a reply. Useful for checking a running mock by hand:

  telegram-mock echo --token 123:abc &
  curl -d '{"bot_token":"123:abc","chat_id":1,"text":"hi"}' \
       localhost:9000/client/sendMessage`,
	RunE: func(cmd *cobra.Command, args []string) error {
		level := "info"
		if echoDebug {
			level = "debug"
		}
		if err := logger.InitLogger(logger.Config{Level: level, EnableStdout: true}); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return bot.RunEcho(ctx, echoToken, echoURL, echoInterval)
	},
}

func init() {
	echoCmd.Flags().StringVarP(&echoToken, "token", "t", "", "Bot token, e.g. 123456789:ABCdef")
	echoCmd.Flags().StringVar(&echoURL, "url", defaultServerURL, "Base URL of the mock server")
	echoCmd.Flags().DurationVar(&echoInterval, "interval", constants.DefaultPollInterval, "Delay between getUpdates calls")
	echoCmd.Flags().BoolVar(&echoDebug, "debug", false, "Enable debug logging")
	_ = echoCmd.MarkFlagRequired("token")
}
