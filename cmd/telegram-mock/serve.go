package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/werdnum/telegram-bot-api-mock/internal/core"
	"github.com/werdnum/telegram-bot-api-mock/internal/logger"
)

var (
	configFile  string
	serveHost   string
	servePort   int
	serveDebug  bool
	serveDryRun bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the mock Bot API server",
	Long: `Start the mock Bot API server and block until SIGINT or SIGTERM.

Settings come from defaults, then the optional config file, then
TELEGRAM_MOCK_* environment variables, then the flags below.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := loadServeConfig(cmd)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if serveDryRun {
			fmt.Fprintf(out, "✓ Configuration is valid (listen address %s)\n", config.Address())
			return nil
		}

		if err := logger.InitLogger(config.LoggerConfig()); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger.WithFields(logrus.Fields{
			"config_file": configFile,
			"log_level":   config.LoggerConfig().Level,
			"log_file":    config.Logging.File,
		}).Info("logger-initialized")

		engine, err := core.NewEngine(config)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		fmt.Fprintf(out, "telegram-mock listening on http://%s\n", config.Address())
		fmt.Fprintln(out, "Press Ctrl+C to stop")

		if err := engine.Run(ctx); err != nil {
			return fmt.Errorf("engine error: %w", err)
		}
		fmt.Fprintln(out, "telegram-mock stopped")
		return nil
	},
}

// loadServeConfig loads the configuration and lets explicitly set flags win
func loadServeConfig(cmd *cobra.Command) (*core.Config, error) {
	config, err := core.LoadConfig(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("host") {
		config.Host = serveHost
	}
	if flags.Changed("port") {
		config.Port = servePort
	}
	if flags.Changed("debug") {
		config.Debug = serveDebug
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

func init() {
	serveCmd.Flags().StringVarP(&configFile, "config", "c", "", "Configuration file path (optional)")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Address to listen on")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on")
	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Enable debug logging")
	serveCmd.Flags().BoolVar(&serveDryRun, "validate", false, "Validate configuration and exit")
}
