// Package core wires the mock server together.
//
// It handles:
//
//   - Configuration loading and validation (YAML file, .env, environment)
//   - Construction of the shared state, the webhook deliverer and the router
//   - The HTTP server lifecycle and graceful shutdown
//
// # Example Configuration
//
//	host: 127.0.0.1
//	port: 9000
//	debug: false
//	webhook:
//	  timeout: 30s
//	  workers: 16
//	logging:
//	  level: info
//	  file: ${HOME}/.telegram-mock/mock.log
//
// Every scalar above except the log rotation settings can be overridden with
// a TELEGRAM_MOCK_* environment variable.
package core

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/werdnum/telegram-bot-api-mock/pkg/constants"
)

const (
	DefaultWebhookTimeout  = "30s"
	DefaultLogCompress     = true
	DefaultLogEnableStdout = true
)

var logLevels = []interface{}{"trace", "debug", "info", "warn", "warning", "error"}

// DefaultConfig returns the configuration used when nothing is overridden
func DefaultConfig() *Config {
	return &Config{
		Host: constants.DefaultHost,
		Port: constants.DefaultPort,
		Webhook: WebhookConfig{
			Timeout: DefaultWebhookTimeout,
			Workers: constants.DefaultWebhookWorkers,
		},
		Logging: LoggingConfig{
			Level:        constants.DefaultLogLevel,
			MaxSize:      constants.DefaultLogMaxSize,
			MaxBackups:   constants.DefaultLogMaxBackups,
			MaxAge:       constants.DefaultLogMaxAge,
			Compress:     DefaultLogCompress,
			EnableStdout: DefaultLogEnableStdout,
		},
	}
}

// LoadConfig builds the configuration from defaults, the optional YAML file
// at configPath, and TELEGRAM_MOCK_* environment variables, in that order of
// increasing precedence. A .env file in the working directory is loaded first.
func LoadConfig(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	config := DefaultConfig()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		expandedData, err := expandEnv(string(data))
		if err != nil {
			return nil, fmt.Errorf("failed to expand environment variables: %w", err)
		}

		if err := yaml.Unmarshal([]byte(expandedData), config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cleanenv.ReadEnv(config); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	applyDefaults(config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// expandEnv replaces ${VAR_NAME} patterns with environment variable values
func expandEnv(input string) (string, error) {
	var missingVars []string

	result := os.Expand(input, func(key string) string {
		if val := os.Getenv(key); val != "" {
			return val
		}
		missingVars = append(missingVars, key)
		return ""
	})

	if len(missingVars) > 0 {
		return "", fmt.Errorf("missing required environment variables: %s",
			strings.Join(missingVars, ", "))
	}

	return result, nil
}

// applyDefaults fills values a config file may have zeroed explicitly
func applyDefaults(config *Config) {
	if config.Host == "" {
		config.Host = constants.DefaultHost
	}
	if config.Webhook.Timeout == "" {
		config.Webhook.Timeout = DefaultWebhookTimeout
	}
	if config.Webhook.Workers == 0 {
		config.Webhook.Workers = constants.DefaultWebhookWorkers
	}
	if config.Logging.Level == "" {
		config.Logging.Level = constants.DefaultLogLevel
	}
	if config.Logging.MaxSize == 0 {
		config.Logging.MaxSize = constants.DefaultLogMaxSize
	}
}

// Validate checks ranges and formats of every field
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Host, validation.Required),
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	); err != nil {
		return err
	}

	if err := validation.ValidateStruct(&c.Webhook,
		validation.Field(&c.Webhook.Timeout, validation.Required, validation.By(positiveDuration)),
		validation.Field(&c.Webhook.Workers, validation.Min(1), validation.Max(10000)),
	); err != nil {
		return fmt.Errorf("webhook: %w", err)
	}

	if err := validation.ValidateStruct(&c.Logging,
		validation.Field(&c.Logging.Level, validation.In(logLevels...)),
		validation.Field(&c.Logging.MaxSize, validation.Min(0)),
		validation.Field(&c.Logging.MaxBackups, validation.Min(0)),
		validation.Field(&c.Logging.MaxAge, validation.Min(0)),
	); err != nil {
		return fmt.Errorf("logging: %w", err)
	}

	return nil
}

func positiveDuration(value interface{}) error {
	s, _ := value.(string)
	d, err := time.ParseDuration(s)
	if err != nil {
		return errors.New("must be a duration such as 30s")
	}
	if d <= 0 {
		return errors.New("must be positive")
	}
	return nil
}
