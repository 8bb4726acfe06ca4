package core

import (
	"net"
	"strconv"
	"time"

	"github.com/werdnum/telegram-bot-api-mock/internal/logger"
)

// Config represents the complete mock server configuration
type Config struct {
	Host    string        `yaml:"host" json:"host" env:"TELEGRAM_MOCK_HOST"`
	Port    int           `yaml:"port" json:"port" env:"TELEGRAM_MOCK_PORT"`
	Debug   bool          `yaml:"debug" json:"debug" env:"TELEGRAM_MOCK_DEBUG"` // Forces the debug log level
	Webhook WebhookConfig `yaml:"webhook" json:"webhook"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// WebhookConfig represents outbound webhook delivery settings
type WebhookConfig struct {
	Timeout string `yaml:"timeout" json:"timeout" env:"TELEGRAM_MOCK_WEBHOOK_TIMEOUT"` // Per-request timeout (e.g., "30s")
	Workers int    `yaml:"workers" json:"workers" env:"TELEGRAM_MOCK_WEBHOOK_WORKERS"` // Size of the delivery pool
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level        string `yaml:"level" json:"level" env:"TELEGRAM_MOCK_LOG_LEVEL"` // debug, info, warn, error
	File         string `yaml:"file" json:"file" env:"TELEGRAM_MOCK_LOG_FILE"`    // Log file path
	MaxSize      int    `yaml:"max_size" json:"max_size"`                         // Single file max size in MB (default: 100)
	MaxBackups   int    `yaml:"max_backups" json:"max_backups"`                   // Number of backups to keep (default: 5)
	MaxAge       int    `yaml:"max_age" json:"max_age"`                           // Maximum days to retain (default: 30)
	Compress     bool   `yaml:"compress" json:"compress"`                         // Whether to compress old logs (default: true)
	EnableStdout bool   `yaml:"enable_stdout" json:"enable_stdout"`               // Also output to stdout (default: true)
}

// Address returns the host:port the HTTP server binds to
func (c *Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// WebhookTimeout returns the parsed webhook timeout. LoadConfig has already
// validated it, so a parse failure yields zero and the deliverer default applies.
func (c *Config) WebhookTimeout() time.Duration {
	d, err := time.ParseDuration(c.Webhook.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// LoggerConfig converts the logging section for logger.InitLogger
func (c *Config) LoggerConfig() logger.Config {
	level := c.Logging.Level
	if c.Debug {
		level = "debug"
	}
	return logger.Config{
		Level:        level,
		File:         c.Logging.File,
		MaxSize:      c.Logging.MaxSize,
		MaxBackups:   c.Logging.MaxBackups,
		MaxAge:       c.Logging.MaxAge,
		Compress:     c.Logging.Compress,
		EnableStdout: c.Logging.EnableStdout,
	}
}
