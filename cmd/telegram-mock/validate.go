package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/werdnum/telegram-bot-api-mock/internal/core"
	"github.com/werdnum/telegram-bot-api-mock/pkg/constants"
)

var (
	validateConfig string
	validateShow   bool
	validateJSON   bool
)

// ValidationResult represents the validation result
type ValidationResult struct {
	Valid          bool     `json:"valid"`
	Config         string   `json:"config"`
	Address        string   `json:"address,omitempty"`
	WebhookTimeout string   `json:"webhook_timeout,omitempty"`
	WebhookWorkers int      `json:"webhook_workers,omitempty"`
	LogLevel       string   `json:"log_level,omitempty"`
	EnvOverrides   []string `json:"env_overrides,omitempty"`
	Errors         []string `json:"errors,omitempty"`
	Warnings       []string `json:"warnings,omitempty"`
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate telegram-mock configuration",
	Long: `Validate the telegram-mock configuration without starting the server.

The config file is optional: without one, the defaults and TELEGRAM_MOCK_*
environment variables are validated.

This command checks:
  - YAML syntax
  - ${VAR} references in the file
  - Port range, webhook timeout and worker count
  - Log level

Exit codes:
  0 - Configuration is valid
  1 - Configuration has errors`,
	Run: func(cmd *cobra.Command, args []string) {
		configFile := validateConfig
		if configFile == "" {
			configFile = findConfigFile()
		}

		if !runValidate(cmd.OutOrStdout(), configFile, validateShow, validateJSON) {
			os.Exit(1)
		}
	},
}

// findConfigFile returns the first existing default config location, or ""
func findConfigFile() string {
	candidates := []string{"config.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config/telegram-mock/config.yaml"))
	}
	candidates = append(candidates, "/etc/telegram-mock/config.yaml")

	for _, loc := range candidates {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}
	return ""
}

// runValidate loads configFile and reports the result; it returns false
// when the configuration does not load
func runValidate(out io.Writer, configFile string, show, asJSON bool) bool {
	source := configFile
	if source == "" {
		source = "(defaults and environment)"
	}

	cfg, err := core.LoadConfig(configFile)
	if err != nil {
		outputValidationResult(out, ValidationResult{
			Valid:  false,
			Config: source,
			Errors: []string{err.Error()},
		}, asJSON)
		return false
	}

	result := ValidationResult{
		Valid:          true,
		Config:         source,
		Address:        cfg.Address(),
		WebhookTimeout: cfg.Webhook.Timeout,
		WebhookWorkers: cfg.Webhook.Workers,
		LogLevel:       cfg.LoggerConfig().Level,
		EnvOverrides:   envOverrides(),
		Warnings:       validateConfigDetails(cfg),
	}

	if show && !asJSON {
		fmt.Fprintf(out, "✓ Configuration loaded: %s\n\n", source)
		fmt.Fprintf(out, "Server:\n  - address: %s\n  - debug: %v\n", cfg.Address(), cfg.Debug)
		fmt.Fprintf(out, "Webhook delivery:\n  - timeout: %s\n  - workers: %d\n",
			cfg.Webhook.Timeout, cfg.Webhook.Workers)
		logFile := cfg.Logging.File
		if logFile == "" {
			logFile = "(none)"
		}
		fmt.Fprintf(out, "Logging:\n  - level: %s\n  - file: %s\n  - stdout: %v\n\n",
			cfg.LoggerConfig().Level, logFile, cfg.Logging.EnableStdout)
		if len(result.EnvOverrides) > 0 {
			fmt.Fprintln(out, "Environment overrides:")
			for _, name := range result.EnvOverrides {
				fmt.Fprintf(out, "  - %s\n", name)
			}
			fmt.Fprintln(out)
		}
	}

	outputValidationResult(out, result, asJSON)
	return result.Valid
}

func outputValidationResult(out io.Writer, result ValidationResult, jsonFormat bool) {
	if jsonFormat {
		output, err := json.Marshal(result)
		if err != nil {
			fmt.Fprintf(out, "{\"error\": \"failed to marshal json: %v\"}\n", err)
			return
		}
		fmt.Fprintln(out, string(output))
		return
	}

	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)

	if result.Valid {
		green.Fprintln(out, "✓ Configuration is valid")
		fmt.Fprintf(out, "  - Config: %s\n", result.Config)
		fmt.Fprintf(out, "  - Address: %s\n", result.Address)
		fmt.Fprintf(out, "  - Webhook delivery: %d workers, %s timeout\n", result.WebhookWorkers, result.WebhookTimeout)
		fmt.Fprintf(out, "  - Log level: %s\n", result.LogLevel)
	} else {
		red.Fprintln(out, "❌ Configuration validation failed:")
		fmt.Fprintf(out, "  - Config: %s\n", result.Config)
		if len(result.Errors) > 0 {
			fmt.Fprintln(out, "\nErrors:")
			for _, errMsg := range result.Errors {
				fmt.Fprintf(out, "  - %s\n", errMsg)
			}
		}
	}

	if len(result.Warnings) > 0 {
		yellow.Fprintln(out, "\n⚠️  Warnings:")
		for _, warning := range result.Warnings {
			fmt.Fprintf(out, "  - %s\n", warning)
		}
	}
}

// envOverrides returns the sorted names of the set variables carrying the
// environment prefix
func envOverrides() []string {
	var names []string
	for _, kv := range os.Environ() {
		if !strings.HasPrefix(kv, constants.EnvPrefix) {
			continue
		}
		name, _, _ := strings.Cut(kv, "=")
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// validateConfigDetails returns non-fatal observations about a loaded config
func validateConfigDetails(cfg *core.Config) []string {
	var warnings []string

	if cfg.Host == "0.0.0.0" || cfg.Host == "::" {
		warnings = append(warnings, "Host "+cfg.Host+" exposes the mock on every interface")
	}

	if cfg.Logging.File == "" && !cfg.Logging.EnableStdout {
		warnings = append(warnings, "Logging is disabled: no file and stdout is off")
	}

	if cfg.WebhookTimeout() > constants.WebhookHTTPTimeout {
		warnings = append(warnings, fmt.Sprintf("Webhook timeout %s is longer than the default %s, slow receivers will hold delivery workers",
			cfg.Webhook.Timeout, constants.WebhookHTTPTimeout))
	}

	return warnings
}

func init() {
	validateCmd.Flags().StringVarP(&validateConfig, "config", "c", "", "Configuration file path")
	validateCmd.Flags().BoolVar(&validateShow, "show", false, "Show the effective configuration")
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "Output in JSON format")
}
