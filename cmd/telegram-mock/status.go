package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fatih/color"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"

	"github.com/werdnum/telegram-bot-api-mock/internal/bot"
	"github.com/werdnum/telegram-bot-api-mock/pkg/constants"
)

const (
	defaultServerURL   = "http://localhost:9000"
	statusCheckToken   = "1:status-check"
	statusCheckTimeout = 5 * time.Second
)

var (
	statusURL     string
	statusToken   string
	statusTimeout time.Duration
)

// HealthChecker checks the /health endpoint with timeout control
type HealthChecker struct {
	timeout time.Duration
	client  *http.Client
}

// Check returns nil when baseURL answers /health with {"status":"ok"}
func (p *HealthChecker) Check(ctx context.Context, baseURL string) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	url := strings.TrimRight(baseURL, "/") + "/health"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != constants.HTTPSuccessStatusCode {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var health struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return fmt.Errorf("decode health response: %w", err)
	}
	if health.Status != "ok" {
		return fmt.Errorf("server reports status %q", health.Status)
	}
	return nil
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check that a mock server is up",
	Long: `Check a running mock: GET /health, then getMe through a real Bot API
client pointed at the server. The check token creates a bot in the mock's
state like any other token would.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStatus(cmd.Context(), cmd.OutOrStdout(), statusURL, statusToken, statusTimeout)
	},
}

func runStatus(ctx context.Context, out io.Writer, baseURL, token string, timeout time.Duration) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ok := color.New(color.FgGreen).SprintFunc()
	fail := color.New(color.FgRed).SprintFunc()

	fmt.Fprintf(out, "telegram-mock status (%s):\n", baseURL)

	client := &http.Client{Timeout: timeout}
	checker := &HealthChecker{timeout: timeout, client: client}
	if err := checker.Check(ctx, baseURL); err != nil {
		fmt.Fprintf(out, "  %s health: %v\n", fail("✗"), err)
		return fmt.Errorf("health check failed: %w", err)
	}
	fmt.Fprintf(out, "  %s health: ok\n", ok("✓"))

	api, err := tgbotapi.NewBotAPIWithClient(token, bot.APIEndpoint(baseURL), client)
	if err != nil {
		fmt.Fprintf(out, "  %s getMe: %v\n", fail("✗"), err)
		return fmt.Errorf("getMe failed: %w", err)
	}
	fmt.Fprintf(out, "  %s getMe: @%s (id %d)\n", ok("✓"), api.Self.UserName, api.Self.ID)
	return nil
}

func init() {
	statusCmd.Flags().StringVar(&statusURL, "url", defaultServerURL, "Base URL of the mock server")
	statusCmd.Flags().StringVar(&statusToken, "token", statusCheckToken, "Bot token used for the getMe check")
	statusCmd.Flags().DurationVar(&statusTimeout, "timeout", statusCheckTimeout, "Timeout for each check request")
}
