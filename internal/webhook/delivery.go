// Package webhook pushes updates to the webhook URL registered by a bot.
//
// Delivery is best effort: one POST per update, no retries. Failures are
// recorded on the bot so getWebhookInfo can report them.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/sirupsen/logrus"

	"github.com/werdnum/telegram-bot-api-mock/internal/logger"
	"github.com/werdnum/telegram-bot-api-mock/internal/models"
	"github.com/werdnum/telegram-bot-api-mock/internal/state"
	"github.com/werdnum/telegram-bot-api-mock/pkg/constants"
)

// maxErrorBodySize caps how much of a failing response ends up in last_error_message
const maxErrorBodySize = 4096

// Config tunes the deliverer
type Config struct {
	Timeout time.Duration
	Workers int
}

// Deliverer sends updates to webhook URLs
type Deliverer struct {
	server  *state.Server
	client  *http.Client
	timeout time.Duration
	pool    *ants.Pool
	wg      sync.WaitGroup
}

// New creates a Deliverer backed by a pool of cfg.Workers goroutines
func New(server *state.Server, cfg Config) (*Deliverer, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = constants.WebhookHTTPTimeout
	}
	if cfg.Workers <= 0 {
		cfg.Workers = constants.DefaultWebhookWorkers
	}

	pool, err := ants.NewPool(cfg.Workers,
		ants.WithNonblocking(true),
		ants.WithLogger(logger.GetLogger()),
		ants.WithPanicHandler(func(p interface{}) {
			logger.WithField("panic", p).Error("webhook-delivery-panic")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create delivery pool: %w", err)
	}

	return &Deliverer{
		server:  server,
		client:  &http.Client{Timeout: cfg.Timeout},
		timeout: cfg.Timeout,
		pool:    pool,
	}, nil
}

// Deliver POSTs update to the bot's webhook and reports whether the receiver
// answered 200. It returns false without a request when no webhook is set.
func (d *Deliverer) Deliver(ctx context.Context, token string, update models.Update) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithFields(logrus.Fields{
				"token": logger.MaskSecret(token),
				"panic": r,
			}).Error("webhook-delivery-panic")
			ok = false
		}
	}()

	bot, found := d.server.GetBot(token)
	if !found {
		return false
	}
	cfg, found := bot.Webhook()
	if !found || cfg.URL == "" {
		return false
	}

	fields := logrus.Fields{
		"token":     logger.MaskSecret(token),
		"update_id": update.UpdateID,
		"url":       cfg.URL,
	}

	if err := d.post(ctx, cfg, update); err != nil {
		bot.RecordDeliveryError(cfg.URL, err.Error())
		fields["error"] = err.Error()
		logger.WithFields(fields).Warn("webhook-delivery-failed")
		return false
	}

	logger.WithFields(fields).Debug("webhook-delivered")
	return true
}

// deliveryError carries the message stored as last_error_message
type deliveryError struct {
	message string
}

func (e *deliveryError) Error() string {
	return e.message
}

func (d *Deliverer) post(ctx context.Context, cfg state.WebhookConfig, update models.Update) error {
	body, err := json.Marshal(update)
	if err != nil {
		return &deliveryError{message: fmt.Sprintf("Request error: %v", err)}
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.URL, bytes.NewReader(body))
	if err != nil {
		return &deliveryError{message: fmt.Sprintf("Request error: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	if cfg.SecretToken != "" {
		req.Header.Set(constants.SecretTokenHeader, cfg.SecretToken)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return &deliveryError{message: fmt.Sprintf("Request error: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != constants.HTTPSuccessStatusCode {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return &deliveryError{message: fmt.Sprintf("Webhook returned status %d: %s", resp.StatusCode, text)}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// DeliverInBackground schedules Deliver and returns immediately. When the
// pool is saturated or closed the delivery runs on its own goroutine.
func (d *Deliverer) DeliverInBackground(token string, update models.Update) {
	d.wg.Add(1)
	task := func() {
		defer d.wg.Done()
		d.Deliver(context.Background(), token, update)
	}

	if err := d.pool.Submit(task); err != nil {
		logger.WithFields(logrus.Fields{
			"token": logger.MaskSecret(token),
			"error": err,
		}).Debug("webhook-pool-unavailable")
		go task()
	}
}

// Wait blocks until every background delivery has finished
func (d *Deliverer) Wait() {
	d.wg.Wait()
}

// Close releases the pool, giving running deliveries up to the shutdown timeout
func (d *Deliverer) Close() error {
	if err := d.pool.ReleaseTimeout(constants.ShutdownTimeout); err != nil {
		return fmt.Errorf("failed to release delivery pool: %w", err)
	}
	return nil
}
