package api

import (
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/sirupsen/logrus"

	"github.com/werdnum/telegram-bot-api-mock/internal/logger"
	"github.com/werdnum/telegram-bot-api-mock/internal/state"
	"github.com/werdnum/telegram-bot-api-mock/pkg/constants"
)

type setWebhookRequest struct {
	URL                string   `json:"url"`
	IPAddress          string   `json:"ip_address"`
	MaxConnections     int      `json:"max_connections"`
	AllowedUpdates     []string `json:"allowed_updates"`
	DropPendingUpdates bool     `json:"drop_pending_updates"`
	SecretToken        string   `json:"secret_token"`
}

func (r setWebhookRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.URL, validation.Required, is.URL),
		validation.Field(&r.IPAddress, is.IP),
		validation.Field(&r.MaxConnections, validation.Min(0)),
	)
}

func (h *Handler) handleSetWebhook(w http.ResponseWriter, r *http.Request, token string) {
	b, ok := bind(w, r)
	if !ok {
		return
	}
	req := setWebhookRequest{
		URL:                b.String("url"),
		IPAddress:          b.String("ip_address"),
		MaxConnections:     b.Int("max_connections"),
		AllowedUpdates:     b.StringList("allowed_updates"),
		DropPendingUpdates: b.Bool("drop_pending_updates"),
		SecretToken:        b.String("secret_token"),
	}
	if err := b.check(req); err != nil {
		writeError(w, err)
		return
	}
	if req.MaxConnections == 0 {
		req.MaxConnections = constants.DefaultMaxConnections
	}

	bot, err := h.server.GetOrCreateBot(token)
	if err != nil {
		writeError(w, err)
		return
	}

	bot.SetWebhook(state.WebhookConfig{
		URL:            req.URL,
		SecretToken:    req.SecretToken,
		MaxConnections: req.MaxConnections,
		AllowedUpdates: req.AllowedUpdates,
		IPAddress:      req.IPAddress,
	}, req.DropPendingUpdates)

	logger.WithFields(logrus.Fields{
		"token": logger.MaskSecret(token),
		"url":   req.URL,
	}).Info("webhook-set")

	writeResult(w, true)
}

func (h *Handler) handleDeleteWebhook(w http.ResponseWriter, r *http.Request, token string) {
	b, ok := bind(w, r)
	if !ok {
		return
	}
	dropPending := b.Bool("drop_pending_updates")
	if err := b.Err(); err != nil {
		writeError(w, err)
		return
	}

	bot, err := h.server.GetOrCreateBot(token)
	if err != nil {
		writeError(w, err)
		return
	}
	bot.DeleteWebhook(dropPending)

	logger.WithField("token", logger.MaskSecret(token)).Info("webhook-deleted")
	writeResult(w, true)
}

func (h *Handler) handleGetWebhookInfo(w http.ResponseWriter, r *http.Request, token string) {
	bot, err := h.server.GetOrCreateBot(token)
	if err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, bot.WebhookInfo())
}
