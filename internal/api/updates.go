package api

import (
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/werdnum/telegram-bot-api-mock/internal/models"
	"github.com/werdnum/telegram-bot-api-mock/pkg/constants"
)

type getUpdatesRequest struct {
	Offset  *int64 `json:"offset"`
	Limit   int    `json:"limit"`
	Timeout int    `json:"timeout"`
}

func (r getUpdatesRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Limit, validation.Min(0)),
		validation.Field(&r.Timeout, validation.Min(0)),
	)
}

func (h *Handler) handleGetMe(w http.ResponseWriter, r *http.Request, token string) {
	bot, err := h.server.GetOrCreateBot(token)
	if err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, bot.Identity.User())
}

// handleGetUpdates acknowledges everything below offset, then returns what is
// still pending. timeout is accepted but the call never blocks.
func (h *Handler) handleGetUpdates(w http.ResponseWriter, r *http.Request, token string) {
	b, ok := bind(w, r)
	if !ok {
		return
	}
	req := getUpdatesRequest{
		Offset:  b.Int64("offset"),
		Limit:   b.Int("limit"),
		Timeout: b.Int("timeout"),
	}
	if err := b.check(req); err != nil {
		writeError(w, err)
		return
	}

	bot, err := h.server.GetOrCreateBot(token)
	if err != nil {
		writeError(w, err)
		return
	}

	if req.Offset != nil {
		bot.MarkUpdatesDelivered(*req.Offset - 1)
		bot.ClearDeliveredUpdates()
	}

	limit := req.Limit
	if limit == 0 {
		limit = constants.DefaultUpdatesLimit
	}

	pending := bot.PendingUpdates(limit, req.Offset)
	updates := make([]models.Update, 0, len(pending))
	for _, u := range pending {
		updates = append(updates, u.Update)
	}
	writeResult(w, updates)
}
