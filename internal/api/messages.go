package api

import (
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/werdnum/telegram-bot-api-mock/internal/models"
	"github.com/werdnum/telegram-bot-api-mock/internal/state"
	"github.com/werdnum/telegram-bot-api-mock/pkg/constants"
)

type sendMessageRequest struct {
	ChatID           *int64                   `json:"chat_id"`
	Text             string                   `json:"text"`
	ParseMode        string                   `json:"parse_mode"`
	Entities         []tgbotapi.MessageEntity `json:"entities"`
	ReplyToMessageID *int64                   `json:"reply_to_message_id"`
	ReplyMarkup      models.ReplyMarkup       `json:"reply_markup"`
}

func (r sendMessageRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ChatID, validation.NotNil),
		validation.Field(&r.Text, validation.Required),
	)
}

type editMessageTextRequest struct {
	ChatID      *int64             `json:"chat_id"`
	MessageID   *int64             `json:"message_id"`
	Text        string             `json:"text"`
	ReplyMarkup models.ReplyMarkup `json:"reply_markup"`
}

func (r editMessageTextRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Text, validation.Required),
	)
}

type deleteMessageRequest struct {
	ChatID    *int64 `json:"chat_id"`
	MessageID *int64 `json:"message_id"`
}

func (r deleteMessageRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ChatID, validation.NotNil),
		validation.Field(&r.MessageID, validation.NotNil),
	)
}

// bind decodes the request body, reporting decode failures to w
func bind(w http.ResponseWriter, r *http.Request) (*binder, bool) {
	p, err := parseParams(r)
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return newBinder(p), true
}

func privateChat(id int64) models.Chat {
	return models.Chat{ID: id, Type: constants.PrivateChatType}
}

// newBotMessage allocates a message id and fills the fields common to every
// message the bot sends
func (h *Handler) newBotMessage(tx *state.Tx, chatID int64) models.Message {
	from := tx.Bot().Identity.User()
	return models.Message{
		MessageID: tx.NextMessageID(),
		From:      &from,
		Date:      h.server.Now().Unix(),
		Chat:      privateChat(chatID),
	}
}

func (h *Handler) handleSendMessage(w http.ResponseWriter, r *http.Request, token string) {
	b, ok := bind(w, r)
	if !ok {
		return
	}
	req := sendMessageRequest{
		ChatID:           b.Int64("chat_id"),
		Text:             b.String("text"),
		ParseMode:        b.String("parse_mode"),
		Entities:         b.Entities("entities"),
		ReplyToMessageID: b.Int64("reply_to_message_id"),
		ReplyMarkup:      b.Markup("reply_markup"),
	}
	if err := b.check(req); err != nil {
		writeError(w, err)
		return
	}

	var sent models.Message
	_, err := h.server.WithBot(token, func(tx *state.Tx) error {
		msg := h.newBotMessage(tx, *req.ChatID)
		msg.Text = req.Text
		msg.Entities = req.Entities
		msg.ReplyMarkup = req.ReplyMarkup.InlineKeyboard()

		if req.ReplyToMessageID != nil {
			if replied, ok := tx.Message(*req.ChatID, *req.ReplyToMessageID); ok {
				original := replied.Message
				original.ReplyToMessage = nil
				msg.ReplyToMessage = &original
			}
		}

		sent = tx.AddMessage(msg, true).Message
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, sent)
}

func (h *Handler) handleEditMessageText(w http.ResponseWriter, r *http.Request, token string) {
	b, ok := bind(w, r)
	if !ok {
		return
	}
	req := editMessageTextRequest{
		ChatID:      b.Int64("chat_id"),
		MessageID:   b.Int64("message_id"),
		Text:        b.String("text"),
		ReplyMarkup: b.Markup("reply_markup"),
	}
	if err := b.check(req); err != nil {
		writeError(w, err)
		return
	}
	if req.ChatID == nil || req.MessageID == nil {
		writeError(w, badRequest("chat_id and message_id are required"))
		return
	}

	bot, err := h.server.GetOrCreateBot(token)
	if err != nil {
		writeError(w, err)
		return
	}

	edited, found := bot.EditMessage(*req.ChatID, *req.MessageID, req.Text, req.ReplyMarkup.InlineKeyboard())
	if !found {
		writeError(w, badRequest("message not found"))
		return
	}
	writeResult(w, edited)
}

func (h *Handler) handleDeleteMessage(w http.ResponseWriter, r *http.Request, token string) {
	b, ok := bind(w, r)
	if !ok {
		return
	}
	req := deleteMessageRequest{
		ChatID:    b.Int64("chat_id"),
		MessageID: b.Int64("message_id"),
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
	if !bot.DeleteMessage(*req.ChatID, *req.MessageID) {
		writeError(w, badRequest("message not found"))
		return
	}
	writeResult(w, true)
}
