package api

import (
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/werdnum/telegram-bot-api-mock/internal/models"
)

// chatActions are the values sendChatAction accepts
var chatActions = map[string]struct{}{
	tgbotapi.ChatTyping:          {},
	tgbotapi.ChatUploadPhoto:     {},
	tgbotapi.ChatRecordVideo:     {},
	tgbotapi.ChatUploadVideo:     {},
	tgbotapi.ChatRecordVoice:     {},
	tgbotapi.ChatUploadVoice:     {},
	tgbotapi.ChatUploadDocument:  {},
	tgbotapi.ChatChooseSticker:   {},
	tgbotapi.ChatFindLocation:    {},
	tgbotapi.ChatRecordVideoNote: {},
	tgbotapi.ChatUploadVideoNote: {},
}

type answerCallbackQueryRequest struct {
	CallbackQueryID string  `json:"callback_query_id"`
	Text            *string `json:"text"`
	ShowAlert       bool    `json:"show_alert"`
	URL             *string `json:"url"`
	CacheTime       int     `json:"cache_time"`
}

func (r answerCallbackQueryRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CallbackQueryID, validation.Required),
		validation.Field(&r.Text, validation.Length(0, 200)),
		validation.Field(&r.CacheTime, validation.Min(0)),
	)
}

type sendChatActionRequest struct {
	ChatID *int64 `json:"chat_id"`
	Action string `json:"action"`
}

func (r sendChatActionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ChatID, validation.NotNil),
		validation.Field(&r.Action, validation.Required),
	)
}

func (h *Handler) handleAnswerCallbackQuery(w http.ResponseWriter, r *http.Request, token string) {
	b, ok := bind(w, r)
	if !ok {
		return
	}
	req := answerCallbackQueryRequest{
		CallbackQueryID: b.String("callback_query_id"),
		Text:            b.OptString("text"),
		ShowAlert:       b.Bool("show_alert"),
		URL:             b.OptString("url"),
		CacheTime:       b.Int("cache_time"),
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
	bot.AnswerCallback(models.AnsweredCallback{
		CallbackQueryID: req.CallbackQueryID,
		Text:            req.Text,
		ShowAlert:       req.ShowAlert,
		URL:             req.URL,
		CacheTime:       req.CacheTime,
	})
	writeResult(w, true)
}

func (h *Handler) handleSendChatAction(w http.ResponseWriter, r *http.Request, token string) {
	b, ok := bind(w, r)
	if !ok {
		return
	}
	req := sendChatActionRequest{
		ChatID: b.Int64("chat_id"),
		Action: b.String("action"),
	}
	if err := b.check(req); err != nil {
		writeError(w, err)
		return
	}
	if _, valid := chatActions[req.Action]; !valid {
		writeError(w, badRequest("invalid action '%s'", req.Action))
		return
	}

	bot, err := h.server.GetOrCreateBot(token)
	if err != nil {
		writeError(w, err)
		return
	}
	bot.SetChatAction(*req.ChatID, req.Action)
	writeResult(w, true)
}
