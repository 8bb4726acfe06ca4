package api

import (
	"encoding/base64"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/werdnum/telegram-bot-api-mock/internal/logger"
	"github.com/werdnum/telegram-bot-api-mock/internal/media"
	"github.com/werdnum/telegram-bot-api-mock/internal/models"
	"github.com/werdnum/telegram-bot-api-mock/internal/state"
	"github.com/werdnum/telegram-bot-api-mock/pkg/constants"
)

func defaultUser() models.User {
	return models.User{
		ID:        constants.DefaultUserID,
		IsBot:     false,
		FirstName: constants.DefaultUserFirstName,
	}
}

type clientMessageRequest struct {
	BotToken string       `json:"bot_token"`
	ChatID   *int64       `json:"chat_id"`
	Text     string       `json:"text"`
	FromUser *models.User `json:"from_user"`
}

func (r clientMessageRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.BotToken, validation.Required),
		validation.Field(&r.ChatID, validation.NotNil),
		validation.Field(&r.Text, validation.Required),
	)
}

type clientCommandRequest struct {
	BotToken string       `json:"bot_token"`
	ChatID   *int64       `json:"chat_id"`
	Command  string       `json:"command"`
	FromUser *models.User `json:"from_user"`
}

func (r clientCommandRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.BotToken, validation.Required),
		validation.Field(&r.ChatID, validation.NotNil),
		validation.Field(&r.Command, validation.Required),
	)
}

type clientCallbackRequest struct {
	BotToken     string       `json:"bot_token"`
	ChatID       *int64       `json:"chat_id"`
	MessageID    *int64       `json:"message_id"`
	CallbackData string       `json:"callback_data"`
	FromUser     *models.User `json:"from_user"`
}

func (r clientCallbackRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.BotToken, validation.Required),
		validation.Field(&r.ChatID, validation.NotNil),
		validation.Field(&r.MessageID, validation.NotNil),
		validation.Field(&r.CallbackData, validation.Required),
	)
}

type clientMediaRequest struct {
	BotToken  string       `json:"bot_token"`
	ChatID    *int64       `json:"chat_id"`
	Content   string       `json:"-"`
	Filename  string       `json:"filename"`
	Caption   string       `json:"caption"`
	MimeType  string       `json:"mime_type"`
	Width     int          `json:"width"`
	Height    int          `json:"height"`
	Duration  int          `json:"duration"`
	Performer string       `json:"performer"`
	Title     string       `json:"title"`
	FromUser  *models.User `json:"from_user"`
}

func (r clientMediaRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.BotToken, validation.Required),
		validation.Field(&r.ChatID, validation.NotNil),
		validation.Field(&r.Width, validation.Min(0)),
		validation.Field(&r.Height, validation.Min(0)),
		validation.Field(&r.Duration, validation.Min(0)),
	)
}

// userMessage fills the fields shared by every message a simulated user sends
func (h *Handler) userMessage(tx *state.Tx, chatID int64, from *models.User) models.Message {
	sender := defaultUser()
	if from != nil {
		sender = *from
	}
	return models.Message{
		MessageID: tx.NextMessageID(),
		From:      &sender,
		Date:      h.server.Now().Unix(),
		Chat:      privateChat(chatID),
	}
}

// postUserMessage stores msg and its update under one bot lock, then hands
// the update to the webhook
func (h *Handler) postUserMessage(w http.ResponseWriter, token string, build func(tx *state.Tx) models.Message) {
	var update models.Update
	bot, err := h.server.WithBot(token, func(tx *state.Tx) error {
		msg := tx.AddMessage(build(tx), false).Message
		update = tx.AddUpdate(models.Update{
			UpdateID: tx.NextUpdateID(),
			Message:  &msg,
		}).Update
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}

	logger.WithFields(logrus.Fields{
		"token":     logger.MaskSecret(token),
		"update_id": update.UpdateID,
	}).Debug("client-update-created")

	h.deliver(bot, update)
	writeResult(w, update)
}

func (h *Handler) handleClientSendMessage(w http.ResponseWriter, r *http.Request) {
	b, ok := bind(w, r)
	if !ok {
		return
	}
	req := clientMessageRequest{
		BotToken: b.String("bot_token"),
		ChatID:   b.Int64("chat_id"),
		Text:     b.String("text"),
		FromUser: b.User("from_user"),
	}
	if err := b.check(req); err != nil {
		writeError(w, err)
		return
	}

	h.postUserMessage(w, req.BotToken, func(tx *state.Tx) models.Message {
		msg := h.userMessage(tx, *req.ChatID, req.FromUser)
		msg.Text = req.Text
		return msg
	})
}

func (h *Handler) handleClientSendCommand(w http.ResponseWriter, r *http.Request) {
	b, ok := bind(w, r)
	if !ok {
		return
	}
	req := clientCommandRequest{
		BotToken: b.String("bot_token"),
		ChatID:   b.Int64("chat_id"),
		Command:  b.String("command"),
		FromUser: b.User("from_user"),
	}
	if err := b.check(req); err != nil {
		writeError(w, err)
		return
	}
	if !strings.HasPrefix(req.Command, "/") {
		writeError(w, badRequest("command must start with /"))
		return
	}

	name := strings.Fields(req.Command)[0]
	h.postUserMessage(w, req.BotToken, func(tx *state.Tx) models.Message {
		msg := h.userMessage(tx, *req.ChatID, req.FromUser)
		msg.Text = req.Command
		msg.Entities = []tgbotapi.MessageEntity{{
			Type:   "bot_command",
			Offset: 0,
			Length: len([]rune(name)),
		}}
		return msg
	})
}

// handleClientSendCallback simulates a button press on a stored message
func (h *Handler) handleClientSendCallback(w http.ResponseWriter, r *http.Request) {
	b, ok := bind(w, r)
	if !ok {
		return
	}
	req := clientCallbackRequest{
		BotToken:     b.String("bot_token"),
		ChatID:       b.Int64("chat_id"),
		MessageID:    b.Int64("message_id"),
		CallbackData: b.String("callback_data"),
		FromUser:     b.User("from_user"),
	}
	if err := b.check(req); err != nil {
		writeError(w, err)
		return
	}

	from := defaultUser()
	if req.FromUser != nil {
		from = *req.FromUser
	}

	var update models.Update
	bot, err := h.server.WithBot(req.BotToken, func(tx *state.Tx) error {
		stored, found := tx.Message(*req.ChatID, *req.MessageID)
		if !found {
			return badRequest("message not found")
		}
		msg := stored.Message
		update = tx.AddUpdate(models.Update{
			UpdateID: tx.NextUpdateID(),
			CallbackQuery: &models.CallbackQuery{
				ID:           strconv.FormatInt(tx.NextCallbackID(), 10),
				From:         from,
				Message:      &msg,
				ChatInstance: strconv.FormatInt(*req.ChatID, 10),
				Data:         req.CallbackData,
			},
		}).Update
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}

	h.deliver(bot, update)
	writeResult(w, update)
}

// clientMedia simulates a user uploading base64 content as kind
func (h *Handler) clientMedia(kind media.Kind) http.HandlerFunc {
	field := string(kind)

	return func(w http.ResponseWriter, r *http.Request) {
		b, ok := bind(w, r)
		if !ok {
			return
		}
		req := clientMediaRequest{
			BotToken:  b.String("bot_token"),
			ChatID:    b.Int64("chat_id"),
			Content:   b.String(field),
			Filename:  b.String("filename"),
			Caption:   b.String("caption"),
			MimeType:  b.String("mime_type"),
			Width:     b.Int("width"),
			Height:    b.Int("height"),
			Duration:  b.Int("duration"),
			Performer: b.String("performer"),
			Title:     b.String("title"),
			FromUser:  b.User("from_user"),
		}
		if err := b.check(req); err != nil {
			writeError(w, err)
			return
		}
		if req.Content == "" {
			writeError(w, invalidField(field, "cannot be blank"))
			return
		}
		if kind == media.KindDocument && req.Filename == "" {
			writeError(w, invalidField("filename", "cannot be blank"))
			return
		}
		if _, err := state.ParseToken(req.BotToken); err != nil {
			writeError(w, err)
			return
		}

		data, err := base64.StdEncoding.DecodeString(req.Content)
		if err != nil {
			writeError(w, badRequest("invalid base64 encoding for %s", field))
			return
		}

		att, err := h.media.Build(kind, media.Upload{
			Data:      data,
			Filename:  req.Filename,
			MimeType:  req.MimeType,
			Width:     req.Width,
			Height:    req.Height,
			Duration:  req.Duration,
			Performer: req.Performer,
			Title:     req.Title,
		})
		if err != nil {
			writeError(w, err)
			return
		}

		h.postUserMessage(w, req.BotToken, func(tx *state.Tx) models.Message {
			msg := h.userMessage(tx, *req.ChatID, req.FromUser)
			att.Apply(&msg)
			msg.Caption = req.Caption
			return msg
		})
	}
}

// clientUpdate is how the client surface presents a bot message
type clientUpdate struct {
	UpdateID int64          `json:"update_id"`
	Message  models.Message `json:"message"`
}

// handleClientGetUpdates lists what the bot sent to a chat, newest first
func (h *Handler) handleClientGetUpdates(w http.ResponseWriter, r *http.Request) {
	b, ok := bind(w, r)
	if !ok {
		return
	}
	token := b.String("bot_token")
	chatID := b.Int64("chat_id")
	if err := b.Err(); err != nil {
		writeError(w, err)
		return
	}
	if chatID == nil {
		writeError(w, invalidField("chat_id", "is required"))
		return
	}

	bot, err := h.server.GetOrCreateBot(token)
	if err != nil {
		writeError(w, err)
		return
	}

	out := []clientUpdate{}
	for _, m := range bot.MessagesForChat(*chatID, 0) {
		if !m.IsBotMessage {
			continue
		}
		out = append(out, clientUpdate{UpdateID: m.MessageID, Message: m.Message})
	}
	writeResult(w, out)
}

func (h *Handler) handleClientGetUpdatesHistory(w http.ResponseWriter, r *http.Request) {
	bot, err := h.server.GetOrCreateBot(r.URL.Query().Get("bot_token"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, bot.UpdateHistory())
}

func (h *Handler) handleClientGetMedia(w http.ResponseWriter, r *http.Request) {
	blob, found := h.server.Blobs().Get(chi.URLParam(r, "fileID"))
	if !found {
		writeText(w, http.StatusNotFound, "File not found")
		return
	}
	writeBlob(w, blob, true)
}

// handleClientGetChatActions reports the live action of one chat. Unknown
// bots are not created.
func (h *Handler) handleClientGetChatActions(w http.ResponseWriter, r *http.Request) {
	b, ok := bind(w, r)
	if !ok {
		return
	}
	token := b.String("bot_token")
	chatID := b.Int64("chat_id")
	if err := b.Err(); err != nil {
		writeError(w, err)
		return
	}
	if chatID == nil {
		writeError(w, invalidField("chat_id", "is required"))
		return
	}

	out := []models.ChatAction{}
	if bot, ok := h.server.GetBot(token); ok {
		if action, live := bot.ChatAction(*chatID); live {
			out = append(out, action)
		}
	}
	writeResult(w, out)
}

func (h *Handler) handleClientGetAllChatActions(w http.ResponseWriter, r *http.Request) {
	out := []models.ChatAction{}
	if bot, ok := h.server.GetBot(r.URL.Query().Get("bot_token")); ok {
		out = bot.ChatActions()
	}
	writeResult(w, out)
}

func (h *Handler) handleClientGetAnsweredCallbacks(w http.ResponseWriter, r *http.Request) {
	out := []models.AnsweredCallback{}
	if bot, ok := h.server.GetBot(r.URL.Query().Get("bot_token")); ok {
		out = bot.AnsweredCallbacks()
	}
	writeResult(w, out)
}

func (h *Handler) handleClientReset(w http.ResponseWriter, r *http.Request) {
	h.server.Reset()
	logger.Info("state-reset")
	writeResult(w, true)
}
