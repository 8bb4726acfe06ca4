package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/werdnum/telegram-bot-api-mock/internal/logger"
	"github.com/werdnum/telegram-bot-api-mock/pkg/constants"
)

// TelegramBot polls a Bot API server with getUpdates and hands text messages
// and button presses to a handler
type TelegramBot struct {
	mu             sync.RWMutex
	token          string
	endpoint       string
	interval       time.Duration
	bot            *tgbotapi.BotAPI
	messageHandler func(BotMessage)
	offset         int
	cancel         context.CancelFunc
	done           chan struct{}
}

// NewTelegramBot creates a bot that talks to the server at baseURL.
// A zero interval uses constants.DefaultPollInterval.
func NewTelegramBot(token, baseURL string, interval time.Duration) *TelegramBot {
	if interval <= 0 {
		interval = constants.DefaultPollInterval
	}
	return &TelegramBot{
		token:    token,
		endpoint: APIEndpoint(baseURL),
		interval: interval,
	}
}

// APIEndpoint turns a server base URL into the endpoint format tgbotapi expects
func APIEndpoint(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/bot%s/%s"
}

// Start calls getMe and begins polling in the background until ctx is
// cancelled or Stop is called
func (t *TelegramBot) Start(ctx context.Context, messageHandler func(BotMessage)) error {
	t.SetMessageHandler(messageHandler)

	logger.WithFields(logrus.Fields{
		"token":    logger.MaskSecret(t.token),
		"endpoint": t.endpoint,
	}).Info("starting-telegram-bot-with-polling")

	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(t.token, t.endpoint)
	if err != nil {
		logger.WithField("error", err).Error("failed-to-initialize-telegram-bot")
		return fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}

	pollCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	t.mu.Lock()
	t.bot = bot
	t.cancel = cancel
	t.done = done
	t.mu.Unlock()

	logger.WithFields(logrus.Fields{
		"bot_username": bot.Self.UserName,
		"bot_id":       bot.Self.ID,
	}).Info("telegram-bot-initialized-successfully")

	go func() {
		defer close(done)
		t.poll(pollCtx, bot)
	}()
	return nil
}

// Self returns the identity reported by getMe, or a zero user before Start
func (t *TelegramBot) Self() tgbotapi.User {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.bot == nil {
		return tgbotapi.User{}
	}
	return t.bot.Self
}

func (t *TelegramBot) poll(ctx context.Context, bot *tgbotapi.BotAPI) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		t.pollOnce(bot)

		select {
		case <-ctx.Done():
			logger.Info("telegram-polling-stopped")
			return
		case <-ticker.C:
		}
	}
}

// pollOnce fetches pending updates and acknowledges them on the next call
func (t *TelegramBot) pollOnce(bot *tgbotapi.BotAPI) {
	t.mu.RLock()
	offset := t.offset
	t.mu.RUnlock()

	updates, err := bot.GetUpdates(tgbotapi.NewUpdate(offset))
	if err != nil {
		logger.WithField("error", err).Warn("failed-to-get-telegram-updates")
		return
	}

	for _, update := range updates {
		if update.UpdateID >= offset {
			offset = update.UpdateID + 1
		}
		t.handleUpdate(update)
	}

	t.mu.Lock()
	t.offset = offset
	t.mu.Unlock()
}

func (t *TelegramBot) handleUpdate(update tgbotapi.Update) {
	var msg BotMessage

	switch {
	case update.Message != nil && update.Message.Text != "":
		m := update.Message
		msg = BotMessage{
			MessageID: m.MessageID,
			Content:   m.Text,
			Timestamp: time.Unix(int64(m.Date), 0),
		}
		if m.Chat != nil {
			msg.ChatID = m.Chat.ID
		}
		if m.From != nil {
			msg.UserID = m.From.ID
		}
	case update.CallbackQuery != nil:
		cq := update.CallbackQuery
		msg = BotMessage{
			Content:    cq.Data,
			CallbackID: cq.ID,
			Timestamp:  time.Now(),
		}
		if cq.From != nil {
			msg.UserID = cq.From.ID
		}
		if cq.Message != nil {
			msg.MessageID = cq.Message.MessageID
			if cq.Message.Chat != nil {
				msg.ChatID = cq.Message.Chat.ID
			}
		}
	default:
		logger.WithField("update_id", update.UpdateID).Debug("skipping-non-text-update")
		return
	}
	msg.UpdateID = update.UpdateID

	logger.WithFields(logrus.Fields{
		"update_id":   msg.UpdateID,
		"chat_id":     msg.ChatID,
		"user_id":     msg.UserID,
		"message_id":  msg.MessageID,
		"callback":    msg.IsCallback(),
		"content_len": len(msg.Content),
	}).Info("received-telegram-update")

	if handler := t.GetMessageHandler(); handler != nil {
		handler(msg)
	}
}

func (t *TelegramBot) client() (*tgbotapi.BotAPI, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.bot == nil {
		return nil, errors.New("telegram bot not initialized")
	}
	return t.bot, nil
}

// SendMessage sends text to a chat, optionally as a reply. Text longer than
// the Telegram limit is truncated.
func (t *TelegramBot) SendMessage(chatID int64, text string, replyTo int) (tgbotapi.Message, error) {
	bot, err := t.client()
	if err != nil {
		return tgbotapi.Message{}, err
	}

	if runes := []rune(text); len(runes) > constants.MaxTelegramMessageLength {
		logger.WithFields(logrus.Fields{
			"original_length": len(runes),
			"max_length":      constants.MaxTelegramMessageLength,
		}).Info("truncating-message-for-telegram-limit")
		text = string(runes[:constants.MaxTelegramMessageLength])
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyToMessageID = replyTo

	sent, err := bot.Send(msg)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"chat_id": chatID,
			"error":   err,
		}).Error("failed-to-send-message-to-telegram")
		return tgbotapi.Message{}, fmt.Errorf("failed to send message to chat %d: %w", chatID, err)
	}

	logger.WithFields(logrus.Fields{
		"chat_id":    chatID,
		"message_id": sent.MessageID,
	}).Info("message-sent-to-telegram")
	return sent, nil
}

// SendTyping shows the typing indicator in a chat
func (t *TelegramBot) SendTyping(chatID int64) error {
	bot, err := t.client()
	if err != nil {
		return err
	}
	if _, err := bot.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		return fmt.Errorf("failed to send chat action: %w", err)
	}
	return nil
}

// AnswerCallback acknowledges a button press with a notification text
func (t *TelegramBot) AnswerCallback(callbackID, text string) error {
	bot, err := t.client()
	if err != nil {
		return err
	}
	if _, err := bot.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		return fmt.Errorf("failed to answer callback query: %w", err)
	}
	return nil
}

// Stop ends polling and waits for the polling goroutine to exit
func (t *TelegramBot) Stop() error {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.cancel, t.done = nil, nil
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	logger.Info("telegram-bot-stopped")
	return nil
}

// SetMessageHandler sets the message handler in a thread-safe manner
func (t *TelegramBot) SetMessageHandler(handler func(BotMessage)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messageHandler = handler
}

// GetMessageHandler gets the message handler in a thread-safe manner
func (t *TelegramBot) GetMessageHandler() func(BotMessage) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.messageHandler
}
