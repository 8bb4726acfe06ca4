package bot

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/werdnum/telegram-bot-api-mock/internal/logger"
)

const startGreeting = "Hello! Send me anything and I will send it back."

// EchoReply is the text the echo bot answers msg with
func EchoReply(msg BotMessage) string {
	switch {
	case msg.IsCallback():
		return "You pressed: " + msg.Content
	case strings.HasPrefix(msg.Content, "/start"):
		return startGreeting
	default:
		return msg.Content
	}
}

// RunEcho runs an echo bot against the server at baseURL until ctx is cancelled
func RunEcho(ctx context.Context, token, baseURL string, interval time.Duration) error {
	b := NewTelegramBot(token, baseURL, interval)

	err := b.Start(ctx, func(msg BotMessage) {
		reply := EchoReply(msg)
		log := logger.WithFields(logrus.Fields{
			"chat_id":   msg.ChatID,
			"update_id": msg.UpdateID,
		})

		if msg.IsCallback() {
			if err := b.AnswerCallback(msg.CallbackID, reply); err != nil {
				log.WithField("error", err).Warn("failed-to-answer-callback")
			}
			if _, err := b.SendMessage(msg.ChatID, reply, 0); err != nil {
				log.WithField("error", err).Warn("failed-to-echo-callback")
			}
			return
		}

		if err := b.SendTyping(msg.ChatID); err != nil {
			log.WithField("error", err).Warn("failed-to-send-typing")
		}
		if _, err := b.SendMessage(msg.ChatID, reply, msg.MessageID); err != nil {
			log.WithField("error", err).Warn("failed-to-echo-message")
		}
	})
	if err != nil {
		return err
	}

	self := b.Self()
	logger.WithFields(logrus.Fields{
		"bot_username": self.UserName,
		"base_url":     baseURL,
	}).Info("echo-bot-running")

	<-ctx.Done()
	return b.Stop()
}
