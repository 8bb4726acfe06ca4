// Package bot is a small Telegram bot client for exercising a running mock.
//
// It speaks the real Bot API through go-telegram-bot-api, so anything the
// echo bot can do against the mock is something a production bot would do
// against Telegram.
//
// # Usage
//
//	b := bot.NewTelegramBot(token, "http://localhost:9000", 0)
//	err := b.Start(ctx, func(msg bot.BotMessage) {
//	    _ = b.SendMessage(msg.ChatID, "got: "+msg.Content, msg.MessageID)
//	})
//	...
//	b.Stop()
//
// The message handler is called from the polling goroutine, one update at a time.
package bot

import "time"

// BotMessage is an incoming text message or callback query
type BotMessage struct {
	UpdateID  int
	ChatID    int64
	MessageID int
	UserID    int64
	Content   string // message text or callback data
	// CallbackID is set when the message came from an inline button press
	CallbackID string
	Timestamp  time.Time
}

// IsCallback reports whether the message is a button press
func (m BotMessage) IsCallback() bool {
	return m.CallbackID != ""
}
