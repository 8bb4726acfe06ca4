// Package models defines the wire types of the mocked Bot API.
//
// Message, Update, User, Chat and CallbackQuery are declared here so that
// every optional field is omitted when empty. Keyboards, entities and media
// objects reuse the tgbotapi types, which already serialize that way.
package models

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// User is a Telegram user or bot
type User struct {
	ID           int64  `json:"id"`
	IsBot        bool   `json:"is_bot"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name,omitempty"`
	Username     string `json:"username,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
}

// Chat is the conversation a message belongs to
type Chat struct {
	ID        int64  `json:"id"`
	Type      string `json:"type"`
	Title     string `json:"title,omitempty"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// Message is a message sent by a user or by the bot
type Message struct {
	MessageID       int64                          `json:"message_id"`
	From            *User                          `json:"from,omitempty"`
	Date            int64                          `json:"date"`
	Chat            Chat                           `json:"chat"`
	ReplyToMessage  *Message                       `json:"reply_to_message,omitempty"`
	EditDate        int64                          `json:"edit_date,omitempty"`
	MediaGroupID    string                         `json:"media_group_id,omitempty"`
	Text            string                         `json:"text,omitempty"`
	Entities        []tgbotapi.MessageEntity       `json:"entities,omitempty"`
	Animation       *tgbotapi.Animation            `json:"animation,omitempty"`
	Audio           *tgbotapi.Audio                `json:"audio,omitempty"`
	Document        *tgbotapi.Document             `json:"document,omitempty"`
	Photo           []tgbotapi.PhotoSize           `json:"photo,omitempty"`
	Video           *tgbotapi.Video                `json:"video,omitempty"`
	Voice           *tgbotapi.Voice                `json:"voice,omitempty"`
	Caption         string                         `json:"caption,omitempty"`
	CaptionEntities []tgbotapi.MessageEntity       `json:"caption_entities,omitempty"`
	ReplyMarkup     *tgbotapi.InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

// CallbackQuery is produced when a user presses an inline keyboard button
type CallbackQuery struct {
	ID           string   `json:"id"`
	From         User     `json:"from"`
	Message      *Message `json:"message,omitempty"`
	ChatInstance string   `json:"chat_instance"`
	Data         string   `json:"data,omitempty"`
}

// Update is one event delivered to a bot
type Update struct {
	UpdateID      int64          `json:"update_id"`
	Message       *Message       `json:"message,omitempty"`
	EditedMessage *Message       `json:"edited_message,omitempty"`
	CallbackQuery *CallbackQuery `json:"callback_query,omitempty"`
}

// WebhookInfo is the result of getWebhookInfo. Details is nil when no
// webhook is configured, which leaves only the three base fields on the wire.
type WebhookInfo struct {
	URL                  string `json:"url"`
	HasCustomCertificate bool   `json:"has_custom_certificate"`
	PendingUpdateCount   int    `json:"pending_update_count"`
	*WebhookDetails
}

// WebhookDetails are reported only while a webhook is set; unset values are null
type WebhookDetails struct {
	IPAddress                    *string  `json:"ip_address"`
	MaxConnections               int      `json:"max_connections"`
	AllowedUpdates               []string `json:"allowed_updates"`
	LastErrorDate                *int64   `json:"last_error_date"`
	LastErrorMessage             *string  `json:"last_error_message"`
	LastSynchronizationErrorDate *int64   `json:"last_synchronization_error_date"`
}

// ChatAction is a live chat action as exposed to test harnesses
type ChatAction struct {
	ChatID    int64   `json:"chat_id"`
	Action    string  `json:"action"`
	Timestamp float64 `json:"timestamp"`
}

// AnsweredCallback is the answer a bot gave to a callback query
type AnsweredCallback struct {
	CallbackQueryID string  `json:"callback_query_id"`
	Text            *string `json:"text"`
	ShowAlert       bool    `json:"show_alert"`
	URL             *string `json:"url"`
	CacheTime       int     `json:"cache_time,omitempty"`
	AnsweredAt      float64 `json:"answered_at"`
}
