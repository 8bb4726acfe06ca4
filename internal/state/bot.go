package state

import (
	"sort"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/werdnum/telegram-bot-api-mock/internal/models"
	"github.com/werdnum/telegram-bot-api-mock/pkg/constants"
)

// Clock returns the current wall-clock time
type Clock func() time.Time

// WebhookConfig is the webhook registered by setWebhook
type WebhookConfig struct {
	URL                          string
	SecretToken                  string
	MaxConnections               int
	AllowedUpdates               []string
	IPAddress                    string
	LastErrorDate                int64 // unix seconds, 0 when no error was recorded
	LastErrorMessage             string
	LastSynchronizationErrorDate int64
}

// StoredMessage is a message kept in a bot's history
type StoredMessage struct {
	MessageID    int64
	ChatID       int64
	SenderID     *int64
	Text         *string
	CreatedAt    time.Time
	IsBotMessage bool
	Message      models.Message
}

// StoredUpdate is an update waiting in a bot's queue
type StoredUpdate struct {
	UpdateID  int64
	Update    models.Update
	Delivered bool
}

type chatAction struct {
	action string
	at     time.Time
}

// Bot is the state of one bot token. Every method takes the bot's lock.
type Bot struct {
	Token    string
	Identity BotIdentity

	mu          sync.Mutex
	now         Clock
	webhook     *WebhookConfig
	pending     []StoredUpdate
	history     []models.Update
	messages    []StoredMessage
	chatActions map[int64]chatAction
	answered    map[string]models.AnsweredCallback
}

func newBot(token string, identity BotIdentity, now Clock) *Bot {
	return &Bot{
		Token:       token,
		Identity:    identity,
		now:         now,
		chatActions: make(map[int64]chatAction),
		answered:    make(map[string]models.AnsweredCallback),
	}
}

// AddUpdate appends to the pending queue and to the update history
func (b *Bot) AddUpdate(u StoredUpdate) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.addUpdateLocked(u)
}

func (b *Bot) addUpdateLocked(u StoredUpdate) {
	b.pending = append(b.pending, u)
	b.history = append(b.history, u.Update)
}

// PendingUpdates returns pending updates with id >= offset (when offset is
// set), truncated to limit (when limit > 0). It does not mutate the queue.
func (b *Bot) PendingUpdates(limit int, offset *int64) []StoredUpdate {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]StoredUpdate, 0, len(b.pending))
	for _, u := range b.pending {
		if offset != nil && u.UpdateID < *offset {
			continue
		}
		out = append(out, u)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// MarkUpdatesDelivered flags every pending update with id <= uptoID
func (b *Bot) MarkUpdatesDelivered(uptoID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.pending {
		if b.pending[i].UpdateID <= uptoID {
			b.pending[i].Delivered = true
		}
	}
}

// ClearDeliveredUpdates drops delivered updates and keeps the order of the rest
func (b *Bot) ClearDeliveredUpdates() {
	b.mu.Lock()
	defer b.mu.Unlock()
	kept := b.pending[:0]
	for _, u := range b.pending {
		if !u.Delivered {
			kept = append(kept, u)
		}
	}
	b.pending = kept
}

// DropPendingUpdates empties the pending queue
func (b *Bot) DropPendingUpdates() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending = nil
}

// PendingCount returns the length of the pending queue
func (b *Bot) PendingCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// UpdateHistory returns every update created for the bot since the last reset
func (b *Bot) UpdateHistory() []models.Update {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.Update, len(b.history))
	copy(out, b.history)
	return out
}

// AddMessage appends to the message history
func (b *Bot) AddMessage(m StoredMessage) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, m)
}

// Message finds a message by chat and message id
func (b *Bot) Message(chatID, messageID int64) (StoredMessage, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i := b.indexLocked(chatID, messageID); i >= 0 {
		return b.messages[i], true
	}
	return StoredMessage{}, false
}

func (b *Bot) indexLocked(chatID, messageID int64) int {
	for i := range b.messages {
		if b.messages[i].ChatID == chatID && b.messages[i].MessageID == messageID {
			return i
		}
	}
	return -1
}

// MessagesForChat returns the chat's messages, most recent first, truncated
// to limit when limit > 0
func (b *Bot) MessagesForChat(chatID int64, limit int) []StoredMessage {
	b.mu.Lock()
	var out []StoredMessage
	for _, m := range b.messages {
		if m.ChatID == chatID {
			out = append(out, m)
		}
	}
	b.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// EditMessage replaces the text of a stored message and stamps edit_date.
// The inline keyboard is kept unless markup is non-nil.
func (b *Bot) EditMessage(chatID, messageID int64, text string, markup *tgbotapi.InlineKeyboardMarkup) (models.Message, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.indexLocked(chatID, messageID)
	if i < 0 {
		return models.Message{}, false
	}

	stored := &b.messages[i]
	edited := stored.Message
	edited.Text = text
	edited.EditDate = b.now().Unix()
	if markup != nil {
		edited.ReplyMarkup = markup
	}

	stored.Message = edited
	stored.Text = &text
	return edited, true
}

// DeleteMessage removes a message and reports whether it existed
func (b *Bot) DeleteMessage(chatID, messageID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.indexLocked(chatID, messageID)
	if i < 0 {
		return false
	}
	b.messages = append(b.messages[:i], b.messages[i+1:]...)
	return true
}

// SetChatAction records action as the chat's current activity
func (b *Bot) SetChatAction(chatID int64, action string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.chatActions[chatID] = chatAction{action: action, at: b.now()}
}

// ChatAction returns the chat's action while it is at most five seconds old.
// Older entries are evicted by this read; nothing else removes them.
func (b *Bot) ChatAction(chatID int64) (models.ChatAction, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.chatActionLocked(chatID, b.now())
}

func (b *Bot) chatActionLocked(chatID int64, now time.Time) (models.ChatAction, bool) {
	ca, ok := b.chatActions[chatID]
	if !ok {
		return models.ChatAction{}, false
	}
	if now.Sub(ca.at) > constants.ChatActionTTL {
		delete(b.chatActions, chatID)
		return models.ChatAction{}, false
	}
	return models.ChatAction{
		ChatID:    chatID,
		Action:    ca.action,
		Timestamp: unixSeconds(ca.at),
	}, true
}

// ChatActions returns the live action of every chat, ordered by chat id
func (b *Bot) ChatActions() []models.ChatAction {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	ids := make([]int64, 0, len(b.chatActions))
	for id := range b.chatActions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]models.ChatAction, 0, len(ids))
	for _, id := range ids {
		if ca, ok := b.chatActionLocked(id, now); ok {
			out = append(out, ca)
		}
	}
	return out
}

// AnswerCallback records the answer for a callback query, replacing any earlier one
func (b *Bot) AnswerCallback(answer models.AnsweredCallback) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if answer.AnsweredAt == 0 {
		answer.AnsweredAt = unixSeconds(b.now())
	}
	b.answered[answer.CallbackQueryID] = answer
}

// AnsweredCallback returns the answer recorded for id
func (b *Bot) AnsweredCallback(id string) (models.AnsweredCallback, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	a, ok := b.answered[id]
	return a, ok
}

// AnsweredCallbacks returns every recorded answer, oldest first
func (b *Bot) AnsweredCallbacks() []models.AnsweredCallback {
	b.mu.Lock()
	out := make([]models.AnsweredCallback, 0, len(b.answered))
	for _, a := range b.answered {
		out = append(out, a)
	}
	b.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].AnsweredAt == out[j].AnsweredAt {
			return out[i].CallbackQueryID < out[j].CallbackQueryID
		}
		return out[i].AnsweredAt < out[j].AnsweredAt
	})
	return out
}

// SetWebhook installs cfg, optionally dropping the pending queue
func (b *Bot) SetWebhook(cfg WebhookConfig, dropPending bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if cfg.MaxConnections == 0 {
		cfg.MaxConnections = constants.DefaultMaxConnections
	}
	b.webhook = &cfg
	if dropPending {
		b.pending = nil
	}
}

// DeleteWebhook clears the webhook configuration entirely
func (b *Bot) DeleteWebhook(dropPending bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.webhook = nil
	if dropPending {
		b.pending = nil
	}
}

// Webhook returns a copy of the webhook configuration
func (b *Bot) Webhook() (WebhookConfig, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.webhook == nil {
		return WebhookConfig{}, false
	}
	cfg := *b.webhook
	cfg.AllowedUpdates = append([]string(nil), b.webhook.AllowedUpdates...)
	return cfg, true
}

// RecordDeliveryError stores the outcome of a failed delivery to url. It is
// a no-op when the webhook was removed or replaced in the meantime.
func (b *Bot) RecordDeliveryError(url, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.webhook == nil || b.webhook.URL != url {
		return
	}
	b.webhook.LastErrorDate = b.now().Unix()
	b.webhook.LastErrorMessage = message
}

// WebhookInfo builds the getWebhookInfo result
func (b *Bot) WebhookInfo() models.WebhookInfo {
	b.mu.Lock()
	defer b.mu.Unlock()

	info := models.WebhookInfo{PendingUpdateCount: len(b.pending)}
	if b.webhook == nil {
		return info
	}

	cfg := b.webhook
	info.URL = cfg.URL
	details := &models.WebhookDetails{MaxConnections: cfg.MaxConnections}
	if cfg.IPAddress != "" {
		ip := cfg.IPAddress
		details.IPAddress = &ip
	}
	if len(cfg.AllowedUpdates) > 0 {
		details.AllowedUpdates = append([]string(nil), cfg.AllowedUpdates...)
	}
	if cfg.LastErrorDate != 0 {
		date, msg := cfg.LastErrorDate, cfg.LastErrorMessage
		details.LastErrorDate = &date
		details.LastErrorMessage = &msg
	}
	if cfg.LastSynchronizationErrorDate != 0 {
		date := cfg.LastSynchronizationErrorDate
		details.LastSynchronizationErrorDate = &date
	}
	info.WebhookDetails = details
	return info
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
