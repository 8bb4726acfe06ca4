package state

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/werdnum/telegram-bot-api-mock/internal/logger"
	"github.com/werdnum/telegram-bot-api-mock/internal/models"
)

// Server is the registry of every bot the process has seen, together with
// the shared id allocator and blob store.
type Server struct {
	mu   sync.Mutex
	bots map[string]*Bot

	ids   *IDAllocator
	blobs *BlobStore
	now   Clock
}

// Option configures a Server
type Option func(*Server)

// WithClock replaces time.Now, mainly for tests of chat action expiry
func WithClock(clock Clock) Option {
	return func(s *Server) {
		s.now = clock
	}
}

// NewServer creates an empty registry
func NewServer(opts ...Option) *Server {
	s := &Server{
		bots:  make(map[string]*Bot),
		ids:   &IDAllocator{},
		blobs: NewBlobStore(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IDs returns the shared id allocator
func (s *Server) IDs() *IDAllocator {
	return s.ids
}

// Blobs returns the shared blob store
func (s *Server) Blobs() *BlobStore {
	return s.blobs
}

// Now returns the server clock's current time
func (s *Server) Now() time.Time {
	return s.now()
}

// GetOrCreateBot returns the bot for token, creating it on first use.
// Malformed tokens are rejected with a *TokenError before the registry is touched.
func (s *Server) GetOrCreateBot(token string) (*Bot, error) {
	identity, err := ParseToken(token)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if b, ok := s.bots[token]; ok {
		return b, nil
	}

	b := newBot(token, identity, s.now)
	s.bots[token] = b

	logger.WithFields(logrus.Fields{
		"token":  logger.MaskSecret(token),
		"bot_id": identity.ID,
	}).Debug("bot-created")

	return b, nil
}

// GetBot looks a bot up without creating it
func (s *Server) GetBot(token string) (*Bot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bots[token]
	return b, ok
}

// BotCount returns the number of known bots
func (s *Server) BotCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bots)
}

// Tx is exclusive access to one bot. Ids allocated through a Tx and the
// records appended through it become visible together, so allocation order
// matches append order for that bot.
type Tx struct {
	server *Server
	bot    *Bot
}

// WithBot resolves (or creates) the bot for token and runs fn while holding its lock.
// fn must not call the locking methods of the same Bot.
func (s *Server) WithBot(token string, fn func(tx *Tx) error) (*Bot, error) {
	b, err := s.GetOrCreateBot(token)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return b, fn(&Tx{server: s, bot: b})
}

// Bot returns the bot the transaction is bound to
func (tx *Tx) Bot() *Bot {
	return tx.bot
}

// NextMessageID allocates a message id
func (tx *Tx) NextMessageID() int64 {
	return tx.server.ids.NextMessageID()
}

// NextUpdateID allocates an update id
func (tx *Tx) NextUpdateID() int64 {
	return tx.server.ids.NextUpdateID()
}

// NextCallbackID allocates a callback query id
func (tx *Tx) NextCallbackID() int64 {
	return tx.server.ids.NextCallbackID()
}

// Message finds a stored message
func (tx *Tx) Message(chatID, messageID int64) (StoredMessage, bool) {
	if i := tx.bot.indexLocked(chatID, messageID); i >= 0 {
		return tx.bot.messages[i], true
	}
	return StoredMessage{}, false
}

// AddMessage snapshots msg into the bot's history
func (tx *Tx) AddMessage(msg models.Message, isBotMessage bool) StoredMessage {
	stored := newStoredMessage(msg, isBotMessage, tx.server.now())
	tx.bot.messages = append(tx.bot.messages, stored)
	return stored
}

// AddUpdate queues update as undelivered
func (tx *Tx) AddUpdate(update models.Update) StoredUpdate {
	stored := StoredUpdate{UpdateID: update.UpdateID, Update: update}
	tx.bot.addUpdateLocked(stored)
	return stored
}

// AddMessage stores msg for the bot behind token
func (s *Server) AddMessage(token string, msg models.Message, isBotMessage bool) (StoredMessage, error) {
	var stored StoredMessage
	_, err := s.WithBot(token, func(tx *Tx) error {
		stored = tx.AddMessage(msg, isBotMessage)
		return nil
	})
	return stored, err
}

// AddUpdate queues update for the bot behind token
func (s *Server) AddUpdate(token string, update models.Update) (StoredUpdate, error) {
	var stored StoredUpdate
	_, err := s.WithBot(token, func(tx *Tx) error {
		stored = tx.AddUpdate(update)
		return nil
	})
	return stored, err
}

// Reset forgets every bot, zeroes the id counters and empties the blob store
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bots = make(map[string]*Bot)
	s.ids.Reset()
	s.blobs.Clear()
}

func newStoredMessage(msg models.Message, isBotMessage bool, now time.Time) StoredMessage {
	stored := StoredMessage{
		MessageID:    msg.MessageID,
		ChatID:       msg.Chat.ID,
		CreatedAt:    now,
		IsBotMessage: isBotMessage,
		Message:      msg,
	}
	if msg.From != nil {
		id := msg.From.ID
		stored.SenderID = &id
	}
	if msg.Text != "" {
		text := msg.Text
		stored.Text = &text
	}
	return stored
}
