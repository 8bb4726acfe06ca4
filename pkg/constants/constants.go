package constants

import "time"

// Server defaults
const (
	// DefaultHost is the address the mock listens on
	DefaultHost = "0.0.0.0"
	// DefaultPort is the port the mock listens on
	DefaultPort = 9000
	// EnvPrefix prefixes every environment override
	EnvPrefix = "TELEGRAM_MOCK_"
	// ShutdownTimeout bounds graceful shutdown of the HTTP server and the delivery pool
	ShutdownTimeout = 5 * time.Second
	// ReadHeaderTimeout guards the HTTP server against slow clients
	ReadHeaderTimeout = 10 * time.Second
)

// Webhook delivery
const (
	// WebhookHTTPTimeout is the timeout for a single webhook POST
	WebhookHTTPTimeout = 30 * time.Second
	// DefaultWebhookWorkers is the size of the background delivery pool
	DefaultWebhookWorkers = 16
	// DefaultMaxConnections is reported by getWebhookInfo when setWebhook omits it
	DefaultMaxConnections = 40
	// SecretTokenHeader carries the webhook secret to the receiving endpoint
	SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"
	// HTTPSuccessStatusCode is the only status treated as a delivered update
	HTTPSuccessStatusCode = 200
)

// Polling and state
const (
	// DefaultUpdatesLimit is used when getUpdates omits limit
	DefaultUpdatesLimit = 100
	// ChatActionTTL is how long a chat action stays visible
	ChatActionTTL = 5 * time.Second
	// FileUniqueIDLength is the length of the derived file_unique_id
	FileUniqueIDLength = 16
	// DefaultPollInterval is the delay between getUpdates calls of the echo bot
	DefaultPollInterval = 500 * time.Millisecond
	// MaxTelegramMessageLength is the longest text the echo bot sends, in characters
	MaxTelegramMessageLength = 4096
)

// Synthetic identities
const (
	// BotFirstName is the first_name of every mocked bot
	BotFirstName = "Test Bot"
	// BotUsernamePrefix is followed by the bot id to form the bot username
	BotUsernamePrefix = "test_bot_"
	// DefaultUserID is the sender of client actions without from_user
	DefaultUserID = 1
	// DefaultUserFirstName is the first_name of the default sender
	DefaultUserFirstName = "Test User"
	// PrivateChatType is the type of every chat the mock creates
	PrivateChatType = "private"
)

// Photo sizes generated for every uploaded photo
const (
	PhotoSmallSize  = 90
	PhotoMediumSize = 320
	PhotoLargeSize  = 800
)

// Token masking
const (
	// MinSecretLengthForMasking is the minimum length to apply partial masking
	MinSecretLengthForMasking = 10
	// SecretMaskPrefixLength is the length of prefix to show before masking
	SecretMaskPrefixLength = 7
	// SecretMaskSuffixLength is the length of suffix to show after masking
	SecretMaskSuffixLength = 4
)

// Logging defaults
const (
	// DefaultLogLevel is used when the configuration omits logging.level
	DefaultLogLevel = "info"
	// DefaultLogMaxSize is the default maximum log file size in MB
	DefaultLogMaxSize = 100
	// DefaultLogMaxBackups is the default number of rotated files to keep
	DefaultLogMaxBackups = 5
	// DefaultLogMaxAge is the default maximum number of days to retain old logs
	DefaultLogMaxAge = 30
)
