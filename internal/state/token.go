package state

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/werdnum/telegram-bot-api-mock/internal/models"
	"github.com/werdnum/telegram-bot-api-mock/pkg/constants"
)

const tokenFormatHint = "Expected format: '<bot_id>:<secret>'"

// TokenError reports a bot token that does not have the <bot_id>:<secret> shape
type TokenError struct {
	Reason string
}

func (e *TokenError) Error() string {
	return "Invalid token format: " + e.Reason
}

// BotIdentity is the synthetic bot user derived from a token
type BotIdentity struct {
	ID        int64
	FirstName string
	Username  string
}

// User returns the identity as a wire user
func (b BotIdentity) User() models.User {
	return models.User{
		ID:        b.ID,
		IsBot:     true,
		FirstName: b.FirstName,
		Username:  b.Username,
	}
}

// ParseToken validates the token shape and derives the bot identity from its id part
func ParseToken(token string) (BotIdentity, error) {
	idPart, _, found := strings.Cut(token, ":")
	if !found {
		return BotIdentity{}, &TokenError{
			Reason: "token must contain a colon (':') separator. " + tokenFormatHint + " (e.g., '123456789:ABCdef...')",
		}
	}
	if idPart == "" {
		return BotIdentity{}, &TokenError{
			Reason: "bot_id cannot be empty. " + tokenFormatHint + " where bot_id is a positive integer",
		}
	}

	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		return BotIdentity{}, &TokenError{
			Reason: fmt.Sprintf("bot_id must be a positive integer, got '%s'. %s (e.g., '123456789:ABCdef...')", idPart, tokenFormatHint),
		}
	}
	if id <= 0 {
		return BotIdentity{}, &TokenError{
			Reason: fmt.Sprintf("bot_id must be a positive integer, got '%d'. Bot IDs are always positive numbers.", id),
		}
	}

	return BotIdentity{
		ID:        id,
		FirstName: constants.BotFirstName,
		Username:  constants.BotUsernamePrefix + strconv.FormatInt(id, 10),
	}, nil
}
