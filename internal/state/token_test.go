package state

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseToken_Valid(t *testing.T) {
	identity, err := ParseToken("123456789:ABC-DEF1234ghIkl-zyx57W2v1u123ew11")
	require.NoError(t, err)
	assert.Equal(t, int64(123456789), identity.ID)
	assert.Equal(t, "Test Bot", identity.FirstName)
	assert.Equal(t, "test_bot_123456789", identity.Username)

	user := identity.User()
	assert.True(t, user.IsBot)
	assert.Equal(t, int64(123456789), user.ID)
}

func TestParseToken_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		contains []string
	}{
		{"missing colon", "invalid", []string{"colon"}},
		{"non numeric id", "abc:secret", []string{"positive integer", "'abc'"}},
		{"empty id", ":secret", []string{"cannot be empty"}},
		{"negative id", "-123:secret", []string{"positive integer", "-123"}},
		{"zero id", "0:secret", []string{"positive integer"}},
		{"empty token", "", []string{"colon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseToken(tt.token)
			require.Error(t, err)

			var tokenErr *TokenError
			require.True(t, errors.As(err, &tokenErr))
			assert.Contains(t, err.Error(), "Invalid token format")
			for _, s := range tt.contains {
				assert.Contains(t, err.Error(), s)
			}
		})
	}
}

func TestParseToken_DistinctMessages(t *testing.T) {
	seen := map[string]string{}
	for _, token := range []string{"invalid", "abc:secret", ":secret", "-123:secret"} {
		_, err := ParseToken(token)
		require.Error(t, err)
		prev, dup := seen[err.Error()]
		assert.False(t, dup, "%q and %q share a message", token, prev)
		seen[err.Error()] = token
	}
}
