package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewUserID(t *testing.T) {
	req := require.New(t)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id := string(NewUserID())
		req.True(strings.HasPrefix(id, "us_"))
		req.Len(id, 3+randomIDLength)
		req.False(seen[id], "ids must not repeat")
		seen[id] = true
	}
}

func TestNewAccessToken(t *testing.T) {
	req := require.New(t)

	token := NewAccessToken(720 * time.Hour)

	req.True(strings.HasPrefix(token.Secret, "tk_"))
	req.Len(token.Secret, 3+randomIDLength)

	// Expiry sits roughly validity from now
	req.WithinDuration(time.Now().UTC().Add(720*time.Hour), token.ExpiresAt, time.Minute)
	req.False(token.Expired(time.Now().UTC()))
	req.True(token.Expired(token.ExpiresAt))
}

func TestValidateHandshake(t *testing.T) {
	t.Run("should accept a complete handshake", func(t *testing.T) {
		require.NoError(t, ValidateHandshake("ab12-cd34", "us_alice", "tk_secret"))
	})

	t.Run("should reject missing fields", func(t *testing.T) {
		req := require.New(t)
		req.Error(ValidateHandshake("", "us_alice", "tk_secret"))
		req.Error(ValidateHandshake("ab12-cd34", "", "tk_secret"))
		req.Error(ValidateHandshake("ab12-cd34", "us_alice", ""))
	})
}

func TestValidateUpdateUser(t *testing.T) {
	t.Run("should accept partial updates", func(t *testing.T) {
		req := require.New(t)
		req.NoError(ValidateUpdateUser(UpdateUserRequest{}))
		req.NoError(ValidateUpdateUser(UpdateUserRequest{Name: "Alice"}))
		req.NoError(ValidateUpdateUser(UpdateUserRequest{Email: "alice@example.com"}))
	})

	t.Run("should reject a malformed email", func(t *testing.T) {
		require.Error(t, ValidateUpdateUser(UpdateUserRequest{Email: "not-an-email"}))
	})

	t.Run("should reject an overlong name", func(t *testing.T) {
		require.Error(t, ValidateUpdateUser(UpdateUserRequest{Name: strings.Repeat("a", 121)}))
	})
}
