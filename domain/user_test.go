package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"meetsync/errors"
)

func TestUser_CheckToken(t *testing.T) {
	now := time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC)

	user := User{
		ID: "us_alice",
		Tokens: []AccessToken{
			{Secret: "tk_expired", ExpiresAt: now.Add(-time.Hour)},
			{Secret: "tk_valid", ExpiresAt: now.Add(time.Hour)},
		},
	}

	t.Run("should accept a matching unexpired token", func(t *testing.T) {
		require.NoError(t, user.CheckToken("tk_valid", now))
	})

	t.Run("should report an expired token distinctly", func(t *testing.T) {
		require.ErrorIs(t, user.CheckToken("tk_expired", now), errors.ErrTokenExpired)
	})

	t.Run("should reject an unknown secret", func(t *testing.T) {
		require.ErrorIs(t, user.CheckToken("tk_nope", now), errors.ErrBadToken)
	})

	t.Run("should treat expiry instant as expired", func(t *testing.T) {
		boundary := User{Tokens: []AccessToken{{Secret: "tk_a", ExpiresAt: now}}}
		require.ErrorIs(t, boundary.CheckToken("tk_a", now), errors.ErrTokenExpired)
	})
}

func TestUser_ApplyUpdate(t *testing.T) {
	req := require.New(t)

	user := User{ID: "us_alice", Name: "Alice", Email: "alice@example.com"}

	// Empty fields leave the record unchanged
	user.ApplyUpdate(UserUpdate{})
	req.Equal("Alice", user.Name)
	req.Equal("alice@example.com", user.Email)

	user.ApplyUpdate(UserUpdate{Name: "Alice B"})
	req.Equal("Alice B", user.Name)
	req.Equal("alice@example.com", user.Email)

	user.ApplyUpdate(UserUpdate{Email: "ab@example.com"})
	req.Equal("Alice B", user.Name)
	req.Equal("ab@example.com", user.Email)
}
