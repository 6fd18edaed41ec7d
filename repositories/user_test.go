package repositories

import (
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	"meetsync/domain"
	"meetsync/errors"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).
		WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestUserRepository_CreateUser(t *testing.T) {
	req := require.New(t)
	repo := NewUserRepository(openTestDB(t), 720*time.Hour)

	user, err := repo.CreateUser()
	req.NoError(err)

	req.NotEmpty(user.ID)
	req.Len(user.Tokens, 1)
	req.NotEmpty(user.Tokens[0].Secret)
	req.False(user.Tokens[0].Expired(time.Now().UTC()))

	// The record round-trips through the store
	loaded, err := repo.GetUserByID(user.ID)
	req.NoError(err)
	req.Equal(user.ID, loaded.ID)
	req.Equal(user.Tokens[0].Secret, loaded.Tokens[0].Secret)
}

func TestUserRepository_GetUserByID_NotFound(t *testing.T) {
	repo := NewUserRepository(openTestDB(t), 720*time.Hour)

	_, err := repo.GetUserByID("us_ghost")
	require.ErrorIs(t, err, errors.ErrUserNotFound)
}

func TestUserRepository_GetUserByToken(t *testing.T) {
	t.Run("should resolve valid credentials", func(t *testing.T) {
		req := require.New(t)
		repo := NewUserRepository(openTestDB(t), 720*time.Hour)

		user, err := repo.CreateUser()
		req.NoError(err)

		loaded, err := repo.GetUserByToken(user.ID, user.Tokens[0].Secret)
		req.NoError(err)
		req.Equal(user.ID, loaded.ID)
	})

	t.Run("should reject a wrong secret", func(t *testing.T) {
		req := require.New(t)
		repo := NewUserRepository(openTestDB(t), 720*time.Hour)

		user, err := repo.CreateUser()
		req.NoError(err)

		_, err = repo.GetUserByToken(user.ID, "tk_wrong")
		req.ErrorIs(err, errors.ErrBadToken)
	})

	t.Run("should reject an expired token", func(t *testing.T) {
		req := require.New(t)
		repo := NewUserRepository(openTestDB(t), -time.Hour)

		user, err := repo.CreateUser()
		req.NoError(err)

		_, err = repo.GetUserByToken(user.ID, user.Tokens[0].Secret)
		req.ErrorIs(err, errors.ErrTokenExpired)
	})

	t.Run("should report an unknown user", func(t *testing.T) {
		repo := NewUserRepository(openTestDB(t), 720*time.Hour)

		_, err := repo.GetUserByToken("us_ghost", "tk_whatever")
		require.ErrorIs(t, err, errors.ErrUserNotFound)
	})
}

func TestUserRepository_UpdateUser(t *testing.T) {
	req := require.New(t)
	repo := NewUserRepository(openTestDB(t), 720*time.Hour)

	user, err := repo.CreateUser()
	req.NoError(err)

	updated, err := repo.UpdateUser(user.ID, domain.UserUpdate{Name: "Alice"})
	req.NoError(err)
	req.Equal("Alice", updated.Name)

	// A later partial update keeps the earlier fields
	updated, err = repo.UpdateUser(user.ID, domain.UserUpdate{Email: "alice@example.com"})
	req.NoError(err)
	req.Equal("Alice", updated.Name)
	req.Equal("alice@example.com", updated.Email)

	// Tokens survive profile updates
	loaded, err := repo.GetUserByToken(user.ID, user.Tokens[0].Secret)
	req.NoError(err)
	req.Equal("Alice", loaded.Name)

	_, err = repo.UpdateUser("us_ghost", domain.UserUpdate{Name: "Nobody"})
	req.ErrorIs(err, errors.ErrUserNotFound)
}
