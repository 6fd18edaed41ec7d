//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"meetsync/auth"
	"meetsync/domain"
	"meetsync/errors"
)

// IUserRepository is the identity store: it owns user records and their
// access tokens. resolveUser of the sync protocol is GetUserByToken.
type IUserRepository interface {
	CreateUser() (domain.User, error)
	GetUserByID(id domain.UserID) (domain.User, error)
	GetUserByToken(id domain.UserID, secret string) (domain.User, error)
	UpdateUser(id domain.UserID, update domain.UserUpdate) (domain.User, error)
}

type UserRepository struct {
	db            *badger.DB
	tokenValidity time.Duration
}

func NewUserRepository(db *badger.DB, tokenValidity time.Duration) IUserRepository {
	return &UserRepository{db: db, tokenValidity: tokenValidity}
}

// CreateUser persists an anonymous user with a freshly issued token.
// Registration needs no input: name and email arrive later via
// UpdateUser, once the user fills them in.
func (r *UserRepository) CreateUser() (domain.User, error) {
	user := domain.User{
		ID:     auth.NewUserID(),
		Tokens: []domain.AccessToken{auth.NewAccessToken(r.tokenValidity)},
	}

	data, err := json.Marshal(fromUser(user))
	if err != nil {
		return domain.User{}, fmt.Errorf("marshal user: %w", err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(userKey(user.ID), data)
	})
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (r *UserRepository) GetUserByID(id domain.UserID) (domain.User, error) {
	var stored storedUser

	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &stored)
		})
	})
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return domain.User{}, errors.ErrUserNotFound
		}
		return domain.User{}, err
	}
	return toUser(stored), nil
}

// GetUserByToken resolves (userId, secret) to a user. The returned error
// distinguishes an unknown user from a bad or expired token so callers
// can log the cause; all three answer "unauthorized" on the wire.
func (r *UserRepository) GetUserByToken(id domain.UserID, secret string) (domain.User, error) {
	user, err := r.GetUserByID(id)
	if err != nil {
		return domain.User{}, err
	}
	if err := user.CheckToken(secret, time.Now().UTC()); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (r *UserRepository) UpdateUser(id domain.UserID, update domain.UserUpdate) (domain.User, error) {
	var user domain.User

	err := r.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(id))
		if err != nil {
			return err
		}
		var stored storedUser
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &stored)
		}); err != nil {
			return err
		}

		user = toUser(stored)
		user.ApplyUpdate(update)

		data, err := json.Marshal(fromUser(user))
		if err != nil {
			return fmt.Errorf("marshal user: %w", err)
		}
		return txn.Set(userKey(id), data)
	})
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return domain.User{}, errors.ErrUserNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}
