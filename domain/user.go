package domain

import (
	"crypto/subtle"
	"time"

	"meetsync/errors"
)

type UserID string

// AccessToken is an opaque bearer credential. Validity is an exact secret
// match plus non-expiry; tokens are never rotated, only issued at
// registration.
type AccessToken struct {
	Secret    string
	ExpiresAt time.Time
}

func (t AccessToken) Matches(secret string) bool {
	return subtle.ConstantTimeCompare([]byte(t.Secret), []byte(secret)) == 1
}

func (t AccessToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// User is the identity record. Registration is anonymous: a user starts
// with a generated id and one access token, name and email come later.
type User struct {
	ID     UserID
	Name   string
	Email  string
	Tokens []AccessToken
}

// CheckToken resolves the given secret against the user's tokens.
// A matching but expired token is reported as ErrTokenExpired so the
// relay can still answer "unauthorized" while logging the real cause.
func (u User) CheckToken(secret string, now time.Time) error {
	expired := false
	for _, token := range u.Tokens {
		if !token.Matches(secret) {
			continue
		}
		if !token.Expired(now) {
			return nil
		}
		expired = true
	}
	if expired {
		return errors.ErrTokenExpired
	}
	return errors.ErrBadToken
}

// UserUpdate is a partial write against a user record. Empty fields are
// left unchanged, mirroring MeetingUpdate semantics.
type UserUpdate struct {
	Name  string
	Email string
}

func (u *User) ApplyUpdate(update UserUpdate) {
	if update.Name != "" {
		u.Name = update.Name
	}
	if update.Email != "" {
		u.Email = update.Email
	}
}
