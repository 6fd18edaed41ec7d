package auth

import (
	"crypto/rand"
	"math/big"
	"time"

	"meetsync/domain"
)

// Ids and secrets share the meeting-id alphabet so everything stays
// copy-paste friendly.
const idAlphabet = "abcdefghijklmnpqrstuvwxyz123456789"

const randomIDLength = 16

func randomID(length int) string {
	id := make([]byte, length)
	max := big.NewInt(int64(len(idAlphabet)))
	for i := range id {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the platform source is broken;
			// there is no sensible recovery for credential generation.
			panic(err)
		}
		id[i] = idAlphabet[n.Int64()]
	}
	return string(id)
}

// NewUserID generates an identifier like "us_x7f2...".
func NewUserID() domain.UserID {
	return domain.UserID("us_" + randomID(randomIDLength))
}

// NewAccessToken issues an opaque bearer token valid for the given
// duration. The secret is stored on the user record; validation is a
// plain match against it plus an expiry check.
func NewAccessToken(validity time.Duration) domain.AccessToken {
	return domain.AccessToken{
		Secret:    "tk_" + randomID(randomIDLength),
		ExpiresAt: time.Now().UTC().Add(validity),
	}
}
