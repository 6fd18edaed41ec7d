package auth

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// UpdateUserRequest is the payload of PATCH /api/users/me.
type UpdateUserRequest struct {
	Name  string `json:"name" validate:"omitempty,max=120"`
	Email string `json:"email" validate:"omitempty,email"`
}

func ValidateUpdateUser(req UpdateUserRequest) error {
	return validate.Struct(req)
}

// handshake mirrors the required fields of an auth frame. The relay
// rejects incomplete handshakes before touching the identity store.
type handshake struct {
	MeetingID string `validate:"required"`
	UserID    string `validate:"required"`
	Token     string `validate:"required"`
}

func ValidateHandshake(meetingID, userID, token string) error {
	return validate.Struct(handshake{MeetingID: meetingID, UserID: userID, Token: token})
}
