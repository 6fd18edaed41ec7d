package errors

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized    = fmt.Errorf("unauthorized")
	ErrBadToken        = fmt.Errorf("bad token")
	ErrTokenExpired    = fmt.Errorf("token expired")
	ErrUserNotFound    = fmt.Errorf("user not found")
	ErrMeetingNotFound = fmt.Errorf("meeting not found")
	ErrInvalidRequest  = fmt.Errorf("invalid request")
)

// Wire error strings sent to clients inside {type:"error"} frames.
// Anything that is not an auth failure or a missing meeting is reported
// as Internal so storage details never leak over the channel.
const (
	WireUnauthorized = "Unauthorized"
	WireNotFound     = "NotFound"
	WireInternal     = "Internal"
)

// MapToWire converts a service error into the string carried by an
// error frame. A missing meeting is deliberately distinguished from a
// failing store: only ErrMeetingNotFound maps to NotFound.
func MapToWire(err error) string {
	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrBadToken),
		errors.Is(err, ErrTokenExpired),
		errors.Is(err, ErrUserNotFound):
		return WireUnauthorized
	case errors.Is(err, ErrMeetingNotFound):
		return WireNotFound
	default:
		return WireInternal
	}
}
