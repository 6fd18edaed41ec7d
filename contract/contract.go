//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"

	"meetsync/domain"
	"meetsync/protocol"
)

// ConnID identifies one live connection, unique for the process lifetime.
type ConnID string

// EventSink is the outbound half of a connection. Consume hands a frame
// to the connection's writer; delivery is best-effort and must not block
// the relay for longer than the sink's own policy allows.
type EventSink interface {
	Consume(ctx context.Context, msg protocol.ServerMessage) error
}

// IRegistry indexes live, authenticated connections per meeting.
// It tracks liveness only and is never a source of truth for content.
type IRegistry interface {
	Register(meetingID domain.MeetingID, connID ConnID, userID domain.UserID, sink EventSink)
	Unregister(connID ConnID)
	Lookup(meetingID domain.MeetingID, connID ConnID) (domain.UserID, bool)
	Broadcast(ctx context.Context, meetingID domain.MeetingID, exclude ConnID, msg protocol.ServerMessage)
}
