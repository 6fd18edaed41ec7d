//go:generate go run go.uber.org/mock/mockgen -source=sync_service.go -destination=../mocks/mock_sync_service.go -package=mocks
package services

import (
	"context"
	goerrors "errors"
	"log/slog"
	"time"

	"meetsync/auth"
	"meetsync/contract"
	"meetsync/domain"
	"meetsync/errors"
	"meetsync/observability"
	"meetsync/protocol"
	"meetsync/repositories"
)

// ISyncService is the relay engine behind every sync connection.
//
// Each connection walks Unauthenticated -> Authenticated -> Closed:
// HandleAuth performs the in-band handshake, HandleUpdate is the
// authenticated write path, Disconnect is terminal. The transport layer
// guarantees per-connection sequential calls; across connections the
// methods run concurrently.
type ISyncService interface {
	HandleAuth(ctx context.Context, connID contract.ConnID, msg protocol.Auth,
		sink contract.EventSink) protocol.ServerMessage
	HandleUpdate(ctx context.Context, connID contract.ConnID, msg protocol.Update) protocol.ServerMessage
	Disconnect(connID contract.ConnID)
}

type SyncService struct {
	log      *slog.Logger
	users    repositories.IUserRepository
	meetings repositories.IMeetingRepository
	registry contract.IRegistry
	monitor  *observability.Monitor
}

func NewSyncService(log *slog.Logger, users repositories.IUserRepository,
	meetings repositories.IMeetingRepository, registry contract.IRegistry,
	monitor *observability.Monitor) ISyncService {
	return &SyncService{
		log:      log,
		users:    users,
		meetings: meetings,
		registry: registry,
		monitor:  monitor,
	}
}

// HandleAuth resolves the handshake credentials against the identity
// store and, on success, registers the connection for the meeting.
// Failure keeps the connection open and unauthenticated; the client may
// retry with fresh credentials on the same connection.
func (s *SyncService) HandleAuth(_ context.Context, connID contract.ConnID,
	msg protocol.Auth, sink contract.EventSink) protocol.ServerMessage {
	if err := auth.ValidateHandshake(msg.MeetingID, msg.UserID, msg.Token); err != nil {
		s.log.Debug("Incomplete handshake", "conn_id", connID, "error", err)
		return protocol.NewAuthResponse(protocol.AuthUnauthorized)
	}

	user, err := s.users.GetUserByToken(domain.UserID(msg.UserID), msg.Token)
	switch {
	case err == nil:
	case goerrors.Is(err, errors.ErrUserNotFound):
		s.log.Debug("Auth for unknown user", "conn_id", connID, "user_id", msg.UserID)
		return protocol.NewAuthResponse(protocol.AuthUnknown)
	case goerrors.Is(err, errors.ErrBadToken), goerrors.Is(err, errors.ErrTokenExpired):
		s.log.Debug("Auth rejected", "conn_id", connID, "user_id", msg.UserID, "error", err)
		return protocol.NewAuthResponse(protocol.AuthUnauthorized)
	default:
		s.log.Error("Identity store failure during auth", "conn_id", connID, "error", err)
		return protocol.NewErrorMessage(errors.WireInternal)
	}

	s.registry.Register(domain.MeetingID(msg.MeetingID), connID, user.ID, sink)
	s.log.Info("Connection authenticated",
		"conn_id", connID,
		"meeting_id", msg.MeetingID,
		"user_id", user.ID)
	return protocol.NewAuthResponse(protocol.AuthOK)
}

// HandleUpdate applies an authenticated write and fans the committed
// document out to every other live connection of the meeting. The store
// write always completes before any broadcast, so recipients only ever
// see persisted state. The returned message, if any, is the error reply
// for the sender; a successful update produces no reply (the sender
// already holds the state it just wrote).
func (s *SyncService) HandleUpdate(ctx context.Context, connID contract.ConnID,
	msg protocol.Update) protocol.ServerMessage {
	meetingID := domain.MeetingID(msg.MeetingID)

	userID, ok := s.registry.Lookup(meetingID, connID)
	if !ok {
		s.log.Debug("Update without live registry entry",
			"conn_id", connID, "meeting_id", meetingID)
		return protocol.NewErrorMessage(errors.WireUnauthorized)
	}

	user, err := s.users.GetUserByID(userID)
	if err != nil {
		if goerrors.Is(err, errors.ErrUserNotFound) {
			return protocol.NewErrorMessage(errors.WireUnauthorized)
		}
		s.log.Error("Identity store failure during update", "conn_id", connID, "error", err)
		return protocol.NewErrorMessage(errors.WireInternal)
	}

	start := time.Now()
	meeting, err := s.meetings.UpdateMeeting(meetingID, user.ID, user.Name, msg.Data.ToDomain())
	if err != nil {
		if goerrors.Is(err, errors.ErrMeetingNotFound) {
			return protocol.NewErrorMessage(errors.WireNotFound)
		}
		s.log.Error("Meeting store failure", "meeting_id", meetingID, "error", err)
		return protocol.NewErrorMessage(errors.WireInternal)
	}

	s.registry.Broadcast(ctx, meetingID, connID, protocol.NewMeetingBroadcast(meeting))
	s.monitor.IncrBroadcastsSent()
	s.log.Debug("Update propagated",
		"meeting_id", meetingID,
		"user_id", user.ID,
		"store_latency", time.Since(start))
	return nil
}

// Disconnect drops the connection from every registry entry. No
// broadcast is generated: other participants simply stop receiving this
// member's edits.
func (s *SyncService) Disconnect(connID contract.ConnID) {
	s.registry.Unregister(connID)
	s.log.Debug("Connection unregistered", "conn_id", connID)
}
