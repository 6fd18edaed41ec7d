package runtime

import (
	"context"
	"log/slog"
	"sync"

	"meetsync/contract"
	"meetsync/domain"
	"meetsync/protocol"
)

type connection struct {
	userID domain.UserID
	sink   contract.EventSink
}

// Registry maps a meeting id to the connections currently authenticated
// for it. It exists purely for liveness tracking and fan-out addressing.
type Registry struct {
	mu       sync.RWMutex
	log      *slog.Logger
	meetings map[domain.MeetingID]map[contract.ConnID]connection
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		log:      log,
		meetings: make(map[domain.MeetingID]map[contract.ConnID]connection),
	}
}

// Register binds a connection to a meeting. Re-registering the same
// connection is an upsert: the previous binding for that meeting is
// simply overwritten.
func (r *Registry) Register(meetingID domain.MeetingID, connID contract.ConnID,
	userID domain.UserID, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.meetings[meetingID]
	if !ok {
		entry = make(map[contract.ConnID]connection)
		r.meetings[meetingID] = entry
	}
	entry[connID] = connection{userID: userID, sink: sink}
}

// Unregister drops the connection from every meeting entry it belongs
// to. Empty entries are pruned so the map does not grow with dead
// meeting ids over the process lifetime.
func (r *Registry) Unregister(connID contract.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for meetingID, entry := range r.meetings {
		if _, ok := entry[connID]; !ok {
			continue
		}
		delete(entry, connID)
		if len(entry) == 0 {
			delete(r.meetings, meetingID)
		}
	}
}

// Lookup resolves the user bound to (meetingID, connID), if the
// connection is currently registered there.
func (r *Registry) Lookup(meetingID domain.MeetingID, connID contract.ConnID) (domain.UserID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.meetings[meetingID][connID]
	return conn.userID, ok
}

// Broadcast delivers msg to every connection registered for the meeting
// except the excluded one. The read lock is held across delivery so a
// sink is never used after Unregister returned for its connection;
// sinks must therefore bound their own blocking time.
func (r *Registry) Broadcast(ctx context.Context, meetingID domain.MeetingID,
	exclude contract.ConnID, msg protocol.ServerMessage) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for connID, conn := range r.meetings[meetingID] {
		if connID == exclude {
			continue
		}
		if err := conn.sink.Consume(ctx, msg); err != nil {
			r.log.Debug("Broadcast delivery failed",
				"meeting_id", meetingID,
				"conn_id", connID,
				"error", err)
		}
	}
}
