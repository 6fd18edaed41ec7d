// Package client implements the consumer side of the sync protocol: a
// reconnecting session that mirrors one meeting document and pushes the
// local member's edits.
package client

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"meetsync/domain"
	"meetsync/protocol"
)

// State is the session's connection lifecycle. The cycle is
// Disconnected -> Connecting -> Authenticating -> Live and back to
// Disconnected on any transport failure; reconnecting is expected.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateAuthenticating
	StateLive
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateLive:
		return "live"
	default:
		return "disconnected"
	}
}

// BackoffPolicy produces the wait before each reconnect attempt.
type BackoffPolicy struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
}

// Next returns the delay following the given one. A zero current delay
// starts the sequence at Initial.
func (p BackoffPolicy) Next(current time.Duration) time.Duration {
	if current <= 0 {
		return p.Initial
	}
	next := time.Duration(float64(current) * p.Multiplier)
	if next > p.Max {
		return p.Max
	}
	return next
}

func DefaultBackoff() BackoffPolicy {
	return BackoffPolicy{Initial: 500 * time.Millisecond, Max: 30 * time.Second, Multiplier: 2}
}

type Config struct {
	ServerURL string
	MeetingID string
	UserID    string
	Token     string

	Backoff BackoffPolicy
	// DebounceDelay coalesces rapid edits into one network write; the
	// timer re-arms on every edit but a flush happens no later than
	// MaxDebounceDelay after the first unflushed edit.
	DebounceDelay    time.Duration
	MaxDebounceDelay time.Duration
}

func (c *Config) applyDefaults() {
	if c.Backoff == (BackoffPolicy{}) {
		c.Backoff = DefaultBackoff()
	}
	if c.DebounceDelay <= 0 {
		c.DebounceDelay = time.Second
	}
	if c.MaxDebounceDelay <= 0 {
		c.MaxDebounceDelay = 5 * time.Second
	}
}

// Session runs the client side state machine for one meeting. Local
// edits apply to the mirrored document immediately (optimistic) and are
// flushed after a debounce delay; incoming broadcasts overwrite every
// other member's data and never the local member's.
type Session struct {
	cfg Config
	log *slog.Logger
	api *APIClient

	mu         sync.Mutex
	state      State
	conn       *websocket.Conn
	meeting    domain.Meeting
	localName  string
	dirty      bool
	flushTimer *time.Timer
	firstEdit  time.Time

	writeMu sync.Mutex

	onState     func(State)
	onMeeting   func(domain.Meeting)
	onSyncError func(message string)
}

func NewSession(log *slog.Logger, cfg Config) *Session {
	cfg.applyDefaults()
	return &Session{
		cfg:     cfg,
		log:     log,
		api:     NewAPIClient(cfg.ServerURL).WithCredentials(cfg.UserID, cfg.Token),
		meeting: domain.Meeting{ID: domain.MeetingID(cfg.MeetingID)},
	}
}

// OnStateChange registers a callback fired on every transition.
// Register callbacks before calling Run.
func (s *Session) OnStateChange(fn func(State)) { s.onState = fn }

// OnMeetingChange fires whenever the mirrored document changes, from a
// local edit, a broadcast or a snapshot.
func (s *Session) OnMeetingChange(fn func(domain.Meeting)) { s.onMeeting = fn }

// OnSyncError fires when the relay answers an edit with an error frame.
func (s *Session) OnSyncError(fn func(message string)) { s.onSyncError = fn }

// SetDisplayName sets the name attached to the local member's slice.
func (s *Session) SetDisplayName(name string) {
	s.mu.Lock()
	s.localName = name
	s.mu.Unlock()
}

// Run drives the connect/auth/live cycle until the context is done.
// Re-authentication and a fresh snapshot happen on every reconnect,
// since the relay drops all session state with the connection.
func (s *Session) Run(ctx context.Context) error {
	var delay time.Duration
	for {
		if err := ctx.Err(); err != nil {
			s.setState(StateDisconnected)
			return err
		}

		if err := s.connectOnce(ctx); err != nil {
			s.setState(StateDisconnected)
			delay = s.cfg.Backoff.Next(delay)
			s.log.Debug("Session cycle ended", "error", err, "retry_in", delay)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			continue
		}
		// Clean shutdown via context.
		s.setState(StateDisconnected)
		return ctx.Err()
	}
}

// connectOnce performs one full cycle: dial, authenticate, snapshot,
// then pump broadcasts until the transport fails.
func (s *Session) connectOnce(ctx context.Context) error {
	s.setState(StateConnecting)

	conn, err := s.dial(ctx)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	// ReadMessage has no context; closing the connection is the only
	// way to unblock the loop on shutdown.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-stop:
		}
	}()

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.conn = nil
		s.mu.Unlock()
	}()

	s.setState(StateAuthenticating)
	if err := s.authenticate(conn); err != nil {
		return err
	}
	s.setState(StateLive)

	// Baseline snapshot: the relay only pushes deltas triggered by
	// others' writes, so the initial state comes from a direct fetch.
	if meeting, err := s.api.GetMeeting(ctx, s.cfg.MeetingID); err != nil {
		s.log.Debug("Snapshot fetch failed", "error", err)
	} else {
		s.applySnapshot(meeting)
	}

	// Edits made while offline are still pending; push them now.
	s.flush()

	return s.readLoop(ctx, conn)
}

func (s *Session) dial(ctx context.Context) (*websocket.Conn, error) {
	url := strings.Replace(s.cfg.ServerURL, "http", "ws", 1) +
		"/api/meetings/" + s.cfg.MeetingID + "/connect"
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, http.Header{})
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	return conn, err
}

// authenticate sends the in-band handshake and waits for the verdict.
// Any auth failure is returned as an error; Run retries with backoff,
// which also covers a token becoming valid later (the server keeps the
// connection usable after a failed auth, but re-dialing is simpler for
// a client that has to handle dropped transports anyway).
func (s *Session) authenticate(conn *websocket.Conn) error {
	if err := s.write(protocol.NewAuth(s.cfg.MeetingID, s.cfg.UserID, s.cfg.Token)); err != nil {
		return fmt.Errorf("send auth: %w", err)
	}

	for {
		msg, err := s.readFrame(conn)
		if err != nil {
			return fmt.Errorf("await auth response: %w", err)
		}
		resp, ok := msg.(protocol.AuthResponse)
		if !ok {
			continue
		}
		if resp.Response != protocol.AuthOK {
			return fmt.Errorf("authentication rejected: %s", resp.Response)
		}
		return nil
	}
}

func (s *Session) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		msg, err := s.readFrame(conn)
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		switch m := msg.(type) {
		case protocol.MeetingBroadcast:
			s.applyBroadcast(m.Data.ToDomain())
		case protocol.ErrorMessage:
			s.log.Warn("Sync error from relay", "message", m.Message)
			if s.onSyncError != nil {
				s.onSyncError(m.Message)
			}
		}
	}
}

// readFrame returns the next decodable frame, skipping unknown types.
func (s *Session) readFrame(conn *websocket.Conn) (protocol.ServerMessage, error) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		msg, err := protocol.DecodeServer(raw)
		if err != nil {
			s.log.Debug("Ignoring malformed frame", "error", err)
			continue
		}
		if msg == nil {
			continue
		}
		return msg, nil
	}
}

// SetTitle edits the meeting title locally and schedules a flush.
func (s *Session) SetTitle(title string) {
	s.mu.Lock()
	s.meeting.Title = title
	s.markDirtyLocked()
	s.mu.Unlock()
	s.notifyMeeting()
}

// SetTimes replaces the local member's availability and schedules a
// flush. The local document updates immediately; the network write is
// coalesced with other rapid edits.
func (s *Session) SetTimes(slots []domain.Timeslot) {
	s.mu.Lock()
	s.meeting.Apply(domain.UserID(s.cfg.UserID), s.localName,
		domain.MeetingUpdate{SelectedTimes: slots})
	s.markDirtyLocked()
	s.mu.Unlock()
	s.notifyMeeting()
}

// markDirtyLocked re-arms the coalescing timer, capped so a steady
// stream of edits cannot postpone the flush forever.
func (s *Session) markDirtyLocked() {
	now := time.Now()
	if !s.dirty {
		s.firstEdit = now
	}
	s.dirty = true

	delay := s.cfg.DebounceDelay
	if deadline := s.firstEdit.Add(s.cfg.MaxDebounceDelay); now.Add(delay).After(deadline) {
		delay = deadline.Sub(now)
		if delay < 0 {
			delay = 0
		}
	}

	if s.flushTimer != nil {
		s.flushTimer.Stop()
	}
	s.flushTimer = time.AfterFunc(delay, s.flush)
}

// flush sends the local member's current state. Pending edits survive a
// disconnect: the dirty flag stays set until a write succeeds, and
// connectOnce flushes again right after going Live.
func (s *Session) flush() {
	s.mu.Lock()
	if !s.dirty || s.state != StateLive || s.conn == nil {
		s.mu.Unlock()
		return
	}
	member, _ := s.meeting.Member(domain.UserID(s.cfg.UserID))
	payload := protocol.UpdatePayload{
		Title:         s.meeting.Title,
		SelectedTimes: protocol.FromDomainSlots(member.Times),
	}
	s.dirty = false
	s.firstEdit = time.Time{}
	s.mu.Unlock()

	if err := s.write(protocol.NewUpdate(s.cfg.MeetingID, payload)); err != nil {
		s.log.Debug("Flush failed, keeping edits pending", "error", err)
		s.mu.Lock()
		s.dirty = true
		s.mu.Unlock()
	}
}

func (s *Session) write(msg any) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("not connected")
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return conn.WriteJSON(msg)
}

// applyBroadcast merges a pushed document: every other member is
// overwritten unconditionally (last message wins, no version checks),
// the local member's in-flight state is preserved untouched.
func (s *Session) applyBroadcast(remote domain.Meeting) {
	s.mu.Lock()
	local, hasLocal := s.meeting.Member(domain.UserID(s.cfg.UserID))
	localTitle := s.meeting.Title
	s.meeting = remote
	if hasLocal {
		s.meeting.Apply(local.ID, local.Name, domain.MeetingUpdate{SelectedTimes: local.Times})
	}
	if s.dirty {
		s.meeting.Title = localTitle
	}
	s.mu.Unlock()
	s.notifyMeeting()
}

// applySnapshot adopts the fetched baseline wholesale, except that
// unflushed local edits still take precedence over the stored state.
func (s *Session) applySnapshot(remote domain.Meeting) {
	s.mu.Lock()
	if s.dirty {
		local, hasLocal := s.meeting.Member(domain.UserID(s.cfg.UserID))
		localTitle := s.meeting.Title
		s.meeting = remote
		if hasLocal {
			s.meeting.Apply(local.ID, local.Name, domain.MeetingUpdate{SelectedTimes: local.Times})
		}
		if localTitle != "" {
			s.meeting.Title = localTitle
		}
	} else {
		s.meeting = remote
	}
	s.mu.Unlock()
	s.notifyMeeting()
}

// Snapshot returns a copy of the mirrored document.
func (s *Session) Snapshot() domain.Meeting {
	s.mu.Lock()
	defer s.mu.Unlock()

	meeting := s.meeting
	meeting.Members = append([]domain.Member(nil), s.meeting.Members...)
	return meeting
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	changed := s.state != state
	s.state = state
	s.mu.Unlock()

	if changed {
		s.log.Debug("Session state changed", "state", state.String())
		if s.onState != nil {
			s.onState(state)
		}
	}
}

func (s *Session) notifyMeeting() {
	if s.onMeeting != nil {
		s.onMeeting(s.Snapshot())
	}
}
