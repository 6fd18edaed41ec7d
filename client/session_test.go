package client

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"meetsync/domain"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	return NewSession(slog.New(slog.NewTextHandler(io.Discard, nil)), Config{
		ServerURL: "http://localhost:0",
		MeetingID: "ab12-cd34",
		UserID:    "us_alice",
		Token:     "tk_secret",
	})
}

func sessionSlot(hour int) domain.Timeslot {
	day := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	return domain.Timeslot{
		Start: day.Add(time.Duration(hour) * time.Hour),
		End:   day.Add(time.Duration(hour+1) * time.Hour),
	}
}

func TestBackoffPolicy_Next(t *testing.T) {
	req := require.New(t)

	policy := BackoffPolicy{Initial: 500 * time.Millisecond, Max: 4 * time.Second, Multiplier: 2}

	req.Equal(500*time.Millisecond, policy.Next(0))
	req.Equal(time.Second, policy.Next(500*time.Millisecond))
	req.Equal(2*time.Second, policy.Next(time.Second))
	req.Equal(4*time.Second, policy.Next(2*time.Second))

	// The ceiling holds once reached
	req.Equal(4*time.Second, policy.Next(4*time.Second))
}

func TestConfig_ApplyDefaults(t *testing.T) {
	req := require.New(t)

	cfg := Config{}
	cfg.applyDefaults()

	req.Equal(DefaultBackoff(), cfg.Backoff)
	req.Equal(time.Second, cfg.DebounceDelay)
	req.Equal(5*time.Second, cfg.MaxDebounceDelay)

	custom := Config{DebounceDelay: 100 * time.Millisecond}
	custom.applyDefaults()
	req.Equal(100*time.Millisecond, custom.DebounceDelay)
}

func TestSession_OptimisticEdits(t *testing.T) {
	t.Run("should apply a title edit to the mirror immediately", func(t *testing.T) {
		req := require.New(t)

		s := newTestSession(t)
		var notified domain.Meeting
		s.OnMeetingChange(func(m domain.Meeting) { notified = m })

		s.SetTitle("Retro")

		req.Equal("Retro", s.Snapshot().Title)
		req.Equal("Retro", notified.Title)
	})

	t.Run("should apply availability locally before any network write", func(t *testing.T) {
		req := require.New(t)

		s := newTestSession(t)
		s.SetDisplayName("Alice")
		s.SetTimes([]domain.Timeslot{sessionSlot(9)})

		snap := s.Snapshot()
		member, ok := snap.Member("us_alice")
		req.True(ok)
		req.Equal("Alice", member.Name)
		req.Equal([]domain.Timeslot{sessionSlot(9)}, member.Times)
	})
}

func TestSession_ApplyBroadcast(t *testing.T) {
	t.Run("should overwrite other members wholesale", func(t *testing.T) {
		req := require.New(t)

		s := newTestSession(t)
		s.applyBroadcast(domain.Meeting{
			ID:    "ab12-cd34",
			Title: "Standup",
			Members: []domain.Member{
				{ID: "us_bob", Name: "Bob", Times: []domain.Timeslot{sessionSlot(10)}},
			},
		})

		snapshot := s.Snapshot()
		req.Equal("Standup", snapshot.Title)
		bob, ok := snapshot.Member("us_bob")
		req.True(ok)
		req.Equal([]domain.Timeslot{sessionSlot(10)}, bob.Times)
	})

	t.Run("should preserve the local member's in-flight slice", func(t *testing.T) {
		req := require.New(t)

		s := newTestSession(t)
		s.SetDisplayName("Alice")
		s.SetTimes([]domain.Timeslot{sessionSlot(9)})

		// A broadcast carrying a stale copy of the local member arrives
		s.applyBroadcast(domain.Meeting{
			ID: "ab12-cd34",
			Members: []domain.Member{
				{ID: "us_alice", Name: "Alice", Times: []domain.Timeslot{sessionSlot(15)}},
				{ID: "us_bob", Name: "Bob", Times: []domain.Timeslot{sessionSlot(10)}},
			},
		})

		snapshot := s.Snapshot()
		alice, ok := snapshot.Member("us_alice")
		req.True(ok)
		req.Equal([]domain.Timeslot{sessionSlot(9)}, alice.Times)

		_, ok = snapshot.Member("us_bob")
		req.True(ok)
	})

	t.Run("should keep an unflushed title over the broadcast title", func(t *testing.T) {
		req := require.New(t)

		s := newTestSession(t)
		s.SetTitle("Retro")

		s.applyBroadcast(domain.Meeting{ID: "ab12-cd34", Title: "Standup"})

		req.Equal("Retro", s.Snapshot().Title)
	})
}

func TestSession_ApplySnapshot(t *testing.T) {
	t.Run("should adopt the baseline when nothing is pending", func(t *testing.T) {
		req := require.New(t)

		s := newTestSession(t)
		s.applySnapshot(domain.Meeting{
			ID:    "ab12-cd34",
			Title: "Standup",
			Members: []domain.Member{
				{ID: "us_alice", Name: "Alice", Times: []domain.Timeslot{sessionSlot(9)}},
			},
		})

		snapshot := s.Snapshot()
		req.Equal("Standup", snapshot.Title)
		alice, ok := snapshot.Member("us_alice")
		req.True(ok)
		req.Equal([]domain.Timeslot{sessionSlot(9)}, alice.Times)
	})

	t.Run("should keep pending offline edits over the baseline", func(t *testing.T) {
		req := require.New(t)

		s := newTestSession(t)
		s.SetDisplayName("Alice")
		s.SetTimes([]domain.Timeslot{sessionSlot(11)})

		s.applySnapshot(domain.Meeting{
			ID: "ab12-cd34",
			Members: []domain.Member{
				{ID: "us_alice", Name: "Alice", Times: []domain.Timeslot{sessionSlot(9)}},
			},
		})

		snap := s.Snapshot()
		alice, ok := snap.Member("us_alice")
		req.True(ok)
		req.Equal([]domain.Timeslot{sessionSlot(11)}, alice.Times)
	})
}

func TestSession_DebounceCoalescing(t *testing.T) {
	req := require.New(t)

	s := newTestSession(t)
	s.cfg.DebounceDelay = 50 * time.Millisecond
	s.cfg.MaxDebounceDelay = 200 * time.Millisecond

	// Rapid edits re-arm one timer instead of stacking several
	s.SetTitle("a")
	first := s.flushTimer
	req.NotNil(first)

	s.SetTitle("ab")
	second := s.flushTimer
	req.NotNil(second)
	req.NotSame(first, second)

	s.mu.Lock()
	req.True(s.dirty)
	req.False(s.firstEdit.IsZero())
	s.mu.Unlock()
}

func TestSession_FlushWithoutConnectionKeepsEditsPending(t *testing.T) {
	req := require.New(t)

	s := newTestSession(t)
	s.SetTitle("Retro")

	// Not Live and no transport: flush must not clear the dirty flag
	s.flush()

	s.mu.Lock()
	defer s.mu.Unlock()
	req.True(s.dirty)
}

func TestState_String(t *testing.T) {
	req := require.New(t)

	req.Equal("disconnected", StateDisconnected.String())
	req.Equal("connecting", StateConnecting.String())
	req.Equal("authenticating", StateAuthenticating.String())
	req.Equal("live", StateLive.String())
}
