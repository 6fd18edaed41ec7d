package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func slot(startHour, endHour int) Timeslot {
	day := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	return Timeslot{Start: day.Add(time.Duration(startHour) * time.Hour), End: day.Add(time.Duration(endHour) * time.Hour)}
}

func TestMeeting_Apply(t *testing.T) {
	t.Run("should create the member entry on first write", func(t *testing.T) {
		req := require.New(t)

		// Given an empty meeting
		meeting := Meeting{ID: "ab12-cd34"}

		// When a user writes availability for the first time
		meeting.Apply("us_alice", "Alice", MeetingUpdate{SelectedTimes: []Timeslot{slot(9, 10)}})

		// Then one member entry exists with that slice
		req.Len(meeting.Members, 1)
		req.Equal(UserID("us_alice"), meeting.Members[0].ID)
		req.Equal("Alice", meeting.Members[0].Name)
		req.Equal([]Timeslot{slot(9, 10)}, meeting.Members[0].Times)
	})

	t.Run("should replace the slice wholesale on rewrite", func(t *testing.T) {
		req := require.New(t)

		meeting := Meeting{ID: "ab12-cd34"}
		meeting.Apply("us_alice", "Alice", MeetingUpdate{SelectedTimes: []Timeslot{slot(9, 10), slot(14, 15)}})

		// A second write is not merged with the first
		meeting.Apply("us_alice", "Alice", MeetingUpdate{SelectedTimes: []Timeslot{slot(11, 12)}})

		req.Len(meeting.Members, 1)
		req.Equal([]Timeslot{slot(11, 12)}, meeting.Members[0].Times)
	})

	t.Run("should keep at most one entry per user", func(t *testing.T) {
		req := require.New(t)

		meeting := Meeting{ID: "ab12-cd34"}
		for i := 0; i < 5; i++ {
			meeting.Apply("us_alice", "Alice", MeetingUpdate{SelectedTimes: []Timeslot{slot(i, i+1)}})
		}

		req.Len(meeting.Members, 1)
	})

	t.Run("should preserve member insertion order", func(t *testing.T) {
		req := require.New(t)

		meeting := Meeting{ID: "ab12-cd34"}
		meeting.Apply("us_alice", "Alice", MeetingUpdate{SelectedTimes: []Timeslot{slot(9, 10)}})
		meeting.Apply("us_bob", "Bob", MeetingUpdate{SelectedTimes: []Timeslot{slot(10, 11)}})
		meeting.Apply("us_alice", "Alice", MeetingUpdate{SelectedTimes: []Timeslot{slot(12, 13)}})

		req.Equal(UserID("us_alice"), meeting.Members[0].ID)
		req.Equal(UserID("us_bob"), meeting.Members[1].ID)
	})

	t.Run("should leave the title unchanged when empty", func(t *testing.T) {
		req := require.New(t)

		meeting := Meeting{ID: "ab12-cd34", Title: "Standup"}
		meeting.Apply("us_alice", "Alice", MeetingUpdate{SelectedTimes: []Timeslot{slot(9, 10)}})

		req.Equal("Standup", meeting.Title)
	})

	t.Run("should overwrite the title when set", func(t *testing.T) {
		req := require.New(t)

		meeting := Meeting{ID: "ab12-cd34", Title: "Standup"}
		meeting.Apply("us_alice", "Alice", MeetingUpdate{Title: "Retro"})

		req.Equal("Retro", meeting.Title)
	})

	t.Run("should not touch members when SelectedTimes is nil", func(t *testing.T) {
		req := require.New(t)

		meeting := Meeting{ID: "ab12-cd34"}
		meeting.Apply("us_alice", "Alice", MeetingUpdate{Title: "Retro"})

		req.Empty(meeting.Members)
	})

	t.Run("should accept an explicit empty slice as clearing availability", func(t *testing.T) {
		req := require.New(t)

		meeting := Meeting{ID: "ab12-cd34"}
		meeting.Apply("us_alice", "Alice", MeetingUpdate{SelectedTimes: []Timeslot{slot(9, 10)}})
		meeting.Apply("us_alice", "Alice", MeetingUpdate{SelectedTimes: []Timeslot{}})

		member, ok := meeting.Member("us_alice")
		req.True(ok)
		req.Empty(member.Times)
	})
}

func TestMeeting_Member(t *testing.T) {
	req := require.New(t)

	meeting := Meeting{ID: "ab12-cd34"}
	meeting.Apply("us_alice", "Alice", MeetingUpdate{SelectedTimes: []Timeslot{slot(9, 10)}})

	member, ok := meeting.Member("us_alice")
	req.True(ok)
	req.Equal("Alice", member.Name)

	_, ok = meeting.Member("us_bob")
	req.False(ok)
}

func TestNewMeetingID(t *testing.T) {
	req := require.New(t)

	for i := 0; i < 100; i++ {
		id := string(NewMeetingID())
		req.Len(id, 9)
		parts := strings.Split(id, "-")
		req.Len(parts, 2)
		for _, part := range parts {
			req.Len(part, 4)
			for _, c := range part {
				req.Contains(idAlphabet, string(c))
			}
		}
	}
}
