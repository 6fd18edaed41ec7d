package domain

import (
	"math/rand/v2"
	"strings"
	"time"
)

type MeetingID string

// Timeslot is a half-open interval of availability. Start < End is the
// caller's responsibility, the core never reorders or rejects slots.
type Timeslot struct {
	Start time.Time
	End   time.Time
}

// Member is one participant's slice of a meeting document. A member owns
// exactly one availability slice, keyed by user id.
type Member struct {
	ID    UserID
	Name  string
	Times []Timeslot
}

// Meeting is the shared document the relay synchronizes. Members are kept
// in insertion order and hold at most one entry per user id.
type Meeting struct {
	ID      MeetingID
	Title   string
	Members []Member
}

// MeetingUpdate is a partial write against a meeting document.
// An empty Title leaves the stored title unchanged. A nil SelectedTimes
// leaves the sender's slice unchanged; a non-nil value replaces it
// wholesale (last write wins, no merge with the previous value).
type MeetingUpdate struct {
	Title         string
	SelectedTimes []Timeslot
}

// Apply mutates the document in place with one member's update.
// The member entry is created on first write, keeping insertion order.
func (m *Meeting) Apply(userID UserID, name string, update MeetingUpdate) {
	if update.Title != "" {
		m.Title = update.Title
	}
	if update.SelectedTimes == nil {
		return
	}
	for i := range m.Members {
		if m.Members[i].ID == userID {
			m.Members[i].Name = name
			m.Members[i].Times = update.SelectedTimes
			return
		}
	}
	m.Members = append(m.Members, Member{ID: userID, Name: name, Times: update.SelectedTimes})
}

// Member returns the slice owned by userID, if any.
func (m *Meeting) Member(userID UserID) (Member, bool) {
	for _, member := range m.Members {
		if member.ID == userID {
			return member, true
		}
	}
	return Member{}, false
}

// idAlphabet skips 'o' and '0' to keep shared ids unambiguous.
// 34^8 combinations for a meeting id.
const idAlphabet = "abcdefghijklmnpqrstuvwxyz123456789"

var meetingIDGroups = []int{4, 4}

// NewMeetingID generates a short shareable id such as "ab12-cd34".
func NewMeetingID() MeetingID {
	parts := make([]string, 0, len(meetingIDGroups))
	for _, length := range meetingIDGroups {
		var b strings.Builder
		for i := 0; i < length; i++ {
			b.WriteByte(idAlphabet[rand.IntN(len(idAlphabet))])
		}
		parts = append(parts, b.String())
	}
	return MeetingID(strings.Join(parts, "-"))
}
