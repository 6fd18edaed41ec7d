package protocol

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"meetsync/domain"
)

func TestDecodeClient(t *testing.T) {
	t.Run("should decode an auth frame", func(t *testing.T) {
		req := require.New(t)

		raw := []byte(`{"type":"auth","meetingId":"ab12-cd34","userId":"us_alice","token":"tk_secret"}`)

		msg, err := DecodeClient(raw)
		req.NoError(err)

		auth, ok := msg.(Auth)
		req.True(ok)
		req.Equal("ab12-cd34", auth.MeetingID)
		req.Equal("us_alice", auth.UserID)
		req.Equal("tk_secret", auth.Token)
	})

	t.Run("should decode an update frame with epoch millis", func(t *testing.T) {
		req := require.New(t)

		raw := []byte(`{"type":"update","meetingId":"ab12-cd34","data":{"title":"Retro","selectedTimes":[{"start":1767261600000,"end":1767265200000}]}}`)

		msg, err := DecodeClient(raw)
		req.NoError(err)

		update, ok := msg.(Update)
		req.True(ok)
		req.Equal("Retro", update.Data.Title)
		req.Len(update.Data.SelectedTimes, 1)
		req.Equal(int64(1767261600000), update.Data.SelectedTimes[0].Start)
	})

	t.Run("should ignore unknown frame types", func(t *testing.T) {
		req := require.New(t)

		msg, err := DecodeClient([]byte(`{"type":"ping"}`))
		req.NoError(err)
		req.Nil(msg)
	})

	t.Run("should fail on malformed JSON", func(t *testing.T) {
		req := require.New(t)

		_, err := DecodeClient([]byte(`{"type":`))
		req.Error(err)
	})
}

func TestDecodeServer(t *testing.T) {
	t.Run("should decode an authResponse frame", func(t *testing.T) {
		req := require.New(t)

		msg, err := DecodeServer([]byte(`{"type":"authResponse","response":"unauthorized"}`))
		req.NoError(err)

		resp, ok := msg.(AuthResponse)
		req.True(ok)
		req.Equal(AuthUnauthorized, resp.Response)
	})

	t.Run("should decode a meeting broadcast", func(t *testing.T) {
		req := require.New(t)

		raw := []byte(`{"type":"update","data":{"id":"ab12-cd34","title":"Standup","members":[{"id":"us_alice","name":"Alice","times":[{"start":1767261600000,"end":1767265200000}]}]}}`)

		msg, err := DecodeServer(raw)
		req.NoError(err)

		broadcast, ok := msg.(MeetingBroadcast)
		req.True(ok)
		req.Equal("ab12-cd34", broadcast.Data.ID)
		req.Len(broadcast.Data.Members, 1)
	})

	t.Run("should decode an error frame", func(t *testing.T) {
		req := require.New(t)

		msg, err := DecodeServer([]byte(`{"type":"error","message":"NotFound"}`))
		req.NoError(err)

		errMsg, ok := msg.(ErrorMessage)
		req.True(ok)
		req.Equal("NotFound", errMsg.Message)
	})

	t.Run("should ignore unknown frame types", func(t *testing.T) {
		req := require.New(t)

		msg, err := DecodeServer([]byte(`{"type":"pong"}`))
		req.NoError(err)
		req.Nil(msg)
	})
}

func TestSlotConversion(t *testing.T) {
	t.Run("should round-trip through epoch millis", func(t *testing.T) {
		req := require.New(t)

		start := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)
		slots := []domain.Timeslot{{Start: start, End: start.Add(90 * time.Minute)}}

		req.Equal(slots, ToDomainSlots(FromDomainSlots(slots)))
	})

	t.Run("should preserve nil as no-change", func(t *testing.T) {
		req := require.New(t)

		req.Nil(FromDomainSlots(nil))
		req.Nil(ToDomainSlots(nil))
		req.NotNil(ToDomainSlots([]Timeslot{}))
	})

	t.Run("should truncate sub-millisecond precision", func(t *testing.T) {
		req := require.New(t)

		start := time.Date(2026, time.March, 2, 9, 0, 0, 123456789, time.UTC)
		converted := ToDomainSlots(FromDomainSlots([]domain.Timeslot{{Start: start, End: start}}))
		req.Equal(start.Truncate(time.Millisecond), converted[0].Start)
	})
}

func TestUpdatePayload_Encoding(t *testing.T) {
	t.Run("should encode an untouched slice as null", func(t *testing.T) {
		req := require.New(t)

		raw, err := json.Marshal(NewUpdate("ab12-cd34", UpdatePayload{Title: "Retro"}))
		req.NoError(err)
		req.Contains(string(raw), `"selectedTimes":null`)
	})

	t.Run("should encode an explicit clear as an empty array", func(t *testing.T) {
		req := require.New(t)

		raw, err := json.Marshal(NewUpdate("ab12-cd34", UpdatePayload{SelectedTimes: []Timeslot{}}))
		req.NoError(err)
		req.Contains(string(raw), `"selectedTimes":[]`)
	})

	t.Run("should distinguish absent from empty selectedTimes", func(t *testing.T) {
		req := require.New(t)

		var payload UpdatePayload
		req.NoError(json.Unmarshal([]byte(`{"title":"Retro"}`), &payload))
		req.Nil(payload.SelectedTimes)

		req.NoError(json.Unmarshal([]byte(`{"selectedTimes":[]}`), &payload))
		req.NotNil(payload.SelectedTimes)
		req.Empty(payload.SelectedTimes)
	})
}
