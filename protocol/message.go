// Package protocol defines the JSON frames exchanged over a meeting sync
// connection. Every frame is a discriminated object: the "type" field
// selects the variant, and Decode is the single entry point on each side.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/samber/lo"

	"meetsync/domain"
)

const (
	TypeAuth         = "auth"
	TypeUpdate       = "update"
	TypeAuthResponse = "authResponse"
	TypeError        = "error"
)

// Timeslot carries an availability interval as epoch milliseconds.
type Timeslot struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

func FromDomainSlots(slots []domain.Timeslot) []Timeslot {
	if slots == nil {
		return nil
	}
	return lo.Map(slots, func(slot domain.Timeslot, _ int) Timeslot {
		return Timeslot{Start: slot.Start.UnixMilli(), End: slot.End.UnixMilli()}
	})
}

// ToDomainSlots preserves nil: an absent selectedTimes field means
// "no change", which must survive the conversion.
func ToDomainSlots(slots []Timeslot) []domain.Timeslot {
	if slots == nil {
		return nil
	}
	return lo.Map(slots, func(slot Timeslot, _ int) domain.Timeslot {
		return domain.Timeslot{
			Start: time.UnixMilli(slot.Start).UTC(),
			End:   time.UnixMilli(slot.End).UTC(),
		}
	})
}

// Meeting is the serialized meeting document, used both for broadcast
// frames and for REST responses.
type Meeting struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Members []Member `json:"members"`
}

type Member struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Times []Timeslot `json:"times"`
}

func FromDomainMeeting(meeting domain.Meeting) Meeting {
	return Meeting{
		ID:    string(meeting.ID),
		Title: meeting.Title,
		Members: lo.Map(meeting.Members, func(member domain.Member, _ int) Member {
			return Member{
				ID:    string(member.ID),
				Name:  member.Name,
				Times: FromDomainSlots(member.Times),
			}
		}),
	}
}

func (m Meeting) ToDomain() domain.Meeting {
	return domain.Meeting{
		ID:    domain.MeetingID(m.ID),
		Title: m.Title,
		Members: lo.Map(m.Members, func(member Member, _ int) domain.Member {
			return domain.Member{
				ID:    domain.UserID(member.ID),
				Name:  member.Name,
				Times: ToDomainSlots(member.Times),
			}
		}),
	}
}

// UpdatePayload is the document patch carried by a client update frame.
// SelectedTimes must not carry omitempty: an explicit empty array clears
// the sender's availability, while null or absent means no change.
type UpdatePayload struct {
	Title         string     `json:"title,omitempty"`
	SelectedTimes []Timeslot `json:"selectedTimes"`
}

func (p UpdatePayload) ToDomain() domain.MeetingUpdate {
	return domain.MeetingUpdate{
		Title:         p.Title,
		SelectedTimes: ToDomainSlots(p.SelectedTimes),
	}
}

// ClientMessage is a frame sent by a client. Variants: Auth, Update.
type ClientMessage interface {
	clientMessage()
}

type Auth struct {
	Type      string `json:"type"`
	MeetingID string `json:"meetingId"`
	UserID    string `json:"userId"`
	Token     string `json:"token"`
}

func NewAuth(meetingID, userID, token string) Auth {
	return Auth{Type: TypeAuth, MeetingID: meetingID, UserID: userID, Token: token}
}

type Update struct {
	Type      string        `json:"type"`
	MeetingID string        `json:"meetingId"`
	Data      UpdatePayload `json:"data"`
}

func NewUpdate(meetingID string, data UpdatePayload) Update {
	return Update{Type: TypeUpdate, MeetingID: meetingID, Data: data}
}

func (Auth) clientMessage()   {}
func (Update) clientMessage() {}

type envelope struct {
	Type string `json:"type"`
}

// DecodeClient parses one inbound frame. An unknown type yields
// (nil, nil): such frames are ignored, not answered with an error.
func DecodeClient(raw []byte) (ClientMessage, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	switch env.Type {
	case TypeAuth:
		var msg Auth
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, fmt.Errorf("decode auth frame: %w", err)
		}
		return msg, nil
	case TypeUpdate:
		var msg Update
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, fmt.Errorf("decode update frame: %w", err)
		}
		return msg, nil
	default:
		return nil, nil
	}
}

// ServerMessage is a frame pushed to a client.
// Variants: AuthResponse, MeetingBroadcast, ErrorMessage.
type ServerMessage interface {
	serverMessage()
}

type AuthResult string

const (
	AuthOK           AuthResult = "ok"
	AuthUnauthorized AuthResult = "unauthorized"
	AuthUnknown      AuthResult = "unknown"
)

type AuthResponse struct {
	Type     string     `json:"type"`
	Response AuthResult `json:"response"`
}

func NewAuthResponse(result AuthResult) AuthResponse {
	return AuthResponse{Type: TypeAuthResponse, Response: result}
}

type MeetingBroadcast struct {
	Type string  `json:"type"`
	Data Meeting `json:"data"`
}

func NewMeetingBroadcast(meeting domain.Meeting) MeetingBroadcast {
	return MeetingBroadcast{Type: TypeUpdate, Data: FromDomainMeeting(meeting)}
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

func NewErrorMessage(message string) ErrorMessage {
	return ErrorMessage{Type: TypeError, Message: message}
}

func (AuthResponse) serverMessage()     {}
func (MeetingBroadcast) serverMessage() {}
func (ErrorMessage) serverMessage()     {}

// DecodeServer parses one frame on the client side.
func DecodeServer(raw []byte) (ServerMessage, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	switch env.Type {
	case TypeAuthResponse:
		var msg AuthResponse
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, fmt.Errorf("decode authResponse frame: %w", err)
		}
		return msg, nil
	case TypeUpdate:
		var msg MeetingBroadcast
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, fmt.Errorf("decode update frame: %w", err)
		}
		return msg, nil
	case TypeError:
		var msg ErrorMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, fmt.Errorf("decode error frame: %w", err)
		}
		return msg, nil
	default:
		return nil, nil
	}
}
