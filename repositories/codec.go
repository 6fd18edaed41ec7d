package repositories

import (
	"time"

	"github.com/samber/lo"

	"meetsync/domain"
)

// Stored documents are plain JSON so both KV drivers share one codec and
// the badger inspector stays readable. Instants are epoch milliseconds,
// matching the wire protocol.

type storedToken struct {
	Token      string `json:"token"`
	Expiration int64  `json:"expiration"`
}

type storedUser struct {
	ID     string        `json:"id"`
	Name   string        `json:"name,omitempty"`
	Email  string        `json:"email,omitempty"`
	Tokens []storedToken `json:"tokens"`
}

type storedSlot struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

type storedMember struct {
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	Times []storedSlot `json:"times"`
}

type storedMeeting struct {
	ID      string         `json:"id"`
	Title   string         `json:"title"`
	Members []storedMember `json:"members"`
}

func fromUser(user domain.User) storedUser {
	return storedUser{
		ID:    string(user.ID),
		Name:  user.Name,
		Email: user.Email,
		Tokens: lo.Map(user.Tokens, func(token domain.AccessToken, _ int) storedToken {
			return storedToken{Token: token.Secret, Expiration: token.ExpiresAt.UnixMilli()}
		}),
	}
}

func toUser(stored storedUser) domain.User {
	return domain.User{
		ID:    domain.UserID(stored.ID),
		Name:  stored.Name,
		Email: stored.Email,
		Tokens: lo.Map(stored.Tokens, func(token storedToken, _ int) domain.AccessToken {
			return domain.AccessToken{Secret: token.Token, ExpiresAt: time.UnixMilli(token.Expiration).UTC()}
		}),
	}
}

func fromMeeting(meeting domain.Meeting) storedMeeting {
	return storedMeeting{
		ID:    string(meeting.ID),
		Title: meeting.Title,
		Members: lo.Map(meeting.Members, func(member domain.Member, _ int) storedMember {
			return storedMember{
				ID:   string(member.ID),
				Name: member.Name,
				Times: lo.Map(member.Times, func(slot domain.Timeslot, _ int) storedSlot {
					return storedSlot{Start: slot.Start.UnixMilli(), End: slot.End.UnixMilli()}
				}),
			}
		}),
	}
}

func toMeeting(stored storedMeeting) domain.Meeting {
	return domain.Meeting{
		ID:    domain.MeetingID(stored.ID),
		Title: stored.Title,
		Members: lo.Map(stored.Members, func(member storedMember, _ int) domain.Member {
			return domain.Member{
				ID:   domain.UserID(member.ID),
				Name: member.Name,
				Times: lo.Map(member.Times, func(slot storedSlot, _ int) domain.Timeslot {
					return domain.Timeslot{
						Start: time.UnixMilli(slot.Start).UTC(),
						End:   time.UnixMilli(slot.End).UTC(),
					}
				}),
			}
		}),
	}
}

func userKey(id domain.UserID) []byte {
	return []byte("user:" + string(id))
}

func meetingKey(id domain.MeetingID) []byte {
	return []byte("meeting:" + string(id))
}
