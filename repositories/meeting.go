//go:generate go run go.uber.org/mock/mockgen -source=meeting.go -destination=../mocks/mock_meeting_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"meetsync/domain"
	"meetsync/errors"
)

// IMeetingRepository is the meeting store. UpdateMeeting is the
// read-modify-write the relay persists through before broadcasting:
// the sender's member slice is replaced wholesale, last write wins.
type IMeetingRepository interface {
	CreateMeeting() (domain.Meeting, error)
	GetMeeting(id domain.MeetingID) (domain.Meeting, error)
	UpdateMeeting(id domain.MeetingID, userID domain.UserID, userName string,
		update domain.MeetingUpdate) (domain.Meeting, error)
}

type MeetingRepository struct {
	db *badger.DB
}

func NewMeetingRepository(db *badger.DB) IMeetingRepository {
	return &MeetingRepository{db: db}
}

func (r *MeetingRepository) CreateMeeting() (domain.Meeting, error) {
	meeting := domain.Meeting{ID: domain.NewMeetingID()}

	data, err := json.Marshal(fromMeeting(meeting))
	if err != nil {
		return domain.Meeting{}, fmt.Errorf("marshal meeting: %w", err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(meetingKey(meeting.ID), data)
	})
	if err != nil {
		return domain.Meeting{}, err
	}
	return meeting, nil
}

func (r *MeetingRepository) GetMeeting(id domain.MeetingID) (domain.Meeting, error) {
	var stored storedMeeting

	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(meetingKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &stored)
		})
	})
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return domain.Meeting{}, errors.ErrMeetingNotFound
		}
		return domain.Meeting{}, err
	}
	return toMeeting(stored), nil
}

func (r *MeetingRepository) UpdateMeeting(id domain.MeetingID, userID domain.UserID,
	userName string, update domain.MeetingUpdate) (domain.Meeting, error) {
	var meeting domain.Meeting

	err := r.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(meetingKey(id))
		if err != nil {
			return err
		}
		var stored storedMeeting
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &stored)
		}); err != nil {
			return err
		}

		meeting = toMeeting(stored)
		meeting.Apply(userID, userName, update)

		data, err := json.Marshal(fromMeeting(meeting))
		if err != nil {
			return fmt.Errorf("marshal meeting: %w", err)
		}
		return txn.Set(meetingKey(id), data)
	})
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return domain.Meeting{}, errors.ErrMeetingNotFound
		}
		return domain.Meeting{}, err
	}
	return meeting, nil
}
