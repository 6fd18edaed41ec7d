//go:generate go run go.uber.org/mock/mockgen -source=meeting_service.go -destination=../mocks/mock_meeting_service.go -package=mocks
package services

import (
	"meetsync/domain"
	"meetsync/repositories"
)

// IMeetingService is the static CRUD surface next to the relay. The
// PATCH path shares UpdateMeeting with the sync path, so both apply the
// same last-write-wins member replacement.
type IMeetingService interface {
	Create() (domain.Meeting, error)
	Get(id domain.MeetingID) (domain.Meeting, error)
	Update(id domain.MeetingID, user domain.User, update domain.MeetingUpdate) (domain.Meeting, error)
}

type MeetingService struct {
	meetings repositories.IMeetingRepository
}

func NewMeetingService(meetings repositories.IMeetingRepository) IMeetingService {
	return &MeetingService{meetings: meetings}
}

func (s *MeetingService) Create() (domain.Meeting, error) {
	return s.meetings.CreateMeeting()
}

func (s *MeetingService) Get(id domain.MeetingID) (domain.Meeting, error) {
	return s.meetings.GetMeeting(id)
}

func (s *MeetingService) Update(id domain.MeetingID, user domain.User,
	update domain.MeetingUpdate) (domain.Meeting, error) {
	return s.meetings.UpdateMeeting(id, user.ID, user.Name, update)
}
