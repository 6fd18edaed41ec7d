//go:generate go run go.uber.org/mock/mockgen -source=account_service.go -destination=../mocks/mock_account_service.go -package=mocks
package services

import (
	"fmt"

	"meetsync/auth"
	"meetsync/domain"
	"meetsync/errors"
	"meetsync/repositories"
)

// IAccountService covers the identity surface: anonymous registration
// and profile updates. There are no passwords; a registration hands out
// the user id plus its bearer token and that pair is the credential.
type IAccountService interface {
	Register() (domain.User, error)
	UpdateProfile(user domain.User, req auth.UpdateUserRequest) (domain.User, error)
}

type AccountService struct {
	users repositories.IUserRepository
}

func NewAccountService(users repositories.IUserRepository) IAccountService {
	return &AccountService{users: users}
}

func (s *AccountService) Register() (domain.User, error) {
	user, err := s.users.CreateUser()
	if err != nil {
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *AccountService) UpdateProfile(user domain.User, req auth.UpdateUserRequest) (domain.User, error) {
	if err := auth.ValidateUpdateUser(req); err != nil {
		return domain.User{}, fmt.Errorf("%w: %v", errors.ErrInvalidRequest, err)
	}
	return s.users.UpdateUser(user.ID, domain.UserUpdate{Name: req.Name, Email: req.Email})
}
