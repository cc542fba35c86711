package service

import (
	"github.com/pixelmint/pixelmint-backend/internal/models"
	"github.com/pixelmint/pixelmint-backend/pkg/bcrypt"
)

type profileStore interface {
	GetByID(id uint) (*models.User, error)
	Update(user *models.User) error
	UpdatePassword(id uint, hashedPassword string) error
	UpdateDeviceToken(id uint, deviceToken string) error
}

type UserService struct {
	users profileStore
}

func NewUserService(users profileStore) *UserService {
	return &UserService{users: users}
}

func (s *UserService) GetProfile(userID uint) (*models.User, error) {
	return s.users.GetByID(userID)
}

func (s *UserService) UpdateProfile(userID uint, req models.UpdateProfileRequest) (*models.User, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, err
	}

	user.FullName = req.FullName
	if err := s.users.Update(user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *UserService) ChangePassword(userID uint, req models.ChangePasswordRequest) error {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return err
	}

	if err := bcrypt.ComparePassword(user.Password, req.CurrentPassword); err != nil {
		return ErrInvalidCredentials
	}

	hashedPassword, err := bcrypt.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}

	return s.users.UpdatePassword(userID, hashedPassword)
}

// RegisterDeviceToken stores the push token for the user's current device.
func (s *UserService) RegisterDeviceToken(userID uint, deviceToken string) error {
	return s.users.UpdateDeviceToken(userID, deviceToken)
}
