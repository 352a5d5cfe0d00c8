package service

import (
	"errors"
	"fmt"

	"oyakatsu/internal/models"
	"oyakatsu/internal/repository"
)

// ErrRoleAlreadySet signals an attempt to change a role that was already
// chosen. Roles are set once per account.
var ErrRoleAlreadySet = errors.New("role already set")

// UserService manages user profiles and device registrations
type UserService struct {
	users   *repository.UserRepository
	devices *repository.DeviceRepository
}

// NewUserService creates a new user service
func NewUserService(users *repository.UserRepository, devices *repository.DeviceRepository) *UserService {
	return &UserService{
		users:   users,
		devices: devices,
	}
}

// Me retrieves the caller's profile
func (s *UserService) Me(userID int64) (*models.User, error) {
	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// UpdateProfile updates the caller's display name and returns the fresh
// profile
func (s *UserService) UpdateProfile(userID int64, displayName string) (*models.User, error) {
	if err := s.users.UpdateDisplayName(userID, displayName); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return s.Me(userID)
}

// SetRole records the caller's role. The update is guarded so only an unset
// role can be written; a second attempt fails with ErrRoleAlreadySet.
func (s *UserService) SetRole(userID int64, role models.Role) (*models.User, error) {
	ok, err := s.users.SetRole(userID, role)
	if err != nil {
		return nil, fmt.Errorf("failed to set role: %w", err)
	}
	if !ok {
		user, err := s.users.GetUserByID(userID)
		if err != nil {
			return nil, fmt.Errorf("failed to get user: %w", err)
		}
		if user == nil {
			return nil, ErrUserNotFound
		}
		return nil, ErrRoleAlreadySet
	}
	return s.Me(userID)
}

// RegisterDevice stores a push token for the caller's device. Re-registering
// the same token updates its platform and timestamp.
func (s *UserService) RegisterDevice(userID int64, token string, platform models.Platform) error {
	if err := s.devices.UpsertToken(userID, token, platform); err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}
	return nil
}
