package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/welldanyogia/webrana-loveletters-backend/internal/models"
	"github.com/welldanyogia/webrana-loveletters-backend/internal/repository"
)

// UserService is the user directory
type UserService interface {
	// ListOthers returns every registered user except caller
	ListOthers(ctx context.Context, caller string) ([]models.User, error)
	// Exists reports whether username is registered
	Exists(ctx context.Context, username string) (bool, error)
}

type userService struct {
	users repository.UserRepository
}

// NewUserService creates a new UserService
func NewUserService(users repository.UserRepository) UserService {
	return &userService{users: users}
}

func (s *userService) ListOthers(ctx context.Context, caller string) ([]models.User, error) {
	users, err := s.users.ListExcept(ctx, caller)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

func (s *userService) Exists(ctx context.Context, username string) (bool, error) {
	_, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("looking up user: %w", err)
	}
	return true, nil
}
