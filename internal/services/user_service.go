package services

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mkarpenko/task-tracker/internal/models"
	"github.com/mkarpenko/task-tracker/internal/storage"
)

type userServiceImpl struct {
	logger zerolog.Logger
	users  storage.UserRepository
}

func NewUserService(logger zerolog.Logger, users storage.UserRepository) UserService {
	return &userServiceImpl{
		logger: logger,
		users:  users,
	}
}

func (s *userServiceImpl) GetUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.users.GetAll(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to select users")
		return nil, err
	}
	s.logger.Debug().
		Int("count", len(users)).
		Msg("selected users")
	return users, nil
}

func (s *userServiceImpl) CreateUser(ctx context.Context, name, email string) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" {
		return nil, newValidationError("name is required")
	}
	if email == "" {
		return nil, newValidationError("email is required")
	}

	user := &models.User{
		Name:  name,
		Email: email,
	}
	err := s.users.Insert(ctx, user)
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, ErrUserAlreadyExists
		}

		s.logger.Error().
			Err(err).
			Msg("failed to insert user")
		return nil, err
	}
	s.logger.Info().
		Int64("user_id", user.ID).
		Msg("created user")
	return user, nil
}
