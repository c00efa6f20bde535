package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/task-tracker/internal/access"
	"github.com/adanyl0v/task-tracker/internal/models"
	"github.com/adanyl0v/task-tracker/internal/storage"
)

type userServiceImpl struct {
	logger zerolog.Logger
	users  storage.UserStore
}

func NewUserService(
	logger zerolog.Logger,
	users storage.UserStore,
) UserService {
	return &userServiceImpl{
		logger: logger,
		users:  users,
	}
}

func (s *userServiceImpl) ListUsers(ctx context.Context, actor *models.User) ([]*models.User, error) {
	if access.CheckAdmin(actor) != nil {
		s.logger.Warn().
			Int64("user_id", actor.ID).
			Msg("non-admin tried to list users")
		return nil, ErrForbidden
	}

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to list users")
		return nil, err
	}

	s.logger.Info().
		Int("count", len(users)).
		Msg("users found")
	return users, nil
}

func (s *userServiceImpl) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			s.logger.Error().
				Int64("user_id", userID).
				Msg("user not found")
			return nil, ErrUserNotFound
		}

		s.logger.Error().
			Err(err).
			Int64("user_id", userID).
			Msg("failed to select user")
		return nil, err
	}
	return user, nil
}
