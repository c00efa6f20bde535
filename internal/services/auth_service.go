package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/task-tracker/internal/models"
	"github.com/adanyl0v/task-tracker/internal/storage"
)

type authServiceImpl struct {
	logger zerolog.Logger
	users  storage.UserStore
	tokens TokenService
	hasher PasswordHasher
}

func NewAuthService(
	logger zerolog.Logger,
	users storage.UserStore,
	tokens TokenService,
	hasher PasswordHasher,
) AuthService {
	return &authServiceImpl{
		logger: logger,
		users:  users,
		tokens: tokens,
		hasher: hasher,
	}
}

func (s *authServiceImpl) Register(ctx context.Context, params RegisterParams) (*models.User, error) {
	if params.Role == "" {
		params.Role = models.RoleUser
	}

	err := validateRegisterParams(params)
	if err != nil {
		s.logger.Debug().
			Err(err).
			Str("username", params.Username).
			Msg("invalid register params")
		return nil, err
	}

	passwordHash, err := s.hasher.Hash(params.Password)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to hash password")
		return nil, err
	}

	user := &models.User{
		Username:     params.Username,
		PasswordHash: passwordHash,
		Role:         params.Role,
		CreatedAt:    time.Now(),
	}
	err = s.users.CreateUser(ctx, user)
	if err != nil {
		if errors.Is(err, storage.ErrUserAlreadyExists) {
			s.logger.Error().
				Str("username", user.Username).
				Msg("user with this username already exists")
			return nil, ErrUserAlreadyExists
		}

		s.logger.Error().
			Err(err).
			Msg("failed to create user")
		return nil, err
	}

	s.logger.Info().
		Int64("user_id", user.ID).
		Str("role", user.Role).
		Msg("registered user")
	return user, nil
}

func validateRegisterParams(params RegisterParams) error {
	validators := []func() error{
		func() error { return models.ValidateUsername(params.Username) },
		func() error { return models.ValidatePassword(params.Password) },
		func() error { return models.ValidateRole(params.Role) },
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrValidation, err)
		}
	}
	return nil
}

func (s *authServiceImpl) Login(ctx context.Context, params LoginParams) (*LoginResult, error) {
	user, err := s.users.GetUserByUsername(ctx, params.Username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			s.logger.Error().
				Str("username", params.Username).
				Msg("user not found")
			return nil, ErrInvalidCredentials
		}

		s.logger.Error().
			Err(err).
			Str("username", params.Username).
			Msg("failed to select user by username")
		return nil, err
	}

	match, err := s.hasher.Compare(params.Password, user.PasswordHash)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to compare password")
		return nil, err
	} else if !match {
		s.logger.Error().
			Int64("user_id", user.ID).
			Msg("passwords do not match")
		return nil, ErrInvalidCredentials
	}

	accessToken, expiresAt, err := s.tokens.Issue(user.Username)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate access token")
		return nil, err
	}

	s.logger.Info().
		Int64("user_id", user.ID).
		Msg("logged in")
	return &LoginResult{
		User:                 user,
		AccessToken:          accessToken,
		AccessTokenExpiresAt: expiresAt,
	}, nil
}

func (s *authServiceImpl) Authenticate(ctx context.Context, accessToken string) (*models.User, error) {
	session, err := s.tokens.Verify(accessToken)
	if err != nil {
		s.logger.Debug().
			Err(err).
			Msg("failed to verify token")
		return nil, err
	}

	user, err := s.users.GetUserByUsername(ctx, session.Username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			s.logger.Warn().
				Str("username", session.Username).
				Msg("token subject not found")
			return nil, fmt.Errorf("%w: unknown subject", ErrInvalidToken)
		}

		s.logger.Error().
			Err(err).
			Msg("failed to select token subject")
		return nil, err
	}
	return user, nil
}
