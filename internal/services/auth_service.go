package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/welldanyogia/webrana-loveletters-backend/internal/auth"
	apperrors "github.com/welldanyogia/webrana-loveletters-backend/internal/errors"
	"github.com/welldanyogia/webrana-loveletters-backend/internal/models"
	"github.com/welldanyogia/webrana-loveletters-backend/internal/repository"
	"github.com/welldanyogia/webrana-loveletters-backend/internal/validator"
)

type RegisterInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResult is returned by Register and Login
type AuthResult struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        *models.User `json:"user"`
}

// AuthService is the identity provider: it registers accounts, checks
// passwords and resolves bearer tokens to users.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, input LoginInput) (*AuthResult, error)
	VerifyCredentials(ctx context.Context, username, password string) (*models.User, error)
	Authenticate(ctx context.Context, token string) (*models.User, error)
	Me(ctx context.Context, username string) (*models.User, error)
}

type authService struct {
	users  repository.UserRepository
	tokens *auth.TokenManager
	logger *slog.Logger
	now    func() time.Time
}

// NewAuthService creates a new AuthService
func NewAuthService(users repository.UserRepository, tokens *auth.TokenManager, logger *slog.Logger) AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &authService{
		users:  users,
		tokens: tokens,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	username := validator.NormalizeUsername(input.Username)
	if err := validator.ValidateUsername(username); err != nil {
		return nil, apperrors.Validation("username: " + err.Error())
	}
	if err := validator.ValidatePassword(input.Password); err != nil {
		return nil, apperrors.Validation("password: " + err.Error())
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	now := s.now()
	user := &models.User{
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    now,
		LastSeen:     &now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return nil, apperrors.NewAppError(apperrors.ErrDuplicateEntry, "username already registered", apperrors.CodeDuplicateEntry)
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.logger.Info("user registered", slog.String("username", user.Username))
	return s.issue(user)
}

func (s *authService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	user, err := s.VerifyCredentials(ctx, input.Username, input.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.users.UpdateLastSeen(ctx, user.Username, now); err != nil {
		return nil, fmt.Errorf("updating last seen: %w", err)
	}
	user.LastSeen = &now

	return s.issue(user)
}

// VerifyCredentials checks a username and password pair. Unknown users and
// wrong passwords produce the same error.
func (s *authService) VerifyCredentials(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, validator.NormalizeUsername(username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if !auth.VerifyPassword(password, user.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials
	}
	return user, nil
}

// Authenticate resolves a bearer token to a registered user
func (s *authService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	username, err := s.tokens.Validate(token)
	if err != nil {
		return nil, apperrors.ErrUnauthorized
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrUnauthorized
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	return user, nil
}

func (s *authService) Me(ctx context.Context, username string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	return user, nil
}

func (s *authService) issue(user *models.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user.Username)
	if err != nil {
		return nil, fmt.Errorf("generating token: %w", err)
	}
	return &AuthResult{AccessToken: token, TokenType: "bearer", User: user}, nil
}
