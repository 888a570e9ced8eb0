package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/expense-desk/internal/application/port"
	"github.com/garyjia/expense-desk/internal/domain/entity"
)

// TokenPrefix marks the development access tokens issued by Login
const TokenPrefix = "mock-jwt-token-"

// AuthService issues and resolves development access tokens.
// There are no passwords: logging in with an email creates the account.
type AuthService interface {
	Login(ctx context.Context, email, role string) (*entity.User, string, error)
	Authenticate(ctx context.Context, token string) (*entity.User, error)
	GetUser(ctx context.Context, id string) (*entity.User, error)
}

type authServiceImpl struct {
	userRepo port.UserRepository
	logger   Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo port.UserRepository, logger Logger) AuthService {
	return &authServiceImpl{
		userRepo: userRepo,
		logger:   logger,
	}
}

// Login finds or creates the user for email. A non-empty role replaces the stored one.
func (s *authServiceImpl) Login(ctx context.Context, email, role string) (*entity.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, "", fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}
	role = strings.ToUpper(strings.TrimSpace(role))
	if role != "" && !entity.IsValidRole(role) {
		return nil, "", fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		s.logger.Error("Failed to look up user", "error", err, "email", email)
		return nil, "", fmt.Errorf("get user by email: %w", err)
	}

	switch {
	case user == nil:
		if role == "" {
			role = entity.RoleEmployee
		}
		user = &entity.User{
			ID:        uuid.NewString(),
			Email:     email,
			Role:      role,
			CreatedAt: time.Now().UTC(),
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			s.logger.Error("Failed to create user", "error", err, "email", email)
			return nil, "", fmt.Errorf("create user: %w", err)
		}
		s.logger.Info("User created", "id", user.ID, "role", user.Role)
	case role != "" && role != user.Role:
		if err := s.userRepo.UpdateRole(ctx, user.ID, role); err != nil {
			s.logger.Error("Failed to update role", "error", err, "id", user.ID)
			return nil, "", fmt.Errorf("update role: %w", err)
		}
		user.Role = role
		s.logger.Info("User role changed", "id", user.ID, "role", role)
	}

	return user, TokenPrefix + user.ID, nil
}

// Authenticate resolves a bearer token to its user
func (s *authServiceImpl) Authenticate(ctx context.Context, token string) (*entity.User, error) {
	if !strings.HasPrefix(token, TokenPrefix) {
		return nil, ErrUnauthenticated
	}
	user, err := s.GetUser(ctx, strings.TrimPrefix(token, TokenPrefix))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUnauthenticated
	}
	return user, nil
}

// GetUser returns the user or nil when the id is unknown
func (s *authServiceImpl) GetUser(ctx context.Context, id string) (*entity.User, error) {
	if id == "" {
		return nil, nil
	}
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get user", "error", err, "id", id)
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}
