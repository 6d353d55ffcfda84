package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"gearloan-backend/internal/domain"
	"gearloan-backend/internal/logger"
	"gearloan-backend/internal/repository"
	"gearloan-backend/internal/security"
)

// ErrInvalidCredentials is deliberately the same for unknown emails and bad passwords
var ErrInvalidCredentials = domain.Unauthorized("invalid email or password")

type authService struct {
	store  repository.Store
	tokens security.TokenManager
}

func NewAuthService(store repository.Store, tokens security.TokenManager) AuthService {
	return &authService{store: store, tokens: tokens}
}

func (s *authService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	logger.EnterMethod("authService.Register", "email", email)

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.BadRequest("name is required")
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return nil, domain.BadRequest("invalid email address")
	}
	if len(password) < security.MinPasswordLength {
		return nil, domain.BadRequest("password must be at least %d characters", security.MinPasswordLength)
	}
	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         name,
		Email:        strings.ToLower(addr.Address),
		PasswordHash: hash,
		Role:         domain.UserRoleUser,
	}
	if err := s.store.Repos().Users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			err = domain.Conflict("an account with email %s already exists", user.Email)
		}
		logger.ExitMethodWithError("authService.Register", err, "email", user.Email)
		return nil, err
	}

	logger.Info("user registered", "user_id", user.ID)
	logger.ExitMethod("authService.Register", "userID", user.ID)
	return user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	logger.EnterMethod("authService.Login", "email", email)

	user, err := s.store.Repos().Users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			err = ErrInvalidCredentials
		}
		logger.ExitMethodWithError("authService.Login", err)
		return "", nil, err
	}
	if err := security.CheckPassword(user.PasswordHash, password); err != nil {
		logger.ExitMethodWithError("authService.Login", ErrInvalidCredentials, "userID", user.ID)
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		return "", nil, err
	}
	logger.ExitMethod("authService.Login", "userID", user.ID)
	return token, user, nil
}
