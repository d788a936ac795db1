package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fsanano/checkout/internal/auth"
	"fsanano/checkout/internal/model"
	"fsanano/checkout/internal/repository"
)

type AuthService struct {
	users  UserStore
	tokens *auth.JWTManager
}

func NewAuthService(users UserStore, tokens *auth.JWTManager) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

// Register creates a user with an argon2id-hashed password.
func (s *AuthService) Register(ctx context.Context, fullName, username, password string) (*model.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &model.User{Username: username, FullName: fullName, PasswordHash: hash}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("username %q: %w", username, ErrAlreadyExists)
		}
		return nil, err
	}

	slog.InfoContext(ctx, "user registered", "username", username)
	return u, nil
}

// Login checks the credentials and issues an access token. Unknown users and
// wrong passwords both yield auth.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	u, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", auth.ErrInvalidCredentials
		}
		return "", err
	}
	if err := auth.VerifyPassword(u.PasswordHash, password); err != nil {
		return "", err
	}
	return s.tokens.Generate(u.Username)
}

// Authenticate resolves a bearer token to its user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	username, err := s.tokens.Validate(token)
	if err != nil {
		return nil, err
	}

	u, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, auth.ErrInvalidToken
		}
		return nil, err
	}
	return u, nil
}
