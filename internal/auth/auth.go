package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Cvetanski/dev-t/internal/core"
	applog "github.com/Cvetanski/dev-t/internal/log"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

// Store is the persistence surface the auth service needs.
type Store interface {
	GetUserByUsername(ctx context.Context, username string) (core.User, error)
	CreateToken(ctx context.Context, token string, userID int64) error
	GetUserIDByToken(ctx context.Context, token string) (int64, error)
}

// Service issues and resolves bearer tokens backed by the token store.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Login verifies credentials and issues a fresh bearer token.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("look up user: %w", err)
	}

	if !CheckPassword(password, user.PasswordHash) {
		return "", ErrInvalidCredentials
	}

	token := NewToken()
	if err := s.store.CreateToken(ctx, token, user.ID); err != nil {
		return "", fmt.Errorf("persist token: %w", err)
	}

	slog.InfoContext(ctx, "Token issued", applog.FieldUserID, user.ID, "username", username)
	return token, nil
}

// Resolve maps a bearer token to the owning user id.
func (s *Service) Resolve(ctx context.Context, token string) (int64, error) {
	return s.store.GetUserIDByToken(ctx, token)
}

// IssueToken creates and persists a token for a known user id, bypassing
// the password check. Used by the adduser CLI.
func (s *Service) IssueToken(ctx context.Context, userID int64) (string, error) {
	token := NewToken()
	if err := s.store.CreateToken(ctx, token, userID); err != nil {
		return "", fmt.Errorf("persist token: %w", err)
	}
	return token, nil
}

// HashPassword returns the bcrypt hash of a password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether a password matches its bcrypt hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// NewToken generates an opaque bearer token.
func NewToken() string {
	return uuid.NewString()
}
