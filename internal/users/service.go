package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/taskhive/taskhive/internal/auth"
	"github.com/taskhive/taskhive/internal/mail"
)

// ErrInvalidCredentials is returned on a failed login.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrInactive is returned when a deactivated account attempts to log in.
var ErrInactive = errors.New("account is deactivated")

// Service handles registration and authentication.
type Service struct {
	store  Store
	mailer mail.Mailer
}

// NewService creates a user service.
func NewService(store Store, mailer mail.Mailer) *Service {
	return &Service{store: store, mailer: mailer}
}

// Register creates a new account with the default member role and sends a
// best-effort welcome mail.
func (s *Service) Register(ctx context.Context, name, email, password string) (*User, error) {
	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &User{
		Name:         strings.TrimSpace(name),
		Email:        strings.TrimSpace(email),
		PasswordHash: passwordHash,
		Role:         RoleMember,
		IsActive:     true,
	}

	if err := s.store.Create(ctx, user); err != nil {
		return nil, err
	}

	// Mail delivery never blocks or fails registration.
	if err := s.mailer.Send(ctx, user.Email, mail.KindWelcome, map[string]string{
		"name": user.Name,
	}); err != nil {
		log.Warn().Err(err).Msg("Failed to send welcome mail")
	}

	log.Info().Str("user_id", user.ID.String()).Msg("User registered")
	return user, nil
}

// Authenticate verifies credentials and returns the user on success.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.store.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := auth.VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrInactive
	}

	return user, nil
}

// GetByID fetches a user by ID.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.store.GetByID(ctx, id)
}
