package auth

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/acadtrack/acadtrack/internal/authz"
	"github.com/acadtrack/acadtrack/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// ResolveUser loads the identity behind a session user ID for the route
// guard. A role string outside the closed set fails resolution rather than
// being coerced into some default.
func (s *Service) ResolveUser(ctx context.Context, userID string) (authz.AppUser, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return authz.AppUser{}, err
	}
	if !user.IsActive {
		return authz.AppUser{}, shared.ErrInvalidCredentials
	}
	role, err := authz.ParseRole(string(user.Role))
	if err != nil {
		return authz.AppUser{}, err
	}
	return authz.AppUser{
		ID:        user.ID,
		FullName:  user.FullName,
		Email:     user.Email,
		Role:      role,
		AvatarURL: user.AvatarURL,
	}, nil
}

// RegisterSession persists the session metadata in postgres.
func (s *Service) RegisterSession(ctx context.Context, id string, userID string, expiresAt time.Time, ip, ua string) error {
	return s.repo.CreateSession(ctx, id, userID, expiresAt, ip, ua)
}

// RemoveSession deletes a session record from postgres.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	return s.repo.DeleteSession(ctx, id)
}

var _ authz.UserResolver = (*Service)(nil)
