package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/acadtrack/acadtrack/internal/authz"
	"github.com/acadtrack/acadtrack/internal/platform/httpx"
	"github.com/acadtrack/acadtrack/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context, filter Filter) ([]User, int, error)
	GetUser(ctx context.Context, id string) (User, error)
	UpdateProfile(ctx context.Context, id, fullName, avatarURL string) (User, error)
	UpdateRole(ctx context.Context, id string, role authz.Role) error
}

// Service handles user directory business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListUsers returns directory entries plus pagination metadata.
func (s *Service) ListUsers(ctx context.Context, filter Filter) ([]User, shared.Pagination, error) {
	entries, total, err := s.repo.ListUsers(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return entries, shared.NewPagination(filter.Page, filter.PerPage, total), nil
}

// GetUser fetches a single profile.
func (s *Service) GetUser(ctx context.Context, id string) (User, error) {
	return s.repo.GetUser(ctx, id)
}

// UpdateProfile updates the caller's own display name and avatar.
func (s *Service) UpdateProfile(ctx context.Context, id, fullName, avatarURL string) (User, error) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return User{}, fmt.Errorf("%w: full name required", httpx.ErrValidation)
	}
	return s.repo.UpdateProfile(ctx, id, fullName, strings.TrimSpace(avatarURL))
}

// UpdateRole applies a role change. The principal-only gate lives in the
// settings API; this layer re-validates the closed set as a last line.
func (s *Service) UpdateRole(ctx context.Context, id string, role authz.Role) error {
	if !role.Valid() {
		return fmt.Errorf("%w: unknown role %q", httpx.ErrValidation, role)
	}
	return s.repo.UpdateRole(ctx, id, role)
}

var _ authz.RoleDirectory = (*Service)(nil)
