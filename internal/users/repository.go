package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/acadtrack/acadtrack/internal/authz"
	"github.com/acadtrack/acadtrack/internal/platform/httpx"
	"github.com/acadtrack/acadtrack/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListUsers returns directory entries matching the filter.
func (r *Repository) ListUsers(ctx context.Context, filter Filter) ([]User, int, error) {
	page := shared.NewPagination(filter.Page, filter.PerPage, 0)
	role := ""
	if filter.Role != nil {
		role = string(*filter.Role)
	}

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM users
		 WHERE ($1 = '' OR role = $1)
		   AND ($2 = '' OR full_name ILIKE '%' || $2 || '%' OR email ILIKE '%' || $2 || '%')`,
		role, filter.Search).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, email, full_name, role, COALESCE(avatar_url, ''), is_active, created_at, updated_at
		 FROM users
		 WHERE ($1 = '' OR role = $1)
		   AND ($2 = '' OR full_name ILIKE '%' || $2 || '%' OR email ILIKE '%' || $2 || '%')
		 ORDER BY full_name
		 LIMIT $3 OFFSET $4`,
		role, filter.Search, page.PerPage, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []User
	for rows.Next() {
		var user User
		if err := rows.Scan(&user.ID, &user.Email, &user.FullName, &user.Role,
			&user.AvatarURL, &user.IsActive, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, 0, err
		}
		result = append(result, user)
	}
	return result, total, rows.Err()
}

// GetUser fetches a single profile.
func (r *Repository) GetUser(ctx context.Context, id string) (User, error) {
	var user User
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, full_name, role, COALESCE(avatar_url, ''), is_active, created_at, updated_at
		 FROM users WHERE id = $1`, id).
		Scan(&user.ID, &user.Email, &user.FullName, &user.Role,
			&user.AvatarURL, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, httpx.ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}

// UpdateProfile updates the mutable profile fields of a user.
func (r *Repository) UpdateProfile(ctx context.Context, id, fullName, avatarURL string) (User, error) {
	var user User
	err := r.pool.QueryRow(ctx,
		`UPDATE users SET full_name = $2, avatar_url = NULLIF($3, ''), updated_at = NOW()
		 WHERE id = $1
		 RETURNING id, email, full_name, role, COALESCE(avatar_url, ''), is_active, created_at, updated_at`,
		id, fullName, avatarURL).
		Scan(&user.ID, &user.Email, &user.FullName, &user.Role,
			&user.AvatarURL, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, httpx.ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}

// UpdateRole sets a user's role. Callers gate this to the principal.
func (r *Repository) UpdateRole(ctx context.Context, id string, role authz.Role) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1`, id, string(role))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}
