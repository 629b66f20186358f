package authz

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/acadtrack/acadtrack/internal/platform/httpx"
)

// PermissionSource answers role permission lookups. Satisfied by Store and
// by in-memory fakes in tests.
type PermissionSource interface {
	PermissionsForRole(ctx context.Context, role Role) (map[Permission]bool, error)
}

// Store provides access to the role_permissions table. Every read is a
// fresh round trip; decisions are never cached in-process, so a flipped
// grant is visible on the next request.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs a Store backed by the provided pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// PermissionsForRole returns a total mapping over every defined permission
// for the role. Permissions without a stored row default to false, so a
// capability added after seeding is denied rather than crashing callers.
func (s *Store) PermissionsForRole(ctx context.Context, role Role) (map[Permission]bool, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", httpx.ErrValidation, role)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT permission, granted FROM role_permissions WHERE role = $1`, string(role))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stored := make(map[Permission]bool)
	for rows.Next() {
		var name string
		var granted bool
		if err := rows.Scan(&name, &granted); err != nil {
			return nil, err
		}
		perm, err := ParsePermission(name)
		if err != nil {
			// A row outside the closed set never grants anything.
			continue
		}
		stored[perm] = granted
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := make(map[Permission]bool, len(AllPermissions()))
	for _, perm := range AllPermissions() {
		result[perm] = stored[perm]
	}
	return result, nil
}

// ListForRole returns the stored rows for a role, ordered by permission name.
func (s *Store) ListForRole(ctx context.Context, role Role) ([]RolePermission, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", httpx.ErrValidation, role)
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, role, permission, granted, updated_at FROM role_permissions WHERE role = $1 ORDER BY permission`,
		string(role))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []RolePermission
	for rows.Next() {
		var rp RolePermission
		if err := rows.Scan(&rp.ID, &rp.Role, &rp.Permission, &rp.Granted, &rp.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, rp)
	}
	return result, rows.Err()
}

// SetPermission flips a grant identified by (role, permission). Only the
// principal may mutate the table, and the row must already exist from
// seeding; rows are never created at request time.
func (s *Store) SetPermission(ctx context.Context, caller Role, role Role, perm Permission, granted bool) (RolePermission, error) {
	if caller != RolePrincipal {
		return RolePermission{}, fmt.Errorf("%w: only principals can modify permissions", httpx.ErrForbidden)
	}
	if !role.Valid() {
		return RolePermission{}, fmt.Errorf("%w: unknown role %q", httpx.ErrValidation, role)
	}
	if !perm.Valid() {
		return RolePermission{}, fmt.Errorf("%w: unknown permission %q", httpx.ErrValidation, perm)
	}

	row := s.pool.QueryRow(ctx,
		`UPDATE role_permissions SET granted = $3, updated_at = NOW()
		 WHERE role = $1 AND permission = $2
		 RETURNING id, role, permission, granted, updated_at`,
		string(role), string(perm), granted)

	var rp RolePermission
	if err := row.Scan(&rp.ID, &rp.Role, &rp.Permission, &rp.Granted, &rp.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return RolePermission{}, httpx.ErrNotFound
		}
		return RolePermission{}, err
	}
	return rp, nil
}

// SetPermissionByID flips a grant identified by its row ID. Used by the
// settings API where the admin UI already holds the row identifier.
func (s *Store) SetPermissionByID(ctx context.Context, caller Role, id string, granted bool) (RolePermission, error) {
	if caller != RolePrincipal {
		return RolePermission{}, fmt.Errorf("%w: only principals can modify permissions", httpx.ErrForbidden)
	}
	if _, err := uuid.Parse(id); err != nil {
		return RolePermission{}, fmt.Errorf("%w: malformed row id", httpx.ErrValidation)
	}

	row := s.pool.QueryRow(ctx,
		`UPDATE role_permissions SET granted = $2, updated_at = NOW()
		 WHERE id = $1
		 RETURNING id, role, permission, granted, updated_at`,
		id, granted)

	var rp RolePermission
	if err := row.Scan(&rp.ID, &rp.Role, &rp.Permission, &rp.Granted, &rp.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return RolePermission{}, httpx.ErrNotFound
		}
		return RolePermission{}, err
	}
	return rp, nil
}

// Seed inserts the default grant rows for every (role, permission) pair.
// Existing rows are left untouched so operator overrides survive restarts.
func (s *Store) Seed(ctx context.Context) error {
	defaults := DefaultGrants()
	for _, role := range AllRoles() {
		grantedSet := make(map[Permission]bool, len(defaults[role]))
		for _, perm := range defaults[role] {
			grantedSet[perm] = true
		}
		for _, perm := range AllPermissions() {
			_, err := s.pool.Exec(ctx,
				`INSERT INTO role_permissions (id, role, permission, granted, updated_at)
				 VALUES ($1, $2, $3, $4, NOW())
				 ON CONFLICT (role, permission) DO NOTHING`,
				uuid.NewString(), string(role), string(perm), grantedSet[perm])
			if err != nil {
				if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23505" {
					continue
				}
				return fmt.Errorf("authz: seed %s/%s: %w", role, perm, err)
			}
		}
	}
	return nil
}
