package view

import "github.com/acadtrack/acadtrack/internal/authz"

// UIGuard drives conditional rendering of page affordances from the
// caller's resolved role and permission map.
//
// Cosmetic only: templates execute on responses the route guard has already
// authorized, and a motivated client can ignore the rendered page entirely.
// Every affordance hidden here must have a matching route guard or handler
// check; UIGuard is never the final authorization boundary.
type UIGuard struct {
	User        *authz.AppUser
	Permissions map[authz.Permission]bool
}

// NewUIGuard builds the guard for a resolved request identity.
func NewUIGuard(user *authz.AppUser, permissions map[authz.Permission]bool) UIGuard {
	return UIGuard{User: user, Permissions: permissions}
}

// HasRole reports whether the current user has exactly the named role.
func (g UIGuard) HasRole(name string) bool {
	return g.User != nil && string(g.User.Role) == name
}

// HasAnyRole reports whether the current user has any of the named roles.
func (g UIGuard) HasAnyRole(names ...string) bool {
	if g.User == nil {
		return false
	}
	for _, name := range names {
		if string(g.User.Role) == name {
			return true
		}
	}
	return false
}

// Can reports whether the current role holds the named permission.
// Unknown names and missing grants render nothing (fail-closed).
func (g UIGuard) Can(name string) bool {
	perm, err := authz.ParsePermission(name)
	if err != nil {
		return false
	}
	return g.Permissions[perm]
}

// IsAdmin mirrors the admin-level predicate for navigation rendering.
func (g UIGuard) IsAdmin() bool {
	return g.User != nil && authz.IsAdminRole(g.User.Role)
}

// CanManageAcademics mirrors the academic-manager predicate.
func (g UIGuard) CanManageAcademics() bool {
	return g.User != nil && authz.CanManageAcademics(g.User.Role)
}

// Switch selects a value keyed by the current role, falling back to the
// default when no pair matches. Pairs are (role, value) sequences, e.g.
// {{ .Guard.Switch "/" "student" "/student" "teacher" "/teacher" }}.
func (g UIGuard) Switch(fallback string, pairs ...string) string {
	if g.User == nil {
		return fallback
	}
	for i := 0; i+1 < len(pairs); i += 2 {
		if string(g.User.Role) == pairs[i] {
			return pairs[i+1]
		}
	}
	return fallback
}
