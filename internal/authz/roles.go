// Package authz implements role-based authorization: the closed role and
// permission catalogs, the persisted grant table, the permission evaluator
// and the HTTP route guard.
package authz

import "fmt"

// Role is the closed category assigned to an identity.
type Role string

const (
	RoleStudent          Role = "student"
	RoleTeacher          Role = "teacher"
	RoleHOD              Role = "hod"
	RolePrincipal        Role = "principal"
	RoleParent           Role = "parent"
	RoleClassCoordinator Role = "class_coordinator"
	RoleLabAssistant     Role = "lab_assistant"
)

// AllRoles lists every role the system recognises.
func AllRoles() []Role {
	return []Role{
		RoleStudent,
		RoleTeacher,
		RoleHOD,
		RolePrincipal,
		RoleParent,
		RoleClassCoordinator,
		RoleLabAssistant,
	}
}

// ParseRole validates an external role string against the closed set.
// Role values arrive from the auth provider as plain strings and must never
// be silently coerced.
func ParseRole(s string) (Role, error) {
	role := Role(s)
	if !role.Valid() {
		return "", fmt.Errorf("authz: unknown role %q", s)
	}
	return role, nil
}

// Valid reports whether the role belongs to the closed set.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleHOD, RolePrincipal, RoleParent, RoleClassCoordinator, RoleLabAssistant:
		return true
	}
	return false
}

// IsAdminRole reports whether the role is admin-level. Unknown values,
// including stale role strings from storage, always evaluate to false.
func IsAdminRole(r Role) bool {
	return r == RoleHOD || r == RolePrincipal
}

// CanManageAcademics reports whether the role may manage academic records.
func CanManageAcademics(r Role) bool {
	return r == RoleTeacher || r == RoleHOD || r == RolePrincipal
}

// DashboardPath returns the landing page for a role. Denied requests are
// redirected here rather than to an error page so the response never
// reveals what was behind the forbidden path.
func (r Role) DashboardPath() string {
	switch r {
	case RoleHOD, RolePrincipal:
		return "/admin"
	case RoleTeacher, RoleClassCoordinator, RoleLabAssistant:
		return "/teacher"
	case RoleStudent:
		return "/student"
	case RoleParent:
		return "/parent"
	}
	return "/"
}
