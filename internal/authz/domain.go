package authz

import (
	"fmt"
	"time"
)

// Permission is a named fine-grained capability grantable per role.
type Permission string

const (
	PermExport           Permission = "can_export"
	PermDelete           Permission = "can_delete"
	PermManageSubjects   Permission = "can_manage_subjects"
	PermManageExams      Permission = "can_manage_exams"
	PermEnterMarks       Permission = "can_enter_marks"
	PermViewAnalytics    Permission = "can_view_analytics"
	PermManageAttendance Permission = "can_manage_attendance"
	PermGiveFeedback     Permission = "can_give_feedback"
	PermManageUsers      Permission = "can_manage_users"
)

// AllPermissions lists every capability defined at deploy time.
func AllPermissions() []Permission {
	return []Permission{
		PermExport,
		PermDelete,
		PermManageSubjects,
		PermManageExams,
		PermEnterMarks,
		PermViewAnalytics,
		PermManageAttendance,
		PermGiveFeedback,
		PermManageUsers,
	}
}

// ParsePermission validates a permission name against the closed set.
func ParsePermission(s string) (Permission, error) {
	perm := Permission(s)
	if !perm.Valid() {
		return "", fmt.Errorf("authz: unknown permission %q", s)
	}
	return perm, nil
}

// Valid reports whether the permission belongs to the closed set.
func (p Permission) Valid() bool {
	switch p {
	case PermExport, PermDelete, PermManageSubjects, PermManageExams, PermEnterMarks,
		PermViewAnalytics, PermManageAttendance, PermGiveFeedback, PermManageUsers:
		return true
	}
	return false
}

// RolePermission is a persisted grant row keyed by (role, permission).
// Rows are seeded once and only ever flipped, never deleted.
type RolePermission struct {
	ID         string     `json:"id"`
	Role       Role       `json:"role"`
	Permission Permission `json:"permission"`
	Granted    bool       `json:"granted"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// DefaultGrants returns the seed state of the permission table. Everything
// not listed here starts denied.
func DefaultGrants() map[Role][]Permission {
	return map[Role][]Permission{
		RolePrincipal: {
			PermExport, PermDelete, PermManageSubjects, PermManageExams, PermEnterMarks,
			PermViewAnalytics, PermManageAttendance, PermGiveFeedback, PermManageUsers,
		},
		RoleHOD: {
			PermExport, PermManageSubjects, PermManageExams, PermEnterMarks,
			PermViewAnalytics, PermManageAttendance, PermGiveFeedback,
		},
		RoleTeacher: {
			PermEnterMarks, PermViewAnalytics, PermManageAttendance, PermGiveFeedback,
		},
		RoleClassCoordinator: {
			PermViewAnalytics, PermManageAttendance, PermGiveFeedback,
		},
		RoleLabAssistant: {
			PermManageAttendance,
		},
		RoleStudent: {
			PermGiveFeedback,
		},
		RoleParent: {
			PermGiveFeedback,
		},
	}
}
