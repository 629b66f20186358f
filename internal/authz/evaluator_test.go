package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubSource struct {
	grants map[Role]map[Permission]bool
	err    error
}

func (s *stubSource) PermissionsForRole(ctx context.Context, role Role) (map[Permission]bool, error) {
	if s.err != nil {
		return nil, s.err
	}
	result := make(map[Permission]bool, len(AllPermissions()))
	for _, perm := range AllPermissions() {
		result[perm] = s.grants[role][perm]
	}
	return result, nil
}

func TestHasPermissionDefaultDeny(t *testing.T) {
	eval := NewEvaluator(&stubSource{grants: map[Role]map[Permission]bool{}})

	// No stored rows at all: every role/permission pair denies.
	for _, role := range AllRoles() {
		for _, perm := range AllPermissions() {
			granted, err := eval.HasPermission(context.Background(), role, perm)
			require.NoError(t, err)
			require.False(t, granted, "role=%s perm=%s", role, perm)
		}
	}
}

func TestHasPermissionGrantedRow(t *testing.T) {
	eval := NewEvaluator(&stubSource{grants: map[Role]map[Permission]bool{
		RoleTeacher: {PermEnterMarks: true},
	}})

	granted, err := eval.HasPermission(context.Background(), RoleTeacher, PermEnterMarks)
	require.NoError(t, err)
	require.True(t, granted)

	granted, err = eval.HasPermission(context.Background(), RoleStudent, PermManageExams)
	require.NoError(t, err)
	require.False(t, granted)
}

func TestHasPermissionRejectsUnknownInputs(t *testing.T) {
	eval := NewEvaluator(&stubSource{grants: map[Role]map[Permission]bool{}})

	granted, err := eval.HasPermission(context.Background(), Role("superuser"), PermExport)
	require.NoError(t, err)
	require.False(t, granted)

	granted, err = eval.HasPermission(context.Background(), RoleTeacher, Permission("can_fly"))
	require.NoError(t, err)
	require.False(t, granted)
}

func TestHasPermissionStoreFailureIsFinal(t *testing.T) {
	storeErr := errors.New("connection reset")
	eval := NewEvaluator(&stubSource{err: storeErr})

	granted, err := eval.HasPermission(context.Background(), RoleTeacher, PermEnterMarks)
	require.ErrorIs(t, err, storeErr)
	require.False(t, granted)
}

func TestOwnershipOverride(t *testing.T) {
	// The table denies everything, yet a user always reaches their own record.
	eval := NewEvaluator(&stubSource{grants: map[Role]map[Permission]bool{}})

	for _, role := range AllRoles() {
		for _, perm := range AllPermissions() {
			granted, err := eval.IsAuthorized(context.Background(), "u-1", role, "u-1", perm)
			require.NoError(t, err)
			require.True(t, granted, "role=%s perm=%s", role, perm)
		}
	}

	granted, err := eval.IsAuthorized(context.Background(), "u-1", RoleStudent, "u-2", PermViewAnalytics)
	require.NoError(t, err)
	require.False(t, granted)

	// Empty caller IDs never match as ownership.
	granted, err = eval.IsAuthorized(context.Background(), "", RoleStudent, "", PermViewAnalytics)
	require.NoError(t, err)
	require.False(t, granted)
}

func TestHardCodedPrincipalActions(t *testing.T) {
	eval := NewEvaluator(&stubSource{grants: map[Role]map[Permission]bool{
		// Even a table granting everything must not unlock these actions.
		RoleHOD: {PermManageUsers: true},
	}})

	for _, action := range []Action{ActionChangeRole, ActionTogglePermission} {
		require.True(t, eval.CanPerform(RolePrincipal, action))
		for _, role := range AllRoles() {
			if role == RolePrincipal {
				continue
			}
			require.False(t, eval.CanPerform(role, action), "role=%s action=%s", role, action)
		}
	}

	require.False(t, eval.CanPerform(RolePrincipal, Action("unknown.action")))
}
