package authz

import "context"

// Action names a high-value operation that is hard-coded to the principal
// role. These bypass the dynamic permission table so a principal can never
// lock themselves out by misconfiguring it, and so no grant row can be used
// to escalate into mutating the table itself.
type Action string

const (
	ActionChangeRole       Action = "users.change_role"
	ActionTogglePermission Action = "permissions.toggle"
)

// Evaluator combines the static role hierarchy with the dynamic grant table
// to answer "may this role or user perform X".
type Evaluator struct {
	source PermissionSource
}

// NewEvaluator constructs an Evaluator over a permission source.
func NewEvaluator(source PermissionSource) *Evaluator {
	return &Evaluator{source: source}
}

// CanPerform decides hard-coded actions. The store is never consulted.
func (e *Evaluator) CanPerform(role Role, action Action) bool {
	switch action {
	case ActionChangeRole, ActionTogglePermission:
		return role == RolePrincipal
	}
	return false
}

// HasPermission consults the grant table for the caller's role. Absent rows
// deny; a store failure surfaces to the caller and is final for the request.
func (e *Evaluator) HasPermission(ctx context.Context, role Role, perm Permission) (bool, error) {
	if !role.Valid() || !perm.Valid() {
		return false, nil
	}
	perms, err := e.source.PermissionsForRole(ctx, role)
	if err != nil {
		return false, err
	}
	return perms[perm], nil
}

// IsAuthorized applies the ownership override before role checks: a user may
// always act on their own record. The override never extends to other
// users' data, which falls through to the role-permission check.
func (e *Evaluator) IsAuthorized(ctx context.Context, callerID string, callerRole Role, resourceOwnerID string, perm Permission) (bool, error) {
	if callerID != "" && callerID == resourceOwnerID {
		return true, nil
	}
	return e.HasPermission(ctx, callerRole, perm)
}
