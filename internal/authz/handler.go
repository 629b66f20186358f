package authz

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/acadtrack/acadtrack/internal/audit"
	"github.com/acadtrack/acadtrack/internal/platform/httpx"
)

// PermissionToggler mutates and lists grant rows. Satisfied by Store.
type PermissionToggler interface {
	SetPermissionByID(ctx context.Context, caller Role, id string, granted bool) (RolePermission, error)
	ListForRole(ctx context.Context, role Role) ([]RolePermission, error)
}

// RoleDirectory applies a validated role change to a user record.
type RoleDirectory interface {
	UpdateRole(ctx context.Context, userID string, role Role) error
}

// AuditRecorder persists audit entries for settings mutations.
type AuditRecorder interface {
	Record(ctx context.Context, entry audit.Entry) error
}

// SettingsHandler exposes the principal-gated settings API: toggling a
// single permission row and changing a user's role.
type SettingsHandler struct {
	logger    *slog.Logger
	store     PermissionToggler
	users     RoleDirectory
	evaluator *Evaluator
	audit     AuditRecorder
	validate  *validator.Validate
}

// NewSettingsHandler constructs a SettingsHandler.
func NewSettingsHandler(logger *slog.Logger, store PermissionToggler, users RoleDirectory, evaluator *Evaluator, recorder AuditRecorder) *SettingsHandler {
	return &SettingsHandler{
		logger:    logger,
		store:     store,
		users:     users,
		evaluator: evaluator,
		audit:     recorder,
		validate:  validator.New(),
	}
}

// MountRoutes registers the settings API.
func (h *SettingsHandler) MountRoutes(r chi.Router) {
	r.Get("/permissions", h.listPermissions)
	r.Put("/permissions", h.updatePermission)
	r.Patch("/users", h.changeRole)
}

type updatePermissionRequest struct {
	ID      string `json:"id" validate:"required"`
	Granted *bool  `json:"granted" validate:"required"`
}

type changeRoleRequest struct {
	ID   string `json:"id" validate:"required"`
	Role string `json:"role" validate:"required"`
}

func (h *SettingsHandler) listPermissions(w http.ResponseWriter, r *http.Request) {
	caller, ok := UserFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	if !IsAdminRole(caller.Role) {
		httpx.RespondError(w, httpx.ErrForbidden)
		return
	}
	role, err := ParseRole(r.URL.Query().Get("role"))
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	rows, err := h.store.ListForRole(r.Context(), role)
	if err != nil {
		h.logger.Error("list permissions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"role": role, "permissions": rows})
}

func (h *SettingsHandler) updatePermission(w http.ResponseWriter, r *http.Request) {
	caller, ok := UserFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	if !h.evaluator.CanPerform(caller.Role, ActionTogglePermission) {
		httpx.JSON(w, http.StatusForbidden, map[string]string{"error": "Only principals can modify permissions"})
		return
	}

	var req updatePermissionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}

	row, err := h.store.SetPermissionByID(r.Context(), caller.Role, req.ID, *req.Granted)
	if err != nil {
		h.logger.Warn("update permission", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	if err := h.audit.Record(r.Context(), audit.Entry{
		ActorID:  caller.ID,
		Action:   "permission.toggle",
		Entity:   "role_permission",
		EntityID: row.ID,
		Meta:     map[string]any{"role": row.Role, "permission": row.Permission, "granted": row.Granted},
	}); err != nil {
		h.logger.Warn("audit permission toggle", slog.Any("error", err))
	}

	httpx.JSON(w, http.StatusOK, row)
}

func (h *SettingsHandler) changeRole(w http.ResponseWriter, r *http.Request) {
	caller, ok := UserFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	if !h.evaluator.CanPerform(caller.Role, ActionChangeRole) {
		httpx.JSON(w, http.StatusForbidden, map[string]string{"error": "Only principals can change roles"})
		return
	}

	var req changeRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if _, err := uuid.Parse(req.ID); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	role, err := ParseRole(req.Role)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}

	if err := h.users.UpdateRole(r.Context(), req.ID, role); err != nil {
		h.logger.Warn("change role", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	if err := h.audit.Record(r.Context(), audit.Entry{
		ActorID:  caller.ID,
		Action:   "user.change_role",
		Entity:   "user",
		EntityID: req.ID,
		Meta:     map[string]any{"role": role},
	}); err != nil {
		h.logger.Warn("audit role change", slog.Any("error", err))
	}

	httpx.JSON(w, http.StatusOK, map[string]any{"id": req.ID, "role": role})
}
