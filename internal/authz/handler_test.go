package authz_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/acadtrack/acadtrack/internal/audit"
	"github.com/acadtrack/acadtrack/internal/authz"
	"github.com/acadtrack/acadtrack/internal/platform/httpx"
)

type memoryPermissionStore struct {
	rows map[string]authz.RolePermission
}

func newMemoryPermissionStore() *memoryPermissionStore {
	store := &memoryPermissionStore{rows: make(map[string]authz.RolePermission)}
	for role, perms := range authz.DefaultGrants() {
		for _, perm := range perms {
			id := uuid.NewString()
			store.rows[id] = authz.RolePermission{ID: id, Role: role, Permission: perm, Granted: true}
		}
	}
	return store
}

func (s *memoryPermissionStore) SetPermissionByID(ctx context.Context, caller authz.Role, id string, granted bool) (authz.RolePermission, error) {
	if caller != authz.RolePrincipal {
		return authz.RolePermission{}, httpx.ErrForbidden
	}
	if _, err := uuid.Parse(id); err != nil {
		return authz.RolePermission{}, httpx.ErrValidation
	}
	row, ok := s.rows[id]
	if !ok {
		return authz.RolePermission{}, httpx.ErrNotFound
	}
	row.Granted = granted
	row.UpdatedAt = time.Now()
	s.rows[id] = row
	return row, nil
}

func (s *memoryPermissionStore) ListForRole(ctx context.Context, role authz.Role) ([]authz.RolePermission, error) {
	var rows []authz.RolePermission
	for _, row := range s.rows {
		if row.Role == role {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func (s *memoryPermissionStore) anyRowID() string {
	for id := range s.rows {
		return id
	}
	return ""
}

type memoryRoleDirectory struct {
	roles map[string]authz.Role
}

func (d *memoryRoleDirectory) UpdateRole(ctx context.Context, userID string, role authz.Role) error {
	if _, ok := d.roles[userID]; !ok {
		return httpx.ErrNotFound
	}
	d.roles[userID] = role
	return nil
}

type nopAudit struct{}

func (nopAudit) Record(ctx context.Context, entry audit.Entry) error { return nil }

func newSettingsRouter(store *memoryPermissionStore, dir *memoryRoleDirectory) chi.Router {
	handler := authz.NewSettingsHandler(
		discardLogger(),
		store,
		dir,
		authz.NewEvaluator(allowAllSource{}),
		nopAudit{},
	)
	r := chi.NewRouter()
	r.Route("/api/settings", handler.MountRoutes)
	return r
}

func settingsRequest(method, path, body, actorID string, role authz.Role) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req.WithContext(authz.ContextWithUser(req.Context(), authz.AppUser{ID: actorID, Role: role}))
}

func TestChangeRoleForbiddenForNonPrincipal(t *testing.T) {
	store := newMemoryPermissionStore()
	dir := &memoryRoleDirectory{roles: map[string]authz.Role{}}
	router := newSettingsRouter(store, dir)

	targetID := uuid.NewString()
	body := `{"id":"` + targetID + `","role":"hod"}`
	res := httptest.NewRecorder()
	router.ServeHTTP(res, settingsRequest(http.MethodPatch, "/api/settings/users", body, "t-1", authz.RoleTeacher))

	if res.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", res.Code)
	}
	var payload map[string]string
	if err := json.Unmarshal(res.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if payload["error"] != "Only principals can change roles" {
		t.Fatalf("unexpected body: %q", res.Body.String())
	}
}

func TestChangeRoleAsPrincipal(t *testing.T) {
	store := newMemoryPermissionStore()
	targetID := uuid.NewString()
	dir := &memoryRoleDirectory{roles: map[string]authz.Role{targetID: authz.RoleTeacher}}
	router := newSettingsRouter(store, dir)

	body := `{"id":"` + targetID + `","role":"hod"}`
	res := httptest.NewRecorder()
	router.ServeHTTP(res, settingsRequest(http.MethodPatch, "/api/settings/users", body, "p-1", authz.RolePrincipal))

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if dir.roles[targetID] != authz.RoleHOD {
		t.Fatalf("role not applied, got %s", dir.roles[targetID])
	}
}

func TestChangeRoleRejectsUnknownRole(t *testing.T) {
	store := newMemoryPermissionStore()
	targetID := uuid.NewString()
	dir := &memoryRoleDirectory{roles: map[string]authz.Role{targetID: authz.RoleTeacher}}
	router := newSettingsRouter(store, dir)

	body := `{"id":"` + targetID + `","role":"superuser"}`
	res := httptest.NewRecorder()
	router.ServeHTTP(res, settingsRequest(http.MethodPatch, "/api/settings/users", body, "p-1", authz.RolePrincipal))

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	if dir.roles[targetID] != authz.RoleTeacher {
		t.Fatalf("role must not change on invalid input")
	}
}

func TestUpdatePermissionRoundTrip(t *testing.T) {
	store := newMemoryPermissionStore()
	dir := &memoryRoleDirectory{roles: map[string]authz.Role{}}
	router := newSettingsRouter(store, dir)

	rowID := store.anyRowID()
	body := `{"id":"` + rowID + `","granted":false}`
	res := httptest.NewRecorder()
	router.ServeHTTP(res, settingsRequest(http.MethodPut, "/api/settings/permissions", body, "p-1", authz.RolePrincipal))

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	var row authz.RolePermission
	if err := json.Unmarshal(res.Body.Bytes(), &row); err != nil {
		t.Fatalf("decode row: %v", err)
	}
	if row.Granted {
		t.Fatalf("row should reflect granted=false")
	}

	// The flip is observable on the next read.
	listRes := httptest.NewRecorder()
	router.ServeHTTP(listRes, settingsRequest(http.MethodGet, "/api/settings/permissions?role="+string(row.Role), "", "h-1", authz.RoleHOD))
	if listRes.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", listRes.Code)
	}
	if !strings.Contains(listRes.Body.String(), row.ID) {
		t.Fatalf("expected row %s in listing", row.ID)
	}

	// Re-applying the same value is idempotent.
	res = httptest.NewRecorder()
	router.ServeHTTP(res, settingsRequest(http.MethodPut, "/api/settings/permissions", body, "p-1", authz.RolePrincipal))
	if res.Code != http.StatusOK {
		t.Fatalf("second identical update should succeed, got %d", res.Code)
	}
}

func TestUpdatePermissionForbiddenForNonPrincipal(t *testing.T) {
	store := newMemoryPermissionStore()
	dir := &memoryRoleDirectory{roles: map[string]authz.Role{}}
	router := newSettingsRouter(store, dir)

	body := `{"id":"` + store.anyRowID() + `","granted":true}`
	for _, role := range authz.AllRoles() {
		if role == authz.RolePrincipal {
			continue
		}
		res := httptest.NewRecorder()
		router.ServeHTTP(res, settingsRequest(http.MethodPut, "/api/settings/permissions", body, "u-1", role))
		if res.Code != http.StatusForbidden {
			t.Fatalf("role %s: expected 403, got %d", role, res.Code)
		}
	}
}

func TestUpdatePermissionUnknownRow(t *testing.T) {
	store := newMemoryPermissionStore()
	dir := &memoryRoleDirectory{roles: map[string]authz.Role{}}
	router := newSettingsRouter(store, dir)

	body := `{"id":"` + uuid.NewString() + `","granted":true}`
	res := httptest.NewRecorder()
	router.ServeHTTP(res, settingsRequest(http.MethodPut, "/api/settings/permissions", body, "p-1", authz.RolePrincipal))
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing row, got %d", res.Code)
	}
}
