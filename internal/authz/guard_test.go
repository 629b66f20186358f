package authz_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/acadtrack/acadtrack/internal/authz"
	"github.com/acadtrack/acadtrack/internal/shared"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubResolver struct {
	users map[string]authz.AppUser
}

func (s *stubResolver) ResolveUser(ctx context.Context, userID string) (authz.AppUser, error) {
	user, ok := s.users[userID]
	if !ok {
		return authz.AppUser{}, errors.New("unknown user")
	}
	return user, nil
}

type allowAllSource struct{}

func (allowAllSource) PermissionsForRole(ctx context.Context, role authz.Role) (map[authz.Permission]bool, error) {
	result := make(map[authz.Permission]bool)
	for _, perm := range authz.AllPermissions() {
		result[perm] = true
	}
	return result, nil
}

func newGuard(defaultPolicy authz.DefaultPolicy, users map[string]authz.AppUser) authz.Guard {
	return authz.Guard{
		Resolver:  &stubResolver{users: users},
		Evaluator: authz.NewEvaluator(allowAllSource{}),
		Default:   defaultPolicy,
	}
}

func requestAs(t *testing.T, path, userID string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	sess := &shared.Session{}
	if userID != "" {
		sess.SetUser(userID)
	}
	return req.WithContext(shared.ContextWithSession(req.Context(), sess))
}

func okHandler(served *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*served = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestGuardRedirectsUnauthenticatedToLogin(t *testing.T) {
	guard := newGuard(authz.DefaultAllow, nil)
	var served bool
	handler := guard.Middleware(okHandler(&served))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, requestAs(t, "/admin/settings", ""))

	if served {
		t.Fatalf("handler must not run for unauthenticated request")
	}
	if res.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", res.Code)
	}
	if loc := res.Header().Get("Location"); loc != "/login" {
		t.Fatalf("expected redirect to /login, got %q", loc)
	}
}

func TestGuardRedirectsWrongRoleToOwnDashboard(t *testing.T) {
	guard := newGuard(authz.DefaultAllow, map[string]authz.AppUser{
		"hod-1": {ID: "hod-1", Role: authz.RoleHOD},
	})
	var served bool
	handler := guard.Middleware(okHandler(&served))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, requestAs(t, "/student/results", "hod-1"))

	if served {
		t.Fatalf("student content must not be served to an hod")
	}
	if res.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", res.Code)
	}
	if loc := res.Header().Get("Location"); loc != "/admin" {
		t.Fatalf("expected redirect to /admin, got %q", loc)
	}
}

func TestGuardPolicyTableCompleteness(t *testing.T) {
	// Every guarded prefix must reject every role outside its allowed set.
	users := make(map[string]authz.AppUser)
	for _, role := range authz.AllRoles() {
		users[string(role)] = authz.AppUser{ID: string(role), Role: role}
	}
	guard := newGuard(authz.DefaultAllow, users)

	for _, prefix := range authz.PolicyPrefixes() {
		allowed := make(map[authz.Role]bool)
		for _, role := range authz.AllowedRolesFor(prefix) {
			allowed[role] = true
		}
		for _, role := range authz.AllRoles() {
			var served bool
			handler := guard.Middleware(okHandler(&served))
			res := httptest.NewRecorder()
			handler.ServeHTTP(res, requestAs(t, prefix+"/page", string(role)))

			if allowed[role] {
				if !served || res.Code != http.StatusOK {
					t.Fatalf("prefix %s: role %s should be served, got %d", prefix, role, res.Code)
				}
			} else {
				if served {
					t.Fatalf("prefix %s: role %s must not be served content", prefix, role)
				}
				if res.Code != http.StatusSeeOther {
					t.Fatalf("prefix %s: role %s expected redirect, got %d", prefix, role, res.Code)
				}
			}
		}
	}
}

func TestGuardAPIPathsGetProblemResponses(t *testing.T) {
	guard := newGuard(authz.DefaultDeny, map[string]authz.AppUser{
		"t-1": {ID: "t-1", Role: authz.RoleTeacher},
	})
	var served bool
	handler := guard.Middleware(okHandler(&served))

	// Unauthenticated API request: 401, not a redirect.
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, requestAs(t, "/api/reports", ""))
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}

	// Authenticated but unmatched prefix under default-deny: 403.
	res = httptest.NewRecorder()
	handler.ServeHTTP(res, requestAs(t, "/api/reports", "t-1"))
	if served {
		t.Fatalf("handler must not run under default-deny")
	}
	if res.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", res.Code)
	}
}

func TestGuardDefaultAllowPassesUnmatchedPrefixes(t *testing.T) {
	guard := newGuard(authz.DefaultAllow, map[string]authz.AppUser{
		"s-1": {ID: "s-1", Role: authz.RoleStudent},
	})
	var served bool
	handler := guard.Middleware(okHandler(&served))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, requestAs(t, "/notices", "s-1"))
	if !served || res.Code != http.StatusOK {
		t.Fatalf("default-allow should pass unmatched prefixes, got %d", res.Code)
	}
}

func TestGuardStaleSessionTreatedAsUnauthenticated(t *testing.T) {
	guard := newGuard(authz.DefaultAllow, nil)
	var served bool
	handler := guard.Middleware(okHandler(&served))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, requestAs(t, "/teacher/marks", "ghost"))
	if served {
		t.Fatalf("handler must not run for a stale session")
	}
	if loc := res.Header().Get("Location"); loc != "/login" {
		t.Fatalf("expected redirect to /login, got %q", loc)
	}
}

func TestGuardPublicPathsSkipIdentity(t *testing.T) {
	guard := newGuard(authz.DefaultDeny, nil)
	for _, path := range []string{"/", "/welcome", "/login", "/auth/login", "/healthz", "/static/css/app.css"} {
		var served bool
		handler := guard.Middleware(okHandler(&served))
		res := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		handler.ServeHTTP(res, req)
		if !served {
			t.Fatalf("public path %s should be served without a session", path)
		}
	}
}

func TestRequirePermission(t *testing.T) {
	guard := authz.Guard{
		Resolver:  &stubResolver{},
		Evaluator: authz.NewEvaluator(&fixedSource{granted: map[authz.Permission]bool{authz.PermExport: true}}),
		Default:   authz.DefaultAllow,
	}

	var served bool
	handler := guard.RequirePermission(authz.PermExport)(okHandler(&served))
	req := httptest.NewRequest(http.MethodGet, "/api/analytics/export", nil)
	req = req.WithContext(authz.ContextWithUser(req.Context(), authz.AppUser{ID: "t-1", Role: authz.RoleTeacher}))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if !served {
		t.Fatalf("granted permission should pass")
	}

	served = false
	handler = guard.RequirePermission(authz.PermDelete)(okHandler(&served))
	res = httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if served {
		t.Fatalf("denied permission must not pass")
	}
	if res.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", res.Code)
	}
}

type denialCounter struct {
	byRole map[string]int
}

func (d *denialCounter) RecordDenial(role string) {
	d.byRole[role]++
}

func TestGuardCopiesShareDenialRecorder(t *testing.T) {
	denials := &denialCounter{byRole: map[string]int{}}
	guard := authz.Guard{
		Resolver: &stubResolver{users: map[string]authz.AppUser{
			"s-1": {ID: "s-1", Role: authz.RoleStudent},
		}},
		Evaluator: authz.NewEvaluator(&fixedSource{}),
		Default:   authz.DefaultAllow,
		Denials:   denials,
	}

	// Handlers hold their own copy of the guard, so the recorder must reach
	// them through the value they were constructed with.
	handlerCopy := guard

	var served bool
	middleware := handlerCopy.Middleware(okHandler(&served))
	res := httptest.NewRecorder()
	middleware.ServeHTTP(res, requestAs(t, "/admin/settings", "s-1"))
	if served {
		t.Fatalf("student must not reach admin content")
	}
	if denials.byRole[string(authz.RoleStudent)] != 1 {
		t.Fatalf("expected 1 recorded denial, got %d", denials.byRole[string(authz.RoleStudent)])
	}

	permHandler := handlerCopy.RequirePermission(authz.PermExport)(okHandler(&served))
	req := httptest.NewRequest(http.MethodGet, "/teacher/marks/exam/1/export", nil)
	req = req.WithContext(authz.ContextWithUser(req.Context(), authz.AppUser{ID: "s-1", Role: authz.RoleStudent}))
	res = httptest.NewRecorder()
	permHandler.ServeHTTP(res, req)
	if served {
		t.Fatalf("export must not be served without the grant")
	}
	if denials.byRole[string(authz.RoleStudent)] != 2 {
		t.Fatalf("expected 2 recorded denials, got %d", denials.byRole[string(authz.RoleStudent)])
	}
}

type fixedSource struct {
	granted map[authz.Permission]bool
}

func (s *fixedSource) PermissionsForRole(ctx context.Context, role authz.Role) (map[authz.Permission]bool, error) {
	result := make(map[authz.Permission]bool)
	for _, perm := range authz.AllPermissions() {
		result[perm] = s.granted[perm]
	}
	return result, nil
}
