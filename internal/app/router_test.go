package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/acadtrack/acadtrack/internal/authz"
	"github.com/acadtrack/acadtrack/internal/shared"
)

type stubResolver struct {
	user authz.AppUser
	err  error
}

func (s stubResolver) ResolveUser(context.Context, string) (authz.AppUser, error) {
	if s.err != nil {
		return authz.AppUser{}, s.err
	}
	return s.user, nil
}

func TestRootRedirectsByIdentity(t *testing.T) {
	cases := []struct {
		name     string
		userID   string
		resolver stubResolver
		want     string
	}{
		{name: "anonymous visitor lands on welcome", want: "/welcome"},
		{
			name:     "teacher goes to the teaching dashboard",
			userID:   "t-1",
			resolver: stubResolver{user: authz.AppUser{ID: "t-1", Role: authz.RoleTeacher}},
			want:     "/teacher",
		},
		{
			name:     "principal goes to administration",
			userID:   "p-1",
			resolver: stubResolver{user: authz.AppUser{ID: "p-1", Role: authz.RolePrincipal}},
			want:     "/admin",
		},
		{
			name:     "stale session falls back to login",
			userID:   "ghost",
			resolver: stubResolver{err: errors.New("unknown user")},
			want:     "/login",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			sess := &shared.Session{}
			if tc.userID != "" {
				sess.SetUser(tc.userID)
			}
			req = req.WithContext(shared.ContextWithSession(req.Context(), sess))

			res := httptest.NewRecorder()
			rootRedirect(tc.resolver)(res, req)

			if res.Code != http.StatusSeeOther {
				t.Fatalf("expected 303, got %d", res.Code)
			}
			if loc := res.Header().Get("Location"); loc != tc.want {
				t.Fatalf("expected redirect to %s, got %q", tc.want, loc)
			}
		})
	}
}
