package authz

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/acadtrack/acadtrack/internal/platform/httpx"
	"github.com/acadtrack/acadtrack/internal/shared"
)

// AppUser is the resolved identity attached to an authorized request.
type AppUser struct {
	ID        string
	FullName  string
	Email     string
	Role      Role
	AvatarURL string
}

type userContextKey struct{}

// ContextWithUser stores the resolved user in context.
func ContextWithUser(ctx context.Context, user AppUser) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext extracts the resolved user from context.
func UserFromContext(ctx context.Context) (AppUser, bool) {
	user, ok := ctx.Value(userContextKey{}).(AppUser)
	return user, ok
}

// UserResolver turns a session user ID into a full identity. Implemented by
// the auth service; resolution fails for stale IDs and unknown role strings.
type UserResolver interface {
	ResolveUser(ctx context.Context, userID string) (AppUser, error)
}

// DefaultPolicy states what happens to path prefixes outside the policy
// table. It is a deliberate, reviewed configuration value rather than an
// implicit fallthrough.
type DefaultPolicy string

const (
	DefaultAllow DefaultPolicy = "allow"
	DefaultDeny  DefaultPolicy = "deny"
)

// ParseDefaultPolicy validates the configured default policy.
func ParseDefaultPolicy(s string) (DefaultPolicy, bool) {
	switch DefaultPolicy(s) {
	case DefaultAllow, DefaultDeny:
		return DefaultPolicy(s), true
	}
	return "", false
}

type routePolicy struct {
	prefix  string
	allowed []Role
}

// The closed path-prefix policy table. Order matters only for readability;
// prefixes do not overlap.
var policies = []routePolicy{
	{prefix: "/admin", allowed: []Role{RoleHOD, RolePrincipal}},
	{prefix: "/teacher", allowed: []Role{RoleTeacher, RoleHOD, RolePrincipal}},
	{prefix: "/student", allowed: []Role{RoleStudent}},
	{prefix: "/parent", allowed: []Role{RoleParent}},
}

// Paths reachable without a session: login, auth callbacks, landing, health,
// metrics scrape and static assets.
var publicPrefixes = []string{
	"/login",
	"/auth",
	"/welcome",
	"/healthz",
	"/metrics",
	"/static",
}

// PolicyPrefixes exposes the guarded prefixes for tests that assert the
// table is enforced completely.
func PolicyPrefixes() []string {
	out := make([]string, len(policies))
	for i, p := range policies {
		out[i] = p.prefix
	}
	return out
}

// AllowedRolesFor returns the allowed role set for a guarded prefix.
func AllowedRolesFor(prefix string) []Role {
	for _, p := range policies {
		if p.prefix == prefix {
			return append([]Role(nil), p.allowed...)
		}
	}
	return nil
}

// DenialRecorder counts guard refusals, keyed by role.
type DenialRecorder interface {
	RecordDenial(role string)
}

// Guard enforces the route policy at the request boundary, before any
// handler logic runs. Every request is evaluated fresh; there is no cached
// "already authorized" state, so a role change takes effect immediately.
type Guard struct {
	Resolver  UserResolver
	Evaluator *Evaluator
	Logger    *slog.Logger
	Default   DefaultPolicy
	Denials   DenialRecorder
}

func (g Guard) recordDenial(role Role) {
	if g.Denials != nil {
		g.Denials.RecordDenial(string(role))
	}
}

// Middleware resolves identity and applies the path-prefix policy table.
func (g Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if isPublicPath(path) {
			next.ServeHTTP(w, r)
			return
		}

		sess := shared.SessionFromContext(r.Context())
		if sess == nil || sess.User() == "" {
			g.rejectUnauthenticated(w, r)
			return
		}

		user, err := g.Resolver.ResolveUser(r.Context(), sess.User())
		if err != nil {
			// Stale session or a role outside the closed set: treat as
			// unauthenticated rather than guessing a role.
			if g.Logger != nil {
				g.Logger.Warn("guard resolve user", slog.Any("error", err))
			}
			g.rejectUnauthenticated(w, r)
			return
		}

		ctx := ContextWithUser(r.Context(), user)

		policy, matched := matchPolicy(path)
		if !matched {
			if g.Default == DefaultDeny {
				g.recordDenial(user.Role)
				if isAPIPath(path) {
					httpx.RespondError(w, httpx.ErrForbidden)
					return
				}
				http.Redirect(w, r, user.Role.DashboardPath(), http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		if !roleAllowed(user.Role, policy.allowed) {
			g.recordDenial(user.Role)
			if isAPIPath(path) {
				httpx.RespondError(w, httpx.ErrForbidden)
				return
			}
			http.Redirect(w, r, user.Role.DashboardPath(), http.StatusSeeOther)
			return
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequirePermission gates a route subtree on a dynamic grant. Runs after
// Middleware, so the resolved user is already in context.
func (g Guard) RequirePermission(perm Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				g.rejectUnauthenticated(w, r)
				return
			}
			granted, err := g.Evaluator.HasPermission(r.Context(), user.Role, perm)
			if err != nil {
				if g.Logger != nil {
					g.Logger.Error("guard permission check", slog.Any("error", err))
				}
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
				return
			}
			if !granted {
				g.recordDenial(user.Role)
				if isAPIPath(r.URL.Path) {
					httpx.RespondError(w, httpx.ErrForbidden)
					return
				}
				http.Redirect(w, r, user.Role.DashboardPath(), http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (g Guard) rejectUnauthenticated(w http.ResponseWriter, r *http.Request) {
	if isAPIPath(r.URL.Path) {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func matchPolicy(path string) (routePolicy, bool) {
	for _, p := range policies {
		if path == p.prefix || strings.HasPrefix(path, p.prefix+"/") {
			return p, true
		}
	}
	return routePolicy{}, false
}

func isPublicPath(path string) bool {
	if path == "/" || path == "/welcome" {
		return true
	}
	for _, prefix := range publicPrefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

func isAPIPath(path string) bool {
	return strings.HasPrefix(path, "/api/")
}

func roleAllowed(role Role, allowed []Role) bool {
	for _, a := range allowed {
		if role == a {
			return true
		}
	}
	return false
}
