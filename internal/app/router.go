package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/acadtrack/acadtrack/internal/analytics"
	"github.com/acadtrack/acadtrack/internal/attendance"
	"github.com/acadtrack/acadtrack/internal/audit"
	"github.com/acadtrack/acadtrack/internal/auth"
	"github.com/acadtrack/acadtrack/internal/authz"
	"github.com/acadtrack/acadtrack/internal/feedback"
	"github.com/acadtrack/acadtrack/internal/marks"
	"github.com/acadtrack/acadtrack/internal/masterdata"
	"github.com/acadtrack/acadtrack/internal/observability"
	"github.com/acadtrack/acadtrack/internal/shared"
	"github.com/acadtrack/acadtrack/internal/users"
	"github.com/acadtrack/acadtrack/internal/view"
	"github.com/acadtrack/acadtrack/jobs"
	"github.com/acadtrack/acadtrack/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	Templates      *view.Engine
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager

	Guard       authz.Guard
	Permissions authz.PermissionSource

	AuthHandler       *auth.Handler
	SettingsHandler   *authz.SettingsHandler
	UsersHandler      *users.Handler
	MasterDataHandler *masterdata.Handler
	MarksHandler      *marks.Handler
	AttendanceHandler *attendance.Handler
	FeedbackHandler   *feedback.Handler
	AnalyticsHandler  *analytics.Handler
	AuditHandler      *audit.Handler
	JobsHandler       *jobs.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router with AcadTrack defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)
	r.Use(params.Guard.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Landing page for unauthenticated users.
	r.Get("/welcome", func(w http.ResponseWriter, r *http.Request) {
		renderPage(params, w, r, "pages/landing.html", "AcadTrack", nil)
	})

	r.Get("/", rootRedirect(params.Guard.Resolver))

	r.Get("/login", params.AuthHandler.ShowLogin)
	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Route("/api/settings", params.SettingsHandler.MountRoutes)

	r.Route("/admin", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			renderDashboard(params, w, r, "pages/dashboard_admin.html", "Administration")
		})
		r.Get("/settings/users", func(w http.ResponseWriter, r *http.Request) {
			renderDashboard(params, w, r, "pages/settings_users.html", "Manage Users")
		})
		r.Get("/settings/permissions", func(w http.ResponseWriter, r *http.Request) {
			renderDashboard(params, w, r, "pages/settings_permissions.html", "Permissions")
		})
		params.UsersHandler.MountAdminRoutes(r)
		params.MasterDataHandler.MountRoutes(r)
		params.AuditHandler.MountRoutes(r)
		if params.JobsHandler != nil {
			r.Route("/jobs", params.JobsHandler.MountRoutes)
		}
	})

	r.Route("/teacher", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			renderDashboard(params, w, r, "pages/dashboard_teacher.html", "Teaching")
		})
		params.MarksHandler.MountTeacherRoutes(r)
		params.AttendanceHandler.MountTeacherRoutes(r)
		params.FeedbackHandler.MountTeacherRoutes(r)
		params.AnalyticsHandler.MountStaffRoutes(r)
	})

	r.Route("/student", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			renderDashboard(params, w, r, "pages/dashboard_student.html", "My Progress")
		})
		params.MarksHandler.MountResultRoutes(r)
		params.AttendanceHandler.MountSummaryRoutes(r)
		params.FeedbackHandler.MountInboxRoutes(r)
		params.AnalyticsHandler.MountStudentRoutes(r)
	})

	r.Route("/parent", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			renderDashboard(params, w, r, "pages/dashboard_parent.html", "My Child")
		})
		params.MarksHandler.MountResultRoutes(r)
		params.AttendanceHandler.MountSummaryRoutes(r)
	})

	r.Route("/profile", params.UsersHandler.MountProfileRoutes)

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		// Static assets skip the session/CSRF machinery entirely.
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

// rootRedirect sends visitors to the landing page or to their dashboard.
// "/" is public, so the guard never resolves the user for it; identity comes
// from the session directly.
func rootRedirect(resolver authz.UserResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil || sess.User() == "" {
			http.Redirect(w, r, "/welcome", http.StatusSeeOther)
			return
		}
		user, err := resolver.ResolveUser(r.Context(), sess.User())
		if err != nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, user.Role.DashboardPath(), http.StatusSeeOther)
	}
}

func renderPage(params RouterParams, w http.ResponseWriter, r *http.Request, page, title string, data any) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := params.CSRFManager.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	td := view.TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	if user, ok := authz.UserFromContext(r.Context()); ok {
		td.User = &user
	}
	if err := params.Templates.Render(w, page, td); err != nil {
		params.Logger.Error("render page", slog.String("page", page), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// renderDashboard renders a role dashboard with the UI guard populated so
// templates can hide affordances the user cannot use anyway.
func renderDashboard(params RouterParams, w http.ResponseWriter, r *http.Request, page, title string) {
	user, ok := authz.UserFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	perms, err := params.Permissions.PermissionsForRole(r.Context(), user.Role)
	if err != nil {
		params.Logger.Error("load permissions for dashboard", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := params.CSRFManager.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	td := view.TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		User:        &user,
		Guard:       view.NewUIGuard(&user, perms),
	}
	if err := params.Templates.Render(w, page, td); err != nil {
		params.Logger.Error("render dashboard", slog.String("page", page), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// staticCacheHandler wraps a file server with Cache-Control headers.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
