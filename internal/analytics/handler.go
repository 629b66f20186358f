package analytics

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/acadtrack/acadtrack/internal/authz"
	"github.com/acadtrack/acadtrack/internal/platform/httpx"
)

// Handler serves analytics endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   authz.Guard
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard authz.Guard) *Handler {
	return &Handler{logger: logger, service: service, guard: guard}
}

// MountStaffRoutes registers class-level routes, mounted under /teacher.
func (h *Handler) MountStaffRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePermission(authz.PermViewAnalytics))
		r.Get("/analytics/class", h.classOverview)
		r.Get("/analytics/student/{studentID}", h.studentOverview)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePermission(authz.PermExport))
		r.Get("/analytics/class/export", h.exportClassOverview)
	})
}

// MountStudentRoutes registers the own-overview route, mounted under
// /student. The service's ownership check scopes it to the caller.
func (h *Handler) MountStudentRoutes(r chi.Router) {
	r.Get("/analytics/{studentID}", h.studentOverview)
}

func (h *Handler) studentOverview(w http.ResponseWriter, r *http.Request) {
	user, ok := authz.UserFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	studentID := chi.URLParam(r, "studentID")
	if _, err := uuid.Parse(studentID); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	overview, err := h.service.StudentOverview(r.Context(), user, studentID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, overview)
}

func (h *Handler) classOverview(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.ClassOverview(r.Context())
	if err != nil {
		h.logger.Error("class overview", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"students": entries})
}

func (h *Handler) exportClassOverview(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.ClassOverview(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="class-overview.csv"`)
	if err := WriteClassOverviewCSV(w, entries); err != nil {
		h.logger.Error("write class overview csv", slog.Any("error", err))
	}
}
