package attendance

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/acadtrack/acadtrack/internal/authz"
	"github.com/acadtrack/acadtrack/internal/platform/httpx"
)

// Handler serves attendance endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	guard    authz.Guard
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard authz.Guard) *Handler {
	return &Handler{logger: logger, service: service, guard: guard, validate: validator.New()}
}

// MountTeacherRoutes registers marking routes, mounted under /teacher.
func (h *Handler) MountTeacherRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePermission(authz.PermManageAttendance))
		r.Post("/attendance", h.markDay)
		r.Get("/attendance/subject/{subjectID}", h.dayRecords)
	})
}

// MountSummaryRoutes registers the summary route, mounted under /student and
// /parent.
func (h *Handler) MountSummaryRoutes(r chi.Router) {
	r.Get("/attendance/{studentID}", h.summary)
}

func (h *Handler) markDay(w http.ResponseWriter, r *http.Request) {
	user, ok := authz.UserFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var input DayInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.service.MarkDay(r.Context(), user, input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"marked": len(input.Entries)})
}

func (h *Handler) dayRecords(w http.ResponseWriter, r *http.Request) {
	subjectID := chi.URLParam(r, "subjectID")
	if _, err := uuid.Parse(subjectID); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	day, err := time.Parse("2006-01-02", r.URL.Query().Get("day"))
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	records, err := h.service.DayRecords(r.Context(), subjectID, day)
	if err != nil {
		h.logger.Error("day records", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"records": records})
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
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
	summaries, err := h.service.SummaryForStudent(r.Context(), user, studentID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"summary": summaries})
}
