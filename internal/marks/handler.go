package marks

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/acadtrack/acadtrack/internal/audit"
	"github.com/acadtrack/acadtrack/internal/authz"
	"github.com/acadtrack/acadtrack/internal/platform/httpx"
)

// AuditRecorder records overwrite events.
type AuditRecorder interface {
	Record(ctx context.Context, entry audit.Entry) error
}

// Handler serves marks endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	guard    authz.Guard
	auditor  AuditRecorder
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard authz.Guard, auditor AuditRecorder) *Handler {
	return &Handler{logger: logger, service: service, guard: guard, auditor: auditor, validate: validator.New()}
}

// MountTeacherRoutes registers entry and marksheet routes, mounted under
// /teacher.
func (h *Handler) MountTeacherRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePermission(authz.PermEnterMarks))
		r.Post("/marks", h.enterMark)
		r.Get("/marks/exam/{examID}", h.marksheet)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePermission(authz.PermExport))
		r.Get("/marks/exam/{examID}/export", h.exportMarksheet)
	})
}

// MountResultRoutes registers the own-results route, mounted under both
// /student and /parent.
func (h *Handler) MountResultRoutes(r chi.Router) {
	r.Get("/results/{studentID}", h.studentResults)
}

func (h *Handler) enterMark(w http.ResponseWriter, r *http.Request) {
	user, ok := authz.UserFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var input MarkInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	mark, overwritten, err := h.service.EnterMark(r.Context(), user, input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if overwritten {
		entry := audit.Entry{
			ActorID:  user.ID,
			Action:   "mark.overwrite",
			Entity:   "mark",
			EntityID: mark.ID,
			Meta:     map[string]any{"exam_id": mark.ExamID, "student_id": mark.StudentID, "obtained": mark.Obtained},
		}
		if err := h.auditor.Record(r.Context(), entry); err != nil {
			h.logger.Error("record mark overwrite", slog.Any("error", err))
		}
	}
	status := http.StatusCreated
	if overwritten {
		status = http.StatusOK
	}
	httpx.JSON(w, status, mark)
}

func (h *Handler) marksheet(w http.ResponseWriter, r *http.Request) {
	examID, ok := h.pathUUID(w, r, "examID")
	if !ok {
		return
	}
	exam, sheet, err := h.service.MarksheetForExam(r.Context(), examID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"exam": exam, "marks": sheet})
}

func (h *Handler) exportMarksheet(w http.ResponseWriter, r *http.Request) {
	examID, ok := h.pathUUID(w, r, "examID")
	if !ok {
		return
	}
	exam, sheet, err := h.service.MarksheetForExam(r.Context(), examID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "marksheet-"+exam.Name+".csv"))
	if err := WriteMarksheetCSV(w, exam, sheet); err != nil {
		h.logger.Error("write marksheet csv", slog.Any("error", err))
	}
}

func (h *Handler) studentResults(w http.ResponseWriter, r *http.Request) {
	user, ok := authz.UserFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	studentID, ok := h.pathUUID(w, r, "studentID")
	if !ok {
		return
	}
	results, err := h.service.ResultsForStudent(r.Context(), user, studentID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"results": results})
}

func (h *Handler) pathUUID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	id := chi.URLParam(r, name)
	if _, err := uuid.Parse(id); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return "", false
	}
	return id, true
}
