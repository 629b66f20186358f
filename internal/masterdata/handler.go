package masterdata

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/acadtrack/acadtrack/internal/authz"
	"github.com/acadtrack/acadtrack/internal/platform/httpx"
)

// Handler serves subject and exam management endpoints. Routes are mounted
// under /admin, with per-subtree permission gates applied by the caller.
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

// MountRoutes registers master data routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePermission(authz.PermManageSubjects))
		r.Get("/subjects", h.listSubjects)
		r.Post("/subjects", h.createSubject)
		r.Put("/subjects/{id}", h.updateSubject)
		r.Delete("/subjects/{id}", h.deleteSubject)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePermission(authz.PermManageExams))
		r.Get("/exams", h.listExams)
		r.Post("/exams", h.createExam)
		r.Put("/exams/{id}", h.updateExam)
		r.Delete("/exams/{id}", h.deleteExam)
	})
}

func (h *Handler) listSubjects(w http.ResponseWriter, r *http.Request) {
	subjects, err := h.service.ListSubjects(r.Context())
	if err != nil {
		h.logger.Error("list subjects", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"subjects": subjects})
}

func (h *Handler) createSubject(w http.ResponseWriter, r *http.Request) {
	var input SubjectInput
	if !h.decode(w, r, &input) {
		return
	}
	subject, err := h.service.CreateSubject(r.Context(), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, subject)
}

func (h *Handler) updateSubject(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var input SubjectInput
	if !h.decode(w, r, &input) {
		return
	}
	subject, err := h.service.UpdateSubject(r.Context(), id, input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, subject)
}

func (h *Handler) deleteSubject(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteSubject(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listExams(w http.ResponseWriter, r *http.Request) {
	subjectID := r.URL.Query().Get("subject_id")
	if subjectID != "" {
		if _, err := uuid.Parse(subjectID); err != nil {
			httpx.RespondError(w, httpx.ErrValidation)
			return
		}
	}
	exams, err := h.service.ListExams(r.Context(), subjectID)
	if err != nil {
		h.logger.Error("list exams", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"exams": exams})
}

func (h *Handler) createExam(w http.ResponseWriter, r *http.Request) {
	var input ExamInput
	if !h.decode(w, r, &input) {
		return
	}
	exam, err := h.service.CreateExam(r.Context(), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, exam)
}

func (h *Handler) updateExam(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var input ExamInput
	if !h.decode(w, r, &input) {
		return
	}
	exam, err := h.service.UpdateExam(r.Context(), id, input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, exam)
}

func (h *Handler) deleteExam(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteExam(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return false
	}
	if err := h.validate.Struct(target); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return false
	}
	return true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return "", false
	}
	return id, true
}
