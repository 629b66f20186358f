package feedback

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/acadtrack/acadtrack/internal/authz"
	"github.com/acadtrack/acadtrack/internal/platform/httpx"
)

// Handler serves feedback endpoints.
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

// MountTeacherRoutes registers sending routes, mounted under /teacher.
func (h *Handler) MountTeacherRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePermission(authz.PermGiveFeedback))
		r.Post("/feedback", h.send)
		r.Get("/feedback/sent", h.sent)
	})
}

// MountInboxRoutes registers the inbox routes, mounted under /student.
func (h *Handler) MountInboxRoutes(r chi.Router) {
	r.Get("/feedback", h.inbox)
	r.Post("/feedback/{id}/read", h.markRead)
}

func (h *Handler) send(w http.ResponseWriter, r *http.Request) {
	user, ok := authz.UserFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var input MessageInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	msg, err := h.service.Send(r.Context(), user, input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, msg)
}

func (h *Handler) sent(w http.ResponseWriter, r *http.Request) {
	user, ok := authz.UserFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	messages, err := h.service.Sent(r.Context(), user)
	if err != nil {
		h.logger.Error("list sent feedback", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"messages": messages})
}

func (h *Handler) inbox(w http.ResponseWriter, r *http.Request) {
	user, ok := authz.UserFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	messages, err := h.service.Inbox(r.Context(), user)
	if err != nil {
		h.logger.Error("list inbox", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"messages": messages})
}

func (h *Handler) markRead(w http.ResponseWriter, r *http.Request) {
	user, ok := authz.UserFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.service.MarkRead(r.Context(), user, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
