package users

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/acadtrack/acadtrack/internal/authz"
	"github.com/acadtrack/acadtrack/internal/platform/httpx"
)

// Handler serves the user directory API.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountAdminRoutes registers directory routes under /admin.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Get("/users", h.listUsers)
	r.Get("/users/{id}", h.getUser)
}

// MountProfileRoutes registers self-service profile routes.
func (h *Handler) MountProfileRoutes(r chi.Router) {
	r.Get("/profile", h.ownProfile)
	r.Put("/profile", h.updateOwnProfile)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	filter := Filter{Search: r.URL.Query().Get("q")}
	filter.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	filter.PerPage, _ = strconv.Atoi(r.URL.Query().Get("per_page"))
	if raw := r.URL.Query().Get("role"); raw != "" {
		role, err := authz.ParseRole(raw)
		if err != nil {
			httpx.RespondError(w, httpx.ErrValidation)
			return
		}
		filter.Role = &role
	}

	entries, page, err := h.service.ListUsers(r.Context(), filter)
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"users": entries, "pagination": page})
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) ownProfile(w http.ResponseWriter, r *http.Request) {
	caller, ok := authz.UserFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	user, err := h.service.GetUser(r.Context(), caller.ID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

type updateProfileRequest struct {
	FullName  string `json:"full_name" validate:"required,min=2,max=120"`
	AvatarURL string `json:"avatar_url" validate:"omitempty,url"`
}

func (h *Handler) updateOwnProfile(w http.ResponseWriter, r *http.Request) {
	caller, ok := authz.UserFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var req updateProfileRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	user, err := h.service.UpdateProfile(r.Context(), caller.ID, req.FullName, req.AvatarURL)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}
