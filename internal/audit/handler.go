package audit

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/acadtrack/acadtrack/internal/platform/httpx"
)

// Handler serves the admin audit timeline.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers audit routes. Mounted under /admin, so the route
// guard has already restricted callers to admin-level roles.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/timeline", h.timeline)
}

func (h *Handler) timeline(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	items, err := h.service.Timeline(r.Context(), TimelineFilter{
		Entity: r.URL.Query().Get("entity"),
		Action: r.URL.Query().Get("action"),
		Limit:  limit,
	})
	if err != nil {
		h.logger.Error("audit timeline", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items})
}
