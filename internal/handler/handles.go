package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chankruze/liber/internal/service"
)

// HandleHandler serves the public /handles routes.
type HandleHandler struct {
	handles *service.HandleService
	logger  *slog.Logger
}

func NewHandleHandler(handles *service.HandleService, logger *slog.Logger) *HandleHandler {
	return &HandleHandler{handles: handles, logger: logger}
}

// HandleAvailability reports whether a handle is free.
//
// HTTP: GET /handles/{handle}
func (h *HandleHandler) HandleAvailability(w http.ResponseWriter, r *http.Request) {
	got, err := h.handles.CheckAvailability(r.Context(), chi.URLParam(r, "handle"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, got)
}

// HandleDetails returns the public profile behind a handle.
//
// HTTP: GET /handles/{handle}/details
func (h *HandleHandler) HandleDetails(w http.ResponseWriter, r *http.Request) {
	profile, err := h.handles.GetUserDetails(r.Context(), chi.URLParam(r, "handle"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}
