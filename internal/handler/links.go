package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chankruze/liber/internal/service"
)

// LinkHandler serves /links.
type LinkHandler struct {
	links  *service.LinkService
	logger *slog.Logger
}

func NewLinkHandler(links *service.LinkService, logger *slog.Logger) *LinkHandler {
	return &LinkHandler{links: links, logger: logger}
}

// HTTP: POST /links
func (h *LinkHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in service.CreateLinkInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}

	created, err := h.links.Create(r.Context(), in, callerID(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// HandleList returns public links plus the caller's own.
//
// HTTP: GET /links
func (h *LinkHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	links, err := h.links.FindAll(r.Context(), callerID(r), opts)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, links)
}

// HTTP: GET /links/{id}
func (h *LinkHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	link, err := h.links.FindOne(r.Context(), chi.URLParam(r, "id"), callerID(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, link)
}

// HTTP: PATCH /links/{id}
func (h *LinkHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var in service.UpdateLinkInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if _, err := h.links.Update(r.Context(), chi.URLParam(r, "id"), in, callerID(r)); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, OKResponse{OK: true})
}

// HTTP: DELETE /links/{id}
func (h *LinkHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ok, err := h.links.Remove(r.Context(), chi.URLParam(r, "id"), callerID(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, OKResponse{OK: ok})
}

// HTTP: PATCH /links/{id}/f/{folderId}
func (h *LinkHandler) HandleAddToFolder(w http.ResponseWriter, r *http.Request) {
	err := h.links.AddToFolder(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "folderId"), callerID(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, OKResponse{OK: true})
}

// HTTP: DELETE /links/{id}/f/{folderId}
func (h *LinkHandler) HandleRemoveFromFolder(w http.ResponseWriter, r *http.Request) {
	err := h.links.RemoveFromFolder(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "folderId"), callerID(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, OKResponse{OK: true})
}

// HandleListPublic returns another user's public links.
//
// HTTP: GET /links/u/{userId}
func (h *LinkHandler) HandleListPublic(w http.ResponseWriter, r *http.Request) {
	links, err := h.links.GetPublicLinks(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, links)
}
