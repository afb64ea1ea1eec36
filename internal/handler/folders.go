package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chankruze/liber/internal/service"
)

// FolderHandler serves /folders.
type FolderHandler struct {
	folders *service.FolderService
	logger  *slog.Logger
}

func NewFolderHandler(folders *service.FolderService, logger *slog.Logger) *FolderHandler {
	return &FolderHandler{folders: folders, logger: logger}
}

// HTTP: POST /folders
func (h *FolderHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in service.CreateFolderInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}

	created, err := h.folders.Create(r.Context(), in, callerID(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// HTTP: GET /folders
func (h *FolderHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	folders, err := h.folders.FindAll(r.Context(), callerID(r), opts)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, folders)
}

// HTTP: GET /folders/{id}
func (h *FolderHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	folder, err := h.folders.FindOne(r.Context(), chi.URLParam(r, "id"), callerID(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, folder)
}

// HTTP: PATCH /folders/{id}
func (h *FolderHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var in service.UpdateFolderInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if _, err := h.folders.Update(r.Context(), chi.URLParam(r, "id"), in, callerID(r)); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, OKResponse{OK: true})
}

// HTTP: DELETE /folders/{id}
func (h *FolderHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ok, err := h.folders.Remove(r.Context(), chi.URLParam(r, "id"), callerID(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, OKResponse{OK: ok})
}

// HandleListByOwner lists a user's folders; private ones only for the owner.
//
// HTTP: GET /folders/u/{ownerId} (optional auth)
func (h *FolderHandler) HandleListByOwner(w http.ResponseWriter, r *http.Request) {
	folders, err := h.folders.GetAllFolders(r.Context(), chi.URLParam(r, "ownerId"), callerID(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, folders)
}

// HandleListLinks lists the links in a folder as seen by the caller.
//
// HTTP: GET /folders/{id}/links (optional auth)
func (h *FolderHandler) HandleListLinks(w http.ResponseWriter, r *http.Request) {
	links, err := h.folders.GetAllLinksInFolder(r.Context(), chi.URLParam(r, "id"), callerID(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, links)
}
