package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/itzzjb/notes-api/internal/apperror"
	"github.com/itzzjb/notes-api/internal/middleware"
	"github.com/itzzjb/notes-api/internal/model"
	"github.com/itzzjb/notes-api/internal/service"
)

// NoteHandler handles HTTP requests for note operations. Routes are mounted
// behind middleware.RequireSession.
type NoteHandler struct {
	service *service.NoteService
}

// NewNoteHandler creates a new NoteHandler.
func NewNoteHandler(svc *service.NoteService) *NoteHandler {
	return &NoteHandler{service: svc}
}

// HandleList handles GET /api/notes requests.
func (h *NoteHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	notes, err := h.service.List(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, notes)
}

// HandleGet handles GET /api/notes/{id} requests.
func (h *NoteHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	note, err := h.service.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, note)
}

// HandleCreate handles POST /api/notes requests.
func (h *NoteHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.NoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	note, err := h.service.Create(r.Context(), userID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, note)
}

// HandleUpdate handles PATCH /api/notes/{id} requests.
func (h *NoteHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.NoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	note, err := h.service.Update(r.Context(), userID, chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, note)
}

// HandleDelete handles DELETE /api/notes/{id} requests.
func (h *NoteHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, r, apperror.NewAuthError("not authenticated"))
	}
	return userID, ok
}
