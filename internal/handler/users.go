package handler

import (
	"net/http"

	"github.com/itzzjb/notes-api/internal/apperror"
	"github.com/itzzjb/notes-api/internal/middleware"
	"github.com/itzzjb/notes-api/internal/model"
	"github.com/itzzjb/notes-api/internal/service"
)

// UserHandler handles HTTP requests for accounts and sessions.
type UserHandler struct {
	service *service.AuthService
	cookie  middleware.SessionCookie
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc *service.AuthService, cookie middleware.SessionCookie) *UserHandler {
	return &UserHandler{service: svc, cookie: cookie}
}

// HandleMe handles GET /api/users requests.
func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	token := h.cookie.Token(r)

	user, err := h.service.GetAuthenticatedUser(r.Context(), token)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.cookie.Write(w, token); err != nil {
		writeError(w, r, apperror.NewInternalError("refreshing session cookie", err))
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleSignup handles POST /api/users/signup requests.
func (h *UserHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req model.SignupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, token, err := h.service.Signup(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.startSession(w, r, user, token)
}

// HandleLogin handles POST /api/users/login requests.
func (h *UserHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, token, err := h.service.Login(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.startSession(w, r, user, token)
}

// HandleLogout handles POST /api/users/logout requests.
func (h *UserHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.service.Logout(r.Context(), h.cookie.Token(r))
	h.cookie.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) startSession(w http.ResponseWriter, r *http.Request, user model.User, token string) {
	if err := h.cookie.Write(w, token); err != nil {
		h.service.Logout(r.Context(), token)
		writeError(w, r, apperror.NewInternalError("writing session cookie", err))
		return
	}
	writeJSON(w, http.StatusCreated, user)
}
