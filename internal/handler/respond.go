package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/itzzjb/notes-api/internal/apperror"
)

const maxBodyBytes = 1 << 20 // 1MB

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func errorResponse(msg string) apperror.ErrorResponse {
	return apperror.ErrorResponse{Error: msg}
}

// writeError maps a service error to its status code. Anything that is not
// an *apperror.AppError is logged and reported as a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if apperror.Is(err, apperror.Internal) {
		slog.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
			"request_id", chimw.GetReqID(r.Context()),
		)
	}
	appErr := apperror.From(err)
	writeJSON(w, appErr.StatusCode(), appErr.ToResponse())
}

// decodeJSON reads a size-limited JSON body into dst. An empty body leaves dst
// untouched so the service reports the missing fields. It writes the error
// response itself and returns false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse("request body too large"))
		return false
	}
	writeJSON(w, http.StatusBadRequest, errorResponse("invalid request body"))
	return false
}
