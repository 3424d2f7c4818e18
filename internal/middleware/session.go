package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/itzzjb/notes-api/internal/apperror"
	"github.com/itzzjb/notes-api/internal/crypto"
)

type contextKey string

const userIDKey contextKey = "userID"

// SessionCookie reads and writes the signed session cookie.
type SessionCookie struct {
	Name   string
	Secret string
	MaxAge time.Duration
	Secure bool
}

// Token returns the session token carried by the request cookie, or "" when
// the cookie is missing or its signature does not verify.
func (c SessionCookie) Token(r *http.Request) string {
	cookie, err := r.Cookie(c.Name)
	if err != nil || cookie.Value == "" {
		return ""
	}
	token, err := crypto.ParseSessionToken(cookie.Value, c.Secret)
	if err != nil {
		return ""
	}
	return token
}

// Write sets the cookie for token with a full MaxAge.
func (c SessionCookie) Write(w http.ResponseWriter, token string) error {
	value, err := crypto.SignSessionToken(token, c.Secret)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(c.MaxAge / time.Second),
		Expires:  time.Now().Add(c.MaxAge),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear tells the client to drop the cookie.
func (c SessionCookie) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Authenticator resolves a session token to a user id.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (string, error)
}

// RequireSession rejects requests without a live session. On success the
// cookie is re-issued so its lifetime follows the server-side expiry, and the
// user id is stored in the request context.
func RequireSession(cookie SessionCookie, auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := cookie.Token(r)

			userID, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				if apperror.Is(err, apperror.Internal) {
					slog.Error("authenticating request",
						"error", err,
						"request_id", chimw.GetReqID(r.Context()),
					)
				}
				appErr := apperror.From(err)
				writeJSONError(w, appErr.StatusCode(), appErr.ToResponse().Error)
				return
			}

			if err := cookie.Write(w, token); err != nil {
				slog.Warn("refreshing session cookie", "error", err)
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext extracts the authenticated user ID from the request context.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(apperror.ErrorResponse{Error: msg})
}
