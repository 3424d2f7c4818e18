// Package session keeps server-side login sessions. A session maps an opaque
// token to a user id and expires after a sliding period of inactivity.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/itzzjb/notes-api/internal/crypto"
)

// ErrTokenCollision is returned by Create when a freshly generated token is
// already in use.
var ErrTokenCollision = errors.New("session token collision")

// Store is implemented by every session backend. Implementations are safe for
// concurrent use.
type Store interface {
	// Create starts a session for userID and returns its token.
	Create(ctx context.Context, userID string) (string, error)
	// Get returns the user id bound to token and pushes the expiry forward.
	// ok is false when the token is unknown or expired.
	Get(ctx context.Context, token string) (userID string, ok bool, err error)
	// Destroy removes the session. Unknown tokens are not an error.
	Destroy(ctx context.Context, token string) error
}

// record is the value persisted per session.
type record struct {
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

var newToken = crypto.NewSessionToken
