package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-sql-driver/mysql"
)

// MySQLStore keeps sessions in the sessions table. The table references
// users, so it only works alongside the MySQL user repository.
type MySQLStore struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// NewMySQLStore creates a MySQLStore.
func NewMySQLStore(db *sql.DB, ttl time.Duration) *MySQLStore {
	return &MySQLStore{db: db, ttl: ttl, now: time.Now}
}

// Create inserts a session row for userID and returns its token.
func (s *MySQLStore) Create(ctx context.Context, userID string) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}

	query := `INSERT INTO sessions (token, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)`

	now := s.now().UTC()
	if _, err := s.db.ExecContext(ctx, query, token, userID, now, now.Add(s.ttl)); err != nil {
		var myErr *mysql.MySQLError
		if errors.As(err, &myErr) && myErr.Number == 1062 {
			return "", ErrTokenCollision
		}
		return "", fmt.Errorf("saving session: %w", err)
	}

	return token, nil
}

// Get returns the owner of an unexpired session and extends its expiry.
func (s *MySQLStore) Get(ctx context.Context, token string) (string, bool, error) {
	now := s.now().UTC()

	var userID string
	query := `SELECT user_id FROM sessions WHERE token = ? AND expires_at > ?`
	if err := s.db.QueryRowContext(ctx, query, token, now).Scan(&userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("loading session: %w", err)
	}

	query = `UPDATE sessions SET expires_at = ? WHERE token = ?`
	if _, err := s.db.ExecContext(ctx, query, now.Add(s.ttl), token); err != nil {
		return "", false, fmt.Errorf("touching session: %w", err)
	}

	return userID, true, nil
}

// Destroy deletes the session row, if any.
func (s *MySQLStore) Destroy(ctx context.Context, token string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// PurgeExpired deletes sessions whose expiry has passed and returns how many
// were removed.
func (s *MySQLStore) PurgeExpired(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, s.now().UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// RunPurger calls PurgeExpired every interval until ctx is done.
func (s *MySQLStore) RunPurger(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.PurgeExpired(ctx)
			if err != nil {
				slog.Warn("purging expired sessions", "error", err)
				continue
			}
			if n > 0 {
				slog.Debug("purged expired sessions", "count", n)
			}
		}
	}
}
