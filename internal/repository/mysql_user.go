package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/itzzjb/notes-api/internal/model"
)

// MySQLUserRepository handles user persistence operations on MySQL.
type MySQLUserRepository struct {
	db *sql.DB
}

// NewMySQLUserRepository creates a new MySQLUserRepository.
func NewMySQLUserRepository(db *sql.DB) *MySQLUserRepository {
	return &MySQLUserRepository{db: db}
}

// Create inserts a new user and sets the generated ID on the user struct.
func (r *MySQLUserRepository) Create(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (id, username, email, password_hash) VALUES (?, ?, ?, ?)`

	id := uuid.NewString()
	if _, err := r.db.ExecContext(ctx, query, id, user.Username, user.Email, user.PasswordHash); err != nil {
		if key, ok := isDuplicateEntryError(err); ok {
			if strings.HasSuffix(key, "uq_users_username") {
				return ErrDuplicateUsername
			}
			return ErrDuplicateEmail
		}
		return err
	}

	user.ID = id
	return nil
}

// FindByID retrieves a user by their ID.
func (r *MySQLUserRepository) FindByID(ctx context.Context, id string, vis model.Visibility) (*model.User, error) {
	return r.findOne(ctx, "id", id, vis)
}

// FindByUsername retrieves a user by exact, case-sensitive username.
func (r *MySQLUserRepository) FindByUsername(ctx context.Context, username string, vis model.Visibility) (*model.User, error) {
	return r.findOne(ctx, "username", username, vis)
}

// FindByEmail retrieves a user by exact, case-sensitive email.
func (r *MySQLUserRepository) FindByEmail(ctx context.Context, email string, vis model.Visibility) (*model.User, error) {
	return r.findOne(ctx, "email", email, vis)
}

// findOne only reads the hidden columns when vis asks for them. column is
// always one of the constants above.
func (r *MySQLUserRepository) findOne(ctx context.Context, column, value string, vis model.Visibility) (*model.User, error) {
	user := &model.User{}
	columns := "id, username"
	dest := []any{&user.ID, &user.Username}
	if vis == model.WithCredentials {
		columns += ", email, password_hash"
		dest = append(dest, &user.Email, &user.PasswordHash)
	}

	query := `SELECT ` + columns + ` FROM users WHERE ` + column + ` = ?`

	if err := r.db.QueryRowContext(ctx, query, value).Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return user, nil
}
