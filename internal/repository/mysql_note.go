package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/itzzjb/notes-api/internal/model"
)

const noteColumns = `id, user_id, title, text, created_at, updated_at`

// MySQLNoteRepository handles note persistence operations on MySQL. Note IDs
// are UUIDs; insertion order is kept by an auto-increment sequence column.
type MySQLNoteRepository struct {
	db *sql.DB
}

// NewMySQLNoteRepository creates a new MySQLNoteRepository.
func NewMySQLNoteRepository(db *sql.DB) *MySQLNoteRepository {
	return &MySQLNoteRepository{db: db}
}

// ValidID reports whether id is a canonical UUID string.
func (r *MySQLNoteRepository) ValidID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

// List retrieves all notes of a user in creation order.
func (r *MySQLNoteRepository) List(ctx context.Context, userID string) ([]model.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes WHERE user_id = ? ORDER BY seq ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := []model.Note{}
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, *note)
	}

	return notes, rows.Err()
}

// Get retrieves a single note owned by userID.
func (r *MySQLNoteRepository) Get(ctx context.Context, userID, id string) (*model.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes WHERE id = ? AND user_id = ?`

	note, err := scanNote(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoteNotFound
		}
		return nil, err
	}

	return note, nil
}

// Create inserts a new note and sets the generated ID on the note struct.
func (r *MySQLNoteRepository) Create(ctx context.Context, note *model.Note) error {
	query := `INSERT INTO notes (` + noteColumns + `) VALUES (?, ?, ?, ?, ?, ?)`

	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx, query,
		id,
		note.UserID,
		note.Title,
		nullString(note.Text),
		note.CreatedAt,
		note.UpdatedAt,
	)
	if err != nil {
		return err
	}

	note.ID = id
	return nil
}

// Update replaces title, text and updated timestamp of an existing note.
func (r *MySQLNoteRepository) Update(ctx context.Context, note *model.Note) error {
	query := `UPDATE notes SET title = ?, text = ?, updated_at = ? WHERE id = ? AND user_id = ?`

	result, err := r.db.ExecContext(ctx, query,
		note.Title,
		nullString(note.Text),
		note.UpdatedAt,
		note.ID,
		note.UserID,
	)
	if err != nil {
		return err
	}

	return expectOneRow(result, ErrNoteNotFound)
}

// Delete removes a note owned by userID.
func (r *MySQLNoteRepository) Delete(ctx context.Context, userID, id string) error {
	query := `DELETE FROM notes WHERE id = ? AND user_id = ?`

	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return err
	}

	return expectOneRow(result, ErrNoteNotFound)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (*model.Note, error) {
	var (
		note model.Note
		text sql.NullString
	)
	if err := row.Scan(&note.ID, &note.UserID, &note.Title, &text, &note.CreatedAt, &note.UpdatedAt); err != nil {
		return nil, err
	}
	if text.Valid {
		note.Text = &text.String
	}
	return &note, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func expectOneRow(result sql.Result, notFound error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return notFound
	}
	return nil
}
