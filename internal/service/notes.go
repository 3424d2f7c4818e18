package service

import (
	"context"
	"errors"
	"time"

	"github.com/itzzjb/notes-api/internal/apperror"
	"github.com/itzzjb/notes-api/internal/model"
	"github.com/itzzjb/notes-api/internal/repository"
)

const (
	msgInvalidID     = "invalid id"
	msgTitleRequired = "title required"
	msgNoteNotFound  = "note not found"
)

// NoteStore persists notes scoped by owner.
type NoteStore interface {
	ValidID(id string) bool
	List(ctx context.Context, userID string) ([]model.Note, error)
	Get(ctx context.Context, userID, id string) (*model.Note, error)
	Create(ctx context.Context, note *model.Note) error
	Update(ctx context.Context, note *model.Note) error
	Delete(ctx context.Context, userID, id string) error
}

// NoteService handles note business logic. Every operation acts on the notes
// of a single user; notes of other users behave as if they did not exist.
type NoteService struct {
	repo NoteStore
	now  func() time.Time
}

// NewNoteService creates a new NoteService.
func NewNoteService(repo NoteStore) *NoteService {
	return &NoteService{repo: repo, now: time.Now}
}

// List returns the user's notes in creation order.
func (s *NoteService) List(ctx context.Context, userID string) ([]model.Note, error) {
	notes, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, apperror.NewInternalError("listing notes", err)
	}
	return notes, nil
}

// Get returns a single note.
func (s *NoteService) Get(ctx context.Context, userID, id string) (model.Note, error) {
	if !s.repo.ValidID(id) {
		return model.Note{}, apperror.NewValidationError(msgInvalidID)
	}

	note, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return model.Note{}, noteError("loading note", err)
	}
	return *note, nil
}

// Create stores a new note. Both timestamps are set to the same instant.
func (s *NoteService) Create(ctx context.Context, userID string, req model.NoteRequest) (model.Note, error) {
	if req.Title == "" {
		return model.Note{}, apperror.NewValidationError(msgTitleRequired)
	}

	now := s.timestamp()
	note := model.Note{
		UserID:    userID,
		Title:     req.Title,
		Text:      req.Text,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, &note); err != nil {
		return model.Note{}, apperror.NewInternalError("creating note", err)
	}
	return note, nil
}

// Update replaces the title and text of a note. UpdatedAt always moves past
// CreatedAt, even when the clock has not.
func (s *NoteService) Update(ctx context.Context, userID, id string, req model.NoteRequest) (model.Note, error) {
	if !s.repo.ValidID(id) {
		return model.Note{}, apperror.NewValidationError(msgInvalidID)
	}
	if req.Title == "" {
		return model.Note{}, apperror.NewValidationError(msgTitleRequired)
	}

	note, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return model.Note{}, noteError("loading note", err)
	}

	updatedAt := s.timestamp()
	if floor := note.CreatedAt.Add(time.Millisecond); updatedAt.Before(floor) {
		updatedAt = floor
	}

	note.Title = req.Title
	note.Text = req.Text
	note.UpdatedAt = updatedAt
	if err := s.repo.Update(ctx, note); err != nil {
		return model.Note{}, noteError("updating note", err)
	}
	return *note, nil
}

// Delete removes a note.
func (s *NoteService) Delete(ctx context.Context, userID, id string) error {
	if !s.repo.ValidID(id) {
		return apperror.NewValidationError(msgInvalidID)
	}

	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return noteError("deleting note", err)
	}
	return nil
}

// timestamp is the current time at the precision both engines store.
func (s *NoteService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

func noteError(op string, err error) error {
	if errors.Is(err, repository.ErrNoteNotFound) {
		return apperror.NewNotFoundError(msgNoteNotFound)
	}
	return apperror.NewInternalError(op, err)
}
