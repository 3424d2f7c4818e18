package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/itzzjb/notes-api/internal/model"
	"github.com/itzzjb/notes-api/internal/repository"
)

type fakeUsers struct {
	mu      sync.Mutex
	byID    map[string]model.User
	nextID  int
	failErr error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[string]model.User{}}
}

func (f *fakeUsers) find(match func(model.User) bool, vis model.Visibility) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return nil, f.failErr
	}
	for _, u := range f.byID {
		if match(u) {
			if vis != model.WithCredentials {
				u = u.Public()
			}
			return &u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (f *fakeUsers) FindByID(_ context.Context, id string, vis model.Visibility) (*model.User, error) {
	return f.find(func(u model.User) bool { return u.ID == id }, vis)
}

func (f *fakeUsers) FindByUsername(_ context.Context, username string, vis model.Visibility) (*model.User, error) {
	return f.find(func(u model.User) bool { return u.Username == username }, vis)
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string, vis model.Visibility) (*model.User, error) {
	return f.find(func(u model.User) bool { return u.Email == email }, vis)
}

func (f *fakeUsers) Create(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Username == user.Username {
			return repository.ErrDuplicateUsername
		}
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	f.nextID++
	user.ID = fmt.Sprintf("user-%d", f.nextID)
	f.byID[user.ID] = *user
	return nil
}

// plainHasher prefixes the password so tests can tell digests from input.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

func (plainHasher) Verify(password, digest string) bool {
	return strings.TrimPrefix(digest, "hashed:") == password && strings.HasPrefix(digest, "hashed:")
}

type fakeSessions struct {
	mu         sync.Mutex
	tokens     map[string]string
	next       int
	gets       int
	destroyErr error
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{tokens: map[string]string{}}
}

func (f *fakeSessions) Create(_ context.Context, userID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	token := fmt.Sprintf("token-%d", f.next)
	f.tokens[token] = userID
	return token, nil
}

func (f *fakeSessions) Get(_ context.Context, token string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	userID, ok := f.tokens[token]
	return userID, ok, nil
}

func (f *fakeSessions) Destroy(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tokens, token)
	return f.destroyErr
}

// fakeNotes keys notes by a short numeric id; ids must look like "n<digits>".
type fakeNotes struct {
	mu    sync.Mutex
	notes []model.Note
	next  int
	calls int
}

func (f *fakeNotes) ValidID(id string) bool {
	if len(id) < 2 || id[0] != 'n' {
		return false
	}
	for _, c := range id[1:] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func (f *fakeNotes) index(userID, id string) int {
	for i, n := range f.notes {
		if n.ID == id && n.UserID == userID {
			return i
		}
	}
	return -1
}

func (f *fakeNotes) List(_ context.Context, userID string) ([]model.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	out := []model.Note{}
	for _, n := range f.notes {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeNotes) Get(_ context.Context, userID, id string) (*model.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	i := f.index(userID, id)
	if i < 0 {
		return nil, repository.ErrNoteNotFound
	}
	n := f.notes[i]
	return &n, nil
}

func (f *fakeNotes) Create(_ context.Context, note *model.Note) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.next++
	note.ID = fmt.Sprintf("n%d", f.next)
	f.notes = append(f.notes, *note)
	return nil
}

func (f *fakeNotes) Update(_ context.Context, note *model.Note) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	i := f.index(note.UserID, note.ID)
	if i < 0 {
		return repository.ErrNoteNotFound
	}
	f.notes[i] = *note
	return nil
}

func (f *fakeNotes) Delete(_ context.Context, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	i := f.index(userID, id)
	if i < 0 {
		return repository.ErrNoteNotFound
	}
	f.notes = append(f.notes[:i], f.notes[i+1:]...)
	return nil
}
