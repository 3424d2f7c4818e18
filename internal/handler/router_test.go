package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itzzjb/notes-api/internal/middleware"
	"github.com/itzzjb/notes-api/internal/model"
	"github.com/itzzjb/notes-api/internal/repository"
	"github.com/itzzjb/notes-api/internal/service"
)

type memUsers struct {
	mu    sync.Mutex
	users []model.User
}

func (m *memUsers) find(match func(model.User) bool, vis model.Visibility) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if match(u) {
			if vis != model.WithCredentials {
				u = u.Public()
			}
			return &u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *memUsers) FindByID(_ context.Context, id string, vis model.Visibility) (*model.User, error) {
	return m.find(func(u model.User) bool { return u.ID == id }, vis)
}

func (m *memUsers) FindByUsername(_ context.Context, name string, vis model.Visibility) (*model.User, error) {
	return m.find(func(u model.User) bool { return u.Username == name }, vis)
}

func (m *memUsers) FindByEmail(_ context.Context, email string, vis model.Visibility) (*model.User, error) {
	return m.find(func(u model.User) bool { return u.Email == email }, vis)
}

func (m *memUsers) Create(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user.ID = fmt.Sprintf("u%d", len(m.users)+1)
	m.users = append(m.users, *user)
	return nil
}

type memSessions struct {
	mu     sync.Mutex
	tokens map[string]string
}

func (m *memSessions) Create(_ context.Context, userID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token := fmt.Sprintf("tok-%d", len(m.tokens)+1)
	m.tokens[token] = userID
	return token, nil
}

func (m *memSessions) Get(_ context.Context, token string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.tokens[token]
	return id, ok, nil
}

func (m *memSessions) Destroy(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, token)
	return nil
}

type memNotes struct {
	mu    sync.Mutex
	notes []model.Note
	seq   int
}

func (m *memNotes) ValidID(id string) bool {
	return strings.HasPrefix(id, "n") && len(id) > 1 && strings.Trim(id[1:], "0123456789") == ""
}

func (m *memNotes) List(_ context.Context, userID string) ([]model.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Note{}
	for _, n := range m.notes {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *memNotes) Get(_ context.Context, userID, id string) (*model.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.notes {
		if n.ID == id && n.UserID == userID {
			return &n, nil
		}
	}
	return nil, repository.ErrNoteNotFound
}

func (m *memNotes) Create(_ context.Context, note *model.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	note.ID = fmt.Sprintf("n%d", m.seq)
	m.notes = append(m.notes, *note)
	return nil
}

func (m *memNotes) Update(_ context.Context, note *model.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, n := range m.notes {
		if n.ID == note.ID && n.UserID == note.UserID {
			m.notes[i] = *note
			return nil
		}
	}
	return repository.ErrNoteNotFound
}

func (m *memNotes) Delete(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, n := range m.notes {
		if n.ID == id && n.UserID == userID {
			m.notes = append(m.notes[:i], m.notes[i+1:]...)
			return nil
		}
	}
	return repository.ErrNoteNotFound
}

type plainHasher struct{}

func (plainHasher) Hash(pw string) (string, error) { return "h:" + pw, nil }
func (plainHasher) Verify(pw, digest string) bool { return digest == "h:"+pw }

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	auth := service.NewAuthService(&memUsers{}, &memSessions{tokens: map[string]string{}}, plainHasher{})
	notes := service.NewNoteService(&memNotes{})

	srv := httptest.NewServer(NewRouter(auth, notes, RouterConfig{
		Cookie:         middleware.SessionCookie{Name: "sid", Secret: "test-secret", MaxAge: time.Hour},
		AllowedOrigins: []string{"http://localhost:3000"},
		RequestTimeout: 5 * time.Second,
	}))
	t.Cleanup(srv.Close)
	return srv
}

// client keeps cookies between requests like a browser.
type client struct {
	t      *testing.T
	base   string
	cookie []*http.Cookie
}

func (c *client) do(method, path string, body any) (*http.Response, map[string]any) {
	c.t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(c.t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.base+path, reader)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	for _, ck := range c.cookie {
		req.AddCookie(ck)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	if set := resp.Cookies(); len(set) > 0 {
		c.cookie = nil
		for _, ck := range set {
			if ck.MaxAge >= 0 && ck.Value != "" {
				c.cookie = append(c.cookie, ck)
			}
		}
	}

	var out map[string]any
	if resp.StatusCode != http.StatusNoContent && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		var raw json.RawMessage
		require.NoError(c.t, json.NewDecoder(resp.Body).Decode(&raw))
		if len(raw) > 0 && raw[0] == '{' {
			require.NoError(c.t, json.Unmarshal(raw, &out))
		} else {
			out = map[string]any{"list": raw}
		}
	}
	return resp, out
}

func newClient(t *testing.T, srv *httptest.Server) *client {
	return &client{t: t, base: srv.URL}
}

func TestSignupConflictScenario(t *testing.T) {
	srv := newTestServer(t)
	alice := newClient(t, srv)

	resp, body := alice.do(http.MethodPost, "/api/users/signup", map[string]string{
		"username": "alice", "email": "a@x.com", "password": "pw1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "alice", body["username"])
	assert.NotEmpty(t, body["_id"])
	assert.NotContains(t, body, "email")
	assert.NotContains(t, body, "password")
	require.Len(t, alice.cookie, 1)
	assert.True(t, alice.cookie[0].HttpOnly)

	other := newClient(t, srv)
	resp, body = other.do(http.MethodPost, "/api/users/signup", map[string]string{
		"username": "alice", "email": "b@x.com", "password": "pw2",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "username taken", body["error"])

	resp, body = other.do(http.MethodPost, "/api/users/signup", map[string]string{"username": "bob"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Parameters missing", body["error"])
}

func TestSessionLifecycle(t *testing.T) {
	srv := newTestServer(t)
	c := newClient(t, srv)

	resp, body := c.do(http.MethodGet, "/api/users", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "not authenticated", body["error"])

	resp, _ = c.do(http.MethodPost, "/api/users/signup", map[string]string{
		"username": "alice", "email": "a@x.com", "password": "pw1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body = c.do(http.MethodGet, "/api/users", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "alice", body["username"])

	resp, _ = c.do(http.MethodPost, "/api/users/logout", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Empty(t, c.cookie)

	resp, _ = c.do(http.MethodPost, "/api/users/logout", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = c.do(http.MethodPost, "/api/users/login", map[string]string{"username": "alice", "password": "bad"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "invalid credentials", body["error"])

	resp, body = c.do(http.MethodPost, "/api/users/login", map[string]string{"username": "nobody", "password": "pw1"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "invalid credentials", body["error"])

	resp, body = c.do(http.MethodPost, "/api/users/login", map[string]string{"username": "alice", "password": "pw1"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "alice", body["username"])
	assert.Len(t, c.cookie, 1)
}

func TestNoteScenario(t *testing.T) {
	srv := newTestServer(t)
	c := newClient(t, srv)

	resp, body := c.do(http.MethodPost, "/api/notes", map[string]string{"title": "T"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "not authenticated", body["error"])

	resp, _ = c.do(http.MethodPost, "/api/users/signup", map[string]string{
		"username": "alice", "email": "a@x.com", "password": "pw1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body = c.do(http.MethodPost, "/api/notes", map[string]string{"title": "T"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "T", body["title"])
	assert.NotContains(t, body, "text")
	assert.Equal(t, body["createdAt"], body["updatedAt"])
	id := body["_id"].(string)

	resp, body = c.do(http.MethodPatch, "/api/notes/"+id, map[string]string{"title": "T2"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "T2", body["title"])

	created, err := time.Parse(time.RFC3339Nano, body["createdAt"].(string))
	require.NoError(t, err)
	updated, err := time.Parse(time.RFC3339Nano, body["updatedAt"].(string))
	require.NoError(t, err)
	assert.True(t, updated.After(created))

	resp, body = c.do(http.MethodGet, "/api/notes/not-an-id", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid id", body["error"])

	resp, body = c.do(http.MethodGet, "/api/notes/n999", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "note not found", body["error"])

	resp, body = c.do(http.MethodPost, "/api/notes", map[string]string{"text": "no title"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "title required", body["error"])

	resp, body = c.do(http.MethodPost, "/api/notes", "{not json")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid request body", body["error"])

	resp, body = c.do(http.MethodGet, "/api/notes", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []model.Note
	require.NoError(t, json.Unmarshal(body["list"].(json.RawMessage), &list))
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)

	resp, _ = c.do(http.MethodDelete, "/api/notes/"+id, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = c.do(http.MethodDelete, "/api/notes/"+id, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestNotesAreOwnerScoped(t *testing.T) {
	srv := newTestServer(t)
	alice := newClient(t, srv)
	bob := newClient(t, srv)

	alice.do(http.MethodPost, "/api/users/signup", map[string]string{"username": "alice", "email": "a@x.com", "password": "pw"})
	bob.do(http.MethodPost, "/api/users/signup", map[string]string{"username": "bob", "email": "b@x.com", "password": "pw"})

	resp, body := alice.do(http.MethodPost, "/api/notes", map[string]string{"title": "private"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := body["_id"].(string)

	resp, _ = bob.do(http.MethodGet, "/api/notes/"+id, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = bob.do(http.MethodDelete, "/api/notes/"+id, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = alice.do(http.MethodGet, "/api/notes/"+id, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRequestBodyTooLarge(t *testing.T) {
	srv := newTestServer(t)
	c := newClient(t, srv)

	big := `{"username":"` + strings.Repeat("a", maxBodyBytes+1) + `"}`
	resp, body := c.do(http.MethodPost, "/api/users/signup", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	assert.Equal(t, "request body too large", body["error"])
}

func TestHealthAndUnknownRoute(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	c := newClient(t, srv)
	resp, body := c.do(http.MethodGet, "/api/nothing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "endpoint not found", body["error"])
}
