package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/itzzjb/notes-api/internal/middleware"
	"github.com/itzzjb/notes-api/internal/service"
)

// RouterConfig holds the HTTP settings of the API.
type RouterConfig struct {
	Cookie         middleware.SessionCookie
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// NewRouter builds the HTTP handler with every route of the API.
func NewRouter(auth *service.AuthService, notes *service.NoteService, cfg RouterConfig) http.Handler {
	userHandler := NewUserHandler(auth, cfg.Cookie)
	noteHandler := NewNoteHandler(notes)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger)
	r.Use(chimw.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(chimw.Timeout(cfg.RequestTimeout))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Route("/api/users", func(r chi.Router) {
		r.Get("/", userHandler.HandleMe)
		r.Post("/signup", userHandler.HandleSignup)
		r.Post("/login", userHandler.HandleLogin)
		r.Post("/logout", userHandler.HandleLogout)
	})

	r.Route("/api/notes", func(r chi.Router) {
		r.Use(middleware.RequireSession(cfg.Cookie, auth))
		r.Get("/", noteHandler.HandleList)
		r.Post("/", noteHandler.HandleCreate)
		r.Get("/{id}", noteHandler.HandleGet)
		r.Patch("/{id}", noteHandler.HandleUpdate)
		r.Delete("/{id}", noteHandler.HandleDelete)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse("endpoint not found"))
	})

	return r
}
