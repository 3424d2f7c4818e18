package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/itzzjb/notes-api/internal/config"
	"github.com/itzzjb/notes-api/internal/crypto"
	"github.com/itzzjb/notes-api/internal/handler"
	"github.com/itzzjb/notes-api/internal/middleware"
	"github.com/itzzjb/notes-api/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	setupLogger(cfg)

	if err := run(cfg); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(cfg config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var h slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if cfg.Production() {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hasher, err := crypto.NewPasswordHasher(cfg.PasswordHash)
	if err != nil {
		return err
	}

	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	store, err := openStorage(connectCtx, cfg)
	cancel()
	if err != nil {
		return err
	}
	defer store.close()

	for _, job := range store.background {
		go job(ctx)
	}

	authService := service.NewAuthService(store.users, store.sessions, hasher)
	noteService := service.NewNoteService(store.notes)

	router := handler.NewRouter(authService, noteService, handler.RouterConfig{
		Cookie: middleware.SessionCookie{
			Name:   cfg.CookieName,
			Secret: cfg.SessionSecret,
			MaxAge: cfg.SessionTTL,
			Secure: cfg.Production(),
		},
		AllowedOrigins: cfg.AllowedOrigins,
		RequestTimeout: cfg.RequestTimeout,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting",
			"port", cfg.Port,
			"env", cfg.Env,
			"storage", cfg.StorageDriver,
			"sessions", cfg.SessionStore,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	slog.Info("server stopped")
	return nil
}
