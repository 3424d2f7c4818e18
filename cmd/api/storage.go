package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/itzzjb/notes-api/internal/config"
	"github.com/itzzjb/notes-api/internal/repository"
	"github.com/itzzjb/notes-api/internal/service"
	"github.com/itzzjb/notes-api/internal/session"
)

const sessionPurgeInterval = 10 * time.Minute

type storage struct {
	users      service.UserDirectory
	notes      service.NoteStore
	sessions   session.Store
	background []func(context.Context)
	closers    []func() error
}

func (s *storage) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			slog.Warn("closing storage", "error", err)
		}
	}
}

// openStorage connects the configured engines. On failure everything opened
// so far is closed again.
func openStorage(ctx context.Context, cfg config.Config) (_ *storage, err error) {
	st := &storage{}
	defer func() {
		if err != nil {
			st.close()
		}
	}()

	var (
		mongoDB *mongo.Database
		mysqlDB *sql.DB
	)

	switch cfg.StorageDriver {
	case config.DriverMongo:
		client, db, err := repository.NewMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, func() error { return client.Disconnect(context.Background()) })

		if err := repository.EnsureMongoIndexes(ctx, db); err != nil {
			return nil, err
		}
		mongoDB = db
		st.users = repository.NewMongoUserRepository(db)
		st.notes = repository.NewMongoNoteRepository(db)

	case config.DriverMySQL:
		db, err := repository.NewDB(cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, db.Close)

		if err := repository.EnsureSchema(ctx, db); err != nil {
			return nil, err
		}
		mysqlDB = db
		st.users = repository.NewMySQLUserRepository(db)
		st.notes = repository.NewMySQLNoteRepository(db)

	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}

	switch cfg.SessionStore {
	case config.DriverRedis:
		client, err := session.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, client.Close)
		st.sessions = session.NewRedisStore(client, cfg.SessionTTL)

	case config.DriverMongo:
		store := session.NewMongoStore(mongoDB, cfg.SessionTTL)
		if err := store.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		st.sessions = store

	case config.DriverMySQL:
		store := session.NewMySQLStore(mysqlDB, cfg.SessionTTL)
		st.sessions = store
		st.background = append(st.background, func(ctx context.Context) {
			store.RunPurger(ctx, sessionPurgeInterval)
		})

	default:
		return nil, fmt.Errorf("unsupported session store %q", cfg.SessionStore)
	}

	return st, nil
}
