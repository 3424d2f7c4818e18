package repository

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection = "users"
	notesCollection = "notes"

	usernameIndex = "username_unique"
	emailIndex    = "email_unique"
)

// NewMongo connects to MongoDB and returns the client with a handle on the
// application database.
func NewMongo(ctx context.Context, uri, database string) (*mongo.Client, *mongo.Database, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("pinging mongodb: %w", err)
	}

	return client, client.Database(database), nil
}

// EnsureMongoIndexes creates the unique user indexes and the note owner
// index. Uniqueness of username and email is enforced here; the service
// layer check is best-effort only.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(usersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(usernameIndex),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(emailIndex),
		},
	})
	if err != nil {
		return fmt.Errorf("creating user indexes: %w", err)
	}

	_, err = db.Collection(notesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: 1}},
		Options: options.Index().SetName("owner_created"),
	})
	if err != nil {
		return fmt.Errorf("creating note indexes: %w", err)
	}

	slog.Info("mongodb indexes ready", "database", db.Name())
	return nil
}

// duplicateIndexName returns the index named in a duplicate key error, e.g.
// "username_unique" from "E11000 ... index: username_unique dup key: {...}".
func duplicateIndexName(err error) string {
	const marker = "index: "
	msg := err.Error()
	i := strings.Index(msg, marker)
	if i < 0 {
		return ""
	}
	name, _, _ := strings.Cut(msg[i+len(marker):], " ")
	return name
}
