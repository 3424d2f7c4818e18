package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const sessionsCollection = "sessions"

type mongoSession struct {
	Token     string    `bson:"_id"`
	UserID    string    `bson:"userId"`
	CreatedAt time.Time `bson:"createdAt"`
	ExpiresAt time.Time `bson:"expiresAt"`
}

// MongoStore keeps sessions in a collection keyed by token. Expired documents
// are ignored on read and removed by a TTL index.
type MongoStore struct {
	coll *mongo.Collection
	ttl  time.Duration
	now  func() time.Time
}

// NewMongoStore creates a MongoStore on the sessions collection of db.
func NewMongoStore(db *mongo.Database, ttl time.Duration) *MongoStore {
	return &MongoStore{coll: db.Collection(sessionsCollection), ttl: ttl, now: time.Now}
}

// EnsureIndexes creates the TTL index on expiresAt.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expiresAt", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0).SetName("expires_ttl"),
	})
	if err != nil {
		return fmt.Errorf("creating session ttl index: %w", err)
	}
	return nil
}

// Create inserts a session document for userID and returns its token.
func (s *MongoStore) Create(ctx context.Context, userID string) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}

	now := s.now().UTC()
	_, err = s.coll.InsertOne(ctx, mongoSession{
		Token:     token,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", ErrTokenCollision
		}
		return "", fmt.Errorf("saving session: %w", err)
	}

	return token, nil
}

// Get returns the owner of a live session and pushes its expiry forward.
func (s *MongoStore) Get(ctx context.Context, token string) (string, bool, error) {
	now := s.now().UTC()
	filter := bson.D{
		{Key: "_id", Value: token},
		{Key: "expiresAt", Value: bson.D{{Key: "$gt", Value: now}}},
	}
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "expiresAt", Value: now.Add(s.ttl)}}}}

	var doc mongoSession
	if err := s.coll.FindOneAndUpdate(ctx, filter, update).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("loading session: %w", err)
	}

	return doc.UserID, true, nil
}

// Destroy deletes the session document. Unknown tokens are not an error.
func (s *MongoStore) Destroy(ctx context.Context, token string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: token}}); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}
