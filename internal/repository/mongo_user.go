package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/itzzjb/notes-api/internal/model"
)

// userDocument is the stored shape of a user.
type userDocument struct {
	ID       primitive.ObjectID `bson:"_id"`
	Username string             `bson:"username"`
	Email    string             `bson:"email,omitempty"`
	Password string             `bson:"password,omitempty"`
}

func (d userDocument) toModel() *model.User {
	return &model.User{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.Password,
	}
}

// hiddenUserFields is the projection applied to public lookups.
var hiddenUserFields = bson.D{{Key: "email", Value: 0}, {Key: "password", Value: 0}}

// MongoUserRepository handles user persistence operations on MongoDB.
type MongoUserRepository struct {
	coll *mongo.Collection
}

// NewMongoUserRepository creates a new MongoUserRepository.
func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{coll: db.Collection(usersCollection)}
}

// Create inserts a new user and sets the generated ID on the user struct.
func (r *MongoUserRepository) Create(ctx context.Context, user *model.User) error {
	doc := userDocument{
		ID:       primitive.NewObjectID(),
		Username: user.Username,
		Email:    user.Email,
		Password: user.PasswordHash,
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			if duplicateIndexName(err) == usernameIndex {
				return ErrDuplicateUsername
			}
			return ErrDuplicateEmail
		}
		return err
	}

	user.ID = doc.ID.Hex()
	return nil
}

// FindByID retrieves a user by their ID. A malformed ID matches no user.
func (r *MongoUserRepository) FindByID(ctx context.Context, id string, vis model.Visibility) (*model.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return r.findOne(ctx, bson.D{{Key: "_id", Value: oid}}, vis)
}

// FindByUsername retrieves a user by exact, case-sensitive username.
func (r *MongoUserRepository) FindByUsername(ctx context.Context, username string, vis model.Visibility) (*model.User, error) {
	return r.findOne(ctx, bson.D{{Key: "username", Value: username}}, vis)
}

// FindByEmail retrieves a user by exact, case-sensitive email.
func (r *MongoUserRepository) FindByEmail(ctx context.Context, email string, vis model.Visibility) (*model.User, error) {
	return r.findOne(ctx, bson.D{{Key: "email", Value: email}}, vis)
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.D, vis model.Visibility) (*model.User, error) {
	opts := options.FindOne()
	if vis != model.WithCredentials {
		opts.SetProjection(hiddenUserFields)
	}

	var doc userDocument
	if err := r.coll.FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return doc.toModel(), nil
}
