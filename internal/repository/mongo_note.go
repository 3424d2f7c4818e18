package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/itzzjb/notes-api/internal/model"
)

// noteDocument is the stored shape of a note.
type noteDocument struct {
	ID        primitive.ObjectID `bson:"_id"`
	UserID    primitive.ObjectID `bson:"userId"`
	Title     string             `bson:"title"`
	Text      *string            `bson:"text,omitempty"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d noteDocument) toModel() model.Note {
	return model.Note{
		ID:        d.ID.Hex(),
		UserID:    d.UserID.Hex(),
		Title:     d.Title,
		Text:      d.Text,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// MongoNoteRepository handles note persistence operations on MongoDB. Note
// IDs are ObjectID hex strings.
type MongoNoteRepository struct {
	coll *mongo.Collection
}

// NewMongoNoteRepository creates a new MongoNoteRepository.
func NewMongoNoteRepository(db *mongo.Database) *MongoNoteRepository {
	return &MongoNoteRepository{coll: db.Collection(notesCollection)}
}

// ValidID reports whether id is a 24 character hex ObjectID.
func (r *MongoNoteRepository) ValidID(id string) bool {
	return primitive.IsValidObjectID(id)
}

// List retrieves all notes of a user in creation order.
func (r *MongoNoteRepository) List(ctx context.Context, userID string) ([]model.Note, error) {
	owner, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return []model.Note{}, nil
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.D{{Key: "userId", Value: owner}}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []noteDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	notes := make([]model.Note, len(docs))
	for i, d := range docs {
		notes[i] = d.toModel()
	}
	return notes, nil
}

// Get retrieves a single note owned by userID.
func (r *MongoNoteRepository) Get(ctx context.Context, userID, id string) (*model.Note, error) {
	filter, ok := ownedNoteFilter(userID, id)
	if !ok {
		return nil, ErrNoteNotFound
	}

	var doc noteDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNoteNotFound
		}
		return nil, err
	}

	note := doc.toModel()
	return &note, nil
}

// Create inserts a new note and sets the generated ID on the note struct.
func (r *MongoNoteRepository) Create(ctx context.Context, note *model.Note) error {
	owner, err := primitive.ObjectIDFromHex(note.UserID)
	if err != nil {
		return err
	}

	doc := noteDocument{
		ID:        primitive.NewObjectID(),
		UserID:    owner,
		Title:     note.Title,
		Text:      note.Text,
		CreatedAt: note.CreatedAt,
		UpdatedAt: note.UpdatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return err
	}

	note.ID = doc.ID.Hex()
	return nil
}

// Update replaces title, text and updated timestamp of an existing note. A
// nil text removes the field.
func (r *MongoNoteRepository) Update(ctx context.Context, note *model.Note) error {
	filter, ok := ownedNoteFilter(note.UserID, note.ID)
	if !ok {
		return ErrNoteNotFound
	}

	set := bson.D{{Key: "title", Value: note.Title}, {Key: "updatedAt", Value: note.UpdatedAt}}
	update := bson.D{}
	if note.Text != nil {
		set = append(set, bson.E{Key: "text", Value: *note.Text})
	} else {
		update = append(update, bson.E{Key: "$unset", Value: bson.D{{Key: "text", Value: ""}}})
	}
	update = append(update, bson.E{Key: "$set", Value: set})

	result, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNoteNotFound
	}
	return nil
}

// Delete removes a note owned by userID.
func (r *MongoNoteRepository) Delete(ctx context.Context, userID, id string) error {
	filter, ok := ownedNoteFilter(userID, id)
	if !ok {
		return ErrNoteNotFound
	}

	result, err := r.coll.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNoteNotFound
	}
	return nil
}

func ownedNoteFilter(userID, id string) (bson.D, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, false
	}
	owner, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, false
	}
	return bson.D{{Key: "_id", Value: oid}, {Key: "userId", Value: owner}}, true
}
