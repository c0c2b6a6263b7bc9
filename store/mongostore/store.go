// Package mongostore persists profile records in a MongoDB collection keyed
// by identity ID.
package mongostore

import (
	"context"
	"errors"

	"github.com/goliatone/go-authgate"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// DefaultCollection is the collection used when none is given.
const DefaultCollection = "users"

// Store implements authgate.ProfileStore on MongoDB.
type Store struct {
	collection *mongo.Collection
}

var _ authgate.ProfileStore = (*Store)(nil)

// New creates a store backed by db.collection.
func New(db *mongo.Database, collection string) *Store {
	if collection == "" {
		collection = DefaultCollection
	}
	return &Store{collection: db.Collection(collection)}
}

// Connect dials uri and returns a client. Callers own Disconnect.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return client, nil
}

// EnsureIndexes creates the email lookup index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}},
	})
	return err
}

// Get implements authgate.ProfileStore.
func (s *Store) Get(ctx context.Context, id string) (*authgate.ProfileRecord, error) {
	result := s.collection.FindOne(ctx, bson.M{"_id": id})
	if err := result.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, authgate.ErrProfileNotFound
		}
		return nil, err
	}

	var record authgate.ProfileRecord
	if err := result.Decode(&record); err != nil {
		return nil, err
	}

	return &record, nil
}

// Create implements authgate.ProfileStore. The _id uniqueness makes the
// insert a create-if-absent.
func (s *Store) Create(ctx context.Context, record *authgate.ProfileRecord) error {
	if record == nil || record.ID == "" {
		return authgate.ErrIdentityRequired
	}

	if _, err := s.collection.InsertOne(ctx, record); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return authgate.ErrProfileExists
		}
		return err
	}
	return nil
}

// Update implements authgate.ProfileStore.
func (s *Store) Update(ctx context.Context, id string, update authgate.ProfileUpdate) error {
	set := setDocument(update)
	if len(set) == 0 {
		return nil
	}

	result, err := s.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}

	if result.MatchedCount == 0 {
		return authgate.ErrProfileNotFound
	}
	return nil
}

func setDocument(update authgate.ProfileUpdate) bson.M {
	set := bson.M{}
	for k, v := range update.Fields() {
		set[k] = v
	}
	return set
}
