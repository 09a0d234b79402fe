package enrollment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domain "barreltech/internal/domain/enrollment"
)

// CollectionName is the document collection holding one document per submission.
const CollectionName = "enrollments"

// ErrMongoNotConfigured is returned when no MongoDB client was supplied.
var ErrMongoNotConfigured = errors.New("document store not configured")

type mongoStore struct {
	coll  *mongo.Collection
	newID func() string
}

// NewMongoStore returns a Store writing to database.enrollments.
// A nil client yields a Store whose Persist always fails with ErrMongoNotConfigured.
func NewMongoStore(client *mongo.Client, database string) Store {
	s := &mongoStore{newID: func() string { return uuid.New().String() }}
	if client != nil {
		s.coll = client.Database(database).Collection(CollectionName)
	}
	return s
}

func (s *mongoStore) Name() string { return domain.BackendMongo }

// insertDocument builds the upsert update for a new submission.
// $currentDate makes the server assign the timestamp.
func insertDocument(e domain.Enrollment) bson.M {
	return bson.M{
		"$setOnInsert": bson.M{
			"fullName": e.FullName,
			"email":    e.Email,
			"course":   e.Course,
		},
		"$currentDate": bson.M{"date": true},
	}
}

// Persist upserts a document keyed by a fresh id. The id is not surfaced.
// PRE: store was built with a non-nil client
// POST: one document inserted; Receipt.HasID is false
func (s *mongoStore) Persist(ctx context.Context, e domain.Enrollment) (domain.Receipt, error) {
	if s.coll == nil {
		return domain.Receipt{}, ErrMongoNotConfigured
	}
	id := s.newID()
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		insertDocument(e),
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("enrollment document insert: %w", err)
	}
	slog.Debug("mongo_document_inserted", "id", id, "collection", CollectionName)
	return domain.Receipt{Backend: s.Name()}, nil
}

func (s *mongoStore) Status() string {
	if s.coll == nil {
		return StatusNotConfigured
	}
	return StatusConnected
}
