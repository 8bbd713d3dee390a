package adapters

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/open2fa/console/repository"
)

type slotDocument struct {
	ID        string    `bson:"_id"`
	Value     []byte    `bson:"value"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// MongoSnapshotStore implements SnapshotStore on MongoDB, one upserted
// document per slot in the "slots" collection.
type MongoSnapshotStore struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

// NewMongoSnapshotStore creates a new MongoDB snapshot store
func NewMongoSnapshotStore(db *mongo.Database, logger *zap.Logger) *MongoSnapshotStore {
	return &MongoSnapshotStore{
		collection: db.Collection("slots"),
		logger:     logger,
	}
}

func (s *MongoSnapshotStore) Read(ctx context.Context, slot string) ([]byte, error) {
	var doc slotDocument
	err := s.collection.FindOne(ctx, bson.M{"_id": slot}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		s.logger.Error("Failed to read snapshot slot", zap.Error(err), zap.String("slot", slot))
		return nil, err
	}
	return doc.Value, nil
}

func (s *MongoSnapshotStore) Write(ctx context.Context, slot string, data []byte) error {
	doc := slotDocument{
		ID:        slot,
		Value:     data,
		UpdatedAt: time.Now(),
	}
	_, err := s.collection.ReplaceOne(ctx, bson.M{"_id": slot}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		s.logger.Error("Failed to write snapshot slot", zap.Error(err), zap.String("slot", slot))
		return err
	}
	return nil
}

var _ repository.SnapshotStore = (*MongoSnapshotStore)(nil)
