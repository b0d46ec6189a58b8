package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoSlot stores the serialized collection in a single MongoDB document
// keyed by the slot key.
type MongoSlot struct {
	col *mongo.Collection
	key string
}

type mongoSlotRecord struct {
	Key     string `bson:"_id"`
	Payload []byte `bson:"payload"`
}

func NewMongoSlot(col *mongo.Collection, key string) *MongoSlot {
	if key == "" {
		key = DefaultSlotKey
	}
	return &MongoSlot{col: col, key: key}
}

func (m *MongoSlot) Load(ctx context.Context) ([]byte, error) {
	var rec mongoSlotRecord
	if err := m.col.FindOne(ctx, bson.M{"_id": m.key}).Decode(&rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return rec.Payload, nil
}

func (m *MongoSlot) Store(ctx context.Context, data []byte) error {
	opts := options.Replace().SetUpsert(true)
	_, err := m.col.ReplaceOne(ctx, bson.M{"_id": m.key}, mongoSlotRecord{Key: m.key, Payload: data}, opts)
	return err
}

func (m *MongoSlot) Clear(ctx context.Context) error {
	_, err := m.col.DeleteOne(ctx, bson.M{"_id": m.key})
	return err
}
