package counter

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/arsipku/arsipku/internal/apperr"
)

type counterDoc struct {
	ID    string `bson:"_id"`
	Value int64  `bson:"value"`
}

// MongoService implements Service on a counters collection: one row per
// sequence, bumped with a single findOneAndUpdate so the read and the
// increment are atomic server-side.
type MongoService struct {
	col  *mongo.Collection
	base int64
}

func NewMongoService(col *mongo.Collection, base int64) *MongoService {
	return &MongoService{col: col, base: base}
}

// Ensure seeds the named sequence at the configured base when it does not
// exist yet. Idempotent; concurrent calls are resolved by the upsert.
func (s *MongoService) Ensure(ctx context.Context, name string) error {
	_, err := s.col.UpdateOne(ctx,
		bson.M{"_id": name},
		bson.M{"$setOnInsert": bson.M{"value": s.base}},
		options.Update().SetUpsert(true))
	if err != nil {
		return apperr.Storage("seed counter "+name, err)
	}
	return nil
}

func (s *MongoService) Next(ctx context.Context, name string) (int64, error) {
	if err := s.Ensure(ctx, name); err != nil {
		return 0, err
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc counterDoc
	err := s.col.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"value": 1}},
		opts).Decode(&doc)
	if err != nil {
		return 0, apperr.Storage("advance counter "+name, err)
	}
	return doc.Value, nil
}
