package backup

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/arsipku/arsipku/internal/apperr"
)

// MongoStore keeps backup metadata in a collection, one row per backup name.
type MongoStore struct {
	col *mongo.Collection
}

func NewMongoStore(col *mongo.Collection) *MongoStore {
	return &MongoStore{col: col}
}

func (s *MongoStore) Save(ctx context.Context, r *Record) error {
	filter := bson.M{"name": r.Name}
	opts := options.Update().SetUpsert(true)
	if _, err := s.col.UpdateOne(ctx, filter, bson.M{"$set": r}, opts); err != nil {
		return apperr.Storage("save backup record", err)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, name string) (*Record, error) {
	var r Record
	if err := s.col.FindOne(ctx, bson.M{"name": name}).Decode(&r); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, apperr.Storage("find backup record", err)
	}
	return &r, nil
}

func (s *MongoStore) List(ctx context.Context, limit int64) ([]*Record, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "startedAt", Value: -1}}).
		SetLimit(limit)
	cur, err := s.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, apperr.Storage("list backup records", err)
	}
	defer cur.Close(ctx)
	out := []*Record{}
	for cur.Next(ctx) {
		var r Record
		if err := cur.Decode(&r); err != nil {
			return nil, apperr.Storage("decode backup record", err)
		}
		out = append(out, &r)
	}
	return out, cur.Err()
}
