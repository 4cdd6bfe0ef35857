package document

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/arsipku/arsipku/internal/apperr"
)

// MongoRepository persists documents in one collection and immutable version
// snapshots in a second one.
type MongoRepository struct {
	docs     *mongo.Collection
	versions *mongo.Collection
}

func NewMongoRepository(docs, versions *mongo.Collection) *MongoRepository {
	return &MongoRepository{docs: docs, versions: versions}
}

func (r *MongoRepository) Insert(ctx context.Context, d *Document) error {
	if _, err := r.docs.InsertOne(ctx, d); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperr.Conflict("document number already assigned")
		}
		return apperr.Storage("insert document", err)
	}
	return nil
}

func (r *MongoRepository) Get(ctx context.Context, id string) (*Document, error) {
	var d Document
	if err := r.docs.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, apperr.Storage("find document", err)
	}
	return &d, nil
}

func (r *MongoRepository) UpdateVersioned(ctx context.Context, prev, d *Document, expectedVersion int64) error {
	// snapshot before the write; the history row is immutable from here on
	snap := VersionSnapshot{
		ID:          primitive.NewObjectID().Hex(),
		OriginalID:  prev.ID,
		VersionedAt: time.Now().UTC(),
		Document:    *prev,
	}
	if _, err := r.versions.InsertOne(ctx, snap); err != nil {
		return apperr.Storage("store document version", err)
	}

	// the write is conditioned on the version observed at read time
	filter := bson.M{"_id": d.ID, "version": expectedVersion}
	res, err := r.docs.ReplaceOne(ctx, filter, d)
	if err != nil {
		return apperr.Storage("update document", err)
	}
	if res.MatchedCount == 0 {
		// lost the race or the row vanished; drop the orphaned snapshot
		r.versions.DeleteOne(ctx, bson.M{"_id": snap.ID})
		var exists Document
		if ferr := r.docs.FindOne(ctx, bson.M{"_id": d.ID}).Decode(&exists); ferr != nil {
			if ferr == mongo.ErrNoDocuments {
				return apperr.NotFound("document not found")
			}
			return apperr.Storage("update document", ferr)
		}
		return apperr.Conflict("document was modified concurrently, refetch and retry")
	}
	return nil
}

func (r *MongoRepository) SoftDelete(ctx context.Context, id, actorID string) error {
	now := time.Now().UTC()
	update := bson.M{"$set": bson.M{
		"deleted":   true,
		"deletedAt": now,
		"deletedBy": actorID,
		"updatedAt": now,
		"updatedBy": actorID,
	}}
	res, err := r.docs.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return apperr.Storage("soft delete document", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("document not found")
	}
	return nil
}

func (r *MongoRepository) HardDelete(ctx context.Context, id string) error {
	res, err := r.docs.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return apperr.Storage("hard delete document", err)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("document not found")
	}
	return nil
}

func (r *MongoRepository) Search(ctx context.Context, f Filter, textQuery string, skip, limit int64, sortField string, sortAsc bool) (*SearchResult, error) {
	filter := bson.M{}
	if !f.IncludeDeleted {
		filter["deleted"] = bson.M{"$ne": true}
	}
	if f.DocType != "" {
		filter["docType"] = f.DocType
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Classification != "" {
		filter["classification"] = f.Classification
	}
	if textQuery != "" {
		filter["$text"] = bson.M{"$search": textQuery}
	}

	total, err := r.docs.CountDocuments(ctx, filter)
	if err != nil {
		return nil, apperr.Storage("count documents", err)
	}

	opts := options.Find().SetSkip(skip).SetLimit(limit)
	switch {
	case textQuery != "":
		// relevance wins over any requested sort
		opts.SetProjection(bson.M{"score": bson.M{"$meta": "textScore"}})
		opts.SetSort(bson.M{"score": bson.M{"$meta": "textScore"}})
	case sortField != "":
		dir := -1
		if sortAsc {
			dir = 1
		}
		opts.SetSort(bson.D{{Key: sortField, Value: dir}})
	default:
		opts.SetSort(bson.D{{Key: "createdAt", Value: -1}})
	}

	cur, err := r.docs.Find(ctx, filter, opts)
	if err != nil {
		return nil, apperr.Storage("search documents", err)
	}
	defer cur.Close(ctx)

	items := []*Document{}
	for cur.Next(ctx) {
		var d Document
		if err := cur.Decode(&d); err != nil {
			return nil, apperr.Storage("decode document", err)
		}
		items = append(items, &d)
	}
	if err := cur.Err(); err != nil {
		return nil, apperr.Storage("search documents", err)
	}
	return &SearchResult{Items: items, Total: total, Skip: skip, Limit: limit}, nil
}

func (r *MongoRepository) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{}
	var err error
	if st.Total, err = r.docs.CountDocuments(ctx, bson.M{}); err != nil {
		return nil, apperr.Storage("count documents", err)
	}
	if st.Deleted, err = r.docs.CountDocuments(ctx, bson.M{"deleted": true}); err != nil {
		return nil, apperr.Storage("count deleted documents", err)
	}
	if st.ByType, err = r.groupBy(ctx, "docType"); err != nil {
		return nil, err
	}
	if st.ByStatus, err = r.groupBy(ctx, "status"); err != nil {
		return nil, err
	}
	return st, nil
}

func (r *MongoRepository) groupBy(ctx context.Context, field string) ([]Bucket, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$" + field, "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
	}
	cur, err := r.docs.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, apperr.Storage("group documents by "+field, err)
	}
	defer cur.Close(ctx)
	out := []Bucket{}
	for cur.Next(ctx) {
		var b Bucket
		if err := cur.Decode(&b); err != nil {
			return nil, apperr.Storage("decode "+field+" bucket", err)
		}
		out = append(out, b)
	}
	return out, cur.Err()
}

func (r *MongoRepository) ListVersions(ctx context.Context, originalID string, skip, limit int64) ([]*VersionSnapshot, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "versionedAt", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)
	cur, err := r.versions.Find(ctx, bson.M{"originalId": originalID}, opts)
	if err != nil {
		return nil, apperr.Storage("list versions", err)
	}
	defer cur.Close(ctx)
	out := []*VersionSnapshot{}
	for cur.Next(ctx) {
		var v VersionSnapshot
		if err := cur.Decode(&v); err != nil {
			return nil, apperr.Storage("decode version", err)
		}
		out = append(out, &v)
	}
	return out, cur.Err()
}
