package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names used by the service.
const (
	ColUsers            = "users"
	ColDocuments        = "documents"
	ColDocumentVersions = "document_versions"
	ColAuditLog         = "audit_log"
	ColCounters         = "counters"
	ColBackups          = "backups"
)

// ConnectMongo opens a connection and returns the client. Caller should call client.Disconnect(ctx).
func ConnectMongo(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	clientOpts := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

// EnsureIndexes creates the indexes the repositories rely on. Safe to call on
// every startup; index creation is idempotent.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	users := db.Collection(ColUsers)
	userIdx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "role", Value: 1}}},
		{Keys: bson.D{{Key: "sessions.token", Value: 1}}},
	}
	if _, err := users.Indexes().CreateMany(ctx, userIdx); err != nil {
		return fmt.Errorf("user indexes: %w", err)
	}

	docs := db.Collection(ColDocuments)
	docIdx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "documentNumber", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "docType", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "letterDate", Value: -1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "docType", Value: 1}, {Key: "status", Value: 1}, {Key: "letterDate", Value: -1}}},
		{Keys: bson.D{
			{Key: "letterNumber", Value: "text"},
			{Key: "subject", Value: "text"},
			{Key: "origin", Value: "text"},
			{Key: "notes", Value: "text"},
		}, Options: options.Index().SetName("document_text")},
	}
	if _, err := docs.Indexes().CreateMany(ctx, docIdx); err != nil {
		return fmt.Errorf("document indexes: %w", err)
	}

	versions := db.Collection(ColDocumentVersions)
	verIdx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "originalId", Value: 1}, {Key: "versionedAt", Value: -1}}},
	}
	if _, err := versions.Indexes().CreateMany(ctx, verIdx); err != nil {
		return fmt.Errorf("version indexes: %w", err)
	}

	audit := db.Collection(ColAuditLog)
	auditIdx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "userId", Value: 1}}},
		{Keys: bson.D{{Key: "action", Value: 1}}},
		{Keys: bson.D{{Key: "subjectId", Value: 1}}},
	}
	if _, err := audit.Indexes().CreateMany(ctx, auditIdx); err != nil {
		return fmt.Errorf("audit indexes: %w", err)
	}

	return nil
}
