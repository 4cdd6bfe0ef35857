// Command initdb prepares a fresh database: indexes, the document number
// counter, and a bootstrap administrator account.
package main

import (
	"context"
	"os"

	"github.com/arsipku/arsipku/internal/audit"
	"github.com/arsipku/arsipku/internal/auth"
	"github.com/arsipku/arsipku/internal/config"
	"github.com/arsipku/arsipku/internal/counter"
	"github.com/arsipku/arsipku/internal/database"
	"github.com/arsipku/arsipku/pkg/logger"
)

func main() {
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()
	client, err := database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
	if err != nil {
		logger.Fatalf("failed to connect to MongoDB: %v", err)
	}
	defer func() { _ = client.Disconnect(ctx) }()

	db := client.Database(cfg.MongoDB.Database)
	if err := database.EnsureIndexes(ctx, db); err != nil {
		logger.Fatalf("failed to create indexes: %v", err)
	}
	logger.Infof("indexes ensured on %s", cfg.MongoDB.Database)

	seq := counter.NewMongoService(db.Collection(database.ColCounters), cfg.Documents.CounterBase)
	if err := seq.Ensure(ctx, counter.SeqDocumentNumber); err != nil {
		logger.Fatalf("failed to seed document counter: %v", err)
	}
	logger.Infof("document number counter seeded at %d", cfg.Documents.CounterBase)

	recorder := audit.NewMongoRecorder(db.Collection(database.ColAuditLog))
	svc := auth.NewService(auth.NewMongoRepository(db.Collection(database.ColUsers)), recorder, cfg.Security)

	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "Admin@123"
		logger.Warnf("ADMIN_PASSWORD not set, using the default; change it immediately")
	}
	id, err := svc.CreateUser(ctx, "admin", "admin@arsipku.local", adminPassword, "System Administrator", auth.RoleAdmin, "IT", "initdb")
	if err != nil {
		// rerunning against an initialized database is fine
		logger.Warnf("admin user not created: %v", err)
	} else {
		logger.Infof("admin user created with id %s", id)
	}

	logger.Infof("database initialization complete")
}
