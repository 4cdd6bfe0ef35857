package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/arsipku/arsipku/handlers"
	"github.com/arsipku/arsipku/internal/audit"
	"github.com/arsipku/arsipku/internal/auth"
	"github.com/arsipku/arsipku/internal/backup"
	"github.com/arsipku/arsipku/internal/config"
	"github.com/arsipku/arsipku/internal/counter"
	"github.com/arsipku/arsipku/internal/database"
	"github.com/arsipku/arsipku/internal/document"
	"github.com/arsipku/arsipku/internal/storage"
	"github.com/arsipku/arsipku/pkg/logger"
	"github.com/arsipku/arsipku/pkg/metrics"
	"github.com/arsipku/arsipku/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// LOG_LEVEL env: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: mongo=%v redis=%v", cfg.MongoDB.URI != "", cfg.Redis.Host != "")

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// Lightweight CORS for dev/test; production should sit behind a stricter
	// policy at the edge.
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	})

	// Redis is optional; only the distributed rate limiter needs it.
	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Warnf("redis ping failed (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			redisClient = nil
		} else {
			logger.Infof("connected to redis at %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && redisClient != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimit(redisClient, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	// MongoDB with retry/backoff to tolerate container startup races.
	ctx := context.Background()
	var client *mongo.Client
	const maxAttempts = 5
	backoff := time.Second
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		client, err = database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
		if err == nil {
			break
		}
		logger.Warnf("attempt %d/%d: failed to connect to MongoDB: %v", attempt, maxAttempts, err)
		if attempt < maxAttempts {
			time.Sleep(backoff)
			backoff *= 2
		}
	}
	if err != nil {
		logger.Fatalf("could not connect to MongoDB after %d attempts: %v", maxAttempts, err)
	}
	defer func() { _ = client.Disconnect(ctx) }()

	db := client.Database(cfg.MongoDB.Database)
	if err := database.EnsureIndexes(ctx, db); err != nil {
		logger.Fatalf("failed to ensure indexes: %v", err)
	}

	recorder := audit.NewMongoRecorder(db.Collection(database.ColAuditLog))
	authSvc := auth.NewService(auth.NewMongoRepository(db.Collection(database.ColUsers)), recorder, cfg.Security)
	seq := counter.NewMongoService(db.Collection(database.ColCounters), cfg.Documents.CounterBase)
	docRepo := document.NewMongoRepository(db.Collection(database.ColDocuments), db.Collection(database.ColDocumentVersions))
	docSvc := document.NewService(docRepo, seq, recorder, cfg.Documents)

	backupExec := &backup.MongoToolsExecutor{URI: cfg.MongoDB.URI, Database: cfg.MongoDB.Database}
	backupSvc := backup.NewService(backup.NewMongoStore(db.Collection(database.ColBackups)), backupExec, recorder, cfg.Backup, cfg.MongoDB.Database)
	backupSvc.CountDocuments = func(ctx context.Context) (int64, error) {
		return db.Collection(database.ColDocuments).CountDocuments(ctx, bson.M{})
	}

	// Attachment storage is optional; routes answer 503 without it.
	var attachments *storage.AttachmentStore
	if scfg := storage.LoadConfig(); scfg.Endpoint != "" {
		attachments, err = storage.NewAttachmentStore(scfg)
		if err != nil {
			logger.Warnf("attachment store unavailable: %v", err)
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})
	r.GET("/ready", func(c *gin.Context) {
		deps := map[string]bool{
			"mongo":       client.Ping(c.Request.Context(), nil) == nil,
			"attachments": attachments != nil,
			"redis":       redisClient != nil,
		}
		if !deps["mongo"] {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "deps": deps, "uptime": time.Since(startTime).String()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "deps": deps, "uptime": time.Since(startTime).String()})
	})

	api := r.Group("/api")
	if cfg.RateLimit.Enabled {
		// login gets its own, much tighter bucket
		api.Use(middleware.RateLimit(cfg.RateLimit.LoginRPS, cfg.RateLimit.LoginBurst))
	}
	authHandler := handlers.NewAuthHandler(cfg, authSvc)
	authHandler.Register(api)

	protected := r.Group("/api")
	protected.Use(middleware.SessionAuth(authSvc))
	authHandler.Protected(protected)
	handlers.NewUserHandler(authSvc).Register(protected)
	handlers.NewDocumentHandler(docSvc, attachments).Register(protected)
	handlers.NewAdminHandler(recorder, docSvc, backupSvc).Register(protected)

	handlers.RegisterSwagger(r)

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("starting arsipku service on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
