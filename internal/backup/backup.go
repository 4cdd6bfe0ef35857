package backup

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/arsipku/arsipku/internal/apperr"
	"github.com/arsipku/arsipku/internal/audit"
	"github.com/arsipku/arsipku/internal/config"
	"github.com/arsipku/arsipku/pkg/logger"
	"github.com/arsipku/arsipku/pkg/metrics"
)

// Backup statuses.
const (
	StatusRunning  = "running"
	StatusComplete = "complete"
	StatusFailed   = "failed"
)

// Record is the metadata row kept per backup. The dump itself lives on disk
// under Path; the record is upserted by name as the run progresses.
type Record struct {
	Name      string    `bson:"name" json:"name"`
	Path      string    `bson:"path" json:"path"`
	Database  string    `bson:"database" json:"database"`
	Status    string    `bson:"status" json:"status"`
	Error     string    `bson:"error,omitempty" json:"error,omitempty"`
	Documents int64     `bson:"documents" json:"documents"`
	StartedAt time.Time `bson:"startedAt" json:"startedAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Executor performs the actual dump and restore. Split out so tests can run
// without the mongo tools installed.
type Executor interface {
	Dump(ctx context.Context, outDir string) error
	Restore(ctx context.Context, dumpDir string) error
}

// Store persists backup metadata, upserting by name.
type Store interface {
	Save(ctx context.Context, r *Record) error
	Get(ctx context.Context, name string) (*Record, error)
	List(ctx context.Context, limit int64) ([]*Record, error)
}

// Service coordinates dump runs and restore operations and audits both.
type Service struct {
	store    Store
	exec     Executor
	rec      audit.Recorder
	cfg      config.BackupConfig
	database string

	// CountDocuments, when set, stamps the record with the number of live
	// documents at dump time.
	CountDocuments func(ctx context.Context) (int64, error)
}

func NewService(store Store, exec Executor, rec audit.Recorder, cfg config.BackupConfig, database string) *Service {
	return &Service{store: store, exec: exec, rec: rec, cfg: cfg, database: database}
}

func (s *Service) record(ctx context.Context, e audit.Entry) {
	if err := s.rec.Record(ctx, e); err != nil {
		metrics.AuditWriteFailures.Inc()
		logger.Errorf("audit write failed (action=%s): %v", e.Action, err)
	}
}

// Create runs a backup into a timestamped directory under the configured
// backup dir and returns the finished record.
func (s *Service) Create(ctx context.Context, actorID string) (*Record, error) {
	now := time.Now().UTC()
	name := fmt.Sprintf("backup_%s", now.Format("20060102_150405"))
	r := &Record{
		Name:      name,
		Path:      filepath.Join(s.cfg.Dir, name),
		Database:  s.database,
		Status:    StatusRunning,
		StartedAt: now,
		UpdatedAt: now,
	}
	if s.CountDocuments != nil {
		if n, err := s.CountDocuments(ctx); err == nil {
			r.Documents = n
		}
	}
	if err := s.store.Save(ctx, r); err != nil {
		return nil, err
	}

	err := s.exec.Dump(ctx, r.Path)
	r.UpdatedAt = time.Now().UTC()
	if err != nil {
		r.Status = StatusFailed
		r.Error = err.Error()
	} else {
		r.Status = StatusComplete
	}
	if serr := s.store.Save(ctx, r); serr != nil {
		logger.Errorf("backup metadata save failed: %v", serr)
	}
	if err != nil {
		return nil, fmt.Errorf("backup %s: %w", name, err)
	}

	s.record(ctx, audit.Entry{
		Timestamp: r.UpdatedAt,
		Action:    audit.ActionBackupCreated,
		UserID:    actorID,
		SubjectID: name,
		Details:   map[string]any{"path": r.Path},
	})
	return r, nil
}

// Restore replays a previously created backup over the live database.
func (s *Service) Restore(ctx context.Context, actorID, name string) error {
	r, err := s.store.Get(ctx, name)
	if err != nil {
		return err
	}
	if r == nil {
		return apperr.NotFound("backup " + name + " not found")
	}
	if r.Status != StatusComplete {
		return apperr.Conflict(fmt.Sprintf("backup %s is %s, not restorable", name, r.Status))
	}
	if err := s.exec.Restore(ctx, r.Path); err != nil {
		return fmt.Errorf("restore %s: %w", name, err)
	}
	s.record(ctx, audit.Entry{
		Timestamp: time.Now().UTC(),
		Action:    audit.ActionBackupRestored,
		UserID:    actorID,
		SubjectID: name,
	})
	return nil
}

// List returns recent backup records, newest first.
func (s *Service) List(ctx context.Context, limit int64) ([]*Record, error) {
	if limit <= 0 {
		limit = 30
	}
	return s.store.List(ctx, limit)
}
