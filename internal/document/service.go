package document

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/arsipku/arsipku/internal/apperr"
	"github.com/arsipku/arsipku/internal/audit"
	"github.com/arsipku/arsipku/internal/config"
	"github.com/arsipku/arsipku/internal/counter"
	"github.com/arsipku/arsipku/pkg/logger"
	"github.com/arsipku/arsipku/pkg/metrics"
)

var validTypes = map[string]bool{
	TypeIncoming: true,
	TypeOutgoing: true,
	TypeMemo:     true,
}

var validStatuses = map[string]bool{
	StatusDraft:      true,
	StatusRegistered: true,
	StatusInProgress: true,
	StatusApproved:   true,
	StatusArchived:   true,
}

// Service owns the document lifecycle: registration with a counter-issued
// number, versioned updates, soft deletion and search.
type Service struct {
	repo Repository
	seq  counter.Service
	rec  audit.Recorder
	cfg  config.DocumentsConfig
}

func NewService(repo Repository, seq counter.Service, rec audit.Recorder, cfg config.DocumentsConfig) *Service {
	return &Service{repo: repo, seq: seq, rec: rec, cfg: cfg}
}

// Audit failures never roll back the mutation they describe.
func (s *Service) record(ctx context.Context, e audit.Entry) {
	if err := s.rec.Record(ctx, e); err != nil {
		metrics.AuditWriteFailures.Inc()
		logger.Errorf("audit write failed (action=%s subject=%s): %v", e.Action, e.SubjectID, err)
	}
}

func validateFields(f Fields) error {
	problems := []string{}
	if !validTypes[f.DocType] {
		problems = append(problems, "docType must be one of Incoming, Outgoing, Memo")
	}
	if strings.TrimSpace(f.Subject) == "" {
		problems = append(problems, "subject is required")
	}
	if f.Status != "" && !validStatuses[f.Status] {
		problems = append(problems, "unknown status")
	}
	if len(problems) > 0 {
		return apperr.Validation(strings.Join(problems, "; "))
	}
	return nil
}

// Create registers a new document. The document number comes from the shared
// counter, so two concurrent creates never share a number.
func (s *Service) Create(ctx context.Context, actorID string, f Fields) (*Document, error) {
	if err := validateFields(f); err != nil {
		return nil, err
	}
	if f.Status == "" {
		f.Status = StatusDraft
	}
	num, err := s.seq.Next(ctx, counter.SeqDocumentNumber)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	d := &Document{
		ID:             uuid.NewString(),
		DocumentNumber: num,
		Fields:         f,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
		CreatedBy:      actorID,
		UpdatedBy:      actorID,
	}
	if err := s.repo.Insert(ctx, d); err != nil {
		return nil, err
	}
	metrics.DocumentMutations.WithLabelValues("create").Inc()
	s.record(ctx, audit.Entry{
		Timestamp: now,
		Action:    audit.ActionDocCreated,
		UserID:    actorID,
		SubjectID: d.ID,
		Details:   map[string]any{"documentNumber": num, "docType": f.DocType},
	})
	return d, nil
}

// Get returns the document or apperr.NotFound. Soft-deleted documents are
// still readable by id.
func (s *Service) Get(ctx context.Context, id string) (*Document, error) {
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, apperr.NotFound("document not found")
	}
	return d, nil
}

// Update applies f against the version the caller observed. On a concurrent
// modification the caller gets apperr.Conflict and must refetch; the previous
// state is snapshotted into history before the write lands.
func (s *Service) Update(ctx context.Context, actorID, id string, expectedVersion int64, f Fields) (*Document, error) {
	if err := validateFields(f); err != nil {
		return nil, err
	}
	prev, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if prev == nil {
		return nil, apperr.NotFound("document not found")
	}
	if prev.Deleted {
		return nil, apperr.Validation("document is deleted")
	}

	next := *prev
	next.Fields = f
	next.Version = expectedVersion + 1
	next.UpdatedAt = time.Now().UTC()
	next.UpdatedBy = actorID

	if err := s.repo.UpdateVersioned(ctx, prev, &next, expectedVersion); err != nil {
		if apperr.IsConflict(err) {
			metrics.VersionConflicts.Inc()
		}
		return nil, err
	}
	metrics.DocumentMutations.WithLabelValues("update").Inc()
	s.record(ctx, audit.Entry{
		Timestamp: next.UpdatedAt,
		Action:    audit.ActionDocUpdated,
		UserID:    actorID,
		SubjectID: id,
		Details:   map[string]any{"version": next.Version},
	})
	return &next, nil
}

// Delete soft-deletes by default. Hard deletion physically removes the row
// and is reserved for administrative cleanup.
func (s *Service) Delete(ctx context.Context, actorID, id string, hard bool) error {
	var err error
	if hard {
		err = s.repo.HardDelete(ctx, id)
	} else {
		err = s.repo.SoftDelete(ctx, id, actorID)
	}
	if err != nil {
		return err
	}
	metrics.DocumentMutations.WithLabelValues("delete").Inc()
	s.record(ctx, audit.Entry{
		Timestamp: time.Now().UTC(),
		Action:    audit.ActionDocDeleted,
		UserID:    actorID,
		SubjectID: id,
		Details:   map[string]any{"hard": hard},
	})
	return nil
}

// Search pages through documents. limit <= 0 falls back to the configured
// page size.
func (s *Service) Search(ctx context.Context, f Filter, textQuery string, skip, limit int64, sortField string, sortAsc bool) (*SearchResult, error) {
	if limit <= 0 {
		limit = int64(s.cfg.PageSize)
	}
	if skip < 0 {
		skip = 0
	}
	return s.repo.Search(ctx, f, textQuery, skip, limit, sortField, sortAsc)
}

// ListVersions returns the document's history snapshots, newest first.
func (s *Service) ListVersions(ctx context.Context, id string, skip, limit int64) ([]*VersionSnapshot, error) {
	if limit <= 0 {
		limit = int64(s.cfg.PageSize)
	}
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, apperr.NotFound("document not found")
	}
	return s.repo.ListVersions(ctx, id, skip, limit)
}

// Stats returns collection-wide totals and per-type/per-status counts.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	return s.repo.Stats(ctx)
}
