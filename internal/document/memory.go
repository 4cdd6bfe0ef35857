package document

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arsipku/arsipku/internal/apperr"
)

// MemoryRepository keeps documents and version snapshots in maps. It honors
// the same conditional-write rules as the Mongo implementation, so service
// tests exercise the real concurrency behavior.
type MemoryRepository struct {
	mu       sync.RWMutex
	docs     map[string]*Document
	versions map[string][]*VersionSnapshot
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		docs:     make(map[string]*Document),
		versions: make(map[string][]*VersionSnapshot),
	}
}

func cloneDocument(d *Document) *Document {
	c := *d
	return &c
}

func (r *MemoryRepository) Insert(ctx context.Context, d *Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[d.ID]; ok {
		return apperr.Conflict("document already exists")
	}
	for _, other := range r.docs {
		if other.DocumentNumber == d.DocumentNumber {
			return apperr.Conflict("document number already assigned")
		}
	}
	r.docs[d.ID] = cloneDocument(d)
	return nil
}

func (r *MemoryRepository) Get(ctx context.Context, id string) (*Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.docs[id]
	if !ok {
		return nil, nil
	}
	return cloneDocument(d), nil
}

func (r *MemoryRepository) UpdateVersioned(ctx context.Context, prev, d *Document, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.docs[d.ID]
	if !ok {
		return apperr.NotFound("document not found")
	}
	if cur.Version != expectedVersion {
		return apperr.Conflict("document was modified concurrently, refetch and retry")
	}
	snap := &VersionSnapshot{
		ID:          uuid.NewString(),
		OriginalID:  prev.ID,
		VersionedAt: time.Now().UTC(),
		Document:    *prev,
	}
	r.versions[d.ID] = append(r.versions[d.ID], snap)
	r.docs[d.ID] = cloneDocument(d)
	return nil
}

func (r *MemoryRepository) SoftDelete(ctx context.Context, id, actorID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[id]
	if !ok {
		return apperr.NotFound("document not found")
	}
	now := time.Now().UTC()
	d.Deleted = true
	d.DeletedAt = &now
	d.DeletedBy = actorID
	d.UpdatedAt = now
	d.UpdatedBy = actorID
	return nil
}

func (r *MemoryRepository) HardDelete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[id]; !ok {
		return apperr.NotFound("document not found")
	}
	delete(r.docs, id)
	return nil
}

func matchesText(d *Document, q string) bool {
	q = strings.ToLower(q)
	for _, field := range []string{d.LetterNumber, d.Subject, d.Origin, d.Notes} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

func (r *MemoryRepository) Search(ctx context.Context, f Filter, textQuery string, skip, limit int64, sortField string, sortAsc bool) (*SearchResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matched := []*Document{}
	for _, d := range r.docs {
		if d.Deleted && !f.IncludeDeleted {
			continue
		}
		if f.DocType != "" && d.DocType != f.DocType {
			continue
		}
		if f.Status != "" && d.Status != f.Status {
			continue
		}
		if f.Classification != "" && d.Classification != f.Classification {
			continue
		}
		if textQuery != "" && !matchesText(d, textQuery) {
			continue
		}
		matched = append(matched, cloneDocument(d))
	}
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		var less bool
		switch sortField {
		case "letterDate":
			less = a.LetterDate.Before(b.LetterDate)
		case "documentNumber":
			less = a.DocumentNumber < b.DocumentNumber
		default:
			less = a.CreatedAt.Before(b.CreatedAt)
		}
		if sortField != "" && sortAsc {
			return less
		}
		return !less
	})
	total := int64(len(matched))
	if skip > total {
		skip = total
	}
	matched = matched[skip:]
	if limit > 0 && int64(len(matched)) > limit {
		matched = matched[:limit]
	}
	return &SearchResult{Items: matched, Total: total, Skip: skip, Limit: limit}, nil
}

func (r *MemoryRepository) ListVersions(ctx context.Context, originalID string, skip, limit int64) ([]*VersionSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := r.versions[originalID]
	out := []*VersionSnapshot{}
	for i := len(all) - 1; i >= 0; i-- {
		c := *all[i]
		out = append(out, &c)
	}
	if skip > int64(len(out)) {
		skip = int64(len(out))
	}
	out = out[skip:]
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepository) Stats(ctx context.Context) (*Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st := &Stats{Total: int64(len(r.docs))}
	byType := map[string]int64{}
	byStatus := map[string]int64{}
	for _, d := range r.docs {
		if d.Deleted {
			st.Deleted++
		}
		byType[d.DocType]++
		byStatus[d.Status]++
	}
	st.ByType = bucketize(byType)
	st.ByStatus = bucketize(byStatus)
	return st, nil
}

func bucketize(counts map[string]int64) []Bucket {
	out := make([]Bucket, 0, len(counts))
	for v, n := range counts {
		out = append(out, Bucket{Value: v, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	return out
}
