package audit

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// MemoryRecorder keeps entries in memory for unit tests.
type MemoryRecorder struct {
	mu      sync.RWMutex
	entries []Entry
}

func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

func (r *MemoryRecorder) Record(ctx context.Context, e Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	if e.ID == "" {
		e.ID = "audit_" + strconv.Itoa(len(r.entries)+1)
	}
	r.entries = append(r.entries, e)
	return nil
}

func (r *MemoryRecorder) List(ctx context.Context, f Filter, skip, limit int64) ([]Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matched := []Entry{}
	// newest first
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if f.Action != "" && e.Action != f.Action {
			continue
		}
		if f.UserID != "" && e.UserID != f.UserID {
			continue
		}
		if f.SubjectID != "" && e.SubjectID != f.SubjectID {
			continue
		}
		matched = append(matched, e)
	}
	if skip >= int64(len(matched)) {
		return []Entry{}, nil
	}
	matched = matched[skip:]
	if limit > 0 && limit < int64(len(matched)) {
		matched = matched[:limit]
	}
	return matched, nil
}
