package counter

import (
	"context"
	"sync"
)

// MemoryService is an in-process Service used by unit tests. Each sequence is
// guarded independently so unrelated names never serialize against each other.
type MemoryService struct {
	mu   sync.Mutex
	base int64
	seqs map[string]*seq
}

type seq struct {
	mu    sync.Mutex
	value int64
}

func NewMemoryService(base int64) *MemoryService {
	return &MemoryService{base: base, seqs: make(map[string]*seq)}
}

func (s *MemoryService) Next(ctx context.Context, name string) (int64, error) {
	s.mu.Lock()
	sq, ok := s.seqs[name]
	if !ok {
		sq = &seq{value: s.base}
		s.seqs[name] = sq
	}
	s.mu.Unlock()

	sq.mu.Lock()
	defer sq.mu.Unlock()
	sq.value++
	return sq.value, nil
}
