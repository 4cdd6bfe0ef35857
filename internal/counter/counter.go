package counter

import "context"

// Sequence names used by the service.
const (
	SeqDocumentNumber = "document_number"
)

// Service issues gap-free monotonically increasing integers per named
// sequence. Concurrent callers on the same name never observe the same value.
type Service interface {
	// Next atomically increments the named sequence and returns the new value.
	// A missing sequence is created implicitly, starting at the base value, so
	// the first call returns base+1.
	Next(ctx context.Context, name string) (int64, error)
}
