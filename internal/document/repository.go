package document

import "context"

// Repository defines persistence for documents and their version history.
// Update must be conditioned on the version observed at read time: a
// concurrent writer racing on the same identifier loses with apperr.Conflict
// instead of silently overwriting.
type Repository interface {
	Insert(ctx context.Context, d *Document) error

	// Get returns nil, nil when the identifier is unknown. Soft-deleted
	// records are still returned; hiding them is a search concern.
	Get(ctx context.Context, id string) (*Document, error)

	// UpdateVersioned writes d conditioned on expectedVersion and snapshots
	// prev into the version history first. Returns apperr.Conflict when the
	// stored version no longer matches.
	UpdateVersioned(ctx context.Context, prev, d *Document, expectedVersion int64) error

	// SoftDelete flips the delete marker; the row stays for auditability.
	SoftDelete(ctx context.Context, id, actorID string) error

	// HardDelete physically removes the row.
	HardDelete(ctx context.Context, id string) error

	// Search pages through matching documents. A non-empty textQuery ranks by
	// textual relevance, overriding sortField; otherwise newest-created first
	// unless sortField says otherwise. The returned total ignores the page
	// window.
	Search(ctx context.Context, f Filter, textQuery string, skip, limit int64, sortField string, sortAsc bool) (*SearchResult, error)

	// ListVersions returns historical snapshots, newest first.
	ListVersions(ctx context.Context, originalID string, skip, limit int64) ([]*VersionSnapshot, error)

	// Stats aggregates collection-wide counts: totals plus documents grouped
	// by type and by status, largest group first.
	Stats(ctx context.Context) (*Stats, error)
}
