package storage

import (
	"context"
	"time"

	"github.com/poiesic/websearch/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// DocumentRepository provides operations for managing crawled documents.
type DocumentRepository interface {
	Repository

	// PutDocuments inserts or replaces documents, keyed by document ID.
	// Also maintains the URL and fetch-time secondary indices.
	PutDocuments(ctx context.Context, docs ...*core.Document) error

	// TouchDocument updates only FetchedAt and ContentHash of an existing
	// document, as happens when a re-crawl finds unchanged content.
	// Returns ErrNotFound if the document doesn't exist.
	TouchDocument(ctx context.Context, id core.ID, fetchedAt time.Time, hash core.ContentHash) error

	// GetDocument retrieves a single document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// GetDocuments retrieves multiple documents by their IDs.
	// Returns only the documents that exist (no error for missing documents).
	GetDocuments(ctx context.Context, ids ...core.ID) ([]*core.Document, error)

	// GetDocumentByURL retrieves a document by its normalized URL.
	// Returns ErrNotFound if no document has that URL.
	GetDocumentByURL(ctx context.Context, url string) (*core.Document, error)

	// DeleteDocuments removes documents and their index entries by ID.
	// Returns ErrNotFound if any document doesn't exist.
	DeleteDocuments(ctx context.Context, ids ...core.ID) error

	// CountDocuments returns the number of stored documents.
	CountDocuments(ctx context.Context) (uint64, error)

	// ForEachDocument iterates all documents in key order.
	// Iteration stops on the first error from fn.
	ForEachDocument(ctx context.Context, fn func(*core.Document) error) error

	// DocumentsFetchedBefore returns documents whose FetchedAt is older than
	// cutoff, ordered oldest first. Feeds the re-crawl pass.
	DocumentsFetchedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*core.Document, error)
}

// IndexRepository persists inverted-index snapshots: posting lists plus the
// global statistics needed for TF-IDF.
type IndexRepository interface {
	Repository

	// PutPostings inserts or replaces posting lists, keyed by term.
	PutPostings(ctx context.Context, lists ...*core.PostingList) error

	// GetPostings retrieves the posting list for a term.
	// Returns ErrNotFound if the term was never snapshotted.
	GetPostings(ctx context.Context, term string) (*core.PostingList, error)

	// ForEachPostings iterates all snapshotted posting lists in term order.
	ForEachPostings(ctx context.Context, fn func(*core.PostingList) error) error

	// PutStats replaces the persisted global index statistics.
	PutStats(ctx context.Context, stats *core.IndexStats) error

	// GetStats retrieves the persisted statistics.
	// Returns ErrNotFound when no snapshot has been written yet.
	GetStats(ctx context.Context) (*core.IndexStats, error)
}

// AuthorityRepository persists the domain authority table. The table is only
// ever replaced wholesale so readers cannot observe a partial update.
type AuthorityRepository interface {
	Repository

	// SaveTable replaces the stored authority table.
	SaveTable(ctx context.Context, table core.AuthorityTable) error

	// LoadTable retrieves the stored authority table.
	// Returns an empty table when none has been saved.
	LoadTable(ctx context.Context) (core.AuthorityTable, error)
}

// FrontierRepository checkpoints the crawl frontier so an interrupted crawl
// can resume from its pending URLs.
type FrontierRepository interface {
	Repository

	// SaveFrontier replaces the checkpointed frontier with the given entries.
	SaveFrontier(ctx context.Context, entries []*core.FrontierEntry) error

	// LoadFrontier retrieves the checkpointed frontier entries.
	// Returns nil when no checkpoint exists.
	LoadFrontier(ctx context.Context) ([]*core.FrontierEntry, error)

	// ClearFrontier removes the checkpoint, typically after a clean finish.
	ClearFrontier(ctx context.Context) error
}
