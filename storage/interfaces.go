package storage

import (
	"context"

	"github.com/poiesic/vecload/core"
)

// CollectionStore manages named vector collections.
// Implementations must be thread-safe and support concurrent access.
type CollectionStore interface {
	// CreateCollection creates a collection whose entries carry vectors of
	// opts.Dimension length.
	// Returns ErrCollectionExists if a collection with that name exists.
	CreateCollection(ctx context.Context, name string, opts core.CollectionOptions) error

	// Collection returns a handle to the named collection. The handle is
	// cheap; operations on a collection that does not exist fail with
	// ErrCollectionNotFound.
	Collection(name string) Collection

	// Close closes the storage backend and releases resources.
	Close() error
}

// Collection provides write and inspection operations on one collection.
type Collection interface {
	// Name returns the collection name.
	Name() string

	// InsertOne stores a new entry. A store-generated ID is assigned when
	// entry.ID is empty; InsertedAt is set if zero. Every call adds an entry.
	InsertOne(ctx context.Context, entry *core.VectorEntry) error

	// UpsertOne stores entry under entry.ID, replacing any entry with the same ID.
	// Returns core.ErrEmptyID if entry.ID is empty.
	UpsertOne(ctx context.Context, entry *core.VectorEntry) error

	// CountDocuments returns the number of entries in the collection.
	CountDocuments(ctx context.Context) (int, error)

	// FindByDocumentID returns the entries derived from one source record,
	// ordered by Sequence.
	FindByDocumentID(ctx context.Context, documentID string) ([]*core.VectorEntry, error)
}
