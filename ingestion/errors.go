package ingestion

import (
	"errors"
	"fmt"
)

var (
	// ErrStoreRequired is returned when a collection store is not provided.
	ErrStoreRequired = errors.New("collection store required")

	// ErrCollectionRequired is returned when a collection is not provided.
	ErrCollectionRequired = errors.New("collection required")

	// ErrSplitterRequired is returned when a splitter is not provided.
	ErrSplitterRequired = errors.New("splitter required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrDimensionMismatch indicates an embedding whose length differs from
	// the configured collection dimension. Nothing is written for that chunk.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrStoreWrite indicates the vector store rejected a write or was unreachable.
	ErrStoreWrite = errors.New("store write failed")
)

// ChunkError attaches the failing record and chunk to a load error.
// Sequence is 0 when the record failed before any chunk was produced.
type ChunkError struct {
	RecordID string
	Sequence int
	Err      error
}

func (e *ChunkError) Error() string {
	if e.Sequence == 0 {
		return fmt.Sprintf("record %q: %v", e.RecordID, e.Err)
	}
	return fmt.Sprintf("record %q chunk %d: %v", e.RecordID, e.Sequence, e.Err)
}

func (e *ChunkError) Unwrap() error {
	return e.Err
}
