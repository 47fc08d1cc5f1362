// Package ingestion loads source records into a vector collection.
//
// A run has two steps. The Provisioner makes sure the destination
// collection exists; an existing collection is logged and tolerated. The
// Loader then takes every record through
//
//	Pending -> Chunking -> (per chunk) Embedding -> Writing -> Done | Failed
//
// Each chunk is embedded, its vector length is checked against the
// collection dimension, and one VectorEntry is written per chunk. Records
// with an empty description produce no entries and still count as
// processed.
//
// # Failure policy
//
// The first error stops the run by default (fail-fast) and no further
// writes are issued. WithContinueOnError switches to collecting failures.
// Per-chunk errors are *ChunkError values carrying the record ID and chunk
// sequence; errors.Is reaches ErrDimensionMismatch, ErrStoreWrite or
// ai.ErrEmbeddingService.
//
// # Concurrency
//
// Records are processed in input order by default. WithWorkers spreads
// whole records over an ants worker pool; WithEmbedConcurrency embeds the
// chunks of one record concurrently and writes them afterwards in sequence
// order. The Loader never retries; wrap the embedder with
// ai.NewRetryEmbedder for that.
package ingestion
