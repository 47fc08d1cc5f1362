package ai

import "context"

// Embedder generates vector embeddings from text.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string
	// with exactly one call to the embedding service.
	// Returns an error wrapping ErrEmbeddingService if the call fails or
	// the response carries no vector. A zero vector is never substituted.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains exactly one embedding per input, in input order.
	// Returns an error wrapping ErrEmbeddingService if any embedding is missing.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbeddingProvider manages an Embedder and the resources behind it.
type EmbeddingProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
