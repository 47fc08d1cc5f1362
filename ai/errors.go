package ai

import (
	"errors"
	"fmt"
)

var (
	// ErrEmbeddingService indicates the embedding service failed, timed out,
	// or returned a payload without the expected vector.
	ErrEmbeddingService = errors.New("embedding service error")

	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")
)

// ServiceError wraps err as an ErrEmbeddingService error unless it already is one.
func ServiceError(err error) error {
	if err == nil || errors.Is(err, ErrEmbeddingService) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrEmbeddingService, err)
}

// CheckEmbeddings verifies that a batch response holds one non-empty vector
// per input text.
func CheckEmbeddings(embeddings [][]float32, inputs int) error {
	if len(embeddings) != inputs {
		return fmt.Errorf("%w: expected %d embeddings, received %d", ErrEmbeddingService, inputs, len(embeddings))
	}
	for i, e := range embeddings {
		if len(e) == 0 {
			return fmt.Errorf("%w: embedding %d is empty", ErrEmbeddingService, i)
		}
	}
	return nil
}
