// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder and
// ai.EmbeddingProvider for use in unit tests. The mocks allow tests to run
// without external AI service dependencies and enable controlled,
// deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	mockProvider := mock.NewMockProvider()
//	vector, err := mockProvider.Embedder().EmbedText(ctx, "test")
//
//	// Custom behavior injection
//	mockEmbedder := mock.NewMockEmbedder().
//	    WithEmbedTextFunc(func(ctx context.Context, text string) ([]float32, error) {
//	        return []float32{0.1, 0.2, 0.3}, nil
//	    })
//
//	// Check call counts
//	count := mockEmbedder.CallCount()
//
// # Default Behavior
//
// MockEmbedder returns deterministic vectors derived from an FNV hash of the
// text, DefaultDimension long unless WithDimension says otherwise. It is
// safe for concurrent use.
package mock
