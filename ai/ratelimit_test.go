package ai

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitedEmbedder(t *testing.T) {
	t.Run("passes calls through", func(t *testing.T) {
		inner := &flakyEmbedder{}
		embedder, err := NewRateLimitedEmbedder(inner, 1000, 10)
		require.NoError(t, err)

		vector, err := embedder.EmbedText(context.Background(), "hello")
		require.NoError(t, err)
		assert.Equal(t, []float32{1, 2, 3}, vector)

		vectors, err := embedder.EmbedTexts(context.Background(), []string{"a", "b"})
		require.NoError(t, err)
		assert.Len(t, vectors, 2)
		assert.Equal(t, 2, inner.calls)
	})

	t.Run("spaces out calls beyond the burst", func(t *testing.T) {
		embedder, err := NewRateLimitedEmbedder(&flakyEmbedder{}, 20, 1)
		require.NoError(t, err)

		start := time.Now()
		for range 3 {
			_, err := embedder.EmbedText(context.Background(), "x")
			require.NoError(t, err)
		}
		// two waits of 50ms after the first token
		assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
	})

	t.Run("stops waiting when the context ends", func(t *testing.T) {
		inner := &flakyEmbedder{}
		embedder, err := NewRateLimitedEmbedder(inner, 0.01, 1)
		require.NoError(t, err)

		_, err = embedder.EmbedText(context.Background(), "first")
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err = embedder.EmbedText(ctx, "second")
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, inner.calls)

		ctx, cancel = context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		_, err = embedder.EmbedText(ctx, "third")
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Equal(t, 1, inner.calls)
	})

	t.Run("rejects bad construction", func(t *testing.T) {
		_, err := NewRateLimitedEmbedder(nil, 1, 1)
		assert.Error(t, err)

		_, err = NewRateLimitedEmbedder(&flakyEmbedder{}, 0, 1)
		assert.Error(t, err)
	})
}
