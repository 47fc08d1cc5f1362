package vecload

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/vecload/ai"
	"github.com/poiesic/vecload/ai/mock"
	"github.com/poiesic/vecload/chunking"
	"github.com/poiesic/vecload/core"
	"github.com/poiesic/vecload/ingestion"
	"github.com/poiesic/vecload/storage/astra"
	"github.com/poiesic/vecload/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPipeline(t *testing.T, opts ...Option) (*Pipeline, *mock.MockProvider) {
	t.Helper()
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)

	provider := mock.NewMockProviderWithEmbedder(mock.NewMockEmbedder())
	opts = append([]Option{WithStore(store), WithEmbeddingProvider(provider)}, opts...)

	p, err := NewPipeline(opts...)
	require.NoError(t, err)
	return p, provider
}

func TestNewPipeline(t *testing.T) {
	t.Run("badger on disk", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "db")
		p, err := NewPipeline(WithBadger(dir))
		require.NoError(t, err)
		require.NotNil(t, p)

		assert.Equal(t, DefaultCollection, p.Collection().Name())
		assert.Equal(t, chunking.DefaultChunkSize, p.Splitter().ChunkSize())
		assert.NoError(t, p.Close())
	})

	t.Run("go-openai backend", func(t *testing.T) {
		p, err := NewPipeline(
			WithBadger(t.TempDir()),
			WithAIConfig(ai.NewConfig(ai.WithBackend(ai.BackendOpenAI))),
			WithRetry(3, time.Millisecond),
		)
		require.NoError(t, err)
		assert.IsType(t, &ai.RetryEmbedder{}, p.embedder)
		assert.NoError(t, p.Close())
	})

	t.Run("rate limit without retries", func(t *testing.T) {
		p, _ := newTestPipeline(t, WithRateLimit(100, 5))
		assert.IsType(t, &ai.RateLimitedEmbedder{}, p.embedder)
		assert.NoError(t, p.Close())
	})

	t.Run("error with invalid path", func(t *testing.T) {
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		require.NoError(t, os.WriteFile(tmpFile, []byte("test"), 0644))

		p, err := NewPipeline(WithBadger(tmpFile))
		assert.Error(t, err)
		assert.Nil(t, p)
	})
}

func TestNewPipeline_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{"overlap not below size", []Option{WithChunking(chunking.WithChunkSize(100), chunking.WithChunkOverlap(100))}},
		{"bad collection name", []Option{WithCollection("my-collection")}},
		{"zero dimension", []Option{WithDimension(0)}},
		{"bad retry", []Option{WithRetry(0, time.Second)}},
		{"negative rate limit", []Option{WithRateLimit(-1, 1)}},
		{"missing model", []Option{WithAIConfig(ai.NewConfig(ai.WithEmbeddingModel("")))}},
		{"astra without endpoint", []Option{WithAstra(astra.Config{Token: "AstraCS:test"})}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPipeline(tt.opts...)
			require.Error(t, err)
			assert.ErrorIs(t, err, core.ErrConfiguration)
		})
	}
}

func TestPipeline_Run(t *testing.T) {
	ctx := context.Background()
	p, provider := newTestPipeline(t)
	defer p.Close()

	records := []core.SourceRecord{
		{ID: "p1", Info: map[string]any{"tag": "x"}, Description: strings.Repeat("A", 1500)},
		{ID: "p2", Description: ""},
	}

	summary, err := p.Run(ctx, records)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.RecordsProcessed)
	assert.Equal(t, 1, summary.RecordsSkipped)
	assert.Equal(t, 2, summary.EntriesWritten)
	assert.Equal(t, 2, provider.GetMockEmbedder().CallCount())

	status, err := p.Provision(ctx)
	require.NoError(t, err)
	assert.Equal(t, ingestion.ProvisionAlreadyExists, status)

	count, err := p.Collection().CountDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestPipeline_Close(t *testing.T) {
	p, provider := newTestPipeline(t)

	require.NoError(t, p.Close())
	assert.True(t, provider.Closed())
}
