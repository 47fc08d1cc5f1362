package ingestion

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/poiesic/vecload/ai"
	"github.com/poiesic/vecload/ai/mock"
	"github.com/poiesic/vecload/chunking"
	"github.com/poiesic/vecload/core"
	"github.com/poiesic/vecload/storage"
	"github.com/poiesic/vecload/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDimension = 8

// failingCollection wraps a collection and fails the n-th write.
type failingCollection struct {
	storage.Collection
	failOn int
	writes atomic.Int32
}

func (c *failingCollection) InsertOne(ctx context.Context, entry *core.VectorEntry) error {
	if int(c.writes.Add(1)) == c.failOn {
		return errors.New("connection refused")
	}
	return c.Collection.InsertOne(ctx, entry)
}

func (c *failingCollection) UpsertOne(ctx context.Context, entry *core.VectorEntry) error {
	if int(c.writes.Add(1)) == c.failOn {
		return errors.New("connection refused")
	}
	return c.Collection.UpsertOne(ctx, entry)
}

func newTestCollection(t *testing.T, dim int) storage.Collection {
	t.Helper()
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.CreateCollection(context.Background(), "portfolio", core.CollectionOptions{Dimension: dim}))
	return store.Collection("portfolio")
}

func newTestSplitter(t *testing.T, size, overlap int) *chunking.Splitter {
	t.Helper()
	splitter, err := chunking.New(chunking.WithChunkSize(size), chunking.WithChunkOverlap(overlap))
	require.NoError(t, err)
	return splitter
}

func countEntries(t *testing.T, col storage.Collection) int {
	t.Helper()
	count, err := col.CountDocuments(context.Background())
	require.NoError(t, err)
	return count
}

func TestNewLoader(t *testing.T) {
	col := newTestCollection(t, testDimension)
	splitter := newTestSplitter(t, 100, 10)
	embedder := mock.NewMockEmbedder().WithDimension(testDimension)

	t.Run("valid", func(t *testing.T) {
		loader, err := NewLoader(col, splitter, embedder, testDimension)
		require.NoError(t, err)
		assert.Equal(t, 1, loader.workers)
		assert.Equal(t, 1, loader.embedConcurrency)
		assert.Equal(t, WriteModeAppend, loader.writeMode)
		assert.False(t, loader.continueOnError)
	})

	t.Run("missing dependencies", func(t *testing.T) {
		_, err := NewLoader(nil, splitter, embedder, testDimension)
		assert.ErrorIs(t, err, ErrCollectionRequired)

		_, err = NewLoader(col, nil, embedder, testDimension)
		assert.ErrorIs(t, err, ErrSplitterRequired)

		_, err = NewLoader(col, splitter, nil, testDimension)
		assert.ErrorIs(t, err, ErrEmbedderRequired)
	})

	t.Run("invalid dimension", func(t *testing.T) {
		_, err := NewLoader(col, splitter, embedder, 0)
		assert.ErrorIs(t, err, core.ErrConfiguration)
	})

	t.Run("options", func(t *testing.T) {
		loader, err := NewLoader(col, splitter, embedder, testDimension,
			WithWorkers(4),
			WithEmbedConcurrency(0),
			WithContinueOnError(true),
			WithWriteMode(WriteModeUpsert),
			WithLogger(nil),
		)
		require.NoError(t, err)
		assert.Equal(t, 4, loader.workers)
		assert.Equal(t, 1, loader.embedConcurrency, "values below 1 are clamped")
		assert.True(t, loader.continueOnError)
		assert.Equal(t, WriteModeUpsert, loader.writeMode)

		_, err = NewLoader(col, splitter, embedder, testDimension, WithWriteMode(WriteMode(7)))
		assert.ErrorIs(t, err, core.ErrConfiguration)
	})
}

func TestParseWriteMode(t *testing.T) {
	mode, err := ParseWriteMode("")
	require.NoError(t, err)
	assert.Equal(t, WriteModeAppend, mode)

	mode, err = ParseWriteMode("UPSERT")
	require.NoError(t, err)
	assert.Equal(t, WriteModeUpsert, mode)
	assert.Equal(t, "upsert", mode.String())

	_, err = ParseWriteMode("merge")
	assert.ErrorIs(t, err, core.ErrConfiguration)
}

func TestLoad_TwoChunkRecord(t *testing.T) {
	ctx := context.Background()
	col := newTestCollection(t, 1536)
	embedder := mock.NewMockEmbedder()

	loader, err := NewLoader(col, newTestSplitter(t, 1000, 200), embedder, 1536)
	require.NoError(t, err)

	text := strings.Repeat("A", 1500)
	records := []core.SourceRecord{{ID: "p1", Info: map[string]any{"tag": "x"}, Description: text}}

	summary, err := loader.Load(ctx, records)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.RecordsProcessed)
	assert.Equal(t, 2, summary.ChunksEmbedded)
	assert.Equal(t, 2, summary.EntriesWritten)
	assert.Zero(t, summary.RecordsFailed)
	assert.Nil(t, summary.Err)

	assert.Equal(t, 2, embedder.CallCount(), "exactly two embedding calls")

	entries, err := col.FindByDocumentID(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for i, entry := range entries {
		assert.Equal(t, "p1", entry.DocumentID)
		assert.Equal(t, i+1, entry.Sequence)
		assert.Equal(t, map[string]any{"tag": "x"}, entry.Info)
		assert.LessOrEqual(t, len([]rune(entry.Description)), 1000)
		assert.Len(t, entry.Vector, 1536)
	}

	first, second := entries[0].Description, entries[1].Description
	assert.True(t, strings.HasPrefix(second, first[len(first)-200:]), "second chunk starts with the last 200 characters of the first")
}

func TestLoad_EmptyDescription(t *testing.T) {
	col := newTestCollection(t, testDimension)
	embedder := mock.NewMockEmbedder().WithDimension(testDimension)

	loader, err := NewLoader(col, newTestSplitter(t, 100, 10), embedder, testDimension)
	require.NoError(t, err)

	summary, err := loader.Load(context.Background(), []core.SourceRecord{
		{ID: "empty", Description: ""},
		{ID: "blank", Description: "  \n\t "},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.RecordsProcessed, "empty records still count as processed")
	assert.Equal(t, 2, summary.RecordsSkipped)
	assert.Zero(t, summary.EntriesWritten)
	assert.Zero(t, embedder.CallCount())
	assert.Zero(t, countEntries(t, col))
}

func TestLoad_DimensionMismatch(t *testing.T) {
	col := newTestCollection(t, 1536)
	embedder := mock.NewMockEmbedder().WithDimension(512)

	loader, err := NewLoader(col, newTestSplitter(t, 1000, 200), embedder, 1536)
	require.NoError(t, err)

	summary, err := loader.Load(context.Background(), []core.SourceRecord{{ID: "p1", Description: "short text"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	var chunkErr *ChunkError
	require.ErrorAs(t, err, &chunkErr)
	assert.Equal(t, "p1", chunkErr.RecordID)
	assert.Equal(t, 1, chunkErr.Sequence)

	assert.Zero(t, summary.EntriesWritten)
	assert.Equal(t, 1, summary.RecordsFailed)
	assert.Zero(t, countEntries(t, col), "nothing is written for the chunk")
}

func TestLoad_WriteFailsOnThirdChunk(t *testing.T) {
	col := &failingCollection{Collection: newTestCollection(t, testDimension), failOn: 3}
	embedder := mock.NewMockEmbedder().WithDimension(testDimension)

	loader, err := NewLoader(col, newTestSplitter(t, 100, 0), embedder, testDimension)
	require.NoError(t, err)

	records := []core.SourceRecord{
		{ID: "p1", Description: strings.Repeat("A", 500)},
		{ID: "p2", Description: "never reached"},
	}

	summary, err := loader.Load(context.Background(), records)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStoreWrite)
	assert.Equal(t, summary.Err, err)

	var chunkErr *ChunkError
	require.ErrorAs(t, err, &chunkErr)
	assert.Equal(t, "p1", chunkErr.RecordID)
	assert.Equal(t, 3, chunkErr.Sequence)
	assert.Contains(t, err.Error(), "chunk 3")

	assert.Equal(t, 2, countEntries(t, col), "exactly two entries exist")
	assert.Equal(t, 2, summary.EntriesWritten)
	assert.Equal(t, 3, summary.ChunksEmbedded)
	assert.Equal(t, 1, summary.RecordsFailed)
	assert.Zero(t, summary.RecordsProcessed)
	assert.Equal(t, int32(3), col.writes.Load(), "no writes after the failure")
}

func TestLoad_EmbeddingServiceError(t *testing.T) {
	col := newTestCollection(t, testDimension)
	embedder := mock.NewMockEmbedder().WithEmbedTextFunc(func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("503 service unavailable")
	})

	loader, err := NewLoader(col, newTestSplitter(t, 100, 10), embedder, testDimension)
	require.NoError(t, err)

	_, err = loader.Load(context.Background(), []core.SourceRecord{
		{ID: "p1", Description: "hello"},
		{ID: "p2", Description: "world"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ai.ErrEmbeddingService)
	assert.Equal(t, 1, embedder.CallCount(), "fail-fast stops after the first error")
}

func TestLoad_EmptyVectorIsServiceError(t *testing.T) {
	col := newTestCollection(t, testDimension)
	embedder := mock.NewMockEmbedder().WithEmbedTextFunc(func(ctx context.Context, text string) ([]float32, error) {
		return []float32{}, nil
	})

	loader, err := NewLoader(col, newTestSplitter(t, 100, 10), embedder, testDimension)
	require.NoError(t, err)

	_, err = loader.Load(context.Background(), []core.SourceRecord{{ID: "p1", Description: "hello"}})
	assert.ErrorIs(t, err, ai.ErrEmbeddingService)
	assert.Zero(t, countEntries(t, col))
}

func TestLoad_InvalidRecord(t *testing.T) {
	col := newTestCollection(t, testDimension)
	embedder := mock.NewMockEmbedder().WithDimension(testDimension)

	loader, err := NewLoader(col, newTestSplitter(t, 100, 10), embedder, testDimension)
	require.NoError(t, err)

	summary, err := loader.Load(context.Background(), []core.SourceRecord{{ID: " ", Description: "text"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInvalidSourceRecord)
	assert.Equal(t, 1, summary.RecordsFailed)
	assert.Zero(t, embedder.CallCount())
}

func TestLoad_ContinueOnError(t *testing.T) {
	col := newTestCollection(t, testDimension)
	embedder := mock.NewMockEmbedder().WithDimension(testDimension)
	embedder.WithEmbedTextFunc(func(ctx context.Context, text string) ([]float32, error) {
		if strings.Contains(text, "bad") {
			return nil, errors.New("rejected input")
		}
		return mock.GenerateDeterministicVector(text, testDimension), nil
	})

	loader, err := NewLoader(col, newTestSplitter(t, 100, 10), embedder, testDimension, WithContinueOnError(true))
	require.NoError(t, err)

	records := []core.SourceRecord{
		{ID: "p1", Description: "good one"},
		{ID: "p2", Description: "bad one"},
		{ID: "p3", Description: ""},
		{ID: "p4", Description: "also bad"},
		{ID: "p5", Description: "good two"},
	}

	summary, err := loader.Load(context.Background(), records)
	require.Error(t, err)
	assert.ErrorIs(t, err, ai.ErrEmbeddingService)

	assert.Equal(t, 3, summary.RecordsProcessed)
	assert.Equal(t, 1, summary.RecordsSkipped)
	assert.Equal(t, 2, summary.RecordsFailed)
	assert.Equal(t, 2, summary.EntriesWritten)
	require.Len(t, summary.Failures, 2)

	var first, second *ChunkError
	require.ErrorAs(t, summary.Failures[0], &first)
	require.ErrorAs(t, summary.Failures[1], &second)
	assert.Equal(t, "p2", first.RecordID)
	assert.Equal(t, "p4", second.RecordID)
	assert.Equal(t, 2, countEntries(t, col))
}

func TestLoad_AppendDuplicatesOnRerun(t *testing.T) {
	col := newTestCollection(t, testDimension)
	embedder := mock.NewMockEmbedder().WithDimension(testDimension)

	loader, err := NewLoader(col, newTestSplitter(t, 100, 0), embedder, testDimension)
	require.NoError(t, err)

	records := []core.SourceRecord{{ID: "p1", Description: strings.Repeat("B", 250)}}

	_, err = loader.Load(context.Background(), records)
	require.NoError(t, err)
	assert.Equal(t, 3, countEntries(t, col))

	_, err = loader.Load(context.Background(), records)
	require.NoError(t, err)
	assert.Equal(t, 6, countEntries(t, col), "append mode duplicates on rerun")
}

func TestLoad_UpsertIsStableOnRerun(t *testing.T) {
	ctx := context.Background()
	col := newTestCollection(t, testDimension)
	embedder := mock.NewMockEmbedder().WithDimension(testDimension)

	loader, err := NewLoader(col, newTestSplitter(t, 100, 0), embedder, testDimension, WithWriteMode(WriteModeUpsert))
	require.NoError(t, err)

	records := []core.SourceRecord{{ID: "p1", Description: strings.Repeat("B", 250)}}

	for range 3 {
		summary, err := loader.Load(ctx, records)
		require.NoError(t, err)
		assert.Equal(t, 3, summary.EntriesWritten)
	}
	assert.Equal(t, 3, countEntries(t, col), "upsert mode replaces on rerun")

	entries, err := col.FindByDocumentID(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for _, entry := range entries {
		assert.Equal(t, core.EntryKey("p1", entry.Sequence), entry.ID)
	}
}

func TestLoad_Workers(t *testing.T) {
	ctx := context.Background()
	col := newTestCollection(t, testDimension)
	embedder := mock.NewMockEmbedder().WithDimension(testDimension)

	loader, err := NewLoader(col, newTestSplitter(t, 50, 10), embedder, testDimension,
		WithWorkers(4),
		WithEmbedConcurrency(3),
	)
	require.NoError(t, err)

	records := make([]core.SourceRecord, 25)
	for i := range records {
		records[i] = core.SourceRecord{
			ID:          fmt.Sprintf("p%d", i),
			Description: strings.Repeat(fmt.Sprintf("word%d ", i), 20),
		}
	}

	summary, err := loader.Load(ctx, records)
	require.NoError(t, err)
	assert.Equal(t, 25, summary.RecordsProcessed)
	assert.Equal(t, summary.ChunksEmbedded, summary.EntriesWritten)
	assert.Equal(t, summary.EntriesWritten, countEntries(t, col))

	splitter := newTestSplitter(t, 50, 10)
	for _, record := range records {
		chunks, err := splitter.Split(record.ID, record.Description)
		require.NoError(t, err)

		entries, err := col.FindByDocumentID(ctx, record.ID)
		require.NoError(t, err)
		require.Len(t, entries, len(chunks), "record %s is complete", record.ID)
		for i, entry := range entries {
			assert.Equal(t, chunks[i].Text, entry.Description)
			assert.Equal(t, chunks[i].Sequence, entry.Sequence)
		}
	}
}

func TestLoad_EmbedConcurrencyFailureWritesNothing(t *testing.T) {
	col := newTestCollection(t, testDimension)
	embedder := mock.NewMockEmbedder().WithEmbedTextFunc(func(ctx context.Context, text string) ([]float32, error) {
		if strings.HasPrefix(text, "C") {
			return nil, errors.New("boom")
		}
		return mock.GenerateDeterministicVector(text, testDimension), nil
	})

	loader, err := NewLoader(col, newTestSplitter(t, 10, 0), embedder, testDimension, WithEmbedConcurrency(4))
	require.NoError(t, err)

	_, err = loader.Load(context.Background(), []core.SourceRecord{{ID: "p1", Description: "AAAAAAAAAABBBBBBBBBBCCCCCCCCCC"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ai.ErrEmbeddingService)
	assert.Zero(t, countEntries(t, col), "record is written only after every embed succeeds")
}

func TestLoad_Cancelled(t *testing.T) {
	col := newTestCollection(t, testDimension)
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	embedder := mock.NewMockEmbedder().WithEmbedTextFunc(func(_ context.Context, text string) ([]float32, error) {
		calls++
		if calls == 2 {
			cancel()
		}
		return mock.GenerateDeterministicVector(text, testDimension), nil
	})

	loader, err := NewLoader(col, newTestSplitter(t, 100, 0), embedder, testDimension)
	require.NoError(t, err)

	records := []core.SourceRecord{
		{ID: "p1", Description: "one"},
		{ID: "p2", Description: "two"},
		{ID: "p3", Description: "three"},
	}

	summary, err := loader.Load(ctx, records)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, summary.RecordsFailed, "cancellation is not a record failure")
	assert.Equal(t, 1, summary.RecordsProcessed)
	assert.Equal(t, 1, countEntries(t, col), "entries written before cancel remain")
}

func TestLoad_Progress(t *testing.T) {
	col := newTestCollection(t, testDimension)
	embedder := mock.NewMockEmbedder().WithDimension(testDimension)

	var buf bytes.Buffer
	loader, err := NewLoader(col, newTestSplitter(t, 100, 0), embedder, testDimension, WithProgress(&buf, 1))
	require.NoError(t, err)

	_, err = loader.Load(context.Background(), []core.SourceRecord{
		{ID: "p1", Description: "one"},
		{ID: "p2", Description: "two"},
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "2/2 records")
	assert.Contains(t, buf.String(), "2 entries")
}

func TestLoad_NoRecords(t *testing.T) {
	col := newTestCollection(t, testDimension)
	loader, err := NewLoader(col, newTestSplitter(t, 100, 0), mock.NewMockEmbedder(), testDimension)
	require.NoError(t, err)

	summary, err := loader.Load(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, summary.RecordsProcessed)
	assert.Contains(t, summary.String(), "processed=0")
}

func TestChunkError(t *testing.T) {
	err := &ChunkError{RecordID: "p1", Sequence: 3, Err: ErrStoreWrite}
	assert.Equal(t, `record "p1" chunk 3: store write failed`, err.Error())
	assert.ErrorIs(t, err, ErrStoreWrite)

	recordErr := &ChunkError{RecordID: "p1", Err: core.ErrInvalidSourceRecord}
	assert.Equal(t, `record "p1": invalid source record`, recordErr.Error())
}
