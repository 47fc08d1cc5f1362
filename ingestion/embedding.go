package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"maps"

	"github.com/poiesic/vecload/ai"
	"github.com/poiesic/vecload/chunking"
	"github.com/poiesic/vecload/core"
	"github.com/poiesic/vecload/storage"
	"golang.org/x/sync/errgroup"
)

// embeddingProcessor turns a record into chunks, embeds each chunk and
// writes one entry per chunk.
type embeddingProcessor struct {
	collection  storage.Collection
	splitter    *chunking.Splitter
	embedder    ai.Embedder
	dimension   int
	writeMode   WriteMode
	concurrency int
	logger      *slog.Logger
}

var _ processor = (*embeddingProcessor)(nil)

// process runs Chunking, then Embedding and Writing for every chunk in order.
func (ep *embeddingProcessor) process(ctx context.Context, record *core.SourceRecord) recordResult {
	var result recordResult

	if err := core.ValidateSourceRecord(record); err != nil {
		id := ""
		if record != nil {
			id = record.ID
		}
		result.err = &ChunkError{RecordID: id, Err: err}
		return result
	}

	chunks, err := ep.splitter.Split(record.ID, record.Description)
	if err != nil {
		result.err = &ChunkError{RecordID: record.ID, Err: err}
		return result
	}
	result.chunks = len(chunks)
	if len(chunks) == 0 {
		ep.logger.Debug("record has no text, skipping", "record", record.ID)
		result.skipped = true
		return result
	}

	ep.logger.Debug("loading record", "record", record.ID, "chunks", len(chunks))

	if ep.concurrency > 1 {
		ep.processConcurrent(ctx, record, chunks, &result)
	} else {
		ep.processSequential(ctx, record, chunks, &result)
	}
	return result
}

// processSequential embeds and writes one chunk at a time.
func (ep *embeddingProcessor) processSequential(ctx context.Context, record *core.SourceRecord, chunks []core.Chunk, result *recordResult) {
	for _, chunk := range chunks {
		vector, err := ep.embed(ctx, chunk)
		if err != nil {
			result.err = err
			return
		}
		result.embedded++

		if err := ep.write(ctx, record, chunk, vector); err != nil {
			result.err = err
			return
		}
		result.written++
	}
}

// processConcurrent embeds all chunks with bounded concurrency, then writes
// them in sequence order. Nothing is written if any embed fails.
func (ep *embeddingProcessor) processConcurrent(ctx context.Context, record *core.SourceRecord, chunks []core.Chunk, result *recordResult) {
	vectors := make([][]float32, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ep.concurrency)
	for i, chunk := range chunks {
		g.Go(func() error {
			vector, err := ep.embed(gctx, chunk)
			if err != nil {
				return err
			}
			vectors[i] = vector
			return nil
		})
	}
	err := g.Wait()
	for _, v := range vectors {
		if v != nil {
			result.embedded++
		}
	}
	if err != nil {
		result.err = err
		return
	}

	for i, chunk := range chunks {
		if err := ep.write(ctx, record, chunk, vectors[i]); err != nil {
			result.err = err
			return
		}
		result.written++
	}
}

// embed calls the embedder once and checks the vector length.
func (ep *embeddingProcessor) embed(ctx context.Context, chunk core.Chunk) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, &ChunkError{RecordID: chunk.SourceID, Sequence: chunk.Sequence, Err: err}
	}

	vector, err := ep.embedder.EmbedText(ctx, chunk.Text)
	if err == nil && len(vector) == 0 {
		err = fmt.Errorf("empty embedding")
	}
	if err != nil {
		ep.logger.Error("embedding failed", "record", chunk.SourceID, "sequence", chunk.Sequence, "err", err)
		return nil, &ChunkError{RecordID: chunk.SourceID, Sequence: chunk.Sequence, Err: ai.ServiceError(err)}
	}

	if len(vector) != ep.dimension {
		err := fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, ep.dimension, len(vector))
		ep.logger.Error("embedding has wrong dimension", "record", chunk.SourceID, "sequence", chunk.Sequence, "err", err)
		return nil, &ChunkError{RecordID: chunk.SourceID, Sequence: chunk.Sequence, Err: err}
	}
	return vector, nil
}

// write stores one entry with InsertOne or UpsertOne depending on the write mode.
func (ep *embeddingProcessor) write(ctx context.Context, record *core.SourceRecord, chunk core.Chunk, vector []float32) error {
	if err := ctx.Err(); err != nil {
		return &ChunkError{RecordID: record.ID, Sequence: chunk.Sequence, Err: err}
	}

	entry := &core.VectorEntry{
		DocumentID:  record.ID,
		Sequence:    chunk.Sequence,
		Vector:      vector,
		Info:        maps.Clone(record.Info),
		Description: chunk.Text,
	}

	var err error
	switch ep.writeMode {
	case WriteModeUpsert:
		entry.ID = core.EntryKey(record.ID, chunk.Sequence)
		err = ep.collection.UpsertOne(ctx, entry)
	default:
		err = ep.collection.InsertOne(ctx, entry)
	}
	if err != nil {
		ep.logger.Error("store write failed", "record", record.ID, "sequence", chunk.Sequence, "err", err)
		return &ChunkError{RecordID: record.ID, Sequence: chunk.Sequence, Err: fmt.Errorf("%w: %w", ErrStoreWrite, err)}
	}
	return nil
}
