package openai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/vecload/ai"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// Embedder implements ai.Embedder using OpenAI-compatible embedding APIs.
type Embedder struct {
	embedder *embeddings.EmbedderImpl
	config   ai.Config
	logger   *slog.Logger
}

var _ ai.Embedder = (*Embedder)(nil)

// newEmbedder is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	opts := []openai.Option{
		openai.WithBaseURL(config.EmbeddingHost),
		openai.WithToken(config.Token()),
		openai.WithEmbeddingModel(config.EmbeddingModel),
	}
	if config.Dimensions > 0 {
		opts = append(opts, openai.WithEmbeddingDimensions(config.Dimensions))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, err
	}

	embedder, err := embeddings.NewEmbedder(client,
		embeddings.WithStripNewLines(true),
		embeddings.WithBatchSize(config.BatchSize),
	)
	if err != nil {
		return nil, err
	}

	return &Embedder{
		embedder: embedder,
		config:   *config,
		logger:   slog.Default().With("component", "openai-embedder"),
	}, nil
}

// NewEmbedder creates a new embedder using the provided configuration.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(config)
}

// EmbedText generates a vector embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	e.logger.Debug("generating embedding for single text", "length", len(text))

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	vectors, err := e.embedder.EmbedDocuments(ctx, []string{text})
	if err != nil {
		e.logger.Error("failed to generate embedding", "err", err)
		return nil, ai.ServiceError(err)
	}

	if err := ai.CheckEmbeddings(vectors, 1); err != nil {
		e.logger.Warn("embedder returned no vector", "err", err)
		return nil, err
	}

	return vectors[0], nil
}

// EmbedTexts generates vector embeddings for multiple text strings in a batch.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	e.logger.Debug("generating embeddings for texts", "count", len(texts))

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, ai.ServiceError(err)
	}

	if err := ai.CheckEmbeddings(vectors, len(texts)); err != nil {
		return nil, fmt.Errorf("batch of %d: %w", len(texts), err)
	}

	return vectors, nil
}

func (e *Embedder) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.config.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.config.Timeout)
}
