// Package goopenai provides an ai.Embedder built on github.com/sashabaranov/go-openai.
//
// The client reads data[i].embedding from the /embeddings response and
// reorders results by their index, so every input gets exactly its own vector.
package goopenai

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"

	"github.com/poiesic/vecload/ai"
	openai "github.com/sashabaranov/go-openai"
)

// Embedder implements ai.Embedder with go-openai.
type Embedder struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
	batchSize  int
	logger     *slog.Logger
}

var _ ai.Embedder = (*Embedder)(nil)

// Provider implements ai.EmbeddingProvider with go-openai.
type Provider struct {
	embedder *Embedder
}

// NewProvider creates a provider whose embedder uses go-openai.
func NewProvider(config *ai.Config) (ai.EmbeddingProvider, error) {
	embedder, err := newEmbedder(config)
	if err != nil {
		return nil, err
	}
	return &Provider{embedder: embedder}, nil
}

// Embedder returns the text embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Close is a no-op; go-openai holds no resources beyond its HTTP client.
func (p *Provider) Close() error {
	return nil
}

// NewEmbedder creates a go-openai backed embedder.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(config)
}

func newEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	clientConfig := openai.DefaultConfig(config.Token())
	clientConfig.BaseURL = config.EmbeddingHost
	clientConfig.HTTPClient = &http.Client{Timeout: config.Timeout}

	return &Embedder{
		client:     openai.NewClientWithConfig(clientConfig),
		model:      openai.EmbeddingModel(config.EmbeddingModel),
		dimensions: config.Dimensions,
		batchSize:  config.BatchSize,
		logger:     slog.Default().With("component", "goopenai-embedder"),
	}, nil
}

// EmbedText generates a vector embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	e.logger.Debug("generating embedding for single text", "length", len(text))

	vectors, err := e.create(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts generates embeddings in batches of at most BatchSize texts.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	e.logger.Debug("generating embeddings for texts", "count", len(texts))

	result := make([][]float32, 0, len(texts))
	for batch := range slices.Chunk(texts, e.batchSize) {
		vectors, err := e.create(ctx, batch)
		if err != nil {
			return nil, err
		}
		result = append(result, vectors...)
	}
	return result, nil
}

func (e *Embedder) create(ctx context.Context, input []string) ([][]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input:      input,
		Model:      e.model,
		Dimensions: e.dimensions,
	})
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(input), "err", err)
		return nil, ai.ServiceError(err)
	}

	vectors := make([][]float32, len(input))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(input) {
			return nil, fmt.Errorf("%w: embedding index %d out of range", ai.ErrEmbeddingService, d.Index)
		}
		vectors[d.Index] = d.Embedding
	}
	if err := ai.CheckEmbeddings(vectors, len(input)); err != nil {
		return nil, err
	}
	return vectors, nil
}
