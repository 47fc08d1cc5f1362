// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package vecload wires a vector store, an embedding provider and a
// splitter from one configuration and hands out the provisioning and
// loading steps.
package vecload

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/vecload/ai"
	"github.com/poiesic/vecload/ai/goopenai"
	"github.com/poiesic/vecload/ai/openai"
	"github.com/poiesic/vecload/chunking"
	"github.com/poiesic/vecload/core"
	"github.com/poiesic/vecload/ingestion"
	"github.com/poiesic/vecload/storage"
	"github.com/poiesic/vecload/storage/astra"
	"github.com/poiesic/vecload/storage/badger"
)

// StoreKind selects the vector store backend.
type StoreKind string

const (
	StoreBadger StoreKind = "badger"
	StoreAstra  StoreKind = "astra"
)

const (
	// DefaultCollection is the collection loaded when none is configured.
	DefaultCollection = "portfolio"

	// DefaultDimension matches text-embedding-3-small.
	DefaultDimension = 1536
)

type pipelineOptions struct {
	storeKind    StoreKind
	badgerPath   string
	astraConfig  astra.Config
	aiConfig     *ai.Config
	collection   string
	dimension    int
	chunkOptions []chunking.Option
	maxAttempts  int
	retryDelay   time.Duration
	rateLimit    float64
	rateBurst    int
	store        storage.CollectionStore
	provider     ai.EmbeddingProvider
}

// Option configures a Pipeline.
type Option func(*pipelineOptions)

// WithBadger stores entries in an embedded BadgerDB database at path.
// This is the default, with path "vecload.db".
func WithBadger(path string) Option {
	return func(o *pipelineOptions) {
		o.storeKind = StoreBadger
		o.badgerPath = path
	}
}

// WithAstra stores entries in Astra DB through the Data API.
func WithAstra(config astra.Config) Option {
	return func(o *pipelineOptions) {
		o.storeKind = StoreAstra
		o.astraConfig = config
	}
}

// WithStore uses an already opened store. The Pipeline closes it.
func WithStore(store storage.CollectionStore) Option {
	return func(o *pipelineOptions) {
		o.store = store
	}
}

// WithAIConfig sets the embedding service configuration.
func WithAIConfig(config *ai.Config) Option {
	return func(o *pipelineOptions) {
		o.aiConfig = config
	}
}

// WithEmbeddingProvider uses an already constructed provider. The Pipeline closes it.
func WithEmbeddingProvider(provider ai.EmbeddingProvider) Option {
	return func(o *pipelineOptions) {
		o.provider = provider
	}
}

// WithCollection sets the destination collection name.
func WithCollection(name string) Option {
	return func(o *pipelineOptions) {
		o.collection = name
	}
}

// WithDimension sets the vector dimension of the collection.
func WithDimension(dimension int) Option {
	return func(o *pipelineOptions) {
		o.dimension = dimension
	}
}

// WithChunking passes options to the splitter.
func WithChunking(opts ...chunking.Option) Option {
	return func(o *pipelineOptions) {
		o.chunkOptions = append(o.chunkOptions, opts...)
	}
}

// WithRetry wraps the embedder with exponential backoff. maxAttempts of 1
// disables retries.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(o *pipelineOptions) {
		o.maxAttempts = maxAttempts
		o.retryDelay = baseDelay
	}
}

// WithRateLimit caps embedding calls at requestsPerSecond with bursts of
// up to burst calls. Zero disables the limit.
func WithRateLimit(requestsPerSecond float64, burst int) Option {
	return func(o *pipelineOptions) {
		o.rateLimit = requestsPerSecond
		o.rateBurst = burst
	}
}

// Pipeline owns the store and embedding provider of one load target.
type Pipeline struct {
	store      storage.CollectionStore
	provider   ai.EmbeddingProvider
	embedder   ai.Embedder
	splitter   *chunking.Splitter
	collection string
	dimension  int
	logger     *slog.Logger
}

// NewPipeline validates the configuration and opens the store and
// embedding provider. Configuration problems wrap core.ErrConfiguration and
// are reported before anything is opened.
func NewPipeline(opts ...Option) (*Pipeline, error) {
	options := &pipelineOptions{
		storeKind:   StoreBadger,
		badgerPath:  "vecload.db",
		aiConfig:    ai.DefaultConfig(),
		collection:  DefaultCollection,
		dimension:   DefaultDimension,
		maxAttempts: 1,
	}
	for _, opt := range opts {
		opt(options)
	}

	if err := core.ValidateCollectionName(options.collection); err != nil {
		return nil, err
	}
	if options.dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive, got %d", core.ErrConfiguration, options.dimension)
	}
	if options.rateLimit < 0 {
		return nil, fmt.Errorf("%w: rate limit must not be negative, got %g", core.ErrConfiguration, options.rateLimit)
	}
	if options.maxAttempts < 1 {
		return nil, fmt.Errorf("%w: %w", core.ErrConfiguration, ai.ErrInvalidMaxAttempts)
	}
	splitter, err := chunking.New(options.chunkOptions...)
	if err != nil {
		return nil, err
	}
	if options.provider == nil {
		if err := options.aiConfig.Validate(); err != nil {
			return nil, err
		}
	}

	store := options.store
	if store == nil {
		store, err = openStore(options)
		if err != nil {
			return nil, err
		}
	}

	provider := options.provider
	if provider == nil {
		provider, err = newProvider(options.aiConfig)
		if err != nil {
			store.Close()
			return nil, err
		}
	}

	embedder, err := wrapEmbedder(provider.Embedder(), options)
	if err != nil {
		provider.Close()
		store.Close()
		return nil, err
	}

	return &Pipeline{
		store:      store,
		provider:   provider,
		embedder:   embedder,
		splitter:   splitter,
		collection: options.collection,
		dimension:  options.dimension,
		logger:     slog.Default().With("component", "vecload"),
	}, nil
}

// wrapEmbedder applies the rate limit under the retry wrapper so that every
// attempt waits for a token.
func wrapEmbedder(embedder ai.Embedder, options *pipelineOptions) (ai.Embedder, error) {
	var err error
	if options.rateLimit > 0 {
		if embedder, err = ai.NewRateLimitedEmbedder(embedder, options.rateLimit, options.rateBurst); err != nil {
			return nil, err
		}
	}
	if options.maxAttempts > 1 {
		if embedder, err = ai.NewRetryEmbedder(embedder, options.maxAttempts, options.retryDelay); err != nil {
			return nil, err
		}
	}
	return embedder, nil
}

func openStore(options *pipelineOptions) (storage.CollectionStore, error) {
	switch options.storeKind {
	case StoreBadger:
		return badger.NewStore(options.badgerPath)
	case StoreAstra:
		return astra.NewStore(options.astraConfig)
	default:
		return nil, fmt.Errorf("%w: unknown store %q", core.ErrConfiguration, options.storeKind)
	}
}

func newProvider(config *ai.Config) (ai.EmbeddingProvider, error) {
	switch config.Backend {
	case ai.BackendOpenAI:
		return goopenai.NewProvider(config)
	default:
		return openai.NewProvider(config)
	}
}

// Close releases the embedding provider and the store.
func (p *Pipeline) Close() error {
	// Close AI provider first
	if err := p.provider.Close(); err != nil {
		p.logger.Error("error closing embedding provider", "err", err)
	}

	if err := p.store.Close(); err != nil {
		p.logger.Error("error closing store", "err", err)
		return err
	}
	return nil
}

// Store returns the underlying collection store.
func (p *Pipeline) Store() storage.CollectionStore {
	return p.store
}

// Collection returns the destination collection.
func (p *Pipeline) Collection() storage.Collection {
	return p.store.Collection(p.collection)
}

// Splitter returns the configured splitter.
func (p *Pipeline) Splitter() *chunking.Splitter {
	return p.splitter
}

// Provision ensures the destination collection exists.
func (p *Pipeline) Provision(ctx context.Context) (ingestion.ProvisionStatus, error) {
	provisioner, err := ingestion.NewProvisioner(p.store, p.logger)
	if err != nil {
		return 0, err
	}
	return provisioner.EnsureCollection(ctx, p.collection, p.dimension)
}

// NewLoader creates a Loader for the destination collection.
func (p *Pipeline) NewLoader(opts ...ingestion.Option) (*ingestion.Loader, error) {
	return ingestion.NewLoader(p.Collection(), p.splitter, p.embedder, p.dimension, opts...)
}

// Run provisions the collection once and loads records into it.
func (p *Pipeline) Run(ctx context.Context, records []core.SourceRecord, opts ...ingestion.Option) (*ingestion.Summary, error) {
	if _, err := p.Provision(ctx); err != nil {
		return nil, err
	}
	loader, err := p.NewLoader(opts...)
	if err != nil {
		return nil, err
	}
	return loader.Load(ctx, records)
}
