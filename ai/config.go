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


package ai

import (
	"fmt"
	"strings"
	"time"

	"github.com/poiesic/vecload/core"
)

// Backend names the client library used to reach the embedding service.
type Backend string

const (
	// BackendLangChain talks to the service through langchaingo.
	BackendLangChain Backend = "langchain"

	// BackendOpenAI talks to the service through go-openai.
	BackendOpenAI Backend = "openai"
)

// Config holds configuration for embedding service providers.
type Config struct {
	// Backend selects the client implementation.
	// Default: BackendLangChain
	Backend Backend

	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "https://api.openai.com/v1" or "http://localhost:11434/v1"
	EmbeddingHost string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "text-embedding-3-small"
	EmbeddingModel string

	// APIKey authenticates against the service. Local OpenAI-compatible
	// servers usually accept any value, so it may be left empty.
	APIKey string

	// Dimensions asks the service for vectors of this length.
	// Zero leaves the model default in place.
	Dimensions int

	// Timeout bounds a single embedding call. Zero disables the bound.
	// Default: 30s
	Timeout time.Duration

	// BatchSize caps how many texts are sent per request by EmbedTexts.
	// Default: 64
	BatchSize int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithBackend sets the client implementation.
func WithBackend(backend Backend) ConfigOption {
	return func(c *Config) {
		c.Backend = backend
	}
}

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithDimensions requests vectors of a specific length.
func WithDimensions(dimensions int) ConfigOption {
	return func(c *Config) {
		c.Dimensions = dimensions
	}
}

// WithTimeout bounds a single embedding call.
func WithTimeout(timeout time.Duration) ConfigOption {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// WithBatchSize caps the number of texts per request.
func WithBatchSize(size int) ConfigOption {
	return func(c *Config) {
		c.BatchSize = size
	}
}

// DefaultConfig returns a Config targeting the hosted OpenAI API with
// text-embedding-3-small, whose vectors have 1536 dimensions.
func DefaultConfig() *Config {
	return &Config{
		Backend:        BackendLangChain,
		EmbeddingHost:  "https://api.openai.com/v1",
		EmbeddingModel: "text-embedding-3-small",
		Timeout:        30 * time.Second,
		BatchSize:      64,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithEmbeddingHost("http://localhost:11434/v1"),
//	    WithEmbeddingModel("nomic-embed-text"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It automatically adds the /v1 suffix to the host if missing, which is required
// by most OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc).
func (c *Config) Normalize() {
	if c.EmbeddingHost != "" && !strings.HasSuffix(c.EmbeddingHost, "/v1") {
		c.EmbeddingHost = strings.TrimSuffix(c.EmbeddingHost, "/")
		c.EmbeddingHost = c.EmbeddingHost + "/v1"
	}
	if c.Backend == "" {
		c.Backend = BackendLangChain
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
// All failures wrap core.ErrConfiguration.
func (c *Config) Validate() error {
	c.Normalize()

	if c.Backend != BackendLangChain && c.Backend != BackendOpenAI {
		return fmt.Errorf("%w: ai config: unknown backend %q", core.ErrConfiguration, c.Backend)
	}
	if c.EmbeddingHost == "" {
		return fmt.Errorf("%w: ai config: EmbeddingHost is required", core.ErrConfiguration)
	}
	if c.EmbeddingModel == "" {
		return fmt.Errorf("%w: ai config: EmbeddingModel is required", core.ErrConfiguration)
	}
	if c.Dimensions < 0 {
		return fmt.Errorf("%w: ai config: Dimensions must not be negative", core.ErrConfiguration)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: ai config: Timeout must not be negative", core.ErrConfiguration)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("%w: ai config: BatchSize must be at least 1", core.ErrConfiguration)
	}
	return nil
}

// Token returns the API key, or a placeholder for servers that need none.
func (c *Config) Token() string {
	if c.APIKey == "" {
		return "none"
	}
	return c.APIKey
}
