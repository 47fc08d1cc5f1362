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


package openai

import (
	"log/slog"

	"github.com/poiesic/vecload/ai"
)

// Provider hands out a langchaingo embedder bound to one model.
type Provider struct {
	config   *ai.Config
	embedder *Embedder
	logger   *slog.Logger
}

// NewProvider validates config and builds the embedder. Nothing is sent to
// the service until the first embedding call.
func NewProvider(config *ai.Config) (ai.EmbeddingProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	embedder, err := newEmbedder(config)
	if err != nil {
		return nil, err
	}

	return &Provider{
		config:   config,
		embedder: embedder,
		logger:   slog.Default().With("component", "langchain-provider", "model", config.EmbeddingModel),
	}, nil
}

func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Close is a no-op; the HTTP client holds no per-provider resources.
func (p *Provider) Close() error {
	p.logger.Debug("provider closed")
	return nil
}
