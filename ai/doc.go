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


// Package ai provides the embedding service boundary used by vecload.
//
// The package defines the Embedder interface, its configuration and the
// error every implementation reports when the remote service misbehaves.
// The loader depends only on these abstractions.
//
// # Implementation Packages
//
//   - ai/openai: langchaingo client for OpenAI-compatible APIs
//   - ai/goopenai: go-openai client for OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// Public constructors (openai.NewProvider, goopenai.NewEmbedder, etc.) return
// INTERFACE types. Test utility constructors (mock.NewMockEmbedder) return
// CONCRETE types so tests can inject behaviour and read call counts.
//
// # Errors
//
// A failed call, a timeout, or a response without data[0].embedding is
// reported as an error wrapping ErrEmbeddingService. Implementations never
// return an empty or zero vector in place of an error.
//
// # Retries
//
// Embedders do not retry on their own. Wrap one in a RetryEmbedder to get
// exponential backoff:
//
//	embedder, err := ai.NewRetryEmbedder(provider.Embedder(), 3, time.Second)
package ai
