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
	"context"
	"fmt"
	"log/slog"
	"time"
)

// RetryWithBackoff retries an operation with exponential backoff.
// maxAttempts: maximum number of attempts (must be > 0)
// baseDelay: base delay between retries (doubles on each retry)
// Returns the error from the last attempt if all attempts fail.
func RetryWithBackoff(ctx context.Context, operation func() error, maxAttempts int, baseDelay time.Duration) error {
	if maxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lastErr = operation()
		if lastErr == nil {
			if attempt > 1 {
				slog.Debug("operation succeeded after retry", "attempt", attempt)
			}
			return nil
		}

		slog.Debug("operation failed, will retry", "attempt", attempt, "maxAttempts", maxAttempts, "error", lastErr)

		if attempt == maxAttempts {
			break
		}

		// baseDelay * 2^(attempt-1)
		delay := baseDelay
		for i := 1; i < attempt; i++ {
			delay *= 2
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return lastErr
}

// RetryEmbedder wraps an Embedder and retries failed calls with exponential backoff.
// Retrying is opt-in: the pipeline itself never retries.
type RetryEmbedder struct {
	inner       Embedder
	maxAttempts int
	baseDelay   time.Duration
}

var _ Embedder = (*RetryEmbedder)(nil)

// NewRetryEmbedder wraps inner. maxAttempts counts the first call.
func NewRetryEmbedder(inner Embedder, maxAttempts int, baseDelay time.Duration) (*RetryEmbedder, error) {
	if inner == nil {
		return nil, fmt.Errorf("embedder required")
	}
	if maxAttempts <= 0 {
		return nil, ErrInvalidMaxAttempts
	}
	return &RetryEmbedder{
		inner:       inner,
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
	}, nil
}

// EmbedText retries inner.EmbedText until it succeeds or attempts run out.
func (r *RetryEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	var vector []float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		vector, err = r.inner.EmbedText(ctx, text)
		return err
	}, r.maxAttempts, r.baseDelay)
	if err != nil {
		return nil, ServiceError(fmt.Errorf("after %d attempts: %w", r.maxAttempts, err))
	}
	return vector, nil
}

// EmbedTexts retries inner.EmbedTexts until it succeeds or attempts run out.
func (r *RetryEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	var vectors [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		vectors, err = r.inner.EmbedTexts(ctx, texts)
		return err
	}, r.maxAttempts, r.baseDelay)
	if err != nil {
		return nil, ServiceError(fmt.Errorf("after %d attempts: %w", r.maxAttempts, err))
	}
	return vectors, nil
}
