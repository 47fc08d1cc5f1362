package ai

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimitedEmbedder spaces out calls to the embedding service with a
// token bucket. Batch calls take one token, like single calls.
type RateLimitedEmbedder struct {
	inner   Embedder
	limiter *rate.Limiter
}

var _ Embedder = (*RateLimitedEmbedder)(nil)

// NewRateLimitedEmbedder allows requestsPerSecond sustained calls with bursts
// of up to burst calls.
func NewRateLimitedEmbedder(inner Embedder, requestsPerSecond float64, burst int) (*RateLimitedEmbedder, error) {
	if inner == nil {
		return nil, fmt.Errorf("embedder required")
	}
	if requestsPerSecond <= 0 {
		return nil, fmt.Errorf("requests per second must be positive, got %g", requestsPerSecond)
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedEmbedder{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}, nil
}

func (r *RateLimitedEmbedder) wait(ctx context.Context) error {
	if err := r.limiter.Wait(ctx); err != nil {
		// Wait fails early when the deadline cannot be met
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("rate limit: %w", context.DeadlineExceeded)
	}
	return nil
}

// EmbedText waits for a token, then calls inner.EmbedText.
func (r *RateLimitedEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	return r.inner.EmbedText(ctx, text)
}

// EmbedTexts waits for a token, then calls inner.EmbedTexts.
func (r *RateLimitedEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	return r.inner.EmbedTexts(ctx, texts)
}
