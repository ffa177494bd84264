// Package ratelimit provides an EmbeddingService decorator that throttles
// calls to the wrapped provider and backs off on 429 responses.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultRequestsPerSecond = 5.0
	DefaultBurst             = 10
	DefaultMaxRetries        = 2
	DefaultBackoff           = 5 * time.Second
)

// Config holds rate limiting configuration.
type Config struct {
	// RequestsPerSecond is the sustained rate limit.
	RequestsPerSecond float64

	// Burst is the maximum burst size.
	Burst int

	// MaxRetries is how many times a rate-limited call is retried.
	// Zero uses the default; a negative value disables retries.
	MaxRetries int

	// Backoff is the wait applied after a 429 without a Retry-After header.
	Backoff time.Duration
}

// EmbeddingService wraps another EmbeddingService with a token bucket.
type EmbeddingService struct {
	next       driven.EmbeddingService
	limiter    *rate.Limiter
	maxRetries int
	backoff    time.Duration

	mu      sync.Mutex
	retryAt time.Time
}

// New wraps next with rate limiting.
func New(next driven.EmbeddingService, cfg Config) *EmbeddingService {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultBurst
	}
	switch {
	case cfg.MaxRetries == 0:
		cfg.MaxRetries = DefaultMaxRetries
	case cfg.MaxRetries < 0:
		cfg.MaxRetries = 0
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = DefaultBackoff
	}

	return &EmbeddingService{
		next:       next,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.Backoff,
	}
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	var out []float32
	err := s.do(ctx, func() error {
		var err error
		out, err = s.next.Embed(ctx, text)
		return err
	})
	return out, err
}

// EmbedBatch generates one embedding per text.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var out [][]float32
	err := s.do(ctx, func() error {
		var err error
		out, err = s.next.EmbedBatch(ctx, texts)
		return err
	})
	return out, err
}

// do waits for a token, calls fn, and retries after a backoff when the
// provider reports rate limiting.
func (s *EmbeddingService) do(ctx context.Context, fn func() error) error {
	for attempt := 0; ; attempt++ {
		if err := s.wait(ctx); err != nil {
			return err
		}

		err := fn()
		retryAfter, limited := embedding.IsRateLimited(err)
		if !limited || attempt >= s.maxRetries {
			return err
		}

		if retryAfter <= 0 {
			retryAfter = s.backoff
		}
		logger.Warn("Embedding provider rate limited, retrying in %s", retryAfter)
		s.recordRateLimit(retryAfter)
	}
}

// wait blocks until the backoff has passed and a token is available.
func (s *EmbeddingService) wait(ctx context.Context) error {
	s.mu.Lock()
	retryAt := s.retryAt
	s.mu.Unlock()

	if d := time.Until(retryAt); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return s.limiter.Wait(ctx)
}

func (s *EmbeddingService) recordRateLimit(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retryAt = time.Now().Add(d)
}

// Dimensions returns the wrapped service's vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.next.Dimensions()
}

// ModelName returns the wrapped service's model name.
func (s *EmbeddingService) ModelName() string {
	return s.next.ModelName()
}

// Ping checks the wrapped service without consuming a token.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}

// Close closes the wrapped service.
func (s *EmbeddingService) Close() error {
	return s.next.Close()
}
