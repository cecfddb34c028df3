// Package retry implements the retry policy for range-request transport
// errors: a configurable number of attempts with exponential backoff and
// jitter. Integrity and decompression failures are never routed through
// here; only transport errors are retryable.
package retry

import (
	"context"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// Policy defines how a failed operation is retried.
type Policy struct {
	maxAttempts  int
	initialDelay time.Duration
	maxDelay     time.Duration
	multiplier   float64
	jitter       bool
	logger       *zap.Logger
}

// Option configures a Policy.
type Option func(*Policy)

// WithMaxAttempts sets the maximum number of attempts, including the first.
func WithMaxAttempts(n int) Option {
	return func(p *Policy) { p.maxAttempts = n }
}

// WithInitialDelay sets the delay before the first retry.
func WithInitialDelay(d time.Duration) Option {
	return func(p *Policy) { p.initialDelay = d }
}

// WithMaxDelay caps the backoff delay.
func WithMaxDelay(d time.Duration) Option {
	return func(p *Policy) { p.maxDelay = d }
}

// WithJitter enables or disables jitter, on by default.
func WithJitter(enabled bool) Option {
	return func(p *Policy) { p.jitter = enabled }
}

// WithLogger attaches a logger for retry attempts, nop by default.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Policy) { p.logger = logger }
}

// New builds a Policy with the defaults: 3 attempts, exponential backoff
// starting at 100ms, capped at 30s, with jitter.
func New(opts ...Option) *Policy {
	p := &Policy{
		maxAttempts:  3,
		initialDelay: 100 * time.Millisecond,
		maxDelay:     30 * time.Second,
		multiplier:   2.0,
		jitter:       true,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Execute runs fn, retrying on error up to maxAttempts times with
// exponential backoff. Context cancellation aborts immediately, including
// mid-backoff. The last error is returned once attempts are exhausted.
func (p *Policy) Execute(ctx context.Context, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt < p.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := fn(); err == nil {
			if attempt > 0 {
				p.logger.Debug("range fetch succeeded after retry",
					zap.Int("attempt", attempt+1),
					zap.Int("maxAttempts", p.maxAttempts))
			}
			return nil
		} else {
			lastErr = err
		}

		if attempt == p.maxAttempts-1 {
			break
		}

		delay := p.calculateDelay(attempt)
		p.logger.Debug("range fetch failed, retrying",
			zap.Error(lastErr),
			zap.Int("attempt", attempt+1),
			zap.Int("maxAttempts", p.maxAttempts),
			zap.Duration("delay", delay))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	p.logger.Error("range fetch failed after all retries",
		zap.Error(lastErr),
		zap.Int("attempts", p.maxAttempts))
	return lastErr
}

func (p *Policy) calculateDelay(attempt int) time.Duration {
	delay := float64(p.initialDelay) * math.Pow(p.multiplier, float64(attempt))
	if delay > float64(p.maxDelay) {
		delay = float64(p.maxDelay)
	}
	if p.jitter {
		jitter := 0.5 + rand.Float64()
		delay = delay * jitter
	}
	return time.Duration(delay)
}
