package llm

import (
	"context"
	"math/rand"
	"time"

	"github.com/loomtale/engine/pkg/ferrors"
)

// BackoffConfig is the gateway's retry schedule: exponential backoff with
// full jitter.
type BackoffConfig struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
	MaxAttempts int
}

// DefaultBackoffConfig matches the gateway's documented retry policy:
// initial delay 1s, multiplier 2, cap 30s, up to 3 attempts.
func DefaultBackoffConfig() BackoffConfig {
	return BackoffConfig{
		Initial:     time.Second,
		Max:         30 * time.Second,
		Multiplier:  2,
		MaxAttempts: 3,
	}
}

// CalculateBackoff returns the delay before retryCount's retry, jittered
// uniformly over [0, ceiling) to avoid synchronized retries across
// concurrent callers.
func (c BackoffConfig) CalculateBackoff(retryCount int) time.Duration {
	ceiling := c.Initial
	for i := 0; i < retryCount; i++ {
		ceiling = time.Duration(float64(ceiling) * c.Multiplier)
		if ceiling > c.Max {
			ceiling = c.Max
			break
		}
	}
	if ceiling <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(ceiling)))
}

// WithRetry runs fn, retrying on *ferrors.Error values whose Kind is
// retryable, up to cfg.MaxAttempts total attempts. It never retries past
// ctx's cancellation.
func WithRetry(ctx context.Context, cfg BackoffConfig, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		fe := ferrors.As(lastErr)
		if !fe.Kind.Retryable() {
			return lastErr
		}
		if attempt == cfg.MaxAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(cfg.CalculateBackoff(attempt)):
		}
	}
	return lastErr
}

// ClassifyHTTPStatus maps a provider's HTTP status code to the gateway's
// closed failure-kind set. Kept here as a re-export for callers already
// importing this package; see ferrors.ClassifyHTTPStatus for the
// implementation shared with provider adapters that cannot import back
// into this package.
func ClassifyHTTPStatus(status int) ferrors.Kind {
	return ferrors.ClassifyHTTPStatus(status)
}
