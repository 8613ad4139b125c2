package llm

import (
	"context"
	"testing"
	"time"

	"github.com/loomtale/engine/pkg/ferrors"
)

func fastBackoff() BackoffConfig {
	return BackoffConfig{
		Initial:     time.Millisecond,
		Max:         5 * time.Millisecond,
		Multiplier:  2,
		MaxAttempts: 3,
	}
}

func TestWithRetrySucceedsOnFirstAttempt(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), fastBackoff(), func(ctx context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("WithRetry: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestWithRetryRetriesRetryableKindUntilSuccess(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), fastBackoff(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return ferrors.New(ferrors.KindTimeout, "slow")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithRetry: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestWithRetryStopsAtMaxAttempts(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), fastBackoff(), func(ctx context.Context) error {
		calls++
		return ferrors.New(ferrors.KindNetwork, "down")
	})
	if err == nil {
		t.Fatal("expected an error after exhausting retries")
	}
	if calls != 3 {
		t.Errorf("calls = %d, want MaxAttempts=3", calls)
	}
}

func TestWithRetryNeverRetriesNonRetryableKind(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), fastBackoff(), func(ctx context.Context) error {
		calls++
		return ferrors.New(ferrors.KindAuth, "bad key")
	})
	if err == nil {
		t.Fatal("expected an error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (AUTH is not retryable)", calls)
	}
}

func TestWithRetryRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := WithRetry(ctx, fastBackoff(), func(ctx context.Context) error {
		calls++
		return ferrors.New(ferrors.KindTimeout, "slow")
	})
	if err == nil {
		t.Fatal("expected an error when ctx is already cancelled")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (should not retry past an already-cancelled context)", calls)
	}
}

func TestCalculateBackoffStaysWithinCeiling(t *testing.T) {
	cfg := BackoffConfig{Initial: time.Second, Max: 4 * time.Second, Multiplier: 2, MaxAttempts: 5}
	for retryCount := 0; retryCount < 5; retryCount++ {
		d := cfg.CalculateBackoff(retryCount)
		if d < 0 || d > cfg.Max {
			t.Errorf("CalculateBackoff(%d) = %v, want within [0, %v]", retryCount, d, cfg.Max)
		}
	}
}

func TestClassifyHTTPStatus(t *testing.T) {
	cases := map[int]ferrors.Kind{
		401: ferrors.KindAuth,
		403: ferrors.KindAuth,
		429: ferrors.KindRateLimit,
		408: ferrors.KindTimeout,
		500: ferrors.KindProviderError,
		503: ferrors.KindProviderError,
		413: ferrors.KindContextOverflow,
		404: ferrors.KindProviderError,
	}
	for status, want := range cases {
		if got := ClassifyHTTPStatus(status); got != want {
			t.Errorf("ClassifyHTTPStatus(%d) = %s, want %s", status, got, want)
		}
	}
}
