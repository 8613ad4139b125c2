package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
)

// RateLimiter is a sliding-window limiter keyed per provider, bounding
// how many requests a provider's concurrency budget lets through within
// a rolling window, on top of the in-process semaphore the gateway
// already applies.
type RateLimiter struct {
	client *Client
}

// NewRateLimiter builds a RateLimiter.
func NewRateLimiter(client *Client) *RateLimiter {
	return &RateLimiter{client: client}
}

// Allow reports whether one more request fits within limit over window,
// recording the request if it does.
func (l *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	ctx, span := tracer.Start(ctx, "ratelimit.Allow")
	span.SetAttributes(
		attribute.String("ratelimit.key", key),
		attribute.Int("ratelimit.limit", limit),
		attribute.Int64("ratelimit.window_ms", window.Milliseconds()),
	)
	defer span.End()

	now := time.Now().UnixMilli()
	windowStart := now - window.Milliseconds()

	pipe := l.client.rdb.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", windowStart))
	countCmd := pipe.ZCard(ctx, key)

	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return false, err
	}

	count := countCmd.Val()
	span.SetAttributes(attribute.Int64("ratelimit.current_count", count))

	if count >= int64(limit) {
		span.SetAttributes(attribute.Bool("ratelimit.allowed", false))
		return false, nil
	}

	l.client.rdb.ZAdd(ctx, key, redis.Z{Score: float64(now), Member: fmt.Sprintf("%d", now)})
	l.client.rdb.Expire(ctx, key, window*2)

	span.SetAttributes(attribute.Bool("ratelimit.allowed", true))
	return true, nil
}

// Remaining returns the quota left in the current window.
func (l *RateLimiter) Remaining(ctx context.Context, key string, limit int, window time.Duration) (int, error) {
	ctx, span := tracer.Start(ctx, "ratelimit.Remaining")
	span.SetAttributes(attribute.String("ratelimit.key", key))
	defer span.End()

	now := time.Now().UnixMilli()
	windowStart := now - window.Milliseconds()

	pipe := l.client.rdb.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", windowStart))
	countCmd := pipe.ZCard(ctx, key)

	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return 0, err
	}

	remaining := limit - int(countCmd.Val())
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// Reset clears a limiter key, used by tests and admin tooling.
func (l *RateLimiter) Reset(ctx context.Context, key string) error {
	ctx, span := tracer.Start(ctx, "ratelimit.Reset")
	span.SetAttributes(attribute.String("ratelimit.key", key))
	defer span.End()

	return l.client.rdb.Del(ctx, key).Err()
}

// BuildProviderRateLimitKey builds the limiter key for a given provider.
func BuildProviderRateLimitKey(provider string) string {
	return fmt.Sprintf("ratelimit:provider:%s", provider)
}

const inFlightKeyPrefix = "inflight:"

// InFlightTracker marks a (project, chapter) generation as in progress
// across process instances, complementing the in-process singleflight
// coalescing the generator already does within one process.
type InFlightTracker struct {
	client *Client
}

// NewInFlightTracker builds an InFlightTracker.
func NewInFlightTracker(client *Client) *InFlightTracker {
	return &InFlightTracker{client: client}
}

func inFlightKey(projectID string, chapterNumber int) string {
	return fmt.Sprintf("%sgeneration:%s:%d", inFlightKeyPrefix, projectID, chapterNumber)
}

// TryAcquire claims the in-flight slot for (projectID, chapterNumber),
// returning false if another process already holds it. The slot expires
// after ttl even if Release is never called, so a crashed worker can't
// wedge a chapter permanently.
func (t *InFlightTracker) TryAcquire(ctx context.Context, projectID string, chapterNumber int, owner string, ttl time.Duration) (bool, error) {
	ctx, span := tracer.Start(ctx, "inflight.TryAcquire")
	span.SetAttributes(attribute.String("inflight.key", inFlightKey(projectID, chapterNumber)))
	defer span.End()

	ok, err := t.client.rdb.SetNX(ctx, inFlightKey(projectID, chapterNumber), owner, ttl).Result()
	if err != nil {
		span.RecordError(err)
		return false, err
	}
	return ok, nil
}

// Release clears the in-flight slot, making the chapter eligible for a
// fresh generation attempt.
func (t *InFlightTracker) Release(ctx context.Context, projectID string, chapterNumber int) error {
	ctx, span := tracer.Start(ctx, "inflight.Release")
	defer span.End()

	if err := t.client.rdb.Del(ctx, inFlightKey(projectID, chapterNumber)).Err(); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}
