package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/loomtale/engine/internal/domain/entity"
)

var cacheTracer = otel.Tracer("redis.cache")

const sessionKeyPrefix = "session:"

// SessionCache is a read-through cache of entity.Session in front of the
// durable repository, so a session's turn history need not round-trip to
// Postgres on every message. The engine's own wiring does not construct
// one: Chat and ChatStream share the agent package's in-process session
// cache.
type SessionCache struct {
	client *Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewSessionCache builds a SessionCache with the given entry TTL.
func NewSessionCache(client *Client, ttl time.Duration) *SessionCache {
	return &SessionCache{client: client, ttl: ttl}
}

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

// Get returns the cached session, or nil on a cache miss.
func (c *SessionCache) Get(ctx context.Context, sessionID string) (*entity.Session, error) {
	ctx, span := cacheTracer.Start(ctx, "cache.Get",
		trace.WithAttributes(attribute.String("cache.key", sessionID)))
	defer span.End()

	val, err := c.client.rdb.Get(ctx, sessionKey(sessionID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			span.SetAttributes(attribute.Bool("cache.hit", false))
			return nil, nil
		}
		span.RecordError(err)
		return nil, err
	}

	var session entity.Session
	if err := json.Unmarshal(val, &session); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to unmarshal cached session: %w", err)
	}

	span.SetAttributes(attribute.Bool("cache.hit", true))
	return &session, nil
}

// Set writes session into the cache with the configured TTL.
func (c *SessionCache) Set(ctx context.Context, session *entity.Session) error {
	ctx, span := cacheTracer.Start(ctx, "cache.Set",
		trace.WithAttributes(attribute.String("cache.key", session.SessionID)))
	defer span.End()

	bytes, err := json.Marshal(session)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := c.client.rdb.Set(ctx, sessionKey(session.SessionID), bytes, c.ttl).Err(); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// GetOrLoad returns the cached session, loading and caching it through
// loader on a miss. Concurrent misses for the same session are coalesced
// through singleflight so a burst of messages against a cold session
// triggers one repository load, not one per message.
func (c *SessionCache) GetOrLoad(ctx context.Context, sessionID string, loader func() (*entity.Session, error)) (*entity.Session, error) {
	ctx, span := cacheTracer.Start(ctx, "cache.GetOrLoad",
		trace.WithAttributes(attribute.String("cache.key", sessionID)))
	defer span.End()

	if session, err := c.Get(ctx, sessionID); err != nil {
		return nil, err
	} else if session != nil {
		return session, nil
	}

	result, err, shared := c.group.Do(sessionID, func() (interface{}, error) {
		if session, err := c.Get(ctx, sessionID); err != nil {
			return nil, err
		} else if session != nil {
			return session, nil
		}

		session, err := loader()
		if err != nil {
			return nil, err
		}
		if session != nil {
			if err := c.Set(ctx, session); err != nil {
				span.RecordError(err)
			}
		}
		return session, nil
	})

	span.SetAttributes(attribute.Bool("cache.shared", shared))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if result == nil {
		return nil, nil
	}
	return result.(*entity.Session), nil
}

// Invalidate drops a session from the cache, forcing the next GetOrLoad
// to reload from the repository.
func (c *SessionCache) Invalidate(ctx context.Context, sessionID string) error {
	ctx, span := cacheTracer.Start(ctx, "cache.Invalidate",
		trace.WithAttributes(attribute.String("cache.key", sessionID)))
	defer span.End()

	if err := c.client.rdb.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}
