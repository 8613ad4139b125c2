package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/loomtale/engine/internal/domain/entity"
	"github.com/loomtale/engine/internal/domain/repository"
	"github.com/loomtale/engine/pkg/metrics"
)

const (
	defaultSessionCacheSize = 256
	defaultSessionTurnCap   = 50
)

// sessionCache is the agent's in-process working set of entity.Session
// values: an LRU bounded by size (evicting cache entries, never the
// underlying repository record) plus a per-session turn cap that folds
// the oldest turns into a CONTEXT summary on overflow. A lazily built
// per-session mutex map serializes a session's turns the way
// llm.Gateway's semaphoreFor lazily builds one channel per provider.
type sessionCache struct {
	repo repository.SessionRepository

	mu       sync.Mutex
	sessions map[string]*entity.Session
	order    []string // recency order, oldest first

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	size    int
	turnCap int
}

func newSessionCache(repo repository.SessionRepository, size, turnCap int) *sessionCache {
	if size <= 0 {
		size = defaultSessionCacheSize
	}
	if turnCap <= 0 {
		turnCap = defaultSessionTurnCap
	}
	return &sessionCache{
		repo:     repo,
		sessions: make(map[string]*entity.Session),
		locks:    make(map[string]*sync.Mutex),
		size:     size,
		turnCap:  turnCap,
	}
}

// lock acquires sessionID's mutex and returns a function to release it.
// Turns within one session are strictly serialized; turns across
// sessions proceed concurrently.
func (c *sessionCache) lock(sessionID string) func() {
	c.locksMu.Lock()
	l, ok := c.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		c.locks[sessionID] = l
	}
	c.locksMu.Unlock()

	l.Lock()
	return l.Unlock
}

// loadOrCreate returns sessionID's session from the cache, loading it
// from the repository on a cache miss, or creating a new one if it does
// not exist anywhere yet.
func (c *sessionCache) loadOrCreate(ctx context.Context, sessionID, projectID string) (*entity.Session, error) {
	c.mu.Lock()
	if s, ok := c.sessions[sessionID]; ok && sessionID != "" {
		c.touch(sessionID)
		c.mu.Unlock()
		return s, nil
	}
	c.mu.Unlock()

	var session *entity.Session
	if sessionID != "" {
		loaded, err := c.repo.Load(ctx, sessionID)
		if err == nil {
			session = loaded
		}
	}
	if session == nil {
		id := sessionID
		if id == "" {
			// ULIDs sort lexicographically by creation time, so a
			// session list or eviction sweep can order by ID alone
			// without a separate timestamp column.
			id = ulid.Make().String()
		}
		session = entity.NewSession(id, projectID)
		if err := c.repo.Create(ctx, session); err != nil {
			return nil, fmt.Errorf("failed to create session %s: %w", id, err)
		}
	}

	c.put(session)
	return session, nil
}

func (c *sessionCache) put(session *entity.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sessions[session.SessionID] = session
	c.order = append(c.order, session.SessionID)
	metrics.ActiveSessions.Set(float64(len(c.sessions)))

	for len(c.sessions) > c.size && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		if oldest == session.SessionID {
			continue
		}
		delete(c.sessions, oldest)
	}
	metrics.ActiveSessions.Set(float64(len(c.sessions)))
}

func (c *sessionCache) touch(sessionID string) {
	for i, id := range c.order {
		if id == sessionID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.order = append(c.order, sessionID)
}

// appendTurn appends one turn to session and persists it. The caller is
// responsible for calling evictOverflow afterward to enforce the turn
// cap; appendTurn itself never drops history.
func (c *sessionCache) appendTurn(ctx context.Context, session *entity.Session, role entity.Role, text string) error {
	ts := time.Now()
	session.AppendTurn(role, text, ts)
	return c.repo.AppendTurn(ctx, session.SessionID, role, text, ts)
}

// evictOverflow drops turns from the front of session until it is back
// within the turn cap, returning everything it dropped so the caller
// can fold it into a single CONTEXT summary before it is gone for good.
func (c *sessionCache) evictOverflow(session *entity.Session) []entity.Turn {
	var evicted []entity.Turn
	for len(session.Turns) > c.turnCap {
		turn, ok := session.EvictOldest()
		if !ok {
			break
		}
		evicted = append(evicted, turn)
	}
	return evicted
}
