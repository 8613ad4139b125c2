package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/loomtale/engine/internal/domain/entity"
	"github.com/loomtale/engine/pkg/ferrors"
)

// SessionRepository implements repository.SessionRepository over a map.
type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*entity.Session
}

// NewSessionRepository creates an empty SessionRepository.
func NewSessionRepository() *SessionRepository {
	return &SessionRepository{sessions: make(map[string]*entity.Session)}
}

func (r *SessionRepository) Create(ctx context.Context, session *entity.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.SessionID] = session
	return nil
}

func (r *SessionRepository) Load(ctx context.Context, sessionID string) (*entity.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	return session, nil
}

func (r *SessionRepository) AppendTurn(ctx context.Context, sessionID string, role entity.Role, text string, ts time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[sessionID]
	if !ok {
		return ferrors.New(ferrors.KindNotFound, "session not found")
	}
	session.AppendTurn(role, text, ts)
	return nil
}

func (r *SessionRepository) SaveDerivedSettings(ctx context.Context, sessionID string, settings *entity.SettingsBundle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[sessionID]
	if !ok {
		return ferrors.New(ferrors.KindNotFound, "session not found")
	}
	session.DerivedSettings = settings
	return nil
}

func (r *SessionRepository) Evict(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
	return nil
}
