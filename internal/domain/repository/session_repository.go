package repository

import (
	"context"
	"time"

	"github.com/loomtale/engine/internal/domain/entity"
)

// SessionRepository is the storage collaborator for conversation
// sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *entity.Session) error
	Load(ctx context.Context, sessionID string) (*entity.Session, error)

	// AppendTurn persists one turn to an existing session.
	AppendTurn(ctx context.Context, sessionID string, role entity.Role, text string, ts time.Time) error

	// SaveDerivedSettings persists the session's latest bundle snapshot.
	SaveDerivedSettings(ctx context.Context, sessionID string, settings *entity.SettingsBundle) error

	Evict(ctx context.Context, sessionID string) error
}
