package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/loomtale/engine/internal/domain/entity"
)

// SessionRepository implements repository.SessionRepository over GORM.
type SessionRepository struct {
	client *Client
}

// NewSessionRepository builds a SessionRepository.
func NewSessionRepository(client *Client) *SessionRepository {
	return &SessionRepository{client: client}
}

func (r *SessionRepository) Create(ctx context.Context, session *entity.Session) error {
	ctx, span := tracer.Start(ctx, "postgres.SessionRepository.Create")
	defer span.End()

	if err := getDB(ctx, r.client.db).Create(session).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *SessionRepository) Load(ctx context.Context, sessionID string) (*entity.Session, error) {
	ctx, span := tracer.Start(ctx, "postgres.SessionRepository.Load")
	defer span.End()

	var session entity.Session
	if err := getDB(ctx, r.client.db).First(&session, "session_id = ?", sessionID).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return &session, nil
}

func (r *SessionRepository) AppendTurn(ctx context.Context, sessionID string, role entity.Role, text string, ts time.Time) error {
	ctx, span := tracer.Start(ctx, "postgres.SessionRepository.AppendTurn")
	defer span.End()

	session, err := r.Load(ctx, sessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return fmt.Errorf("session %s not found", sessionID)
	}
	session.AppendTurn(role, text, ts)
	if err := getDB(ctx, r.client.db).Save(session).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to append turn: %w", err)
	}
	return nil
}

func (r *SessionRepository) SaveDerivedSettings(ctx context.Context, sessionID string, settings *entity.SettingsBundle) error {
	ctx, span := tracer.Start(ctx, "postgres.SessionRepository.SaveDerivedSettings")
	defer span.End()

	if err := getDB(ctx, r.client.db).Model(&entity.Session{}).
		Where("session_id = ?", sessionID).
		Update("derived_settings", settings).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to save derived settings: %w", err)
	}
	return nil
}

func (r *SessionRepository) Evict(ctx context.Context, sessionID string) error {
	ctx, span := tracer.Start(ctx, "postgres.SessionRepository.Evict")
	defer span.End()

	if err := getDB(ctx, r.client.db).Delete(&entity.Session{}, "session_id = ?", sessionID).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to evict session: %w", err)
	}
	return nil
}
