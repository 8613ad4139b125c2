package entity

import "time"

// Turn is one message in a session's conversation history.
type Turn struct {
	Role Role      `json:"role"`
	Text string    `json:"text"`
	TS   time.Time `json:"ts"`
}

// Session is a turn-ordered conversation, optionally bound to a project.
// Turns are append-only within a session.
type Session struct {
	SessionID       string         `json:"session_id" gorm:"type:uuid;primaryKey"`
	ProjectID       string         `json:"project_id,omitempty" gorm:"type:uuid;index"`
	Turns           []Turn         `json:"turns" gorm:"type:jsonb;serializer:json"`
	DerivedSettings *SettingsBundle `json:"derived_settings" gorm:"type:jsonb;serializer:json"`
	UpdatedAt       time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName sets the persisted table name for GORM.
func (Session) TableName() string {
	return "sessions"
}

// NewSession creates an empty session, optionally bound to a project.
func NewSession(sessionID, projectID string) *Session {
	return &Session{
		SessionID:       sessionID,
		ProjectID:       projectID,
		Turns:           []Turn{},
		DerivedSettings: NewSettingsBundle(),
		UpdatedAt:       time.Now(),
	}
}

// AppendTurn appends a turn, enforcing append-only, non-decreasing
// timestamp order.
func (s *Session) AppendTurn(role Role, text string, ts time.Time) {
	if n := len(s.Turns); n > 0 && ts.Before(s.Turns[n-1].TS) {
		ts = s.Turns[n-1].TS
	}
	s.Turns = append(s.Turns, Turn{Role: role, Text: text, TS: ts})
	s.UpdatedAt = ts
}

// Window returns the newest n turns, forming the agent's working window.
func (s *Session) Window(n int) []Turn {
	if n <= 0 || n >= len(s.Turns) {
		return s.Turns
	}
	return s.Turns[len(s.Turns)-n:]
}

// EvictOldest drops the oldest turn, returning it so the caller can fold
// it into a CONTEXT summary before it is lost.
func (s *Session) EvictOldest() (Turn, bool) {
	if len(s.Turns) == 0 {
		return Turn{}, false
	}
	oldest := s.Turns[0]
	s.Turns = s.Turns[1:]
	return oldest, true
}
