// Package entity defines the engine's domain entities.
package entity

import "time"

// MemoryLevel is the tier a memory item belongs to.
type MemoryLevel string

const (
	LevelGlobal    MemoryLevel = "GLOBAL"
	LevelCharacter MemoryLevel = "CHARACTER"
	LevelPlot      MemoryLevel = "PLOT"
	LevelContext   MemoryLevel = "CONTEXT"
	LevelStyle     MemoryLevel = "STYLE"
)

// MemoryItem is the shared shape of every fact the engine retains about a
// project, regardless of which tier it lives in.
type MemoryItem struct {
	ID          string            `json:"id" gorm:"type:uuid;primaryKey"`
	ProjectID   string            `json:"project_id" gorm:"type:uuid;index;not null"`
	Level       MemoryLevel       `json:"level" gorm:"type:varchar(20);index;not null"`
	Content     string            `json:"content" gorm:"type:text"`
	ContentHash string            `json:"content_hash" gorm:"type:varchar(64)"`
	Metadata    map[string]string `json:"metadata,omitempty" gorm:"type:jsonb;serializer:json"`
	Embedding   []float32         `json:"embedding,omitempty" gorm:"-"`
	CreatedAt   time.Time         `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time         `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName sets the persisted table name for GORM.
func (MemoryItem) TableName() string {
	return "memory_items"
}

// NewMemoryItem creates a memory item at the given tier, stamping its
// content hash so later writers can detect a stale embedding.
func NewMemoryItem(id, projectID string, level MemoryLevel, content string) *MemoryItem {
	now := time.Now()
	return &MemoryItem{
		ID:          id,
		ProjectID:   projectID,
		Level:       level,
		Content:     content,
		ContentHash: HashContent(content),
		Metadata:    map[string]string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// SetContent replaces the item's content and recomputes its hash,
// invalidating any previously stored embedding.
func (m *MemoryItem) SetContent(content string) {
	if m.ContentHash == HashContent(content) {
		return
	}
	m.Content = content
	m.ContentHash = HashContent(content)
	m.Embedding = nil
	m.UpdatedAt = time.Now()
}

// EmbeddingStale reports whether the item's embedding no longer
// corresponds to its current content.
func (m *MemoryItem) EmbeddingStale() bool {
	return m.ContentHash != HashContent(m.Content)
}

// Order returns the CONTEXT item's turn-index metadata, or -1 if absent.
func (m *MemoryItem) Order() int {
	v, ok := m.Metadata["order"]
	if !ok {
		return -1
	}
	n := 0
	for _, c := range v {
		if c < '0' || c > '9' {
			return -1
		}
		n = n*10 + int(c-'0')
	}
	return n
}

// Aspect returns the STYLE item's singleton-key metadata, or "" if absent.
func (m *MemoryItem) Aspect() string {
	return m.Metadata["aspect"]
}
