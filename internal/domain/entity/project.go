package entity

import "time"

// Project is an authoring project: an identity plus the authoritative
// settings bundle every generation reads a snapshot of.
type Project struct {
	ID        string          `json:"id" gorm:"type:uuid;primaryKey"`
	Title     string          `json:"title" gorm:"type:varchar(255)"`
	Settings  *SettingsBundle `json:"settings" gorm:"type:jsonb;serializer:json"`
	// Locale is an optional BCP-47-ish hint ("zh", "en", ...) that pins
	// the word-count strategy for this project's generated chapters.
	// Empty means auto-detect by script.
	Locale    string          `json:"locale,omitempty" gorm:"type:varchar(16)"`
	CreatedAt time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time       `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName sets the persisted table name for GORM.
func (Project) TableName() string {
	return "projects"
}

// NewProject creates a project with an empty settings bundle, seeded per
// the "new work" intent lifecycle.
func NewProject(id, title string) *Project {
	now := time.Now()
	return &Project{
		ID:        id,
		Title:     title,
		Settings:  NewSettingsBundle(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}
