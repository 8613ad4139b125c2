package entity

import "time"

// GenerationMode selects the generator's prompt template and post-processing.
type GenerationMode string

const (
	ModeFull     GenerationMode = "FULL"
	ModeContinue GenerationMode = "CONTINUE"
	ModeExpand   GenerationMode = "EXPAND"
	ModeRewrite  GenerationMode = "REWRITE"
	ModeOutline  GenerationMode = "OUTLINE"
)

// GenerationState is a generation record's position in the chapter
// lifecycle state machine:
//
//	PENDING --generate--> GENERATING --success--> DRAFT
//	                                 --fail-->    FAILED
//	DRAFT   --accept-->  CURRENT (others become HISTORY)
//	DRAFT   --rewrite--> GENERATING (new record, parent=prior)
//	CURRENT --delete-->  HISTORY
type GenerationState string

const (
	StatePending    GenerationState = "PENDING"
	StateGenerating GenerationState = "GENERATING"
	StateDraft      GenerationState = "DRAFT"
	StateFailed     GenerationState = "FAILED"
	StateCurrent    GenerationState = "CURRENT"
	StateHistory    GenerationState = "HISTORY"
)

// validTransitions enumerates the state machine's legal edges.
var validTransitions = map[GenerationState]map[GenerationState]bool{
	StatePending:    {StateGenerating: true},
	StateGenerating: {StateDraft: true, StateFailed: true},
	StateDraft:      {StateCurrent: true, StateGenerating: true},
	StateCurrent:    {StateHistory: true},
	StateFailed:     {},
	StateHistory:    {},
}

// GenerationRecord is one attempt at producing a chapter's content.
type GenerationRecord struct {
	ID                 string          `json:"id" gorm:"type:uuid;primaryKey"`
	ProjectID          string          `json:"project_id" gorm:"type:uuid;index;not null"`
	ChapterNumber      int             `json:"chapter_number" gorm:"index;not null"`
	Mode               GenerationMode  `json:"mode" gorm:"type:varchar(20)"`
	Content            string          `json:"content" gorm:"type:text"`
	WordCount          int             `json:"word_count"`
	State              GenerationState `json:"state" gorm:"type:varchar(20);index"`
	ParentID           string          `json:"parent_id,omitempty" gorm:"type:uuid;index"`
	SettingsFingerprint string         `json:"settings_fingerprint" gorm:"type:varchar(64)"`
	CreatedAt          time.Time       `json:"created_at" gorm:"autoCreateTime"`
}

// TableName sets the persisted table name for GORM.
func (GenerationRecord) TableName() string {
	return "generation_records"
}

// NewGenerationRecord creates a PENDING record for chapter/mode.
func NewGenerationRecord(id, projectID string, chapterNumber int, mode GenerationMode, parentID string) *GenerationRecord {
	return &GenerationRecord{
		ID:            id,
		ProjectID:     projectID,
		ChapterNumber: chapterNumber,
		Mode:          mode,
		State:         StatePending,
		ParentID:      parentID,
		CreatedAt:     time.Now(),
	}
}

// Transition moves the record to next, rejecting any edge not present in
// validTransitions.
func (r *GenerationRecord) Transition(next GenerationState) bool {
	if edges, ok := validTransitions[r.State]; ok && edges[next] {
		r.State = next
		return true
	}
	return false
}

// Complete marks a GENERATING record DRAFT with its produced content and
// fingerprint.
func (r *GenerationRecord) Complete(content string, wordCount int, fingerprint string) bool {
	if !r.Transition(StateDraft) {
		return false
	}
	r.Content = content
	r.WordCount = wordCount
	r.SettingsFingerprint = fingerprint
	return true
}

// Fail marks a GENERATING record FAILED.
func (r *GenerationRecord) Fail() bool {
	return r.Transition(StateFailed)
}
