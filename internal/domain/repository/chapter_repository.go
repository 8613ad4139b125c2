package repository

import (
	"context"

	"github.com/loomtale/engine/internal/domain/entity"
)

// ChapterRepository is the storage collaborator for generation records.
// It enforces the "at most one CURRENT record per (project, chapter
// number)" invariant at the SetCurrent boundary; callers never flip
// State directly on a persisted record.
type ChapterRepository interface {
	Add(ctx context.Context, record *entity.GenerationRecord) error
	Get(ctx context.Context, id string) (*entity.GenerationRecord, error)
	Update(ctx context.Context, record *entity.GenerationRecord) error

	// GetCurrent returns the CURRENT record for (projectID, chapterNumber),
	// or repository.ErrNoCurrent if none exists.
	GetCurrent(ctx context.Context, projectID string, chapterNumber int) (*entity.GenerationRecord, error)

	// SetCurrent transitions id to CURRENT and demotes whatever record was
	// previously CURRENT for the same (project, chapter) to HISTORY, all
	// within one transaction.
	SetCurrent(ctx context.Context, projectID string, chapterNumber int, id string) error

	// List returns every record for a project ordered by chapter number
	// then creation time.
	List(ctx context.Context, projectID string) ([]*entity.GenerationRecord, error)

	// History returns every non-current record for a given chapter.
	History(ctx context.Context, projectID string, chapterNumber int) ([]*entity.GenerationRecord, error)

	DeleteByProject(ctx context.Context, projectID string) error
}
