package repository

import (
	"context"

	"github.com/loomtale/engine/internal/domain/entity"
)

// ProjectRepository is the storage collaborator for project identity and
// authoritative settings.
type ProjectRepository interface {
	Create(ctx context.Context, project *entity.Project) error
	Get(ctx context.Context, id string) (*entity.Project, error)
	Update(ctx context.Context, project *entity.Project) error
	// UpdateSettings persists a project's settings bundle atomically,
	// independent of its other fields.
	UpdateSettings(ctx context.Context, id string, settings *entity.SettingsBundle) error
	// Delete removes the project record. It does not cascade to memory or
	// chapter records; callers must delete those explicitly as part of the
	// project deletion lifecycle.
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, pagination Pagination) (*PagedResult[*entity.Project], error)
}
