// Package inmemory implements every repository port over plain
// mutex-guarded maps. It backs the Agent API's zero-config constructor
// and the bulk of the test suite, the way the exact vector store backs
// vectorstore.VectorStore for the same reasons: no external service,
// deterministic ordering, O(n) operations that are fine at test scale.
package inmemory

import (
	"context"
	"sync"

	"github.com/loomtale/engine/internal/domain/entity"
	"github.com/loomtale/engine/internal/domain/repository"
	"github.com/loomtale/engine/pkg/ferrors"
)

// ProjectRepository implements repository.ProjectRepository over a map.
type ProjectRepository struct {
	mu       sync.RWMutex
	projects map[string]*entity.Project
	order    []string
}

// NewProjectRepository creates an empty ProjectRepository.
func NewProjectRepository() *ProjectRepository {
	return &ProjectRepository{projects: make(map[string]*entity.Project)}
}

func (r *ProjectRepository) Create(ctx context.Context, project *entity.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.projects[project.ID]; exists {
		return ferrors.New(ferrors.KindConcurrencyConflict, "project already exists")
	}
	r.projects[project.ID] = project
	r.order = append(r.order, project.ID)
	return nil
}

func (r *ProjectRepository) Get(ctx context.Context, id string) (*entity.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	project, ok := r.projects[id]
	if !ok {
		return nil, nil
	}
	return project, nil
}

func (r *ProjectRepository) Update(ctx context.Context, project *entity.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.projects[project.ID]; !exists {
		return ferrors.New(ferrors.KindNotFound, "project not found")
	}
	r.projects[project.ID] = project
	return nil
}

func (r *ProjectRepository) UpdateSettings(ctx context.Context, id string, settings *entity.SettingsBundle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	project, ok := r.projects[id]
	if !ok {
		return ferrors.New(ferrors.KindNotFound, "project not found")
	}
	project.Settings = settings
	return nil
}

func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.projects, id)
	for i, pid := range r.order {
		if pid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *ProjectRepository) List(ctx context.Context, pagination repository.Pagination) (*repository.PagedResult[*entity.Project], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := int64(len(r.order))
	start := pagination.Offset()
	if start > len(r.order) {
		start = len(r.order)
	}
	end := start + pagination.Limit()
	if end > len(r.order) {
		end = len(r.order)
	}

	items := make([]*entity.Project, 0, end-start)
	for _, id := range r.order[start:end] {
		items = append(items, r.projects[id])
	}
	return repository.NewPagedResult(items, total, pagination), nil
}
