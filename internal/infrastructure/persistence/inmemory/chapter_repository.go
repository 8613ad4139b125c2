package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/loomtale/engine/internal/domain/entity"
	"github.com/loomtale/engine/internal/domain/repository"
)

// ChapterRepository implements repository.ChapterRepository over a map.
// The package mutex itself stands in for the transaction a durable
// backend needs for SetCurrent, since there's only one process and no
// concurrent writers outside this lock.
type ChapterRepository struct {
	mu      sync.RWMutex
	records map[string]*entity.GenerationRecord
}

// NewChapterRepository creates an empty ChapterRepository.
func NewChapterRepository() *ChapterRepository {
	return &ChapterRepository{records: make(map[string]*entity.GenerationRecord)}
}

func (r *ChapterRepository) Add(ctx context.Context, record *entity.GenerationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[record.ID] = record
	return nil
}

func (r *ChapterRepository) Get(ctx context.Context, id string) (*entity.GenerationRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	record, ok := r.records[id]
	if !ok {
		return nil, nil
	}
	return record, nil
}

func (r *ChapterRepository) Update(ctx context.Context, record *entity.GenerationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[record.ID] = record
	return nil
}

func (r *ChapterRepository) GetCurrent(ctx context.Context, projectID string, chapterNumber int) (*entity.GenerationRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, record := range r.records {
		if record.ProjectID == projectID && record.ChapterNumber == chapterNumber && record.State == entity.StateCurrent {
			return record, nil
		}
	}
	return nil, repository.ErrNoCurrent
}

func (r *ChapterRepository) SetCurrent(ctx context.Context, projectID string, chapterNumber int, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	target, ok := r.records[id]
	if !ok {
		return repository.ErrNoCurrent
	}

	for _, record := range r.records {
		if record.ProjectID == projectID && record.ChapterNumber == chapterNumber && record.State == entity.StateCurrent {
			record.State = entity.StateHistory
		}
	}
	target.State = entity.StateCurrent
	return nil
}

func (r *ChapterRepository) List(ctx context.Context, projectID string) ([]*entity.GenerationRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var records []*entity.GenerationRecord
	for _, record := range r.records {
		if record.ProjectID == projectID {
			records = append(records, record)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].ChapterNumber != records[j].ChapterNumber {
			return records[i].ChapterNumber < records[j].ChapterNumber
		}
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
	return records, nil
}

func (r *ChapterRepository) History(ctx context.Context, projectID string, chapterNumber int) ([]*entity.GenerationRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var records []*entity.GenerationRecord
	for _, record := range r.records {
		if record.ProjectID == projectID && record.ChapterNumber == chapterNumber && record.State != entity.StateCurrent {
			records = append(records, record)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].CreatedAt.Before(records[j].CreatedAt) })
	return records, nil
}

func (r *ChapterRepository) DeleteByProject(ctx context.Context, projectID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, record := range r.records {
		if record.ProjectID == projectID {
			delete(r.records, id)
		}
	}
	return nil
}
