package inmemory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/loomtale/engine/internal/domain/entity"
	"github.com/loomtale/engine/internal/domain/repository"
	"github.com/loomtale/engine/pkg/ferrors"
)

// MemoryRepository implements repository.MemoryRepository over a map.
type MemoryRepository struct {
	mu    sync.RWMutex
	items map[string]*entity.MemoryItem
}

// NewMemoryRepository creates an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: make(map[string]*entity.MemoryItem)}
}

func (r *MemoryRepository) Add(ctx context.Context, item *entity.MemoryItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.ID] = item
	return nil
}

func (r *MemoryRepository) Update(ctx context.Context, id string, mutate func(*entity.MemoryItem) error) (*entity.MemoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return nil, ferrors.New(ferrors.KindNotFound, "memory item not found")
	}
	if err := mutate(item); err != nil {
		return nil, err
	}
	return item, nil
}

func (r *MemoryRepository) Get(ctx context.Context, id string) (*entity.MemoryItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	return item, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

func (r *MemoryRepository) List(ctx context.Context, projectID string, level entity.MemoryLevel, limit int) ([]*entity.MemoryItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var items []*entity.MemoryItem
	for _, item := range r.items {
		if item.ProjectID != projectID {
			continue
		}
		if level != "" && item.Level != level {
			continue
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (r *MemoryRepository) LexicalSearch(ctx context.Context, projectID string, level entity.MemoryLevel, query string, k int) ([]repository.SearchResult, error) {
	items, err := r.List(ctx, projectID, level, 0)
	if err != nil {
		return nil, err
	}

	terms := tokenize(query)
	if len(terms) == 0 {
		return nil, nil
	}

	var results []repository.SearchResult
	for _, item := range items {
		score := overlapScore(terms, tokenize(item.Content))
		if score > 0 {
			results = append(results, repository.SearchResult{Item: item, Score: score})
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if k > 0 && len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func (r *MemoryRepository) DeleteByProject(ctx context.Context, projectID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, item := range r.items {
		if item.ProjectID == projectID {
			delete(r.items, id)
		}
	}
	return nil
}

func tokenize(s string) []string {
	return strings.Fields(strings.ToLower(s))
}

func overlapScore(queryTerms, docTerms []string) float64 {
	docSet := make(map[string]bool, len(docTerms))
	for _, t := range docTerms {
		docSet[t] = true
	}
	hits := 0
	for _, t := range queryTerms {
		if docSet[t] {
			hits++
		}
	}
	if len(queryTerms) == 0 {
		return 0
	}
	return float64(hits) / float64(len(queryTerms))
}
