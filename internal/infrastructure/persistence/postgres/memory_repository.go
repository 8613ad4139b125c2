package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/loomtale/engine/internal/domain/entity"
	"github.com/loomtale/engine/internal/domain/repository"
)

// MemoryRepository implements repository.MemoryRepository over GORM.
// LexicalSearch does normalized token-overlap ranking in Go by default,
// since the corpus per project is usually small enough that a dedicated
// search index would be overkill; WithFullTextSearch switches it to
// Postgres' own full-text ranking for projects that outgrow that.
type MemoryRepository struct {
	client *Client
	raw    *sql.DB
}

// NewMemoryRepository builds a MemoryRepository.
func NewMemoryRepository(client *Client) *MemoryRepository {
	return &MemoryRepository{client: client}
}

func (r *MemoryRepository) Add(ctx context.Context, item *entity.MemoryItem) error {
	ctx, span := tracer.Start(ctx, "postgres.MemoryRepository.Add")
	defer span.End()

	if err := getDB(ctx, r.client.db).Create(item).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to add memory item: %w", err)
	}
	return nil
}

func (r *MemoryRepository) Update(ctx context.Context, id string, mutate func(*entity.MemoryItem) error) (*entity.MemoryItem, error) {
	ctx, span := tracer.Start(ctx, "postgres.MemoryRepository.Update")
	defer span.End()

	item, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("memory item %s not found", id)
	}
	if err := mutate(item); err != nil {
		return nil, err
	}
	if err := getDB(ctx, r.client.db).Save(item).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to update memory item: %w", err)
	}
	return item, nil
}

func (r *MemoryRepository) Get(ctx context.Context, id string) (*entity.MemoryItem, error) {
	ctx, span := tracer.Start(ctx, "postgres.MemoryRepository.Get")
	defer span.End()

	var item entity.MemoryItem
	if err := getDB(ctx, r.client.db).First(&item, "id = ?", id).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get memory item: %w", err)
	}
	return &item, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.MemoryRepository.Delete")
	defer span.End()

	if err := getDB(ctx, r.client.db).Delete(&entity.MemoryItem{}, "id = ?", id).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete memory item: %w", err)
	}
	return nil
}

func (r *MemoryRepository) List(ctx context.Context, projectID string, level entity.MemoryLevel, limit int) ([]*entity.MemoryItem, error) {
	ctx, span := tracer.Start(ctx, "postgres.MemoryRepository.List")
	defer span.End()

	query := getDB(ctx, r.client.db).Where("project_id = ?", projectID)
	if level != "" {
		query = query.Where("level = ?", level)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var items []*entity.MemoryItem
	if err := query.Order("created_at ASC").Find(&items).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list memory items: %w", err)
	}
	return items, nil
}

func (r *MemoryRepository) LexicalSearch(ctx context.Context, projectID string, level entity.MemoryLevel, query string, k int) ([]repository.SearchResult, error) {
	ctx, span := tracer.Start(ctx, "postgres.MemoryRepository.LexicalSearch")
	defer span.End()

	if r.raw != nil {
		results, err := r.lexicalSearchFTS(ctx, projectID, string(level), query, k)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		return results, nil
	}

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
	ctx, span := tracer.Start(ctx, "postgres.MemoryRepository.DeleteByProject")
	defer span.End()

	if err := getDB(ctx, r.client.db).
		Where("project_id = ?", projectID).
		Delete(&entity.MemoryItem{}).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete memory items for project: %w", err)
	}
	return nil
}

func tokenize(s string) []string {
	return strings.Fields(strings.ToLower(s))
}

// overlapScore is normalized token overlap: shared tokens divided by the
// query's token count, so a score of 1.0 means every query term appeared.
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
