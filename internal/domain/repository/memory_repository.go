package repository

import (
	"context"

	"github.com/loomtale/engine/internal/domain/entity"
)

// SearchResult pairs a memory item with the fused lexical+vector score
// search ranked it by.
type SearchResult struct {
	Item  *entity.MemoryItem
	Score float64
}

// MemoryRepository is the storage collaborator for the layered memory
// store. Fusion of lexical and vector scoring is a domain concern
// implemented by the memory service on top of this interface's
// LexicalSearch and the vector store; the repository itself only
// persists items and answers lexical queries. An empty level scopes an
// operation to every tier.
type MemoryRepository interface {
	Add(ctx context.Context, item *entity.MemoryItem) error
	Update(ctx context.Context, id string, mutate func(*entity.MemoryItem) error) (*entity.MemoryItem, error)
	Get(ctx context.Context, id string) (*entity.MemoryItem, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, projectID string, level entity.MemoryLevel, limit int) ([]*entity.MemoryItem, error)

	// LexicalSearch ranks items in projectID (optionally scoped to level)
	// by normalized token overlap against query, returning at most k.
	LexicalSearch(ctx context.Context, projectID string, level entity.MemoryLevel, query string, k int) ([]SearchResult, error)

	// DeleteByProject removes every memory item belonging to projectID.
	DeleteByProject(ctx context.Context, projectID string) error
}
