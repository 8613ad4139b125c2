// Package memory implements the five-tier layered memory store: a
// repository-backed record of facts plus a vector index for semantic
// recall, fused with lexical overlap into one ranked retrieval path.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/loomtale/engine/internal/config"
	"github.com/loomtale/engine/internal/domain/entity"
	"github.com/loomtale/engine/internal/domain/repository"
	"github.com/loomtale/engine/internal/infrastructure/embedding"
	"github.com/loomtale/engine/internal/infrastructure/llm/tokenizer"
	"github.com/loomtale/engine/internal/infrastructure/vectorstore"
)

// Patch describes an in-place mutation to a memory item. Nil fields are
// left unchanged.
type Patch struct {
	Content  *string
	Metadata map[string]string
}

// RankedItem pairs a memory item with the fused lexical+vector score it
// was retrieved at.
type RankedItem struct {
	Item  *entity.MemoryItem
	Score float64
}

// Store is the layered memory store's contract.
type Store interface {
	Add(ctx context.Context, item *entity.MemoryItem) (string, error)
	Update(ctx context.Context, id string, patch Patch) error
	Get(ctx context.Context, id string) (*entity.MemoryItem, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, level entity.MemoryLevel, limit int) ([]*entity.MemoryItem, error)
	Search(ctx context.Context, query string, level entity.MemoryLevel, k int) ([]RankedItem, error)
	BuildContext(ctx context.Context, query string, budgetTokens int) (string, error)

	// EnforceRetention re-applies the CONTEXT tier's ring-buffer bound.
	// Add already enforces it on every write; this is the idempotent
	// sweep a background scheduler calls defensively, e.g. after a
	// config change lowers the bound.
	EnforceRetention(ctx context.Context) error
}

// store is the default Store implementation: a MemoryRepository for
// durable records and lexical search, a VectorStore for semantic
// search, and an Embedder bridging the two.
type store struct {
	projectID string
	repo      repository.MemoryRepository
	vectors   vectorstore.VectorStore
	embedder  embedding.Embedder
	tokens    *tokenizer.TiktokenCounter
	cfg       config.MemoryConfig
}

// New builds a Store scoped to one project.
func New(projectID string, repo repository.MemoryRepository, vectors vectorstore.VectorStore, embedder embedding.Embedder, tokens *tokenizer.TiktokenCounter, cfg config.MemoryConfig) Store {
	return &store{
		projectID: projectID,
		repo:      repo,
		vectors:   vectors,
		embedder:  embedder,
		tokens:    tokens,
		cfg:       cfg,
	}
}

func (s *store) Add(ctx context.Context, item *entity.MemoryItem) (string, error) {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	item.ProjectID = s.projectID
	item.ContentHash = entity.HashContent(item.Content)

	if err := s.repo.Add(ctx, item); err != nil {
		return "", fmt.Errorf("failed to add memory item: %w", err)
	}

	if s.embedder != nil && s.vectors != nil {
		if err := s.index(ctx, item); err != nil {
			return item.ID, fmt.Errorf("failed to index memory item: %w", err)
		}
	}

	if item.Level == entity.LevelContext {
		if err := s.evictContextOverflow(ctx); err != nil {
			return item.ID, fmt.Errorf("failed to evict overflowing context items: %w", err)
		}
	}
	return item.ID, nil
}

// evictContextOverflow enforces the CONTEXT tier's ring-buffer bound:
// once more than cfg.ContextRingBound items are stored, the oldest by
// turn order (metadata["order"]) are dropped, falling back to
// CreatedAt for items with no recorded order.
func (s *store) evictContextOverflow(ctx context.Context) error {
	bound := s.cfg.ContextRingBound
	if bound <= 0 {
		return nil
	}
	items, err := s.repo.List(ctx, s.projectID, entity.LevelContext, 0)
	if err != nil {
		return err
	}
	if len(items) <= bound {
		return nil
	}
	sort.Slice(items, func(i, j int) bool {
		oi, oj := items[i].Order(), items[j].Order()
		if oi >= 0 && oj >= 0 {
			return oi < oj
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	for _, stale := range items[:len(items)-bound] {
		if err := s.Delete(ctx, stale.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *store) EnforceRetention(ctx context.Context) error {
	return s.evictContextOverflow(ctx)
}

func (s *store) Update(ctx context.Context, id string, patch Patch) error {
	item, err := s.repo.Update(ctx, id, func(item *entity.MemoryItem) error {
		if patch.Content != nil {
			item.Content = *patch.Content
			item.ContentHash = entity.HashContent(item.Content)
		}
		if patch.Metadata != nil {
			item.Metadata = patch.Metadata
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to update memory item: %w", err)
	}

	if patch.Content != nil && s.embedder != nil && s.vectors != nil {
		if err := s.index(ctx, item); err != nil {
			return fmt.Errorf("failed to re-index memory item: %w", err)
		}
	}
	return nil
}

func (s *store) Get(ctx context.Context, id string) (*entity.MemoryItem, error) {
	return s.repo.Get(ctx, id)
}

func (s *store) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete memory item: %w", err)
	}
	if s.vectors != nil {
		if err := s.vectors.Delete(ctx, id); err != nil {
			return fmt.Errorf("failed to delete memory item vector: %w", err)
		}
	}
	return nil
}

func (s *store) List(ctx context.Context, level entity.MemoryLevel, limit int) ([]*entity.MemoryItem, error) {
	return s.repo.List(ctx, s.projectID, level, limit)
}

// Search fuses lexical overlap and vector similarity using the
// configured weights, so a query that matches a fact's wording and one
// that only matches its meaning both surface.
func (s *store) Search(ctx context.Context, query string, level entity.MemoryLevel, k int) ([]RankedItem, error) {
	lexical, err := s.repo.LexicalSearch(ctx, s.projectID, level, query, 0)
	if err != nil {
		return nil, fmt.Errorf("failed lexical search: %w", err)
	}

	fused := make(map[string]*RankedItem, len(lexical))
	for _, r := range lexical {
		fused[r.Item.ID] = &RankedItem{Item: r.Item, Score: r.Score * s.cfg.LexicalWeight}
	}

	if s.embedder != nil && s.vectors != nil {
		vec, err := s.embedder.Embed(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("failed to embed query: %w", err)
		}
		filter := map[string]string{"project_id": s.projectID}
		if level != "" {
			filter["level"] = string(level)
		}
		matches, err := s.vectors.Query(ctx, vec, 0, filter)
		if err != nil {
			return nil, fmt.Errorf("failed vector search: %w", err)
		}
		for _, m := range matches {
			if existing, ok := fused[m.ID]; ok {
				existing.Score += m.Score * s.cfg.VectorWeight
				continue
			}
			item, err := s.repo.Get(ctx, m.ID)
			if err != nil || item == nil {
				continue
			}
			fused[m.ID] = &RankedItem{Item: item, Score: m.Score * s.cfg.VectorWeight}
		}
	}

	results := make([]RankedItem, 0, len(fused))
	for _, r := range fused {
		results = append(results, *r)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Item.UpdatedAt.After(results[j].Item.UpdatedAt)
	})
	if k > 0 && len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// tierBudget is one layer's slice of a build_context call, in the fixed
// priority order the retrieval composes in: the latest CONTEXT items
// first (recency, not relevance), then top-k matches per remaining tier
// in descending importance to the prose actually being written.
type tierBudget struct {
	level    entity.MemoryLevel
	fraction float64
}

var contextTierBudgets = []tierBudget{
	{entity.LevelContext, 0.40},
	{entity.LevelCharacter, 0.25},
	{entity.LevelPlot, 0.20},
	{entity.LevelGlobal, 0.10},
	{entity.LevelStyle, 0.05},
}

// BuildContext composes a retrieval string under budgetTokens by filling
// each tier's fixed share in priority order: the latest CONTEXT entries,
// then top-k CHARACTER/PLOT/GLOBAL/STYLE matches for query. An item that
// would overflow its tier's share is truncated at the last paragraph
// boundary that still fits rather than dropped or cut mid-sentence.
func (s *store) BuildContext(ctx context.Context, query string, budgetTokens int) (string, error) {
	var blocks []string
	for _, tb := range contextTierBudgets {
		share := int(float64(budgetTokens) * tb.fraction)
		if share <= 0 {
			continue
		}
		items, err := s.itemsForTier(ctx, query, tb.level)
		if err != nil {
			return "", err
		}
		if block := s.renderTier(items, share); block != "" {
			blocks = append(blocks, block)
		}
	}
	return strings.Join(blocks, "\n\n"), nil
}

// itemsForTier returns a tier's candidates in the order BuildContext
// should consider them: CONTEXT by recency, every other tier by fused
// search relevance to query.
func (s *store) itemsForTier(ctx context.Context, query string, level entity.MemoryLevel) ([]*entity.MemoryItem, error) {
	if level == entity.LevelContext {
		items, err := s.repo.List(ctx, s.projectID, entity.LevelContext, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to list CONTEXT items: %w", err)
		}
		sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
		if k := s.cfg.RetrievalK; k > 0 && len(items) > k {
			items = items[:k]
		}
		return items, nil
	}

	ranked, err := s.Search(ctx, query, level, s.cfg.RetrievalK)
	if err != nil {
		return nil, fmt.Errorf("failed to search %s tier: %w", level, err)
	}
	out := make([]*entity.MemoryItem, len(ranked))
	for i, r := range ranked {
		out[i] = r.Item
	}
	return out, nil
}

// renderTier fills items into a block up to budget tokens, truncating the
// first item that would overflow at a paragraph boundary instead of
// either dropping it whole or cutting mid-paragraph.
func (s *store) renderTier(items []*entity.MemoryItem, budget int) string {
	var parts []string
	used := 0
	for _, item := range items {
		cost := s.tokens.Count("cl100k_base", item.Content)
		if used+cost <= budget {
			parts = append(parts, item.Content)
			used += cost
			continue
		}
		if truncated := truncateAtParagraph(item.Content, budget-used, s.tokens); truncated != "" {
			parts = append(parts, truncated)
		}
		break
	}
	return strings.Join(parts, "\n")
}

// truncateAtParagraph keeps whole "\n\n"-separated paragraphs of content
// until the next one would exceed remaining tokens.
func truncateAtParagraph(content string, remaining int, tokens *tokenizer.TiktokenCounter) string {
	if remaining <= 0 {
		return ""
	}
	paragraphs := strings.Split(content, "\n\n")
	var kept []string
	used := 0
	for _, p := range paragraphs {
		cost := tokens.Count("cl100k_base", p)
		if used+cost > remaining {
			break
		}
		kept = append(kept, p)
		used += cost
	}
	return strings.Join(kept, "\n\n")
}

func (s *store) index(ctx context.Context, item *entity.MemoryItem) error {
	vec, err := s.embedder.Embed(ctx, item.Content)
	if err != nil {
		return err
	}
	item.Embedding = vec
	return s.vectors.Upsert(ctx, item.ID, vec, map[string]string{
		"project_id": s.projectID,
		"level":      string(item.Level),
	})
}
