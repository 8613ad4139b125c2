// Package exact implements vectorstore.VectorStore as an in-memory
// brute-force cosine search, suitable for tests and small projects that
// don't warrant a standalone vector database.
package exact

import (
	"context"
	"sort"
	"sync"

	"github.com/loomtale/engine/internal/infrastructure/embedding"
	"github.com/loomtale/engine/internal/infrastructure/vectorstore"
)

type record struct {
	vec      []float32
	metadata map[string]string
}

// Store is a brute-force, mutex-guarded vector index. Query cost is O(n)
// in the number of stored vectors, which is fine for the scale this
// backend targets.
type Store struct {
	mu   sync.RWMutex
	recs map[string]record
}

// New creates an empty Store.
func New() *Store {
	return &Store{recs: make(map[string]record)}
}

func (s *Store) Upsert(ctx context.Context, id string, vec []float32, metadata map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs[id] = record{vec: vec, metadata: metadata}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.recs, id)
	return nil
}

func (s *Store) Query(ctx context.Context, vec []float32, k int, filter map[string]string) ([]vectorstore.VectorMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]vectorstore.VectorMatch, 0, len(s.recs))
	for id, rec := range s.recs {
		if !matchesFilter(rec.metadata, filter) {
			continue
		}
		matches = append(matches, vectorstore.VectorMatch{
			ID:       id,
			Score:    embedding.CosineSimilarity(vec, rec.vec),
			Metadata: rec.metadata,
		})
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if k > 0 && len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

func matchesFilter(metadata, filter map[string]string) bool {
	for k, v := range filter {
		if metadata[k] != v {
			return false
		}
	}
	return true
}
