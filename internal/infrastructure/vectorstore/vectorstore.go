// Package vectorstore abstracts nearest-neighbor vector search behind one
// contract, with an in-memory exact implementation for tests and small
// projects and a Milvus-backed approximate implementation for scale.
package vectorstore

import "context"

// VectorMatch is one nearest-neighbor hit.
type VectorMatch struct {
	ID       string
	Score    float64
	Metadata map[string]string
}

// VectorStore upserts and queries embedding vectors scoped by arbitrary
// metadata filters (project ID, memory level, and so on).
type VectorStore interface {
	Upsert(ctx context.Context, id string, vec []float32, metadata map[string]string) error
	Query(ctx context.Context, vec []float32, k int, filter map[string]string) ([]VectorMatch, error)
	Delete(ctx context.Context, id string) error
}
