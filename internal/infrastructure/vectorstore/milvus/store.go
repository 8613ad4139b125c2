package milvus

import (
	"context"
	"fmt"

	milventity "github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/loomtale/engine/internal/infrastructure/vectorstore"
)

// Store implements vectorstore.VectorStore over a Milvus collection,
// partitioned per project and filtered by memory level.
type Store struct {
	client *Client
	dim    int
}

// New wraps client for vector dimension dim. EnsureCollection must be
// called once before use.
func New(client *Client, dim int) *Store {
	return &Store{client: client, dim: dim}
}

// EnsureCollection creates the memory_items collection and its HNSW index
// if they don't already exist.
func (s *Store) EnsureCollection(ctx context.Context) error {
	has, err := s.client.HasCollection(ctx, CollectionMemoryItems)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if has {
		return nil
	}

	collName := s.client.CollectionName(CollectionMemoryItems)
	schema := Schema(s.dim)
	schema.CollectionName = collName
	if err := s.client.milvus.CreateCollection(ctx, schema, milventity.DefaultShardNumber); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	idx, err := milventity.NewIndexHNSW(milventity.COSINE, s.client.config.HNSWM, s.client.config.HNSWEfConstruction)
	if err != nil {
		return fmt.Errorf("failed to build index params: %w", err)
	}
	if err := s.client.milvus.CreateIndex(ctx, collName, "vector", idx, false); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	return s.client.LoadCollection(ctx, CollectionMemoryItems)
}

func (s *Store) ensurePartition(ctx context.Context, projectID string) error {
	collName := s.client.CollectionName(CollectionMemoryItems)
	partition := PartitionName(projectID)
	has, err := s.client.milvus.HasPartition(ctx, collName, partition)
	if err != nil {
		return fmt.Errorf("failed to check partition: %w", err)
	}
	if has {
		return nil
	}
	return s.client.milvus.CreatePartition(ctx, collName, partition)
}

func (s *Store) Upsert(ctx context.Context, id string, vec []float32, metadata map[string]string) error {
	ctx, span := tracer.Start(ctx, "milvus.Upsert", trace.WithAttributes(attribute.String("id", id)))
	defer span.End()

	projectID := metadata["project_id"]
	if err := s.ensurePartition(ctx, projectID); err != nil {
		span.RecordError(err)
		return err
	}

	collName := s.client.CollectionName(CollectionMemoryItems)
	partition := PartitionName(projectID)

	columns := []milventity.Column{
		milventity.NewColumnVarChar("id", []string{id}),
		milventity.NewColumnFloatVector("vector", len(vec), [][]float32{vec}),
		milventity.NewColumnVarChar("project_id", []string{projectID}),
		milventity.NewColumnVarChar("level", []string{metadata["level"]}),
	}

	if _, err := s.client.milvus.Upsert(ctx, collName, partition, columns...); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to upsert vector: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "milvus.Delete", trace.WithAttributes(attribute.String("id", id)))
	defer span.End()

	collName := s.client.CollectionName(CollectionMemoryItems)
	expr := fmt.Sprintf(`id == "%s"`, id)
	if err := s.client.milvus.Delete(ctx, collName, "", expr); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete vector: %w", err)
	}
	return nil
}

func (s *Store) Query(ctx context.Context, vec []float32, k int, filter map[string]string) ([]vectorstore.VectorMatch, error) {
	ctx, span := tracer.Start(ctx, "milvus.Query", trace.WithAttributes(attribute.Int("k", k)))
	defer span.End()

	collName := s.client.CollectionName(CollectionMemoryItems)

	var partitions []string
	if projectID := filter["project_id"]; projectID != "" {
		partition := PartitionName(projectID)
		has, err := s.client.milvus.HasPartition(ctx, collName, partition)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to check partition: %w", err)
		}
		if !has {
			return nil, nil
		}
		partitions = []string{partition}
	}

	expr := ""
	if level := filter["level"]; level != "" {
		expr = fmt.Sprintf(`level == "%s"`, level)
	}

	sp, err := milventity.NewIndexHNSWSearchParam(128)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to build search param: %w", err)
	}

	results, err := s.client.milvus.Search(ctx, collName, partitions, expr, []string{"id"},
		[]milventity.Vector{milventity.FloatVector(vec)}, "vector", milventity.COSINE, k, sp)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	var matches []vectorstore.VectorMatch
	for _, result := range results {
		for i := 0; i < result.ResultCount; i++ {
			m := vectorstore.VectorMatch{Score: float64(result.Scores[i])}
			if idCol, ok := result.Fields.GetColumn("id").(*milventity.ColumnVarChar); ok {
				m.ID = idCol.Data()[i]
			}
			matches = append(matches, m)
		}
	}

	span.SetAttributes(attribute.Int("result_count", len(matches)))
	return matches, nil
}
