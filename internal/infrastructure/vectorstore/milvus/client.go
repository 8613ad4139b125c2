// Package milvus implements vectorstore.VectorStore over Milvus, for
// projects that have outgrown the in-memory exact store.
package milvus

import (
	"context"
	"fmt"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/loomtale/engine/internal/config"
)

var tracer = otel.Tracer("vectorstore/milvus")

// Client wraps the Milvus SDK client with the engine's collection naming
// and partitioning conventions.
type Client struct {
	milvus client.Client
	config *config.MilvusConfig
}

// NewClient dials Milvus at cfg's address.
func NewClient(ctx context.Context, cfg *config.MilvusConfig) (*Client, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	var milvusClient client.Client
	var err error
	if cfg.User != "" && cfg.Password != "" {
		milvusClient, err = client.NewClient(ctx, client.Config{Address: addr, Username: cfg.User, Password: cfg.Password})
	} else {
		milvusClient, err = client.NewClient(ctx, client.Config{Address: addr})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to milvus: %w", err)
	}

	return &Client{milvus: milvusClient, config: cfg}, nil
}

func (c *Client) Close() error { return c.milvus.Close() }

func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "milvus.HealthCheck")
	defer span.End()

	_, err := c.milvus.HasCollection(ctx, "health_check")
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

// CollectionName prefixes name with the configured collection prefix.
func (c *Client) CollectionName(name string) string {
	if c.config.CollectionPrefix != "" {
		return c.config.CollectionPrefix + "_" + name
	}
	return name
}

// PartitionName derives a per-project partition name, keeping each
// project's vectors physically isolated within a shared collection.
func PartitionName(projectID string) string {
	return "project_" + projectID
}

func (c *Client) HasCollection(ctx context.Context, name string) (bool, error) {
	ctx, span := tracer.Start(ctx, "milvus.HasCollection", trace.WithAttributes(attribute.String("collection", name)))
	defer span.End()
	return c.milvus.HasCollection(ctx, c.CollectionName(name))
}

func (c *Client) LoadCollection(ctx context.Context, name string) error {
	ctx, span := tracer.Start(ctx, "milvus.LoadCollection", trace.WithAttributes(attribute.String("collection", name)))
	defer span.End()
	return c.milvus.LoadCollection(ctx, c.CollectionName(name), false)
}
