package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/loomtale/engine/internal/config"
	"github.com/loomtale/engine/internal/domain/repository"
)

// OpenRawSQL opens a plain database/sql connection to cfg's database
// through the lib/pq driver, parallel to Client's GORM/pgx connection.
// GORM's own postgres driver talks pgx directly and never touches
// database/sql's driver registry, so full-text search — which only
// needs a single parameterized query, not an ORM — goes through this
// connection instead.
func OpenRawSQL(cfg *config.PostgresConfig) (*sql.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open raw postgres connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping raw postgres connection: %w", err)
	}
	return db, nil
}

// WithFullTextSearch attaches a raw database/sql connection to r,
// switching LexicalSearch from the in-process token-overlap scan to
// Postgres' own full-text ranking (to_tsvector/plainto_tsquery/ts_rank).
// Worthwhile once a project's memory corpus outgrows what an in-process
// scan can do cheaply per turn.
func (r *MemoryRepository) WithFullTextSearch(raw *sql.DB) *MemoryRepository {
	r.raw = raw
	return r
}

func (r *MemoryRepository) lexicalSearchFTS(ctx context.Context, projectID, level, query string, k int) ([]repository.SearchResult, error) {
	if k <= 0 {
		k = 50
	}
	rows, err := r.raw.QueryContext(ctx, `
		SELECT id, ts_rank(to_tsvector('english', content), plainto_tsquery('english', $1)) AS rank
		FROM memory_items
		WHERE project_id = $2
		  AND ($3 = '' OR level = $3)
		  AND to_tsvector('english', content) @@ plainto_tsquery('english', $1)
		ORDER BY rank DESC
		LIMIT $4
	`, query, projectID, level, k)
	if err != nil {
		return nil, fmt.Errorf("full-text search query failed: %w", err)
	}
	defer rows.Close()

	var results []repository.SearchResult
	for rows.Next() {
		var id string
		var rank float64
		if err := rows.Scan(&id, &rank); err != nil {
			return nil, fmt.Errorf("failed to scan full-text search row: %w", err)
		}
		item, err := r.Get(ctx, id)
		if err != nil || item == nil {
			continue
		}
		results = append(results, repository.SearchResult{Item: item, Score: rank})
	}
	return results, rows.Err()
}
