package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/loomtale/engine/internal/domain/repository"
)

// TxManager implements repository.Transactor over a GORM connection.
type TxManager struct {
	client *Client
}

// NewTxManager builds a TxManager.
func NewTxManager(client *Client) *TxManager {
	return &TxManager{client: client}
}

// WithTransaction runs fn inside a database transaction, propagated to
// nested repository calls through ctx. A call already inside a
// transaction reuses it rather than nesting.
func (m *TxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if getTx(ctx) != nil {
		return fn(ctx)
	}

	return m.client.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txCtx := context.WithValue(ctx, repository.TxKey{}, tx)
		return fn(txCtx)
	})
}

func getTx(ctx context.Context) *gorm.DB {
	tx, ok := ctx.Value(repository.TxKey{}).(*gorm.DB)
	if !ok {
		return nil
	}
	return tx
}

// getDB returns the transaction bound to ctx, or db with ctx attached.
func getDB(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx := getTx(ctx); tx != nil {
		return tx
	}
	return db.WithContext(ctx)
}
