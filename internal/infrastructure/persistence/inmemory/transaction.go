package inmemory

import "context"

// TxManager implements repository.Transactor as a no-op: every in-memory
// repository already serializes writes behind its own mutex, so there's
// no separate transaction boundary to open.
type TxManager struct{}

// NewTxManager builds a TxManager.
func NewTxManager() *TxManager {
	return &TxManager{}
}

func (m *TxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
