package ports

import "context"

// Tx is the store's transaction handle. Only the sqlite adapter knows the
// concrete type.
type Tx any

// UnitOfWork commits everything fn writes when fn returns nil and rolls it
// back otherwise. Payment+license and triage updates run inside one.
type UnitOfWork interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type txKey struct{}

func WithTxContext(ctx context.Context, tx Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// TxFromContext returns the open transaction, or nil outside one.
func TxFromContext(ctx context.Context) Tx {
	return ctx.Value(txKey{})
}

// InTx reports whether ctx already carries a transaction.
func InTx(ctx context.Context) bool {
	return ctx != nil && TxFromContext(ctx) != nil
}
