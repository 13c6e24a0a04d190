package ports

import "context"

// Tx is the handle a UnitOfWork stores in the context. The persistence adapter owns its concrete
// type (a *gorm.DB for the sqlite and postgres stores).
type Tx any

// UnitOfWork groups stage writes that must commit together, such as a pepa gross weighing and
// its synthetic classification. An error from fn rolls the whole group back.
type UnitOfWork interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type txKey struct{}

func WithTxContext(ctx context.Context, tx Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey{}, tx)
}

// TxFromContext returns nil outside a UnitOfWork.
func TxFromContext(ctx context.Context) Tx {
	if ctx == nil {
		return nil
	}
	return ctx.Value(txKey{})
}
