package uow

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"guias/internal/errs"
	"guias/internal/ports"
)

// UnitOfWork runs stage writes in one gorm transaction. Repositories find it through ctx.
type UnitOfWork struct {
	db *gorm.DB
}

var _ ports.UnitOfWork = (*UnitOfWork)(nil)

func NewUnitOfWork(db *gorm.DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

// WithTx joins the transaction already carried by ctx, if any, instead of nesting a savepoint.
func (u *UnitOfWork) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if fn == nil {
		return errors.New("transaction callback is required")
	}
	if _, ok := ports.TxFromContext(ctx).(*gorm.DB); ok {
		return fn(ctx)
	}

	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ports.WithTxContext(ctx, tx))
	})
	if err != nil {
		return errs.Wrap(err, "stage transaction")
	}
	return nil
}
