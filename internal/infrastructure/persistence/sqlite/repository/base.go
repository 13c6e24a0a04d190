package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"guias/internal/errs"
	"guias/internal/ports"
)

const guideIDColumn = "codigo_guia"

func dbFromContext(ctx context.Context, base *gorm.DB) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}

	tx := ports.TxFromContext(ctx)
	if tx == nil {
		return base.WithContext(ctx), nil
	}

	gormTx, ok := tx.(*gorm.DB)
	if !ok || gormTx == nil {
		return nil, fmt.Errorf("invalid tx in context: %T", tx)
	}
	return gormTx.WithContext(ctx), nil
}

// tableGuard runs the ensure-table step once per repository; a failed attempt is retried on next use.
type tableGuard struct {
	mu    sync.Mutex
	ready bool
	model any
}

func (g *tableGuard) ensure(db *gorm.DB) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.ready {
		return nil
	}
	if err := ensureTable(db, g.model); err != nil {
		return err
	}
	g.ready = true
	return nil
}

func takeByGuideID[M any](db *gorm.DB, guideID string) (M, error) {
	var row M
	if err := db.Where(guideIDColumn+" = ?", guideID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return row, ports.ErrRecordNotFound
		}
		return row, errs.Wrapf(err, "query %s", guideID)
	}
	return row, nil
}

func existsByGuideID[M any](db *gorm.DB, guideID string) (bool, error) {
	var count int64
	if err := db.Model(new(M)).Where(guideIDColumn+" = ?", guideID).Count(&count).Error; err != nil {
		return false, errs.Wrapf(err, "count %s", guideID)
	}
	return count > 0, nil
}

// upsertByGuideID inserts the row or overwrites the listed columns of the existing one.
// It reports whether a new row was created. Concurrent writers to the same row: last one wins.
func upsertByGuideID[M any](db *gorm.DB, guideID string, row *M, columns []string) (bool, error) {
	existed, err := existsByGuideID[M](db, guideID)
	if err != nil {
		return false, err
	}

	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: guideIDColumn}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(row).Error; err != nil {
		return false, errs.Wrapf(err, "upsert %s", guideID)
	}
	return !existed, nil
}

// insertByGuideID never overwrites; it reports false when the guide id is already present.
func insertByGuideID[M any](db *gorm.DB, guideID string, row *M) (bool, error) {
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: guideIDColumn}},
		DoNothing: true,
	}).Create(row)
	if result.Error != nil {
		return false, errs.Wrapf(result.Error, "insert %s", guideID)
	}
	return result.RowsAffected > 0, nil
}
