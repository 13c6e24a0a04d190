package uow

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	sqliterepo "guias/internal/infrastructure/persistence/sqlite/repository"
	"guias/internal/ports"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(gormsqlite.Open(filepath.Join(t.TempDir(), "uow.sqlite")), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	if err := sqliterepo.EnsureSchema(context.Background(), db); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return db
}

func TestWithTxRollsBackStageWrites(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	gross := sqliterepo.NewGrossWeighingRepository(db)
	classification := sqliterepo.NewClassificationRepository(db)
	u := NewUnitOfWork(db)

	errAbort := errors.New("abort")
	err := u.WithTx(ctx, func(txCtx context.Context) error {
		if ports.TxFromContext(txCtx) == nil {
			t.Fatal("TxFromContext() = nil inside WithTx")
		}
		if _, err := gross.Upsert(txCtx, ports.GrossWeighingRecord{
			GuideID:      "123A_20240101_090000",
			GrossWeight:  decimal.NewNullDecimal(decimal.NewFromInt(9000)),
			TimestampUTC: "2024-01-01 14:00:00",
		}); err != nil {
			return err
		}
		if _, err := classification.Insert(txCtx, ports.ClassificationRecord{
			GuideID:      "123A_20240101_090000",
			TimestampUTC: "2024-01-01 14:00:00",
		}); err != nil {
			return err
		}
		return errAbort
	})
	if !errors.Is(err, errAbort) {
		t.Fatalf("WithTx() error = %v, want %v", err, errAbort)
	}

	if _, err := gross.Get(ctx, "123A_20240101_090000"); !errors.Is(err, ports.ErrRecordNotFound) {
		t.Fatalf("gross Get() after rollback error = %v, want ErrRecordNotFound", err)
	}
	if _, err := classification.Get(ctx, "123A_20240101_090000"); !errors.Is(err, ports.ErrRecordNotFound) {
		t.Fatalf("classification Get() after rollback error = %v, want ErrRecordNotFound", err)
	}
}

func TestWithTxCommits(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	exit := sqliterepo.NewExitRepository(db)

	if err := NewUnitOfWork(db).WithTx(ctx, func(txCtx context.Context) error {
		_, err := exit.Upsert(txCtx, ports.ExitRecord{GuideID: "123A_20240101_090000", TimestampUTC: "2024-01-01 15:00:00"})
		return err
	}); err != nil {
		t.Fatalf("WithTx() error = %v", err)
	}

	got, err := exit.Get(ctx, "123A_20240101_090000")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.TimestampUTC != "2024-01-01 15:00:00" {
		t.Fatalf("Get() timestamp = %q", got.TimestampUTC)
	}
}

func TestWithTxJoinsOuterTransaction(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	exit := sqliterepo.NewExitRepository(db)
	u := NewUnitOfWork(db)

	err := u.WithTx(ctx, func(outer context.Context) error {
		if err := u.WithTx(outer, func(inner context.Context) error {
			if ports.TxFromContext(inner) != ports.TxFromContext(outer) {
				t.Fatal("inner WithTx opened a new transaction")
			}
			_, err := exit.Upsert(inner, ports.ExitRecord{GuideID: "123A_20240101_090000", TimestampUTC: "2024-01-01 15:00:00"})
			return err
		}); err != nil {
			return err
		}
		return errors.New("rollback everything")
	})
	if err == nil {
		t.Fatal("WithTx() expected error")
	}
	if _, err := exit.Get(ctx, "123A_20240101_090000"); !errors.Is(err, ports.ErrRecordNotFound) {
		t.Fatalf("Get() after outer rollback error = %v, want ErrRecordNotFound", err)
	}
}
