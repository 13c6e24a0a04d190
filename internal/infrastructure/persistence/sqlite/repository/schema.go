package repository

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"guias/internal/bootstrap/logging"
	"guias/internal/errs"
	"guias/internal/infrastructure/persistence/sqlite/model"
)

const (
	SchemaVersion    = 1
	schemaVersionKey = "schema_version"
)

// EnsureSchema creates missing tables and adds missing columns to existing ones.
// It never drops or rewrites columns, so running it repeatedly is safe.
func EnsureSchema(ctx context.Context, db *gorm.DB) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "persistence.schema"))
	tx := db.WithContext(ctx)

	for _, m := range model.Tables() {
		if err := ensureTable(tx, m); err != nil {
			return err
		}
	}

	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&model.Meta{
		Key:       schemaVersionKey,
		Value:     strconv.Itoa(SchemaVersion),
		UpdatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}).Error; err != nil {
		return errs.Wrap(err, "record schema version")
	}

	logging.Info(logCtx, "schema ensured", slog.Int("version", SchemaVersion))
	return nil
}

func ensureTable(db *gorm.DB, m any) error {
	migrator := db.Migrator()
	if !migrator.HasTable(m) {
		if err := migrator.CreateTable(m); err != nil {
			return errs.Wrap(err, "create table")
		}
		return nil
	}

	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(m); err != nil {
		return errs.Wrap(err, "parse model")
	}

	for _, field := range stmt.Schema.Fields {
		if field.DBName == "" || migrator.HasColumn(m, field.DBName) {
			continue
		}
		if err := migrator.AddColumn(m, field.DBName); err != nil {
			return errs.Wrapf(err, "add column %s.%s", stmt.Schema.Table, field.DBName)
		}
		logging.Warn(
			logging.WithAttrs(db.Statement.Context, slog.String("component", "persistence.schema")),
			"added missing column",
			slog.String("table", stmt.Schema.Table),
			slog.String("column", field.DBName),
		)
	}
	return nil
}

// MetaValue reads a bookkeeping value written by EnsureSchema or the legacy migration.
func MetaValue(ctx context.Context, db *gorm.DB, key string) (string, bool, error) {
	var row model.Meta
	if err := db.WithContext(ctx).Where("key = ?", key).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, errs.Wrap(err, "query meta")
	}
	return row.Value, true, nil
}

func SetMetaValue(ctx context.Context, db *gorm.DB, key string, value string) error {
	if err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&model.Meta{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}).Error; err != nil {
		return errs.Wrapf(err, "set meta %s", key)
	}
	return nil
}
