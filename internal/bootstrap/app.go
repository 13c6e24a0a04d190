package bootstrap

import (
	"context"
	"errors"
	"log/slog"

	"gorm.io/gorm"

	"guias/internal/bootstrap/config"
	"guias/internal/bootstrap/logging"
	"guias/internal/errs"
	sqliterepo "guias/internal/infrastructure/persistence/sqlite/repository"
	"guias/internal/infrastructure/metrics"
)

type App struct {
	Config  config.Config
	DB      *gorm.DB
	Metrics *metrics.Registry
}

// InitSchema creates the stage tables, adds columns missing from older databases and records the
// schema version.
func (a *App) InitSchema(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.app"))
	logging.Info(logCtx, "start schema migration")

	if err := sqliterepo.EnsureSchema(ctx, a.DB); err != nil {
		return errs.Wrap(err, "ensure schema")
	}

	logging.Info(logCtx, "schema migration completed", slog.Int("schema_version", sqliterepo.SchemaVersion))
	return nil
}

func (a *App) Close(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	sqlDB, err := a.DB.DB()
	if err != nil {
		return errs.Wrap(err, "get sql db")
	}

	if err := sqlDB.Close(); err != nil {
		return errs.Wrap(err, "close sql db")
	}

	logging.Info(logging.WithAttrs(ctx, slog.String("component", "bootstrap.app")), "database connection closed")
	return nil
}
