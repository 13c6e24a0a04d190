package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"guias/internal/bootstrap/config"
	"guias/internal/bootstrap/database"
	"guias/internal/bootstrap/logging"
	domain "guias/internal/domain/guide"
	"guias/internal/errs"
	cacheinfra "guias/internal/infrastructure/cache"
	"guias/internal/infrastructure/legacy"
	"guias/internal/infrastructure/metrics"
	sqliterepo "guias/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "guias/internal/infrastructure/persistence/sqlite/uow"
	"guias/internal/ports"
	"guias/internal/usecase/guide"
)

const redisKeyPrefix = "guias:"

var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(provideDatabase),
	fx.Provide(provideDisplayLocation),
	fx.Provide(metrics.NewRegistry),
	fx.Provide(provideApp),
	fx.Provide(
		fx.Annotate(
			provideLegacyStore,
			fx.As(new(ports.LegacyEntrySource)),
		),
	),
	fx.Provide(provideStageStores),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewGuideQueryRepository,
			fx.As(new(ports.GuideQueryRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliteuow.NewUnitOfWork,
			fx.As(new(ports.UnitOfWork)),
		),
	),
	fx.Provide(provideCache),
	fx.Provide(provideGuideService),
	fx.Invoke(configureLogging),
	fx.Invoke(registerSchemaHook),
)

type configParams struct {
	fx.In

	Ctx        context.Context
	ConfigFile string `name:"configFile"`
}

func provideConfig(p configParams) (config.Config, error) {
	ctx := logging.WithAttrs(p.Ctx, slog.String("component", "bootstrap.fx"))
	return config.Load(ctx, p.ConfigFile)
}

// configureLogging replaces the process default logger with the configured level and format.
func configureLogging(cfg config.Config) {
	logging.SetDefault(logging.NewLogger(os.Stderr, cfg.Log.Level, cfg.Log.Format))
}

// registerSchemaHook brings the schema up to date before any command runs.
func registerSchemaHook(lc fx.Lifecycle, app *App) {
	lc.Append(fx.Hook{
		OnStart: app.InitSchema,
	})
}

func provideDatabase(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	return db, nil
}

func provideDisplayLocation(cfg config.Config) *time.Location {
	return domain.LoadDisplayLocation(cfg.App.DisplayTimezone)
}

func provideApp(cfg config.Config, db *gorm.DB, registry *metrics.Registry) *App {
	return &App{
		Config:  cfg,
		DB:      db,
		Metrics: registry,
	}
}

func provideLegacyStore(cfg config.Config, loc *time.Location) *legacy.FileStore {
	return legacy.NewFileStore(cfg.Legacy.Dir, domain.NewConverter(loc))
}

func provideStageStores(db *gorm.DB, legacySource ports.LegacyEntrySource, cfg config.Config) ports.StageStores {
	return ports.StageStores{
		Entry:          sqliterepo.NewEntryRepository(db, legacySource, cfg.Legacy.LookupTimeout),
		GrossWeighing:  sqliterepo.NewGrossWeighingRepository(db),
		Classification: sqliterepo.NewClassificationRepository(db),
		NetWeighing:    sqliterepo.NewNetWeighingRepository(db),
		Exit:           sqliterepo.NewExitRepository(db),
	}
}

// provideCache selects the authorization code store. The redis client is closed with the app.
func provideCache(lc fx.Lifecycle, ctx context.Context, cfg config.Config, db *gorm.DB) (ports.Cache, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	switch strings.ToLower(strings.TrimSpace(cfg.Cache.Driver)) {
	case "", "sqlite", "database":
		return cacheinfra.NewSQLiteCache(db), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				if err := client.Ping(ctx).Err(); err != nil {
					return errs.Wrapf(err, "ping redis %s", cfg.Cache.Redis.Addr)
				}
				logging.Info(logCtx, "redis cache connected", slog.String("addr", cfg.Cache.Redis.Addr))
				return nil
			},
			OnStop: func(_ context.Context) error {
				return client.Close()
			},
		})
		return cacheinfra.NewRedisCache(client, redisKeyPrefix), nil
	default:
		return nil, fmt.Errorf("unsupported cache driver %q", cfg.Cache.Driver)
	}
}

type guideServiceParams struct {
	fx.In

	Config   config.Config
	Location *time.Location
	Stores   ports.StageStores
	Legacy   ports.LegacyEntrySource
	Query    ports.GuideQueryRepository
	Cache    ports.Cache
	UOW      ports.UnitOfWork
	Metrics  *metrics.Registry
}

func provideGuideService(p guideServiceParams) *guide.Service {
	return guide.NewService(guide.Dependencies{
		Stores:  p.Stores,
		Legacy:  p.Legacy,
		Query:   p.Query,
		Cache:   p.Cache,
		UOW:     p.UOW,
		Metrics: p.Metrics,
	}, guide.Options{
		DisplayLocation: p.Location,
		DuplicateWindow: p.Config.Guard.DuplicateWindow,
		AuthCodeTTL:     p.Config.Cache.AuthCodeTTL,
	})
}
