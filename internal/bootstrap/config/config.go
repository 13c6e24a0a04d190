package config

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"guias/internal/bootstrap/logging"
	"guias/internal/errs"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	Legacy   LegacyConfig   `mapstructure:"legacy"`
	Guard    GuardConfig    `mapstructure:"guard"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Server   ServerConfig   `mapstructure:"server"`
}

type AppConfig struct {
	Name            string `mapstructure:"name"`
	Env             string `mapstructure:"env"`
	DisplayTimezone string `mapstructure:"display_timezone"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type LegacyConfig struct {
	Dir           string        `mapstructure:"dir"`
	LookupTimeout time.Duration `mapstructure:"lookup_timeout"`
}

type GuardConfig struct {
	DuplicateWindow time.Duration `mapstructure:"duplicate_window"`
}

type CacheConfig struct {
	Driver      string        `mapstructure:"driver"`
	AuthCodeTTL time.Duration `mapstructure:"auth_code_ttl"`
	Redis       RedisConfig   `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

func Load(ctx context.Context, configFile string) (Config, error) {
	if ctx == nil {
		return Config{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return Config{}, errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.config"))

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.Warn(logCtx, "ignore unreadable .env file", slog.Any("err", errs.Loggable(err)))
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("GUIAS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			logging.Warn(logCtx, "config file not found, fallback to defaults and env")
		} else {
			return Config{}, errs.Wrap(err, "read config")
		}
	} else {
		logging.Info(logCtx, "using config file", slog.String("path", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errs.Wrap(err, "unmarshal config")
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	logging.Info(
		logCtx,
		"config loaded",
		slog.String("app", cfg.App.Name),
		slog.String("env", cfg.App.Env),
		slog.String("database_driver", cfg.Database.Driver),
		slog.String("cache_driver", cfg.Cache.Driver),
		slog.Duration("duplicate_window", cfg.Guard.DuplicateWindow),
	)

	return cfg, nil
}

func (c Config) validate() error {
	if strings.TrimSpace(c.Database.DSN) == "" {
		return errors.New("database.dsn is required")
	}
	if c.Guard.DuplicateWindow <= 0 {
		return errors.New("guard.duplicate_window must be positive")
	}
	if c.Cache.AuthCodeTTL <= 0 {
		return errors.New("cache.auth_code_ttl must be positive")
	}
	if strings.EqualFold(c.Cache.Driver, "redis") && strings.TrimSpace(c.Cache.Redis.Addr) == "" {
		return errors.New("cache.redis.addr is required when cache.driver is redis")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "guias")
	v.SetDefault("app.env", "local")
	v.SetDefault("app.display_timezone", "America/Bogota")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "data/guias.sqlite")
	v.SetDefault("legacy.dir", "data/guias_legacy")
	v.SetDefault("legacy.lookup_timeout", "2s")
	v.SetDefault("guard.duplicate_window", "10m")
	v.SetDefault("cache.driver", "sqlite")
	v.SetDefault("cache.auth_code_ttl", "15m")
	v.SetDefault("cache.redis.addr", "")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("server.addr", ":8080")
}
