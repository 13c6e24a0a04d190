package cache

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"guias/internal/errs"
	"guias/internal/infrastructure/persistence/sqlite/model"
	"guias/internal/ports"
)

// SQLiteCache stores keys in the cache_kv table. Expired keys are removed lazily on read.
type SQLiteCache struct {
	db  *gorm.DB
	now func() time.Time
}

var _ ports.Cache = (*SQLiteCache)(nil)

func NewSQLiteCache(db *gorm.DB) *SQLiteCache {
	return &SQLiteCache{db: db, now: time.Now}
}

func (c *SQLiteCache) Get(ctx context.Context, key string) (string, bool, error) {
	k, err := checkKey(ctx, key)
	if err != nil {
		return "", false, err
	}

	var row model.CacheKV
	if err := c.db.WithContext(ctx).Where("key = ?", k).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, errs.Wrap(err, "query cache by key")
	}

	expired, err := c.expired(row)
	if err != nil {
		return "", false, err
	}
	if expired {
		if err := c.remove(ctx, k); err != nil {
			return "", false, errs.Wrap(err, "delete expired cache key")
		}
		return "", false, nil
	}
	return row.Value, true, nil
}

func (c *SQLiteCache) expired(row model.CacheKV) (bool, error) {
	if row.ExpiresAt == "" {
		return false, nil
	}
	expiresAt, err := time.Parse(time.RFC3339Nano, row.ExpiresAt)
	if err != nil {
		return false, errs.Wrapf(err, "parse expiry of %s", row.Key)
	}
	return !c.now().UTC().Before(expiresAt), nil
}

func (c *SQLiteCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	k, err := checkKey(ctx, key)
	if err != nil {
		return err
	}

	now := c.now().UTC()
	row := model.CacheKV{
		Key:       k,
		Value:     value,
		UpdatedAt: now.Format(time.RFC3339Nano),
	}
	if ttl > 0 {
		row.ExpiresAt = now.Add(ttl).Format(time.RFC3339Nano)
	}

	if err := c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at", "updated_at"}),
	}).Create(&row).Error; err != nil {
		return errs.Wrap(err, "upsert cache key")
	}
	return nil
}

func (c *SQLiteCache) Delete(ctx context.Context, key string) error {
	k, err := checkKey(ctx, key)
	if err != nil {
		return err
	}
	return errs.Wrap(c.remove(ctx, k), "delete cache key")
}

func (c *SQLiteCache) remove(ctx context.Context, key string) error {
	return c.db.WithContext(ctx).Where("key = ?", key).Delete(&model.CacheKV{}).Error
}
