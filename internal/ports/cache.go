package ports

import (
	"context"
	"errors"
	"time"
)

var ErrCacheKeyRequired = errors.New("cache key is required")

// Cache is the TTL keyed store behind one-time authorization codes. The sqlite adapter keeps keys
// in the main database; the redis adapter shares them between server instances.
// A zero ttl keeps the key until Delete.
type Cache interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
