package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestRedisCacheRoundTrip(t *testing.T) {
	addr := os.Getenv("GUIAS_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("GUIAS_TEST_REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() {
		_ = client.Close()
	})
	cache := NewRedisCache(client, "guias-test:")
	ctx := context.Background()

	if err := cache.Set(ctx, "auth_code:x", "482913", time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	value, found, err := cache.Get(ctx, "auth_code:x")
	if err != nil || !found || value != "482913" {
		t.Fatalf("Get() = %q, %v, %v", value, found, err)
	}
	if err := cache.Delete(ctx, "auth_code:x"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, found, _ := cache.Get(ctx, "auth_code:x"); found {
		t.Fatalf("Get() after delete found=true")
	}
}

func TestRedisCacheRejectsEmptyKey(t *testing.T) {
	cache := NewRedisCache(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}), "guias:")
	if err := cache.Set(context.Background(), " ", "v", 0); err == nil {
		t.Fatalf("Set() expected error for empty key")
	}
}
