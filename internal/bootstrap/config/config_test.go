package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load(context.Background(), "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Guard.DuplicateWindow != 10*time.Minute {
		t.Fatalf("Guard.DuplicateWindow = %v, want 10m", cfg.Guard.DuplicateWindow)
	}
	if cfg.Legacy.LookupTimeout != 2*time.Second {
		t.Fatalf("Legacy.LookupTimeout = %v, want 2s", cfg.Legacy.LookupTimeout)
	}
	if cfg.App.DisplayTimezone != "America/Bogota" || cfg.Database.Driver != "sqlite" {
		t.Fatalf("unexpected defaults: %#v", cfg)
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	path := filepath.Join(dir, "guias.yaml")
	content := "guard:\n  duplicate_window: 5m\ncache:\n  driver: redis\n  redis:\n    addr: localhost:6379\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("GUIAS_SERVER_ADDR", ":9090")

	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Guard.DuplicateWindow != 5*time.Minute {
		t.Fatalf("Guard.DuplicateWindow = %v, want 5m", cfg.Guard.DuplicateWindow)
	}
	if cfg.Cache.Driver != "redis" || cfg.Cache.Redis.Addr != "localhost:6379" {
		t.Fatalf("Cache = %#v", cfg.Cache)
	}
	if cfg.Server.Addr != ":9090" {
		t.Fatalf("Server.Addr = %q, want :9090", cfg.Server.Addr)
	}
}

func TestLoadRejectsRedisWithoutAddr(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("GUIAS_CACHE_DRIVER", "redis")

	if _, err := Load(context.Background(), ""); err == nil {
		t.Fatalf("Load() expected error for redis without addr")
	}
}

func TestLoadRequiresContext(t *testing.T) {
	//nolint:staticcheck
	if _, err := Load(nil, ""); err == nil {
		t.Fatalf("Load(nil) expected error")
	}
}

// chdir switches the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir %s: %v", dir, err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("restore cwd %s: %v", prev, err)
		}
	})
}
