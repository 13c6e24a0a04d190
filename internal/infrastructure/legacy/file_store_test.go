package legacy

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"guias/internal/domain/guide"
	"guias/internal/ports"
)

func testConverter() guide.Converter {
	return guide.NewConverter(time.FixedZone("COT", -5*60*60))
}

func writeFile(t *testing.T, path string, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestFileStoreLoadHTMLScriptPayload(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "guia_123A_20240101_090000.html"), `<!doctype html>
<html><body><h1>Guia</h1>
<script type="application/json">{"codigo": "123A", "nombre_agricultor": "Finca La Esperanza",
"racimos": 250, "transportista": "Transportes ABC", "tipo_fruta": "Fruta",
"fecha_registro": "01/01/2024", "hora_registro": "09:00:00", "requiere_acarreo": "si", "ocr_placa": "ABC123"}</script>
</body></html>`)

	store := NewFileStore(dir, testConverter())
	got, err := store.Load(context.Background(), "123A_20240101_090000")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got.ProviderCode != "123A" || got.ProviderName != "Finca La Esperanza" {
		t.Fatalf("Load() provider = %#v", got)
	}
	if got.BunchCount != "250" || got.Carrier != "Transportes ABC" || !got.Haul || got.Load {
		t.Fatalf("Load() fields = %#v", got)
	}
	if got.CreatedAtUTC != "2024-01-01 14:00:00" {
		t.Fatalf("Load().CreatedAtUTC = %q", got.CreatedAtUTC)
	}
	if !got.Active || got.Source != ports.EntrySourceLegacy {
		t.Fatalf("Load() active/source = %v/%q", got.Active, got.Source)
	}
	if !reflect.DeepEqual(got.Extra, map[string]string{"ocr_placa": "ABC123"}) {
		t.Fatalf("Load().Extra = %#v", got.Extra)
	}
}

func TestFileStoreLoadDataAttributeAndDirectoryForms(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "456B_20230301_080000.html"),
		`<div id="guia" data-guia='{"codigo_proveedor":"456B","cantidad_racimos":"90","timestamp_registro_utc":"2023-03-01 13:00:00"}'></div>`)
	writeFile(t, filepath.Join(dir, "789C_20230302_070000", "datos.json"),
		`{"codigo_proveedor":"789C","tipo_fruta":"PEPA","is_active":"0"}`)

	store := NewFileStore(dir, testConverter())
	ctx := context.Background()

	got, err := store.Load(ctx, "456B_20230301_080000")
	if err != nil {
		t.Fatalf("Load(html attr) error = %v", err)
	}
	if got.BunchCount != "90" || got.CreatedAtUTC != "2023-03-01 13:00:00" {
		t.Fatalf("Load(html attr) = %#v", got)
	}

	got, err = store.Load(ctx, "789C_20230302_070000")
	if err != nil {
		t.Fatalf("Load(dir) error = %v", err)
	}
	if got.FruitType != "PEPA" || got.Active || got.CreatedAtUTC != "" {
		t.Fatalf("Load(dir) = %#v", got)
	}

	ids, err := store.Scan(ctx)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	want := []string{"456B_20230301_080000", "789C_20230302_070000"}
	if !reflect.DeepEqual(ids, want) {
		t.Fatalf("Scan() = %#v, want %#v", ids, want)
	}
}

func TestFileStoreLoadMissingAndInvalid(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "000X_20240101_090000.json"), `{not json`)
	store := NewFileStore(dir, testConverter())
	ctx := context.Background()

	if _, err := store.Load(ctx, "111A_20240101_090000"); !errors.Is(err, ports.ErrRecordNotFound) {
		t.Fatalf("Load(missing) error = %v", err)
	}
	if _, err := store.Load(ctx, "../etc/passwd"); !errors.Is(err, ports.ErrRecordNotFound) {
		t.Fatalf("Load(traversal) error = %v", err)
	}
	if _, err := store.Load(ctx, "000X_20240101_090000"); err == nil || errors.Is(err, ports.ErrRecordNotFound) {
		t.Fatalf("Load(corrupt) error = %v, want decode error", err)
	}
}

func TestFileStoreScanMissingDir(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "absent"), testConverter())
	ids, err := store.Scan(context.Background())
	if err != nil || len(ids) != 0 {
		t.Fatalf("Scan() = %#v, %v", ids, err)
	}
}

func TestWatcherCollapsesBursts(t *testing.T) {
	dir := t.TempDir()
	watcher := NewWatcher(dir, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	changed := make(chan struct{}, 4)
	done := make(chan error, 1)
	go func() {
		done <- watcher.Run(ctx, func(context.Context) error {
			calls.Add(1)
			changed <- struct{}{}
			return nil
		})
	}()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)
	for i := 0; i < 3; i++ {
		writeFile(t, filepath.Join(dir, "123A_20240101_090000.json"), `{"codigo":"123A"}`)
	}

	select {
	case <-changed:
	case <-time.After(3 * time.Second):
		t.Fatalf("onChange was not called")
	}

	time.Sleep(200 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Fatalf("onChange calls = %d, want 1", got)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run() error = %v", err)
	}
}
