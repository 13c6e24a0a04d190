package legacy

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"guias/internal/bootstrap/logging"
	"guias/internal/errs"
)

const defaultDebounce = 500 * time.Millisecond

// Watcher calls onChange after legacy files are created or rewritten. Bursts of events are
// collapsed into one call once the directory has been quiet for the debounce interval.
type Watcher struct {
	dir      string
	debounce time.Duration
}

func NewWatcher(dir string, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	return &Watcher{dir: dir, debounce: debounce}
}

func (w *Watcher) Run(ctx context.Context, onChange func(context.Context) error) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if onChange == nil {
		return errors.New("onChange is required")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "legacy.watcher"), slog.String("dir", w.dir))

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errs.Wrap(err, "create fsnotify watcher")
	}
	defer fsw.Close()

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return errs.Wrapf(err, "create legacy dir %s", w.dir)
	}
	if err := fsw.Add(w.dir); err != nil {
		return errs.Wrapf(err, "watch %s", w.dir)
	}
	logging.Info(logCtx, "watching legacy directory")

	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := fsw.Add(event.Name); err != nil {
						logging.Warn(logCtx, "watch guide directory failed", slog.String("path", event.Name), slog.Any("err", errs.Loggable(err)))
					}
				}
			}
			timer.Reset(w.debounce)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logging.Warn(logCtx, "legacy watcher error", slog.Any("err", errs.Loggable(err)))
		case <-timer.C:
			if err := onChange(ctx); err != nil {
				logging.Error(logCtx, "legacy change handler failed", slog.Any("err", errs.Loggable(err)))
			}
		}
	}
}

func relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return false
	}
	switch strings.ToLower(filepath.Ext(event.Name)) {
	case ".html", ".json", "":
		return true
	default:
		return false
	}
}
