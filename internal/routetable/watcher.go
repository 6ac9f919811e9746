package routetable

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadFunc receives every successfully reloaded table.
type ReloadFunc func(t *Table)

const debounce = 150 * time.Millisecond

// Watch watches the route table file at path and calls fn with the new
// table after each change until ctx is cancelled. The parent directory is
// watched so that editors replacing the file by rename are noticed. A file
// that fails to parse is logged and skipped; the previous table stays in
// effect.
func Watch(ctx context.Context, path string, logger *slog.Logger, fn ReloadFunc) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	logger.Info("routetable watcher: started", slog.String("path", abs))

	var timer *time.Timer
	var timerCh <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			timerCh = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("routetable watcher: stopped")
			return nil

		case <-timerCh:
			t, loadErr := Load(abs)
			if loadErr != nil {
				logger.Warn("routetable watcher: reload failed",
					slog.String("path", abs),
					slog.String("error", loadErr.Error()))
				continue
			}
			logger.Info("routetable watcher: reloaded",
				slog.String("path", abs),
				slog.Int("routes", t.Len()))
			if fn != nil {
				fn(t)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				schedule()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("routetable watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
