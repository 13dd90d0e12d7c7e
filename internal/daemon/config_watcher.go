package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"hotdock/internal/logging"
)

const configDebounceWindow = 250 * time.Millisecond

// configWatcher calls onChange once editor write bursts on the config file
// have settled.
type configWatcher struct {
	watcher  *fsnotify.Watcher
	target   string
	logger   *slog.Logger
	onChange func()
}

// newConfigWatcher watches the directory holding path, since editors often
// replace the file rather than write it in place.
func newConfigWatcher(path string, logger *slog.Logger, onChange func()) (*configWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	target := filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}
	return &configWatcher{
		watcher:  watcher,
		target:   target,
		logger:   logging.NewComponentLogger(logger, "config-watcher"),
		onChange: onChange,
	}, nil
}

// Run blocks until ctx is cancelled or the watcher is closed.
func (w *configWatcher) Run(ctx context.Context) {
	var (
		timer   *time.Timer
		timerCh <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(configDebounceWindow)
				timerCh = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timerCh:
					default:
					}
				}
				timer.Reset(configDebounceWindow)
			}
		case <-timerCh:
			timer = nil
			timerCh = nil
			w.logger.Info("config file changed", logging.String("path", w.target))
			if w.onChange != nil {
				w.onChange()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", logging.Error(err))
		}
	}
}

// Close stops the underlying fsnotify watcher.
func (w *configWatcher) Close() {
	_ = w.watcher.Close()
}
