package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// envSettleDelay coalesces the burst of events editors produce on save.
const envSettleDelay = 250 * time.Millisecond

// EnvWatcher reports the parsed contents of a .env file each time it changes.
//
// The parent directory is watched rather than the file itself so that
// editors which replace the file on save are still observed.
type EnvWatcher struct {
	path     string
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	onChange func(map[string]string)

	mu    sync.Mutex
	timer *time.Timer

	wg       sync.WaitGroup
	stopOnce sync.Once
	done     chan struct{}
}

// NewEnvWatcher starts watching path. onChange runs on a timer goroutine
// after the file settles.
func NewEnvWatcher(path string, logger *slog.Logger, onChange func(map[string]string)) (*EnvWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	return &EnvWatcher{
		path:     abs,
		watcher:  w,
		logger:   logger,
		onChange: onChange,
		done:     make(chan struct{}),
	}, nil
}

// Start processes events until ctx is canceled or Stop is called.
func (w *EnvWatcher) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-w.done:
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != w.path {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					w.schedule()
				}
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.logger.Warn("env file watcher error", "error", err)
			}
		}
	}()
}

// Stop ends the watch and releases the fsnotify handle.
func (w *EnvWatcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
		err = w.watcher.Close()
		w.wg.Wait()
	})
	return err
}

func (w *EnvWatcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(envSettleDelay, w.reload)
}

func (w *EnvWatcher) reload() {
	select {
	case <-w.done:
		return
	default:
	}

	values, err := parseEnvFile(w.path)
	if err != nil {
		w.logger.Warn("failed to reload env file", "path", w.path, "error", err)
		return
	}
	w.logger.Info("env file changed", "path", w.path, "keys", len(values))
	w.onChange(values)
}
