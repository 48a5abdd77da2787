package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a configuration file when it changes on disk and hands the
// validated result to a callback. Editors frequently replace files via
// rename, so the parent directory is watched rather than the file itself.
type Watcher struct {
	path     string
	logger   *slog.Logger
	onChange func(Config)

	fsWatcher *fsnotify.Watcher
	debounce  time.Duration

	mu      sync.Mutex
	last    Config
	done    chan struct{}
	stopped sync.Once
	wg      sync.WaitGroup
}

// NewWatcher constructs a watcher for path. onChange is invoked from the
// watcher's own goroutine with each successfully reloaded configuration.
func NewWatcher(path string, logger *slog.Logger, onChange func(Config)) (*Watcher, error) {
	if path == "" {
		return nil, fmt.Errorf("watcher requires a config path")
	}
	if onChange == nil {
		return nil, fmt.Errorf("watcher requires an onChange callback")
	}
	if logger == nil {
		logger = slog.Default()
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fs watcher: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	if err := fsWatcher.Add(filepath.Dir(abs)); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("watch config directory: %w", err)
	}

	w := &Watcher{
		path:      abs,
		logger:    logger,
		onChange:  onChange,
		fsWatcher: fsWatcher,
		debounce:  200 * time.Millisecond,
		done:      make(chan struct{}),
	}

	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Stop terminates the watcher. Safe to call multiple times.
func (w *Watcher) Stop() {
	w.stopped.Do(func() {
		close(w.done)
		w.fsWatcher.Close()
	})
	w.wg.Wait()
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	var pending *time.Timer
	reloadC := make(chan struct{}, 1)

	for {
		select {
		case <-w.done:
			if pending != nil {
				pending.Stop()
			}
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			// Coalesce bursts of write events into one reload.
			if pending != nil {
				pending.Stop()
			}
			pending = time.AfterFunc(w.debounce, func() {
				select {
				case reloadC <- struct{}{}:
				default:
				}
			})
		case <-reloadC:
			w.reload()
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", "error", err)
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		w.logger.Warn("config reload rejected", "path", w.path, "error", err)
		return
	}

	w.mu.Lock()
	unchanged := cfg == w.last
	w.last = cfg
	w.mu.Unlock()
	if unchanged {
		return
	}

	w.logger.Info("configuration reloaded", "path", w.path, "trigger_delay_ms", cfg.Engine.TriggerDelayMS)
	w.onChange(cfg)
}
