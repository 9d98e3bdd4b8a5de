// Package watch re-runs the cogfile whenever it changes on disk.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDefault is the debounce interval for file events. Editors
// write files in bursts; only the last event in a burst triggers.
const debounceDefault = 200 * time.Millisecond

// pollDefault is the polling interval when fsnotify is unavailable.
const pollDefault = 2 * time.Second

// Config holds watcher configuration.
type Config struct {
	Path     string        // cogfile to watch
	PollMode bool          // fall back to polling instead of fsnotify
	Debounce time.Duration // default: debounceDefault
	OnChange func(ctx context.Context)
}

// Watcher triggers OnChange when the watched file is written.
type Watcher struct {
	cfg Config
}

// New creates a watcher with validated configuration.
func New(cfg Config) (*Watcher, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("watch path is required")
	}
	if cfg.OnChange == nil {
		return nil, fmt.Errorf("change callback is required")
	}
	if cfg.Debounce == 0 {
		cfg.Debounce = debounceDefault
	}
	return &Watcher{cfg: cfg}, nil
}

// Run blocks until ctx is canceled, invoking OnChange after each
// debounced modification of the watched file.
func (w *Watcher) Run(ctx context.Context) error {
	if w.cfg.PollMode {
		return w.runPoll(ctx)
	}
	return w.runFSNotify(ctx)
}

// runFSNotify watches the file's directory; watching the file itself
// breaks when editors replace it via rename.
func (w *Watcher) runFSNotify(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	dir := filepath.Dir(w.cfg.Path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch dir: %w", err)
	}

	slog.Info("watching cogfile", "mode", "fsnotify", "path", w.cfg.Path)

	target := filepath.Clean(w.cfg.Path)
	var mu sync.Mutex
	var pending *time.Timer

	for {
		select {
		case <-ctx.Done():
			mu.Lock()
			if pending != nil {
				pending.Stop()
			}
			mu.Unlock()
			slog.Info("watch stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if filepath.Clean(event.Name) != target {
				continue
			}

			mu.Lock()
			if pending != nil {
				pending.Stop()
			}
			pending = time.AfterFunc(w.cfg.Debounce, func() {
				slog.Debug("cogfile changed", "path", w.cfg.Path)
				w.cfg.OnChange(ctx)
			})
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("watcher error", "error", err)
		}
	}
}

// runPoll compares the file's mtime on an interval.
func (w *Watcher) runPoll(ctx context.Context) error {
	slog.Info("watching cogfile", "mode", "poll", "path", w.cfg.Path, "interval", pollDefault)

	var lastMod time.Time
	if info, err := os.Stat(w.cfg.Path); err == nil {
		lastMod = info.ModTime()
	}

	ticker := time.NewTicker(pollDefault)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("watch stopped")
			return nil
		case <-ticker.C:
			info, err := os.Stat(w.cfg.Path)
			if err != nil {
				continue
			}
			if info.ModTime().After(lastMod) {
				lastMod = info.ModTime()
				slog.Debug("cogfile changed", "path", w.cfg.Path)
				w.cfg.OnChange(ctx)
			}
		}
	}
}
