package mouseemul

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// hotplugWatcher watches device directories and wakes sources waiting for
// their device node to (re)appear.
type hotplugWatcher struct {
	watcher *fsnotify.Watcher
	log     *zerolog.Logger

	mu      sync.Mutex
	waiters map[string][]chan struct{}
}

// newHotplugWatcher watches the parent directory of every path.
func newHotplugWatcher(paths []string, logger *zerolog.Logger) (*hotplugWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create device watcher: %w", err)
	}

	seen := make(map[string]bool)
	for _, p := range paths {
		dir := filepath.Dir(filepath.Clean(p))
		if seen[dir] {
			continue
		}
		seen[dir] = true
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
		logger.Debug().Str("dir", dir).Msg("watching for device hotplug")
	}

	return &hotplugWatcher{
		watcher: w,
		log:     logger,
		waiters: make(map[string][]chan struct{}),
	}, nil
}

// Run dispatches create events until ctx is done or the watcher is closed.
func (h *hotplugWatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-h.watcher.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Create) {
				h.log.Debug().Str("path", ev.Name).Msg("device node created")
				h.notify(ev.Name)
			}
		case err, ok := <-h.watcher.Errors:
			if !ok {
				return
			}
			h.log.Warn().Err(err).Msg("device watcher error")
		}
	}
}

// Wait returns a channel that receives once path is created. Call cancel
// when no longer waiting.
func (h *hotplugWatcher) Wait(path string) (<-chan struct{}, func()) {
	path = filepath.Clean(path)
	ch := make(chan struct{}, 1)

	h.mu.Lock()
	h.waiters[path] = append(h.waiters[path], ch)
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		ws := h.waiters[path]
		for i, w := range ws {
			if w == ch {
				h.waiters[path] = append(ws[:i], ws[i+1:]...)
				break
			}
		}
		if len(h.waiters[path]) == 0 {
			delete(h.waiters, path)
		}
	}
	return ch, cancel
}

func (h *hotplugWatcher) notify(path string) {
	path = filepath.Clean(path)

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.waiters[path] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (h *hotplugWatcher) Close() error {
	return h.watcher.Close()
}
