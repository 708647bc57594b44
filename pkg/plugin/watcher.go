package plugin

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher triggers a full plugin reload when files under the watched
// directory change. Plugins are compiled in, so a reload re-initializes
// instances with fresh configuration rather than loading new code.
type Watcher struct {
	manager  *Manager
	dir      string
	logger   *slog.Logger
	debounce time.Duration

	fsw  *fsnotify.Watcher
	done chan struct{}
}

// NewWatcher creates a watcher over dir. Call Start to begin watching.
func NewWatcher(manager *Manager, dir string, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}
	return &Watcher{
		manager:  manager,
		dir:      dir,
		logger:   logger.With("component", "plugin_watcher"),
		debounce: 500 * time.Millisecond,
		fsw:      fsw,
		done:     make(chan struct{}),
	}, nil
}

// Start watches until ctx is cancelled or Stop is called. Write and create
// events are debounced so editors emitting bursts trigger one reload.
func (w *Watcher) Start(ctx context.Context) {
	go func() {
		var timer *time.Timer
		var pending <-chan time.Time

		for {
			select {
			case event, ok := <-w.fsw.Events:
				if !ok {
					return
				}
				if !w.relevant(event) {
					continue
				}
				w.logger.Info("plugin config changed", "path", event.Name, "op", event.Op.String())
				if timer == nil {
					timer = time.NewTimer(w.debounce)
				} else {
					timer.Reset(w.debounce)
				}
				pending = timer.C
			case <-pending:
				pending = nil
				if err := w.manager.ReloadAll(ctx); err != nil {
					w.logger.Error("reload after file change failed", "error", err)
				}
			case err, ok := <-w.fsw.Errors:
				if !ok {
					return
				}
				w.logger.Error("watch error", "error", err)
			case <-ctx.Done():
				return
			case <-w.done:
				return
			}
		}
	}()
	w.logger.Info("file watcher started", "dir", w.dir)
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
		return false
	}
	name := strings.ToLower(event.Name)
	return strings.HasSuffix(name, ".json") || strings.HasSuffix(name, ".env") || strings.HasSuffix(name, ".yaml")
}

// Stop ends watching and releases the underlying fd.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.fsw.Close()
}
