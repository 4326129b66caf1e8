// Package watch bridges filesystem notifications onto the dispatcher:
// changes under the configured directories are published as typed events
// that any handler can subscribe to.
package watch

import (
	"context"
	"log"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"event_framework/config"
	"event_framework/metrics"
)

// FileCreated is published when a file appears under a watched directory.
type FileCreated struct {
	Path string
}

// FileModified is published when a watched file's contents change.
type FileModified struct {
	Path string
}

// FileRemoved is published when a watched file is deleted.
type FileRemoved struct {
	Path string
}

// FileRenamed is published for the old path when a watched file is renamed.
type FileRenamed struct {
	Path string
}

// Publisher is the sink file events are published into. Both
// *pubsub.Publisher and the async queue façade satisfy it.
type Publisher interface {
	Publish(event any) error
}

// Watcher monitors the configured directories and publishes file events.
type Watcher struct {
	cfg config.Config
	pub Publisher
}

func New(cfg config.Config, pub Publisher) *Watcher {
	return &Watcher{cfg: cfg, pub: pub}
}

// Start registers the watch directories and runs the notification loop until
// the context is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	if !w.cfg.EnableWatcher || len(w.cfg.WatchDirs) == 0 {
		log.Println("watcher disabled")
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	for _, dir := range w.cfg.WatchDirs {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return err
		}
	}
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				w.handle(evt)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("watcher error: %v", err)
			}
		}
	}()
	return nil
}

func (w *Watcher) handle(evt fsnotify.Event) {
	if !w.matchExt(evt.Name) {
		return
	}
	ev := eventFor(evt)
	if ev == nil {
		return
	}
	metrics.IncFileSeen()
	if err := w.pub.Publish(ev); err != nil {
		log.Printf("watch publish %s: %v", evt.Name, err)
	}
}

// eventFor maps a notification to its published event type. Chmod-only
// notifications carry no useful signal and map to nil.
func eventFor(evt fsnotify.Event) any {
	switch {
	case evt.Op&fsnotify.Create != 0:
		return FileCreated{Path: evt.Name}
	case evt.Op&fsnotify.Write != 0:
		return FileModified{Path: evt.Name}
	case evt.Op&fsnotify.Remove != 0:
		return FileRemoved{Path: evt.Name}
	case evt.Op&fsnotify.Rename != 0:
		return FileRenamed{Path: evt.Name}
	default:
		return nil
	}
}

// matchExt reports whether the path passes the extension filter. An empty
// filter admits everything.
func (w *Watcher) matchExt(path string) bool {
	if len(w.cfg.WatchExts) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, want := range w.cfg.WatchExts {
		if !strings.HasPrefix(want, ".") {
			want = "." + want
		}
		if ext == strings.ToLower(want) {
			return true
		}
	}
	return false
}

// Backfill publishes FileCreated for files already present under the watch
// directories, so handlers registered after the fact can catch up.
func (w *Watcher) Backfill(ctx context.Context) error {
	for _, dir := range w.cfg.WatchDirs {
		entries, err := filepath.Glob(filepath.Join(dir, "*"))
		if err != nil {
			return err
		}
		for _, e := range entries {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if !w.matchExt(e) {
				continue
			}
			metrics.IncFileSeen()
			if err := w.pub.Publish(FileCreated{Path: e}); err != nil {
				log.Printf("backfill publish %s: %v", e, err)
			}
		}
	}
	return nil
}
