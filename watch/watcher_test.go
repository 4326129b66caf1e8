package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	"event_framework/config"
)

type capturePublisher struct {
	events chan any
}

func (c *capturePublisher) Publish(event any) error {
	c.events <- event
	return nil
}

func TestEventForMapsOps(t *testing.T) {
	cases := []struct {
		op   fsnotify.Op
		want any
	}{
		{fsnotify.Create, FileCreated{Path: "f"}},
		{fsnotify.Write, FileModified{Path: "f"}},
		{fsnotify.Remove, FileRemoved{Path: "f"}},
		{fsnotify.Rename, FileRenamed{Path: "f"}},
		{fsnotify.Chmod, nil},
	}
	for _, tc := range cases {
		got := eventFor(fsnotify.Event{Name: "f", Op: tc.op})
		if got != tc.want {
			t.Fatalf("op %v mapped to %#v, want %#v", tc.op, got, tc.want)
		}
	}
}

func TestMatchExt(t *testing.T) {
	w := New(config.Config{WatchExts: []string{".txt", "log"}}, nil)
	if !w.matchExt("/tmp/a.TXT") {
		t.Fatalf("expected .TXT to match case-insensitively")
	}
	if !w.matchExt("/tmp/a.log") {
		t.Fatalf("expected bare extension in the filter to match")
	}
	if w.matchExt("/tmp/a.bin") {
		t.Fatalf("expected .bin to be filtered out")
	}

	open := New(config.Config{}, nil)
	if !open.matchExt("/tmp/anything") {
		t.Fatalf("empty filter should admit everything")
	}
}

func TestBackfillPublishesExistingFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.txt", "b.txt", "c.bin"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	pub := &capturePublisher{events: make(chan any, 8)}
	w := New(config.Config{WatchDirs: []string{dir}, WatchExts: []string{".txt"}, EnableWatcher: true}, pub)

	if err := w.Backfill(context.Background()); err != nil {
		t.Fatalf("backfill failed: %v", err)
	}
	close(pub.events)
	var got []any
	for ev := range pub.events {
		got = append(got, ev)
	}
	if len(got) != 2 {
		t.Fatalf("backfill published %d events, want 2: %v", len(got), got)
	}
	for _, ev := range got {
		if _, ok := ev.(FileCreated); !ok {
			t.Fatalf("backfill published %T, want FileCreated", ev)
		}
	}
}

func TestWatcherPublishesCreate(t *testing.T) {
	dir := t.TempDir()
	pub := &capturePublisher{events: make(chan any, 8)}
	w := New(config.Config{WatchDirs: []string{dir}, EnableWatcher: true}, pub)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	path := filepath.Join(dir, "incoming.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-pub.events:
			if created, ok := ev.(FileCreated); ok {
				if created.Path != path {
					t.Fatalf("created event for %s, want %s", created.Path, path)
				}
				return
			}
			// Writes may arrive alongside the create; keep looking.
		case <-deadline:
			t.Fatalf("no FileCreated event observed")
		}
	}
}

func TestStartDisabledWatcher(t *testing.T) {
	w := New(config.Config{EnableWatcher: false}, nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("disabled watcher should start as a no-op, got %v", err)
	}
}
