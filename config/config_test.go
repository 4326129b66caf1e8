package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestHTTPPortDefaultFormatting(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("HTTP_PORT", "9000")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.HTTPPort != ":9000" {
		t.Fatalf("expected HTTP_PORT to include colon, got %s", cfg.HTTPPort)
	}
}

func TestQueueSizeClampedAndRespectsWorkers(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("WORKER_COUNT", "16")
	t.Setenv("QUEUE_SIZE", "2")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.WorkerCount != 16 {
		t.Fatalf("expected worker count 16, got %d", cfg.WorkerCount)
	}
	if cfg.QueueSize < cfg.WorkerCount {
		t.Fatalf("queue size should be at least workers, got %d", cfg.QueueSize)
	}
}

func TestYAMLFileFillsUnsetFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "http_port: \"7070\"\nwatch_dirs:\n  - /tmp/in\nqueue_size: 64\npoison_recovery: true\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("HTTP_PORT", "")
	t.Setenv("QUEUE_SIZE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.HTTPPort != ":7070" {
		t.Fatalf("expected file port, got %s", cfg.HTTPPort)
	}
	if len(cfg.WatchDirs) != 1 || cfg.WatchDirs[0] != "/tmp/in" {
		t.Fatalf("unexpected watch dirs %v", cfg.WatchDirs)
	}
	if cfg.QueueSize != 64 {
		t.Fatalf("expected queue size 64 from file, got %d", cfg.QueueSize)
	}
	if !cfg.PoisonRecovery {
		t.Fatalf("expected poison recovery from file")
	}
}

func TestEnvironmentWinsOverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("worker_count: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("WORKER_COUNT", "8")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.WorkerCount != 8 {
		t.Fatalf("expected env worker count 8, got %d", cfg.WorkerCount)
	}
}

func TestMalformedFileIsAnError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("{not yaml"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_PATH", path)

	if _, err := Load(); err == nil {
		t.Fatalf("expected an error for malformed config file")
	}
}

func TestWatchDirListParsing(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("WATCH_DIRS", "/a, /b ,,/c")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(cfg.WatchDirs) != 3 || cfg.WatchDirs[1] != "/b" {
		t.Fatalf("unexpected watch dirs %v", cfg.WatchDirs)
	}
}
