package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds settings for the framework components that surround the
// dispatcher: the async dispatch queue, the filesystem event source, and the
// ops HTTP surface. The dispatcher itself has no configuration beyond the
// two knobs forwarded to it here.
type Config struct {
	HTTPPort       string
	WatchDirs      []string
	WatchExts      []string
	QueueSize      int
	WorkerCount    int
	MaxParallelism int
	EnableWatcher  bool
	PoisonRecovery bool
	Environment    string
}

// fileConfig mirrors the optional YAML config file. JSON is also accepted
// because it is a subset of YAML 1.2. Pointer fields distinguish "absent"
// from zero.
type fileConfig struct {
	HTTPPort       string   `json:"http_port" yaml:"http_port"`
	WatchDirs      []string `json:"watch_dirs" yaml:"watch_dirs"`
	WatchExts      []string `json:"watch_exts" yaml:"watch_exts"`
	QueueSize      *int     `json:"queue_size" yaml:"queue_size"`
	WorkerCount    *int     `json:"worker_count" yaml:"worker_count"`
	MaxParallelism *int     `json:"max_parallelism" yaml:"max_parallelism"`
	PoisonRecovery *bool    `json:"poison_recovery" yaml:"poison_recovery"`
}

const (
	defaultPort        = ":8080"
	minQueueSize       = 8
	defaultQueueSize   = 128
	maxQueueSize       = 1024
	defaultWorkerCount = 4
	maxWorkerCount     = 64
)

// Load reads configuration from the environment, an optional .env file, and
// an optional YAML file named by CONFIG_PATH. Environment variables win over
// the file; defaults and clamps apply last.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		HTTPPort:       os.Getenv("HTTP_PORT"),
		WatchDirs:      splitList(os.Getenv("WATCH_DIRS")),
		WatchExts:      splitList(os.Getenv("WATCH_EXTS")),
		QueueSize:      getenvInt("QUEUE_SIZE", defaultQueueSize),
		WorkerCount:    getenvInt("WORKER_COUNT", defaultWorkerCount),
		MaxParallelism: getenvInt("MAX_PARALLELISM", 0),
		EnableWatcher:  getenvBool("ENABLE_WATCHER", true),
		PoisonRecovery: getenvBool("POISON_RECOVERY", false),
		Environment:    getenv("ENVIRONMENT", "local"),
	}

	path := getenv("CONFIG_PATH", filepath.Join("config", "config.yaml"))
	fileCfg, err := loadFileConfig(path)
	if err != nil {
		return Config{}, fmt.Errorf("config file %s: %w", path, err)
	}
	applyFile(&cfg, fileCfg)

	if cfg.HTTPPort == "" {
		cfg.HTTPPort = defaultPort
	}
	if !strings.HasPrefix(cfg.HTTPPort, ":") {
		cfg.HTTPPort = ":" + cfg.HTTPPort
	}
	cfg.QueueSize = clampInt(cfg.QueueSize, minQueueSize, maxQueueSize)
	cfg.WorkerCount = clampInt(cfg.WorkerCount, 1, maxWorkerCount)
	if cfg.QueueSize < cfg.WorkerCount {
		cfg.QueueSize = cfg.WorkerCount
	}
	if cfg.MaxParallelism < 0 {
		cfg.MaxParallelism = 0
	}

	log.Printf("config: port=%s queue=%d workers=%d watch_dirs=%d env=%s",
		cfg.HTTPPort, cfg.QueueSize, cfg.WorkerCount, len(cfg.WatchDirs), cfg.Environment)
	return cfg, nil
}

// applyFile fills fields the environment left unset.
func applyFile(cfg *Config, f fileConfig) {
	if cfg.HTTPPort == "" {
		cfg.HTTPPort = f.HTTPPort
	}
	if len(cfg.WatchDirs) == 0 {
		cfg.WatchDirs = f.WatchDirs
	}
	if len(cfg.WatchExts) == 0 {
		cfg.WatchExts = f.WatchExts
	}
	if os.Getenv("QUEUE_SIZE") == "" && f.QueueSize != nil {
		cfg.QueueSize = *f.QueueSize
	}
	if os.Getenv("WORKER_COUNT") == "" && f.WorkerCount != nil {
		cfg.WorkerCount = *f.WorkerCount
	}
	if os.Getenv("MAX_PARALLELISM") == "" && f.MaxParallelism != nil {
		cfg.MaxParallelism = *f.MaxParallelism
	}
	if os.Getenv("POISON_RECOVERY") == "" && f.PoisonRecovery != nil {
		cfg.PoisonRecovery = *f.PoisonRecovery
	}
}

func loadFileConfig(path string) (fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileConfig{}, nil
		}
		return fileConfig{}, err
	}
	var f fileConfig
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fileConfig{}, err
	}
	return f, nil
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getenvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
