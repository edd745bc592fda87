// Package config provides configuration loading and structs for the namesim service.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hyperjump/namesim/internal/models"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool             `yaml:"debug"`
	Server    ServerConfig     `yaml:"server"`
	Namespace models.Namespace `yaml:"namespace"`
	Storage   StorageConfig    `yaml:"storage"`
	Embedding EmbeddingConfig  `yaml:"embedding"`
	Search    SearchConfig     `yaml:"search"`
	Vectorize VectorizeConfig  `yaml:"vectorize"`
	Watch     WatchConfig      `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host                  string `yaml:"host"`
	Port                  int    `yaml:"port"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds"`
}

// RequestTimeout returns the per-request timeout.
func (s *ServerConfig) RequestTimeout() time.Duration {
	return time.Duration(s.RequestTimeoutSeconds) * time.Second
}

// StorageConfig selects the name store and holds index paths.
type StorageConfig struct {
	Driver         string `yaml:"driver"` // sqlite or postgres
	DatabasePath   string `yaml:"database_path"`
	DSN            string `yaml:"dsn"`
	DSNEnv         string `yaml:"dsn_env"`
	BleveIndexPath string `yaml:"bleve_index_path"`
	SnapshotPath   string `yaml:"snapshot_path"`
}

// ResolveDSN returns the connection string for the configured driver. For
// postgres an empty dsn is read from the environment variable named by dsn_env.
func (s *StorageConfig) ResolveDSN() string {
	if s.Driver == "postgres" {
		if s.DSN != "" {
			return s.DSN
		}
		return os.Getenv(s.DSNEnv)
	}
	return s.DatabasePath
}

// EmbeddingConfig holds embedder settings.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"` // hosted, onnx or mock
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	TokenEnv   string `yaml:"token_env"`
	Dimensions int    `yaml:"dimensions"`
	BatchSize  int    `yaml:"batch_size"`
	Normalize  bool   `yaml:"normalize"`

	// onnx only
	ModelPath string `yaml:"model_path"`
	VocabPath string `yaml:"vocab_path"`
	MaxTokens int    `yaml:"max_tokens"`

	Cache      CacheConfig      `yaml:"cache"`
	Resilience ResilienceConfig `yaml:"resilience"`
}

// Token returns the API token from the environment variable named by token_env.
func (e *EmbeddingConfig) Token() string {
	if e.TokenEnv == "" {
		return ""
	}
	return os.Getenv(e.TokenEnv)
}

// CacheConfig holds embedding cache settings.
type CacheConfig struct {
	Type          string `yaml:"type"` // lru, redis or none
	Size          int    `yaml:"size"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	TTLSeconds    int    `yaml:"ttl_seconds"`
}

// TTL returns the redis entry lifetime.
func (c *CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// ResilienceConfig holds the caller-side policy applied around the embedder.
type ResilienceConfig struct {
	TimeoutSeconds        int     `yaml:"timeout_seconds"`
	RateLimit             float64 `yaml:"rate_limit"` // requests per second; 0 disables
	Burst                 int     `yaml:"burst"`
	MaxRetries            int     `yaml:"max_retries"`
	BackoffMillis         int     `yaml:"backoff_millis"`
	BreakerFailures       uint32  `yaml:"breaker_failures"`
	BreakerTimeoutSeconds int     `yaml:"breaker_timeout_seconds"`
}

// SearchConfig holds similarity search defaults.
type SearchConfig struct {
	DefaultThreshold *float64 `yaml:"default_threshold"`
	DefaultLimit     int      `yaml:"default_limit"`
	MaxLimit         int      `yaml:"max_limit"`
	Scoring          string   `yaml:"scoring"` // cosine or dot
	Workers          int      `yaml:"workers"`
	Pushdown         bool     `yaml:"pushdown"`
}

// Threshold returns the configured default threshold.
func (s *SearchConfig) Threshold() float64 {
	if s.DefaultThreshold == nil {
		return models.DefaultThreshold
	}
	return *s.DefaultThreshold
}

// VectorizeConfig holds batch vectorization settings.
type VectorizeConfig struct {
	Concurrency int    `yaml:"concurrency"`
	OnError     string `yaml:"on_error"` // abort or skip
}

// WatchConfig holds seed-file watch settings.
type WatchConfig struct {
	Files          []string `yaml:"files"`
	DebounceMillis int      `yaml:"debounce_millis"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.BleveIndexPath = expandPath(cfg.Storage.BleveIndexPath, configDir)
	cfg.Storage.SnapshotPath = expandPath(cfg.Storage.SnapshotPath, configDir)
	if cfg.Embedding.ModelPath != "" {
		cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	}
	if cfg.Embedding.VocabPath != "" {
		cfg.Embedding.VocabPath = expandPath(cfg.Embedding.VocabPath, configDir)
	}
	for i := range cfg.Watch.Files {
		cfg.Watch.Files[i] = expandPath(cfg.Watch.Files[i], configDir)
	}

	return &cfg, nil
}

// Validate rejects values that defaults cannot repair.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown storage driver %q (supported: sqlite, postgres)", c.Storage.Driver)
	}
	switch c.Embedding.Provider {
	case "hosted", "onnx", "mock":
	default:
		return fmt.Errorf("unknown embedding provider %q (supported: hosted, onnx, mock)", c.Embedding.Provider)
	}
	switch c.Embedding.Cache.Type {
	case "lru", "redis", "none":
	default:
		return fmt.Errorf("unknown embedding cache %q (supported: lru, redis, none)", c.Embedding.Cache.Type)
	}
	switch c.Search.Scoring {
	case "cosine", "dot":
	default:
		return fmt.Errorf("unknown scoring %q (supported: cosine, dot)", c.Search.Scoring)
	}
	switch c.Vectorize.OnError {
	case "abort", "skip":
	default:
		return fmt.Errorf("unknown vectorize.on_error %q (supported: abort, skip)", c.Vectorize.OnError)
	}
	return nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
