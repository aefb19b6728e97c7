// Package file loads Notari configuration from a TOML file, with
// environment variable overrides for deployment settings.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Default configuration values.
const (
	DefaultListenAddr  = ":8000"
	DefaultDataDir     = ""
	DefaultChunkSize   = 500
	DefaultOverlap     = 50
	DefaultTopK        = 4
	DefaultWorkers     = 4
	DefaultQueueSize   = 64
	DefaultHTTPTimeout = 30 * time.Second
)

// Config is the full Notari configuration.
type Config struct {
	// Server holds HTTP server settings.
	Server ServerConfig `toml:"server"`

	// Storage holds persistence settings.
	Storage StorageConfig `toml:"storage"`

	// Ingest holds chunking and ingestion pipeline settings.
	Ingest IngestConfig `toml:"ingest"`

	// Embedding holds embedding provider settings.
	Embedding EmbeddingConfig `toml:"embedding"`

	// Chat holds answer synthesis settings.
	Chat ChatConfig `toml:"chat"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// ListenAddr is the address the HTTP server binds to.
	ListenAddr string `toml:"listen_addr"`
}

// StorageConfig holds persistence settings.
type StorageConfig struct {
	// DataDir is the directory for the SQLite database.
	// Empty means ~/.notari/data.
	DataDir string `toml:"data_dir"`

	// CipherSecret protects stored API keys at rest.
	CipherSecret string `toml:"cipher_secret"`
}

// IngestConfig holds chunking and pipeline settings.
type IngestConfig struct {
	// ChunkSize is the sliding window size in characters.
	ChunkSize int `toml:"chunk_size"`

	// Overlap is the character overlap between adjacent chunks.
	Overlap int `toml:"overlap"`

	// Workers is the embedding worker pool size.
	Workers int `toml:"workers"`

	// QueueSize bounds the ingestion job queue.
	QueueSize int `toml:"queue_size"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	// Provider selects the embedding backend: "openai" or "ollama".
	Provider string `toml:"provider"`

	// BaseURL overrides the provider's API base URL.
	BaseURL string `toml:"base_url"`

	// Model is the embedding model name.
	Model string `toml:"model"`

	// APIKey authenticates to the embedding provider.
	APIKey string `toml:"api_key"`
}

// ChatConfig holds answer synthesis settings.
type ChatConfig struct {
	// BaseURL overrides the chat completion API base URL.
	BaseURL string `toml:"base_url"`

	// Model is the default chat model.
	Model string `toml:"model"`

	// TopK is the number of passages retrieved per question.
	TopK int `toml:"top_k"`
}

// Default returns a configuration with all defaults applied.
func Default() Config {
	return Config{
		Server: ServerConfig{
			ListenAddr: DefaultListenAddr,
		},
		Storage: StorageConfig{
			DataDir: DefaultDataDir,
		},
		Ingest: IngestConfig{
			ChunkSize: DefaultChunkSize,
			Overlap:   DefaultOverlap,
			Workers:   DefaultWorkers,
			QueueSize: DefaultQueueSize,
		},
		Embedding: EmbeddingConfig{
			Provider: "openai",
		},
		Chat: ChatConfig{
			TopK: DefaultTopK,
		},
	}
}

// Load reads configuration from the given path, falling back to
// ~/.notari/config.toml when path is empty. A missing file is not an
// error: defaults plus environment overrides apply.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return cfg, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, ".notari", "config.toml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("reading config file: %w", err)
		}
	} else if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	return cfg, nil
}

// applyEnv overrides configuration from NOTARI_* environment
// variables, which take precedence over the file.
func applyEnv(cfg *Config) {
	if v := os.Getenv("NOTARI_LISTEN_ADDR"); v != "" {
		cfg.Server.ListenAddr = v
	}
	if v := os.Getenv("NOTARI_DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("NOTARI_CIPHER_SECRET"); v != "" {
		cfg.Storage.CipherSecret = v
	}
	if v := os.Getenv("NOTARI_EMBEDDING_API_KEY"); v != "" {
		cfg.Embedding.APIKey = v
	}
	if v := os.Getenv("NOTARI_EMBEDDING_BASE_URL"); v != "" {
		cfg.Embedding.BaseURL = v
	}
	if v := os.Getenv("NOTARI_CHAT_BASE_URL"); v != "" {
		cfg.Chat.BaseURL = v
	}
	if v := os.Getenv("NOTARI_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Ingest.Workers = n
		}
	}
}

// applyDefaults backfills zero values left by a partial file.
func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = def.Server.ListenAddr
	}
	if cfg.Ingest.ChunkSize <= 0 {
		cfg.Ingest.ChunkSize = def.Ingest.ChunkSize
	}
	if cfg.Ingest.Overlap < 0 {
		cfg.Ingest.Overlap = def.Ingest.Overlap
	}
	if cfg.Ingest.Workers <= 0 {
		cfg.Ingest.Workers = def.Ingest.Workers
	}
	if cfg.Ingest.QueueSize <= 0 {
		cfg.Ingest.QueueSize = def.Ingest.QueueSize
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = def.Embedding.Provider
	}
	if cfg.Chat.TopK <= 0 {
		cfg.Chat.TopK = def.Chat.TopK
	}
}

// Save writes the configuration as TOML to the given path, creating
// parent directories as needed.
func Save(cfg Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
