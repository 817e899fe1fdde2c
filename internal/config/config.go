// Package config provides configuration loading and structs for the ScrewSavvy server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application. It is loaded once at
// startup and handed to components by value; nothing mutates it afterwards.
type Config struct {
	Debug      bool             `yaml:"debug"`
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Vector     VectorConfig     `yaml:"vector"`
	Inference  InferenceConfig  `yaml:"inference"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Chunking   ChunkingConfig   `yaml:"chunking"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Generation GenerationConfig `yaml:"generation"`
	Watch      WatchConfig      `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host               string   `yaml:"host"`
	Port               int      `yaml:"port"`
	RequestTimeoutSecs int      `yaml:"request_timeout_secs"`
	CORSOrigins        []string `yaml:"cors_origins"`
}

// StorageConfig holds paths for the metadata database and the feedback sink.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
	FeedbackSink string `yaml:"feedback_sink"` // "sqlite" or "json"
	FeedbackPath string `yaml:"feedback_path"`
}

// VectorConfig selects and configures the vector store.
type VectorConfig struct {
	Type        string `yaml:"type"` // "qdrant" or "memory"
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// InferenceConfig holds settings for the external generative inference service.
type InferenceConfig struct {
	BaseURL              string `yaml:"base_url"`
	APIToken             string `yaml:"api_token"`
	ModelVersion         string `yaml:"model_version"`
	PollIntervalMs       int    `yaml:"poll_interval_ms"`
	EmbeddingMaxAttempts int    `yaml:"embedding_max_attempts"`
	AnswerMaxAttempts    int    `yaml:"answer_max_attempts"`
	TimeoutSecs          int    `yaml:"timeout_secs"`
}

// EmbeddingConfig holds embedding derivation settings.
type EmbeddingConfig struct {
	Dimensions  int     `yaml:"dimensions"`
	PromptChars int     `yaml:"prompt_chars"`
	Window      int     `yaml:"window"`
	MaxLength   int     `yaml:"max_length"`
	Temperature float64 `yaml:"temperature"`
}

// ChunkingConfig holds passage splitting settings.
type ChunkingConfig struct {
	ChunkSize int `yaml:"chunk_size"`
}

// RetrievalConfig holds default search parameters for the query path.
type RetrievalConfig struct {
	Limit          int     `yaml:"limit"`
	ScoreThreshold float64 `yaml:"score_threshold"`
}

// GenerationConfig holds pass-through parameters for answer generation.
type GenerationConfig struct {
	MaxLength         int     `yaml:"max_length"`
	Temperature       float64 `yaml:"temperature"`
	TopP              float64 `yaml:"top_p"`
	RepetitionPenalty float64 `yaml:"repetition_penalty"`
}

// WatchConfig holds inbox directory watch settings.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
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

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.FeedbackPath = expandPath(cfg.Storage.FeedbackPath, configDir)
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	return &cfg, nil
}

// Default returns a config with every default applied, for running without a file.
func Default() *Config {
	var cfg Config
	ApplyDefaults(&cfg)
	return &cfg
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

// ApplyEnv overrides credentials and endpoints from environment variables.
// lookup is usually os.LookupEnv; empty values are ignored.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set("QDRANT_URL", &cfg.Vector.URL)
	set("QDRANT_API_KEY", &cfg.Vector.APIKey)
	set("QDRANT_COLLECTION", &cfg.Vector.Collection)
	set("REPLICATE_API_TOKEN", &cfg.Inference.APIToken)
	set("REPLICATE_BASE_URL", &cfg.Inference.BaseURL)
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
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
