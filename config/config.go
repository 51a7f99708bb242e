package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the document Q&A engine.
type Config struct {
	Engine     EngineConfig     `yaml:"engine"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Ingest     IngestConfig     `yaml:"ingest"`
	Cache      CacheConfig      `yaml:"cache"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// EngineConfig holds retrieval and fusion parameters.
type EngineConfig struct {
	K1 float64 `yaml:"k1"`
	B  float64 `yaml:"b"`

	// Fusion weights per strategy. Documented convention, not enforced
	// to sum to 1.
	SemanticWeight   float64 `yaml:"semantic_weight"`
	BM25Weight       float64 `yaml:"bm25_weight"`
	ContextualWeight float64 `yaml:"contextual_weight"`

	HybridCandidates int `yaml:"hybrid_candidates"`
	RerankCandidates int `yaml:"rerank_candidates"`
	ContextTopK      int `yaml:"context_top_k"`
	CitationTopK     int `yaml:"citation_top_k"`
}

// EmbeddingConfig holds embedding provider configuration.
type EmbeddingConfig struct {
	Provider       string `yaml:"provider"` // "openai", "azure", "mock"
	Model          string `yaml:"model"`
	APIKeyEnv      string `yaml:"api_key_env"`
	EndpointEnv    string `yaml:"endpoint_env"` // Azure endpoint, if provider is "azure"
	Dimension      int    `yaml:"dimension"`
	BatchSize      int    `yaml:"batch_size"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// GenerationConfig holds generation and rerank-oracle configuration.
type GenerationConfig struct {
	Model          string  `yaml:"model"`
	MaxTokens      int     `yaml:"max_tokens"`
	Temperature    float64 `yaml:"temperature"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
}

// IngestConfig holds document ingestion configuration.
type IngestConfig struct {
	Includes     []string `yaml:"includes"`
	Excludes     []string `yaml:"excludes"`
	ChunkTokens  int      `yaml:"chunk_tokens"`
	ChunkOverlap int      `yaml:"chunk_overlap"`
}

// CacheConfig holds query cache configuration.
type CacheConfig struct {
	MaxSize    int `yaml:"max_size"`
	TTLSeconds int `yaml:"ttl_seconds"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			K1:               1.5,
			B:                0.75,
			SemanticWeight:   0.4,
			BM25Weight:       0.3,
			ContextualWeight: 0.3,
			HybridCandidates: 8,
			RerankCandidates: 10,
			ContextTopK:      5,
			CitationTopK:     3,
		},
		Embedding: EmbeddingConfig{
			Provider:       "openai",
			Model:          "text-embedding-3-small",
			APIKeyEnv:      "OPENAI_API_KEY",
			EndpointEnv:    "AZURE_OPENAI_ENDPOINT",
			Dimension:      1536,
			BatchSize:      16,
			TimeoutSeconds: 60,
		},
		Generation: GenerationConfig{
			Model:          "gpt-4o-mini",
			MaxTokens:      1000,
			Temperature:    0.3,
			TimeoutSeconds: 30,
		},
		Ingest: IngestConfig{
			Includes:     []string{"**/*.txt", "**/*.md"},
			Excludes:     []string{"**/node_modules/**", "**/.git/**", "**/.docqa/**"},
			ChunkTokens:  1000,
			ChunkOverlap: 200,
		},
		Cache: CacheConfig{
			MaxSize:    100,
			TTLSeconds: 300,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file, falling back to defaults when
// the file does not exist.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for docqa.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "docqa.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".docqa", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// SnapshotPath returns the path to the engine snapshot database.
func SnapshotPath(dir string) string {
	return filepath.Join(dir, ".docqa", "snapshot.db")
}

// EnsureStateDir ensures the .docqa directory exists.
func EnsureStateDir(dir string) error {
	return os.MkdirAll(filepath.Join(dir, ".docqa"), 0755)
}
