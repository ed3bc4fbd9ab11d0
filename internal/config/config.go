package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the polisearch service configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Cache     CacheConfig     `yaml:"cache"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Retriever RetrieverConfig `yaml:"retriever"`
	Sermon    SermonConfig    `yaml:"sermon"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings. An empty APIKeys list disables
// bearer authentication.
type HTTPConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeoutSec  int      `yaml:"read_timeout_sec"`
	WriteTimeoutSec int      `yaml:"write_timeout_sec"`
	ShutdownSec     int      `yaml:"shutdown_timeout_sec"`
	APIKeys         []string `yaml:"api_keys"`
}

// DatabaseConfig holds Postgres connection-pool settings for the vector store.
type DatabaseConfig struct {
	DSN                 string `yaml:"dsn"`
	MinConns            int    `yaml:"min_conns"`
	MaxConns            int    `yaml:"max_conns"`
	AcquireTimeoutSec   int    `yaml:"acquire_timeout_sec"`
	MaxConnLifetimeSec  int    `yaml:"max_conn_lifetime_sec"`
	MaxConnIdleSec      int    `yaml:"max_conn_idle_sec"`
	ReadinessTimeoutSec int    `yaml:"readiness_timeout_sec"`
}

// CacheConfig holds the optional shared (Redis) embedding-cache settings.
type CacheConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Addrs    []string `yaml:"addrs"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	DB       int      `yaml:"db"`
	TTLSec   int      `yaml:"ttl_sec"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider         string `yaml:"provider"` // openai (default)
	APIKey           string `yaml:"api_key"`
	BaseURL          string `yaml:"base_url"`
	Model            string `yaml:"model"`
	Dimensions       int    `yaml:"dimensions"`
	TimeoutSec       int    `yaml:"timeout_sec"`
	QueryInstruction string `yaml:"query_instruction"`
	CacheCapacity    int    `yaml:"cache_capacity"`
}

// LayerWeightsConfig holds per-tier term multiplicities for the rerank stage.
type LayerWeightsConfig struct {
	L0 int `yaml:"l0"`
	L1 int `yaml:"l1"`
	L2 int `yaml:"l2"`
}

// RetrieverConfig holds the policy retrieval tuning knobs.
type RetrieverConfig struct {
	RawTopK          int                `yaml:"raw_top_k"`
	ContextTopK      int                `yaml:"context_top_k"`
	SimilarityFloor  float64            `yaml:"similarity_floor"`
	MinAfterFloor    int                `yaml:"min_after_floor"`
	BM25Weight       float64            `yaml:"bm25_weight"`
	BM25K1           float64            `yaml:"bm25_k1"`
	BM25B            float64            `yaml:"bm25_b"`
	MaxQueryKeywords int                `yaml:"max_query_keywords"`
	LayerWeights     LayerWeightsConfig `yaml:"layer_weights"`
}

// SermonConfig holds the sermon retrieval tuning knobs.
type SermonConfig struct {
	TopK            int     `yaml:"top_k"`
	SimilarityFloor float64 `yaml:"similarity_floor"`
	DefaultChurch   string  `yaml:"default_church"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
// CONFIG_PATH overrides the file lookup entirely.
func Load(env string) (Config, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = findConfigPath(env)
	}

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR} / ${VAR:-default}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port <= 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}

	if c.Database.MinConns <= 0 {
		c.Database.MinConns = 1
	}
	if c.Database.MaxConns <= 0 {
		c.Database.MaxConns = 3
	}
	if c.Database.AcquireTimeoutSec <= 0 {
		c.Database.AcquireTimeoutSec = 30
	}
	if c.Database.MaxConnLifetimeSec <= 0 {
		c.Database.MaxConnLifetimeSec = 300
	}
	if c.Database.MaxConnIdleSec <= 0 {
		c.Database.MaxConnIdleSec = 60
	}
	if c.Database.ReadinessTimeoutSec <= 0 {
		c.Database.ReadinessTimeoutSec = 10
	}

	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 86400
	}

	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 1536
	}
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 10
	}
	if c.Embedding.CacheCapacity <= 0 {
		c.Embedding.CacheCapacity = 30
	}

	if c.Retriever.RawTopK <= 0 {
		c.Retriever.RawTopK = 8
	}
	if c.Retriever.ContextTopK <= 0 {
		c.Retriever.ContextTopK = 5
	}
	if c.Retriever.SimilarityFloor <= 0 {
		c.Retriever.SimilarityFloor = 0.3
	}
	if c.Retriever.MinAfterFloor <= 0 {
		c.Retriever.MinAfterFloor = 5
	}
	if c.Retriever.BM25Weight <= 0 {
		c.Retriever.BM25Weight = 0.2
	}
	if c.Retriever.BM25K1 <= 0 {
		c.Retriever.BM25K1 = 1.5
	}
	if c.Retriever.BM25B <= 0 {
		c.Retriever.BM25B = 0.75
	}
	if c.Retriever.MaxQueryKeywords <= 0 {
		c.Retriever.MaxQueryKeywords = 8
	}
	if c.Retriever.LayerWeights.L0 <= 0 {
		c.Retriever.LayerWeights.L0 = 3
	}
	if c.Retriever.LayerWeights.L1 <= 0 {
		c.Retriever.LayerWeights.L1 = 2
	}
	if c.Retriever.LayerWeights.L2 <= 0 {
		c.Retriever.LayerWeights.L2 = 1
	}

	if c.Sermon.TopK <= 0 {
		c.Sermon.TopK = 5
	}
	if c.Sermon.SimilarityFloor <= 0 {
		c.Sermon.SimilarityFloor = 0.3
	}
	if c.Sermon.DefaultChurch == "" {
		c.Sermon.DefaultChurch = "대덕교회"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("database.min_conns %d exceeds max_conns %d",
			c.Database.MinConns, c.Database.MaxConns)
	}
	if c.Cache.Enabled && len(c.Cache.Addrs) == 0 {
		return fmt.Errorf("cache.addrs is required when cache.enabled is true")
	}
	if c.Embedding.Provider != "openai" {
		return fmt.Errorf("embedding.provider must be \"openai\", got %q", c.Embedding.Provider)
	}
	if c.Retriever.BM25Weight < 0 || c.Retriever.BM25Weight > 1 {
		return fmt.Errorf("retriever.bm25_weight must be within [0,1], got %g", c.Retriever.BM25Weight)
	}
	if c.Retriever.SimilarityFloor < 0 || c.Retriever.SimilarityFloor > 1 {
		return fmt.Errorf("retriever.similarity_floor must be within [0,1], got %g",
			c.Retriever.SimilarityFloor)
	}
	if c.Retriever.ContextTopK > c.Retriever.RawTopK {
		return fmt.Errorf("retriever.context_top_k %d exceeds raw_top_k %d",
			c.Retriever.ContextTopK, c.Retriever.RawTopK)
	}
	if c.Sermon.SimilarityFloor < 0 || c.Sermon.SimilarityFloor > 1 {
		return fmt.Errorf("sermon.similarity_floor must be within [0,1], got %g",
			c.Sermon.SimilarityFloor)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
