package polisearch

import (
	"time"

	"go.uber.org/zap"
)

// Option configures the Client.
type Option func(*clientConfig)

type clientConfig struct {
	dsn      string
	minConns int
	maxConns int

	openaiKey     string
	openaiBaseURL string
	model         string
	dimensions    int
	instruction   string

	embedder Embedder

	cacheAddr     string
	cachePassword string
	cacheTTL      time.Duration

	retriever *RetrieverConfig
	sermon    *SermonConfig

	logger *zap.Logger
}

// WithPostgres points the client at the policy/sermon store.
// The DSN is a standard Postgres connection string; the target database
// must carry the pgvector extension.
func WithPostgres(dsn string) Option {
	return func(c *clientConfig) { c.dsn = dsn }
}

// WithPostgresPool overrides the connection pool bounds.
// Defaults: min 1, max 3.
func WithPostgresPool(minConns, maxConns int) Option {
	return func(c *clientConfig) {
		c.minConns = minConns
		c.maxConns = maxConns
	}
}

// WithOpenAI configures the built-in OpenAI embedding provider.
func WithOpenAI(apiKey string) Option {
	return func(c *clientConfig) { c.openaiKey = apiKey }
}

// WithOpenAIBaseURL points the provider at an OpenAI-compatible endpoint
// (Azure, a proxy gateway). Empty means the public OpenAI API.
func WithOpenAIBaseURL(url string) Option {
	return func(c *clientConfig) { c.openaiBaseURL = url }
}

// WithEmbeddingModel overrides the embedding model and vector width.
// Defaults: text-embedding-3-small, 1536. The width must match the
// stored embeddings.
func WithEmbeddingModel(model string, dimensions int) Option {
	return func(c *clientConfig) {
		c.model = model
		c.dimensions = dimensions
	}
}

// WithQueryInstruction prepends a fixed instruction to every embedded
// query, for models trained with query prefixes.
func WithQueryInstruction(instruction string) Option {
	return func(c *clientConfig) { c.instruction = instruction }
}

// WithEmbedder sets a custom embedding provider, replacing OpenAI.
func WithEmbedder(e Embedder) Option {
	return func(c *clientConfig) { c.embedder = e }
}

// WithSharedCache enables the Redis-backed embedding cache tier shared
// across replicas. Without it only the in-process cache runs.
func WithSharedCache(addr, password string) Option {
	return func(c *clientConfig) {
		c.cacheAddr = addr
		c.cachePassword = password
	}
}

// WithCacheTTL overrides the shared cache entry lifetime. Default: 24h.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *clientConfig) { c.cacheTTL = ttl }
}

// WithRetrieverConfig replaces the retrieval tuning knobs wholesale.
// Start from DefaultRetrieverConfig() and adjust fields.
func WithRetrieverConfig(rc RetrieverConfig) Option {
	return func(c *clientConfig) { c.retriever = &rc }
}

// WithSermonConfig replaces the sermon retrieval knobs wholesale.
// Start from DefaultSermonConfig() and adjust fields.
func WithSermonConfig(sc SermonConfig) Option {
	return func(c *clientConfig) { c.sermon = &sc }
}

// WithLogger enables structured logging for pipeline operations.
// Default is no logging.
func WithLogger(l *zap.Logger) Option {
	return func(c *clientConfig) { c.logger = l }
}
