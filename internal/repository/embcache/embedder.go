package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/carewell-ai/polisearch/internal/domain"
)

const cacheKeyPrefix = "emb:"

// cacheKey derives a stable key from the trimmed embedded text. Both cache
// tiers share it, so a warm shared cache also serves process misses, and
// whitespace variants of the same query land on one slot.
func cacheKey(text string) string {
	h := sha256.Sum256([]byte(strings.TrimSpace(text)))
	return cacheKeyPrefix + hex.EncodeToString(h[:])
}

// CachedEmbedder is the process-local cache tier. Blank text
// short-circuits to a zero vector without touching the provider.
type CachedEmbedder struct {
	inner      domain.Embedder
	cache      *FIFO
	dims       int
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates the process-local caching decorator.
// cacheTotal is a counter vec with labels "tier" and "result", passed explicitly.
func New(
	inner domain.Embedder,
	cache *FIFO,
	dims int,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedEmbedder {
	return &CachedEmbedder{
		inner:      inner,
		cache:      cache,
		dims:       dims,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Embed returns a cached embedding or calls the inner embedder.
// Cache hit: TotalTokens = 0 (no real tokens consumed).
// Cache miss: full EmbeddingResult from inner.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if strings.TrimSpace(text) == "" {
		return domain.EmbeddingResult{Embedding: domain.ZeroVector(c.dims)}, nil
	}

	key := cacheKey(text)

	if vec, ok := c.cache.Get(key); ok {
		c.incCache("hit")
		return domain.EmbeddingResult{Embedding: vec}, nil
	}

	c.incCache("miss")

	result, err := c.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", err)
	}

	c.cache.Put(key, result.Embedding)
	return result, nil
}

func (c *CachedEmbedder) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues("process", result).Inc()
	}
}
