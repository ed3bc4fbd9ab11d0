package polisearch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/carewell-ai/polisearch/internal/db/postgres"
	dbRedis "github.com/carewell-ai/polisearch/internal/db/redis"
	"github.com/carewell-ai/polisearch/internal/domain"
	"github.com/carewell-ai/polisearch/internal/metrics"
	"github.com/carewell-ai/polisearch/internal/repository/embcache"
	searchrepo "github.com/carewell-ai/polisearch/internal/repository/search"
	sermonrepo "github.com/carewell-ai/polisearch/internal/repository/sermon"
	openaiEmb "github.com/carewell-ai/polisearch/internal/transport/openai"
	embeddinguc "github.com/carewell-ai/polisearch/internal/usecase/embedding"
	healthuc "github.com/carewell-ai/polisearch/internal/usecase/health"
	retrieveuc "github.com/carewell-ai/polisearch/internal/usecase/retrieve"
	sermonuc "github.com/carewell-ai/polisearch/internal/usecase/sermon"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultCacheTTL         = 24 * time.Hour

	defaultEmbeddingModel      = "text-embedding-3-small"
	defaultEmbeddingDimensions = 1536

	// processCacheCapacity bounds the in-process embedding FIFO.
	processCacheCapacity = 30
)

// Client is the polisearch SDK entry point.
type Client struct {
	store       *postgres.Store
	cache       *dbRedis.Store
	retrieveSvc *retrieveuc.Service
	sermonSvc   *sermonuc.Service
	healthSvc   *healthuc.Service
}

// New creates a polisearch Client and connects to the database.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		minConns:   1,
		maxConns:   3,
		model:      defaultEmbeddingModel,
		dimensions: defaultEmbeddingDimensions,
		cacheTTL:   defaultCacheTTL,
	}
	for _, o := range opts {
		o(cfg)
	}

	if cfg.dsn == "" {
		return nil, errors.New("polisearch: postgres DSN required (use WithPostgres)")
	}
	if cfg.embedder == nil && cfg.openaiKey == "" {
		return nil, errors.New("polisearch: embedding provider required (use WithOpenAI or WithEmbedder)")
	}

	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx := context.Background()

	store, err := postgres.NewStore(ctx, postgres.Config{
		DSN:             cfg.dsn,
		MinConns:        cfg.minConns,
		MaxConns:        cfg.maxConns,
		AcquireTimeout:  30 * time.Second,
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: time.Minute,
	})
	if err != nil {
		return nil, fmt.Errorf("polisearch: create store: %w", err)
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("polisearch: database not ready: %w", err)
	}

	var cache *dbRedis.Store
	if cfg.cacheAddr != "" {
		cache, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    []string{cfg.cacheAddr},
			Password: cfg.cachePassword,
		})
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("polisearch: create cache store: %w", err)
		}
	}

	return wireClient(store, cache, cfg, logger), nil
}

func wireClient(store *postgres.Store, cache *dbRedis.Store, cfg *clientConfig, logger *zap.Logger) *Client {
	base, embedderHealth := baseEmbedder(cfg, logger)
	embedder := decorateEmbedder(base, cfg, cache, logger)

	searchRepo := searchrepo.New(store)
	sermonRepo := sermonrepo.New(store)

	rcfg := retrieveuc.DefaultConfig()
	if cfg.retriever != nil {
		rcfg = cfg.retriever.toInternal(cfg.dimensions)
	}
	rcfg.Dimensions = cfg.dimensions

	scfg := sermonuc.DefaultConfig()
	if cfg.sermon != nil {
		scfg = cfg.sermon.toInternal(cfg.dimensions)
	}
	scfg.Dimensions = cfg.dimensions

	// Eligibility rules live with the caller; the embedded pipeline runs
	// without a profile hard filter.
	retrieveSvc := retrieveuc.New(searchRepo, embedder, nil, rcfg, logger)
	sermonSvc := sermonuc.New(sermonRepo, embedder, scfg, logger)

	var cachePinger healthuc.CachePinger
	if cache != nil {
		cachePinger = cache
	}
	healthSvc := healthuc.New(store, embedderHealth, cachePinger)

	return &Client{
		store:       store,
		cache:       cache,
		retrieveSvc: retrieveSvc,
		sermonSvc:   sermonSvc,
		healthSvc:   healthSvc,
	}
}

// baseEmbedder picks the provider: a user-supplied Embedder behind the
// adapter, otherwise the OpenAI transport. The second return value feeds
// the health report; it is nil when the provider cannot be probed.
func baseEmbedder(cfg *clientConfig, logger *zap.Logger) (domain.Embedder, healthuc.EmbeddingChecker) {
	if cfg.embedder != nil {
		adapter := &embedderAdapter{inner: cfg.embedder}
		if hc, ok := cfg.embedder.(domain.HealthChecker); ok {
			return adapter, hc
		}
		return adapter, nil
	}

	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.openaiKey,
		BaseURL:    cfg.openaiBaseURL,
		Model:      cfg.model,
		Dimensions: cfg.dimensions,
		Provider:   "openai",
		Logger:     logger,
	})
	return base, base
}

// decorateEmbedder layers the cache tiers and observability over the base
// provider, mirroring the server composition: shared cache (when wired),
// then the in-process FIFO, then instrumentation, with the instruction
// prefix outermost so cache keys include it.
func decorateEmbedder(
	base domain.Embedder, cfg *clientConfig, cache *dbRedis.Store, logger *zap.Logger,
) domain.Embedder {
	provider := "openai"
	if cfg.embedder != nil {
		provider = "custom"
	}

	embedder := base
	if cache != nil {
		embedder = embcache.NewShared(
			embedder, cache, cfg.cacheTTL, metrics.EmbeddingCacheTotal, logger,
		)
	}

	embedder = embcache.New(
		embedder, embcache.NewFIFO(processCacheCapacity),
		cfg.dimensions, metrics.EmbeddingCacheTotal, logger,
	)

	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, provider, cfg.model, logger)

	if cfg.instruction != "" {
		return domain.NewInstructionEmbedder(embedder, cfg.instruction)
	}
	return embedder
}

// Retrieve runs the hybrid retrieval pipeline for one conversation turn.
func (c *Client) Retrieve(ctx context.Context, req Request) (Result, error) {
	res, err := c.retrieveSvc.Retrieve(ctx, req.toInternal())
	if err != nil {
		return Result{}, err
	}
	return resultFromInternal(res), nil
}

// SearchSermons runs mode-anchored sermon retrieval.
func (c *Client) SearchSermons(ctx context.Context, req SermonRequest) (SermonResult, error) {
	res, err := c.sermonSvc.Search(ctx, sermonuc.Request{
		Query: req.Query,
		Mode:  toInternalMode(req.Mode),
	})
	if err != nil {
		return SermonResult{}, err
	}
	return sermonResultFromInternal(res), nil
}

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status string            // "ok", "degraded", "error"
	Checks map[string]string // component -> "ok"/"error"
}

// Health checks the health of all wired components.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{
		Status: string(report.Status),
		Checks: checks,
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.cache != nil {
		c.cache.Close()
	}
	if c.store != nil {
		c.store.Close()
	}
}

// embedderAdapter wraps a public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}
