package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/carewell-ai/polisearch/internal/config"
	"github.com/carewell-ai/polisearch/internal/db/postgres"
	dbRedis "github.com/carewell-ai/polisearch/internal/db/redis"
	"github.com/carewell-ai/polisearch/internal/domain"
	"github.com/carewell-ai/polisearch/internal/domain/memory"
	logpkg "github.com/carewell-ai/polisearch/internal/logger"
	"github.com/carewell-ai/polisearch/internal/metrics"
	"github.com/carewell-ai/polisearch/internal/repository/embcache"
	searchrepo "github.com/carewell-ai/polisearch/internal/repository/search"
	sermonrepo "github.com/carewell-ai/polisearch/internal/repository/sermon"
	chiTransport "github.com/carewell-ai/polisearch/internal/transport/chi"
	openaiEmb "github.com/carewell-ai/polisearch/internal/transport/openai"
	embeddinguc "github.com/carewell-ai/polisearch/internal/usecase/embedding"
	healthuc "github.com/carewell-ai/polisearch/internal/usecase/health"
	retrieveuc "github.com/carewell-ai/polisearch/internal/usecase/retrieve"
	sermonuc "github.com/carewell-ai/polisearch/internal/usecase/sermon"
	"github.com/carewell-ai/polisearch/internal/version"
)

func main() {
	// .env is optional; deployed environments set variables directly.
	_ = godotenv.Load()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting polisearch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("built", version.Date),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("embedding_model", cfg.Embedding.Model),
	)

	ctx := context.Background()

	store, err := postgres.NewStore(ctx, postgres.Config{
		DSN:             cfg.Database.DSN,
		MinConns:        cfg.Database.MinConns,
		MaxConns:        cfg.Database.MaxConns,
		AcquireTimeout:  time.Duration(cfg.Database.AcquireTimeoutSec) * time.Second,
		MaxConnLifetime: time.Duration(cfg.Database.MaxConnLifetimeSec) * time.Second,
		MaxConnIdleTime: time.Duration(cfg.Database.MaxConnIdleSec) * time.Second,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeoutSec)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Shared embedding cache is optional; a nil store drops that tier.
	var cache *dbRedis.Store
	if cfg.Cache.Enabled {
		cache, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Username: cfg.Cache.Username,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer cache.Close()

		if err := cache.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeoutSec)*time.Second); err != nil {
			logger.Fatal("Cache not ready", zap.Error(err))
		}
		logger.Info("Connected to embedding cache")
	}

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterRetrievalMetrics()

	embedder, embedderHealth := buildEmbedder(cfg.Embedding, cfg.Cache, cache, logger)
	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.Bool("shared_cache", cache != nil),
	)

	// Create repositories (domain-native, no adapters)
	searchRepo := searchrepo.New(store)
	sermonRepo := sermonrepo.New(store)

	// Create use case services. Eligibility rules come from the
	// conversation orchestrator, so the server wires no profile filter.
	retrieveSvc := retrieveuc.New(searchRepo, embedder, nil, retrieveConfig(cfg), logger)
	sermonSvc := sermonuc.New(sermonRepo, embedder, sermonConfig(cfg), logger)

	// Health service. Pass nil interface (not typed nil pointer!) when
	// the cache is disabled. Go gotcha: (*dbRedis.Store)(nil) wrapped in
	// CachePinger != nil.
	var cachePinger healthuc.CachePinger
	if cache != nil {
		cachePinger = cache
	}
	healthSvc := healthuc.New(store, embedderHealth, cachePinger)

	// Create chi server
	server := chiTransport.NewServer(retrieveSvc, sermonSvc, healthSvc)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.HTTP.APIKeys))
	r.Use(metrics.Middleware())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/retrieve", server.Retrieve)
		r.Post("/sermons/search", server.SearchSermons)
		r.Get("/health", server.HealthCheck)
	})
	r.Get("/metrics", server.Metrics)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// retrieveConfig maps file configuration onto the retrieval tuning knobs.
func retrieveConfig(cfg config.Config) retrieveuc.Config {
	return retrieveuc.Config{
		RawTopK:         cfg.Retriever.RawTopK,
		ContextTopK:     cfg.Retriever.ContextTopK,
		SimilarityFloor: cfg.Retriever.SimilarityFloor,
		MinAfterFloor:   cfg.Retriever.MinAfterFloor,
		BM25Weight:      cfg.Retriever.BM25Weight,
		BM25K1:          cfg.Retriever.BM25K1,
		BM25B:           cfg.Retriever.BM25B,
		MaxKeywords:     cfg.Retriever.MaxQueryKeywords,
		LayerWeights: memory.Weights{
			L0: cfg.Retriever.LayerWeights.L0,
			L1: cfg.Retriever.LayerWeights.L1,
			L2: cfg.Retriever.LayerWeights.L2,
		},
		Dimensions: cfg.Embedding.Dimensions,
	}
}

func sermonConfig(cfg config.Config) sermonuc.Config {
	return sermonuc.Config{
		TopK:            cfg.Sermon.TopK,
		SimilarityFloor: cfg.Sermon.SimilarityFloor,
		DefaultChurch:   cfg.Sermon.DefaultChurch,
		Dimensions:      cfg.Embedding.Dimensions,
	}
}

// buildEmbedder assembles the decorator chain:
// OpenAI -> SharedCache -> FIFO cache -> Instrumented -> Instruction.
// The second return value is the undecorated provider; health probes go
// straight to it so cache tiers never mask an unreachable API.
func buildEmbedder(
	embCfg config.EmbeddingConfig,
	cacheCfg config.CacheConfig,
	cache *dbRedis.Store,
	logger *zap.Logger,
) (domain.Embedder, domain.HealthChecker) {
	// Base provider (with transport metrics built-in)
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     embCfg.APIKey,
		BaseURL:    embCfg.BaseURL,
		Model:      embCfg.Model,
		Dimensions: embCfg.Dimensions,
		Timeout:    time.Duration(embCfg.TimeoutSec) * time.Second,
		Provider:   embCfg.Provider,
		Logger:     logger,
	})

	// Shared tier (Redis), skipped when the cache store is absent
	var embedder domain.Embedder = base
	if cache != nil {
		embedder = embcache.NewShared(
			embedder, cache,
			time.Duration(cacheCfg.TTLSec)*time.Second,
			metrics.EmbeddingCacheTotal, logger,
		)
	}

	// Process-local tier in front of the shared one
	embedder = embcache.New(
		embedder, embcache.NewFIFO(embCfg.CacheCapacity),
		embCfg.Dimensions, metrics.EmbeddingCacheTotal, logger,
	)

	// Instrumented (logging + metrics)
	embedder = embeddinguc.NewInstrumentedEmbedder(
		embedder, embCfg.Provider, embCfg.Model, logger,
	)

	// Instruction prefix goes outermost so cache keys include the instruction
	if embCfg.QueryInstruction != "" {
		return domain.NewInstructionEmbedder(embedder, embCfg.QueryInstruction), base
	}

	return embedder, base
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
