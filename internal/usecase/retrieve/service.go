package retrieve

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/carewell-ai/polisearch/internal/domain"
	"github.com/carewell-ai/polisearch/internal/domain/memory"
	"github.com/carewell-ai/polisearch/internal/domain/policy"
	"github.com/carewell-ai/polisearch/internal/metrics"
)

// saveKeywords trigger the conversation-persist notice when mentioned.
var saveKeywords = []string{"저장", "보관", "기록"}

// keywordsCap bounds the merged keyword list handed downstream.
const keywordsCap = 12

// Config holds the retrieval tuning knobs. Values come from the application
// config; DefaultConfig mirrors the production defaults for tests and the
// embedded client.
type Config struct {
	// RawTopK is how many candidates KNN search draws before filtering.
	RawTopK int
	// ContextTopK is the ranked context size handed to answer generation.
	ContextTopK int
	// SimilarityFloor is the minimum vector similarity a candidate needs to
	// survive the floor stage.
	SimilarityFloor float64
	// MinAfterFloor disables the floor entirely when fewer candidates than
	// this would survive it.
	MinAfterFloor int
	// BM25Weight is the fusion weight in [0,1]; 0 ranks by vector only.
	BM25Weight float64
	BM25K1     float64
	BM25B      float64
	// MaxKeywords caps the query keywords extracted for the result.
	MaxKeywords int
	// LayerWeights are the per-tier term multiplicities for the rerank.
	LayerWeights memory.Weights
	// Dimensions is the embedding width, used for the zero-vector fallback
	// when the provider fails.
	Dimensions int
}

// DefaultConfig returns the production retrieval defaults.
func DefaultConfig() Config {
	return Config{
		RawTopK:         8,
		ContextTopK:     5,
		SimilarityFloor: 0.3,
		MinAfterFloor:   5,
		BM25Weight:      0.2,
		BM25K1:          1.5,
		BM25B:           0.75,
		MaxKeywords:     8,
		LayerWeights:    memory.DefaultWeights(),
		Dimensions:      1536,
	}
}

// Service orchestrates the hybrid retrieval pipeline. Stages run strictly
// sequentially per request; concurrent requests share nothing but the
// injected collaborators.
type Service struct {
	repo   Repository
	embed  Embedder
	filter ProfileFilter
	cfg    Config
	logger *zap.Logger
}

// New creates a retrieval service. filter may be nil to disable
// profile-based eligibility filtering.
func New(repo Repository, embed Embedder, filter ProfileFilter, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, embed: embed, filter: filter, cfg: cfg, logger: logger}
}

// Retrieve runs the full pipeline: routing decision, query synthesis,
// embedding, KNN search with region hard filter, eligibility filter,
// similarity floor, BM25 rerank, fusion, and truncation. An empty result
// set is a valid outcome, not an error.
func (s *Service) Retrieve(ctx context.Context, req Request) (Result, error) {
	start := time.Now()

	query := strings.TrimSpace(req.Query)
	if query == "" {
		metrics.RetrievalRequestsTotal.WithLabelValues("policy", "error").Inc()
		return Result{}, domain.ErrEmptyQuery
	}

	if !decideUseRAG(req.Router, query) {
		metrics.RetrievalSkippedTotal.WithLabelValues(skipReason(req.Router)).Inc()
		metrics.RetrievalRequestsTotal.WithLabelValues("policy", "ok").Inc()
		s.logger.Debug("Retrieval bypassed", zap.String("reason", skipReason(req.Router)))

		res := Result{Keywords: extractKeywords(query, s.cfg.MaxKeywords)}
		res.Snippets = s.appendPersistNotice(res.Snippets, query, req.EndSession)
		return res, nil
	}

	searchQuery := buildSearchQuery(query, req.Profile, req.Memory)
	if searchQuery != query {
		s.logger.Info("Synthetic query built", zap.String("search_query", searchQuery))
	}

	region := normalizeRegion(req.Profile.Region())

	candidates, err := s.repo.SearchByVector(ctx, s.embedQuery(ctx, searchQuery), s.cfg.RawTopK, region)
	if err != nil {
		metrics.RetrievalRequestsTotal.WithLabelValues("policy", "error").Inc()
		return Result{}, fmt.Errorf("vector search: %w", err)
	}
	metrics.RetrievalCandidates.WithLabelValues("policy", "raw").Observe(float64(len(candidates)))

	if s.filter != nil && req.Profile != nil && len(candidates) > 0 {
		before := len(candidates)
		candidates = s.filter.Apply(ctx, candidates, req.Profile)
		s.logger.Info("Profile filter applied",
			zap.Int("before", before),
			zap.Int("after", len(candidates)))
		metrics.RetrievalCandidates.WithLabelValues("policy", "profile").Observe(float64(len(candidates)))
	}

	floored, applied := applyFloor(candidates, s.cfg.SimilarityFloor, s.cfg.MinAfterFloor)
	if applied {
		s.logger.Info("Similarity floor applied",
			zap.Float64("floor", s.cfg.SimilarityFloor),
			zap.Int("before", len(candidates)),
			zap.Int("after", len(floored)))
	}
	candidates = floored
	metrics.RetrievalCandidates.WithLabelValues("policy", "floor").Observe(float64(len(candidates)))

	var terms []string
	if len(candidates) > 0 {
		terms = extractLayerTerms(req.Memory, s.cfg.LayerWeights)
		if scores := bm25Scores(candidates, terms, s.cfg.BM25K1, s.cfg.BM25B); scores != nil {
			fuse(candidates, scores, s.cfg.BM25Weight)
		}
		sortCandidates(candidates)

		topK := s.cfg.ContextTopK
		if req.TopK > 0 {
			topK = req.TopK
		}
		if len(candidates) > topK {
			s.logger.Debug("Context truncated",
				zap.Int("before", len(candidates)),
				zap.Int("top_k", topK))
			candidates = candidates[:topK]
		}
	}
	metrics.RetrievalCandidates.WithLabelValues("policy", "final").Observe(float64(len(candidates)))

	snippets := make([]policy.Snippet, 0, len(candidates)+1)
	for _, c := range candidates {
		snippets = append(snippets, policy.SnippetFromCandidate(c))
	}
	snippets = s.appendPersistNotice(snippets, query, req.EndSession)

	keywords := mergeKeywords(extractKeywords(query, s.cfg.MaxKeywords), terms)

	metrics.RetrievalRequestsTotal.WithLabelValues("policy", "ok").Inc()
	metrics.RetrievalDuration.WithLabelValues("policy").Observe(time.Since(start).Seconds())

	s.logger.Info("Retrieval completed",
		zap.String("region", region),
		zap.Int("snippets", len(snippets)),
		zap.Duration("elapsed", time.Since(start)))

	return Result{
		UseRAG:      true,
		SearchQuery: searchQuery,
		Snippets:    snippets,
		Keywords:    keywords,
	}, nil
}

// embedQuery vectorizes the search text. Provider failures degrade to a zero
// vector so retrieval still returns a best-effort, lower-relevance set
// instead of failing the whole request.
func (s *Service) embedQuery(ctx context.Context, text string) []float32 {
	result, err := s.embed.Embed(ctx, text)
	if err != nil {
		s.logger.Warn("Embedding failed, degrading to zero vector", zap.Error(err))
		return domain.ZeroVector(s.cfg.Dimensions)
	}
	return result.Embedding
}

// appendPersistNotice adds the fixed save-pipeline notice when the session
// is ending or the user asked about saving the conversation. Appended after
// truncation so it never displaces a ranked snippet.
func (s *Service) appendPersistNotice(snippets []policy.Snippet, query string, endSession bool) []policy.Snippet {
	if !endSession && !mentionsSaving(query) {
		return snippets
	}
	s.logger.Debug("Persist notice appended", zap.Bool("end_session", endSession))
	return append(snippets, policy.PersistNotice())
}

func mentionsSaving(query string) bool {
	for _, kw := range saveKeywords {
		if strings.Contains(query, kw) {
			return true
		}
	}
	return false
}

// skipReason labels why retrieval was bypassed, for the skip counter.
func skipReason(router *RouterInfo) string {
	if router != nil && router.UseRAG != nil {
		return "router"
	}
	return "heuristic"
}

// mergeKeywords joins query keywords with rerank terms, first occurrence
// wins, capped for downstream display.
func mergeKeywords(userKw, terms []string) []string {
	out := make([]string, 0, keywordsCap)
	seen := make(map[string]struct{}, keywordsCap)
	for _, group := range [][]string{userKw, terms} {
		for _, t := range group {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
			if len(out) >= keywordsCap {
				return out
			}
		}
	}
	return out
}
