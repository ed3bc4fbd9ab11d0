package sermon

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/carewell-ai/polisearch/internal/domain"
	"github.com/carewell-ai/polisearch/internal/domain/sermon"
	"github.com/carewell-ai/polisearch/internal/metrics"
)

// Config holds the sermon search tuning knobs.
type Config struct {
	// TopK is how many hits KNN search draws.
	TopK int
	// SimilarityFloor drops hits below this similarity, per row. Unlike the
	// policy pipeline there is no minimum-count guarantee; an empty result is
	// acceptable here.
	SimilarityFloor float64
	// DefaultChurch fills in when the archive row has no church name.
	DefaultChurch string
	// Dimensions is the embedding width, used for the zero-vector fallback.
	Dimensions int
}

// DefaultConfig returns the production sermon search defaults.
func DefaultConfig() Config {
	return Config{
		TopK:            5,
		SimilarityFloor: 0.3,
		DefaultChurch:   "대덕교회",
		Dimensions:      1536,
	}
}

// Service runs mode-angled vector search over the sermon archive.
type Service struct {
	repo   Repository
	embed  Embedder
	cfg    Config
	logger *zap.Logger
}

// New creates a sermon search service.
func New(repo Repository, embed Embedder, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, embed: embed, cfg: cfg, logger: logger}
}

// Search embeds the mode-prefixed query, runs KNN search, and returns the
// hits above the similarity floor as references. An empty reference list is a
// valid outcome, not an error.
func (s *Service) Search(ctx context.Context, req Request) (Result, error) {
	start := time.Now()

	query := strings.TrimSpace(req.Query)
	if query == "" {
		metrics.RetrievalRequestsTotal.WithLabelValues("sermon", "error").Inc()
		return Result{}, domain.ErrEmptyQuery
	}

	mode := req.Mode
	if mode == "" {
		mode = sermon.Research
	}
	if !mode.IsValid() {
		metrics.RetrievalRequestsTotal.WithLabelValues("sermon", "error").Inc()
		return Result{}, fmt.Errorf("%w: %q", domain.ErrInvalidMode, req.Mode)
	}

	searchQuery := mode.QueryPrefix() + " " + query

	hits, err := s.repo.SearchByVector(ctx, s.embedQuery(ctx, searchQuery), s.cfg.TopK)
	if err != nil {
		metrics.RetrievalRequestsTotal.WithLabelValues("sermon", "error").Inc()
		return Result{}, fmt.Errorf("vector search: %w", err)
	}
	metrics.RetrievalCandidates.WithLabelValues("sermon", "raw").Observe(float64(len(hits)))

	refs := make([]sermon.Reference, 0, len(hits))
	for _, h := range hits {
		if math.IsNaN(h.Similarity) || h.Similarity < s.cfg.SimilarityFloor {
			continue
		}
		refs = append(refs, s.toReference(h))
	}
	metrics.RetrievalCandidates.WithLabelValues("sermon", "final").Observe(float64(len(refs)))

	metrics.RetrievalRequestsTotal.WithLabelValues("sermon", "ok").Inc()
	metrics.RetrievalDuration.WithLabelValues("sermon").Observe(time.Since(start).Seconds())

	s.logger.Info("Sermon search completed",
		zap.String("mode", string(mode)),
		zap.Int("references", len(refs)),
		zap.Duration("elapsed", time.Since(start)))

	return Result{SearchQuery: searchQuery, References: refs}, nil
}

// embedQuery vectorizes the search text, degrading to a zero vector on
// provider failure so the search returns a best-effort set.
func (s *Service) embedQuery(ctx context.Context, text string) []float32 {
	result, err := s.embed.Embed(ctx, text)
	if err != nil {
		s.logger.Warn("Embedding failed, degrading to zero vector", zap.Error(err))
		return domain.ZeroVector(s.cfg.Dimensions)
	}
	return result.Embedding
}

// toReference shapes an archive hit for answer generation: formatted date,
// church fallback, similarity rounded to four decimals.
func (s *Service) toReference(h sermon.Hit) sermon.Reference {
	date := ""
	if h.HasDate {
		date = sermon.FormatDate(h.Date)
	}
	church := h.Church
	if church == "" {
		church = s.cfg.DefaultChurch
	}
	return sermon.Reference{
		SermonID:       h.ID,
		Source:         "sermon_archive",
		Title:          h.Title,
		Date:           date,
		BibleReference: h.BibleReference,
		Summary:        h.Summary,
		VideoURL:       h.VideoURL,
		Church:         church,
		Preacher:       h.Preacher,
		Similarity:     math.Round(h.Similarity*10000) / 10000,
	}
}
