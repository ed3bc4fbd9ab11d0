package retrieve

import (
	"context"

	"go.uber.org/zap"

	"github.com/carewell-ai/polisearch/internal/domain"
	"github.com/carewell-ai/polisearch/internal/domain/policy"
	"github.com/carewell-ai/polisearch/internal/domain/profile"
)

// mockRepo returns canned candidates and records the query it received.
type mockRepo struct {
	candidates []policy.Candidate
	err        error
	calls      int
	lastVector []float32
	lastTopK   int
	lastRegion string
}

func (m *mockRepo) SearchByVector(
	_ context.Context, vector []float32, topK int, region string,
) ([]policy.Candidate, error) {
	m.calls++
	m.lastVector = vector
	m.lastTopK = topK
	m.lastRegion = region
	if m.err != nil {
		return nil, m.err
	}
	return m.candidates, nil
}

// mockEmbedder returns a fixed vector and records the text it embedded.
type mockEmbedder struct {
	vec      []float32
	err      error
	calls    int
	lastText string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.calls++
	m.lastText = text
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec, TotalTokens: 3}, nil
}

// mockFilter applies an injectable rule, passing everything through by default.
type mockFilter struct {
	applyFn func([]policy.Candidate, *profile.Profile) []policy.Candidate
	calls   int
}

func (m *mockFilter) Apply(
	_ context.Context, candidates []policy.Candidate, p *profile.Profile,
) []policy.Candidate {
	m.calls++
	if m.applyFn != nil {
		return m.applyFn(candidates, p)
	}
	return candidates
}

// newTestService wires a service with 4-dimensional embeddings and the
// production defaults otherwise.
func newTestService(repo Repository, embed Embedder, filter ProfileFilter) *Service {
	cfg := DefaultConfig()
	cfg.Dimensions = 4
	return New(repo, embed, filter, cfg, zap.NewNop())
}

func makeCandidate(id, title string, sim float64) policy.Candidate {
	return policy.Candidate{
		Document: policy.Document{
			ID:           id,
			Title:        title,
			Requirements: "만 65세 이상",
			Benefits:     "본인부담금 경감",
		},
		Similarity: sim,
		Score:      sim,
	}
}

func boolPtr(v bool) *bool {
	return &v
}
