// Package retrieve implements hybrid welfare-policy retrieval: KNN search
// over policy title embeddings, hard-filtered by region and eligibility,
// then reranked with a BM25 pass driven by layered conversational context.
package retrieve

import (
	"context"

	"github.com/carewell-ai/polisearch/internal/domain"
	"github.com/carewell-ai/polisearch/internal/domain/memory"
	"github.com/carewell-ai/polisearch/internal/domain/policy"
	"github.com/carewell-ai/polisearch/internal/domain/profile"
)

// Repository is the storage contract for candidate search.
type Repository interface {
	SearchByVector(ctx context.Context, vector []float32, topK int, region string) ([]policy.Candidate, error)
}

// Embedder vectorizes query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// ProfileFilter drops candidates the user is not eligible for (income class,
// benefit type, disability grade). The rule set is a collaborator concern;
// the engine only applies it and reports the before/after counts.
type ProfileFilter interface {
	Apply(ctx context.Context, candidates []policy.Candidate, p *profile.Profile) []policy.Candidate
}

// RouterInfo is the upstream conversation router's verdict for this turn.
// A nil UseRAG means the router expressed no opinion and the keyword
// heuristic decides.
type RouterInfo struct {
	UseRAG *bool
}

// Request is a single hybrid retrieval call.
type Request struct {
	// Query is the user's current utterance, possibly already stripped of
	// profile statements upstream.
	Query string
	// Profile supplies the region hard filter, the eligibility filter input,
	// and the synthetic-query summary. Nil skips all three.
	Profile *profile.Profile
	// Memory is the layered context feeding the synthetic query and the
	// rerank term multiset.
	Memory memory.Snapshot
	// Router carries the routing verdict; nil always retrieves.
	Router *RouterInfo
	// EndSession marks the closing turn of a conversation.
	EndSession bool
	// TopK overrides the configured context size when positive.
	TopK int
}

// Result is the ranked outcome handed to answer generation.
type Result struct {
	// UseRAG reports whether document search actually ran.
	UseRAG bool
	// SearchQuery is the text that was embedded: the raw query or its
	// synthetic replacement. Empty when retrieval was bypassed.
	SearchQuery string
	// Snippets is the ranked context, best first.
	Snippets []policy.Snippet
	// Keywords merges query keywords with rerank terms, for downstream
	// highlighting and logging.
	Keywords []string
}
