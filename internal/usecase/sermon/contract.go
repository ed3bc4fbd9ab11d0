// Package sermon implements retrieval over the sermon archive: a mode-angled
// vector search without the layered rerank the policy pipeline runs.
package sermon

import (
	"context"

	"github.com/carewell-ai/polisearch/internal/domain"
	"github.com/carewell-ai/polisearch/internal/domain/sermon"
)

// Repository runs vector similarity search over the sermon archive.
type Repository interface {
	SearchByVector(ctx context.Context, vector []float32, topK int) ([]sermon.Hit, error)
}

// Embedder vectorizes search text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Request is one sermon search call.
type Request struct {
	// Query is the user question. Must be non-blank.
	Query string
	// Mode selects the pastoral angle. Empty defaults to research.
	Mode sermon.Mode
}

// Result is the ranked sermon references for one search.
type Result struct {
	// SearchQuery is the mode-prefixed text that was embedded.
	SearchQuery string
	// References are the hits above the similarity floor, best first.
	References []sermon.Reference
}
