package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/carewell-ai/polisearch/internal/db"
	"github.com/carewell-ai/polisearch/internal/domain"
	"github.com/carewell-ai/polisearch/internal/domain/policy"
)

// store is the consumer interface for policy search (ISP).
type store interface {
	SearchPolicies(ctx context.Context, q *db.PolicyQuery) ([]db.PolicyRow, error)
}

// Repo implements usecase/retrieve.Repository.
type Repo struct {
	store store
}

// New creates a policy search repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// SearchByVector performs KNN search over policy title embeddings,
// optionally restricted to an exact region. Candidates come back in
// descending similarity order with Score initialized to Similarity.
func (r *Repo) SearchByVector(
	ctx context.Context, vector []float32, topK int, region string,
) ([]policy.Candidate, error) {
	rows, err := r.store.SearchPolicies(ctx, &db.PolicyQuery{
		Vector: vector,
		K:      topK,
		Region: region,
	})
	if err != nil {
		return nil, mapStoreErr("search policies", err)
	}

	return toCandidates(rows), nil
}

// mapStoreErr translates db-layer failures into domain sentinels while
// keeping the cause in the message.
func mapStoreErr(op string, err error) error {
	if errors.Is(err, db.ErrAcquireTimeout) {
		return fmt.Errorf("%s: %w", op, domain.ErrPoolExhausted)
	}
	return fmt.Errorf("%s: %s: %w", op, err, domain.ErrStoreQuery)
}

func toCandidates(rows []db.PolicyRow) []policy.Candidate {
	if len(rows) == 0 {
		return nil
	}
	out := make([]policy.Candidate, 0, len(rows))
	for _, row := range rows {
		sim := clampSimilarity(row.Similarity)
		out = append(out, policy.Candidate{
			Document: policy.Document{
				ID:           row.ID,
				Title:        row.Title,
				Requirements: row.Requirements,
				Benefits:     row.Benefits,
				Region:       row.Region,
				URL:          row.URL,
			},
			Similarity: sim,
			Score:      sim,
		})
	}
	return out
}

// clampSimilarity bounds cosine similarity to [0,1]; the complement of a
// pgvector cosine distance can leave that range for unnormalized embeddings.
// NaN passes through so downstream stages can detect the zero-vector case.
func clampSimilarity(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
