package search

import (
	"context"
	"testing"

	"github.com/carewell-ai/polisearch/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	searchPoliciesFn func(ctx context.Context, q *db.PolicyQuery) ([]db.PolicyRow, error)
}

func (m *mockStore) SearchPolicies(ctx context.Context, q *db.PolicyQuery) ([]db.PolicyRow, error) {
	if m.searchPoliciesFn != nil {
		return m.searchPoliciesFn(ctx, q)
	}
	return nil, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	repo := New(ms)
	return repo, ms
}

func testVector() []float32 {
	vec := make([]float32, 4)
	for i := range vec {
		vec[i] = 0.1
	}
	return vec
}
