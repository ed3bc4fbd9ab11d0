package sermon

import (
	"context"
	"testing"

	"github.com/carewell-ai/polisearch/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	searchSermonsFn func(ctx context.Context, q *db.SermonQuery) ([]db.SermonRow, error)
}

func (m *mockStore) SearchSermons(ctx context.Context, q *db.SermonQuery) ([]db.SermonRow, error) {
	if m.searchSermonsFn != nil {
		return m.searchSermonsFn(ctx, q)
	}
	return nil, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	repo := New(ms)
	return repo, ms
}
