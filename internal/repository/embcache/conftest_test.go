package embcache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/carewell-ai/polisearch/internal/db"
	"github.com/carewell-ai/polisearch/internal/domain"
)

type mockEmbedder struct {
	result domain.EmbeddingResult
	err    error
	calls  int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	return m.result, m.err
}

// mockKVStore implements the shared-tier consumer interface for tests.
type mockKVStore struct {
	getFn func(ctx context.Context, key string) ([]byte, error)
	setFn func(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockKVStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value, ttl)
	}
	return nil
}

func newTestCachedEmbedder(t *testing.T, inner *mockEmbedder, capacity int) *CachedEmbedder {
	t.Helper()
	return New(inner, NewFIFO(capacity), 4, nil, zap.NewNop())
}

func newTestSharedEmbedder(t *testing.T, inner *mockEmbedder) (*SharedCachedEmbedder, *mockKVStore) {
	t.Helper()
	ms := &mockKVStore{}
	ce := NewShared(inner, ms, 24*time.Hour, nil, zap.NewNop())
	return ce, ms
}
