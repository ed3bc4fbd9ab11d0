package db

import (
	"context"
	"time"
)

// VectorStore is the main database facade combining all sub-interfaces.
// Consumers should depend on the narrow sub-interfaces (ISP).
type VectorStore interface {
	Pinger
	PolicySearcher
	SermonSearcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PolicySearcher runs vector similarity search over the policy corpus.
type PolicySearcher interface {
	SearchPolicies(ctx context.Context, q *PolicyQuery) ([]PolicyRow, error)
}

// SermonSearcher runs vector similarity search over the sermon archive.
type SermonSearcher interface {
	SearchSermons(ctx context.Context, q *SermonQuery) ([]SermonRow, error)
}

// KVStore provides simple key-value operations for the shared embedding cache.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
