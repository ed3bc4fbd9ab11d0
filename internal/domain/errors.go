package domain

import "errors"

var (
	// ErrEmptyQuery signals a blank retrieval query.
	ErrEmptyQuery = errors.New("empty query")
	// ErrInvalidMode signals an unknown sermon retrieval mode.
	ErrInvalidMode = errors.New("invalid retrieval mode")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrPoolExhausted signals that no store connection became free in time.
	ErrPoolExhausted = errors.New("connection pool exhausted")
	// ErrStoreQuery signals a vector store query failure.
	ErrStoreQuery = errors.New("store query failed")
)
