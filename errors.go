package polisearch

import "github.com/carewell-ai/polisearch/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrEmptyQuery             = domain.ErrEmptyQuery
	ErrInvalidMode            = domain.ErrInvalidMode
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
	ErrPoolExhausted          = domain.ErrPoolExhausted
	ErrStoreQuery             = domain.ErrStoreQuery
)
