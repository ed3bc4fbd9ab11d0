package polisearch

import "context"

// Embedder converts text to vector embeddings. Supply one via WithEmbedder
// to replace the built-in OpenAI provider, for example to use a local model
// or a different vendor.
//
// If the implementation also provides HealthCheck(ctx) error, the client's
// health report includes the provider check.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token counts.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}
