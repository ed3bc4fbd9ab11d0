package embcache

import (
	"context"
	"errors"
	"testing"

	"github.com/carewell-ai/polisearch/internal/domain"
)

func TestEmbed_CacheMiss(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding:    []float32{0.1, 0.2, 0.3},
		PromptTokens: 10,
		TotalTokens:  10,
	}}
	ce := newTestCachedEmbedder(t, inner, 8)

	result, err := ce.Embed(context.Background(), "당뇨 지원")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 || result.Embedding[0] != 0.1 {
		t.Fatalf("unexpected vector: %v", result.Embedding)
	}
	if result.TotalTokens != 10 {
		t.Fatalf("expected TotalTokens=10, got %d", result.TotalTokens)
	}
	if inner.calls != 1 {
		t.Fatalf("expected 1 inner call, got %d", inner.calls)
	}
}

func TestEmbed_CacheHit(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding:    []float32{0.1, 0.2, 0.3},
		PromptTokens: 10,
		TotalTokens:  10,
	}}
	ce := newTestCachedEmbedder(t, inner, 8)
	ctx := context.Background()

	if _, err := ce.Embed(ctx, "당뇨 지원"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := ce.Embed(ctx, "당뇨 지원")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("expected 1 inner call after hit, got %d", inner.calls)
	}
	if result.TotalTokens != 0 {
		t.Fatalf("expected TotalTokens=0 on cache hit, got %d", result.TotalTokens)
	}
	if len(result.Embedding) != 3 || result.Embedding[2] != 0.3 {
		t.Fatalf("expected cached vector, got: %v", result.Embedding)
	}
}

func TestEmbed_BlankText(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1}}}
	ce := newTestCachedEmbedder(t, inner, 8)

	for _, text := range []string{"", "   ", "\t\n"} {
		result, err := ce.Embed(context.Background(), text)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", text, err)
		}
		if len(result.Embedding) != 4 {
			t.Fatalf("expected 4-dim zero vector, got %d dims", len(result.Embedding))
		}
		for i, v := range result.Embedding {
			if v != 0 {
				t.Fatalf("expected zero vector, got %v at %d", v, i)
			}
		}
	}
	if inner.calls != 0 {
		t.Fatalf("expected no inner calls for blank text, got %d", inner.calls)
	}
}

func TestEmbed_InnerError(t *testing.T) {
	inner := &mockEmbedder{err: errors.New("provider down")}
	ce := newTestCachedEmbedder(t, inner, 8)

	_, err := ce.Embed(context.Background(), "test text")
	if err == nil {
		t.Fatal("expected error from inner embedder")
	}
}

func TestEmbed_ErrorNotCached(t *testing.T) {
	inner := &mockEmbedder{err: errors.New("provider down")}
	ce := newTestCachedEmbedder(t, inner, 8)
	ctx := context.Background()

	_, _ = ce.Embed(ctx, "test text")

	inner.err = nil
	inner.result = domain.EmbeddingResult{Embedding: []float32{0.7}}

	result, err := ce.Embed(ctx, "test text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Embedding[0] != 0.7 {
		t.Fatalf("expected fresh vector after earlier failure, got %v", result.Embedding)
	}
	if inner.calls != 2 {
		t.Fatalf("expected 2 inner calls, got %d", inner.calls)
	}
}
