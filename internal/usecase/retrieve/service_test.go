package retrieve

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"testing"

	"go.uber.org/zap"

	"github.com/carewell-ai/polisearch/internal/domain"
	"github.com/carewell-ai/polisearch/internal/domain/memory"
	"github.com/carewell-ai/polisearch/internal/domain/policy"
	"github.com/carewell-ai/polisearch/internal/domain/profile"
)

func TestRetrieve_EmptyQuery(t *testing.T) {
	repo := &mockRepo{}
	embed := &mockEmbedder{vec: []float32{0.1, 0.2, 0.3, 0.4}}
	svc := newTestService(repo, embed, nil)

	for _, query := range []string{"", "   ", "\t\n"} {
		_, err := svc.Retrieve(context.Background(), Request{Query: query})
		if !errors.Is(err, domain.ErrEmptyQuery) {
			t.Errorf("query %q: expected ErrEmptyQuery, got %v", query, err)
		}
	}
	if repo.calls != 0 || embed.calls != 0 {
		t.Errorf("expected no collaborator calls, got repo=%d embed=%d", repo.calls, embed.calls)
	}
}

func TestRetrieve_HappyPath(t *testing.T) {
	repo := &mockRepo{candidates: []policy.Candidate{
		makeCandidate("doc-1", "임플란트 본인부담 경감", 0.9),
		makeCandidate("doc-2", "노인 틀니 지원", 0.6),
	}}
	embed := &mockEmbedder{vec: []float32{0.1, 0.2, 0.3, 0.4}}
	svc := newTestService(repo, embed, nil)

	res, err := svc.Retrieve(context.Background(), Request{
		Query:   "임플란트 지원 되나요",
		Profile: &profile.Profile{RegionCode: "서울특별시 동작구"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !res.UseRAG {
		t.Error("expected UseRAG true")
	}
	if res.SearchQuery != "임플란트 지원 되나요" {
		t.Errorf("SearchQuery = %q", res.SearchQuery)
	}
	if repo.calls != 1 || embed.calls != 1 {
		t.Errorf("expected single repo and embed calls, got %d and %d", repo.calls, embed.calls)
	}
	if repo.lastTopK != 8 {
		t.Errorf("raw top-k = %d, want 8", repo.lastTopK)
	}
	if repo.lastRegion != "동작구" {
		t.Errorf("region = %q, want 동작구", repo.lastRegion)
	}
	if embed.lastText != "임플란트 지원 되나요" {
		t.Errorf("embedded text = %q", embed.lastText)
	}

	if len(res.Snippets) != 2 {
		t.Fatalf("expected 2 snippets, got %d", len(res.Snippets))
	}
	if res.Snippets[0].DocID != "doc-1" || res.Snippets[1].DocID != "doc-2" {
		t.Errorf("unexpected order: %s, %s", res.Snippets[0].DocID, res.Snippets[1].DocID)
	}
	// No layered context, so the rerank is skipped and scores stay at the
	// vector similarity.
	if res.Snippets[0].Score != 0.9 {
		t.Errorf("score = %f, want 0.9", res.Snippets[0].Score)
	}

	wantKw := []string{"임플란트", "되나요"}
	if !reflect.DeepEqual(res.Keywords, wantKw) {
		t.Errorf("keywords = %v, want %v", res.Keywords, wantKw)
	}
}

func TestRetrieve_SyntheticQuery(t *testing.T) {
	repo := &mockRepo{candidates: []policy.Candidate{
		makeCandidate("doc-1", "당뇨 관리 지원", 0.5),
	}}
	embed := &mockEmbedder{vec: []float32{0.1, 0.2, 0.3, 0.4}}
	svc := newTestService(repo, embed, nil)

	res, err := svc.Retrieve(context.Background(), Request{
		Query:   "혹시 가능 문의",
		Profile: &profile.Profile{Summary: "65세, 서울"},
		Memory:  memory.Snapshot{L0: []memory.Triple{{Object: "당뇨"}}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "65세, 서울 최근 상황: 당뇨 관련 의료·복지 지원 정책"
	if embed.lastText != want {
		t.Errorf("embedded text = %q, want %q", embed.lastText, want)
	}
	if res.SearchQuery != want {
		t.Errorf("SearchQuery = %q, want %q", res.SearchQuery, want)
	}
	// The raw query has no keywords; the merged list falls back to the
	// layered rerank terms.
	if !reflect.DeepEqual(res.Keywords, []string{"당뇨"}) {
		t.Errorf("keywords = %v, want [당뇨]", res.Keywords)
	}
}

func TestRetrieve_RouterBypass(t *testing.T) {
	repo := &mockRepo{}
	embed := &mockEmbedder{vec: []float32{0.1, 0.2, 0.3, 0.4}}
	svc := newTestService(repo, embed, nil)

	res, err := svc.Retrieve(context.Background(), Request{
		Query:  "지원 자격이 되나요",
		Router: &RouterInfo{UseRAG: boolPtr(false)},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.UseRAG {
		t.Error("expected UseRAG false")
	}
	if res.SearchQuery != "" {
		t.Errorf("SearchQuery = %q, want empty", res.SearchQuery)
	}
	if len(res.Snippets) != 0 {
		t.Errorf("expected no snippets, got %d", len(res.Snippets))
	}
	if repo.calls != 0 || embed.calls != 0 {
		t.Errorf("expected no search, got repo=%d embed=%d", repo.calls, embed.calls)
	}
	if !reflect.DeepEqual(res.Keywords, []string{"자격이", "되나요"}) {
		t.Errorf("keywords = %v", res.Keywords)
	}
}

func TestRetrieve_HeuristicSkip(t *testing.T) {
	repo := &mockRepo{}
	embed := &mockEmbedder{vec: []float32{0.1, 0.2, 0.3, 0.4}}
	svc := newTestService(repo, embed, nil)

	res, err := svc.Retrieve(context.Background(), Request{
		Query:  "오늘 날씨 알려줘",
		Router: &RouterInfo{},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.UseRAG {
		t.Error("expected heuristic to skip retrieval")
	}
	if repo.calls != 0 {
		t.Errorf("expected no search, got %d calls", repo.calls)
	}
}

func TestRetrieve_BypassEndSessionNotice(t *testing.T) {
	repo := &mockRepo{}
	embed := &mockEmbedder{vec: []float32{0.1, 0.2, 0.3, 0.4}}
	svc := newTestService(repo, embed, nil)

	res, err := svc.Retrieve(context.Background(), Request{
		Query:      "고마워요 오늘은 여기까지 할게요",
		Router:     &RouterInfo{UseRAG: boolPtr(false)},
		EndSession: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(res.Snippets) != 1 {
		t.Fatalf("expected only the persist notice, got %d snippets", len(res.Snippets))
	}
	if res.Snippets[0].DocID != "system:conversation_persist" {
		t.Errorf("snippet DocID = %q", res.Snippets[0].DocID)
	}
	if res.Snippets[0].Score != 1.0 {
		t.Errorf("notice score = %f, want 1.0", res.Snippets[0].Score)
	}
}

func TestRetrieve_SaveMentionAppendsNotice(t *testing.T) {
	repo := &mockRepo{candidates: []policy.Candidate{
		makeCandidate("doc-1", "재가급여 안내", 0.8),
	}}
	embed := &mockEmbedder{vec: []float32{0.1, 0.2, 0.3, 0.4}}
	svc := newTestService(repo, embed, nil)

	res, err := svc.Retrieve(context.Background(), Request{
		Query: "상담 내용 기록으로 남겨줄 수 있나요",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(res.Snippets) != 2 {
		t.Fatalf("expected ranked snippet plus notice, got %d", len(res.Snippets))
	}
	if res.Snippets[1].DocID != "system:conversation_persist" {
		t.Errorf("last snippet = %q, want persist notice", res.Snippets[1].DocID)
	}
}

func TestRetrieve_EmbedErrorDegradesToZeroVector(t *testing.T) {
	repo := &mockRepo{candidates: []policy.Candidate{
		makeCandidate("doc-1", "기초연금 안내", math.NaN()),
	}}
	embed := &mockEmbedder{err: errors.New("provider unreachable")}
	svc := newTestService(repo, embed, nil)

	res, err := svc.Retrieve(context.Background(), Request{Query: "기초연금 수급 자격"})
	if err != nil {
		t.Fatalf("expected degraded retrieval, got error: %v", err)
	}

	if !reflect.DeepEqual(repo.lastVector, []float32{0, 0, 0, 0}) {
		t.Errorf("expected zero vector, got %v", repo.lastVector)
	}
	if len(res.Snippets) != 1 {
		t.Errorf("expected best-effort snippet, got %d", len(res.Snippets))
	}
}

func TestRetrieve_StoreErrorsSurface(t *testing.T) {
	embed := &mockEmbedder{vec: []float32{0.1, 0.2, 0.3, 0.4}}

	for _, sentinel := range []error{domain.ErrStoreQuery, domain.ErrPoolExhausted} {
		repo := &mockRepo{err: fmt.Errorf("search policies: %w", sentinel)}
		svc := newTestService(repo, embed, nil)

		_, err := svc.Retrieve(context.Background(), Request{Query: "임플란트 지원"})
		if !errors.Is(err, sentinel) {
			t.Errorf("expected %v to surface, got %v", sentinel, err)
		}
	}
}

func TestRetrieve_ProfileFilterApplied(t *testing.T) {
	repo := &mockRepo{candidates: []policy.Candidate{
		makeCandidate("keep", "노인 의료비 지원", 0.9),
		makeCandidate("drop", "청년 월세 지원", 0.8),
	}}
	embed := &mockEmbedder{vec: []float32{0.1, 0.2, 0.3, 0.4}}
	filter := &mockFilter{applyFn: func(cands []policy.Candidate, _ *profile.Profile) []policy.Candidate {
		out := cands[:0]
		for _, c := range cands {
			if c.ID != "drop" {
				out = append(out, c)
			}
		}
		return out
	}}
	svc := newTestService(repo, embed, filter)

	res, err := svc.Retrieve(context.Background(), Request{
		Query:   "의료비 지원 대상 확인",
		Profile: &profile.Profile{RegionCode: "동작구"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if filter.calls != 1 {
		t.Errorf("filter calls = %d, want 1", filter.calls)
	}
	if len(res.Snippets) != 1 || res.Snippets[0].DocID != "keep" {
		t.Errorf("unexpected snippets: %+v", res.Snippets)
	}
}

func TestRetrieve_ProfileFilterSkippedWithoutProfile(t *testing.T) {
	repo := &mockRepo{candidates: []policy.Candidate{
		makeCandidate("doc-1", "노인 의료비 지원", 0.9),
	}}
	embed := &mockEmbedder{vec: []float32{0.1, 0.2, 0.3, 0.4}}
	filter := &mockFilter{}
	svc := newTestService(repo, embed, filter)

	_, err := svc.Retrieve(context.Background(), Request{Query: "의료비 지원 대상"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filter.calls != 0 {
		t.Errorf("filter called %d times without a profile", filter.calls)
	}
}

func TestRetrieve_FloorApplied(t *testing.T) {
	repo := &mockRepo{candidates: []policy.Candidate{
		makeCandidate("a", "정책 하나", 0.9),
		makeCandidate("b", "정책 둘", 0.8),
		makeCandidate("c", "정책 셋", 0.2),
		makeCandidate("d", "정책 넷", 0.1),
	}}
	embed := &mockEmbedder{vec: []float32{0.1, 0.2, 0.3, 0.4}}

	cfg := DefaultConfig()
	cfg.Dimensions = 4
	cfg.MinAfterFloor = 2
	svc := New(repo, embed, nil, cfg, zap.NewNop())

	res, err := svc.Retrieve(context.Background(), Request{Query: "의료비 지원 정책"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(res.Snippets) != 2 {
		t.Fatalf("expected 2 snippets after floor, got %d", len(res.Snippets))
	}
	if res.Snippets[0].DocID != "a" || res.Snippets[1].DocID != "b" {
		t.Errorf("unexpected survivors: %s, %s", res.Snippets[0].DocID, res.Snippets[1].DocID)
	}
}

func TestRetrieve_FloorSkippedBelowMinimum(t *testing.T) {
	// Only 3 of 10 candidates clear the floor; with the default minimum of
	// 5 the floor is skipped and truncation trims the full set instead.
	sims := []float64{0.9, 0.5, 0.35, 0.2, 0.15, 0.1, 0.1, 0.1, 0.1, 0.1}
	var candidates []policy.Candidate
	for i, s := range sims {
		candidates = append(candidates, makeCandidate(fmt.Sprintf("doc-%d", i), "의료 지원 정책", s))
	}
	repo := &mockRepo{candidates: candidates}
	embed := &mockEmbedder{vec: []float32{0.1, 0.2, 0.3, 0.4}}
	svc := newTestService(repo, embed, nil)

	res, err := svc.Retrieve(context.Background(), Request{Query: "의료비 지원 정책"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(res.Snippets) != 5 {
		t.Fatalf("expected context capped at 5, got %d", len(res.Snippets))
	}
	if res.Snippets[0].Similarity != 0.9 || res.Snippets[4].Similarity != 0.15 {
		t.Errorf("unexpected boundary similarities: %f, %f",
			res.Snippets[0].Similarity, res.Snippets[4].Similarity)
	}
}

func TestRetrieve_RerankPromotesTermMatch(t *testing.T) {
	repo := &mockRepo{candidates: []policy.Candidate{
		makeCandidate("pension", "기초연금 인상 안내", 0.8),
		makeCandidate("diabetes", "당뇨 의료비 지원", 0.75),
		makeCandidate("housing", "청년 월세 지원", 0.7),
	}}
	embed := &mockEmbedder{vec: []float32{0.1, 0.2, 0.3, 0.4}}
	svc := newTestService(repo, embed, nil)

	res, err := svc.Retrieve(context.Background(), Request{
		Query:  "당뇨 치료비 알려줘",
		Memory: memory.Snapshot{L0: []memory.Triple{{Object: "당뇨"}}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 당뇨 appears only in the second candidate; its BM25 boost outweighs
	// the similarity gap to the first.
	if res.Snippets[0].DocID != "diabetes" {
		t.Errorf("top snippet = %s, want diabetes", res.Snippets[0].DocID)
	}
	if res.Snippets[0].BM25Score <= 0 {
		t.Errorf("BM25 score = %f, want > 0", res.Snippets[0].BM25Score)
	}
	if res.Snippets[0].Score <= res.Snippets[1].Score {
		t.Errorf("fused scores not descending: %f, %f",
			res.Snippets[0].Score, res.Snippets[1].Score)
	}
}

func TestRetrieve_TopKOverride(t *testing.T) {
	repo := &mockRepo{candidates: []policy.Candidate{
		makeCandidate("a", "정책 하나", 0.9),
		makeCandidate("b", "정책 둘", 0.8),
		makeCandidate("c", "정책 셋", 0.7),
		makeCandidate("d", "정책 넷", 0.6),
	}}
	embed := &mockEmbedder{vec: []float32{0.1, 0.2, 0.3, 0.4}}
	svc := newTestService(repo, embed, nil)

	res, err := svc.Retrieve(context.Background(), Request{Query: "의료비 지원 정책", TopK: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Snippets) != 2 {
		t.Errorf("expected TopK override to 2, got %d snippets", len(res.Snippets))
	}
}

func TestRetrieve_KeywordsMergedAndCapped(t *testing.T) {
	repo := &mockRepo{candidates: []policy.Candidate{
		makeCandidate("doc-1", "복지 용구 지원", 0.8),
	}}
	embed := &mockEmbedder{vec: []float32{0.1, 0.2, 0.3, 0.4}}
	svc := newTestService(repo, embed, nil)

	res, err := svc.Retrieve(context.Background(), Request{
		Query: "재활치료 보청기 틀니 임플란트 백내장 수술비 간병비 교통비",
		Memory: memory.Snapshot{L0: []memory.Triple{
			{Object: "휠체어"},
			{Object: "보행기"},
			{Object: "욕창매트"},
			{Object: "산소발생기"},
			{Object: "혈압계"},
		}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(res.Keywords) != 12 {
		t.Fatalf("keywords = %d entries, want cap of 12: %v", len(res.Keywords), res.Keywords)
	}
	if res.Keywords[0] != "재활치료" || res.Keywords[8] != "휠체어" {
		t.Errorf("unexpected merge order: %v", res.Keywords)
	}
	for _, kw := range res.Keywords {
		if kw == "혈압계" {
			t.Error("expected 혈압계 to fall past the cap")
		}
	}
}

func TestRetrieve_EmptyResultSet(t *testing.T) {
	repo := &mockRepo{}
	embed := &mockEmbedder{vec: []float32{0.1, 0.2, 0.3, 0.4}}
	svc := newTestService(repo, embed, nil)

	res, err := svc.Retrieve(context.Background(), Request{Query: "임플란트 지원"})
	if err != nil {
		t.Fatalf("empty result set must not error: %v", err)
	}
	if !res.UseRAG {
		t.Error("expected UseRAG true")
	}
	if len(res.Snippets) != 0 {
		t.Errorf("expected no snippets, got %d", len(res.Snippets))
	}
	if !reflect.DeepEqual(res.Keywords, []string{"임플란트"}) {
		t.Errorf("keywords = %v", res.Keywords)
	}
}
