package sermon

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/carewell-ai/polisearch/internal/domain"
	"github.com/carewell-ai/polisearch/internal/domain/sermon"
)

type mockRepo struct {
	hits       []sermon.Hit
	err        error
	calls      int
	lastVector []float32
	lastTopK   int
}

func (m *mockRepo) SearchByVector(_ context.Context, vector []float32, topK int) ([]sermon.Hit, error) {
	m.calls++
	m.lastVector = vector
	m.lastTopK = topK
	if m.err != nil {
		return nil, m.err
	}
	return m.hits, nil
}

type mockEmbedder struct {
	vec      []float32
	err      error
	calls    int
	lastText string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.calls++
	m.lastText = text
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec, TotalTokens: 3}, nil
}

func newTestService(repo Repository, embed Embedder) *Service {
	cfg := DefaultConfig()
	cfg.Dimensions = 4
	return New(repo, embed, cfg, zap.NewNop())
}

func makeHit(id, title string, sim float64) sermon.Hit {
	return sermon.Hit{
		Sermon: sermon.Sermon{
			ID:             id,
			Title:          title,
			BibleReference: "요한복음 3:16",
			Summary:        "하나님의 사랑에 관한 말씀",
			Church:         "한빛교회",
			Preacher:       "김목사",
		},
		Similarity: sim,
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	repo := &mockRepo{}
	embed := &mockEmbedder{vec: []float32{0.1, 0.2, 0.3, 0.4}}
	svc := newTestService(repo, embed)

	for _, query := range []string{"", "   "} {
		_, err := svc.Search(context.Background(), Request{Query: query})
		if !errors.Is(err, domain.ErrEmptyQuery) {
			t.Errorf("query %q: expected ErrEmptyQuery, got %v", query, err)
		}
	}
	if repo.calls != 0 || embed.calls != 0 {
		t.Errorf("expected no collaborator calls, got repo=%d embed=%d", repo.calls, embed.calls)
	}
}

func TestSearch_InvalidMode(t *testing.T) {
	repo := &mockRepo{}
	embed := &mockEmbedder{vec: []float32{0.1, 0.2, 0.3, 0.4}}
	svc := newTestService(repo, embed)

	_, err := svc.Search(context.Background(), Request{Query: "고난과 인내", Mode: "prophecy"})
	if !errors.Is(err, domain.ErrInvalidMode) {
		t.Fatalf("expected ErrInvalidMode, got %v", err)
	}
	if repo.calls != 0 {
		t.Errorf("expected no search after mode rejection, got %d calls", repo.calls)
	}
}

func TestSearch_ModePrefixesQuery(t *testing.T) {
	tests := []struct {
		name string
		mode sermon.Mode
		want string
	}{
		{"research", sermon.Research, "신학적 해석, 본문 연구, 설교 구조 고난과 인내"},
		{"counseling", sermon.Counseling, "실생활 적용, 목회 상담, 공동체 고난과 인내"},
		{"education", sermon.Education, "교육적 설명, 이해하기 쉬운 고난과 인내"},
		{"empty defaults to research", "", "신학적 해석, 본문 연구, 설교 구조 고난과 인내"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockRepo{}
			embed := &mockEmbedder{vec: []float32{0.1, 0.2, 0.3, 0.4}}
			svc := newTestService(repo, embed)

			res, err := svc.Search(context.Background(), Request{Query: "고난과 인내", Mode: tt.mode})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if embed.lastText != tt.want {
				t.Errorf("embedded text = %q, want %q", embed.lastText, tt.want)
			}
			if res.SearchQuery != tt.want {
				t.Errorf("SearchQuery = %q, want %q", res.SearchQuery, tt.want)
			}
		})
	}
}

func TestSearch_FloorFiltersPerRow(t *testing.T) {
	repo := &mockRepo{hits: []sermon.Hit{
		makeHit("s1", "사랑의 능력", 0.9),
		makeHit("s2", "인내의 열매", 0.31),
		makeHit("s3", "감사의 삶", 0.3),
		makeHit("s4", "광야의 시간", 0.29),
		makeHit("s5", "빈 무덤", math.NaN()),
	}}
	embed := &mockEmbedder{vec: []float32{0.1, 0.2, 0.3, 0.4}}
	svc := newTestService(repo, embed)

	res, err := svc.Search(context.Background(), Request{Query: "하나님의 사랑"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var ids []string
	for _, r := range res.References {
		ids = append(ids, r.SermonID)
	}
	// The floor is inclusive and applies row by row; there is no minimum
	// survivor count like the policy pipeline has.
	if !reflect.DeepEqual(ids, []string{"s1", "s2", "s3"}) {
		t.Errorf("surviving references = %v", ids)
	}
}

func TestSearch_ReferenceShaping(t *testing.T) {
	hit := sermon.Hit{
		Sermon: sermon.Sermon{
			ID:             "s1",
			Title:          "사랑의 능력",
			Date:           time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
			HasDate:        true,
			BibleReference: "고린도전서 13:4-7",
			Summary:        "사랑의 속성에 대한 강해",
			VideoURL:       "https://example.com/v/s1",
		},
		Similarity: 0.87654321,
	}
	repo := &mockRepo{hits: []sermon.Hit{hit}}
	embed := &mockEmbedder{vec: []float32{0.1, 0.2, 0.3, 0.4}}
	svc := newTestService(repo, embed)

	res, err := svc.Search(context.Background(), Request{Query: "사랑"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.References) != 1 {
		t.Fatalf("expected 1 reference, got %d", len(res.References))
	}

	ref := res.References[0]
	if ref.Source != "sermon_archive" {
		t.Errorf("source = %q", ref.Source)
	}
	if ref.Date != "2024년 03월 10일" {
		t.Errorf("date = %q", ref.Date)
	}
	if ref.Church != "대덕교회" {
		t.Errorf("expected default church, got %q", ref.Church)
	}
	if ref.Similarity != 0.8765 {
		t.Errorf("similarity = %v, want 0.8765", ref.Similarity)
	}
}

func TestSearch_NoDateLeftEmpty(t *testing.T) {
	repo := &mockRepo{hits: []sermon.Hit{makeHit("s1", "사랑의 능력", 0.8)}}
	embed := &mockEmbedder{vec: []float32{0.1, 0.2, 0.3, 0.4}}
	svc := newTestService(repo, embed)

	res, err := svc.Search(context.Background(), Request{Query: "사랑"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.References[0].Date != "" {
		t.Errorf("date = %q, want empty", res.References[0].Date)
	}
	if res.References[0].Church != "한빛교회" {
		t.Errorf("church = %q, want archive value kept", res.References[0].Church)
	}
}

func TestSearch_TopK(t *testing.T) {
	repo := &mockRepo{}
	embed := &mockEmbedder{vec: []float32{0.1, 0.2, 0.3, 0.4}}
	svc := newTestService(repo, embed)

	if _, err := svc.Search(context.Background(), Request{Query: "감사"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.lastTopK != 5 {
		t.Errorf("topK = %d, want 5", repo.lastTopK)
	}
}

func TestSearch_EmbedErrorDegradesToZeroVector(t *testing.T) {
	repo := &mockRepo{hits: []sermon.Hit{makeHit("s1", "사랑의 능력", 0.8)}}
	embed := &mockEmbedder{err: errors.New("provider unreachable")}
	svc := newTestService(repo, embed)

	res, err := svc.Search(context.Background(), Request{Query: "사랑"})
	if err != nil {
		t.Fatalf("expected degraded search, got error: %v", err)
	}
	if !reflect.DeepEqual(repo.lastVector, []float32{0, 0, 0, 0}) {
		t.Errorf("expected zero vector, got %v", repo.lastVector)
	}
	if len(res.References) != 1 {
		t.Errorf("expected best-effort references, got %d", len(res.References))
	}
}

func TestSearch_StoreErrorsSurface(t *testing.T) {
	embed := &mockEmbedder{vec: []float32{0.1, 0.2, 0.3, 0.4}}

	for _, sentinel := range []error{domain.ErrStoreQuery, domain.ErrPoolExhausted} {
		repo := &mockRepo{err: fmt.Errorf("search sermons: %w", sentinel)}
		svc := newTestService(repo, embed)

		_, err := svc.Search(context.Background(), Request{Query: "사랑"})
		if !errors.Is(err, sentinel) {
			t.Errorf("expected %v to surface, got %v", sentinel, err)
		}
	}
}
