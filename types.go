package polisearch

import (
	"github.com/carewell-ai/polisearch/internal/domain/memory"
	"github.com/carewell-ai/polisearch/internal/domain/policy"
	"github.com/carewell-ai/polisearch/internal/domain/profile"
	"github.com/carewell-ai/polisearch/internal/domain/sermon"
	retrieveuc "github.com/carewell-ai/polisearch/internal/usecase/retrieve"
	sermonuc "github.com/carewell-ai/polisearch/internal/usecase/sermon"
)

// Profile is the current user's structured attributes. Nullable attributes
// are pointers so "unknown" stays distinguishable from a zero value.
type Profile struct {
	// RegionCode is the residency district string (시군구), the preferred
	// source for the region hard filter.
	RegionCode string
	// RegionGu is a legacy district field, used only when RegionCode is empty.
	RegionGu string

	Sex                     string
	BirthDate               string
	InsuranceType           string
	MedianIncomeRatio       *float64
	BasicBenefitType        string
	DisabilityGrade         *int
	LongTermCareGrade       *int
	PregnantOrPostpartum12m *bool

	// Summary is a prebuilt one-line description of the user ("65세, 서울"),
	// used when the raw query carries no usable keywords.
	Summary string
}

// Triple is one subject/predicate/object fact from conversational memory.
type Triple struct {
	Subject    string
	Predicate  string
	Object     string
	CodeSystem string
	Code       string
}

// Memory is the layered conversational context for one retrieval call:
// L0 current turn, L1 current session, L2 long-term.
type Memory struct {
	L0 []Triple
	L1 []Triple
	L2 []Triple
}

// RouterInfo is the conversation router's verdict. A nil RouterInfo on the
// request means no router ran and retrieval always proceeds; a RouterInfo
// with nil UseRAG defers to the keyword heuristic.
type RouterInfo struct {
	UseRAG *bool
}

// Request is a single hybrid retrieval call.
type Request struct {
	// Query is the user's current utterance.
	Query string
	// TopK overrides the configured context size when positive.
	TopK int
	// EndSession marks the closing turn of a conversation.
	EndSession bool
	// Router carries the routing verdict; nil always retrieves.
	Router *RouterInfo
	// Profile supplies the region filter and the synthetic-query summary.
	Profile *Profile
	// Memory feeds the synthetic query and the rerank term weights.
	Memory Memory
}

// Snippet is one ranked entry of a retrieval result.
type Snippet struct {
	DocID        string
	Title        string
	Source       string
	Region       string
	URL          string
	Text         string
	Requirements string
	Benefits     string
	Similarity   float64
	BM25Score    float64
	Score        float64
}

// Result is the ranked outcome of one retrieval call.
type Result struct {
	// UseRAG reports whether document search actually ran.
	UseRAG bool
	// SearchQuery is the text that was embedded: the raw query or its
	// synthetic replacement. Empty when retrieval was bypassed.
	SearchQuery string
	// Snippets is the ranked context, best first.
	Snippets []Snippet
	// Keywords merges query keywords with rerank terms.
	Keywords []string
}

// SermonMode selects the fixed phrase anchoring a sermon query.
type SermonMode string

// Sermon retrieval modes.
const (
	ModeResearch   SermonMode = "research"
	ModeCounseling SermonMode = "counseling"
	ModeEducation  SermonMode = "education"
)

// SermonRequest is a single sermon retrieval call. An empty Mode defaults
// to ModeResearch; an unknown one fails with ErrInvalidMode.
type SermonRequest struct {
	Query string
	Mode  SermonMode
}

// Reference is one ranked sermon hit.
type Reference struct {
	SermonID       string
	Source         string
	Title          string
	Date           string
	BibleReference string
	Summary        string
	VideoURL       string
	Church         string
	Preacher       string
	Similarity     float64
}

// SermonResult is the outcome of one sermon retrieval call.
type SermonResult struct {
	// SearchQuery is the mode-anchored text that was embedded.
	SearchQuery string
	// References is the ranked hit list, best first.
	References []Reference
}

// LayerWeights are the per-tier term multiplicities for the BM25 rerank.
type LayerWeights struct {
	L0 int
	L1 int
	L2 int
}

// RetrieverConfig holds the retrieval tuning knobs. WithRetrieverConfig
// replaces the whole set, so start from DefaultRetrieverConfig.
type RetrieverConfig struct {
	// RawTopK is how many candidates KNN search draws before filtering.
	RawTopK int
	// ContextTopK is the ranked context size handed to answer generation.
	ContextTopK int
	// SimilarityFloor is the minimum vector similarity a candidate needs to
	// survive the floor stage.
	SimilarityFloor float64
	// MinAfterFloor disables the floor entirely when fewer candidates than
	// this would survive it.
	MinAfterFloor int
	// BM25Weight is the fusion weight in [0,1]; 0 ranks by vector only.
	BM25Weight float64
	BM25K1     float64
	BM25B      float64
	// MaxKeywords caps the query keywords extracted for the result.
	MaxKeywords int
	// LayerWeights are the per-tier term multiplicities for the rerank.
	LayerWeights LayerWeights
}

// DefaultRetrieverConfig returns the production retrieval defaults.
func DefaultRetrieverConfig() RetrieverConfig {
	return RetrieverConfig{
		RawTopK:         8,
		ContextTopK:     5,
		SimilarityFloor: 0.3,
		MinAfterFloor:   5,
		BM25Weight:      0.2,
		BM25K1:          1.5,
		BM25B:           0.75,
		MaxKeywords:     8,
		LayerWeights:    LayerWeights{L0: 3, L1: 2, L2: 1},
	}
}

// SermonConfig holds the sermon retrieval knobs. WithSermonConfig replaces
// the whole set, so start from DefaultSermonConfig.
type SermonConfig struct {
	TopK            int
	SimilarityFloor float64
	// DefaultChurch fills references whose stored church name is empty.
	DefaultChurch string
}

// DefaultSermonConfig returns the production sermon retrieval defaults.
func DefaultSermonConfig() SermonConfig {
	return SermonConfig{
		TopK:            5,
		SimilarityFloor: 0.3,
		DefaultChurch:   "대덕교회",
	}
}

// Conversions between the public surface and the internal pipeline types.

func (r Request) toInternal() retrieveuc.Request {
	req := retrieveuc.Request{
		Query:      r.Query,
		TopK:       r.TopK,
		EndSession: r.EndSession,
		Profile:    r.Profile.toInternal(),
		Memory: memory.Snapshot{
			L0: triplesToInternal(r.Memory.L0),
			L1: triplesToInternal(r.Memory.L1),
			L2: triplesToInternal(r.Memory.L2),
		},
	}
	if r.Router != nil {
		req.Router = &retrieveuc.RouterInfo{UseRAG: r.Router.UseRAG}
	}
	return req
}

func (p *Profile) toInternal() *profile.Profile {
	if p == nil {
		return nil
	}
	return &profile.Profile{
		RegionCode:              p.RegionCode,
		RegionGu:                p.RegionGu,
		Sex:                     p.Sex,
		BirthDate:               p.BirthDate,
		InsuranceType:           p.InsuranceType,
		MedianIncomeRatio:       p.MedianIncomeRatio,
		BasicBenefitType:        p.BasicBenefitType,
		DisabilityGrade:         p.DisabilityGrade,
		LongTermCareGrade:       p.LongTermCareGrade,
		PregnantOrPostpartum12m: p.PregnantOrPostpartum12m,
		Summary:                 p.Summary,
	}
}

func triplesToInternal(ts []Triple) []memory.Triple {
	if len(ts) == 0 {
		return nil
	}
	out := make([]memory.Triple, len(ts))
	for i, t := range ts {
		out[i] = memory.Triple{
			Subject:    t.Subject,
			Predicate:  t.Predicate,
			Object:     t.Object,
			CodeSystem: t.CodeSystem,
			Code:       t.Code,
		}
	}
	return out
}

func resultFromInternal(res retrieveuc.Result) Result {
	out := Result{
		UseRAG:      res.UseRAG,
		SearchQuery: res.SearchQuery,
		Keywords:    res.Keywords,
	}
	if len(res.Snippets) > 0 {
		out.Snippets = make([]Snippet, len(res.Snippets))
		for i, s := range res.Snippets {
			out.Snippets[i] = snippetFromInternal(s)
		}
	}
	return out
}

func snippetFromInternal(s policy.Snippet) Snippet {
	return Snippet{
		DocID:        s.DocID,
		Title:        s.Title,
		Source:       s.Source,
		Region:       s.Region,
		URL:          s.URL,
		Text:         s.Text,
		Requirements: s.Requirements,
		Benefits:     s.Benefits,
		Similarity:   s.Similarity,
		BM25Score:    s.BM25Score,
		Score:        s.Score,
	}
}

func toInternalMode(m SermonMode) sermon.Mode {
	return sermon.Mode(m)
}

func sermonResultFromInternal(res sermonuc.Result) SermonResult {
	out := SermonResult{SearchQuery: res.SearchQuery}
	if len(res.References) > 0 {
		out.References = make([]Reference, len(res.References))
		for i, r := range res.References {
			out.References[i] = referenceFromInternal(r)
		}
	}
	return out
}

func referenceFromInternal(r sermon.Reference) Reference {
	return Reference{
		SermonID:       r.SermonID,
		Source:         r.Source,
		Title:          r.Title,
		Date:           r.Date,
		BibleReference: r.BibleReference,
		Summary:        r.Summary,
		VideoURL:       r.VideoURL,
		Church:         r.Church,
		Preacher:       r.Preacher,
		Similarity:     r.Similarity,
	}
}

func (rc RetrieverConfig) toInternal(dimensions int) retrieveuc.Config {
	return retrieveuc.Config{
		RawTopK:         rc.RawTopK,
		ContextTopK:     rc.ContextTopK,
		SimilarityFloor: rc.SimilarityFloor,
		MinAfterFloor:   rc.MinAfterFloor,
		BM25Weight:      rc.BM25Weight,
		BM25K1:          rc.BM25K1,
		BM25B:           rc.BM25B,
		MaxKeywords:     rc.MaxKeywords,
		LayerWeights: memory.Weights{
			L0: rc.LayerWeights.L0,
			L1: rc.LayerWeights.L1,
			L2: rc.LayerWeights.L2,
		},
		Dimensions: dimensions,
	}
}

func (sc SermonConfig) toInternal(dimensions int) sermonuc.Config {
	return sermonuc.Config{
		TopK:            sc.TopK,
		SimilarityFloor: sc.SimilarityFloor,
		DefaultChurch:   sc.DefaultChurch,
		Dimensions:      dimensions,
	}
}
