package chi

import (
	"math"

	"github.com/carewell-ai/polisearch/internal/domain/memory"
	"github.com/carewell-ai/polisearch/internal/domain/policy"
	"github.com/carewell-ai/polisearch/internal/domain/profile"
	retrieveuc "github.com/carewell-ai/polisearch/internal/usecase/retrieve"
	sermonuc "github.com/carewell-ai/polisearch/internal/usecase/sermon"
)

// Field names follow the upstream assistant's state schema so the engine can
// be swapped in without client changes.

type retrieveRequest struct {
	Query      string      `json:"query"`
	TopK       int         `json:"top_k,omitempty"`
	EndSession bool        `json:"end_session,omitempty"`
	Profile    *profileDTO `json:"profile,omitempty"`
	Memory     *memoryDTO  `json:"memory,omitempty"`
	Router     *routerDTO  `json:"router,omitempty"`
}

type profileDTO struct {
	ResidencySggCode        string   `json:"residency_sgg_code,omitempty"`
	RegionGu                string   `json:"region_gu,omitempty"`
	Sex                     string   `json:"sex,omitempty"`
	BirthDate               string   `json:"birth_date,omitempty"`
	InsuranceType           string   `json:"insurance_type,omitempty"`
	MedianIncomeRatio       *float64 `json:"median_income_ratio,omitempty"`
	BasicBenefitType        string   `json:"basic_benefit_type,omitempty"`
	DisabilityGrade         *int     `json:"disability_grade,omitempty"`
	LTCIGrade               *int     `json:"ltci_grade,omitempty"`
	PregnantOrPostpartum12m *bool    `json:"pregnant_or_postpartum12m,omitempty"`
	Summary                 string   `json:"summary,omitempty"`
}

type tripleDTO struct {
	Subject    string `json:"subject,omitempty"`
	Predicate  string `json:"predicate,omitempty"`
	Object     string `json:"object,omitempty"`
	CodeSystem string `json:"code_system,omitempty"`
	Code       string `json:"code,omitempty"`
}

type memoryDTO struct {
	L0 []tripleDTO `json:"l0,omitempty"`
	L1 []tripleDTO `json:"l1,omitempty"`
	L2 []tripleDTO `json:"l2,omitempty"`
}

type routerDTO struct {
	UseRAG *bool `json:"use_rag"`
}

type retrieveResponse struct {
	UseRAG      bool         `json:"use_rag"`
	SearchQuery string       `json:"search_query,omitempty"`
	Snippets    []snippetDTO `json:"snippets"`
	Keywords    []string     `json:"keywords,omitempty"`
}

type snippetDTO struct {
	DocID        string  `json:"doc_id"`
	Title        string  `json:"title"`
	Source       string  `json:"source"`
	Snippet      string  `json:"snippet"`
	Similarity   float64 `json:"similarity"`
	BM25Score    float64 `json:"bm25_score"`
	Score        float64 `json:"score"`
	Region       string  `json:"region,omitempty"`
	URL          string  `json:"url,omitempty"`
	Requirements string  `json:"requirements,omitempty"`
	Benefits     string  `json:"benefits,omitempty"`
}

type sermonSearchRequest struct {
	Query string `json:"query"`
	Mode  string `json:"mode,omitempty"`
}

type sermonSearchResponse struct {
	SearchQuery string         `json:"search_query"`
	References  []referenceDTO `json:"references"`
}

type referenceDTO struct {
	SermonID   string  `json:"sermon_id"`
	Source     string  `json:"source"`
	Title      string  `json:"title"`
	Date       string  `json:"date,omitempty"`
	Scripture  string  `json:"scripture,omitempty"`
	Summary    string  `json:"summary,omitempty"`
	Score      float64 `json:"score"`
	ChurchName string  `json:"church_name,omitempty"`
	Preacher   string  `json:"preacher,omitempty"`
	VideoURL   string  `json:"video_url,omitempty"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func (r retrieveRequest) toDomain() retrieveuc.Request {
	req := retrieveuc.Request{
		Query:      r.Query,
		TopK:       r.TopK,
		EndSession: r.EndSession,
	}
	if r.Profile != nil {
		req.Profile = r.Profile.toDomain()
	}
	if r.Memory != nil {
		req.Memory = r.Memory.toDomain()
	}
	if r.Router != nil {
		req.Router = &retrieveuc.RouterInfo{UseRAG: r.Router.UseRAG}
	}
	return req
}

func (p profileDTO) toDomain() *profile.Profile {
	return &profile.Profile{
		RegionCode:              p.ResidencySggCode,
		RegionGu:                p.RegionGu,
		Sex:                     p.Sex,
		BirthDate:               p.BirthDate,
		InsuranceType:           p.InsuranceType,
		MedianIncomeRatio:       p.MedianIncomeRatio,
		BasicBenefitType:        p.BasicBenefitType,
		DisabilityGrade:         p.DisabilityGrade,
		LongTermCareGrade:       p.LTCIGrade,
		PregnantOrPostpartum12m: p.PregnantOrPostpartum12m,
		Summary:                 p.Summary,
	}
}

func (m memoryDTO) toDomain() memory.Snapshot {
	return memory.Snapshot{
		L0: triplesToDomain(m.L0),
		L1: triplesToDomain(m.L1),
		L2: triplesToDomain(m.L2),
	}
}

func triplesToDomain(ts []tripleDTO) []memory.Triple {
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

func retrieveResultToDTO(res retrieveuc.Result) retrieveResponse {
	snippets := make([]snippetDTO, len(res.Snippets))
	for i, s := range res.Snippets {
		snippets[i] = snippetToDTO(s)
	}
	return retrieveResponse{
		UseRAG:      res.UseRAG,
		SearchQuery: res.SearchQuery,
		Snippets:    snippets,
		Keywords:    res.Keywords,
	}
}

func snippetToDTO(s policy.Snippet) snippetDTO {
	return snippetDTO{
		DocID:        s.DocID,
		Title:        s.Title,
		Source:       s.Source,
		Snippet:      s.Text,
		Similarity:   jsonSafe(s.Similarity),
		BM25Score:    jsonSafe(s.BM25Score),
		Score:        jsonSafe(s.Score),
		Region:       s.Region,
		URL:          s.URL,
		Requirements: s.Requirements,
		Benefits:     s.Benefits,
	}
}

func sermonResultToDTO(res sermonuc.Result) sermonSearchResponse {
	refs := make([]referenceDTO, len(res.References))
	for i, r := range res.References {
		refs[i] = referenceDTO{
			SermonID:   r.SermonID,
			Source:     r.Source,
			Title:      r.Title,
			Date:       r.Date,
			Scripture:  r.BibleReference,
			Summary:    r.Summary,
			Score:      jsonSafe(r.Similarity),
			ChurchName: r.Church,
			Preacher:   r.Preacher,
			VideoURL:   r.VideoURL,
		}
	}
	return sermonSearchResponse{SearchQuery: res.SearchQuery, References: refs}
}

// jsonSafe maps non-finite values to zero. A zero-vector search computes NaN
// similarities and encoding/json rejects them.
func jsonSafe(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
