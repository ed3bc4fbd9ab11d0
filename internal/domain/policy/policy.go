// Package policy defines the welfare-policy records that flow through the
// retrieval pipeline.
package policy

import "strings"

// Document is an immutable corpus record. The document store owns it; the
// retrieval engine only reads.
type Document struct {
	ID           string
	Title        string
	Requirements string
	Benefits     string
	Region       string
	URL          string
}

// SnippetText renders the snippet body handed to answer generation:
// the requirements and benefits blocks, labeled, separated by a blank line.
func (d Document) SnippetText() string {
	var blocks []string
	if req := strings.TrimSpace(d.Requirements); req != "" {
		blocks = append(blocks, "[신청 요건]\n"+req)
	}
	if ben := strings.TrimSpace(d.Benefits); ben != "" {
		blocks = append(blocks, "[지원 내용]\n"+ben)
	}
	return strings.TrimSpace(strings.Join(blocks, "\n\n"))
}

// Candidate is a per-request working record: document fields plus the scores
// accumulated across pipeline stages. Created per retrieval call, never persisted.
type Candidate struct {
	Document

	// Similarity is the cosine-derived vector similarity in [0,1].
	Similarity float64
	// BM25Score is the unnormalized rerank score, >= 0.
	BM25Score float64
	// Score is the fused ranking score. Until the rerank stage runs it equals
	// Similarity.
	Score float64
}

// Snippet is one ranked entry of a retrieval result, shaped for the
// answer-generation collaborator.
type Snippet struct {
	DocID        string
	Title        string
	Source       string
	Text         string
	Similarity   float64
	BM25Score    float64
	Score        float64
	Region       string
	URL          string
	Requirements string
	Benefits     string
}

// SnippetFromCandidate converts a ranked candidate into its snippet form.
// Source falls back to the corpus tag when the document has no region.
func SnippetFromCandidate(c Candidate) Snippet {
	source := c.Region
	if source == "" {
		source = "policy_db"
	}
	text := c.SnippetText()
	if text == "" {
		if c.Benefits != "" {
			text = c.Benefits
		} else {
			text = c.Requirements
		}
	}
	return Snippet{
		DocID:        c.ID,
		Title:        c.Title,
		Source:       source,
		Text:         text,
		Similarity:   c.Similarity,
		BM25Score:    c.BM25Score,
		Score:        c.Score,
		Region:       c.Region,
		URL:          c.URL,
		Requirements: c.Requirements,
		Benefits:     c.Benefits,
	}
}

// PersistNotice is the fixed system snippet appended when the user asks about
// saving the conversation or ends the session.
func PersistNotice() Snippet {
	return Snippet{
		DocID:  "system:conversation_persist",
		Title:  "대화 저장 안내",
		Source: "system_notice",
		Text:   "대화를 종료하면 저장 파이프라인이 자동 실행되어 대화 내용이 보관됩니다.",
		Score:  1.0,
	}
}
