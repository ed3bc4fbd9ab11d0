// Package sermon defines the sermon-archive records and retrieval modes.
package sermon

import (
	"time"
)

// Mode selects the pastoral angle of a sermon search. Each mode maps to a
// fixed Korean phrase prepended to the query before embedding.
type Mode string

// Retrieval mode constants.
const (
	// Research targets exegesis and sermon structure.
	Research Mode = "research"
	// Counseling targets everyday application and pastoral care.
	Counseling Mode = "counseling"
	// Education targets accessible, teaching-oriented material.
	Education Mode = "education"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Research || m == Counseling || m == Education
}

// QueryPrefix returns the embedding-query phrase for the mode, empty for
// unknown modes.
func (m Mode) QueryPrefix() string {
	switch m {
	case Research:
		return "신학적 해석, 본문 연구, 설교 구조"
	case Counseling:
		return "실생활 적용, 목회 상담, 공동체"
	case Education:
		return "교육적 설명, 이해하기 쉬운"
	default:
		return ""
	}
}

// Sermon is an archived sermon record, read-only to the engine.
type Sermon struct {
	ID             string
	Title          string
	Date           time.Time
	HasDate        bool
	BibleReference string
	Summary        string
	VideoURL       string
	Church         string
	Preacher       string
}

// Hit pairs a sermon with its query similarity.
type Hit struct {
	Sermon
	Similarity float64
}

// Reference is one ranked sermon hit handed to answer generation.
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

// FormatDate renders a sermon date the way the assistant prints it.
func FormatDate(t time.Time) string {
	return t.Format("2006년 01월 02일")
}
