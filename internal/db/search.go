package db

import "time"

// PolicyQuery is the input for policy vector search.
type PolicyQuery struct {
	Vector []float32
	K      int
	Region string // optional exact-match region filter; empty means no filter
}

// PolicyRow is a single policy hit with its cosine similarity.
type PolicyRow struct {
	ID           string
	Title        string
	Requirements string
	Benefits     string
	Region       string
	URL          string
	Similarity   float64
}

// SermonQuery is the input for sermon vector search.
type SermonQuery struct {
	Vector []float32
	K      int
}

// SermonRow is a single sermon hit with its cosine similarity.
type SermonRow struct {
	ID             string
	Title          string
	Date           time.Time
	HasDate        bool
	BibleReference string
	Summary        string
	VideoURL       string
	Church         string
	Preacher       string
	Similarity     float64
}
