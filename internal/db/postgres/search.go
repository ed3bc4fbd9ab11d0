package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/carewell-ai/polisearch/internal/db"
)

// Policy search joins title embeddings back to their documents. Cosine
// distance is what the <=> operator computes on normalized embeddings,
// so similarity is its complement.
const policySearchSQL = `
SELECT d.id::text,
       d.title,
       COALESCE(d.requirements, ''),
       COALESCE(d.benefits, ''),
       COALESCE(d.region, ''),
       COALESCE(d.url, ''),
       1 - (e.embedding <=> $1::vector) AS similarity
FROM policy_embeddings e
JOIN policy_documents d ON d.id = e.document_id
WHERE e.field = 'title'`

// SearchPolicies runs KNN search over policy title embeddings.
func (s *Store) SearchPolicies(ctx context.Context, q *db.PolicyQuery) ([]db.PolicyRow, error) {
	conn, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	sql := policySearchSQL
	args := []any{vectorLiteral(q.Vector)}
	if q.Region != "" {
		args = append(args, q.Region)
		sql += fmt.Sprintf(" AND d.region = $%d", len(args))
	}
	args = append(args, q.K)
	sql += fmt.Sprintf(" ORDER BY e.embedding <=> $1::vector LIMIT $%d", len(args))

	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}
	defer rows.Close()

	var out []db.PolicyRow
	for rows.Next() {
		var r db.PolicyRow
		if err := rows.Scan(&r.ID, &r.Title, &r.Requirements, &r.Benefits, &r.Region, &r.URL, &r.Similarity); err != nil {
			return nil, &db.Error{Op: db.OpQuery, Err: err}
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}
	return out, nil
}

const sermonSearchSQL = `
SELECT s.id::text,
       s.title,
       s.sermon_date,
       COALESCE(s.bible_ref, ''),
       COALESCE(s.content_summary, ''),
       COALESCE(s.video_url, ''),
       COALESCE(s.church_name, ''),
       COALESCE(s.preacher, ''),
       1 - (e.embedding <=> $1::vector) AS similarity
FROM sermon_embeddings e
JOIN sermons s ON s.id = e.sermon_id
ORDER BY e.embedding <=> $1::vector
LIMIT $2`

// SearchSermons runs KNN search over sermon embeddings.
func (s *Store) SearchSermons(ctx context.Context, q *db.SermonQuery) ([]db.SermonRow, error) {
	conn, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, sermonSearchSQL, vectorLiteral(q.Vector), q.K)
	if err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}
	defer rows.Close()

	var out []db.SermonRow
	for rows.Next() {
		var (
			r    db.SermonRow
			date *time.Time
		)
		if err := rows.Scan(&r.ID, &r.Title, &date, &r.BibleReference, &r.Summary,
			&r.VideoURL, &r.Church, &r.Preacher, &r.Similarity); err != nil {
			return nil, &db.Error{Op: db.OpQuery, Err: err}
		}
		if date != nil {
			r.Date = *date
			r.HasDate = true
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}
	return out, nil
}

// vectorLiteral renders a float32 slice as a pgvector text literal with six
// fixed decimals, e.g. "[0.100000,0.250000]". Fixed precision keeps the
// literal stable across runs so identical queries hit the same plan cache.
func vectorLiteral(vec []float32) string {
	var b strings.Builder
	b.Grow(len(vec)*11 + 2)
	b.WriteByte('[')
	for i, v := range vec {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'f', 6, 64))
	}
	b.WriteByte(']')
	return b.String()
}
