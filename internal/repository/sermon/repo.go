package sermon

import (
	"context"
	"errors"
	"fmt"

	"github.com/carewell-ai/polisearch/internal/db"
	"github.com/carewell-ai/polisearch/internal/domain"
	"github.com/carewell-ai/polisearch/internal/domain/sermon"
)

// store is the consumer interface for sermon search (ISP).
type store interface {
	SearchSermons(ctx context.Context, q *db.SermonQuery) ([]db.SermonRow, error)
}

// Repo implements usecase/sermon.Repository.
type Repo struct {
	store store
}

// New creates a sermon search repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// SearchByVector performs KNN search over sermon embeddings. Hits come
// back in descending similarity order.
func (r *Repo) SearchByVector(ctx context.Context, vector []float32, topK int) ([]sermon.Hit, error) {
	rows, err := r.store.SearchSermons(ctx, &db.SermonQuery{Vector: vector, K: topK})
	if err != nil {
		return nil, mapStoreErr("search sermons", err)
	}

	return toHits(rows), nil
}

// mapStoreErr translates db-layer failures into domain sentinels while
// keeping the cause in the message.
func mapStoreErr(op string, err error) error {
	if errors.Is(err, db.ErrAcquireTimeout) {
		return fmt.Errorf("%s: %w", op, domain.ErrPoolExhausted)
	}
	return fmt.Errorf("%s: %s: %w", op, err, domain.ErrStoreQuery)
}

func toHits(rows []db.SermonRow) []sermon.Hit {
	if len(rows) == 0 {
		return nil
	}
	out := make([]sermon.Hit, 0, len(rows))
	for _, row := range rows {
		out = append(out, sermon.Hit{
			Sermon: sermon.Sermon{
				ID:             row.ID,
				Title:          row.Title,
				Date:           row.Date,
				HasDate:        row.HasDate,
				BibleReference: row.BibleReference,
				Summary:        row.Summary,
				VideoURL:       row.VideoURL,
				Church:         row.Church,
				Preacher:       row.Preacher,
			},
			Similarity: clampSimilarity(row.Similarity),
		})
	}
	return out
}

// clampSimilarity bounds cosine similarity to [0,1]; the complement of a
// pgvector cosine distance can leave that range for unnormalized embeddings.
// NaN passes through so the floor stage can drop zero-vector rows.
func clampSimilarity(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
