package retrieve

import (
	"math"
	"sort"

	"github.com/carewell-ai/polisearch/internal/domain/policy"
)

// applyFloor drops candidates below the similarity floor, but only when at
// least minCount survive; otherwise the whole set is kept unchanged. The
// floor is all-or-nothing, it never partially relaxes. The second return
// reports whether the floor actually applied.
func applyFloor(candidates []policy.Candidate, floor float64, minCount int) ([]policy.Candidate, bool) {
	if !anySimilarity(candidates) {
		return candidates, false
	}
	kept := make([]policy.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if !math.IsNaN(c.Similarity) && c.Similarity >= floor {
			kept = append(kept, c)
		}
	}
	if len(kept) < minCount {
		return candidates, false
	}
	return kept, true
}

// anySimilarity reports whether at least one candidate carries a usable
// similarity. With a zero query vector the store computes NaN for every row
// and floor filtering would be meaningless.
func anySimilarity(candidates []policy.Candidate) bool {
	for _, c := range candidates {
		if !math.IsNaN(c.Similarity) {
			return true
		}
	}
	return false
}

// fuse populates BM25Score and the fused Score on every candidate:
// score = (1-weight)*similarity + weight*bm25/max(bm25). Normalizing against
// the set maximum keeps the BM25 term in [0,1]; negative BM25 scores (shared
// terms with inflated document frequency) clamp to zero so the fused score
// never leaves [0,1] when similarity is in range.
func fuse(candidates []policy.Candidate, bm25 []float64, weight float64) {
	if len(candidates) == 0 || len(bm25) != len(candidates) {
		return
	}
	var maxBM25 float64
	for _, s := range bm25 {
		if s > maxBM25 {
			maxBM25 = s
		}
	}
	for i := range candidates {
		sim := candidates[i].Similarity
		if math.IsNaN(sim) {
			sim = 0
		}
		var norm float64
		if maxBM25 > 0 && bm25[i] > 0 {
			norm = bm25[i] / maxBM25
		}
		candidates[i].BM25Score = bm25[i]
		candidates[i].Score = (1-weight)*sim + weight*norm
	}
}

// sortCandidates orders by descending fused score, NaN scores last, stable
// among ties so the store's similarity order survives as tiebreak.
func sortCandidates(candidates []policy.Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		si, sj := candidates[i].Score, candidates[j].Score
		if math.IsNaN(si) {
			return false
		}
		if math.IsNaN(sj) {
			return true
		}
		return si > sj
	})
}
