package retrieve

import (
	"math"

	"github.com/carewell-ai/polisearch/internal/domain/policy"
)

// bm25Scores computes BM25 for each candidate against the layered term
// multiset. Statistics are candidate-set-local: document frequency and avgdl
// come from what vector search returned, not from the corpus, so IDF adapts
// to each request. A term with multiset multiplicity m contributes m times
// to both document frequency and the score sum. Returns nil when there is
// nothing to score; the caller then keeps the vector-only ordering.
func bm25Scores(candidates []policy.Candidate, terms []string, k1, b float64) []float64 {
	if len(candidates) == 0 || len(terms) == 0 {
		return nil
	}

	docTokens := make([][]string, len(candidates))
	docLens := make([]int, len(candidates))
	termDocFreq := make(map[string]int, len(terms))
	totalLen := 0

	for i, c := range candidates {
		tokens := tokenize(c.Title + " " + c.Requirements + " " + c.Benefits)
		docTokens[i] = tokens

		dl := len(tokens)
		if dl == 0 {
			dl = 1
		}
		docLens[i] = dl
		totalLen += dl

		contained := make(map[string]struct{}, len(tokens))
		for _, tok := range tokens {
			contained[tok] = struct{}{}
		}
		for _, t := range terms {
			if _, ok := contained[t]; ok {
				termDocFreq[t]++
			}
		}
	}

	n := float64(len(candidates))
	avgdl := float64(totalLen) / n

	queryTerms := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		queryTerms[t] = struct{}{}
	}

	scores := make([]float64, len(candidates))
	for i, tokens := range docTokens {
		tf := make(map[string]int)
		for _, tok := range tokens {
			if _, ok := queryTerms[tok]; ok {
				tf[tok]++
			}
		}

		dl := float64(docLens[i])
		var score float64
		for _, term := range terms {
			nqi := float64(termDocFreq[term])
			freq := float64(tf[term])
			if nqi == 0 || freq == 0 {
				continue
			}
			// (N-n+0.5)/(n+0.5)+1 == (N+1)/(n+0.5): the argument stays
			// positive even when the inflated document frequency exceeds N,
			// the log just goes negative for terms most candidates share.
			idf := math.Log((n-nqi+0.5)/(nqi+0.5) + 1)
			score += idf * (freq * (k1 + 1)) / (freq + k1*(1-b+b*dl/avgdl))
		}
		scores[i] = score
	}
	return scores
}
