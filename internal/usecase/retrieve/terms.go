package retrieve

import (
	"strings"

	"github.com/carewell-ai/polisearch/internal/domain/memory"
)

// extractLayerTerms folds the memory snapshot into the BM25 query-term
// multiset. Every token of a triple's object and code repeats weight(layer)
// times, so current-turn facts outweigh session context, which outweighs
// long-term memory, purely through term-frequency statistics. No stopword or
// length filtering here: the terms come from extracted facts, not free text.
func extractLayerTerms(mem memory.Snapshot, w memory.Weights) []string {
	var terms []string
	for _, layer := range []memory.Layer{memory.L0, memory.L1, memory.L2} {
		weight := w.For(layer)
		for _, tri := range mem.Layer(layer) {
			obj := strings.TrimSpace(tri.Object)
			code := strings.TrimSpace(tri.Code)
			if obj == "" && code == "" {
				continue
			}
			for _, tok := range tokenize(obj + " " + code) {
				for i := 0; i < weight; i++ {
					terms = append(terms, tok)
				}
			}
		}
	}
	return terms
}
