package retrieve

import (
	"strings"

	"github.com/carewell-ai/polisearch/internal/domain/memory"
	"github.com/carewell-ai/polisearch/internal/domain/profile"
)

// ragKeywords mark policy questions for the router fallback heuristic.
var ragKeywords = []string{"자격", "지원", "혜택", "대상", "요건", "급여", "본인부담"}

// decideUseRAG resolves whether document search runs this turn. An explicit
// router verdict wins; router info without a verdict falls back to scanning
// the query for policy markers; no router info at all always retrieves.
func decideUseRAG(router *RouterInfo, query string) bool {
	if router == nil {
		return true
	}
	if router.UseRAG != nil {
		return *router.UseRAG
	}
	text := strings.ToLower(query)
	for _, kw := range ragKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

const (
	// syntheticProbeMax is how many keywords the raw query may yield before
	// it is considered specific enough to embed unchanged.
	syntheticProbeMax = 4
	// syntheticMaxObjects caps the layered context objects folded into a
	// synthetic query.
	syntheticMaxObjects = 5

	recentContextLabel = "최근 상황: "
	domainAnchorSuffix = "관련 의료·복지 지원 정책"
)

// buildSearchQuery returns the text to embed. A query with extractable
// keywords is used as-is; a generic one is replaced by a synthetic query
// assembled from the profile summary and recent context objects, so the
// title-embedding search still has something to match on.
func buildSearchQuery(rawQuery string, prof *profile.Profile, mem memory.Snapshot) string {
	raw := strings.TrimSpace(rawQuery)
	if kws := extractKeywords(raw, syntheticProbeMax); len(kws) > 0 {
		return raw
	}

	var pieces []string
	if summary := prof.SummaryText(); summary != "" {
		pieces = append(pieces, summary)
	}
	if objs := recentObjects(mem, syntheticMaxObjects); len(objs) > 0 {
		pieces = append(pieces, recentContextLabel+strings.Join(objs, ", "))
	}
	if len(pieces) == 0 {
		return raw
	}

	pieces = append(pieces, domainAnchorSuffix)
	return strings.Join(pieces, " ")
}

// recentObjects gathers up to max distinct triple objects, current turn
// before session context. Long-term memory is excluded: a synthetic query
// should describe the user's present situation, not their history.
func recentObjects(mem memory.Snapshot, max int) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, layer := range [][]memory.Triple{mem.L0, mem.L1} {
		for _, tri := range layer {
			obj := strings.TrimSpace(tri.Object)
			if obj == "" {
				continue
			}
			if _, ok := seen[obj]; !ok {
				seen[obj] = struct{}{}
				out = append(out, obj)
			}
			if len(out) >= max {
				return out
			}
		}
	}
	return out
}
