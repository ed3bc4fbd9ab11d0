package retrieve

import "strings"

// regionSuffixes are administrative unit markers, district to city level.
var regionSuffixes = []string{"구", "군", "동", "시"}

// normalizeRegion reduces a possibly multi-token administrative string
// ("서울특별시 동작구") to its most specific unit ("동작구"). Korean
// addresses order units large to small, so the scan runs right to left and
// the first token ending in a recognized suffix wins. Without a recognized
// suffix the trimmed input is used unchanged; a blank input disables region
// filtering entirely.
func normalizeRegion(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	tokens := strings.Fields(trimmed)
	for i := len(tokens) - 1; i >= 0; i-- {
		for _, suffix := range regionSuffixes {
			if strings.HasSuffix(tokens[i], suffix) {
				return tokens[i]
			}
		}
	}
	return trimmed
}
