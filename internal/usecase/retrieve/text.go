package retrieve

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// tokenRe matches Hangul, Latin, and digit runs; everything else separates.
var tokenRe = regexp.MustCompile(`[가-힣A-Za-z0-9]+`)

// queryStopwords are fillers and particles common in Korean policy questions
// that carry no retrieval signal.
var queryStopwords = map[string]struct{}{
	"그리고": {}, "하지만": {}, "근데": {}, "혹시": {}, "만약": {},
	"받을": {}, "가능": {}, "문의": {}, "신청": {}, "여부": {},
	"있나요": {}, "해당": {}, "사용자": {}, "상태": {}, "현재": {},
	"질문": {}, "혜택": {}, "지원": {}, "정책": {}, "제가": {},
	"나는": {}, "저는": {}, "내가": {}, "궁금": {}, "궁금해요": {},
}

// tokenize returns the lowercased token runs of text.
func tokenize(text string) []string {
	if text == "" {
		return nil
	}
	tokens := tokenRe.FindAllString(text, -1)
	for i, t := range tokens {
		tokens[i] = strings.ToLower(t)
	}
	return tokens
}

// extractKeywords picks up to max salient keywords from text: tokens of at
// least two runes with stopwords removed, first occurrence preserved.
func extractKeywords(text string, max int) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, tok := range tokenize(text) {
		if utf8.RuneCountInString(tok) < 2 {
			continue
		}
		if _, ok := queryStopwords[tok]; ok {
			continue
		}
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
		if len(out) >= max {
			break
		}
	}
	return out
}
