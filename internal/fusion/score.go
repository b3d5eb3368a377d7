// Package fusion merges local similarity hits and web search results
// into one ranked list.
package fusion

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

const fuzzyWindowChars = 1000

// Relevance scores how well a query matches a title/body pair, in
// [0, 1]. Exact phrase match in the title wins outright, then in the
// body; otherwise a blend of term coverage, term frequency and fuzzy
// similarity over the leading text.
func Relevance(query, body, title string) float64 {
	q := strings.ToLower(strings.TrimSpace(query))
	lowerTitle := strings.ToLower(title)
	lowerBody := strings.ToLower(body)

	if strings.Contains(lowerTitle, q) {
		return 1.0
	}
	if strings.Contains(lowerBody, q) {
		return 0.95
	}

	terms := distinctTerms(q)
	if len(terms) == 0 {
		return 0
	}
	combined := lowerTitle + " " + lowerBody
	words := make(map[string]struct{})
	for _, w := range strings.Fields(combined) {
		words[w] = struct{}{}
	}

	// Coverage counts whole-word matches only; frequency still counts
	// every occurrence, substrings included.
	found := 0
	occurrences := 0
	for _, term := range terms {
		if _, ok := words[term]; ok {
			found++
		}
		occurrences += strings.Count(combined, term)
	}
	coverage := float64(found) / float64(len(terms))
	frequency := float64(occurrences) / float64(len(terms)*3)
	if frequency > 1 {
		frequency = 1
	}
	fuzzy := sequenceSimilarity(q, truncateRunes(combined, fuzzyWindowChars))

	score := 0.5*coverage + 0.3*frequency + 0.2*fuzzy
	if score > 1 {
		score = 1
	}
	return score
}

func distinctTerms(query string) []string {
	seen := make(map[string]struct{})
	var terms []string
	for _, term := range strings.Fields(query) {
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}
		terms = append(terms, term)
	}
	return terms
}

// sequenceSimilarity is the classic diff ratio: twice the matched
// character count over the combined length.
func sequenceSimilarity(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(a, b, false)
	common := 0
	for _, d := range diffs {
		if d.Type == diffmatchpatch.DiffEqual {
			common += len(d.Text)
		}
	}
	return 2 * float64(common) / float64(len(a)+len(b))
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
