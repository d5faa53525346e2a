package search

import (
	"strings"

	"github.com/poiesic/websearch/analysis"
	"github.com/poiesic/websearch/core"
)

// buildSnippet extracts a window of the document's stored excerpt around the
// first word matching a query term. When no stored word matches (the match
// may lie beyond the excerpt), the leading excerpt is used.
func buildSnippet(doc *core.Document, queryTerms []string, normalizer *analysis.Normalizer, maxRunes int) string {
	if doc.Excerpt == "" {
		return ""
	}

	termSet := make(map[string]struct{}, len(queryTerms))
	for _, term := range queryTerms {
		termSet[term] = struct{}{}
	}

	words := strings.Fields(doc.Excerpt)
	matchAt := -1
	for i, word := range words {
		for _, normalized := range normalizer.NormalizeTerms(word) {
			if _, ok := termSet[normalized]; ok {
				matchAt = i
				break
			}
		}
		if matchAt >= 0 {
			break
		}
	}

	if matchAt < 0 {
		return clipRunes(doc.Excerpt, maxRunes)
	}

	// Grow the window outward from the match until the budget is spent.
	start, end := matchAt, matchAt+1
	budget := maxRunes - len([]rune(words[matchAt]))
	for budget > 0 && (start > 0 || end < len(words)) {
		if start > 0 {
			start--
			budget -= len([]rune(words[start])) + 1
		}
		if budget > 0 && end < len(words) {
			budget -= len([]rune(words[end])) + 1
			end++
		}
	}

	snippet := strings.Join(words[start:end], " ")
	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(words) {
		snippet += "..."
	}
	return snippet
}

func clipRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
