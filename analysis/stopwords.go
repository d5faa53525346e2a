package analysis

// Stop words filtered out during normalization, keyed by language.
// Lists are intentionally small: aggressive stop-word removal hurts recall
// for short queries.
var stopWords = map[string]map[string]struct{}{
	LanguageEnglish: toSet([]string{
		"the", "a", "an", "be", "is", "are", "was", "were", "to", "of",
		"and", "or", "in", "that", "have", "has", "it", "for", "not",
		"on", "with", "as", "you", "do", "at", "this", "but", "by",
		"from", "they", "we", "his", "her", "its", "their",
	}),
	LanguageSwedish: toSet([]string{
		"och", "det", "att", "i", "en", "ett", "jag", "hon", "han",
		"som", "den", "med", "var", "sig", "för", "så", "till", "är",
		"men", "om", "hade", "de", "av", "icke", "inte", "har",
		"eller", "vad", "från", "ut", "när", "efter", "upp", "vi",
		"dem", "vara", "på", "än", "kan", "sina", "här", "ha",
	}),
}

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
