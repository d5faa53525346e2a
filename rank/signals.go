package rank

import (
	"math"
	"time"

	"github.com/poiesic/websearch/core"
)

// Signals are the normalized per-document signal values, each in [0,1].
type Signals struct {
	TFIDF           float64
	LinkAuthority   float64
	DomainAuthority float64
	Recency         float64
	KeywordDensity  float64
	LinkStructure   float64
	Locale          float64
}

// weightedSum combines the signals into a score in [0,100].
func (s Signals) weightedSum(w Weights) float64 {
	return 100 * (w.TFIDF*s.TFIDF +
		w.LinkAuthority*s.LinkAuthority +
		w.DomainAuthority*s.DomainAuthority +
		w.Recency*s.Recency +
		w.KeywordDensity*s.KeywordDensity +
		w.LinkStructure*s.LinkStructure +
		w.Locale*s.Locale)
}

// tfidfSimilarity scores a document against the query's idf vector. Document
// term weights are length-normalized frequencies, so the result lies in
// [0,1], is non-negative, and grows with term frequency at fixed length.
// Terms appearing in most documents carry an idf of zero and contribute
// nothing.
func tfidfSimilarity(queryTerms []string, termFreqs map[string]uint32, docLength uint32, idf func(string) float64) float64 {
	if docLength == 0 {
		return 0
	}

	var dot, queryNorm float64
	for _, term := range queryTerms {
		weight := idf(term)
		if weight < 0 {
			weight = 0
		}
		queryNorm += weight * weight
		if tf, ok := termFreqs[term]; ok {
			dot += weight * weight * float64(tf) / float64(docLength)
		}
	}
	if queryNorm == 0 {
		return 0
	}
	return dot / queryNorm
}

// recency decays exponentially with document age.
func recency(fetchedAt, now time.Time, halfLifeDays float64) float64 {
	ageDays := now.Sub(fetchedAt).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	return math.Exp(-ageDays / halfLifeDays)
}

// keywordDensity is the matched-token fraction of the document, capped so
// keyword stuffing gains nothing past the cap, then rescaled to [0,1].
func keywordDensity(queryTerms []string, termFreqs map[string]uint32, docLength uint32, limit float64) float64 {
	if docLength == 0 {
		return 0
	}
	var matched uint64
	for _, term := range queryTerms {
		matched += uint64(termFreqs[term])
	}
	density := float64(matched) / float64(docLength)
	if density > limit {
		density = limit
	}
	return density / limit
}

// localeBoost grants the full signal to documents on a local top-level
// domain.
func localeBoost(url string, localTLDs []string) float64 {
	tld := core.TLDOf(url)
	for _, local := range localTLDs {
		if tld == local {
			return 1
		}
	}
	return 0
}
