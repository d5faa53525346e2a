package rank

import (
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/poiesic/websearch/core"
)

// Candidate is a document under consideration for a query, with the
// per-term frequencies gathered from the index's postings.
type Candidate struct {
	Doc       *core.Document
	TermFreqs map[string]uint32
}

// Scored is a ranked candidate.
type Scored struct {
	Doc     *core.Document
	Score   float64
	Signals Signals
}

// Ranker turns candidates into a deterministically ordered result list.
type Ranker struct {
	cfg    *Config
	logger *slog.Logger
}

// RankerOption configures a Ranker.
type RankerOption func(*Ranker)

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) RankerOption {
	return func(r *Ranker) {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
	}
}

// NewRanker creates a Ranker. A nil config uses DefaultConfig.
func NewRanker(cfg *Config, opts ...RankerOption) (*Ranker, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &Ranker{cfg: cfg, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Rank scores every candidate and returns them ordered by score descending.
// Candidates whose scores differ by less than the configured epsilon are
// ordered by document ID ascending, so identical inputs always produce
// identical output.
//
// authority holds link-graph scores (normalized here against the largest
// value); domainAuthority holds static per-domain trust in [0,100]. idf maps
// a term to its inverse document frequency.
func (r *Ranker) Rank(
	queryTerms []string,
	candidates []*Candidate,
	authority map[core.ID]float64,
	domainAuthority core.AuthorityTable,
	idf func(string) float64,
	now time.Time,
) []Scored {
	maxAuthority := 0.0
	for _, score := range authority {
		if score > maxAuthority {
			maxAuthority = score
		}
	}

	scored := make([]Scored, 0, len(candidates))
	for _, c := range candidates {
		signals := Signals{
			TFIDF:          tfidfSimilarity(queryTerms, c.TermFreqs, c.Doc.TermCount, idf),
			Recency:        recency(c.Doc.FetchedAt, now, r.cfg.RecencyHalfLifeDays),
			KeywordDensity: keywordDensity(queryTerms, c.TermFreqs, c.Doc.TermCount, r.cfg.DensityCap),
			LinkStructure:  c.Doc.InternalLinkRatio(),
			Locale:         localeBoost(c.Doc.URL, r.cfg.LocalTLDs),
		}
		if maxAuthority > 0 {
			signals.LinkAuthority = authority[c.Doc.Id] / maxAuthority
		}
		if trust, ok := domainAuthority[c.Doc.Domain]; ok {
			signals.DomainAuthority = trust / 100
		}

		scored = append(scored, Scored{
			Doc:     c.Doc,
			Score:   signals.weightedSum(r.cfg.Weights),
			Signals: signals,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if math.Abs(scored[i].Score-scored[j].Score) < r.cfg.ScoreEpsilon {
			return scored[i].Doc.Id < scored[j].Doc.Id
		}
		return scored[i].Score > scored[j].Score
	})

	return scored
}
