package search

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/poiesic/websearch/analysis"
	"github.com/poiesic/websearch/core"
	"github.com/poiesic/websearch/index"
	"github.com/poiesic/websearch/rank"
	"github.com/poiesic/websearch/storage"
)

// Searcher serves queries over the inverted index. It is safe for
// concurrent use; each query runs independently of crawl workers and of
// other queries.
type Searcher struct {
	docs       storage.DocumentRepository
	idx        *index.Index
	ranker     *rank.Ranker
	normalizer *analysis.Normalizer
	cache      *ResultCache
	cfg        *Config
	logger     *slog.Logger
	stats      *statsRecorder

	// authMu guards the two authority structures, which are replaced
	// wholesale; readers never observe a partial update.
	authMu          sync.RWMutex
	authority       map[core.ID]float64
	domainAuthority core.AuthorityTable
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a searcher. A nil config uses DefaultConfig.
func NewSearcher(
	docs storage.DocumentRepository,
	idx *index.Index,
	ranker *rank.Ranker,
	normalizer *analysis.Normalizer,
	cfg *Config,
	opts ...Option,
) (*Searcher, error) {
	if docs == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if idx == nil {
		return nil, ErrIndexRequired
	}
	if ranker == nil {
		return nil, ErrRankerRequired
	}
	if normalizer == nil {
		return nil, ErrNormalizerRequired
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Searcher{
		docs:       docs,
		idx:        idx,
		ranker:     ranker,
		normalizer: normalizer,
		cache:      NewResultCache(cfg.CacheCapacity, cfg.CacheTTL),
		cfg:        cfg,
		logger:     slog.Default(),
		stats:      newStatsRecorder(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// SetAuthority replaces the link-graph authority scores in one swap.
func (s *Searcher) SetAuthority(scores map[core.ID]float64) {
	s.authMu.Lock()
	s.authority = scores
	s.authMu.Unlock()
	s.cache.Purge()
}

// SetDomainAuthority replaces the domain trust table in one swap.
func (s *Searcher) SetDomainAuthority(table core.AuthorityTable) {
	s.authMu.Lock()
	s.domainAuthority = table
	s.authMu.Unlock()
	s.cache.Purge()
}

// Stats returns the rolling query-serving statistics.
func (s *Searcher) Stats() Stats {
	return s.stats.snapshot(time.Now())
}

// CacheLen returns the number of live cached result sets.
func (s *Searcher) CacheLen() int {
	return s.cache.Len()
}

// Search answers a query with up to maxResults ranked results and the time
// the query took. A query over the latency budget returns the partial
// results computed so far together with ErrQueryTimeout.
func (s *Searcher) Search(ctx context.Context, query string, maxResults int) ([]*core.QueryResult, time.Duration, error) {
	return s.SearchWithMonitor(ctx, query, maxResults, nil)
}

// SearchWithMonitor is Search with stage callbacks for instrumentation.
func (s *Searcher) SearchWithMonitor(ctx context.Context, query string, maxResults int, monitor SearchMonitor) ([]*core.QueryResult, time.Duration, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if maxResults < 1 {
		return nil, 0, ErrInvalidMaxResults
	}

	start := time.Now()
	monitor.Start(query)

	ctx, cancel := context.WithTimeout(ctx, s.cfg.QueryTimeout)
	defer cancel()

	terms := s.normalizer.NormalizeTerms(query)
	monitor.AfterNormalize(terms)
	if len(terms) == 0 {
		elapsed := time.Since(start)
		s.stats.record(elapsed, time.Now())
		return []*core.QueryResult{}, elapsed, nil
	}

	key := cacheKey(terms, maxResults)
	if cached, ok := s.cache.Get(key); ok {
		monitor.CacheHit(key)
		elapsed := time.Since(start)
		s.stats.record(elapsed, time.Now())
		monitor.Finish(cached, elapsed)
		return cached, elapsed, nil
	}

	candidates, err := s.gatherCandidates(ctx, terms)
	if err != nil {
		if ctx.Err() != nil {
			return s.finishTimeout(nil, start, monitor)
		}
		// Storage failures are not timeouts: surface them as they are.
		elapsed := time.Since(start)
		s.stats.record(elapsed, time.Now())
		monitor.Finish(nil, elapsed)
		return nil, elapsed, err
	}
	monitor.AfterCandidateGathering(len(candidates))

	if len(candidates) == 0 {
		elapsed := time.Since(start)
		s.stats.record(elapsed, time.Now())
		monitor.Finish([]*core.QueryResult{}, elapsed)
		return []*core.QueryResult{}, elapsed, nil
	}

	s.authMu.RLock()
	authority := s.authority
	domainAuthority := s.domainAuthority
	s.authMu.RUnlock()

	ranked := s.ranker.Rank(terms, candidates, authority, domainAuthority, s.idx.IDF, time.Now())
	monitor.AfterRanking(len(ranked))

	diversified := s.ranker.Diversify(ranked, maxResults)

	results := make([]*core.QueryResult, 0, len(diversified))
	timedOut := false
	for i, scored := range diversified {
		if ctx.Err() != nil {
			timedOut = true
			break
		}
		results = append(results, &core.QueryResult{
			Rank:    i + 1,
			DocId:   scored.Doc.Id,
			URL:     scored.Doc.URL,
			Title:   scored.Doc.Title,
			Snippet: buildSnippet(scored.Doc, terms, s.normalizer, s.cfg.SnippetLength),
			Score:   scored.Score,
		})
	}
	if timedOut {
		return s.finishTimeout(results, start, monitor)
	}

	s.cache.Add(key, results)

	elapsed := time.Since(start)
	s.stats.record(elapsed, time.Now())
	monitor.Finish(results, elapsed)
	return results, elapsed, nil
}

// finishTimeout reports a query that ran over budget. Partial results are
// returned but never cached.
func (s *Searcher) finishTimeout(partial []*core.QueryResult, start time.Time, monitor SearchMonitor) ([]*core.QueryResult, time.Duration, error) {
	elapsed := time.Since(start)
	s.stats.record(elapsed, time.Now())
	monitor.Finish(partial, elapsed)
	s.logger.Warn("query exceeded latency budget", "elapsed", elapsed, "partialResults", len(partial))
	return partial, elapsed, ErrQueryTimeout
}

// gatherCandidates unions the postings of every query term (OR semantics)
// and loads the matching documents. Oversized candidate sets are capped to
// the top MaxCandidates by raw matched term frequency before ranking.
func (s *Searcher) gatherCandidates(ctx context.Context, terms []string) ([]*rank.Candidate, error) {
	freqs := make(map[core.ID]map[string]uint32)
	seen := make(map[string]struct{}, len(terms))
	for _, term := range terms {
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, posting := range s.idx.Postings(term) {
			byTerm, ok := freqs[posting.DocId]
			if !ok {
				byTerm = make(map[string]uint32, len(terms))
				freqs[posting.DocId] = byTerm
			}
			byTerm[term] = posting.Frequency()
		}
	}

	ids := make([]core.ID, 0, len(freqs))
	for id := range freqs {
		ids = append(ids, id)
	}

	if len(ids) > s.cfg.MaxCandidates {
		sort.Slice(ids, func(i, j int) bool {
			ti, tj := totalFrequency(freqs[ids[i]]), totalFrequency(freqs[ids[j]])
			if ti == tj {
				return ids[i] < ids[j]
			}
			return ti > tj
		})
		ids = ids[:s.cfg.MaxCandidates]
	}

	docs, err := s.docs.GetDocuments(ctx, ids...)
	if err != nil {
		return nil, err
	}

	candidates := make([]*rank.Candidate, 0, len(docs))
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		candidates = append(candidates, &rank.Candidate{
			Doc:       doc,
			TermFreqs: freqs[doc.Id],
		})
	}
	return candidates, nil
}

func totalFrequency(byTerm map[string]uint32) uint64 {
	var total uint64
	for _, tf := range byTerm {
		total += uint64(tf)
	}
	return total
}

func cacheKey(terms []string, maxResults int) string {
	return strconv.Itoa(maxResults) + "|" + strings.Join(terms, " ")
}
