package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/websearch/analysis"
	"github.com/poiesic/websearch/core"
	"github.com/poiesic/websearch/index"
	"github.com/poiesic/websearch/rank"
	"github.com/poiesic/websearch/storage"
	badgerstore "github.com/poiesic/websearch/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingMonitor records which pipeline stages ran.
type countingMonitor struct {
	cacheHits int
	rankings  int
}

func (m *countingMonitor) Start(_ string)                                {}
func (m *countingMonitor) AfterNormalize(_ []string)                     {}
func (m *countingMonitor) CacheHit(_ string)                             { m.cacheHits++ }
func (m *countingMonitor) AfterCandidateGathering(_ int)                 {}
func (m *countingMonitor) AfterRanking(_ int)                            { m.rankings++ }
func (m *countingMonitor) Finish(_ []*core.QueryResult, _ time.Duration) {}

type searchFixture struct {
	searcher   *Searcher
	idx        *index.Index
	docs       storage.DocumentRepository
	normalizer *analysis.Normalizer
	cleanup    func()
}

func newSearchFixture(t *testing.T, cfg *Config) *searchFixture {
	t.Helper()

	docRepo, _, backend, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)

	normalizer, err := analysis.NewNormalizer("swedish")
	require.NoError(t, err)

	ranker, err := rank.NewRanker(nil)
	require.NoError(t, err)

	idx := index.New()
	searcher, err := NewSearcher(docRepo, idx, ranker, normalizer, cfg)
	require.NoError(t, err)

	return &searchFixture{
		searcher:   searcher,
		idx:        idx,
		docs:       docRepo,
		normalizer: normalizer,
		cleanup: func() {
			docRepo.Close()
			backend.Close()
		},
	}
}

func (fx *searchFixture) addDoc(t *testing.T, url, text string) *core.Document {
	t.Helper()
	tokens := fx.normalizer.Normalize(text)
	doc := &core.Document{
		Id:          core.IDFromURL(url),
		URL:         url,
		Title:       "titel",
		Domain:      core.DomainOf(url),
		Excerpt:     text,
		FetchedAt:   time.Now().UTC().Truncate(time.Microsecond),
		ContentHash: core.HashContent(text),
		TermCount:   uint32(len(tokens)),
	}
	require.NoError(t, fx.docs.PutDocuments(context.Background(), doc))
	fx.idx.Add(doc, tokens)
	return doc
}

func TestSearcher_EndToEnd(t *testing.T) {
	fx := newSearchFixture(t, nil)
	defer fx.cleanup()

	a := fx.addDoc(t, "https://a.se", "universitet stockholm")
	b := fx.addDoc(t, "https://b.se", "universitet uppsala")

	results, elapsed, err := fx.searcher.Search(context.Background(), "universitet", 10)
	require.NoError(t, err)
	require.Len(t, results, 2, "both documents match")
	assert.Greater(t, elapsed, time.Duration(0))

	domains := map[core.ID]string{a.Id: "a.se", b.Id: "b.se"}
	seen := make(map[string]int)
	for i, r := range results {
		assert.Equal(t, i+1, r.Rank)
		assert.GreaterOrEqual(t, r.Score, 0.0)
		assert.LessOrEqual(t, r.Score, 100.0)
		seen[domains[r.DocId]]++
	}
	assert.Equal(t, 1, seen["a.se"], "each domain appears once")
	assert.Equal(t, 1, seen["b.se"])
}

func TestSearcher_OrSemantics(t *testing.T) {
	fx := newSearchFixture(t, nil)
	defer fx.cleanup()

	fx.addDoc(t, "https://a.se", "universitet stockholm")
	fx.addDoc(t, "https://b.se", "forskning uppsala")

	// One term per document: union, not intersection.
	results, _, err := fx.searcher.Search(context.Background(), "universitet forskning", 10)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearcher_SnippetsContainMatch(t *testing.T) {
	fx := newSearchFixture(t, nil)
	defer fx.cleanup()

	fx.addDoc(t, "https://a.se", "Stockholms universitet grundades år 1878 och har många studenter.")

	results, _, err := fx.searcher.Search(context.Background(), "universitet", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Snippet, "universitet")
}

func TestSearcher_NoMatches(t *testing.T) {
	fx := newSearchFixture(t, nil)
	defer fx.cleanup()

	fx.addDoc(t, "https://a.se", "universitet stockholm")

	results, _, err := fx.searcher.Search(context.Background(), "kvantfysik", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearcher_EmptyQuery(t *testing.T) {
	fx := newSearchFixture(t, nil)
	defer fx.cleanup()

	results, _, err := fx.searcher.Search(context.Background(), "   ", 10)
	require.NoError(t, err)
	assert.Empty(t, results)

	_, _, err = fx.searcher.Search(context.Background(), "universitet", 0)
	assert.ErrorIs(t, err, ErrInvalidMaxResults)
}

func TestSearcher_CacheHitSkipsRanking(t *testing.T) {
	fx := newSearchFixture(t, nil)
	defer fx.cleanup()

	fx.addDoc(t, "https://a.se", "universitet stockholm")

	monitor := &countingMonitor{}
	first, _, err := fx.searcher.SearchWithMonitor(context.Background(), "universitet", 10, monitor)
	require.NoError(t, err)
	assert.Equal(t, 1, monitor.rankings)
	assert.Equal(t, 0, monitor.cacheHits)

	second, _, err := fx.searcher.SearchWithMonitor(context.Background(), "Universitet", 10, monitor)
	require.NoError(t, err)
	assert.Equal(t, 1, monitor.rankings, "cached query must not re-rank")
	assert.Equal(t, 1, monitor.cacheHits)
	assert.Equal(t, first, second, "identical result set from cache")
}

func TestSearcher_CacheExpiryRecomputes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CacheTTL = 30 * time.Millisecond
	fx := newSearchFixture(t, cfg)
	defer fx.cleanup()

	fx.addDoc(t, "https://a.se", "universitet stockholm")

	monitor := &countingMonitor{}
	_, _, err := fx.searcher.SearchWithMonitor(context.Background(), "universitet", 10, monitor)
	require.NoError(t, err)

	time.Sleep(60 * time.Millisecond)

	_, _, err = fx.searcher.SearchWithMonitor(context.Background(), "universitet", 10, monitor)
	require.NoError(t, err)
	assert.Equal(t, 2, monitor.rankings, "expired entry forces a fresh computation")
	assert.Equal(t, 0, monitor.cacheHits)
}

func TestSearcher_AuthoritySwapPurgesCache(t *testing.T) {
	fx := newSearchFixture(t, nil)
	defer fx.cleanup()

	doc := fx.addDoc(t, "https://a.se", "universitet stockholm")

	_, _, err := fx.searcher.Search(context.Background(), "universitet", 10)
	require.NoError(t, err)
	assert.Equal(t, 1, fx.searcher.CacheLen())

	fx.searcher.SetAuthority(map[core.ID]float64{doc.Id: 1.0})
	assert.Equal(t, 0, fx.searcher.CacheLen())

	monitor := &countingMonitor{}
	results, _, err := fx.searcher.SearchWithMonitor(context.Background(), "universitet", 10, monitor)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1, monitor.rankings)
}

func TestSearcher_CandidateCap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxCandidates = 2
	fx := newSearchFixture(t, cfg)
	defer fx.cleanup()

	// The two documents repeating the term most survive the cap.
	fx.addDoc(t, "https://a.se", "universitet")
	fx.addDoc(t, "https://b.se", "universitet universitet universitet")
	fx.addDoc(t, "https://c.se", "universitet universitet")

	results, _, err := fx.searcher.Search(context.Background(), "universitet", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)

	got := map[core.ID]struct{}{results[0].DocId: {}, results[1].DocId: {}}
	assert.Contains(t, got, core.IDFromURL("https://b.se"))
	assert.Contains(t, got, core.IDFromURL("https://c.se"))
}

func TestSearcher_StatsCount(t *testing.T) {
	fx := newSearchFixture(t, nil)
	defer fx.cleanup()

	fx.addDoc(t, "https://a.se", "universitet stockholm")

	for i := 0; i < 3; i++ {
		_, _, err := fx.searcher.Search(context.Background(), "universitet", 10)
		require.NoError(t, err)
	}

	stats := fx.searcher.Stats()
	assert.Equal(t, uint64(3), stats.QueriesToday)
	assert.Greater(t, stats.QueriesPerSecond, 0.0)
}

// failingDocs breaks GetDocuments while delegating everything else.
type failingDocs struct {
	storage.DocumentRepository
}

var errStorageDown = errors.New("storage down")

func (d *failingDocs) GetDocuments(context.Context, ...core.ID) ([]*core.Document, error) {
	return nil, errStorageDown
}

func TestSearcher_StorageErrorSurfacedAsItself(t *testing.T) {
	fx := newSearchFixture(t, nil)
	defer fx.cleanup()

	fx.addDoc(t, "https://a.se", "universitet stockholm")

	ranker, err := rank.NewRanker(nil)
	require.NoError(t, err)
	searcher, err := NewSearcher(&failingDocs{fx.docs}, fx.idx, ranker, fx.normalizer, nil)
	require.NoError(t, err)

	_, _, err = searcher.Search(context.Background(), "universitet", 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, errStorageDown)
	assert.NotErrorIs(t, err, ErrQueryTimeout)
}
