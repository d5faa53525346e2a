package crawler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/websearch/analysis"
	"github.com/poiesic/websearch/core"
	"github.com/poiesic/websearch/index"
	"github.com/poiesic/websearch/storage"
	badgerstore "github.com/poiesic/websearch/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type crawlFixture struct {
	scheduler  *Scheduler
	idx        *index.Index
	docs       storage.DocumentRepository
	normalizer *analysis.Normalizer
	drained    chan struct{}
	cleanup    func()
}

func newCrawlFixture(t *testing.T, serverURL string) *crawlFixture {
	t.Helper()

	docRepo, _, backend, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	frontierRepo, err := badgerstore.NewFrontierRepository(backend)
	require.NoError(t, err)

	normalizer, err := analysis.NewNormalizer("swedish")
	require.NoError(t, err)

	parsed, err := url.Parse(serverURL)
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.AllowedDomains = []string{parsed.Hostname()}
	cfg.Concurrency = 2
	cfg.DomainDelay = time.Millisecond
	cfg.PagesPerMinute = 100000
	cfg.FetchTimeout = 2 * time.Second
	cfg.RetryBaseDelay = 5 * time.Millisecond

	idx := index.New()
	drained := make(chan struct{}, 8)

	scheduler, err := NewScheduler(docRepo, frontierRepo, idx, normalizer, cfg,
		WithDrainedFunc(func() { drained <- struct{}{} }))
	require.NoError(t, err)

	return &crawlFixture{
		scheduler:  scheduler,
		idx:        idx,
		docs:       docRepo,
		normalizer: normalizer,
		drained:    drained,
		cleanup: func() {
			scheduler.Release()
			docRepo.Close()
			backend.Close()
		},
	}
}

func (fx *crawlFixture) runCrawl(t *testing.T, seeds []string) {
	t.Helper()
	require.NoError(t, fx.scheduler.Start(context.Background(), seeds))
	select {
	case <-fx.drained:
	case <-time.After(10 * time.Second):
		t.Fatal("crawl did not drain")
	}
	require.NoError(t, fx.scheduler.Stop(context.Background()))
}

func siteHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("User-agent: *\nDisallow: /hemlig/\n"))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Start</title></head><body>
universitet stockholm
<a href="/studenter">Studenter</a>
<a href="/forskning">Forskning</a>
<a href="/hemlig/arkiv">Arkiv</a>
</body></html>`))
	})
	mux.HandleFunc("/studenter", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Studenter</title></head><body>universitet uppsala studenter</body></html>`))
	})
	mux.HandleFunc("/forskning", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Forskning</title></head><body>forskning vid universitet</body></html>`))
	})
	mux.HandleFunc("/hemlig/arkiv", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>hemligt innehåll</body></html>`))
	})
	return mux
}

func TestScheduler_EndToEnd(t *testing.T) {
	server := httptest.NewServer(siteHandler())
	defer server.Close()

	fx := newCrawlFixture(t, server.URL)
	defer fx.cleanup()

	fx.runCrawl(t, []string{server.URL})

	t.Run("pages indexed", func(t *testing.T) {
		count, err := fx.docs.CountDocuments(context.Background())
		require.NoError(t, err)
		assert.Equal(t, uint64(3), count, "root, studenter, forskning")
		assert.Equal(t, uint64(3), fx.idx.DocCount())
	})

	t.Run("robots disallow is honored", func(t *testing.T) {
		normalized, err := core.NormalizeURL(server.URL + "/hemlig/arkiv")
		require.NoError(t, err)
		_, err = fx.docs.GetDocumentByURL(context.Background(), normalized)
		assert.Error(t, err)
	})

	t.Run("query terms resolve through the same normalizer", func(t *testing.T) {
		terms := fx.normalizer.NormalizeTerms("universitet")
		require.Len(t, terms, 1)
		assert.Len(t, fx.idx.Postings(terms[0]), 3)
	})

	t.Run("status counters", func(t *testing.T) {
		status := fx.scheduler.Status()
		assert.False(t, status.Running)
		assert.Equal(t, uint64(3), status.Indexed)
		assert.GreaterOrEqual(t, status.Skipped, uint64(1), "the robots-disallowed page")
	})
}

func TestScheduler_UnchangedContentTouchesOnly(t *testing.T) {
	server := httptest.NewServer(siteHandler())
	defer server.Close()

	fx := newCrawlFixture(t, server.URL)
	defer fx.cleanup()

	fx.runCrawl(t, []string{server.URL})

	normalized, err := core.NormalizeURL(server.URL)
	require.NoError(t, err)
	before, err := fx.docs.GetDocumentByURL(context.Background(), normalized)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	fx.runCrawl(t, []string{server.URL})

	after, err := fx.docs.GetDocumentByURL(context.Background(), normalized)
	require.NoError(t, err)

	assert.Equal(t, before.ContentHash, after.ContentHash)
	assert.True(t, after.FetchedAt.After(before.FetchedAt), "fetched_at must advance on re-crawl")
	assert.Equal(t, uint64(3), fx.idx.DocCount(), "no index growth on unchanged content")

	status := fx.scheduler.Status()
	assert.Equal(t, uint64(3), status.Unchanged)
	assert.Equal(t, uint64(0), status.Indexed)
}

func TestScheduler_FailedFetchDoesNotBlockOthers(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>start <a href="/borta">Borta</a> <a href="/kvar">Kvar</a></body></html>`))
	})
	mux.HandleFunc("/borta", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/kvar", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>kvarvarande sida</body></html>`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	fx := newCrawlFixture(t, server.URL)
	defer fx.cleanup()

	fx.runCrawl(t, []string{server.URL})

	status := fx.scheduler.Status()
	assert.Equal(t, uint64(1), status.Failed, "the 404 page")
	assert.Equal(t, uint64(2), status.Indexed, "root and /kvar")
}

func TestScheduler_StartTwiceFails(t *testing.T) {
	server := httptest.NewServer(siteHandler())
	defer server.Close()

	fx := newCrawlFixture(t, server.URL)
	defer fx.cleanup()

	require.NoError(t, fx.scheduler.Start(context.Background(), []string{server.URL}))
	err := fx.scheduler.Start(context.Background(), []string{server.URL})
	assert.ErrorIs(t, err, ErrAlreadyRunning)
	require.NoError(t, fx.scheduler.Stop(context.Background()))
}

func TestScheduler_StopWithoutStart(t *testing.T) {
	server := httptest.NewServer(siteHandler())
	defer server.Close()

	fx := newCrawlFixture(t, server.URL)
	defer fx.cleanup()

	assert.ErrorIs(t, fx.scheduler.Stop(context.Background()), ErrNotRunning)
}

func TestScheduler_StopWaitsForDrainedCallback(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Start</title></head><body>universitet</body></html>`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	docRepo, _, backend, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()
	defer docRepo.Close()
	frontierRepo, err := badgerstore.NewFrontierRepository(backend)
	require.NoError(t, err)

	normalizer, err := analysis.NewNormalizer("swedish")
	require.NoError(t, err)

	parsed, err := url.Parse(server.URL)
	require.NoError(t, err)
	cfg := DefaultConfig()
	cfg.AllowedDomains = []string{parsed.Hostname()}
	cfg.DomainDelay = time.Millisecond
	cfg.PagesPerMinute = 100000

	started := make(chan struct{})
	var finished atomic.Bool
	scheduler, err := NewScheduler(docRepo, frontierRepo, index.New(), normalizer, cfg,
		WithDrainedFunc(func() {
			close(started)
			time.Sleep(100 * time.Millisecond)
			finished.Store(true)
		}))
	require.NoError(t, err)
	defer scheduler.Release()

	require.NoError(t, scheduler.Start(context.Background(), []string{server.URL}))
	select {
	case <-started:
	case <-time.After(10 * time.Second):
		t.Fatal("crawl did not drain")
	}
	require.NoError(t, scheduler.Stop(context.Background()))
	assert.True(t, finished.Load(), "Stop returned before the drained callback finished")
}

func TestScheduler_MarkupOnlyChangeIsUnchanged(t *testing.T) {
	var hits atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.Write([]byte(`<html><head><title>Start</title></head><body><p>universitet stockholm</p></body></html>`))
			return
		}
		// Same text, reshuffled markup.
		w.Write([]byte(`<html><head><title>Start</title></head><body class="v2"><div><p>universitet stockholm</p></div></body></html>`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	fx := newCrawlFixture(t, server.URL)
	defer fx.cleanup()

	fx.runCrawl(t, []string{server.URL})
	fx.runCrawl(t, []string{server.URL})

	status := fx.scheduler.Status()
	assert.Equal(t, uint64(1), status.Unchanged, "markup churn with identical text is no content change")
	assert.Equal(t, uint64(0), status.Indexed)
	assert.Equal(t, uint64(1), fx.idx.DocCount())
}
