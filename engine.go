// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package websearch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/poiesic/websearch/analysis"
	"github.com/poiesic/websearch/core"
	"github.com/poiesic/websearch/crawler"
	"github.com/poiesic/websearch/index"
	"github.com/poiesic/websearch/rank"
	"github.com/poiesic/websearch/search"
	"github.com/poiesic/websearch/storage"
	"github.com/poiesic/websearch/storage/badger"
)

// Engine ties the crawler, index, ranker, and search pipeline together over
// one storage backend. It is the single entry point for callers such as an
// HTTP route layer.
type Engine struct {
	backend      *badger.Backend
	docRepo      storage.DocumentRepository
	idxRepo      storage.IndexRepository
	authRepo     storage.AuthorityRepository
	frontierRepo storage.FrontierRepository
	idx          *index.Index
	normalizer   *analysis.Normalizer
	ranker       *rank.Ranker
	searcher     *search.Searcher
	scheduler    *crawler.Scheduler
	rankCfg      *rank.Config
	logger       *slog.Logger

	mu        sync.Mutex
	lastCrawl time.Time
	crawlDone chan struct{}
}

// Health is the liveness view of the engine for the excluded HTTP layer.
type Health struct {
	DocumentCount  uint64
	TermCount      uint64
	LastCrawlTime  time.Time
	IndexSizeBytes int64
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	crawlConfig  *crawler.Config
	rankConfig   *rank.Config
	searchConfig *search.Config
	language     string
	logger       *slog.Logger
	inMemory     bool
}

// WithCrawlConfig sets the crawl configuration. Default is crawler.DefaultConfig().
func WithCrawlConfig(cfg *crawler.Config) EngineOption {
	return func(o *engineOptions) {
		if cfg != nil {
			o.crawlConfig = cfg
		}
	}
}

// WithRankConfig sets the ranking configuration. Default is rank.DefaultConfig().
func WithRankConfig(cfg *rank.Config) EngineOption {
	return func(o *engineOptions) {
		if cfg != nil {
			o.rankConfig = cfg
		}
	}
}

// WithSearchConfig sets the query-serving configuration. Default is
// search.DefaultConfig().
func WithSearchConfig(cfg *search.Config) EngineOption {
	return func(o *engineOptions) {
		if cfg != nil {
			o.searchConfig = cfg
		}
	}
}

// WithLanguage sets the analyzer language. Default is "swedish".
func WithLanguage(language string) EngineOption {
	return func(o *engineOptions) {
		if language != "" {
			o.language = language
		}
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithInMemory keeps all storage in memory, primarily for tests.
func WithInMemory() EngineOption {
	return func(o *engineOptions) {
		o.inMemory = true
	}
}

// New opens (or creates) an engine at filePath and restores the index from
// the last complete snapshot. A snapshot that fails to decode is fatal: the
// engine refuses to serve rather than answer from corrupt data.
func New(filePath string, opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{
		crawlConfig:  crawler.DefaultConfig(),
		rankConfig:   rank.DefaultConfig(),
		searchConfig: search.DefaultConfig(),
		language:     "swedish",
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	docRepo, err := badger.NewDocumentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	idxRepo, err := badger.NewIndexRepository(backend)
	if err != nil {
		docRepo.Close()
		backend.Close()
		return nil, err
	}
	authRepo, err := badger.NewAuthorityRepository(backend)
	if err != nil {
		docRepo.Close()
		backend.Close()
		return nil, err
	}
	frontierRepo, err := badger.NewFrontierRepository(backend)
	if err != nil {
		docRepo.Close()
		backend.Close()
		return nil, err
	}

	normalizer, err := analysis.NewNormalizer(options.language)
	if err != nil {
		docRepo.Close()
		backend.Close()
		return nil, err
	}

	ctx := context.Background()

	idx, lastCrawl, err := index.Load(ctx, idxRepo, docRepo)
	if err != nil {
		docRepo.Close()
		backend.Close()
		return nil, err
	}

	ranker, err := rank.NewRanker(options.rankConfig)
	if err != nil {
		docRepo.Close()
		backend.Close()
		return nil, err
	}

	searcher, err := search.NewSearcher(docRepo, idx, ranker, normalizer, options.searchConfig,
		search.WithLogger(options.logger))
	if err != nil {
		docRepo.Close()
		backend.Close()
		return nil, err
	}

	e := &Engine{
		backend:      backend,
		docRepo:      docRepo,
		idxRepo:      idxRepo,
		authRepo:     authRepo,
		frontierRepo: frontierRepo,
		idx:          idx,
		normalizer:   normalizer,
		ranker:       ranker,
		searcher:     searcher,
		rankCfg:      options.rankConfig,
		logger:       options.logger,
		lastCrawl:    lastCrawl,
	}

	scheduler, err := crawler.NewScheduler(docRepo, frontierRepo, idx, normalizer, options.crawlConfig,
		crawler.WithLogger(options.logger),
		crawler.WithDrainedFunc(e.onCrawlDrained))
	if err != nil {
		docRepo.Close()
		backend.Close()
		return nil, err
	}
	e.scheduler = scheduler

	domainAuthority, err := authRepo.LoadTable(ctx)
	if err != nil {
		e.logger.Warn("failed to load domain authority table", "err", err)
	} else if len(domainAuthority) > 0 {
		searcher.SetDomainAuthority(domainAuthority)
	}

	if idx.DocCount() > 0 {
		if err := e.RecomputeAuthority(ctx); err != nil {
			e.logger.Warn("failed to compute link authority at startup", "err", err)
		}
	}

	return e, nil
}

// Search answers a query with up to maxResults ranked results and the
// elapsed query time.
func (e *Engine) Search(ctx context.Context, query string, maxResults int) ([]*core.QueryResult, time.Duration, error) {
	return e.searcher.Search(ctx, query, maxResults)
}

// Health reports index size and freshness.
func (e *Engine) Health() Health {
	e.mu.Lock()
	lastCrawl := e.lastCrawl
	e.mu.Unlock()

	return Health{
		DocumentCount:  e.idx.DocCount(),
		TermCount:      e.idx.TermCount(),
		LastCrawlTime:  lastCrawl,
		IndexSizeBytes: e.backend.SizeBytes(),
	}
}

// Stats reports rolling query-serving counters.
func (e *Engine) Stats() search.Stats {
	return e.searcher.Stats()
}

// StartCrawl begins crawling from the seed URLs.
func (e *Engine) StartCrawl(ctx context.Context, seedURLs []string) error {
	done := make(chan struct{})
	e.mu.Lock()
	prev := e.crawlDone
	e.crawlDone = done
	e.mu.Unlock()

	if err := e.scheduler.Start(ctx, seedURLs); err != nil {
		e.mu.Lock()
		e.crawlDone = prev
		e.mu.Unlock()
		return err
	}
	return nil
}

// RunCrawl crawls from the seed URLs and blocks until the frontier drains
// or ctx is cancelled, then stops the scheduler.
func (e *Engine) RunCrawl(ctx context.Context, seedURLs []string) error {
	if err := e.StartCrawl(ctx, seedURLs); err != nil {
		return err
	}

	e.mu.Lock()
	done := e.crawlDone
	e.mu.Unlock()

	var waitErr error
	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			waitErr = ctx.Err()
		}
	}
	if err := e.StopCrawl(context.Background()); err != nil && waitErr == nil {
		waitErr = err
	}
	return waitErr
}

// StopCrawl stops the crawl and checkpoints the remaining frontier.
func (e *Engine) StopCrawl(ctx context.Context) error {
	return e.scheduler.Stop(ctx)
}

// CrawlStatus reports the current (or most recent) crawl run.
func (e *Engine) CrawlStatus() crawler.Status {
	return e.scheduler.Status()
}

// RecomputeAuthority rebuilds the link graph from stored documents and runs
// the authority iteration in batch, swapping the scores into the searcher.
func (e *Engine) RecomputeAuthority(ctx context.Context) error {
	graph := rank.NewLinkGraph()

	err := e.docRepo.ForEachDocument(ctx, func(doc *core.Document) error {
		graph.AddNode(doc.Id)
		return nil
	})
	if err != nil {
		return err
	}
	err = e.docRepo.ForEachDocument(ctx, func(doc *core.Document) error {
		for _, link := range doc.OutboundLinks {
			normalized, err := core.NormalizeURL(link)
			if err != nil {
				continue
			}
			graph.AddEdge(doc.Id, core.IDFromURL(normalized))
		}
		return nil
	})
	if err != nil {
		return err
	}

	scores := rank.ComputeAuthority(graph, e.rankCfg.Damping, e.rankCfg.MaxIterations, e.rankCfg.ConvergenceEpsilon)
	e.searcher.SetAuthority(scores)
	e.logger.Debug("link authority recomputed", "nodes", graph.Len())
	return nil
}

// SetDomainAuthority persists and swaps in a new domain trust table.
func (e *Engine) SetDomainAuthority(ctx context.Context, table core.AuthorityTable) error {
	if err := e.authRepo.SaveTable(ctx, table); err != nil {
		return err
	}
	e.searcher.SetDomainAuthority(table)
	return nil
}

// Snapshot persists the index state changed since the last snapshot.
func (e *Engine) Snapshot(ctx context.Context) error {
	e.mu.Lock()
	lastCrawl := e.lastCrawl
	e.mu.Unlock()
	return e.idx.Snapshot(ctx, e.idxRepo, lastCrawl)
}

// onCrawlDrained runs when a crawl has no queued or in-flight work left:
// the index is snapshotted and link authority recomputed over the grown
// document set. crawlDone is signalled only after both finish, so a waiter
// that proceeds to Close never pulls the backend out from under this work.
func (e *Engine) onCrawlDrained() {
	e.mu.Lock()
	e.lastCrawl = time.Now().UTC()
	e.mu.Unlock()

	ctx := context.Background()
	if err := e.Snapshot(ctx); err != nil {
		e.logger.Error("index snapshot after crawl failed", "err", err)
	}
	if err := e.RecomputeAuthority(ctx); err != nil {
		e.logger.Error("authority recomputation after crawl failed", "err", err)
	}

	e.mu.Lock()
	if e.crawlDone != nil {
		close(e.crawlDone)
		e.crawlDone = nil
	}
	e.mu.Unlock()
}

// Close stops any running crawl, snapshots the index, and releases storage.
func (e *Engine) Close() error {
	if err := e.scheduler.Stop(context.Background()); err != nil && !errors.Is(err, crawler.ErrNotRunning) {
		e.logger.Error("error stopping crawl", "err", err)
	}
	e.scheduler.Release()

	if err := e.Snapshot(context.Background()); err != nil {
		e.logger.Error("error snapshotting index", "err", err)
	}

	if err := e.docRepo.Close(); err != nil {
		e.logger.Error("error closing document repository", "err", err)
		return err
	}
	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}
