package crawler

import (
	"context"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/websearch/analysis"
	"github.com/poiesic/websearch/core"
	"github.com/poiesic/websearch/index"
	"github.com/poiesic/websearch/storage"
	"golang.org/x/time/rate"
)

// Status is a point-in-time snapshot of a crawl run.
type Status struct {
	Running   bool
	StartedAt time.Time
	Queued    int
	Fetched   uint64
	Indexed   uint64
	Unchanged uint64
	Skipped   uint64
	Failed    uint64
}

// Scheduler runs the crawl: it drains the frontier with a worker pool,
// fetches through the politeness gate, detects unchanged content by hash,
// and hands new or changed documents to the index.
//
// Each frontier entry moves Queued -> Fetching -> Indexed, Skipped, or
// Failed; worker failures are counted and logged, never fatal.
type Scheduler struct {
	cfg          *Config
	docs         storage.DocumentRepository
	frontierRepo storage.FrontierRepository
	idx          *index.Index
	normalizer   *analysis.Normalizer
	fetcher      *Fetcher
	gate         *Gate
	limiter      *rate.Limiter
	pool         *ants.Pool
	logger       *slog.Logger
	onDrained    func()

	allowed map[string]struct{}

	mu          sync.Mutex
	running     bool
	cancel      context.CancelFunc
	frontier    *Frontier
	wg          sync.WaitGroup
	workerWG    sync.WaitGroup
	inflight    int
	drained     bool
	startedAt   time.Time
	fetched     uint64
	indexed     uint64
	unchanged   uint64
	skipped     uint64
	failed      uint64
	domainPages map[string]int
	totalPages  int
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler) error

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) SchedulerOption {
	return func(s *Scheduler) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithFetcher replaces the fetcher, primarily for tests.
func WithFetcher(fetcher *Fetcher) SchedulerOption {
	return func(s *Scheduler) error {
		if fetcher != nil {
			s.fetcher = fetcher
		}
		return nil
	}
}

// WithGate replaces the politeness gate, primarily for tests.
func WithGate(gate *Gate) SchedulerOption {
	return func(s *Scheduler) error {
		if gate != nil {
			s.gate = gate
		}
		return nil
	}
}

// WithDrainedFunc registers a callback invoked once per run when the
// frontier empties and no fetches are in flight.
func WithDrainedFunc(fn func()) SchedulerOption {
	return func(s *Scheduler) error {
		s.onDrained = fn
		return nil
	}
}

// NewScheduler creates a crawl scheduler. The caller retains ownership of
// the repositories and index; the scheduler owns its worker pool until
// Release.
func NewScheduler(
	docs storage.DocumentRepository,
	frontierRepo storage.FrontierRepository,
	idx *index.Index,
	normalizer *analysis.Normalizer,
	cfg *Config,
	opts ...SchedulerOption,
) (*Scheduler, error) {
	if docs == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if frontierRepo == nil {
		return nil, ErrFrontierRepositoryRequired
	}
	if idx == nil {
		return nil, ErrIndexRequired
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

	pool, err := ants.NewPool(cfg.Concurrency)
	if err != nil {
		return nil, err
	}

	allowed := make(map[string]struct{}, len(cfg.AllowedDomains))
	for _, domain := range cfg.AllowedDomains {
		allowed[core.DomainOf("https://"+domain)] = struct{}{}
	}

	s := &Scheduler{
		cfg:          cfg,
		docs:         docs,
		frontierRepo: frontierRepo,
		idx:          idx,
		normalizer:   normalizer,
		fetcher:      NewFetcher(cfg),
		gate:         NewGate(cfg),
		limiter:      rate.NewLimiter(rate.Limit(float64(cfg.PagesPerMinute)/60.0), 1),
		pool:         pool,
		logger:       slog.Default(),
		allowed:      allowed,
	}

	for _, opt := range opts {
		if optErr := opt(s); optErr != nil {
			pool.Release()
			return nil, optErr
		}
	}

	return s, nil
}

// Start begins a crawl from the given seed URLs, resuming any checkpointed
// frontier from an interrupted run. It returns once the crawl is underway.
func (s *Scheduler) Start(ctx context.Context, seedURLs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrAlreadyRunning
	}
	if len(seedURLs) == 0 {
		return ErrNoSeeds
	}

	frontier := NewFrontier()

	checkpointed, err := s.frontierRepo.LoadFrontier(ctx)
	if err != nil {
		return err
	}
	if len(checkpointed) > 0 {
		frontier.Restore(checkpointed)
		s.logger.Info("resuming checkpointed frontier", "entries", len(checkpointed))
	}

	seeds := 0
	for _, seed := range seedURLs {
		normalized, err := core.NormalizeURL(seed)
		if err != nil {
			s.logger.Warn("skipping invalid seed url", "url", seed, "error", err)
			continue
		}
		if frontier.Push(normalized, 0) {
			seeds++
		}
	}
	if seeds == 0 && frontier.Len() == 0 {
		return ErrNoSeeds
	}

	runCtx, cancel := context.WithCancel(context.Background())
	s.running = true
	s.cancel = cancel
	s.frontier = frontier
	s.drained = false
	s.startedAt = time.Now().UTC()
	s.fetched, s.indexed, s.unchanged, s.skipped, s.failed = 0, 0, 0, 0, 0
	s.domainPages = make(map[string]int)
	s.totalPages = 0

	s.wg.Add(3)
	go s.dispatch(runCtx, frontier)
	go s.recrawlLoop(runCtx, frontier)
	go s.progressLoop(runCtx)

	s.logger.Info("crawl started", "seeds", seeds, "workers", s.cfg.Concurrency)
	return nil
}

// Stop cancels the crawl, waits for in-flight fetches to finish, and
// checkpoints the remaining frontier so a later run can resume.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return ErrNotRunning
	}
	cancel := s.cancel
	frontier := s.frontier
	s.mu.Unlock()

	frontier.Close()
	cancel()
	s.wg.Wait()
	s.workerWG.Wait()

	var err error
	if remaining := frontier.Snapshot(); len(remaining) > 0 {
		err = s.frontierRepo.SaveFrontier(ctx, remaining)
	} else {
		err = s.frontierRepo.ClearFrontier(ctx)
	}

	s.mu.Lock()
	s.running = false
	indexed, failed := s.indexed, s.failed
	s.mu.Unlock()

	s.logger.Info("crawl stopped", "indexed", indexed, "failed", failed)
	return err
}

// Status returns a snapshot of the current (or most recent) run.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	status := Status{
		Running:   s.running,
		StartedAt: s.startedAt,
		Fetched:   s.fetched,
		Indexed:   s.indexed,
		Unchanged: s.unchanged,
		Skipped:   s.skipped,
		Failed:    s.failed,
	}
	if s.frontier != nil {
		status.Queued = s.frontier.Len()
	}
	return status
}

// Release frees the worker pool. The scheduler must be stopped first.
func (s *Scheduler) Release() {
	s.pool.Release()
}

// dispatch is the single frontier consumer: it paces dequeues against the
// global rate ceiling and hands entries to pool workers.
func (s *Scheduler) dispatch(ctx context.Context, frontier *Frontier) {
	defer s.wg.Done()
	for {
		entry, err := frontier.Pop(ctx)
		if err != nil {
			return
		}

		// The popped entry stays accounted for in the frontier until Ack,
		// so a draining check during the rate wait never sees the run as
		// finished, and a cancel here leaves the entry in the checkpoint.
		if err := s.limiter.Wait(ctx); err != nil {
			return
		}

		s.mu.Lock()
		s.inflight++
		s.mu.Unlock()
		s.workerWG.Add(1)
		frontier.Ack()

		submitErr := s.pool.Submit(func() {
			defer s.workerDone(frontier)
			s.crawlOne(ctx, frontier, entry)
		})
		if submitErr != nil {
			s.workerDone(frontier)
			s.logger.Error("failed to submit crawl task", "url", entry.URL, "error", submitErr)
		}
	}
}

// workerDone runs the drained callback on the worker goroutine itself, so
// Stop's wait covers the callback and the storage it touches stays open
// until it returns.
func (s *Scheduler) workerDone(frontier *Frontier) {
	defer s.workerWG.Done()

	s.mu.Lock()
	s.inflight--
	fireDrained := s.inflight == 0 && frontier.Idle() && !s.drained && s.onDrained != nil
	if fireDrained {
		s.drained = true
	}
	s.mu.Unlock()

	if fireDrained {
		s.logger.Info("frontier drained")
		s.onDrained()
	}
}

// recrawlLoop periodically re-enqueues documents older than the recrawl
// interval.
func (s *Scheduler) recrawlLoop(ctx context.Context, frontier *Frontier) {
	defer s.wg.Done()

	interval := s.cfg.RecrawlInterval / 4
	if interval > time.Hour {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().UTC().Add(-s.cfg.RecrawlInterval)
			stale, err := s.docs.DocumentsFetchedBefore(ctx, cutoff, 256)
			if err != nil {
				s.logger.Error("recrawl scan failed", "error", err)
				continue
			}
			requeued := 0
			for _, doc := range stale {
				frontier.Forget(doc.URL)
				if frontier.Push(doc.URL, 0) {
					requeued++
				}
			}
			if requeued > 0 {
				s.logger.Info("re-enqueued stale documents", "count", requeued)
			}
		}
	}
}

// progressLoop emits a periodic crawl progress line.
func (s *Scheduler) progressLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			status := s.Status()
			s.logger.Info("crawl progress",
				"queued", status.Queued,
				"fetched", status.Fetched,
				"indexed", status.Indexed,
				"unchanged", status.Unchanged,
				"skipped", status.Skipped,
				"failed", status.Failed,
				"elapsed", time.Since(status.StartedAt).Round(time.Second).String())
		}
	}
}

// crawlOne processes a single frontier entry end to end.
func (s *Scheduler) crawlOne(ctx context.Context, frontier *Frontier, entry core.FrontierEntry) {
	domain := core.DomainOf(entry.URL)
	if domain == "" {
		s.recordSkip(entry.URL, "invalid url")
		return
	}
	if !s.domainAllowed(domain) {
		s.recordSkip(entry.URL, "domain not allowed")
		return
	}
	if !s.underCaps(domain) {
		s.recordSkip(entry.URL, "page cap reached")
		return
	}
	if !s.gate.Allowed(ctx, entry.URL) {
		// Robots disallow is permanent for the run: no retry, no indexing.
		s.recordSkip(entry.URL, "robots disallow")
		return
	}

	if err := s.gate.Admit(ctx, domain); err != nil {
		return
	}
	defer s.gate.Release(domain)

	result, err := s.fetcher.Fetch(ctx, entry.URL)

	s.mu.Lock()
	s.fetched++
	s.mu.Unlock()

	if err != nil {
		s.recordFailure(entry.URL, err)
		return
	}

	base, parseErr := url.Parse(entry.URL)
	if parseErr != nil {
		s.recordSkip(entry.URL, "invalid url")
		return
	}
	page, parseErr := ParsePage(base, result.Body)
	if parseErr != nil {
		s.logger.Warn("page parse failed, skipping", "url", entry.URL, "error", parseErr)
		s.recordSkip(entry.URL, "parse error")
		return
	}

	// The hash covers the extracted text, not the raw markup, so template
	// or attribute churn does not force a re-index.
	hash := core.HashContent(page.Text)
	existing, getErr := s.docs.GetDocumentByURL(ctx, entry.URL)
	if getErr == nil && existing.ContentHash == hash {
		// Unchanged text: refresh fetched_at only, no index write. Links
		// are still followed so a re-crawl from the seeds reaches the
		// whole site.
		if touchErr := s.docs.TouchDocument(ctx, existing.Id, time.Now().UTC(), hash); touchErr != nil {
			s.logger.Error("failed to touch unchanged document", "url", entry.URL, "error", touchErr)
		}
		s.mu.Lock()
		s.unchanged++
		s.mu.Unlock()
		s.enqueueLinks(frontier, entry, page.Links)
		return
	}

	tokens := s.normalizer.Normalize(page.Text)

	doc := &core.Document{
		Id:            core.IDFromURL(entry.URL),
		URL:           entry.URL,
		Title:         page.Title,
		Domain:        domain,
		Excerpt:       excerpt(page.Text, s.cfg.ExcerptLength),
		FetchedAt:     time.Now().UTC(),
		ContentHash:   hash,
		TermCount:     uint32(len(tokens)),
		OutboundLinks: page.Links,
	}

	if err := s.docs.PutDocuments(ctx, doc); err != nil {
		s.recordFailure(entry.URL, err)
		return
	}
	s.idx.Add(doc, tokens)

	s.mu.Lock()
	s.indexed++
	s.domainPages[domain]++
	s.totalPages++
	s.mu.Unlock()

	s.enqueueLinks(frontier, entry, page.Links)
}

func (s *Scheduler) enqueueLinks(frontier *Frontier, entry core.FrontierEntry, links []string) {
	depth := entry.Depth + 1
	if depth > s.cfg.MaxDepth {
		return
	}
	for _, link := range links {
		normalized, err := core.NormalizeURL(link)
		if err != nil {
			continue
		}
		domain := core.DomainOf(normalized)
		if !s.domainAllowed(domain) || !s.underCaps(domain) {
			continue
		}
		frontier.Push(normalized, depth)
	}
}

func (s *Scheduler) domainAllowed(domain string) bool {
	if len(s.allowed) == 0 {
		return true
	}
	_, ok := s.allowed[domain]
	return ok
}

func (s *Scheduler) underCaps(domain string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg.MaxTotalPages > 0 && s.totalPages >= s.cfg.MaxTotalPages {
		return false
	}
	return s.domainPages[domain] < s.cfg.MaxPagesPerDomain
}

func (s *Scheduler) recordSkip(url, reason string) {
	s.mu.Lock()
	s.skipped++
	s.mu.Unlock()
	s.logger.Debug("skipped url", "url", url, "reason", reason, "state", core.CrawlStateSkipped.String())
}

func (s *Scheduler) recordFailure(url string, err error) {
	s.mu.Lock()
	s.failed++
	s.mu.Unlock()
	s.logger.Warn("crawl failed", "url", url, "state", core.CrawlStateFailed.String(), "error", err)
}
