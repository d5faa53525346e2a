package crawler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/poiesic/websearch/core"
	"github.com/temoto/robotstxt"
)

// Gate enforces crawl politeness: one outstanding request per domain,
// a minimum delay between admissions to the same domain, and robots.txt
// compliance with a cached, periodically refreshed ruleset.
//
// Admit blocks until the caller may fetch; the caller must Release the
// domain when the fetch completes. Different domains admit independently.
type Gate struct {
	delay     time.Duration
	robotsTTL time.Duration
	userAgent string
	client    *http.Client
	logger    *slog.Logger

	mu      sync.Mutex
	domains map[string]*domainSlot
}

type domainSlot struct {
	token chan struct{} // capacity 1: held for the duration of a fetch

	// nextAdmit is read and written only while holding the token.
	nextAdmit time.Time

	robotsMu      sync.Mutex
	robots        *robotstxt.RobotsData // nil means allow everything
	robotsFetched time.Time
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithGateLogger sets a custom logger. Default is slog.Default().
func WithGateLogger(logger *slog.Logger) GateOption {
	return func(g *Gate) {
		if logger == nil {
			logger = slog.Default()
		}
		g.logger = logger
	}
}

// WithRobotsClient replaces the HTTP client used for robots.txt fetches,
// primarily for tests.
func WithRobotsClient(client *http.Client) GateOption {
	return func(g *Gate) {
		if client != nil {
			g.client = client
		}
	}
}

// NewGate creates a politeness gate from the crawl configuration.
func NewGate(cfg *Config, opts ...GateOption) *Gate {
	g := &Gate{
		delay:     cfg.DomainDelay,
		robotsTTL: cfg.RobotsTTL,
		userAgent: cfg.UserAgent,
		client:    &http.Client{Timeout: cfg.FetchTimeout},
		logger:    slog.Default(),
		domains:   make(map[string]*domainSlot),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gate) slot(domain string) *domainSlot {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.domains[domain]
	if !ok {
		s = &domainSlot{token: make(chan struct{}, 1)}
		g.domains[domain] = s
	}
	return s
}

// Admit blocks until a fetch to domain may proceed: it acquires the domain's
// token and waits out the crawl delay. The delay clock starts at admission,
// so two admissions to the same domain are never less than the configured
// delay apart. Callers must Release the domain afterwards.
func (g *Gate) Admit(ctx context.Context, domain string) error {
	s := g.slot(domain)

	select {
	case s.token <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	if wait := time.Until(s.nextAdmit); wait > 0 {
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			<-s.token
			return ctx.Err()
		case <-timer.C:
		}
	}

	s.nextAdmit = time.Now().Add(g.delay)
	return nil
}

// Release returns the domain's token after a fetch has completed.
func (g *Gate) Release(domain string) {
	s := g.slot(domain)
	select {
	case <-s.token:
	default:
	}
}

// Allowed reports whether robots.txt permits fetching rawURL under the
// gate's user agent. The ruleset is fetched on first use per domain and
// refreshed after the configured TTL. An unreachable robots.txt is treated
// as allowing everything; the condition is logged.
func (g *Gate) Allowed(ctx context.Context, rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return false
	}
	domain := core.DomainOf(rawURL)
	s := g.slot(domain)

	s.robotsMu.Lock()
	defer s.robotsMu.Unlock()

	if s.robotsFetched.IsZero() || time.Since(s.robotsFetched) > g.robotsTTL {
		s.robots = g.fetchRobots(ctx, parsed.Scheme, parsed.Host)
		s.robotsFetched = time.Now()
	}

	if s.robots == nil {
		return true
	}
	path := parsed.Path
	if path == "" {
		path = "/"
	}
	return s.robots.FindGroup(g.userAgent).Test(path)
}

// fetchRobots retrieves and parses a domain's robots.txt. A nil return means
// no restrictions apply.
func (g *Gate) fetchRobots(ctx context.Context, scheme, host string) *robotstxt.RobotsData {
	robotsURL := scheme + "://" + host + "/robots.txt"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Warn("robots.txt unreachable, allowing all paths", "url", robotsURL, "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		g.logger.Warn("robots.txt unavailable, allowing all paths", "url", robotsURL, "status", resp.StatusCode)
		return nil
	}
	if resp.StatusCode >= 400 {
		// No robots.txt published: everything is allowed.
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512<<10))
	if err != nil {
		g.logger.Warn("robots.txt read failed, allowing all paths", "url", robotsURL, "error", err)
		return nil
	}

	data, err := robotstxt.FromBytes(body)
	if err != nil {
		g.logger.Warn("robots.txt parse failed, allowing all paths", "url", robotsURL, "error", err)
		return nil
	}
	return data
}
