package crawler

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
)

// Config holds the crawl policy: concurrency, rate limits, politeness, and
// the bounds that keep a crawl from wandering off the configured sites.
type Config struct {
	// AllowedDomains restricts the crawl to these domains (exact,
	// case-insensitive host match). Empty means any domain reachable from
	// the seeds, which is almost never what you want.
	AllowedDomains []string

	// Concurrency is the crawl worker pool size.
	Concurrency int

	// FetchTimeout bounds a single HTTP request, including the body read.
	FetchTimeout time.Duration

	// MaxAttempts bounds retries of transient fetch failures per URL.
	MaxAttempts int

	// RetryBaseDelay is the first retry backoff; it doubles per attempt.
	RetryBaseDelay time.Duration

	// UserAgent identifies the crawler to servers and in robots.txt lookups.
	UserAgent string

	// MaxBodyBytes caps the response body; larger pages fail with a
	// TooLarge fetch error.
	MaxBodyBytes int64

	// DomainDelay is the minimum interval between two admissions to the
	// same domain.
	DomainDelay time.Duration

	// RobotsTTL is how long a cached robots.txt ruleset stays valid.
	RobotsTTL time.Duration

	// MaxDepth bounds link-following distance from a seed.
	MaxDepth uint32

	// MaxPagesPerDomain caps indexed pages per domain within one run.
	MaxPagesPerDomain int

	// MaxTotalPages caps indexed pages across the whole run. Zero disables
	// the cap.
	MaxTotalPages int

	// PagesPerMinute is the global fetch ceiling across all domains.
	PagesPerMinute int

	// RecrawlInterval is the document age beyond which a URL is re-enqueued.
	RecrawlInterval time.Duration

	// ExcerptLength is how many leading runes of page text are stored on the
	// document for snippet generation.
	ExcerptLength int
}

// DefaultConfig returns a conservative crawl configuration suitable for a
// small set of sites.
func DefaultConfig() *Config {
	return &Config{
		Concurrency:       6,
		FetchTimeout:      10 * time.Second,
		MaxAttempts:       3,
		RetryBaseDelay:    500 * time.Millisecond,
		UserAgent:         "websearchbot/1.0 (+https://github.com/poiesic/websearch)",
		MaxBodyBytes:      2 << 20,
		DomainDelay:       time.Second,
		RobotsTTL:         time.Hour,
		MaxDepth:          5,
		MaxPagesPerDomain: 1000,
		MaxTotalPages:     10000,
		PagesPerMinute:    120,
		RecrawlInterval:   24 * time.Hour,
		ExcerptLength:     300,
	}
}

// Validate checks the configuration bounds, accumulating all violations.
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.Concurrency < 1 {
		result = multierror.Append(result, fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency))
	}
	if c.FetchTimeout <= 0 {
		result = multierror.Append(result, fmt.Errorf("fetch timeout must be positive, got %s", c.FetchTimeout))
	}
	if c.MaxAttempts < 1 {
		result = multierror.Append(result, fmt.Errorf("max attempts must be at least 1, got %d", c.MaxAttempts))
	}
	if c.RetryBaseDelay <= 0 {
		result = multierror.Append(result, fmt.Errorf("retry base delay must be positive, got %s", c.RetryBaseDelay))
	}
	if c.UserAgent == "" {
		result = multierror.Append(result, fmt.Errorf("user agent must not be empty"))
	}
	if c.MaxBodyBytes < 1024 {
		result = multierror.Append(result, fmt.Errorf("max body bytes must be at least 1024, got %d", c.MaxBodyBytes))
	}
	if c.DomainDelay < 0 {
		result = multierror.Append(result, fmt.Errorf("domain delay must not be negative, got %s", c.DomainDelay))
	}
	if c.RobotsTTL <= 0 {
		result = multierror.Append(result, fmt.Errorf("robots ttl must be positive, got %s", c.RobotsTTL))
	}
	if c.MaxPagesPerDomain < 1 {
		result = multierror.Append(result, fmt.Errorf("max pages per domain must be at least 1, got %d", c.MaxPagesPerDomain))
	}
	if c.MaxTotalPages < 0 {
		result = multierror.Append(result, fmt.Errorf("max total pages must not be negative, got %d", c.MaxTotalPages))
	}
	if c.PagesPerMinute < 1 {
		result = multierror.Append(result, fmt.Errorf("pages per minute must be at least 1, got %d", c.PagesPerMinute))
	}
	if c.RecrawlInterval <= 0 {
		result = multierror.Append(result, fmt.Errorf("recrawl interval must be positive, got %s", c.RecrawlInterval))
	}
	if c.ExcerptLength < 0 {
		result = multierror.Append(result, fmt.Errorf("excerpt length must not be negative, got %d", c.ExcerptLength))
	}

	return result.ErrorOrNil()
}
