package search

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
)

// Config holds the query-serving parameters.
type Config struct {
	// CacheCapacity is the maximum number of cached result sets.
	CacheCapacity int

	// CacheTTL is how long a cached result set stays valid.
	CacheTTL time.Duration

	// QueryTimeout is the per-query latency budget. A query over budget
	// returns whatever was computed so far with ErrQueryTimeout.
	QueryTimeout time.Duration

	// MaxCandidates caps how many documents are fully ranked. When the
	// candidate set is larger, the top candidates by raw term frequency are
	// kept. This trades recall at the tail for bounded latency.
	MaxCandidates int

	// SnippetLength is the target snippet size in runes.
	SnippetLength int
}

// DefaultConfig returns the standard query-serving configuration.
func DefaultConfig() *Config {
	return &Config{
		CacheCapacity: 1024,
		CacheTTL:      time.Hour,
		QueryTimeout:  time.Second,
		MaxCandidates: 2000,
		SnippetLength: 160,
	}
}

// Validate checks the configuration bounds, accumulating all violations.
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.CacheCapacity < 1 {
		result = multierror.Append(result, fmt.Errorf("cache capacity must be at least 1, got %d", c.CacheCapacity))
	}
	if c.CacheTTL <= 0 {
		result = multierror.Append(result, fmt.Errorf("cache ttl must be positive, got %s", c.CacheTTL))
	}
	if c.QueryTimeout <= 0 {
		result = multierror.Append(result, fmt.Errorf("query timeout must be positive, got %s", c.QueryTimeout))
	}
	if c.MaxCandidates < 1 {
		result = multierror.Append(result, fmt.Errorf("max candidates must be at least 1, got %d", c.MaxCandidates))
	}
	if c.SnippetLength < 1 {
		result = multierror.Append(result, fmt.Errorf("snippet length must be at least 1, got %d", c.SnippetLength))
	}

	return result.ErrorOrNil()
}
