package search

import (
	"time"

	"github.com/poiesic/websearch/core"
)

// SearchMonitor provides hooks to observe the search pipeline.
// Implement this interface to track intermediate steps during a query.
type SearchMonitor interface {
	Start(query string)
	AfterNormalize(terms []string)
	CacheHit(key string)
	AfterCandidateGathering(candidates int)
	AfterRanking(scored int)
	Finish(results []*core.QueryResult, elapsed time.Duration)
}

// noopMonitor is a no-op implementation of SearchMonitor.
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                                  {}
func (n *noopMonitor) AfterNormalize(_ []string)                       {}
func (n *noopMonitor) CacheHit(_ string)                               {}
func (n *noopMonitor) AfterCandidateGathering(_ int)                   {}
func (n *noopMonitor) AfterRanking(_ int)                              {}
func (n *noopMonitor) Finish(_ []*core.QueryResult, _ time.Duration)   {}
