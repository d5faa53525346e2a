package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/websearch/core"
	"github.com/poiesic/websearch/storage"
)

// Snapshot persists the terms changed since the last snapshot, plus the
// global statistics, to the index repository. Incremental by design: adding a
// document never rewrites postings of unrelated terms.
//
// Crash recovery restores the last complete snapshot; writes since then are
// lost, which is acceptable because crawling is idempotent.
func (ix *Index) Snapshot(ctx context.Context, repo storage.IndexRepository, lastCrawl time.Time) error {
	ix.mu.Lock()
	if len(ix.dirty) == 0 && !ix.statsDirty {
		ix.mu.Unlock()
		return nil
	}
	dirtyTerms := make([]string, 0, len(ix.dirty))
	for term := range ix.dirty {
		dirtyTerms = append(dirtyTerms, term)
	}
	ix.dirty = make(map[string]struct{})
	ix.statsDirty = false
	ix.mu.Unlock()

	// An empty list is written on purpose: it records that the term's last
	// document was removed, so recovery does not resurrect it.
	lists := make([]*core.PostingList, 0, len(dirtyTerms))
	for _, term := range dirtyTerms {
		lists = append(lists, &core.PostingList{Term: term, Postings: ix.Postings(term)})
	}

	if err := repo.PutPostings(ctx, lists...); err != nil {
		ix.markDirty(dirtyTerms)
		return fmt.Errorf("snapshot postings: %w", err)
	}

	stats := ix.Stats()
	stats.LastCrawlTime = lastCrawl
	if err := repo.PutStats(ctx, &stats); err != nil {
		ix.markDirty(dirtyTerms)
		return fmt.Errorf("snapshot stats: %w", err)
	}

	slog.Debug("index snapshot written", "terms", len(lists), "documents", stats.TotalDocuments)
	return nil
}

// markDirty re-flags terms after a failed snapshot so the next attempt
// retries them.
func (ix *Index) markDirty(terms []string) {
	ix.mu.Lock()
	for _, term := range terms {
		ix.dirty[term] = struct{}{}
	}
	ix.statsDirty = true
	ix.mu.Unlock()
}

// Load restores an index from the last complete snapshot. Document lengths
// come from the document store, postings from the index repository.
//
// A decoding failure is reported as core.ErrIndexCorrupt: the caller must
// refuse to serve and either restore a backup or rebuild via a full re-crawl.
func Load(ctx context.Context, idxRepo storage.IndexRepository, docRepo storage.DocumentRepository) (*Index, time.Time, error) {
	ix := New()

	stats, err := idxRepo.GetStats(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Nothing snapshotted yet: start empty
			return ix, time.Time{}, nil
		}
		return nil, time.Time{}, fmt.Errorf("%w: %w", core.ErrIndexCorrupt, err)
	}

	err = docRepo.ForEachDocument(ctx, func(doc *core.Document) error {
		ix.docLengths[doc.Id] = doc.TermCount
		ix.totalTokens += uint64(doc.TermCount)
		ix.committed[doc.Id] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("%w: %w", core.ErrIndexCorrupt, err)
	}

	err = idxRepo.ForEachPostings(ctx, func(list *core.PostingList) error {
		if err := core.ValidatePostingList(list); err != nil {
			return err
		}
		if len(list.Postings) == 0 {
			return nil
		}
		sh := ix.shardFor(list.Term)
		sh.postings[list.Term] = list.Postings
		for i := range list.Postings {
			id := list.Postings[i].DocId
			ix.docTerms[id] = append(ix.docTerms[id], list.Term)
		}
		return nil
	})
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("%w: %w", core.ErrIndexCorrupt, err)
	}

	return ix, stats.LastCrawlTime, nil
}
