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


package index

import (
	"math"
	"sort"
	"sync"

	"github.com/poiesic/websearch/analysis"
	"github.com/poiesic/websearch/core"
)

const numShards = 64

// shard holds the postings of a subset of terms under its own lock, so
// concurrent writers touching unrelated terms never contend and writers
// never block readers of other shards.
type shard struct {
	mu       sync.RWMutex
	postings map[string][]core.Posting
}

// Index is the in-memory inverted index. Terms are spread over a fixed number
// of independently locked shards.
//
// Per-document atomic visibility: a document's postings are installed in the
// shards first and the document ID is added to the committed set last. The
// read path filters postings through the committed set, so a reader observes
// either all of a document's postings or none of them.
type Index struct {
	shards [numShards]shard

	mu          sync.RWMutex // guards the fields below
	committed   map[core.ID]struct{}
	docLengths  map[core.ID]uint32
	docTerms    map[core.ID][]string // distinct terms per doc, for clean re-index
	totalTokens uint64
	dirty       map[string]struct{} // terms changed since the last snapshot
	statsDirty  bool
}

// New creates an empty index.
func New() *Index {
	ix := &Index{
		committed:  make(map[core.ID]struct{}),
		docLengths: make(map[core.ID]uint32),
		docTerms:   make(map[core.ID][]string),
		dirty:      make(map[string]struct{}),
	}
	for i := range ix.shards {
		ix.shards[i].postings = make(map[string][]core.Posting)
	}
	return ix
}

// shardFor hashes a term to its shard with FNV-1a; cheap enough to run on
// every postings lookup.
func (ix *Index) shardFor(term string) *shard {
	const offset64, prime64 = uint64(14695981039346656037), uint64(1099511628211)
	h := offset64
	for i := 0; i < len(term); i++ {
		h = (h ^ uint64(term[i])) * prime64
	}
	return &ix.shards[h%numShards]
}

// Add indexes one document. Safe for concurrent use by multiple crawl
// workers. Re-adding an existing document ID replaces its previous postings,
// including the removal of terms that no longer occur.
func (ix *Index) Add(doc *core.Document, tokens []analysis.Token) {
	// Group positions per distinct term
	byTerm := make(map[string][]uint32)
	for _, tok := range tokens {
		byTerm[tok.Term] = append(byTerm[tok.Term], tok.Position)
	}

	terms := make([]string, 0, len(byTerm))
	for term := range byTerm {
		terms = append(terms, term)
	}

	// Uncommit first so readers cannot see a half-replaced document
	ix.mu.Lock()
	oldLength, existed := ix.docLengths[doc.Id]
	oldTerms := ix.docTerms[doc.Id]
	delete(ix.committed, doc.Id)
	ix.mu.Unlock()

	if existed {
		for _, term := range oldTerms {
			if _, still := byTerm[term]; !still {
				ix.removePosting(term, doc.Id)
			}
		}
	}

	for term, positions := range byTerm {
		ix.mergePosting(term, doc.Id, positions)
	}

	ix.mu.Lock()
	if existed {
		ix.totalTokens -= uint64(oldLength)
	}
	ix.totalTokens += uint64(len(tokens))
	ix.docLengths[doc.Id] = uint32(len(tokens))
	ix.docTerms[doc.Id] = terms
	ix.committed[doc.Id] = struct{}{}
	for term := range byTerm {
		ix.dirty[term] = struct{}{}
	}
	for _, term := range oldTerms {
		ix.dirty[term] = struct{}{}
	}
	ix.statsDirty = true
	ix.mu.Unlock()
}

// Remove drops a document from the index.
func (ix *Index) Remove(id core.ID) {
	ix.mu.Lock()
	length, existed := ix.docLengths[id]
	oldTerms := ix.docTerms[id]
	delete(ix.committed, id)
	ix.mu.Unlock()

	if !existed {
		return
	}

	for _, term := range oldTerms {
		ix.removePosting(term, id)
	}

	ix.mu.Lock()
	ix.totalTokens -= uint64(length)
	delete(ix.docLengths, id)
	delete(ix.docTerms, id)
	for _, term := range oldTerms {
		ix.dirty[term] = struct{}{}
	}
	ix.statsDirty = true
	ix.mu.Unlock()
}

// mergePosting installs or replaces one document's posting in a term's list,
// keeping the list ordered by document ID.
func (ix *Index) mergePosting(term string, id core.ID, positions []uint32) {
	sh := ix.shardFor(term)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	list := sh.postings[term]
	idx := sort.Search(len(list), func(i int) bool { return list[i].DocId >= id })
	posting := core.Posting{DocId: id, Positions: positions}
	if idx < len(list) && list[idx].DocId == id {
		list[idx] = posting
	} else {
		list = append(list, core.Posting{})
		copy(list[idx+1:], list[idx:])
		list[idx] = posting
	}
	sh.postings[term] = list
}

func (ix *Index) removePosting(term string, id core.ID) {
	sh := ix.shardFor(term)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	list := sh.postings[term]
	idx := sort.Search(len(list), func(i int) bool { return list[i].DocId >= id })
	if idx < len(list) && list[idx].DocId == id {
		list = append(list[:idx], list[idx+1:]...)
		if len(list) == 0 {
			delete(sh.postings, term)
		} else {
			sh.postings[term] = list
		}
	}
}

// Postings returns the committed postings of a term, empty if the term is
// absent. The returned slice is a copy and safe to retain.
func (ix *Index) Postings(term string) []core.Posting {
	sh := ix.shardFor(term)
	sh.mu.RLock()
	list := sh.postings[term]
	snapshot := make([]core.Posting, len(list))
	copy(snapshot, list)
	sh.mu.RUnlock()

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	result := snapshot[:0]
	for _, p := range snapshot {
		if _, ok := ix.committed[p.DocId]; ok {
			result = append(result, p)
		}
	}
	return result
}

// DocumentFrequency returns the number of committed documents containing term.
func (ix *Index) DocumentFrequency(term string) int {
	return len(ix.Postings(term))
}

// IDF returns log(totalDocuments / (1 + documentsContainingTerm)).
func (ix *Index) IDF(term string) float64 {
	total := ix.DocCount()
	df := ix.DocumentFrequency(term)
	if total == 0 {
		return 0
	}
	return math.Log(float64(total) / float64(1+df))
}

// DocCount returns the number of committed documents.
func (ix *Index) DocCount() uint64 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return uint64(len(ix.committed))
}

// TermCount returns the number of distinct terms currently indexed.
func (ix *Index) TermCount() uint64 {
	var count uint64
	for i := range ix.shards {
		sh := &ix.shards[i]
		sh.mu.RLock()
		count += uint64(len(sh.postings))
		sh.mu.RUnlock()
	}
	return count
}

// DocLength returns the token count of a document, 0 if unknown.
func (ix *Index) DocLength(id core.ID) uint32 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.docLengths[id]
}

// AvgDocLength returns the mean token count over committed documents.
func (ix *Index) AvgDocLength() float64 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if len(ix.committed) == 0 {
		return 0
	}
	return float64(ix.totalTokens) / float64(len(ix.committed))
}

// Stats returns a point-in-time copy of the global statistics.
func (ix *Index) Stats() core.IndexStats {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return core.IndexStats{
		TotalDocuments: uint64(len(ix.committed)),
		TotalTokens:    ix.totalTokens,
	}
}
