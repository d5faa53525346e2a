package core

import (
	"encoding/binary"
	"encoding/hex"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// Document IDs are generated deterministically from the normalized URL.
type ID uint64

// IDFromURL generates a deterministic ID from a normalized URL using BLAKE2b hashing.
// This ensures that the same URL always maps to the same document ID.
func IDFromURL(url string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(url))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// ContentHash is a 256-bit digest of a page's extracted text, used to detect
// unchanged pages on re-crawl.
type ContentHash [32]byte

// HashContent computes the content hash of extracted page text.
func HashContent(text string) ContentHash {
	h, _ := blake2b.New(32, nil)
	h.Write([]byte(text))
	var sum ContentHash
	copy(sum[:], h.Sum(nil))
	return sum
}

// IsZero reports whether the hash is the zero value (no content recorded).
func (c ContentHash) IsZero() bool {
	return c == ContentHash{}
}

func (c ContentHash) String() string {
	return hex.EncodeToString(c[:])
}

// Document represents one crawled, indexed page.
// Once indexed a document is immutable except for FetchedAt and ContentHash,
// which are refreshed on re-crawl.
type Document struct {
	Id            ID
	URL           string
	Title         string
	Domain        string
	Excerpt       string // leading plain text, kept for snippet generation
	FetchedAt     time.Time
	ContentHash   ContentHash
	TermCount     uint32 // tokens in the normalized document
	OutboundLinks []string
}

// InternalLinkRatio returns the fraction of outbound links that stay on the
// document's own domain. Documents without outbound links score 0.
func (d *Document) InternalLinkRatio() float64 {
	if len(d.OutboundLinks) == 0 {
		return 0
	}
	internal := 0
	for _, link := range d.OutboundLinks {
		if DomainOf(link) == d.Domain {
			internal++
		}
	}
	return float64(internal) / float64(len(d.OutboundLinks))
}

// Posting records the occurrences of one term in one document.
type Posting struct {
	DocId     ID
	Positions []uint32 // token offsets in the normalized document, strictly increasing
}

// Frequency returns the term frequency, which by invariant equals the number
// of recorded positions.
func (p *Posting) Frequency() uint32 {
	return uint32(len(p.Positions))
}

// PostingList is the posting set of a single term, ordered by DocId ascending.
type PostingList struct {
	Term     string
	Postings []Posting
}

// IndexStats holds the global statistics the index needs for TF-IDF scoring.
type IndexStats struct {
	TotalDocuments uint64
	TotalTokens    uint64 // sum of TermCount over all documents
	LastCrawlTime  time.Time
	UpdatedAt      time.Time
}

// AverageDocumentLength returns the mean token count per document.
func (s *IndexStats) AverageDocumentLength() float64 {
	if s.TotalDocuments == 0 {
		return 0
	}
	return float64(s.TotalTokens) / float64(s.TotalDocuments)
}

// FrontierEntry is a URL waiting to be fetched.
type FrontierEntry struct {
	URL          string
	Depth        uint32
	DiscoveredAt time.Time
}

// CrawlState tracks the lifecycle of a frontier entry.
type CrawlState int

const (
	// CrawlStateQueued means the URL is waiting in the frontier.
	CrawlStateQueued CrawlState = iota + 1
	// CrawlStateFetching means a worker is processing the URL.
	CrawlStateFetching
	// CrawlStateIndexed means the document was submitted to the index.
	CrawlStateIndexed
	// CrawlStateSkipped means the URL was dropped without indexing
	// (robots disallow, unchanged content, parse failure, caps).
	CrawlStateSkipped
	// CrawlStateFailed means fetching failed after exhausting retries.
	CrawlStateFailed
)

func (s CrawlState) String() string {
	switch s {
	case CrawlStateQueued:
		return "queued"
	case CrawlStateFetching:
		return "fetching"
	case CrawlStateIndexed:
		return "indexed"
	case CrawlStateSkipped:
		return "skipped"
	case CrawlStateFailed:
		return "failed"
	}
	return "unknown"
}

// AuthorityTable maps a domain to a static trust score in [0,100].
// The table is read-only during serving and replaced wholesale on refresh.
type AuthorityTable map[string]float64

// QueryResult is one ranked search hit. Results are ephemeral: they live only
// in the result cache and are never persisted.
type QueryResult struct {
	Rank    int
	DocId   ID
	URL     string
	Title   string
	Snippet string
	Score   float64 // in [0,100]
}
