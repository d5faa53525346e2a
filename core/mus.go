package core

import (
	"fmt"
	"math"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for the persisted domain types. Written by hand against the
// mus-go primitives so the wire layout stays explicit and stable; timestamps
// are encoded as Unix microseconds.

// IDMUS serializes IDs.
var IDMUS = idMUS{}

type idMUS struct{}

func (idMUS) Marshal(v ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(v), bs)
}

func (idMUS) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idMUS) Size(v ID) int {
	return varint.Uint64.Size(uint64(v))
}

// DocumentMUS serializes Documents.
var DocumentMUS = documentMUS{}

type documentMUS struct{}

func (documentMUS) Marshal(v Document, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(v.Id), bs)
	n += ord.String.Marshal(v.URL, bs[n:])
	n += ord.String.Marshal(v.Title, bs[n:])
	n += ord.String.Marshal(v.Domain, bs[n:])
	n += ord.String.Marshal(v.Excerpt, bs[n:])
	n += marshalTime(v.FetchedAt, bs[n:])
	n += copy(bs[n:], v.ContentHash[:])
	n += varint.Uint32.Marshal(v.TermCount, bs[n:])
	n += varint.Int.Marshal(len(v.OutboundLinks), bs[n:])
	for _, link := range v.OutboundLinks {
		n += ord.String.Marshal(link, bs[n:])
	}
	return n
}

func (documentMUS) Unmarshal(bs []byte) (v Document, n int, err error) {
	var (
		id  uint64
		n1  int
		cnt int
	)
	if id, n, err = varint.Uint64.Unmarshal(bs); err != nil {
		return
	}
	v.Id = ID(id)
	if v.URL, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Title, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Domain, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Excerpt, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.FetchedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if len(bs[n:]) < len(v.ContentHash) {
		return v, n, fmt.Errorf("%w: truncated content hash", ErrIndexCorrupt)
	}
	n += copy(v.ContentHash[:], bs[n:n+len(v.ContentHash)])
	var tc uint32
	if tc, n1, err = varint.Uint32.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	v.TermCount = tc
	n += n1
	if cnt, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if cnt < 0 {
		return v, n, fmt.Errorf("%w: negative link count", ErrIndexCorrupt)
	}
	if cnt > 0 {
		v.OutboundLinks = make([]string, cnt)
		for i := 0; i < cnt; i++ {
			if v.OutboundLinks[i], n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
				return v, n + n1, err
			}
			n += n1
		}
	}
	return v, n, nil
}

func (documentMUS) Size(v Document) (size int) {
	size = varint.Uint64.Size(uint64(v.Id))
	size += ord.String.Size(v.URL)
	size += ord.String.Size(v.Title)
	size += ord.String.Size(v.Domain)
	size += ord.String.Size(v.Excerpt)
	size += sizeTime(v.FetchedAt)
	size += len(v.ContentHash)
	size += varint.Uint32.Size(v.TermCount)
	size += varint.Int.Size(len(v.OutboundLinks))
	for _, link := range v.OutboundLinks {
		size += ord.String.Size(link)
	}
	return size
}

// PostingListMUS serializes posting lists. Positions are delta-encoded: the
// strictly-increasing invariant makes the deltas small varints.
var PostingListMUS = postingListMUS{}

type postingListMUS struct{}

func (postingListMUS) Marshal(v PostingList, bs []byte) (n int) {
	n = ord.String.Marshal(v.Term, bs)
	n += varint.Int.Marshal(len(v.Postings), bs[n:])
	for i := range v.Postings {
		p := &v.Postings[i]
		n += varint.Uint64.Marshal(uint64(p.DocId), bs[n:])
		n += varint.Int.Marshal(len(p.Positions), bs[n:])
		prev := uint32(0)
		for j, pos := range p.Positions {
			if j == 0 {
				n += varint.Uint32.Marshal(pos, bs[n:])
			} else {
				n += varint.Uint32.Marshal(pos-prev, bs[n:])
			}
			prev = pos
		}
	}
	return n
}

func (postingListMUS) Unmarshal(bs []byte) (v PostingList, n int, err error) {
	var n1, cnt int
	if v.Term, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if cnt, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if cnt < 0 {
		return v, n, fmt.Errorf("%w: negative posting count", ErrIndexCorrupt)
	}
	v.Postings = make([]Posting, cnt)
	for i := 0; i < cnt; i++ {
		var id uint64
		if id, n1, err = varint.Uint64.Unmarshal(bs[n:]); err != nil {
			return v, n + n1, err
		}
		n += n1
		v.Postings[i].DocId = ID(id)
		var posCnt int
		if posCnt, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
			return v, n + n1, err
		}
		n += n1
		if posCnt < 0 {
			return v, n, fmt.Errorf("%w: negative position count", ErrIndexCorrupt)
		}
		positions := make([]uint32, posCnt)
		prev := uint32(0)
		for j := 0; j < posCnt; j++ {
			var delta uint32
			if delta, n1, err = varint.Uint32.Unmarshal(bs[n:]); err != nil {
				return v, n + n1, err
			}
			n += n1
			if j == 0 {
				positions[j] = delta
			} else {
				positions[j] = prev + delta
			}
			prev = positions[j]
		}
		v.Postings[i].Positions = positions
	}
	return v, n, nil
}

func (postingListMUS) Size(v PostingList) (size int) {
	size = ord.String.Size(v.Term)
	size += varint.Int.Size(len(v.Postings))
	for i := range v.Postings {
		p := &v.Postings[i]
		size += varint.Uint64.Size(uint64(p.DocId))
		size += varint.Int.Size(len(p.Positions))
		prev := uint32(0)
		for j, pos := range p.Positions {
			if j == 0 {
				size += varint.Uint32.Size(pos)
			} else {
				size += varint.Uint32.Size(pos - prev)
			}
			prev = pos
		}
	}
	return size
}

// IndexStatsMUS serializes index statistics.
var IndexStatsMUS = indexStatsMUS{}

type indexStatsMUS struct{}

func (indexStatsMUS) Marshal(v IndexStats, bs []byte) (n int) {
	n = varint.Uint64.Marshal(v.TotalDocuments, bs)
	n += varint.Uint64.Marshal(v.TotalTokens, bs[n:])
	n += marshalTime(v.LastCrawlTime, bs[n:])
	n += marshalTime(v.UpdatedAt, bs[n:])
	return n
}

func (indexStatsMUS) Unmarshal(bs []byte) (v IndexStats, n int, err error) {
	var n1 int
	if v.TotalDocuments, n, err = varint.Uint64.Unmarshal(bs); err != nil {
		return
	}
	if v.TotalTokens, n1, err = varint.Uint64.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.LastCrawlTime, n1, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.UpdatedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	return v, n, nil
}

func (indexStatsMUS) Size(v IndexStats) int {
	return varint.Uint64.Size(v.TotalDocuments) +
		varint.Uint64.Size(v.TotalTokens) +
		sizeTime(v.LastCrawlTime) +
		sizeTime(v.UpdatedAt)
}

// FrontierEntryMUS serializes frontier entries for crawl checkpointing.
var FrontierEntryMUS = frontierEntryMUS{}

type frontierEntryMUS struct{}

func (frontierEntryMUS) Marshal(v FrontierEntry, bs []byte) (n int) {
	n = ord.String.Marshal(v.URL, bs)
	n += varint.Uint32.Marshal(v.Depth, bs[n:])
	n += marshalTime(v.DiscoveredAt, bs[n:])
	return n
}

func (frontierEntryMUS) Unmarshal(bs []byte) (v FrontierEntry, n int, err error) {
	var n1 int
	if v.URL, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if v.Depth, n1, err = varint.Uint32.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.DiscoveredAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	return v, n, nil
}

func (frontierEntryMUS) Size(v FrontierEntry) int {
	return ord.String.Size(v.URL) + varint.Uint32.Size(v.Depth) + sizeTime(v.DiscoveredAt)
}

// AuthorityTableMUS serializes the domain authority table as a flat list of
// (domain, score) pairs.
var AuthorityTableMUS = authorityTableMUS{}

type authorityTableMUS struct{}

func (authorityTableMUS) Marshal(v AuthorityTable, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	for domain, score := range v {
		n += ord.String.Marshal(domain, bs[n:])
		n += varint.Uint64.Marshal(math.Float64bits(score), bs[n:])
	}
	return n
}

func (authorityTableMUS) Unmarshal(bs []byte) (v AuthorityTable, n int, err error) {
	var n1, cnt int
	if cnt, n, err = varint.Int.Unmarshal(bs); err != nil {
		return
	}
	if cnt < 0 {
		return nil, n, fmt.Errorf("%w: negative table size", ErrIndexCorrupt)
	}
	v = make(AuthorityTable, cnt)
	for i := 0; i < cnt; i++ {
		var domain string
		if domain, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
			return v, n + n1, err
		}
		n += n1
		var bits uint64
		if bits, n1, err = varint.Uint64.Unmarshal(bs[n:]); err != nil {
			return v, n + n1, err
		}
		n += n1
		v[domain] = math.Float64frombits(bits)
	}
	return v, n, nil
}

func (authorityTableMUS) Size(v AuthorityTable) (size int) {
	size = varint.Int.Size(len(v))
	for domain, score := range v {
		size += ord.String.Size(domain)
		size += varint.Uint64.Size(math.Float64bits(score))
	}
	return size
}

func marshalTime(t time.Time, bs []byte) int {
	return varint.Int64.Marshal(t.UnixMicro(), bs)
}

func unmarshalTime(bs []byte) (time.Time, int, error) {
	micros, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	return time.UnixMicro(micros).UTC(), n, nil
}

func sizeTime(t time.Time) int {
	return varint.Int64.Size(t.UnixMicro())
}
