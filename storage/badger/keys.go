package badger

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/poiesic/websearch/core"
)

// Key prefixes for different data types
const (
	documentPrefix     = "docrec"
	documentURLPrefix  = "docurl"
	documentAgePrefix  = "docage"
	postingPrefix      = "postrec"
	indexStatsKeyName  = "idxstats"
	authorityTableName = "authtab"
	frontierKeyName    = "frontchk"
)

// makeDocumentKey generates a key for a document by ID.
func makeDocumentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", documentPrefix, id))
}

// makeDocumentURLKey generates a key for the URL index.
func makeDocumentURLKey(url string) []byte {
	return []byte(documentURLPrefix + ":" + url)
}

// makeDocumentAgeKey generates a composite key for the fetch-time index.
// Format: prefix:timestamp:id
func makeDocumentAgeKey(fetchedAt time.Time, id core.ID) []byte {
	prefix := documentAgePrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 16 // 8 bytes for timestamp + 8 bytes for ID
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(fetchedAt.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialDocumentAgeKey generates a partial key for fetch-time range scans.
// Format: prefix:timestamp
func makePartialDocumentAgeKey(fetchedAt time.Time) []byte {
	prefix := documentAgePrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 8 // 8 bytes for timestamp
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(fetchedAt.UnixMicro()))
	return buf
}

// makePostingKey generates a key for a term's posting list.
func makePostingKey(term string) []byte {
	return []byte(postingPrefix + ":" + term)
}

// makeIndexStatsKey generates the key of the index statistics singleton.
func makeIndexStatsKey() []byte {
	return []byte(indexStatsKeyName)
}

// makeAuthorityTableKey generates the key of the authority table blob.
func makeAuthorityTableKey() []byte {
	return []byte(authorityTableName)
}

// makeFrontierKey generates the key of the frontier checkpoint blob.
func makeFrontierKey() []byte {
	return []byte(frontierKeyName)
}
