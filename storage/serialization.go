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


package storage

import (
	"fmt"

	"github.com/poiesic/websearch/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, core.IDMUS.Size(id))
	core.IDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := core.IDMUS.Unmarshal(data)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return id, nil
}

// MarshalDocument serializes a Document to bytes.
func MarshalDocument(doc *core.Document) []byte {
	buf := make([]byte, core.DocumentMUS.Size(*doc))
	core.DocumentMUS.Marshal(*doc, buf)
	return buf
}

// UnmarshalDocument deserializes a Document from bytes.
func UnmarshalDocument(data []byte) (*core.Document, error) {
	doc, _, err := core.DocumentMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &doc, nil
}

// MarshalPostingList serializes a PostingList to bytes.
func MarshalPostingList(list *core.PostingList) []byte {
	buf := make([]byte, core.PostingListMUS.Size(*list))
	core.PostingListMUS.Marshal(*list, buf)
	return buf
}

// UnmarshalPostingList deserializes a PostingList from bytes.
func UnmarshalPostingList(data []byte) (*core.PostingList, error) {
	list, _, err := core.PostingListMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &list, nil
}

// MarshalIndexStats serializes IndexStats to bytes.
func MarshalIndexStats(stats *core.IndexStats) []byte {
	buf := make([]byte, core.IndexStatsMUS.Size(*stats))
	core.IndexStatsMUS.Marshal(*stats, buf)
	return buf
}

// UnmarshalIndexStats deserializes IndexStats from bytes.
func UnmarshalIndexStats(data []byte) (*core.IndexStats, error) {
	stats, _, err := core.IndexStatsMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &stats, nil
}

// MarshalAuthorityTable serializes an AuthorityTable to bytes.
func MarshalAuthorityTable(table core.AuthorityTable) []byte {
	buf := make([]byte, core.AuthorityTableMUS.Size(table))
	core.AuthorityTableMUS.Marshal(table, buf)
	return buf
}

// UnmarshalAuthorityTable deserializes an AuthorityTable from bytes.
func UnmarshalAuthorityTable(data []byte) (core.AuthorityTable, error) {
	table, _, err := core.AuthorityTableMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return table, nil
}

// MarshalFrontier serializes frontier entries to bytes as a length-prefixed
// sequence.
func MarshalFrontier(entries []*core.FrontierEntry) []byte {
	size := core.IDMUS.Size(core.ID(len(entries)))
	for _, e := range entries {
		size += core.FrontierEntryMUS.Size(*e)
	}
	buf := make([]byte, size)
	n := core.IDMUS.Marshal(core.ID(len(entries)), buf)
	for _, e := range entries {
		n += core.FrontierEntryMUS.Marshal(*e, buf[n:])
	}
	return buf
}

// UnmarshalFrontier deserializes frontier entries from bytes.
func UnmarshalFrontier(data []byte) ([]*core.FrontierEntry, error) {
	cnt, n, err := core.IDMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	entries := make([]*core.FrontierEntry, 0, cnt)
	for i := core.ID(0); i < cnt; i++ {
		entry, n1, err := core.FrontierEntryMUS.Unmarshal(data[n:])
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
		}
		n += n1
		entries = append(entries, &entry)
	}
	return entries, nil
}
