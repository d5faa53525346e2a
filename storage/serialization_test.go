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
	"testing"
	"time"

	"github.com/poiesic/websearch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentRoundTrip(t *testing.T) {
	fetched := time.Date(2026, 3, 14, 9, 26, 53, 589000, time.UTC)
	doc := &core.Document{
		Id:            core.IDFromURL("https://www.kth.se/student"),
		URL:           "https://www.kth.se/student",
		Title:         "Student på KTH",
		Domain:        "www.kth.se",
		Excerpt:       "Information för studenter vid KTH.",
		FetchedAt:     fetched,
		ContentHash:   core.HashContent("Information för studenter vid KTH."),
		TermCount:     5,
		OutboundLinks: []string{"https://www.kth.se/en", "https://intra.kth.se"},
	}

	decoded, err := UnmarshalDocument(MarshalDocument(doc))
	require.NoError(t, err)
	assert.Equal(t, doc, decoded)
}

func TestDocumentRoundTrip_NoLinks(t *testing.T) {
	doc := &core.Document{
		Id:        1,
		URL:       "https://a.se",
		Domain:    "a.se",
		FetchedAt: time.UnixMicro(0).UTC(),
	}
	decoded, err := UnmarshalDocument(MarshalDocument(doc))
	require.NoError(t, err)
	assert.Equal(t, doc, decoded)
}

func TestDocumentUnmarshal_Truncated(t *testing.T) {
	doc := &core.Document{Id: 1, URL: "https://a.se", Domain: "a.se", FetchedAt: time.Now().UTC()}
	data := MarshalDocument(doc)

	_, err := UnmarshalDocument(data[:len(data)/2])
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestPostingListRoundTrip(t *testing.T) {
	list := &core.PostingList{
		Term: "universitet",
		Postings: []core.Posting{
			{DocId: 3, Positions: []uint32{0, 12, 90}},
			{DocId: 17, Positions: []uint32{4}},
		},
	}

	decoded, err := UnmarshalPostingList(MarshalPostingList(list))
	require.NoError(t, err)
	assert.Equal(t, list, decoded)
	require.NoError(t, core.ValidatePostingList(decoded))
}

func TestIndexStatsRoundTrip(t *testing.T) {
	stats := &core.IndexStats{
		TotalDocuments: 1234,
		TotalTokens:    567890,
		LastCrawlTime:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		UpdatedAt:      time.Date(2026, 1, 2, 4, 0, 0, 0, time.UTC),
	}

	decoded, err := UnmarshalIndexStats(MarshalIndexStats(stats))
	require.NoError(t, err)
	assert.Equal(t, stats, decoded)
}

func TestAuthorityTableRoundTrip(t *testing.T) {
	table := core.AuthorityTable{
		"kth.se": 92.5,
		"uu.se":  88.0,
		"su.se":  85.25,
	}

	decoded, err := UnmarshalAuthorityTable(MarshalAuthorityTable(table))
	require.NoError(t, err)
	assert.Equal(t, table, decoded)
}

func TestFrontierRoundTrip(t *testing.T) {
	entries := []*core.FrontierEntry{
		{URL: "https://www.kth.se", Depth: 0, DiscoveredAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)},
		{URL: "https://www.kth.se/student", Depth: 1, DiscoveredAt: time.Date(2026, 2, 1, 0, 1, 0, 0, time.UTC)},
	}

	decoded, err := UnmarshalFrontier(MarshalFrontier(entries))
	require.NoError(t, err)
	assert.Equal(t, entries, decoded)
}

func TestFrontierRoundTrip_Empty(t *testing.T) {
	decoded, err := UnmarshalFrontier(MarshalFrontier(nil))
	require.NoError(t, err)
	assert.Empty(t, decoded)
}
