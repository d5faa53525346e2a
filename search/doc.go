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

// Package search answers text queries: it normalizes the query with the
// same analyzer used at index time, gathers candidates from the inverted
// index, ranks and diversifies them, generates snippets, and caches the
// result set under the normalized query for the cache TTL. Rolling query
// statistics are kept as in-memory counters only; no query text is retained
// past the cache window.
package search
