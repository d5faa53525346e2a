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


// Package storage provides the storage abstraction layer for websearch.
//
// This package defines repository interfaces that decouple the crawler, index,
// and search pipeline from the storage implementation. The engine only requires
// an ordered, durable key-value substrate; the badger subpackage provides the
// default implementation.
//
// # Constructor Return Type Pattern
//
// Public constructors return interfaces to enforce abstraction and enable
// alternative backends:
//
//	docs, err := badger.NewDocumentRepository(backend) // storage.DocumentRepository
//
// Internal package constructors may return concrete types since they're only
// used within the implementation package.
//
// # Repositories
//
//   - DocumentRepository: crawled documents plus URL and fetch-time indices
//   - IndexRepository: inverted-index snapshots (posting lists, global stats)
//   - AuthorityRepository: the domain authority table (full-table swap only)
//   - FrontierRepository: crawl frontier checkpoints for resumable crawls
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support concurrent
// access from crawl workers and query-serving goroutines.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation and timeout
// support.
package storage
