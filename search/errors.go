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

package search

import "errors"

var (
	// ErrQueryTimeout is returned when a query exceeds its latency budget.
	// Partial results may accompany it.
	ErrQueryTimeout = errors.New("query timed out")

	// ErrInvalidMaxResults is returned when maxResults is not positive.
	ErrInvalidMaxResults = errors.New("max results must be positive")

	// ErrDocumentRepositoryRequired is returned when the searcher is created
	// without a document repository.
	ErrDocumentRepositoryRequired = errors.New("document repository is required")

	// ErrIndexRequired is returned when the searcher is created without an index.
	ErrIndexRequired = errors.New("index is required")

	// ErrRankerRequired is returned when the searcher is created without a ranker.
	ErrRankerRequired = errors.New("ranker is required")

	// ErrNormalizerRequired is returned when the searcher is created without
	// a text normalizer.
	ErrNormalizerRequired = errors.New("normalizer is required")
)
