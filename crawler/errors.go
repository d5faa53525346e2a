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

package crawler

import "errors"

var (
	// ErrAlreadyRunning is returned when Start is called on a running scheduler.
	ErrAlreadyRunning = errors.New("crawl already running")

	// ErrNotRunning is returned when Stop is called with no crawl in progress.
	ErrNotRunning = errors.New("no crawl running")

	// ErrFrontierClosed is returned by Pop after the frontier has been closed.
	ErrFrontierClosed = errors.New("frontier closed")

	// ErrNoSeeds is returned when Start is called without any seed URLs.
	ErrNoSeeds = errors.New("no seed urls")

	// ErrParse is returned when a fetched page cannot be parsed as HTML.
	ErrParse = errors.New("page parse failed")

	// ErrDocumentRepositoryRequired is returned when the scheduler is created
	// without a document repository.
	ErrDocumentRepositoryRequired = errors.New("document repository is required")

	// ErrFrontierRepositoryRequired is returned when the scheduler is created
	// without a frontier repository.
	ErrFrontierRepositoryRequired = errors.New("frontier repository is required")

	// ErrIndexRequired is returned when the scheduler is created without an index.
	ErrIndexRequired = errors.New("index is required")

	// ErrNormalizerRequired is returned when the scheduler is created without
	// a text normalizer.
	ErrNormalizerRequired = errors.New("normalizer is required")
)
