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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidPosting indicates a Posting violates the position invariant.
	ErrInvalidPosting = errors.New("invalid posting")

	// ErrInvalidURL indicates a URL that cannot be normalized.
	ErrInvalidURL = errors.New("invalid url")

	// ErrEmptyURL indicates the URL field is empty.
	ErrEmptyURL = errors.New("url cannot be empty")

	// ErrEmptyDomain indicates the Domain field is empty.
	ErrEmptyDomain = errors.New("domain cannot be empty")

	// ErrInvalidTimestamp indicates a timestamp is in the future.
	ErrInvalidTimestamp = errors.New("timestamp cannot be in the future")

	// ErrEmptyTerm indicates a posting list with an empty term.
	ErrEmptyTerm = errors.New("term cannot be empty")

	// ErrIndexCorrupt indicates that persisted index data could not be decoded.
	// This is fatal at startup: the process must not serve from a corrupt index.
	ErrIndexCorrupt = errors.New("index data corrupt")
)
