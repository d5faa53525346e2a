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

import (
	"fmt"
	"time"
)

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - URL must not be empty
//   - Domain must not be empty
//   - FetchedAt must not be in the future
//
// NOT validated:
//   - Title and Excerpt (pages may legitimately have neither)
//   - ContentHash (zero until the page text is extracted)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if doc.URL == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyURL)
	}

	if doc.Domain == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyDomain)
	}

	if !IsValidTimestamp(doc.FetchedAt) {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrInvalidTimestamp)
	}

	return nil
}

// ValidatePosting checks the posting invariant: positions are strictly
// increasing and at least one position is recorded.
func ValidatePosting(p *Posting) error {
	if p == nil {
		return fmt.Errorf("%w: posting is nil", ErrInvalidPosting)
	}

	if len(p.Positions) == 0 {
		return fmt.Errorf("%w: no positions recorded", ErrInvalidPosting)
	}

	for i := 1; i < len(p.Positions); i++ {
		if p.Positions[i] <= p.Positions[i-1] {
			return fmt.Errorf("%w: positions not strictly increasing at offset %d", ErrInvalidPosting, i)
		}
	}

	return nil
}

// ValidatePostingList validates a posting list and every posting in it.
// Postings must be ordered by DocId ascending with no duplicates.
func ValidatePostingList(list *PostingList) error {
	if list == nil {
		return fmt.Errorf("%w: posting list is nil", ErrInvalidPosting)
	}

	if list.Term == "" {
		return fmt.Errorf("%w: %w", ErrInvalidPosting, ErrEmptyTerm)
	}

	var prev ID
	for i := range list.Postings {
		if err := ValidatePosting(&list.Postings[i]); err != nil {
			return err
		}
		if i > 0 && list.Postings[i].DocId <= prev {
			return fmt.Errorf("%w: postings not ordered by doc id at offset %d", ErrInvalidPosting, i)
		}
		prev = list.Postings[i].DocId
	}

	return nil
}

// IsValidTimestamp checks that a timestamp is not in the future.
// Allows a small clock skew tolerance of 1 minute.
func IsValidTimestamp(t time.Time) bool {
	return !t.After(time.Now().Add(1 * time.Minute))
}
