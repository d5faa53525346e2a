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


// Package analysis provides the text normalizer shared by the index write
// path and the query path.
//
// Normalization is deterministic and stateless: identical input produces
// identical output regardless of when or where it runs. This equivalence is
// the correctness backbone of retrieval, because a query term must normalize
// to exactly the string stored in the index postings.
//
// The pipeline is: Unicode NFC normalization, tokenization on letter/digit
// runs, compound splitting at letter/digit boundaries, locale-aware case
// folding, stop-word removal, and Snowball stemming.
package analysis
