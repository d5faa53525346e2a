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

// Package rank scores candidate documents for a query. Seven weighted
// signals combine into one score in [0,100]: TF-IDF similarity, link-graph
// authority, domain authority, recency, keyword density, link structure,
// and locale relevance. A single-pass diversification step caps how many
// results any one domain contributes to the top of the list.
package rank
