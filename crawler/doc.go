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

// Package crawler fetches, parses, and schedules web pages for indexing.
//
// The Scheduler drains a Frontier of discovered URLs with a bounded worker
// pool. Every fetch passes through the Gate, which serializes requests per
// domain, enforces the configured crawl delay, and consults a cached
// robots.txt ruleset. Fetched pages are hashed for change detection, parsed
// for title, text and outbound links, and handed to the inverted index.
package crawler
