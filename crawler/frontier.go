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

import (
	"context"
	"sync"
	"time"

	"github.com/poiesic/websearch/core"
)

// Frontier is the queue of URLs waiting to be fetched, with a parallel seen
// set keyed by normalized URL that prevents re-enqueueing. Push is safe from
// any goroutine; Pop is intended for a single dispatching consumer.
type Frontier struct {
	mu          sync.Mutex
	entries     []core.FrontierEntry
	outstanding *core.FrontierEntry
	seen        map[string]struct{}
	closed      bool
	notify      chan struct{}
}

// NewFrontier creates an empty frontier.
func NewFrontier() *Frontier {
	return &Frontier{
		seen:   make(map[string]struct{}),
		notify: make(chan struct{}, 1),
	}
}

// Push enqueues a URL at the given depth. It reports false when the URL has
// already been seen or the frontier is closed.
func (f *Frontier) Push(url string, depth uint32) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return false
	}
	if _, ok := f.seen[url]; ok {
		return false
	}
	f.seen[url] = struct{}{}
	f.entries = append(f.entries, core.FrontierEntry{
		URL:          url,
		Depth:        depth,
		DiscoveredAt: time.Now().UTC(),
	})

	select {
	case f.notify <- struct{}{}:
	default:
	}
	return true
}

// Pop dequeues the oldest entry, blocking until one is available, the
// frontier is closed, or the context is cancelled. After Close, Pop drains
// the remaining entries and then returns ErrFrontierClosed.
//
// A popped entry stays accounted for (in Idle and Snapshot) until the
// consumer calls Ack, which it must do once per Pop, before the next Pop.
func (f *Frontier) Pop(ctx context.Context) (core.FrontierEntry, error) {
	for {
		f.mu.Lock()
		if len(f.entries) > 0 {
			entry := f.entries[0]
			f.entries = f.entries[1:]
			f.outstanding = &entry
			f.mu.Unlock()
			return entry, nil
		}
		closed := f.closed
		f.mu.Unlock()

		if closed {
			return core.FrontierEntry{}, ErrFrontierClosed
		}

		select {
		case <-ctx.Done():
			return core.FrontierEntry{}, ctx.Err()
		case <-f.notify:
		}
	}
}

// Ack marks the last popped entry as handed off to a worker.
func (f *Frontier) Ack() {
	f.mu.Lock()
	f.outstanding = nil
	f.mu.Unlock()
}

// Len returns the number of queued entries.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

// Idle reports whether the frontier has no queued entries and no popped
// entry awaiting acknowledgement.
func (f *Frontier) Idle() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries) == 0 && f.outstanding == nil
}

// Forget removes a URL from the seen set so a scheduled re-crawl can
// enqueue it again.
func (f *Frontier) Forget(url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.seen, url)
}

// Close stops further pushes and wakes the consumer. Queued entries remain
// poppable until drained.
func (f *Frontier) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()

	select {
	case f.notify <- struct{}{}:
	default:
	}
}

// Snapshot returns a copy of the queued entries, for checkpointing an
// interrupted crawl. A popped entry that was never handed to a worker is
// included so it survives the checkpoint.
func (f *Frontier) Snapshot() []*core.FrontierEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	entries := make([]*core.FrontierEntry, 0, len(f.entries)+1)
	if f.outstanding != nil {
		e := *f.outstanding
		entries = append(entries, &e)
	}
	for i := range f.entries {
		e := f.entries[i]
		entries = append(entries, &e)
	}
	return entries
}

// Restore enqueues checkpointed entries, skipping any already seen.
func (f *Frontier) Restore(entries []*core.FrontierEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	for _, e := range entries {
		if _, ok := f.seen[e.URL]; ok {
			continue
		}
		f.seen[e.URL] = struct{}{}
		f.entries = append(f.entries, *e)
	}

	select {
	case f.notify <- struct{}{}:
	default:
	}
}
