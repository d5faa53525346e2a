package search

import (
	"sync"
	"time"
)

// Stats is a point-in-time view of query-serving activity, computed from
// in-memory rolling counters. No per-query log backs these numbers.
type Stats struct {
	QueriesToday     uint64
	AverageLatencyMs float64
	QueriesPerSecond float64
}

// qpsWindowSeconds is the size of the ring used for the QPS estimate.
const qpsWindowSeconds = 60

// statsRecorder accumulates per-day counters and a one-minute ring of
// per-second query counts.
type statsRecorder struct {
	mu           sync.Mutex
	day          time.Time
	queriesToday uint64
	totalLatency time.Duration
	ring         [qpsWindowSeconds]uint32
	ringSecond   int64
}

func newStatsRecorder() *statsRecorder {
	return &statsRecorder{}
}

func (r *statsRecorder) record(latency time.Duration, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	day := now.UTC().Truncate(24 * time.Hour)
	if !day.Equal(r.day) {
		r.day = day
		r.queriesToday = 0
		r.totalLatency = 0
	}
	r.queriesToday++
	r.totalLatency += latency

	r.advance(now.Unix())
	r.ring[now.Unix()%qpsWindowSeconds]++
}

// advance zeroes the ring buckets between the last recorded second and now.
func (r *statsRecorder) advance(nowSecond int64) {
	if r.ringSecond == 0 {
		r.ringSecond = nowSecond
		return
	}
	gap := nowSecond - r.ringSecond
	if gap >= qpsWindowSeconds {
		r.ring = [qpsWindowSeconds]uint32{}
	} else {
		for s := r.ringSecond + 1; s <= nowSecond; s++ {
			r.ring[s%qpsWindowSeconds] = 0
		}
	}
	r.ringSecond = nowSecond
}

func (r *statsRecorder) snapshot(now time.Time) Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.advance(now.Unix())

	stats := Stats{}
	day := now.UTC().Truncate(24 * time.Hour)
	if day.Equal(r.day) {
		stats.QueriesToday = r.queriesToday
		if r.queriesToday > 0 {
			stats.AverageLatencyMs = float64(r.totalLatency) / float64(time.Millisecond) / float64(r.queriesToday)
		}
	}

	var total uint64
	for _, count := range r.ring {
		total += uint64(count)
	}
	stats.QueriesPerSecond = float64(total) / qpsWindowSeconds

	return stats
}
