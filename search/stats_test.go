package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatsRecorder_Counts(t *testing.T) {
	r := newStatsRecorder()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	r.record(10*time.Millisecond, now)
	r.record(30*time.Millisecond, now.Add(time.Second))

	stats := r.snapshot(now.Add(2 * time.Second))
	assert.Equal(t, uint64(2), stats.QueriesToday)
	assert.InDelta(t, 20.0, stats.AverageLatencyMs, 1e-9)
	assert.InDelta(t, 2.0/qpsWindowSeconds, stats.QueriesPerSecond, 1e-9)
}

func TestStatsRecorder_DayRollover(t *testing.T) {
	r := newStatsRecorder()
	now := time.Date(2026, 3, 10, 23, 59, 0, 0, time.UTC)

	r.record(10*time.Millisecond, now)
	r.record(10*time.Millisecond, now.Add(2*time.Minute))

	stats := r.snapshot(now.Add(3 * time.Minute))
	assert.Equal(t, uint64(1), stats.QueriesToday, "yesterday's queries dropped at midnight")
}

func TestStatsRecorder_OldBucketsExpire(t *testing.T) {
	r := newStatsRecorder()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	r.record(time.Millisecond, now)
	stats := r.snapshot(now.Add(2 * time.Minute))

	assert.Equal(t, uint64(1), stats.QueriesToday, "daily counter keeps the query")
	assert.Equal(t, 0.0, stats.QueriesPerSecond, "qps window has moved past it")
}

func TestSnippet_WindowAroundMatch(t *testing.T) {
	fx := newSearchFixture(t, nil)
	defer fx.cleanup()

	long := "inledning som inte matchar något alls här kommer universitetet mitt i texten och sedan följer en lång svans av ytterligare ord som fyller ut dokumentet"
	doc := fx.addDoc(t, "https://a.se", long)

	terms := fx.normalizer.NormalizeTerms("universitetet")
	snippet := buildSnippet(doc, terms, fx.normalizer, 40)

	assert.Contains(t, snippet, "universitetet")
	assert.LessOrEqual(t, len([]rune(snippet)), 60, "window respects the budget plus ellipses")
	assert.Contains(t, snippet, "...")
}

func TestSnippet_NoMatchFallsBackToLeadingExcerpt(t *testing.T) {
	fx := newSearchFixture(t, nil)
	defer fx.cleanup()

	doc := fx.addDoc(t, "https://a.se", "en text utan det sökta ordet")
	snippet := buildSnippet(doc, []string{"kvantfysik"}, fx.normalizer, 10)
	assert.Equal(t, "en text ut...", snippet)
}
