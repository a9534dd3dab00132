package cache

import (
	"slices"
	"sync"
	"time"
)

type sample struct {
	at         time.Time
	durationMs int64
}

// StatsSnapshot is a point-in-time view of cache activity. Latency figures
// cover network fetches inside the rolling window; counters are lifetime.
type StatsSnapshot struct {
	Hits     int64 `json:"hits"`
	Fetches  int64 `json:"fetches"`
	Failures int64 `json:"failures"`

	Count int     `json:"count"`
	MinMs int64   `json:"min_ms"`
	MaxMs int64   `json:"max_ms"`
	AvgMs float64 `json:"avg_ms"`
	P50Ms float64 `json:"p50_ms"`
	P95Ms float64 `json:"p95_ms"`
}

// LatencyStats tracks cache hits, failures and recent fetch latencies.
type LatencyStats struct {
	mu       sync.Mutex
	samples  []sample
	window   time.Duration
	hits     int64
	fetches  int64
	failures int64
}

func NewLatencyStats(window time.Duration) *LatencyStats {
	if window <= 0 {
		window = time.Hour
	}
	return &LatencyStats{window: window}
}

// Hit counts a read served from disk.
func (s *LatencyStats) Hit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hits++
}

// Fail counts a fetch that did not produce a body.
func (s *LatencyStats) Fail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures++
}

// Record adds a successful fetch that took durationMs.
func (s *LatencyStats) Record(durationMs int64) {
	durationMs = max(durationMs, 0)
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches++
	s.prune(now)
	s.samples = append(s.samples, sample{at: now, durationMs: durationMs})
}

func (s *LatencyStats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prune(time.Now())
	snap := StatsSnapshot{Hits: s.hits, Fetches: s.fetches, Failures: s.failures}
	if len(s.samples) == 0 {
		return snap
	}

	values := make([]int64, len(s.samples))
	var sum int64
	for i, sm := range s.samples {
		values[i] = sm.durationMs
		sum += sm.durationMs
	}
	slices.Sort(values)

	snap.Count = len(values)
	snap.MinMs = values[0]
	snap.MaxMs = values[len(values)-1]
	snap.AvgMs = float64(sum) / float64(len(values))
	snap.P50Ms = percentile(values, 50)
	snap.P95Ms = percentile(values, 95)
	return snap
}

// prune drops samples older than the window; callers hold s.mu.
func (s *LatencyStats) prune(now time.Time) {
	cutoff := now.Add(-s.window)
	s.samples = slices.DeleteFunc(s.samples, func(sm sample) bool {
		return sm.at.Before(cutoff)
	})
}

// percentile interpolates linearly between the closest ranks of sorted.
func percentile(sorted []int64, pct float64) float64 {
	switch {
	case len(sorted) == 0:
		return 0
	case pct <= 0:
		return float64(sorted[0])
	case pct >= 100:
		return float64(sorted[len(sorted)-1])
	}

	rank := float64(len(sorted)-1) * pct / 100
	lower := int(rank)
	if lower+1 >= len(sorted) {
		return float64(sorted[lower])
	}
	lo, hi := float64(sorted[lower]), float64(sorted[lower+1])
	return lo + (hi-lo)*(rank-float64(lower))
}
