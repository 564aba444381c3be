package observability

import (
	"sort"
	"sync"
	"time"
)

// latencyWindowSize bounds the rolling latency window used for percentile
// estimation.
const latencyWindowSize = 100

// CallStats aggregates per-call-path counters and latencies. It is owned by
// main and injected into the adapters that feed it; only a process restart
// resets it. Safe for concurrent use.
type CallStats struct {
	name string

	mu            sync.Mutex
	requestCount  int64
	successCount  int64
	failureCount  int64
	retryCount    int64
	totalLatency  time.Duration
	avgLatency    time.Duration
	tokenCount    int64
	lastSuccessAt time.Time
	latencies     []time.Duration
	next          int
	filled        bool
}

// NewCallStats constructs an empty aggregator for the named call path.
func NewCallStats(name string) *CallStats {
	return &CallStats{name: name, latencies: make([]time.Duration, latencyWindowSize)}
}

// RecordAttempt ingests one attempt. Attempts with index > 0 are retries.
func (s *CallStats) RecordAttempt(index int, latency time.Duration, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requestCount++
	if index > 0 {
		s.retryCount++
	}
	s.totalLatency += latency
	// newAvg = (oldAvg*(n-1) + latest) / n
	s.avgLatency = (s.avgLatency*time.Duration(s.requestCount-1) + latency) / time.Duration(s.requestCount)

	s.latencies[s.next] = latency
	s.next = (s.next + 1) % latencyWindowSize
	if s.next == 0 {
		s.filled = true
	}

	if err != nil {
		s.failureCount++
		return
	}
	s.successCount++
	s.lastSuccessAt = time.Now()
}

// AddTokens accumulates token (or byte) usage for the call path.
func (s *CallStats) AddTokens(n int) {
	s.mu.Lock()
	s.tokenCount += int64(n)
	s.mu.Unlock()
}

// Snapshot is a read-only view of the aggregator.
type Snapshot struct {
	Name          string        `json:"name"`
	RequestCount  int64         `json:"request_count"`
	SuccessCount  int64         `json:"success_count"`
	FailureCount  int64         `json:"failure_count"`
	RetryCount    int64         `json:"retry_count"`
	TotalLatency  time.Duration `json:"total_latency_ms"`
	AvgLatency    time.Duration `json:"avg_latency_ms"`
	TokenCount    int64         `json:"token_count"`
	LastSuccessAt time.Time     `json:"last_success_at"`
	P50           time.Duration `json:"p50_ms"`
	P95           time.Duration `json:"p95_ms"`
	P99           time.Duration `json:"p99_ms"`
}

// Snapshot returns the current counters plus percentile estimates over the
// last hundred attempts.
func (s *CallStats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.next
	if s.filled {
		n = latencyWindowSize
	}
	window := make([]time.Duration, n)
	copy(window, s.latencies[:n])
	sort.Slice(window, func(i, j int) bool { return window[i] < window[j] })

	snap := Snapshot{
		Name:          s.name,
		RequestCount:  s.requestCount,
		SuccessCount:  s.successCount,
		FailureCount:  s.failureCount,
		RetryCount:    s.retryCount,
		TotalLatency:  s.totalLatency,
		AvgLatency:    s.avgLatency,
		TokenCount:    s.tokenCount,
		LastSuccessAt: s.lastSuccessAt,
	}
	if n > 0 {
		snap.P50 = window[percentileIndex(n, 50)]
		snap.P95 = window[percentileIndex(n, 95)]
		snap.P99 = window[percentileIndex(n, 99)]
	}
	return snap
}

func percentileIndex(n, pct int) int {
	idx := n*pct/100 - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= n {
		idx = n - 1
	}
	return idx
}
