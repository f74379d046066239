package observability

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics collects and aggregates counters for the response pipeline.
type Metrics struct {
	mu sync.Mutex

	// Turn counters
	turnsTotal  atomic.Int64
	turnsFailed atomic.Int64

	// Per-strategy counters
	strategyCounts map[string]*atomic.Int64

	// Collaborator counters
	cacheHits      atomic.Int64
	cacheMisses    atomic.Int64
	storeReads     atomic.Int64
	storeReadFails atomic.Int64
	llmCalls       atomic.Int64
	llmFailures    atomic.Int64

	// Duration window (FIFO, bounded)
	durations    []time.Duration
	maxDurations int
}

// NewMetrics creates a new metrics collector.
func NewMetrics(maxDurations int) *Metrics {
	if maxDurations <= 0 {
		maxDurations = 1000
	}
	return &Metrics{
		strategyCounts: make(map[string]*atomic.Int64),
		durations:      make([]time.Duration, 0, maxDurations),
		maxDurations:   maxDurations,
	}
}

// RecordTurn records a completed turn with its strategy and duration.
func (m *Metrics) RecordTurn(strategy string, duration time.Duration, errored bool) {
	m.turnsTotal.Add(1)
	if errored {
		m.turnsFailed.Add(1)
	}

	m.mu.Lock()
	c, ok := m.strategyCounts[strategy]
	if !ok {
		c = &atomic.Int64{}
		m.strategyCounts[strategy] = c
	}
	if len(m.durations) >= m.maxDurations {
		m.durations = m.durations[1:]
	}
	m.durations = append(m.durations, duration)
	m.mu.Unlock()

	c.Add(1)
}

// RecordCacheHit records a session cache hit.
func (m *Metrics) RecordCacheHit() { m.cacheHits.Add(1) }

// RecordCacheMiss records a session cache miss.
func (m *Metrics) RecordCacheMiss() { m.cacheMisses.Add(1) }

// RecordStoreRead records a store read and whether it failed.
func (m *Metrics) RecordStoreRead(failed bool) {
	m.storeReads.Add(1)
	if failed {
		m.storeReadFails.Add(1)
	}
}

// RecordLLMCall records an LLM completion call and whether it failed.
func (m *Metrics) RecordLLMCall(failed bool) {
	m.llmCalls.Add(1)
	if failed {
		m.llmFailures.Add(1)
	}
}

// Snapshot returns a point-in-time snapshot of metrics.
func (m *Metrics) Snapshot() *Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	strategies := make(map[string]int64, len(m.strategyCounts))
	for name, c := range m.strategyCounts {
		strategies[name] = c.Load()
	}

	return &Snapshot{
		TurnsTotal:      m.turnsTotal.Load(),
		TurnsFailed:     m.turnsFailed.Load(),
		Strategies:      strategies,
		CacheHits:       m.cacheHits.Load(),
		CacheMisses:     m.cacheMisses.Load(),
		StoreReads:      m.storeReads.Load(),
		StoreReadFails:  m.storeReadFails.Load(),
		LLMCalls:        m.llmCalls.Load(),
		LLMFailures:     m.llmFailures.Load(),
		AvgLatencyMs:    avgMs(m.durations),
		P95LatencyMs:    percentileMs(m.durations, 0.95),
		DurationSamples: len(m.durations),
	}
}

// Reset resets all metrics (useful for testing).
func (m *Metrics) Reset() {
	m.turnsTotal.Store(0)
	m.turnsFailed.Store(0)
	m.cacheHits.Store(0)
	m.cacheMisses.Store(0)
	m.storeReads.Store(0)
	m.storeReadFails.Store(0)
	m.llmCalls.Store(0)
	m.llmFailures.Store(0)

	m.mu.Lock()
	m.strategyCounts = make(map[string]*atomic.Int64)
	m.durations = m.durations[:0]
	m.mu.Unlock()
}

// Snapshot represents a point-in-time snapshot of pipeline metrics.
type Snapshot struct {
	TurnsTotal      int64            `json:"turns_total"`
	TurnsFailed     int64            `json:"turns_failed"`
	Strategies      map[string]int64 `json:"strategies"`
	CacheHits       int64            `json:"cache_hits"`
	CacheMisses     int64            `json:"cache_misses"`
	StoreReads      int64            `json:"store_reads"`
	StoreReadFails  int64            `json:"store_read_failures"`
	LLMCalls        int64            `json:"llm_calls"`
	LLMFailures     int64            `json:"llm_failures"`
	AvgLatencyMs    int64            `json:"avg_latency_ms"`
	P95LatencyMs    int64            `json:"p95_latency_ms"`
	DurationSamples int              `json:"duration_samples"`
}

// SuccessRate returns the success rate as a percentage (0-100).
func (s *Snapshot) SuccessRate() float64 {
	if s.TurnsTotal == 0 {
		return 100.0
	}
	return float64(s.TurnsTotal-s.TurnsFailed) / float64(s.TurnsTotal) * 100.0
}

func avgMs(durations []time.Duration) int64 {
	if len(durations) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range durations {
		total += d
	}
	return (total / time.Duration(len(durations))).Milliseconds()
}

func percentileMs(durations []time.Duration, p float64) int64 {
	if len(durations) == 0 {
		return 0
	}
	sorted := make([]time.Duration, len(durations))
	copy(sorted, durations)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j] < sorted[j-1]; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	idx := int(float64(len(sorted)-1) * p)
	return sorted[idx].Milliseconds()
}
