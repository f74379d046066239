// Package governor tracks per-turn outcomes against error-rate, latency and
// memory budgets, and trips a circuit breaker that forces degraded response
// strategies while the system is under pressure.
package governor

import (
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// minSamples is the number of recorded outcomes required before the error
// rate can trip the circuit, so a single early failure cannot open it.
const minSamples = 10

// Config bounds the governor.
type Config struct {
	WindowSize    int           // outcomes kept in the sliding window (default: 50)
	MaxErrorRate  float64       // error fraction that opens the circuit (default: 0.30)
	MaxP95Latency time.Duration // p95 turn latency that opens the circuit (default: 800ms)
	MaxHeapBytes  uint64        // heap ceiling that opens the circuit (default: 512 MiB)
	Cooldown      time.Duration // open duration before a close is attempted (default: 30s)

	LLMEnabled       bool
	LLMRatePerMinute int // LLM calls allowed per minute (default: 6)
	LLMBurst         int // burst allowance (default: 2)
}

func (c Config) withDefaults() Config {
	if c.WindowSize <= 0 {
		c.WindowSize = 50
	}
	if c.MaxErrorRate <= 0 {
		c.MaxErrorRate = 0.30
	}
	if c.MaxP95Latency <= 0 {
		c.MaxP95Latency = 800 * time.Millisecond
	}
	if c.MaxHeapBytes == 0 {
		c.MaxHeapBytes = 512 << 20
	}
	if c.Cooldown <= 0 {
		c.Cooldown = 30 * time.Second
	}
	if c.LLMRatePerMinute <= 0 {
		c.LLMRatePerMinute = 6
	}
	if c.LLMBurst <= 0 {
		c.LLMBurst = 2
	}
	return c
}

// State is a point-in-time view of the governor. Reading it never consumes
// LLM rate tokens; use AllowLLM at the actual dispatch point.
type State struct {
	CircuitOpen bool
	AllowLLM    bool
	Reason      string
}

type outcome struct {
	latency time.Duration
	errored bool
}

// Governor owns the sliding outcome window and the circuit state. Safe for
// concurrent use.
type Governor struct {
	cfg     Config
	limiter *rate.Limiter

	now      func() time.Time
	readHeap func() uint64

	mu       sync.Mutex
	window   []outcome // ring buffer
	next     int
	filled   int
	open     bool
	openedAt time.Time
	reason   string
}

// New creates a Governor with the given config.
func New(cfg Config) *Governor {
	cfg = cfg.withDefaults()
	return &Governor{
		cfg:      cfg,
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.LLMRatePerMinute)), cfg.LLMBurst),
		now:      time.Now,
		readHeap: heapInUse,
		window:   make([]outcome, cfg.WindowSize),
	}
}

func heapInUse() uint64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.HeapInuse
}

// RecordOutcome adds one completed turn to the sliding window and re-checks
// the budgets. Callers invoke it once per turn, after the strategy is fully
// decided and executed.
func (g *Governor) RecordOutcome(latency time.Duration, errored bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.window[g.next] = outcome{latency: latency, errored: errored}
	g.next = (g.next + 1) % len(g.window)
	if g.filled < len(g.window) {
		g.filled++
	}

	if g.open {
		return
	}
	if reason, breached := g.breachLocked(); breached {
		g.openLocked(reason)
	}
}

// State reports the current circuit state, attempting a close when the
// cooldown has elapsed and no budget is still breached.
func (g *Governor) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.open && g.now().Sub(g.openedAt) >= g.cfg.Cooldown {
		// Error and latency breaches get a fresh window on close; a live
		// memory breach restarts the cooldown instead.
		if g.readHeap() > g.cfg.MaxHeapBytes {
			g.openedAt = g.now()
			g.reason = "memory_ceiling"
		} else {
			g.open = false
			g.reason = ""
			g.filled = 0
			g.next = 0
			slog.Info("circuit closed after cooldown")
		}
	}

	return State{
		CircuitOpen: g.open,
		AllowLLM:    !g.open && g.cfg.LLMEnabled && g.limiter.Tokens() >= 1,
		Reason:      g.reason,
	}
}

// AllowLLM consumes one LLM rate token. Call exactly once, at dispatch.
func (g *Governor) AllowLLM() bool {
	g.mu.Lock()
	open := g.open
	g.mu.Unlock()
	if open || !g.cfg.LLMEnabled {
		return false
	}
	return g.limiter.Allow()
}

func (g *Governor) openLocked(reason string) {
	g.open = true
	g.openedAt = g.now()
	g.reason = reason
	slog.Warn("circuit opened, forcing degraded strategies",
		"reason", reason,
		"cooldown", g.cfg.Cooldown)
}

// breachLocked evaluates the three budgets against the current window.
func (g *Governor) breachLocked() (string, bool) {
	if heap := g.readHeap(); heap > g.cfg.MaxHeapBytes {
		return "memory_ceiling", true
	}
	if g.filled == 0 {
		return "", false
	}

	var errored int
	latencies := make([]time.Duration, 0, g.filled)
	for i := 0; i < g.filled; i++ {
		o := g.window[i]
		if o.errored {
			errored++
		}
		latencies = append(latencies, o.latency)
	}

	if g.filled >= minSamples {
		if errRate := float64(errored) / float64(g.filled); errRate >= g.cfg.MaxErrorRate {
			return "error_rate", true
		}
	}

	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	p95 := latencies[(len(latencies)*95)/100]
	if p95 > g.cfg.MaxP95Latency {
		return "latency", true
	}
	return "", false
}
