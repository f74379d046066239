package governor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestGovernor(cfg Config) *Governor {
	g := New(cfg)
	g.readHeap = func() uint64 { return 0 }
	return g
}

func TestCircuitOpensOnErrorRate(t *testing.T) {
	g := newTestGovernor(Config{WindowSize: 20, MaxErrorRate: 0.30})

	// Nine failures in a row stay below the sample floor.
	for i := 0; i < 9; i++ {
		g.RecordOutcome(10*time.Millisecond, true)
	}
	assert.False(t, g.State().CircuitOpen, "too few samples to judge error rate")

	g.RecordOutcome(10*time.Millisecond, true)
	state := g.State()
	assert.True(t, state.CircuitOpen)
	assert.Equal(t, "error_rate", state.Reason)
	assert.False(t, state.AllowLLM, "open circuit forbids LLM calls")
}

func TestCircuitStaysClosedUnderThreshold(t *testing.T) {
	g := newTestGovernor(Config{WindowSize: 20, MaxErrorRate: 0.30})

	for i := 0; i < 18; i++ {
		g.RecordOutcome(10*time.Millisecond, false)
	}
	g.RecordOutcome(10*time.Millisecond, true)
	g.RecordOutcome(10*time.Millisecond, true)

	assert.False(t, g.State().CircuitOpen, "2/20 errors is under the 30% budget")
}

func TestCircuitOpensOnLatency(t *testing.T) {
	g := newTestGovernor(Config{WindowSize: 20, MaxP95Latency: 100 * time.Millisecond})

	for i := 0; i < 20; i++ {
		g.RecordOutcome(200*time.Millisecond, false)
	}

	state := g.State()
	assert.True(t, state.CircuitOpen)
	assert.Equal(t, "latency", state.Reason)
}

func TestCircuitOpensOnMemoryCeiling(t *testing.T) {
	g := newTestGovernor(Config{MaxHeapBytes: 1 << 20})
	g.readHeap = func() uint64 { return 2 << 20 }

	g.RecordOutcome(time.Millisecond, false)

	state := g.State()
	assert.True(t, state.CircuitOpen)
	assert.Equal(t, "memory_ceiling", state.Reason)
}

func TestCircuitClosesAfterCooldown(t *testing.T) {
	now := time.Now()
	g := newTestGovernor(Config{WindowSize: 20, MaxErrorRate: 0.30, Cooldown: 30 * time.Second})
	g.now = func() time.Time { return now }

	for i := 0; i < 10; i++ {
		g.RecordOutcome(10*time.Millisecond, true)
	}
	assert.True(t, g.State().CircuitOpen)

	now = now.Add(29 * time.Second)
	assert.True(t, g.State().CircuitOpen, "cooldown not elapsed")

	now = now.Add(2 * time.Second)
	assert.False(t, g.State().CircuitOpen, "cooldown elapsed, window reset")

	// The reset window means old failures cannot immediately re-trip.
	g.RecordOutcome(10*time.Millisecond, false)
	assert.False(t, g.State().CircuitOpen)
}

func TestCooldownRestartsWhileMemoryBreached(t *testing.T) {
	now := time.Now()
	heap := uint64(2 << 20)
	g := newTestGovernor(Config{MaxHeapBytes: 1 << 20, Cooldown: 30 * time.Second})
	g.now = func() time.Time { return now }
	g.readHeap = func() uint64 { return heap }

	g.RecordOutcome(time.Millisecond, false)
	assert.True(t, g.State().CircuitOpen)

	now = now.Add(31 * time.Second)
	assert.True(t, g.State().CircuitOpen, "heap still over ceiling")

	heap = 0
	now = now.Add(31 * time.Second)
	assert.False(t, g.State().CircuitOpen)
}

func TestAllowLLMRateLimited(t *testing.T) {
	g := newTestGovernor(Config{LLMEnabled: true, LLMRatePerMinute: 6, LLMBurst: 2})

	assert.True(t, g.AllowLLM())
	assert.True(t, g.AllowLLM())
	assert.False(t, g.AllowLLM(), "burst exhausted")
}

func TestAllowLLMDisabled(t *testing.T) {
	g := newTestGovernor(Config{LLMEnabled: false})
	assert.False(t, g.AllowLLM())
	assert.False(t, g.State().AllowLLM)
}

func TestAllowLLMWhileOpen(t *testing.T) {
	g := newTestGovernor(Config{WindowSize: 20, MaxErrorRate: 0.30, LLMEnabled: true})
	for i := 0; i < 10; i++ {
		g.RecordOutcome(10*time.Millisecond, true)
	}
	assert.False(t, g.AllowLLM())
}
