package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solacehq/solace/engine/analyzer"
	"github.com/solacehq/solace/engine/cache"
	"github.com/solacehq/solace/store"
)

func newTestExtractor(prefs *MockPreferenceReader, memories *MockMemoryReader) *Extractor {
	return NewExtractor(cache.NewMockContextCache(), prefs, memories, nil, ExtractorConfig{
		QueryBudget: 3,
		ReadTimeout: 100 * time.Millisecond,
		SessionTTL:  time.Minute,
	})
}

func analyze(text string) *analyzer.Analysis {
	return analyzer.New().Analyze(text)
}

func TestGetContextColdMiss(t *testing.T) {
	prefs := &MockPreferenceReader{Prefs: map[string]any{
		"preferred_name": "Sam",
		"relationships":  map[string]any{"Priya": "friend"},
	}}
	memories := &MockMemoryReader{Recent: []*store.MemoryRecord{
		{Role: "user", Content: "newest", CreatedTs: 3},
		{Role: "assistant", Content: "older", CreatedTs: 2},
	}}
	e := newTestExtractor(prefs, memories)

	uctx, stats := e.GetContext(context.Background(), "u1", "s1", analyze("hello"), true)

	assert.False(t, stats.CacheHit)
	assert.Equal(t, 2, stats.Reads, "preferences + recent turns")
	assert.Equal(t, "Sam", uctx.PreferredName)
	assert.Equal(t, "friend", uctx.KeyRelationships["Priya"])
	require.Len(t, uctx.RecentMessages, 2)
	assert.Equal(t, "newest", uctx.RecentMessages[1].Content, "chronological order, newest last")
	assert.Equal(t, 2, stats.MemoriesUsed)
}

func TestGetContextCacheHitNoReads(t *testing.T) {
	prefs := &MockPreferenceReader{Prefs: map[string]any{"preferred_name": "Sam"}}
	memories := &MockMemoryReader{Recent: []*store.MemoryRecord{{Role: "user", Content: "hi", CreatedTs: 1}}}
	e := newTestExtractor(prefs, memories)

	ctx := context.Background()
	first, _ := e.GetContext(ctx, "u1", "s1", analyze("hello"), true)
	second, stats := e.GetContext(ctx, "u1", "s1", analyze("hello again"), true)

	assert.True(t, stats.CacheHit)
	assert.Zero(t, stats.Reads)
	assert.Same(t, first, second, "cached copy is the owning instance")
	assert.Equal(t, prefs.CallCount(), 1)
}

func TestGetContextTriggeredLookup(t *testing.T) {
	prefs := &MockPreferenceReader{Prefs: map[string]any{}}
	memories := &MockMemoryReader{
		Found: []*store.MemoryRecord{
			{Role: "user", Content: "Priya is my friend from school", Keywords: []string{"Priya", "friend"}, CreatedTs: 1},
		},
	}
	e := newTestExtractor(prefs, memories)

	uctx, stats := e.GetContext(context.Background(), "u1", "s1", analyze("How is Priya doing?"), true)

	assert.Equal(t, 3, stats.Reads, "preferences, recent turns, targeted lookup")
	assert.Equal(t, []string{"Priya"}, memories.LastSearch)
	assert.Equal(t, "friend", uctx.KeyRelationships["Priya"], "relationship learned from keywords")
	require.NotEmpty(t, uctx.MemoryHighlights)
	assert.Contains(t, uctx.MemoryHighlights[0], "Priya")
}

func TestGetContextBudgetEnforced(t *testing.T) {
	prefs := &MockPreferenceReader{Prefs: map[string]any{}}
	memories := &MockMemoryReader{}
	e := NewExtractor(cache.NewMockContextCache(), prefs, memories, nil, ExtractorConfig{
		QueryBudget: 2,
		ReadTimeout: 100 * time.Millisecond,
		SessionTTL:  time.Minute,
	})

	// Cold miss with a triggered entity wants 3 reads; only 2 are allowed.
	_, stats := e.GetContext(context.Background(), "u1", "s1", analyze("How is Priya doing?"), true)

	assert.Equal(t, 2, stats.Reads)
	assert.Zero(t, memories.SearchCalls, "targeted lookup truncated by budget")
}

func TestGetContextReadFailuresDegrade(t *testing.T) {
	prefs := &MockPreferenceReader{Err: errors.New("store down")}
	memories := &MockMemoryReader{Err: errors.New("store down")}
	e := newTestExtractor(prefs, memories)

	uctx, stats := e.GetContext(context.Background(), "u1", "s1", analyze("How is Priya doing?"), true)

	require.NotNil(t, uctx, "degraded context is still returned")
	assert.Equal(t, 3, stats.Reads)
	assert.Equal(t, 3, stats.FailedReads)
	assert.Zero(t, stats.MemoriesUsed)
	assert.Empty(t, uctx.PreferredName)
	assert.Empty(t, uctx.RecentMessages)
}

func TestGetContextCircuitOpenCacheOnly(t *testing.T) {
	prefs := &MockPreferenceReader{Prefs: map[string]any{"preferred_name": "Sam"}}
	memories := &MockMemoryReader{}
	e := newTestExtractor(prefs, memories)

	uctx, stats := e.GetContext(context.Background(), "u1", "s1", analyze("hello"), false)

	require.NotNil(t, uctx)
	assert.Zero(t, stats.Reads)
	assert.Zero(t, prefs.CallCount())
	assert.Zero(t, memories.ReadCount())
}

func TestGetContextEntityMergeWithoutRead(t *testing.T) {
	prefs := &MockPreferenceReader{Prefs: map[string]any{}}
	memories := &MockMemoryReader{}
	e := newTestExtractor(prefs, memories)

	uctx, _ := e.GetContext(context.Background(), "u1", "s1", analyze("my friend Priya moved away"), true)

	assert.Equal(t, "friend", uctx.KeyRelationships["Priya"])
	assert.Zero(t, memories.SearchCalls, "explicit relation needs no targeted lookup")
}

func TestUserContextBounds(t *testing.T) {
	uctx := NewUserContext("u1")

	for i := 0; i < 20; i++ {
		uctx.PushMessage(Message{Role: "user", Content: fmt.Sprintf("m%d", i)})
		uctx.PushEmotion("sadness")
	}

	assert.Len(t, uctx.RecentMessages, MaxRecentMessages)
	assert.Equal(t, "m19", uctx.RecentMessages[MaxRecentMessages-1].Content, "oldest evicted first")
	assert.Len(t, uctx.RecentEmotions, MaxRecentEmotions)

	for i := 0; i < 10; i++ {
		uctx.PushHighlight(fmt.Sprintf("h%d", i))
	}
	assert.Len(t, uctx.MemoryHighlights, MaxMemoryHighlights)
	assert.Equal(t, "h9", uctx.MemoryHighlights[0], "newest highlight first")
}
