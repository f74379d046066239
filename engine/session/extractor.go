package session

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/solacehq/solace/engine/analyzer"
	"github.com/solacehq/solace/engine/cache"
	"github.com/solacehq/solace/internal/errors"
	"github.com/solacehq/solace/internal/observability"
	"github.com/solacehq/solace/store"
)

// ExtractorConfig configures the context extractor.
type ExtractorConfig struct {
	QueryBudget int           // max store reads per turn (default: 3)
	ReadTimeout time.Duration // timeout per individual read (default: 250ms)
	SessionTTL  time.Duration // cache TTL (default: 30 minutes)
}

// ExtractStats reports what a single GetContext call did.
type ExtractStats struct {
	CacheHit     bool
	Reads        int
	FailedReads  int
	MemoriesUsed int
}

// Extractor combines the session cache with bounded store reads into a
// UserContext. All failures degrade fields; GetContext never fails.
type Extractor struct {
	cache    cache.ContextCache
	prefs    PreferenceReader
	memories MemoryReader
	metrics  *observability.Metrics

	budget      int
	readTimeout time.Duration
	sessionTTL  time.Duration
}

// NewExtractor creates a context extractor.
func NewExtractor(contextCache cache.ContextCache, prefs PreferenceReader, memories MemoryReader, metrics *observability.Metrics, cfg ExtractorConfig) *Extractor {
	if cfg.QueryBudget <= 0 {
		cfg.QueryBudget = 3
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 250 * time.Millisecond
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 30 * time.Minute
	}
	return &Extractor{
		cache:       contextCache,
		prefs:       prefs,
		memories:    memories,
		metrics:     metrics,
		budget:      cfg.QueryBudget,
		readTimeout: cfg.ReadTimeout,
		sessionTTL:  cfg.SessionTTL,
	}
}

// GetContext returns the user context for this turn. With allowReads false
// (governor circuit open) it serves from cache only. The returned context is
// the cache-owned instance; callers within a user's serialized turn may
// mutate it through the extractor only.
func (e *Extractor) GetContext(ctx context.Context, userID, sessionID string, analysis *analyzer.Analysis, allowReads bool) (*UserContext, *ExtractStats) {
	stats := &ExtractStats{}
	key := cacheKey(userID, sessionID)

	var uctx *UserContext
	cached, ok := e.cache.Get(ctx, key)
	if ok {
		uctx, ok = cached.(*UserContext)
	}
	if e.metrics != nil {
		if ok {
			e.metrics.RecordCacheHit()
		} else {
			e.metrics.RecordCacheMiss()
		}
	}

	if uctx == nil {
		uctx = NewUserContext(userID)
	}

	// Entities the user just named with an explicit relation are free
	// context; merge them before deciding what still needs a store read.
	mergeAnalysisEntities(uctx, analysis)

	unmet := unmetTriggers(uctx, analysis)

	if ok && len(unmet) == 0 {
		stats.CacheHit = true
		e.refresh(ctx, key, uctx)
		return uctx, stats
	}

	if allowReads {
		e.read(ctx, uctx, analysis, unmet, !ok, stats)
	}

	e.refresh(ctx, key, uctx)
	return uctx, stats
}

// read spends the per-turn query budget in priority order: preferences,
// recent turns, targeted memory lookup. Once the budget is spent, remaining
// needs are served from whatever is cached.
func (e *Extractor) read(ctx context.Context, uctx *UserContext, analysis *analyzer.Analysis, unmet []string, cacheMiss bool, stats *ExtractStats) {
	remaining := e.budget

	needPrefs := cacheMiss || len(uctx.Preferences) == 0
	needRecent := cacheMiss || (hasTrigger(unmet, "recent_history") && len(uctx.RecentMessages) == 0)
	searchNames := nameTriggers(unmet)

	// Preferences and recent turns have no data dependency; fetch them in
	// parallel when both fit in the budget.
	var g errgroup.Group
	if needPrefs && remaining > 0 {
		remaining--
		stats.Reads++
		g.Go(func() error {
			e.readPreferences(ctx, uctx, stats)
			return nil
		})
	}
	if needRecent && remaining > 0 {
		remaining--
		stats.Reads++
		g.Go(func() error {
			e.readRecent(ctx, uctx, stats)
			return nil
		})
	}
	_ = g.Wait()

	if len(searchNames) > 0 {
		if remaining <= 0 {
			slog.Warn("store read budget spent, serving stale context",
				"error_code", errors.ErrCodeBudgetExceeded,
				"user_id", uctx.UserID,
				"skipped_triggers", strings.Join(searchNames, ","))
			return
		}
		stats.Reads++
		e.readTargeted(ctx, uctx, searchNames, stats)
	}
}

func (e *Extractor) readPreferences(ctx context.Context, uctx *UserContext, stats *ExtractStats) {
	rctx, cancel := context.WithTimeout(ctx, e.readTimeout)
	defer cancel()

	prefs, err := e.prefs.GetPreferences(rctx, uctx.UserID)
	if e.metrics != nil {
		e.metrics.RecordStoreRead(err != nil)
	}
	if err != nil {
		stats.FailedReads++
		slog.Warn("preferences read failed, field degraded",
			"error_code", errors.ErrCodeContextReadFailed,
			"user_id", uctx.UserID,
			"error", err)
		return
	}

	mergePreferences(uctx, prefs)
}

func (e *Extractor) readRecent(ctx context.Context, uctx *UserContext, stats *ExtractStats) {
	rctx, cancel := context.WithTimeout(ctx, e.readTimeout)
	defer cancel()

	records, err := e.memories.ListRecentMemories(rctx, uctx.UserID, MaxRecentMessages)
	if e.metrics != nil {
		e.metrics.RecordStoreRead(err != nil)
	}
	if err != nil {
		stats.FailedReads++
		slog.Warn("recent memories read failed, field degraded",
			"error_code", errors.ErrCodeContextReadFailed,
			"user_id", uctx.UserID,
			"error", err)
		return
	}

	mergeRecent(uctx, records)
	stats.MemoriesUsed += len(records)
}

func (e *Extractor) readTargeted(ctx context.Context, uctx *UserContext, names []string, stats *ExtractStats) {
	rctx, cancel := context.WithTimeout(ctx, e.readTimeout)
	defer cancel()

	records, err := e.memories.SearchMemories(rctx, uctx.UserID, names, MaxMemoryHighlights)
	if e.metrics != nil {
		e.metrics.RecordStoreRead(err != nil)
	}
	if err != nil {
		stats.FailedReads++
		slog.Warn("targeted memory lookup failed, field degraded",
			"error_code", errors.ErrCodeContextReadFailed,
			"user_id", uctx.UserID,
			"keywords", strings.Join(names, ","),
			"error", err)
		return
	}

	mergeTargeted(uctx, names, records)
	stats.MemoriesUsed += len(records)
}

// refresh writes the merged context back, refreshing the TTL.
func (e *Extractor) refresh(ctx context.Context, key string, uctx *UserContext) {
	_ = e.cache.Set(ctx, key, uctx, e.sessionTTL)
}

// RecordTurn folds a completed exchange into the cached context so the next
// turn in this session sees it without a store read.
func (e *Extractor) RecordTurn(ctx context.Context, uctx *UserContext, sessionID, userMessage, assistantReply, emotion string) {
	now := time.Now().Unix()
	uctx.PushMessage(Message{Role: "user", Content: userMessage, CreatedTs: now})
	if assistantReply != "" {
		uctx.PushMessage(Message{Role: "assistant", Content: assistantReply, CreatedTs: now})
	}
	if emotion != "" {
		uctx.PushEmotion(emotion)
	}
	e.refresh(ctx, cacheKey(uctx.UserID, sessionID), uctx)
}

// Invalidate drops the cached context for a session.
func (e *Extractor) Invalidate(ctx context.Context, userID, sessionID string) {
	_ = e.cache.Invalidate(ctx, cacheKey(userID, sessionID))
}

func cacheKey(userID, sessionID string) string {
	return "session:" + sessionID + ":" + userID
}

// unmetTriggers returns the analysis triggers the cached context cannot
// satisfy.
func unmetTriggers(uctx *UserContext, analysis *analyzer.Analysis) []string {
	var unmet []string
	for _, trigger := range analysis.ContextTriggers {
		if trigger == "recent_history" {
			if len(uctx.RecentMessages) == 0 {
				unmet = append(unmet, trigger)
			}
			continue
		}
		if !uctx.HasRelationship(trigger) && !hasHighlightFor(uctx, trigger) {
			unmet = append(unmet, trigger)
		}
	}
	return unmet
}

func hasHighlightFor(uctx *UserContext, name string) bool {
	lower := strings.ToLower(name)
	for _, h := range uctx.MemoryHighlights {
		if strings.Contains(strings.ToLower(h), lower) {
			return true
		}
	}
	return false
}

func hasTrigger(triggers []string, want string) bool {
	for _, t := range triggers {
		if t == want {
			return true
		}
	}
	return false
}

func nameTriggers(triggers []string) []string {
	var names []string
	for _, t := range triggers {
		if t != "recent_history" {
			names = append(names, t)
		}
	}
	sort.Strings(names)
	return names
}

func mergeAnalysisEntities(uctx *UserContext, analysis *analyzer.Analysis) {
	for _, entity := range analysis.Entities {
		if entity.Name == "" || entity.Relation == "" {
			continue
		}
		uctx.KeyRelationships[entity.Name] = entity.Relation
	}
}

func mergePreferences(uctx *UserContext, prefs map[string]any) {
	if prefs == nil {
		return
	}
	uctx.Preferences = prefs

	if name, ok := prefs["preferred_name"].(string); ok && name != "" {
		uctx.PreferredName = name
	}
	if rels, ok := prefs["relationships"].(map[string]any); ok {
		for name, rel := range rels {
			if relStr, ok := rel.(string); ok {
				uctx.KeyRelationships[name] = relStr
			}
		}
	}
}

func mergeRecent(uctx *UserContext, records []*store.MemoryRecord) {
	// Records arrive newest first; replay oldest first so FIFO eviction
	// keeps the newest.
	for i := len(records) - 1; i >= 0; i-- {
		uctx.PushMessage(Message{
			Role:      records[i].Role,
			Content:   records[i].Content,
			CreatedTs: records[i].CreatedTs,
		})
	}
}

func mergeTargeted(uctx *UserContext, names []string, records []*store.MemoryRecord) {
	for i := len(records) - 1; i >= 0; i-- {
		uctx.PushHighlight(records[i].Content)
	}

	// A record whose keywords carry both a searched name and a relationship
	// term teaches us the relationship.
	for _, record := range records {
		var foundName, foundRel string
		for _, kw := range record.Keywords {
			if foundName == "" && hasTrigger(names, kw) {
				foundName = kw
			}
			if foundRel == "" && analyzer.IsRelationTerm(strings.ToLower(kw)) {
				foundRel = strings.ToLower(kw)
			}
		}
		if foundName != "" && foundRel != "" && !uctx.HasRelationship(foundName) {
			uctx.KeyRelationships[foundName] = foundRel
		}
	}
}
