package engine

import (
	"context"
	"log/slog"

	"github.com/lithammer/shortuuid/v4"

	"github.com/solacehq/solace/engine/analyzer"
	"github.com/solacehq/solace/engine/governor"
	"github.com/solacehq/solace/engine/llm"
	"github.com/solacehq/solace/engine/selector"
	"github.com/solacehq/solace/engine/session"
	"github.com/solacehq/solace/internal/errors"
	"github.com/solacehq/solace/internal/observability"
)

// fallbackTexts are the static last-resort replies, keyed by emotion. They
// must read as empathetic even when everything behind them is down.
var fallbackTexts = map[analyzer.Emotion]string{
	analyzer.EmotionSadness:   "I'm here with you. Whatever you're carrying right now, you don't have to carry it alone.",
	analyzer.EmotionAnxiety:   "I'm here. Take a slow breath with me; we can take this one small step at a time.",
	analyzer.EmotionAnger:     "I hear you, and it's okay to be upset. I'm here whenever you want to talk it through.",
	analyzer.EmotionHappiness: "That's lovely to hear. I'm glad you shared that with me.",
	analyzer.EmotionNeutral:   "I'm here and listening. Tell me more whenever you're ready.",
}

// Config carries the engine's routing thresholds.
type Config struct {
	// ComplexityThreshold gates the LLM branch; messages scoring at or
	// below it never leave the template tier.
	ComplexityThreshold float64
}

// Engine wires the pipeline together. Turns for different users run
// concurrently; turns for the same user are serialized.
type Engine struct {
	analyzer     *analyzer.Analyzer
	extractor    *session.Extractor
	selector     *selector.Selector
	personalizer *selector.Personalizer
	governor     *governor.Governor
	completer    llm.Completer // nil when the LLM branch is disabled
	metrics      *observability.Metrics
	logger       *slog.Logger

	threshold float64
	locks     userLocks
}

// New assembles an Engine. completer may be nil.
func New(cfg Config, a *analyzer.Analyzer, ext *session.Extractor, sel *selector.Selector, gov *governor.Governor, completer llm.Completer, metrics *observability.Metrics, logger *slog.Logger) *Engine {
	if cfg.ComplexityThreshold <= 0 {
		cfg.ComplexityThreshold = 0.65
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		analyzer:     a,
		extractor:    ext,
		selector:     sel,
		personalizer: selector.NewPersonalizer(),
		governor:     gov,
		completer:    completer,
		metrics:      metrics,
		logger:       logger,
		threshold:    cfg.ComplexityThreshold,
	}
}

// Respond handles one turn. It never returns an error: every failure inside
// the pipeline degrades the strategy and the caller always gets a non-empty
// reply.
func (e *Engine) Respond(ctx context.Context, userID, message, sessionID string) *Response {
	tc := observability.NewTurnContext(e.logger, userID, sessionID)

	mu := e.locks.forUser(userID)
	mu.Lock()
	defer mu.Unlock()

	analysis := e.analyzer.Analyze(message)
	state := e.governor.State()

	uctx, stats := e.extractor.GetContext(ctx, userID, sessionID, analysis, !state.CircuitOpen)

	text, meta, choice, errored := e.decide(ctx, analysis, uctx, state)

	// Commit point: usage, session and governor state move only now that
	// the strategy is final. A turn abandoned mid-decide leaves nothing
	// half-updated.
	e.selector.Commit(userID, choice)
	e.extractor.RecordTurn(ctx, uctx, sessionID, message, text, string(analysis.Emotion))
	e.governor.RecordOutcome(tc.Duration(), errored || stats.FailedReads > 0)

	meta.TurnID = shortuuid.New()
	meta.Emotion = string(analysis.Emotion)
	meta.Confidence = analysis.Confidence
	meta.MemoriesUsed = stats.MemoriesUsed
	meta.LatencyMs = tc.DurationMs()

	if e.metrics != nil {
		e.metrics.RecordTurn(string(meta.Strategy), tc.Duration(), errored)
	}
	tc.Info("turn completed",
		slog.String(observability.LogFieldStrategy, string(meta.Strategy)),
		slog.String(observability.LogFieldEmotion, meta.Emotion),
		slog.String(observability.LogFieldTemplateID, meta.TemplateID),
		slog.Int("memories_used", meta.MemoriesUsed),
		slog.Int64(observability.LogFieldDuration, meta.LatencyMs))

	return &Response{Text: text, Metadata: meta}
}

// decide walks the strategy tiers in order. It is read-only with respect to
// usage and governor state; the returned choice is committed by the caller.
func (e *Engine) decide(ctx context.Context, analysis *analyzer.Analysis, uctx *session.UserContext, state governor.State) (string, Metadata, *selector.Choice, bool) {
	if state.CircuitOpen {
		return e.fallback(analysis), Metadata{Strategy: StrategyFallback, Reason: FallbackOverload}, nil, false
	}

	choice, err := e.selector.Choose(analysis, uctx)
	if err == nil {
		text := e.personalizer.Personalize(choice, analysis, uctx)
		return text, Metadata{Strategy: StrategyTemplate, TemplateID: choice.Template.ID}, choice, false
	}

	if analysis.Complexity > e.threshold && e.completer != nil && e.governor.AllowLLM() {
		text, llmErr := e.complete(ctx, analysis, uctx)
		if llmErr == nil {
			return text, Metadata{Strategy: StrategyLLM}, nil, false
		}
		slog.Warn("completion failed, degrading to fallback",
			"error_code", errors.GetCodeFromError(llmErr, errors.ErrCodeServiceUnavailable),
			"user_id", uctx.UserID,
			"error", llmErr)
		return e.fallback(analysis), Metadata{Strategy: StrategyFallback, Reason: FallbackLLMFailed}, nil, true
	}

	return e.fallback(analysis), Metadata{Strategy: StrategyFallback, Reason: FallbackNoTemplate}, nil, false
}

func (e *Engine) complete(ctx context.Context, analysis *analyzer.Analysis, uctx *session.UserContext) (string, error) {
	text, err := e.completer.Complete(ctx, analysis.RawText, analysis, uctx)
	if err == nil && text == "" {
		err = errors.ServiceUnavailable("completion returned empty text", nil)
	}
	if e.metrics != nil {
		e.metrics.RecordLLMCall(err != nil)
	}
	return text, err
}

func (e *Engine) fallback(analysis *analyzer.Analysis) string {
	if text, ok := fallbackTexts[analysis.Emotion]; ok {
		return text
	}
	return fallbackTexts[analyzer.EmotionNeutral]
}
