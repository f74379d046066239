// Package engine orchestrates the response decision pipeline: analyze the
// message, assemble context, pick a strategy, and render the reply. Respond
// never fails; every error inside a turn downgrades the strategy instead.
package engine

// Strategy names the response-generation method chosen for a turn.
type Strategy string

const (
	StrategyTemplate Strategy = "template"
	StrategyLLM      Strategy = "llm"
	StrategyFallback Strategy = "fallback"
)

// FallbackReason explains why a turn degraded to the static fallback.
type FallbackReason string

const (
	FallbackOverload   FallbackReason = "overload"
	FallbackNoTemplate FallbackReason = "no_template"
	FallbackLLMFailed  FallbackReason = "llm_failed"
)

// Metadata describes how a response was produced.
type Metadata struct {
	TurnID       string         `json:"turn_id"`
	Strategy     Strategy       `json:"strategy"`
	Reason       FallbackReason `json:"reason,omitempty"`
	Emotion      string         `json:"emotion"`
	Confidence   float64        `json:"confidence"`
	TemplateID   string         `json:"template_id,omitempty"`
	MemoriesUsed int            `json:"memories_used"`
	LatencyMs    int64          `json:"latency_ms"`
}

// Response is the outcome of one turn.
type Response struct {
	Text     string   `json:"response_text"`
	Metadata Metadata `json:"metadata"`
}
