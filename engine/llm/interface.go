// Package llm provides the last-resort completion client. The pipeline is
// biased toward templates; this client is invoked only when the strategy
// selector explicitly chooses the LLM branch.
package llm

import (
	"context"

	"github.com/solacehq/solace/engine/analyzer"
	"github.com/solacehq/solace/engine/session"
)

// Completer produces a free-form response for one turn. Implementations must
// honor ctx; a failure routes the turn to the fallback strategy, never up to
// the caller.
type Completer interface {
	Complete(ctx context.Context, message string, analysis *analyzer.Analysis, uctx *session.UserContext) (string, error)
}
