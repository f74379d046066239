package llm

import (
	"context"

	"github.com/solacehq/solace/engine/analyzer"
	"github.com/solacehq/solace/engine/session"
)

// MockCompleter is a Completer for tests.
type MockCompleter struct {
	Response string
	Err      error
	Calls    int

	// LastMessage captures the raw user message of the latest call.
	LastMessage string
}

var _ Completer = (*MockCompleter)(nil)

func (m *MockCompleter) Complete(_ context.Context, message string, _ *analyzer.Analysis, _ *session.UserContext) (string, error) {
	m.Calls++
	m.LastMessage = message
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}
