package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/solacehq/solace/engine/analyzer"
	"github.com/solacehq/solace/engine/session"
	"github.com/solacehq/solace/internal/errors"
)

const systemPrompt = `You are a warm, attentive emotional-support companion.
Respond briefly (2-4 sentences), validate the user's feelings, and never give
medical advice. Use the provided context naturally; do not list it back.`

// Config holds the completion client configuration.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Client is a Completer backed by an OpenAI-compatible API.
type Client struct {
	client *openai.Client
	model  string

	// timeout bounds each completion call; the turn's latency budget does
	// not allow retries here.
	timeout time.Duration
}

var _ Completer = (*Client)(nil)

// NewClient creates a completion client.
func NewClient(cfg Config) *Client {
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &Client{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   cfg.Model,
		timeout: cfg.Timeout,
	}
}

// Complete performs a single chat completion attempt.
func (c *Client) Complete(ctx context.Context, message string, analysis *analyzer.Analysis, uctx *session.UserContext) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(cctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(message, analysis, uctx)},
		},
	})
	if err != nil {
		return "", errors.ServiceUnavailable("chat completion failed", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.ServiceUnavailable("empty chat completion response", nil)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// buildPrompt folds the turn's context into the user message so the model
// sees one compact prompt.
func buildPrompt(message string, analysis *analyzer.Analysis, uctx *session.UserContext) string {
	var b strings.Builder

	if uctx != nil {
		if uctx.PreferredName != "" {
			fmt.Fprintf(&b, "The user's name is %s.\n", uctx.PreferredName)
		}
		if len(uctx.KeyRelationships) > 0 {
			b.WriteString("People they have mentioned:")
			for name, rel := range uctx.KeyRelationships {
				fmt.Fprintf(&b, " %s (%s)", name, rel)
			}
			b.WriteString(".\n")
		}
		for _, h := range uctx.MemoryHighlights {
			fmt.Fprintf(&b, "Earlier they shared: %s\n", h)
		}
	}
	if analysis != nil && analysis.Emotion != analyzer.EmotionNeutral {
		fmt.Fprintf(&b, "They currently seem to feel %s.\n", analysis.Emotion)
	}

	fmt.Fprintf(&b, "\nUser message: %s", message)
	return b.String()
}
