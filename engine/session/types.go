// Package session builds and caches the per-turn user context. The cached
// UserContext is the owning instance for the session's lifetime and is
// mutated only by the Extractor.
package session

import (
	"context"

	"github.com/solacehq/solace/store"
)

const (
	// MaxRecentMessages bounds UserContext.RecentMessages (FIFO eviction).
	MaxRecentMessages = 5
	// MaxRecentEmotions bounds UserContext.RecentEmotions (FIFO eviction).
	MaxRecentEmotions = 5
	// MaxMemoryHighlights bounds the targeted-lookup snippets carried for
	// personalization.
	MaxMemoryHighlights = 3
)

// Message is a single conversation message.
type Message struct {
	Role      string `json:"role"` // "user" | "assistant"
	Content   string `json:"content"`
	CreatedTs int64  `json:"created_ts"`
}

// UserContext is the per-session view of a user the pipeline personalizes
// against.
type UserContext struct {
	UserID           string            `json:"user_id"`
	PreferredName    string            `json:"preferred_name"`
	RecentEmotions   []string          `json:"recent_emotions"`
	KeyRelationships map[string]string `json:"key_relationships"`
	RecentMessages   []Message         `json:"recent_messages"`
	Preferences      map[string]any    `json:"preferences"`
	SessionMeta      map[string]any    `json:"session_metadata"`
	// MemoryHighlights holds snippets from targeted memory lookups, newest
	// first, for [MEMORY] substitution.
	MemoryHighlights []string `json:"memory_highlights"`
}

// NewUserContext creates an empty context for a user.
func NewUserContext(userID string) *UserContext {
	return &UserContext{
		UserID:           userID,
		KeyRelationships: make(map[string]string),
		Preferences:      make(map[string]any),
		SessionMeta:      make(map[string]any),
	}
}

// PushMessage appends a message, evicting the oldest beyond the cap.
func (c *UserContext) PushMessage(msg Message) {
	c.RecentMessages = append(c.RecentMessages, msg)
	if n := len(c.RecentMessages); n > MaxRecentMessages {
		c.RecentMessages = c.RecentMessages[n-MaxRecentMessages:]
	}
}

// PushEmotion appends an emotion label, evicting the oldest beyond the cap.
func (c *UserContext) PushEmotion(emotion string) {
	c.RecentEmotions = append(c.RecentEmotions, emotion)
	if n := len(c.RecentEmotions); n > MaxRecentEmotions {
		c.RecentEmotions = c.RecentEmotions[n-MaxRecentEmotions:]
	}
}

// PushHighlight prepends a memory snippet, keeping the newest first and
// dropping beyond the cap.
func (c *UserContext) PushHighlight(snippet string) {
	c.MemoryHighlights = append([]string{snippet}, c.MemoryHighlights...)
	if len(c.MemoryHighlights) > MaxMemoryHighlights {
		c.MemoryHighlights = c.MemoryHighlights[:MaxMemoryHighlights]
	}
}

// HasRelationship reports whether the named person is known.
func (c *UserContext) HasRelationship(name string) bool {
	_, ok := c.KeyRelationships[name]
	return ok
}

// PreferenceReader is the user profile/preferences read collaborator.
type PreferenceReader interface {
	GetPreferences(ctx context.Context, userID string) (map[string]any, error)
}

// MemoryReader is the conversation/memory store read collaborator.
type MemoryReader interface {
	ListRecentMemories(ctx context.Context, userID string, limit int) ([]*store.MemoryRecord, error)
	SearchMemories(ctx context.Context, userID string, keywords []string, limit int) ([]*store.MemoryRecord, error)
}
