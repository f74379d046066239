// Package cache provides the session context cache used by the context
// extractor. It is the only long-lived shared mutable state in the pipeline.
package cache

import (
	"context"
	"time"
)

// ContextCache defines the session context cache interface.
type ContextCache interface {
	// Get retrieves a value from cache.
	// Returns: value, whether it exists
	Get(ctx context.Context, key string) (any, bool)

	// Set stores a value in cache.
	// ttl: expiration time
	Set(ctx context.Context, key string, value any, ttl time.Duration) error

	// Invalidate invalidates cache entries.
	// pattern: supports a trailing wildcard (session:123:*)
	Invalidate(ctx context.Context, pattern string) error
}
