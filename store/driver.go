// Package store defines the external collaborator interfaces the response
// pipeline reads from: user preferences and the conversation/memory store.
// The pipeline never writes through these interfaces during a turn; writes
// exist only for seeding and for the surrounding product.
package store

import (
	"context"
	"database/sql"
)

// MemoryRecord is a single stored memory: a past conversation line or a fact
// the product remembered about the user.
type MemoryRecord struct {
	ID int64
	// UserID is the owning user.
	UserID string
	// Role is who produced the record: "user" or "assistant".
	Role string
	// Content is the remembered text.
	Content string
	// Keywords are the indexable terms (names, relationship words) attached
	// at write time. Lookup is keyword match, not semantic search.
	Keywords []string
	// CreatedTs is the creation time in unix seconds.
	CreatedTs int64
}

// UpsertPreferences is the payload for writing user preferences.
type UpsertPreferences struct {
	UserID      string
	Preferences map[string]any
}

// CreateMemory is the payload for writing a memory record.
type CreateMemory struct {
	UserID   string
	Role     string
	Content  string
	Keywords []string
}

// Driver is the storage driver interface. It contains every method the
// database drivers implement; the pipeline itself depends only on the
// narrower read interfaces declared in engine/session.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	// Migrate creates the schema if it does not exist.
	Migrate(ctx context.Context) error

	// GetPreferences returns the stored preferences for a user.
	// Returns an empty map when the user has none.
	GetPreferences(ctx context.Context, userID string) (map[string]any, error)

	// ListRecentMemories returns the most recent memory records for a user,
	// newest first.
	ListRecentMemories(ctx context.Context, userID string, limit int) ([]*MemoryRecord, error)

	// SearchMemories returns memory records matching any of the given
	// keywords, newest first.
	SearchMemories(ctx context.Context, userID string, keywords []string, limit int) ([]*MemoryRecord, error)

	// UpsertPreferences writes the full preferences map for a user.
	UpsertPreferences(ctx context.Context, upsert *UpsertPreferences) error

	// CreateMemory appends a memory record.
	CreateMemory(ctx context.Context, create *CreateMemory) (*MemoryRecord, error)
}
