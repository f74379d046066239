package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solacehq/solace/internal/profile"
	"github.com/solacehq/solace/store"
)

func newTestDB(t *testing.T) store.Driver {
	t.Helper()

	p := &profile.Profile{
		Mode:   "dev",
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "solace_test.db"),
	}
	driver, err := NewDB(p)
	require.NoError(t, err)
	t.Cleanup(func() { _ = driver.Close() })

	require.NoError(t, driver.Migrate(context.Background()))
	return driver
}

func TestPreferencesRoundTrip(t *testing.T) {
	driver := newTestDB(t)
	ctx := context.Background()

	// Missing user yields an empty map, not an error.
	prefs, err := driver.GetPreferences(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, prefs)

	err = driver.UpsertPreferences(ctx, &store.UpsertPreferences{
		UserID: "u1",
		Preferences: map[string]any{
			"preferred_name": "Sam",
			"relationships":  map[string]any{"Priya": "friend"},
		},
	})
	require.NoError(t, err)

	prefs, err = driver.GetPreferences(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Sam", prefs["preferred_name"])

	// Upsert overwrites.
	err = driver.UpsertPreferences(ctx, &store.UpsertPreferences{
		UserID:      "u1",
		Preferences: map[string]any{"preferred_name": "Samuel"},
	})
	require.NoError(t, err)

	prefs, err = driver.GetPreferences(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Samuel", prefs["preferred_name"])
}

func TestMemoriesListAndSearch(t *testing.T) {
	driver := newTestDB(t)
	ctx := context.Background()

	seeds := []store.CreateMemory{
		{UserID: "u1", Role: "user", Content: "Priya and I went hiking", Keywords: []string{"Priya", "friend"}},
		{UserID: "u1", Role: "assistant", Content: "That sounds lovely", Keywords: nil},
		{UserID: "u1", Role: "user", Content: "work has been stressful", Keywords: []string{"work"}},
		{UserID: "u2", Role: "user", Content: "other user's memory", Keywords: []string{"Priya"}},
	}
	for i := range seeds {
		_, err := driver.CreateMemory(ctx, &seeds[i])
		require.NoError(t, err)
	}

	recent, err := driver.ListRecentMemories(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "work has been stressful", recent[0].Content, "newest first")

	found, err := driver.SearchMemories(ctx, "u1", []string{"priya"}, 5)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Contains(t, found[0].Content, "Priya")
	assert.Equal(t, []string{"Priya", "friend"}, found[0].Keywords)

	// No keywords means no lookup.
	none, err := driver.SearchMemories(ctx, "u1", nil, 5)
	require.NoError(t, err)
	assert.Nil(t, none)
}
