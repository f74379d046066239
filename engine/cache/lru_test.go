package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLRUCacheGetSet(t *testing.T) {
	c := NewLRUCache(10, time.Minute)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("a", "alpha", 0)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "alpha", v)

	// Overwrite refreshes the value.
	c.Set("a", "beta", 0)
	v, ok = c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "beta", v)
	assert.Equal(t, 1, c.Size())
}

func TestLRUCacheExpiration(t *testing.T) {
	c := NewLRUCache(10, time.Minute)

	c.Set("short", 1, 10*time.Millisecond)
	_, ok := c.Get("short")
	assert.True(t, ok)

	time.Sleep(20 * time.Millisecond)
	_, ok = c.Get("short")
	assert.False(t, ok, "expired entry should be dropped on access")
	assert.Equal(t, 0, c.Size())
}

func TestLRUCacheEviction(t *testing.T) {
	c := NewLRUCache(3, time.Minute)

	c.Set("a", 1, 0)
	c.Set("b", 2, 0)
	c.Set("c", 3, 0)

	// Touch "a" so "b" becomes the oldest.
	c.Get("a")
	c.Set("d", 4, 0)

	assert.Equal(t, 3, c.Size())
	_, ok := c.Get("b")
	assert.False(t, ok, "least recently used entry should be evicted")
	_, ok = c.Get("a")
	assert.True(t, ok)
}

func TestLRUCacheInvalidate(t *testing.T) {
	c := NewLRUCache(10, time.Minute)

	c.Set("session:u1:s1", 1, 0)
	c.Set("session:u1:s2", 2, 0)
	c.Set("session:u2:s1", 3, 0)

	assert.Equal(t, 1, c.Invalidate("session:u2:s1"))
	assert.Equal(t, 2, c.Invalidate("session:u1:*"))
	assert.Equal(t, 0, c.Size())
}

func TestLRUCacheCleanupExpired(t *testing.T) {
	c := NewLRUCache(10, time.Minute)

	c.Set("a", 1, 5*time.Millisecond)
	c.Set("b", 2, time.Minute)

	time.Sleep(10 * time.Millisecond)
	removed := c.CleanupExpired()
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, c.Size())
}
