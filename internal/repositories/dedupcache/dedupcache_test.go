package dedupcache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMarkSeenAndSeen(t *testing.T) {
	cache := NewFreeCache(1, 60)

	assert.False(t, cache.Seen("pk-1"))

	cache.MarkSeen("pk-1", "pk-2")
	assert.True(t, cache.Seen("pk-1"))
	assert.True(t, cache.Seen("pk-2"))
	assert.False(t, cache.Seen("pk-3"))
}

func TestForget(t *testing.T) {
	cache := NewFreeCache(1, 60)

	cache.MarkSeen("pk-1")
	assert.True(t, cache.Seen("pk-1"))

	cache.Forget("pk-1")
	assert.False(t, cache.Seen("pk-1"))
}

func TestEntriesExpire(t *testing.T) {
	cache := NewFreeCache(1, 1)

	cache.MarkSeen("pk-1")
	assert.True(t, cache.Seen("pk-1"))

	time.Sleep(1100 * time.Millisecond)
	assert.False(t, cache.Seen("pk-1"))
}
