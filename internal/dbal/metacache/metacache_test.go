package metacache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGet_MissOnEmptyCache(t *testing.T) {
	c := New(time.Minute)

	_, ok := c.Get("entities/acme/billing/invoice")
	assert.False(t, ok)
	assert.Equal(t, uint64(1), c.Stats().Misses)
}

func TestPutThenGet_Hit(t *testing.T) {
	c := New(time.Minute)

	c.Put("schema", map[string]string{"field": "type"})
	value, ok := c.Get("schema")

	assert.True(t, ok)
	assert.Equal(t, map[string]string{"field": "type"}, value)
	assert.Equal(t, uint64(1), c.Stats().Hits)
}

func TestGet_ExpiredEntryIsMiss(t *testing.T) {
	c := New(-time.Second) // already-expired TTL

	c.Put("schema", "value")
	_, ok := c.Get("schema")

	assert.False(t, ok)
}

func TestInvalidate_SingleKey(t *testing.T) {
	c := New(time.Minute)
	c.Put("a", 1)
	c.Put("b", 2)

	c.Invalidate("a")

	_, ok := c.Get("a")
	assert.False(t, ok)

	value, ok := c.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 2, value)
}

func TestInvalidateAll_ClearsEveryEntry(t *testing.T) {
	c := New(time.Minute)
	c.Put("a", 1)
	c.Put("b", 2)

	c.InvalidateAll()

	_, okA := c.Get("a")
	_, okB := c.Get("b")
	assert.False(t, okA)
	assert.False(t, okB)
}

func TestInvalidate_UnknownKeyIsNoop(t *testing.T) {
	c := New(time.Minute)
	assert.NotPanics(t, func() { c.Invalidate("missing") })
}
