package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestCache(ttl time.Duration, maxSize int) (*Expiring[string], *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	return New(ttl, maxSize, WithClock[string](clock.Now)), clock
}

func TestExpiring_RoundTrip(t *testing.T) {
	c, _ := newTestCache(5*time.Minute, 20)

	c.Put("k", "value")
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "value", got)
}

func TestExpiring_MissingKey(t *testing.T) {
	c, _ := newTestCache(5*time.Minute, 20)

	_, ok := c.Get("nope")
	assert.False(t, ok)
}

func TestExpiring_TTLExpiry(t *testing.T) {
	c, clock := newTestCache(5*time.Minute, 20)

	c.Put("k", "value")

	clock.Advance(4 * time.Minute)
	_, ok := c.Get("k")
	assert.True(t, ok, "entry should survive within TTL")

	clock.Advance(2 * time.Minute)
	_, ok = c.Get("k")
	assert.False(t, ok, "entry should expire after TTL")
	assert.Equal(t, 0, c.Len(), "expired entry should be evicted on read")
}

func TestExpiring_BoundedSize(t *testing.T) {
	c, _ := newTestCache(5*time.Minute, 20)

	for i := 0; i < 21; i++ {
		c.Put(fmt.Sprintf("key-%d", i), "v")
	}

	assert.Equal(t, 20, c.Len())
	_, ok := c.Get("key-0")
	assert.False(t, ok, "first-inserted key should be evicted")
	_, ok = c.Get("key-1")
	assert.True(t, ok, "second-inserted key should survive")
	_, ok = c.Get("key-20")
	assert.True(t, ok, "newest key should survive")
}

func TestExpiring_RePutRefreshesOrder(t *testing.T) {
	c, _ := newTestCache(5*time.Minute, 2)

	c.Put("a", "1")
	c.Put("b", "2")
	c.Put("a", "3") // moves a to the back
	c.Put("c", "4") // evicts b, not a

	_, ok := c.Get("b")
	assert.False(t, ok)
	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "3", got)
}

func TestExpiring_DeleteAndClear(t *testing.T) {
	c, _ := newTestCache(5*time.Minute, 20)

	c.Put("a", "1")
	c.Put("b", "2")

	c.Delete("a")
	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestExpiring_DefaultsApplied(t *testing.T) {
	c := New[int](0, 0)
	c.Put("k", 42)
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, 42, got)
}
