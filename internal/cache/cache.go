// Package cache provides a small expiring, bounded in-memory map.
//
// Entries expire after a fixed TTL and the map never grows past a
// fixed number of entries, evicting the oldest-inserted entry first.
// Reads do not refresh entry age. The lineage service keeps its built
// graphs here.
package cache

import (
	"sync"
	"time"
)

// Default sizing used by callers that don't have a reason to differ.
const (
	DefaultTTL     = 5 * time.Minute
	DefaultMaxSize = 20
)

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// Expiring is a TTL-bounded map with insertion-order eviction.
// Keys are strings; normalization (case folding etc.) is the caller's
// concern. The zero value is not usable; use New.
type Expiring[V any] struct {
	mu      sync.Mutex
	entries map[string]entry[V]
	order   []string // insertion order, oldest first
	ttl     time.Duration
	maxSize int
	now     func() time.Time
}

// Option configures an Expiring map.
type Option[V any] func(*Expiring[V])

// WithClock overrides the time source. Tests use this to simulate
// TTL expiry without sleeping.
func WithClock[V any](now func() time.Time) Option[V] {
	return func(e *Expiring[V]) { e.now = now }
}

// New creates an Expiring map with the given TTL and maximum size.
// Non-positive arguments fall back to the package defaults.
func New[V any](ttl time.Duration, maxSize int, opts ...Option[V]) *Expiring[V] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	e := &Expiring[V]{
		entries: make(map[string]entry[V]),
		ttl:     ttl,
		maxSize: maxSize,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Get returns the value for key if present and not expired.
// Expired entries are evicted on read.
func (e *Expiring[V]) Get(key string) (V, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ent, ok := e.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if e.now().Sub(ent.storedAt) > e.ttl {
		e.remove(key)
		var zero V
		return zero, false
	}
	return ent.value, true
}

// Put stores value under key. Re-putting an existing key refreshes its
// timestamp and moves it to the back of the eviction order. When the
// map is full, the oldest-inserted entry is evicted.
func (e *Expiring[V]) Put(key string, value V) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.entries[key]; ok {
		e.remove(key)
	}
	for len(e.entries) >= e.maxSize {
		e.remove(e.order[0])
	}
	e.entries[key] = entry[V]{value: value, storedAt: e.now()}
	e.order = append(e.order, key)
}

// Delete removes key if present.
func (e *Expiring[V]) Delete(key string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.remove(key)
}

// Len returns the number of entries, including any not yet observed
// as expired.
func (e *Expiring[V]) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.entries)
}

// Clear drops all entries.
func (e *Expiring[V]) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.entries = make(map[string]entry[V])
	e.order = e.order[:0]
}

// remove deletes key from both the map and the order slice.
// Callers must hold e.mu.
func (e *Expiring[V]) remove(key string) {
	if _, ok := e.entries[key]; !ok {
		return
	}
	delete(e.entries, key)
	for i, k := range e.order {
		if k == key {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
}
