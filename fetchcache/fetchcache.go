// Package fetchcache is a time-stamped in-memory cache for fetched
// payloads. Entries are never evicted: a stale entry is still returned by
// Get and is only replaced when a newer fetch calls Set.
package fetchcache

import (
	"sync"
	"time"
)

// DefaultWindow is how long an entry stays fresh.
const DefaultWindow = 5 * time.Minute

// Entry is a cached payload and the time it was stored.
type Entry[T any] struct {
	Data      T
	Timestamp time.Time
}

// Cache is the contract the loaders depend on.
type Cache[T any] interface {
	Get(key string) (Entry[T], bool)
	Set(key string, data T)
	IsFresh(e Entry[T]) bool
}

// Memory is a map-backed Cache safe for concurrent use.
type Memory[T any] struct {
	mu      sync.RWMutex
	entries map[string]Entry[T]
	window  time.Duration
	now     func() time.Time
}

// NewMemory returns an empty cache whose entries stay fresh for window.
// A zero window uses DefaultWindow; a nil clock uses time.Now.
func NewMemory[T any](window time.Duration, now func() time.Time) *Memory[T] {
	if window <= 0 {
		window = DefaultWindow
	}
	if now == nil {
		now = time.Now
	}
	return &Memory[T]{
		entries: make(map[string]Entry[T]),
		window:  window,
		now:     now,
	}
}

// Get returns the entry for key, fresh or not.
func (m *Memory[T]) Get(key string) (Entry[T], bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	return e, ok
}

// Set stores data under key with the current time. The last write wins.
func (m *Memory[T]) Set(key string, data T) {
	e := Entry[T]{Data: data, Timestamp: m.now()}
	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
}

// IsFresh reports whether e was stored less than the window ago.
func (m *Memory[T]) IsFresh(e Entry[T]) bool {
	return m.now().Sub(e.Timestamp) < m.window
}

// Len returns the number of stored entries.
func (m *Memory[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
