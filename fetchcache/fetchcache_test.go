package fetchcache

import (
	"sync"
	"testing"
	"time"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestGetMissing(t *testing.T) {
	c := NewMemory[string](0, nil)
	if _, ok := c.Get("nope"); ok {
		t.Fatal("expected no entry")
	}
}

func TestSetStoresTimestamp(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	c := NewMemory[string](time.Minute, clock.Now)
	c.Set("a", "alpha")

	e, ok := c.Get("a")
	if !ok {
		t.Fatal("expected entry")
	}
	if e.Data != "alpha" {
		t.Errorf("Data = %q, want %q", e.Data, "alpha")
	}
	if !e.Timestamp.Equal(clock.Now()) {
		t.Errorf("Timestamp = %v, want %v", e.Timestamp, clock.Now())
	}
}

func TestIsFreshWindow(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	c := NewMemory[int](0, clock.Now)
	c.Set("k", 1)
	e, _ := c.Get("k")

	if !c.IsFresh(e) {
		t.Fatal("new entry should be fresh")
	}
	clock.Advance(DefaultWindow - time.Second)
	if !c.IsFresh(e) {
		t.Fatal("entry should be fresh just inside the window")
	}
	clock.Advance(time.Second)
	if c.IsFresh(e) {
		t.Fatal("entry should be stale once the window has elapsed")
	}
}

func TestStaleEntryIsKept(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	c := NewMemory[int](time.Minute, clock.Now)
	c.Set("k", 1)
	clock.Advance(time.Hour)

	e, ok := c.Get("k")
	if !ok || e.Data != 1 {
		t.Fatalf("stale entry = %+v, %v; want data 1", e, ok)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestSetOverwrites(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	c := NewMemory[int](time.Minute, clock.Now)
	c.Set("k", 1)
	clock.Advance(2 * time.Minute)
	c.Set("k", 2)

	e, _ := c.Get("k")
	if e.Data != 2 {
		t.Errorf("Data = %d, want 2", e.Data)
	}
	if !c.IsFresh(e) {
		t.Error("overwritten entry should be fresh")
	}
}
