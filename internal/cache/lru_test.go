package cache

import (
	"fmt"
	"testing"
	"time"
)

func TestLRUCacheGetSet(t *testing.T) {
	c := NewLRUCache[string](10, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Fatalf("expected miss for unknown key")
	}

	c.Set("a", "value-a")
	got, ok := c.Get("a")
	if !ok || got != "value-a" {
		t.Fatalf("Get(a) = %q, %v", got, ok)
	}

	// Overwriting a key keeps a single entry.
	c.Set("a", "value-a2")
	got, _ = c.Get("a")
	if got != "value-a2" {
		t.Errorf("Get(a) after overwrite = %q", got)
	}
	if c.Size() != 1 {
		t.Errorf("size = %d, want 1", c.Size())
	}
}

func TestLRUCacheEvictsOldest(t *testing.T) {
	c := NewLRUCache[int](3, time.Minute)
	for i := 0; i < 3; i++ {
		c.Set(fmt.Sprintf("k%d", i), i)
	}

	// Touch k0 so k1 becomes the eviction candidate.
	if _, ok := c.Get("k0"); !ok {
		t.Fatalf("k0 missing before eviction")
	}

	c.Set("k3", 3)
	if _, ok := c.Get("k1"); ok {
		t.Errorf("k1 should have been evicted")
	}
	if _, ok := c.Get("k0"); !ok {
		t.Errorf("recently used k0 should survive")
	}
	if c.Size() != 3 {
		t.Errorf("size = %d, want 3", c.Size())
	}
}

func TestLRUCacheTTLExpiry(t *testing.T) {
	c := NewLRUCache[int](10, 10*time.Millisecond)
	c.Set("a", 1)
	c.Set("b", 2)

	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("a"); ok {
		t.Errorf("expired entry still served")
	}

	c.Set("c", 3)
	removed := c.CleanExpired()
	if removed != 1 {
		t.Errorf("CleanExpired removed %d, want 1", removed)
	}
	if _, ok := c.Get("c"); !ok {
		t.Errorf("fresh entry removed by cleanup")
	}
}

func TestLRUCacheDelete(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	c.Set("a", 1)
	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Errorf("deleted entry still present")
	}
	// Deleting a missing key is a no-op.
	c.Delete("missing")
}
