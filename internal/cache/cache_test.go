package cache

import (
	"fmt"
	"testing"
	"time"
)

func TestCache_GetSet(t *testing.T) {
	c := New[string](5 * time.Second)

	c.Set("greeting", "hello")

	got, ok := c.Get("greeting")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got != "hello" {
		t.Errorf("unexpected value: %s", got)
	}
}

func TestCache_Miss(t *testing.T) {
	c := New[string](5 * time.Second)

	if _, ok := c.Get("nonexistent"); ok {
		t.Error("expected cache miss for nonexistent key")
	}
}

func TestCache_Overwrite(t *testing.T) {
	c := New[int](5 * time.Second)

	c.Set("k", 1)
	c.Set("k", 2)

	got, ok := c.Get("k")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got != 2 {
		t.Errorf("expected overwritten value 2, got %d", got)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 entry after overwrite, got %d", c.Len())
	}
}

func TestCache_TTLExpiration(t *testing.T) {
	c := New[string](50 * time.Millisecond)

	c.Set("k", "data")

	// Should be found immediately
	if _, ok := c.Get("k"); !ok {
		t.Fatal("expected cache hit before expiry")
	}

	time.Sleep(60 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Error("expected cache miss after TTL expiration")
	}

	// Lazy eviction on Get removed the entry, so Prune finds nothing left
	if n := c.Prune(); n != 0 {
		t.Errorf("expected 0 entries pruned after lazy eviction, got %d", n)
	}
	if c.Len() != 0 {
		t.Errorf("expected empty cache, got %d entries", c.Len())
	}
}

func TestCache_Prune(t *testing.T) {
	c := New[string](50 * time.Millisecond)

	c.Set("old1", "a")
	c.Set("old2", "b")
	time.Sleep(60 * time.Millisecond)
	c.Set("fresh", "c")

	if n := c.Prune(); n != 2 {
		t.Errorf("expected 2 entries pruned, got %d", n)
	}
	if _, ok := c.Get("fresh"); !ok {
		t.Error("expected fresh entry to survive prune")
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 entry after prune, got %d", c.Len())
	}
}

func TestCache_Clear(t *testing.T) {
	c := New[string](5 * time.Second)

	for i := 0; i < 5; i++ {
		c.Set(fmt.Sprintf("key%d", i), "data")
	}

	if n := c.Clear(); n != 5 {
		t.Errorf("expected Clear to report 5 entries, got %d", n)
	}
	if c.Len() != 0 {
		t.Errorf("expected empty cache after Clear, got %d entries", c.Len())
	}
	if _, ok := c.Get("key0"); ok {
		t.Error("expected miss after Clear")
	}
}

func TestCache_StartStop(t *testing.T) {
	c := New[string](20 * time.Millisecond)
	c.Start(30 * time.Millisecond)
	defer c.Stop()

	c.Set("k", "data")
	time.Sleep(80 * time.Millisecond)

	// The background prune loop should have swept the expired entry without
	// any Get touching it.
	if c.Len() != 0 {
		t.Errorf("expected background prune to remove expired entry, got %d entries", c.Len())
	}

	// Stop twice is safe
	c.Stop()
	c.Stop()
}
