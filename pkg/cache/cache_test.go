package cache

import (
	"testing"
	"time"
)

func TestSetUntilAndGet(t *testing.T) {
	c := New()
	c.SetUntil("key1", "value1", time.Now().Add(time.Second))
	val, ok := c.Get("key1")
	if !ok || val != "value1" {
		t.Fatalf("expected value1, got %v, exists=%v", val, ok)
	}
}

func TestExpiration(t *testing.T) {
	c := New()
	c.SetUntil("key1", "value1", time.Now().Add(100*time.Millisecond))
	time.Sleep(150 * time.Millisecond)
	_, ok := c.Get("key1")
	if ok {
		t.Fatalf("expected expired key to return false")
	}
}

func TestPurgeRemovesOnlyExpired(t *testing.T) {
	c := New()
	c.SetUntil("old", true, time.Now().Add(-time.Minute))
	c.SetUntil("older", true, time.Now().Add(-time.Hour))
	c.SetUntil("fresh", true, time.Now().Add(time.Minute))

	if n := c.Purge(); n != 2 {
		t.Fatalf("expected 2 purged entries, got %d", n)
	}
	if c.Len() != 1 {
		t.Fatalf("expected 1 remaining entry, got %d", c.Len())
	}
	if _, ok := c.Get("fresh"); !ok {
		t.Fatalf("expected fresh entry to survive purge")
	}
}
