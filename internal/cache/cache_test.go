package cache

import (
	"testing"
	"time"
)

func TestCacheSetGetDelete(t *testing.T) {
	c := New(time.Minute)

	if _, ok := c.Get("k"); ok {
		t.Fatalf("empty cache returned a value")
	}

	c.Set("k", 42)

	v, ok := c.Get("k")
	if !ok || v.(int) != 42 {
		t.Fatalf("got %v (%v)", v, ok)
	}

	c.Delete("k")

	if _, ok := c.Get("k"); ok {
		t.Fatalf("value survived delete")
	}
}

func TestCacheExpiry(t *testing.T) {
	c := New(10 * time.Millisecond)

	c.Set("k", "v")
	time.Sleep(25 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Fatalf("value survived its ttl")
	}
}

func TestCacheClear(t *testing.T) {
	c := New(time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Clear()

	if _, ok := c.Get("a"); ok {
		t.Fatalf("value survived clear")
	}

	if _, ok := c.Get("b"); ok {
		t.Fatalf("value survived clear")
	}
}
