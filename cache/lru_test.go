package cache_test

import (
	"testing"

	"github.com/eak1mov/go-mapsforge/cache"
)

func TestAddGet(t *testing.T) {
	c := cache.New[string, int](2)
	c.Add("a", 1)
	c.Add("b", 2)

	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %v, %v, want 1, true", v, ok)
	}
	if _, ok := c.Get("c"); ok {
		t.Errorf("Get(c) found a value")
	}
	if got, want := c.Len(), 2; got != want {
		t.Errorf("Len() = %d, want %d", got, want)
	}
}

func TestInsertionOrderEviction(t *testing.T) {
	c := cache.New[int, string](3)
	c.Add(1, "one")
	c.Add(2, "two")
	c.Add(3, "three")

	// a lookup does not protect the oldest entry
	c.Get(1)

	evicted, ok := c.Add(4, "four")
	if !ok || evicted != 1 {
		t.Fatalf("Add(4) evicted %v, %v, want 1, true", evicted, ok)
	}
	if c.Contains(1) {
		t.Errorf("key 1 survived eviction")
	}

	evicted, ok = c.Add(5, "five")
	if !ok || evicted != 2 {
		t.Errorf("Add(5) evicted %v, %v, want 2, true", evicted, ok)
	}
	for _, k := range []int{3, 4, 5} {
		if !c.Contains(k) {
			t.Errorf("key %d missing", k)
		}
	}
}

func TestReplaceKeepsSlot(t *testing.T) {
	c := cache.New[int, string](2)
	c.Add(1, "one")
	c.Add(2, "two")
	if _, ok := c.Add(1, "uno"); ok {
		t.Errorf("replacing a key evicted another one")
	}
	if v, _ := c.Get(1); v != "uno" {
		t.Errorf("Get(1) = %q, want %q", v, "uno")
	}
	if evicted, _ := c.Add(3, "three"); evicted != 1 {
		t.Errorf("Add(3) evicted %v, want 1", evicted)
	}
}

func TestClear(t *testing.T) {
	c := cache.New[int, int](4)
	for i := range 10 {
		c.Add(i, i*i)
	}
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() = %d after Clear", c.Len())
	}
	c.Add(42, 1)
	if v, ok := c.Get(42); !ok || v != 1 {
		t.Errorf("Get(42) = %v, %v after Clear", v, ok)
	}
}
