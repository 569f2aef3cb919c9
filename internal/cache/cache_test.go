package cache

import (
	"strconv"
	"sync"
	"testing"
)

func TestNew(t *testing.T) {
	c := New[string, int]("test", 100)
	if c.Capacity() != 100 {
		t.Errorf("expected capacity 100, got %d", c.Capacity())
	}
	if c.Len() != 0 {
		t.Errorf("expected empty cache, got %d entries", c.Len())
	}

	tiny := New[string, int]("test", 0)
	if tiny.Capacity() != 1 {
		t.Errorf("expected capacity raised to 1, got %d", tiny.Capacity())
	}
}

func TestGetPut(t *testing.T) {
	c := New[string, int]("test", 10)
	c.Put("key1", 42)

	val, ok := c.Get("key1")
	if !ok {
		t.Fatal("expected key1 to exist")
	}
	if val != 42 {
		t.Errorf("expected 42, got %d", val)
	}

	if _, ok := c.Get("nonexistent"); ok {
		t.Error("expected nonexistent key to be absent")
	}
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	const max = 4
	c := New[string, int]("test", max)
	for i := 0; i <= max; i++ {
		c.Put(strconv.Itoa(i), i)
	}

	if c.Len() != max {
		t.Fatalf("expected %d entries, got %d", max, c.Len())
	}
	if c.Contains("0") {
		t.Error("expected oldest key 0 to be evicted")
	}
	for i := 1; i <= max; i++ {
		if !c.Contains(strconv.Itoa(i)) {
			t.Errorf("expected key %d to survive", i)
		}
	}
	if got := c.Stats().Evictions; got != 1 {
		t.Errorf("expected 1 eviction, got %d", got)
	}
}

func TestGetPromotes(t *testing.T) {
	const max = 4
	c := New[string, int]("test", max)
	c.Put("keep", 0)
	for i := 1; i < max; i++ {
		c.Put(strconv.Itoa(i), i)
	}

	if _, ok := c.Get("keep"); !ok {
		t.Fatal("expected keep to exist")
	}

	// keep is now newest, so M-1 inserts evict only the older keys
	for i := 0; i < max-1; i++ {
		c.Put("new"+strconv.Itoa(i), i)
	}
	if !c.Contains("keep") {
		t.Error("expected promoted key to survive")
	}
	if c.Len() != max {
		t.Errorf("expected %d entries, got %d", max, c.Len())
	}
}

func TestPutExistingKeepsSize(t *testing.T) {
	c := New[string, int]("test", 3)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("a", 10)

	if c.Len() != 2 {
		t.Errorf("expected 2 entries, got %d", c.Len())
	}
	if v, _ := c.Get("a"); v != 10 {
		t.Errorf("expected overwritten value 10, got %d", v)
	}
}

func TestNeverExceedsCapacity(t *testing.T) {
	c := New[int, int]("test", 16)
	for i := 0; i < 1000; i++ {
		c.Put(i, i)
		if c.Len() > 16 {
			t.Fatalf("cache grew to %d entries", c.Len())
		}
	}
}

func TestRemoveAndPurge(t *testing.T) {
	c := New[string, int]("test", 10)
	c.Put("a", 1)
	c.Put("b", 2)

	if !c.Remove("a") {
		t.Error("expected Remove to report existing key")
	}
	if c.Remove("a") {
		t.Error("expected second Remove to report absent key")
	}

	c.Purge()
	if c.Len() != 0 {
		t.Errorf("expected 0 entries after purge, got %d", c.Len())
	}
	if c.Stats().Evictions != 0 {
		t.Errorf("purge should not count evictions, got %d", c.Stats().Evictions)
	}
}

func TestStatsCountsHitsAndMisses(t *testing.T) {
	c := New[string, int]("test", 10)
	c.Put("a", 1)
	c.Get("a")
	c.Get("a")
	c.Get("b")

	s := c.Stats()
	if s.Hits != 2 || s.Misses != 1 {
		t.Errorf("expected 2 hits and 1 miss, got %d/%d", s.Hits, s.Misses)
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := New[int, int]("test", 100)
	var wg sync.WaitGroup

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				c.Put(n*1000+j, j)
				c.Get(n*1000 + j/2)
			}
		}(i)
	}
	wg.Wait()

	if c.Len() > 100 {
		t.Errorf("expected at most 100 entries, got %d", c.Len())
	}
}
