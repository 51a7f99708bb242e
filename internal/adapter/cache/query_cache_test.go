package cache

import (
	"fmt"
	"testing"
	"time"

	"docqa/internal/domain"
)

func results(text string) []domain.ScoredResult {
	return []domain.ScoredResult{{Text: text, Score: 1, Rank: 1}}
}

func TestCachePutGet(t *testing.T) {
	c := NewQueryCache(10, time.Minute)

	if _, ok := c.Get(domain.StrategyHybrid, "refund", 5); ok {
		t.Fatal("hit on empty cache")
	}

	c.Put(domain.StrategyHybrid, "refund", 5, results("refund policy"))
	got, ok := c.Get(domain.StrategyHybrid, "refund", 5)
	if !ok {
		t.Fatal("miss after Put")
	}
	if len(got) != 1 || got[0].Text != "refund policy" {
		t.Errorf("got %v", got)
	}
}

func TestCacheKeyDiscriminates(t *testing.T) {
	c := NewQueryCache(10, time.Minute)
	c.Put(domain.StrategyHybrid, "refund", 5, results("a"))

	if _, ok := c.Get(domain.StrategyDense, "refund", 5); ok {
		t.Error("hit across strategies")
	}
	if _, ok := c.Get(domain.StrategyHybrid, "refund", 3); ok {
		t.Error("hit across topK values")
	}
	if _, ok := c.Get(domain.StrategyHybrid, "refunds", 5); ok {
		t.Error("hit across queries")
	}
}

func TestCacheInvalidateExpiresEverything(t *testing.T) {
	c := NewQueryCache(10, time.Minute)
	c.Put(domain.StrategyHybrid, "q1", 5, results("a"))
	c.Put(domain.StrategyBM25, "q2", 5, results("b"))

	c.Invalidate()
	if _, ok := c.Get(domain.StrategyHybrid, "q1", 5); ok {
		t.Error("hit after invalidation")
	}
	if _, ok := c.Get(domain.StrategyBM25, "q2", 5); ok {
		t.Error("hit after invalidation")
	}
	if c.Len() != 0 {
		t.Errorf("len = %d after invalidation", c.Len())
	}
}

func TestCacheStaleGenerationRejected(t *testing.T) {
	c := NewQueryCache(10, time.Minute)
	c.Put(domain.StrategyHybrid, "q", 5, results("stale"))

	// Entries stored before a generation bump must never be served, even
	// if re-added to the map by a racing writer.
	c.Invalidate()
	c.Put(domain.StrategyHybrid, "q", 5, results("fresh"))
	got, ok := c.Get(domain.StrategyHybrid, "q", 5)
	if !ok || got[0].Text != "fresh" {
		t.Fatalf("got %v, %v", got, ok)
	}
}

func TestCacheTTLExpiry(t *testing.T) {
	c := NewQueryCache(10, time.Millisecond)
	c.Put(domain.StrategyHybrid, "q", 5, results("a"))

	time.Sleep(5 * time.Millisecond)
	if _, ok := c.Get(domain.StrategyHybrid, "q", 5); ok {
		t.Error("hit after TTL expiry")
	}
}

func TestCacheLRUEviction(t *testing.T) {
	c := NewQueryCache(2, time.Minute)
	c.Put(domain.StrategyHybrid, "q1", 5, results("a"))
	c.Put(domain.StrategyHybrid, "q2", 5, results("b"))

	// Touch q1 so q2 becomes the eviction candidate.
	if _, ok := c.Get(domain.StrategyHybrid, "q1", 5); !ok {
		t.Fatal("missing q1")
	}

	c.Put(domain.StrategyHybrid, "q3", 5, results("c"))
	if _, ok := c.Get(domain.StrategyHybrid, "q2", 5); ok {
		t.Error("least recently used entry survived eviction")
	}
	if _, ok := c.Get(domain.StrategyHybrid, "q1", 5); !ok {
		t.Error("recently used entry evicted")
	}
	if _, ok := c.Get(domain.StrategyHybrid, "q3", 5); !ok {
		t.Error("new entry missing")
	}
}

func TestCacheCapacityBound(t *testing.T) {
	c := NewQueryCache(3, time.Minute)
	for i := 0; i < 10; i++ {
		c.Put(domain.StrategyHybrid, fmt.Sprintf("q%d", i), 5, results("x"))
	}
	if c.Len() > 3 {
		t.Errorf("len = %d, exceeds capacity 3", c.Len())
	}
}
