package exprcache

import (
	"testing"

	"github.com/nicolas-van/fql/internal/fql/ast"
)

func lit(i int64) ast.Node {
	return ast.Literal{Value: ast.Value{Kind: ast.Int64, I: i}}
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := New(2)
	c.Put("A", lit(1))
	c.Put("B", lit(2))
	c.Put("C", lit(3))

	if _, ok := c.Get("A"); ok {
		t.Fatal("A should have been evicted")
	}
	if _, ok := c.Get("B"); !ok {
		t.Fatal("B should still be cached")
	}
	if _, ok := c.Get("C"); !ok {
		t.Fatal("C should still be cached")
	}
	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}
}

func TestCacheGetCountsAsAccess(t *testing.T) {
	c := New(2)
	c.Put("A", lit(1))
	c.Put("B", lit(2))
	c.Get("A") // touch A, making B the least recently used
	c.Put("C", lit(3))

	if _, ok := c.Get("B"); ok {
		t.Fatal("B should have been evicted, A should have survived via Get")
	}
	if _, ok := c.Get("A"); !ok {
		t.Fatal("A should still be cached")
	}
}

func TestCacheZeroCapacityDisablesCaching(t *testing.T) {
	c := New(0)
	c.Put("A", lit(1))
	if _, ok := c.Get("A"); ok {
		t.Fatal("capacity 0 should never cache anything")
	}
	if c.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", c.Len())
	}
}

func TestCacheHitReturnsIdenticalNode(t *testing.T) {
	c := New(4)
	node := lit(7)
	c.Put("A", node)
	got, ok := c.Get("A")
	if !ok {
		t.Fatal("expected a cache hit")
	}
	if !ast.Equal(got, node) {
		t.Fatalf("cached node changed: got %s", got)
	}
}
