// Package exprcache provides a bounded LRU cache of compiled FQL ASTs,
// keyed by exact source text.
package exprcache

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/nicolas-van/fql/internal/fql/ast"
)

// DefaultCapacity is the default number of entries retained, matching
// spec.md's process-wide default.
const DefaultCapacity = 200

// Cache is a process-wide, thread-safe LRU of parsed ASTs. A cache hit
// produces the exact same *ast.Node value handed out on a cold parse,
// never a re-derived copy, and counts as an access for eviction purposes.
//
// Capacity 0 disables caching entirely: every Get is a miss and Put is a
// no-op. hashicorp/golang-lru panics when constructed with a non-positive
// size, so that case is special-cased rather than forwarded.
type Cache struct {
	inner *lru.Cache[string, ast.Node]
}

// New builds a Cache with room for capacity entries. capacity <= 0
// disables caching.
func New(capacity int) *Cache {
	if capacity <= 0 {
		return &Cache{}
	}
	inner, err := lru.New[string, ast.Node](capacity)
	if err != nil {
		// Only possible failure is a non-positive size, excluded above.
		panic(err)
	}
	return &Cache{inner: inner}
}

// Get returns the cached AST for source, if present. A hit counts as an
// access for LRU purposes.
func (c *Cache) Get(source string) (ast.Node, bool) {
	if c.inner == nil {
		return nil, false
	}
	return c.inner.Get(source)
}

// Put stores the AST for source, evicting the least-recently-used entry
// if the cache is at capacity.
func (c *Cache) Put(source string, node ast.Node) {
	if c.inner == nil {
		return
	}
	c.inner.Add(source, node)
}

// Len reports the number of entries currently cached.
func (c *Cache) Len() int {
	if c.inner == nil {
		return 0
	}
	return c.inner.Len()
}

// Keys returns the cached keys ordered from least- to most-recently used.
func (c *Cache) Keys() []string {
	if c.inner == nil {
		return nil
	}
	return c.inner.Keys()
}
