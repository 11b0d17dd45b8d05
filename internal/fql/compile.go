// Package fql ties the lexer, parser, and AST cache together into the
// single entry point the rest of the compiler pipeline uses to go from
// source text to an AST.
package fql

import (
	"github.com/nicolas-van/fql/internal/fql/ast"
	"github.com/nicolas-van/fql/internal/fql/exprcache"
	"github.com/nicolas-van/fql/internal/fql/parser"
)

// Compiler parses FQL source text into ASTs, memoizing results in a
// bounded LRU keyed by exact source text.
type Compiler struct {
	cache *exprcache.Cache
}

// NewCompiler builds a Compiler whose cache holds up to capacity entries.
// capacity <= 0 disables caching.
func NewCompiler(capacity int) *Compiler {
	return &Compiler{cache: exprcache.New(capacity)}
}

// Compile returns the AST for source, reusing a cached parse when
// available. A cache hit returns the identical *ast.Node produced by the
// original cold parse.
func (c *Compiler) Compile(source string) (ast.Node, error) {
	if node, ok := c.cache.Get(source); ok {
		return node, nil
	}
	node, err := parser.Parse(source)
	if err != nil {
		return nil, err
	}
	c.cache.Put(source, node)
	return node, nil
}

// CacheLen reports the number of ASTs currently cached, for diagnostics
// and tests.
func (c *Compiler) CacheLen() int {
	return c.cache.Len()
}
