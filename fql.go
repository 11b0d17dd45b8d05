// Package fql is the public entry point: compiling FQL source, loading
// a schema catalog, and obtaining table managers bound to a driver.
// Mirrors the teacher's root pgraph.go — a thin facade of type aliases
// and constructors over the internal packages that do the real work.
package fql

import (
	"context"

	"github.com/nicolas-van/fql/internal/driver"
	compiler "github.com/nicolas-van/fql/internal/fql"
	"github.com/nicolas-van/fql/internal/fql/ast"
	"github.com/nicolas-van/fql/internal/manager"
	"github.com/nicolas-van/fql/internal/memdriver"
	"github.com/nicolas-van/fql/internal/schema"
)

type (
	Node                          = ast.Node
	Value                         = schema.Value
	Table                         = schema.Table
	Catalog                       = schema.Catalog
	TableManager                  = manager.TableManager
	StateMachineManager           = manager.StateMachineManager
	PersistenceError              = manager.PersistenceError
	UnrecoverablePersistenceError = manager.UnrecoverablePersistenceError
)

// DefaultCacheCapacity is the AST cache size NewCompiler uses when
// callers have no specific capacity in mind.
const DefaultCacheCapacity = 200

// Compiler parses FQL source into a Node, caching parses by source
// text.
type Compiler struct {
	inner *compiler.Compiler
}

// NewCompiler creates a Compiler whose AST cache holds up to
// cacheCapacity entries. A capacity of zero or less disables caching.
func NewCompiler(cacheCapacity int) *Compiler {
	return &Compiler{inner: compiler.NewCompiler(cacheCapacity)}
}

// Compile parses source, or returns the cached AST from a previous call
// with identical source text.
func (c *Compiler) Compile(source string) (Node, error) {
	return c.inner.Compile(source)
}

// CacheLen reports how many distinct sources are currently cached.
func (c *Compiler) CacheLen() int { return c.inner.CacheLen() }

// Database bundles a schema catalog with the driver.DB statements
// ultimately run against. It is the entry point most callers construct
// once at startup and share across requests.
type Database struct {
	Catalog schema.Catalog
	DB      driver.DB
}

// Open wraps an existing catalog and driver.DB as a Database.
func Open(catalog schema.Catalog, db driver.DB) *Database {
	return &Database{Catalog: catalog, DB: db}
}

// OpenMemory builds a Database backed by the in-process reference
// driver (internal/memdriver), pre-sized from catalog's table list.
// Used by the CLI, the server, and this repository's own tests.
func OpenMemory(catalog *schema.Memory) *Database {
	return &Database{Catalog: catalog, DB: memdriver.NewDB(catalog.TableNames())}
}

// TableManager returns a TableManager bound to the named table.
func (d *Database) TableManager(tableName string) (*TableManager, error) {
	t, err := d.Catalog.LookupTable(tableName)
	if err != nil {
		return nil, err
	}
	return manager.New(t, d.Catalog), nil
}

// StateMachineManager returns a StateMachineManager bound to the named
// table, which must declare a non-nullable "state" column.
func (d *Database) StateMachineManager(tableName string) (*StateMachineManager, error) {
	t, err := d.Catalog.LookupTable(tableName)
	if err != nil {
		return nil, err
	}
	return manager.NewStateMachine(t, d.Catalog)
}

// WithSession opens one transaction against d.DB and runs fn with a
// context carrying it; see manager.WithSession.
func WithSession(ctx context.Context, d *Database, fn func(ctx context.Context) error) error {
	return manager.WithSession(ctx, d.DB, fn)
}
