// Package driver declares the narrow, consumed contract spec.md §6 calls
// "the relational driver": executes a relquery.Query/Mutation and
// returns rows or an affected-row count. Production deployments back
// this with a real SQL driver; internal/memdriver is the in-process
// reference implementation used by this repository's tests, CLI, and
// server.
package driver

import (
	"context"
	"fmt"

	"github.com/nicolas-van/fql/internal/relquery"
	"github.com/nicolas-van/fql/internal/schema"
)

// DB opens logical-operation-scoped transactions. Exactly one Tx may be
// open per DB at a time in this repository's connection model (spec.md
// §5) — DB itself is not expected to pool concurrent transactions.
type DB interface {
	Begin(ctx context.Context) (Tx, error)
}

// Tx is a single transaction: all statements issued through it are
// observed in program order by subsequent reads on the same Tx, per
// spec.md §5.
type Tx interface {
	Query(ctx context.Context, q *relquery.Query) (Rows, error)
	Insert(ctx context.Context, table *schema.Table, rows []map[string]relquery.Expr) ([]int64, error)
	Exec(ctx context.Context, m *relquery.Mutation) (int64, error)
	Commit() error
	Rollback() error
}

// Rows iterates a result set. Values returns the current row as a map
// from the Query's requested field names to their values.
type Rows interface {
	Next() bool
	Values() (map[string]schema.Value, error)
	Close() error
}

// Error reports a failure inside the driver itself (as opposed to a
// parse/bind/operator-misuse failure, which never reaches the driver).
type Error struct {
	Message string
	Query   string // rendered query text, if the driver supplies it; may be empty
}

func (e Error) Error() string {
	if e.Query != "" {
		return fmt.Sprintf("driver error: %s (query: %s)", e.Message, e.Query)
	}
	return fmt.Sprintf("driver error: %s", e.Message)
}
