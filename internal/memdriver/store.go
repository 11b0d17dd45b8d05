// Package memdriver is the in-process reference implementation of
// internal/driver's DB/Tx/Rows contract: a map-backed table store with
// snapshot-per-transaction isolation, grounded on the teacher's
// map-backed internal/graph.ProbabilisticAdjacencyListGraph (nodeMap/
// edgeMap adjacency maps, Clone() for isolated copies) applied to rows
// instead of graph nodes/edges. It backs the CLI, the server, and this
// repository's end-to-end tests; it is the stand-in for the relational
// driver spec.md places out of scope as owned business logic.
package memdriver

import "github.com/nicolas-van/fql/internal/schema"

type memTable struct {
	rows   map[int64]map[string]schema.Value
	nextID int64
}

func newMemTable() *memTable {
	return &memTable{rows: make(map[int64]map[string]schema.Value)}
}

func (t *memTable) clone() *memTable {
	clone := &memTable{rows: make(map[int64]map[string]schema.Value, len(t.rows)), nextID: t.nextID}
	for id, row := range t.rows {
		clone.rows[id] = cloneRow(row)
	}
	return clone
}

func cloneRow(row map[string]schema.Value) map[string]schema.Value {
	out := make(map[string]schema.Value, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}

// Store holds every table's rows. It is never mutated directly by a
// caller outside this package: each Tx works against its own clone and
// is installed back into the DB only on Commit, per spec.md §5's
// transaction isolation requirement.
type Store struct {
	tables map[string]*memTable
}

// NewStore creates an empty store with one table per name.
func NewStore(tableNames []string) *Store {
	s := &Store{tables: make(map[string]*memTable, len(tableNames))}
	for _, name := range tableNames {
		s.tables[name] = newMemTable()
	}
	return s
}

func (s *Store) clone() *Store {
	clone := &Store{tables: make(map[string]*memTable, len(s.tables))}
	for name, t := range s.tables {
		clone.tables[name] = t.clone()
	}
	return clone
}

func (s *Store) table(name string) *memTable {
	t, ok := s.tables[name]
	if !ok {
		t = newMemTable()
		s.tables[name] = t
	}
	return t
}
