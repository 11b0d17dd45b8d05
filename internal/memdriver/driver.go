package memdriver

import (
	"context"
	"sync"

	"github.com/nicolas-van/fql/internal/driver"
	"github.com/nicolas-van/fql/internal/fql/ast"
	"github.com/nicolas-van/fql/internal/relquery"
	"github.com/nicolas-van/fql/internal/schema"
)

// DB is the in-process reference driver.DB. A single store is shared by
// all transactions; each Tx works against its own clone, installed back
// atomically on Commit, giving the snapshot isolation spec.md §5
// describes without any lock held across statement boundaries.
type DB struct {
	mu    sync.Mutex
	store *Store
}

// NewDB creates a DB with one empty table per name in tableNames, used
// to pre-size the store from a schema.Catalog's table list.
func NewDB(tableNames []string) *DB {
	return &DB{store: NewStore(tableNames)}
}

func (db *DB) Begin(ctx context.Context) (driver.Tx, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return &Tx{db: db, store: db.store.clone()}, nil
}

// Tx is the in-process reference driver.Tx.
type Tx struct {
	db    *DB
	store *Store
	done  bool
}

var _ driver.Tx = (*Tx)(nil)
var _ driver.DB = (*DB)(nil)

func (tx *Tx) Query(ctx context.Context, q *relquery.Query) (driver.Rows, error) {
	if tx.done {
		return nil, errf("transaction already closed")
	}
	rows, err := tx.executeQuery(q)
	if err != nil {
		return nil, err
	}
	return &Rows{rows: rows}, nil
}

func (tx *Tx) Insert(ctx context.Context, table *schema.Table, rows []map[string]relquery.Expr) ([]int64, error) {
	if tx.done {
		return nil, errf("transaction already closed")
	}
	t := tx.store.table(table.Name)
	ids := make([]int64, len(rows))
	for i, values := range rows {
		t.nextID++
		id := t.nextID
		row := make(map[string]schema.Value, len(values)+1)
		row["id"] = schema.Int64Value(id)
		for col, e := range values {
			v, err := tx.evalScalar(nil, e)
			if err != nil {
				return nil, err
			}
			row[col] = v
		}
		t.rows[id] = row
		ids[i] = id
	}
	return ids, nil
}

func (tx *Tx) Exec(ctx context.Context, m *relquery.Mutation) (int64, error) {
	if tx.done {
		return 0, errf("transaction already closed")
	}
	matched, err := tx.matchingIDs(m)
	if err != nil {
		return 0, err
	}
	t := tx.store.table(m.Table.Name)
	var count int64
	for _, id := range matched {
		row, ok := t.rows[id]
		if !ok {
			continue
		}
		if m.Values == nil {
			delete(t.rows, id)
			count++
			continue
		}
		for col, e := range m.Values {
			v, err := tx.evalScalar(nil, e)
			if err != nil {
				return 0, err
			}
			row[col] = v
		}
		count++
	}
	return count, nil
}

// matchingIDs evaluates the "id IN (SELECT id FROM ... WHERE ...)"
// predicate Assembler.Mutation builds, returning the matched ids in a
// deterministic order.
func (tx *Tx) matchingIDs(m *relquery.Mutation) ([]int64, error) {
	bin, ok := m.Where.(relquery.Binary)
	if !ok || bin.Op != ast.In {
		return nil, errf("mutation predicate must be the 'id in (subquery)' pattern")
	}
	sub, ok := bin.Right.(relquery.Subquery)
	if !ok {
		return nil, errf("mutation predicate's right-hand side must be a subquery")
	}
	rows, err := tx.executeQuery(sub.Query)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		v, ok := r["id"]
		if !ok || v.IsNil {
			continue
		}
		ids = append(ids, v.I)
	}
	return ids, nil
}

func (tx *Tx) Commit() error {
	if tx.done {
		return errf("transaction already closed")
	}
	tx.done = true
	tx.db.mu.Lock()
	defer tx.db.mu.Unlock()
	tx.db.store = tx.store
	return nil
}

func (tx *Tx) Rollback() error {
	tx.done = true
	return nil
}

// Rows is the in-process reference driver.Rows.
type Rows struct {
	rows []resultRow
	pos  int
}

func (r *Rows) Next() bool {
	if r.pos >= len(r.rows) {
		return false
	}
	r.pos++
	return true
}

func (r *Rows) Values() (map[string]schema.Value, error) {
	if r.pos == 0 || r.pos > len(r.rows) {
		return nil, errf("Values called without a successful Next")
	}
	return r.rows[r.pos-1], nil
}

func (r *Rows) Close() error {
	r.pos = len(r.rows)
	return nil
}
