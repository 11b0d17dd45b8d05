// Package manager is the data-access façade FQL callers build on top of
// the compiler pipeline: CRUD and state-machine operations over a
// single table, each taking an already-parsed FQL predicate (an
// ast.Node, typically produced by fql.Compile) rather than raw SQL, and
// binding it against the table itself.
//
// Grounded on original_source/asgard/table_manager.py's TableManager /
// StateTableManager, translated from the ambient werkzeug.local
// connection proxy onto the explicit context.Context session of
// WithSession.
package manager

import (
	"context"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/nicolas-van/fql/internal/assembler"
	"github.com/nicolas-van/fql/internal/binder"
	"github.com/nicolas-van/fql/internal/fql/ast"
	"github.com/nicolas-van/fql/internal/relquery"
	"github.com/nicolas-van/fql/internal/schema"
)

// TableManager provides generic create/read/update/delete operations
// over one table, delegating compilation to an Assembler and execution
// to whatever driver.Tx is open on the supplied context.
type TableManager struct {
	Table     *schema.Table
	assembler *assembler.Assembler
	log       *logrus.Entry
}

// New creates a TableManager for table, resolving foreign-key paths
// against catalog.
func New(table *schema.Table, catalog schema.Catalog) *TableManager {
	return &TableManager{
		Table:     table,
		assembler: assembler.New(binder.New(catalog)),
		log:       logrus.WithField("table", table.Name),
	}
}

// Create inserts one row and returns its id.
func (m *TableManager) Create(ctx context.Context, values map[string]schema.Value) (int64, error) {
	ids, err := m.CreateMany(ctx, []map[string]schema.Value{values})
	if err != nil {
		return 0, err
	}
	return ids[0], nil
}

// CreateMany inserts len(valuesList) rows in one statement, returning
// their ids in the same order.
func (m *TableManager) CreateMany(ctx context.Context, valuesList []map[string]schema.Value) ([]int64, error) {
	tx, err := txFromContext(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]map[string]relquery.Expr, len(valuesList))
	for i, values := range valuesList {
		if err := m.checkColumns(values); err != nil {
			return nil, err
		}
		row := make(map[string]relquery.Expr, len(values))
		for k, v := range values {
			row[k] = relquery.Literal{Value: v}
		}
		rows[i] = row
	}
	ids, err := tx.Insert(ctx, m.Table, rows)
	if err != nil {
		return nil, persistenceErrorf("creating rows in %s: %v", m.Table.Name, err)
	}
	m.log.WithField("count", len(ids)).Debug("created rows")
	return ids, nil
}

// ReadByID returns the requested fields of the row identified by id. A
// nil fields list returns every column. It raises a PersistenceError if
// id is not found.
func (m *TableManager) ReadByID(ctx context.Context, id int64, fields []string) (map[string]schema.Value, error) {
	rows, err := m.ReadManyByID(ctx, []int64{id}, fields)
	if err != nil {
		return nil, err
	}
	return rows[0], nil
}

// ReadManyByID returns rows in the same order as ids, raising a
// PersistenceError if any id is missing. When fields omits "id", it is
// still fetched internally (to index the result) and stripped back out
// before returning, preserving read_by_id's historical "fields without
// id" contract.
func (m *TableManager) ReadManyByID(ctx context.Context, ids []int64, fields []string) ([]map[string]schema.Value, error) {
	hasID := len(fields) == 0
	for _, f := range fields {
		if f == "id" {
			hasID = true
		}
	}
	queryFields := fields
	if !hasID && len(fields) > 0 {
		queryFields = append(append([]string{}, fields...), "id")
	}

	where := idInList(ids)
	rows, err := m.Read(ctx, where, nil, queryFields, nil, nil, nil)
	if err != nil {
		return nil, err
	}

	index := make(map[int64]map[string]schema.Value, len(rows))
	for _, r := range rows {
		index[r["id"].I] = r
	}

	out := make([]map[string]schema.Value, len(ids))
	for i, id := range ids {
		row, ok := index[id]
		if !ok {
			return nil, notFoundf("id %d was not found in table %s", id, m.Table.Name)
		}
		if !hasID && len(fields) > 0 {
			stripped := make(map[string]schema.Value, len(row)-1)
			for k, v := range row {
				if k != "id" {
					stripped[k] = v
				}
			}
			row = stripped
		}
		out[i] = row
	}
	return out, nil
}

// Read executes a SELECT. where may be nil for "no filter"; fields nil
// selects every column; order entries are "path asc"/"path desc"
// specifiers.
func (m *TableManager) Read(ctx context.Context, where ast.Node, vars map[string]schema.Value, fields, order []string, limit, offset *int64) ([]map[string]schema.Value, error) {
	tx, err := txFromContext(ctx)
	if err != nil {
		return nil, err
	}
	q, err := m.assembler.Query(assembler.QuerySpec{
		Root: m.Table, Where: where, Vars: vars, Fields: fields, Order: order, Limit: limit, Offset: offset,
	})
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, q)
	if err != nil {
		return nil, persistenceErrorf("reading from %s: %v", m.Table.Name, err)
	}
	defer rows.Close()

	var out []map[string]schema.Value
	for rows.Next() {
		v, err := rows.Values()
		if err != nil {
			return nil, persistenceErrorf("reading from %s: %v", m.Table.Name, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// Count returns the number of rows matching where.
func (m *TableManager) Count(ctx context.Context, where ast.Node, vars map[string]schema.Value) (int64, error) {
	tx, err := txFromContext(ctx)
	if err != nil {
		return 0, err
	}
	q, err := m.assembler.Count(m.Table, where, vars)
	if err != nil {
		return 0, err
	}
	rows, err := tx.Query(ctx, q)
	if err != nil {
		return 0, persistenceErrorf("counting rows in %s: %v", m.Table.Name, err)
	}
	defer rows.Close()
	var count int64
	for rows.Next() {
		count++
	}
	return count, nil
}

// ReadAndCount runs Read and Count together, the combination most list
// views need: a page of rows plus the total matching the filter.
func (m *TableManager) ReadAndCount(ctx context.Context, where ast.Node, vars map[string]schema.Value, fields, order []string, limit, offset *int64) ([]map[string]schema.Value, int64, error) {
	count, err := m.Count(ctx, where, vars)
	if err != nil {
		return nil, 0, err
	}
	rows, err := m.Read(ctx, where, vars, fields, order, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return rows, count, nil
}

// UpdateByID updates the single row identified by id, raising
// UnrecoverablePersistenceError (mandating a whole-transaction
// rollback) if it does not exist.
func (m *TableManager) UpdateByID(ctx context.Context, id int64, values map[string]schema.Value) error {
	return m.UpdateManyByID(ctx, []int64{id}, values)
}

// UpdateManyByID updates every row named by ids, raising
// UnrecoverablePersistenceError if any id does not exist — some rows
// would otherwise be silently left unmodified.
func (m *TableManager) UpdateManyByID(ctx context.Context, ids []int64, values map[string]schema.Value) error {
	count, err := m.Update(ctx, idInList(ids), nil, values)
	if err != nil {
		return err
	}
	if count != int64(len(ids)) {
		return unrecoverablef("one or more ids were not found while updating table %s", m.Table.Name)
	}
	return nil
}

// Update applies values to every row matching where, returning the
// number of rows changed.
func (m *TableManager) Update(ctx context.Context, where ast.Node, vars map[string]schema.Value, values map[string]schema.Value) (int64, error) {
	if err := m.checkColumns(values); err != nil {
		return 0, err
	}
	tx, err := txFromContext(ctx)
	if err != nil {
		return 0, err
	}
	exprValues := make(map[string]relquery.Expr, len(values))
	for k, v := range values {
		exprValues[k] = relquery.Literal{Value: v}
	}
	mut, err := m.assembler.Mutation(assembler.MutationSpec{Root: m.Table, Where: where, Vars: vars, Values: exprValues})
	if err != nil {
		return 0, err
	}
	count, err := tx.Exec(ctx, mut)
	if err != nil {
		return 0, persistenceErrorf("updating %s: %v", m.Table.Name, err)
	}
	return count, nil
}

// DeleteByID deletes the single row identified by id.
func (m *TableManager) DeleteByID(ctx context.Context, id int64) error {
	return m.DeleteManyByID(ctx, []int64{id})
}

// DeleteManyByID deletes every row named by ids, raising
// UnrecoverablePersistenceError if any id does not exist.
func (m *TableManager) DeleteManyByID(ctx context.Context, ids []int64) error {
	count, err := m.Delete(ctx, idInList(ids), nil)
	if err != nil {
		return err
	}
	if count != int64(len(ids)) {
		return unrecoverablef("one or more ids were not found while deleting rows in table %s", m.Table.Name)
	}
	return nil
}

// Delete removes every row matching where, returning the number of rows
// removed.
func (m *TableManager) Delete(ctx context.Context, where ast.Node, vars map[string]schema.Value) (int64, error) {
	tx, err := txFromContext(ctx)
	if err != nil {
		return 0, err
	}
	mut, err := m.assembler.Mutation(assembler.MutationSpec{Root: m.Table, Where: where, Vars: vars})
	if err != nil {
		return 0, err
	}
	count, err := tx.Exec(ctx, mut)
	if err != nil {
		return 0, persistenceErrorf("deleting from %s: %v", m.Table.Name, err)
	}
	return count, nil
}

func (m *TableManager) checkColumns(values map[string]schema.Value) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, ok := m.Table.Column(k); !ok {
			return invalidColumnf("table %s doesn't contain a column named %s", m.Table.Name, k)
		}
	}
	return nil
}

// idInList builds the `id in [..]` AST used by every *ByID method,
// mirroring table_manager.py's self.table.c.id.in_(ids).
func idInList(ids []int64) ast.Node {
	items := make([]ast.Node, len(ids))
	for i, id := range ids {
		items[i] = ast.Literal{Value: ast.Value{Kind: ast.Int64, I: id}}
	}
	return ast.Binary{
		Op:    ast.In,
		Left:  ast.Identifier{Path: []string{"id"}},
		Right: ast.List{Items: items},
	}
}
