// Package assembler combines a bound predicate, a join context, a SELECT
// list, and optional ORDER BY/LIMIT/OFFSET into the relquery.Query or
// relquery.Mutation values handed to the driver. It is the "Query
// Assembler" component of spec.md §4.5.
package assembler

import (
	"strings"

	"github.com/nicolas-van/fql/internal/binder"
	"github.com/nicolas-van/fql/internal/fql/ast"
	"github.com/nicolas-van/fql/internal/relquery"
	"github.com/nicolas-van/fql/internal/schema"
)

// Assembler builds relquery.Query/Mutation values on top of a Binder.
type Assembler struct {
	binder *binder.Binder
}

// New creates an Assembler over b.
func New(b *binder.Binder) *Assembler {
	return &Assembler{binder: b}
}

// QuerySpec is the set of inputs a SELECT needs, mirroring
// TableManager.read's parameters in spec.md §4.6.
type QuerySpec struct {
	Root   *schema.Table
	Where  ast.Node // nil for "no filter"
	Vars   map[string]schema.Value
	Fields []string // dotted field paths; nil/empty means "all columns of Root"
	Order  []string // "key asc"/"key desc" specifiers
	Limit  *int64
	Offset *int64
}

// Query assembles a full SELECT.
func (a *Assembler) Query(spec QuerySpec) (*relquery.Query, error) {
	expr, join, err := a.binder.Bind(spec.Where, spec.Root, spec.Vars)
	if err != nil {
		return nil, err
	}

	fields := spec.Fields
	if len(fields) == 0 {
		fields = columnNames(spec.Root)
	}

	selectList := make([]relquery.Field, len(fields))
	for i, f := range fields {
		e, err := a.binder.BindField(splitPath(f), join)
		if err != nil {
			return nil, err
		}
		selectList[i] = relquery.Field{Name: f, Expr: e}
	}

	orderBys := make([]relquery.SortOrder, len(spec.Order))
	for i, o := range spec.Order {
		path, desc, err := relquery.ParseOrder(o)
		if err != nil {
			return nil, err
		}
		e, err := a.binder.BindField(path, join)
		if err != nil {
			return nil, err
		}
		orderBys[i] = relquery.SortOrder{Expr: e, Descending: desc}
	}

	return &relquery.Query{
		Select:  selectList,
		From:    join,
		Where:   expr,
		OrderBy: orderBys,
		Limit:   spec.Limit,
		Offset:  spec.Offset,
	}, nil
}

// Count assembles a SELECT of just the row count, reusing the same
// WHERE-binding path as Query.
func (a *Assembler) Count(root *schema.Table, where ast.Node, vars map[string]schema.Value) (*relquery.Query, error) {
	expr, join, err := a.binder.Bind(where, root, vars)
	if err != nil {
		return nil, err
	}
	return &relquery.Query{
		Select: []relquery.Field{{Name: "count", Expr: relquery.Column{Table: root, Column: "id"}}},
		From:   join,
		Where:  expr,
	}, nil
}

// MutationSpec is the set of inputs an UPDATE or DELETE needs.
type MutationSpec struct {
	Root   *schema.Table
	Where  ast.Node
	Vars   map[string]schema.Value
	Values map[string]relquery.Expr // nil for DELETE
}

// Mutation assembles an UPDATE/DELETE using the
// "id IN (SELECT id FROM <jointree> WHERE <predicate>)" pattern from
// spec.md §4.5, which keeps join-tree logic out of the mutating
// statement. A nil Where becomes the literal TRUE predicate.
func (a *Assembler) Mutation(spec MutationSpec) (*relquery.Mutation, error) {
	expr, join, err := a.binder.Bind(spec.Where, spec.Root, spec.Vars)
	if err != nil {
		return nil, err
	}

	where := expr
	if where == nil {
		where = relquery.True()
	}

	subselect := &relquery.Query{
		Select: []relquery.Field{{Name: "id", Expr: relquery.Column{Table: spec.Root, Column: "id"}}},
		From:   join,
		Where:  where,
	}

	return &relquery.Mutation{
		Table:  spec.Root,
		Values: spec.Values,
		Where: relquery.Binary{
			Op:   ast.In,
			Left: relquery.Column{Table: spec.Root, Column: "id"},
			Right: relquery.Subquery{
				Query: subselect,
			},
		},
	}, nil
}

func columnNames(t *schema.Table) []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

func splitPath(s string) []string {
	return strings.Split(s, ".")
}
