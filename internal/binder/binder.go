// Package binder resolves an FQL AST against a table schema and a
// parameter map, producing a bound relational expression tree plus the
// join context grown along the way.
//
// Grounded directly on original_source/asgard/expression.py's
// QueryBuilderHelper._column_walk / _walk_tables, translated from
// SQLAlchemy table/column/alias objects onto this repository's
// schema.Table / relquery.JoinNode types.
package binder

import (
	"github.com/nicolas-van/fql/internal/fql/ast"
	"github.com/nicolas-van/fql/internal/relquery"
	"github.com/nicolas-van/fql/internal/schema"
)

// Binder binds ASTs against a single schema catalog. It holds no
// per-query state — callers reuse one Binder across many Bind calls.
type Binder struct {
	catalog schema.Catalog
}

// New creates a Binder over catalog.
func New(catalog schema.Catalog) *Binder {
	return &Binder{catalog: catalog}
}

// Bind resolves node against root, substituting values from vars,
// returning the bound expression and the join context grown while
// resolving dotted identifier paths. A nil node (no WHERE clause
// supplied) returns a nil Expr and a fresh, childless join rooted at
// root.
func (b *Binder) Bind(node ast.Node, root *schema.Table, vars map[string]schema.Value) (relquery.Expr, *relquery.JoinNode, error) {
	join := relquery.NewJoinNode(root)
	if node == nil {
		return nil, join, nil
	}
	expr, err := b.bind(node, join, vars)
	if err != nil {
		return nil, nil, err
	}
	return expr, join, nil
}

// BindField resolves a single SELECT-list field path (which may itself
// be a dotted FK path) against an existing, possibly already-grown join
// context, so SELECT and WHERE share one join tree.
func (b *Binder) BindField(path []string, join *relquery.JoinNode) (relquery.Expr, error) {
	return b.resolveColumn(join, path)
}

func (b *Binder) bind(node ast.Node, join *relquery.JoinNode, vars map[string]schema.Value) (relquery.Expr, error) {
	switch n := node.(type) {
	case ast.Literal:
		return relquery.Literal{Value: literalValue(n.Value)}, nil

	case ast.Identifier:
		return b.resolveColumn(join, n.Path)

	case ast.Variable:
		v, ok := vars[n.Name]
		if !ok {
			return nil, unboundVariable(n.Name)
		}
		return relquery.Param{Name: n.Name, Value: v}, nil

	case ast.List:
		items := make([]relquery.Expr, len(n.Items))
		for i, it := range n.Items {
			bound, err := b.bind(it, join, vars)
			if err != nil {
				return nil, err
			}
			items[i] = bound
		}
		return relquery.List{Items: items}, nil

	case ast.Unary:
		child, err := b.bind(n.Child, join, vars)
		if err != nil {
			return nil, err
		}
		return relquery.Unary{Op: n.Op, Operand: child}, nil

	case ast.Binary:
		return b.bindBinary(n, join, vars)

	default:
		return nil, internalError("unknown AST node %T", node)
	}
}

func (b *Binder) bindBinary(n ast.Binary, join *relquery.JoinNode, vars map[string]schema.Value) (relquery.Expr, error) {
	left, err := b.bind(n.Left, join, vars)
	if err != nil {
		return nil, err
	}
	right, err := b.bind(n.Right, join, vars)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case ast.In:
		if _, ok := left.(relquery.Column); !ok {
			return nil, operatorMisuse(string(n.Op), "left-hand side must be a bound column")
		}
		if _, ok := right.(relquery.List); !ok {
			return nil, operatorMisuse(string(n.Op), "right-hand side must be a list")
		}
	case ast.Like, ast.ILike:
		if _, ok := left.(relquery.Column); !ok {
			return nil, operatorMisuse(string(n.Op), "left-hand side must be a bound column")
		}
		if _, ok := right.(relquery.List); ok {
			return nil, operatorMisuse(string(n.Op), "right-hand side may not be a list")
		}
	default:
		if _, ok := right.(relquery.List); ok {
			return nil, operatorMisuse(string(n.Op), "only 'in' accepts a list operand")
		}
		if _, ok := left.(relquery.List); ok {
			return nil, operatorMisuse(string(n.Op), "only 'in' accepts a list operand")
		}
	}

	return relquery.Binary{Op: n.Op, Left: left, Right: right}, nil
}

// resolveColumn walks a dotted identifier path from join, allocating one
// child join node per distinct foreign-key column encountered.
func (b *Binder) resolveColumn(join *relquery.JoinNode, path []string) (relquery.Expr, error) {
	name := path[0]
	col, ok := join.Table.Column(name)
	if !ok {
		return nil, unknownColumn(join.Table.Name, name)
	}

	if len(path) == 1 {
		return relquery.Column{Table: join.Table, Column: name}, nil
	}

	if len(col.ForeignKeys) == 0 {
		return nil, notAForeignKey(join.Table.Name, name)
	}
	if len(col.ForeignKeys) > 1 {
		return nil, ambiguousForeignKey(join.Table.Name, name)
	}
	if path[1] == "id" {
		return nil, forbiddenIDThroughFK(join.Table.Name, name)
	}

	child, exists := join.Child(name)
	if !exists {
		fk := col.ForeignKeys[0]
		target, err := b.catalog.LookupTable(fk.TargetTable)
		if err != nil {
			return nil, err
		}
		// The alias is derived from the join path that reached it (the
		// parent's own display name plus the FK column just navigated),
		// not from a shared counter: it must come out identical every
		// time the same query is bound, and the catalog is shared across
		// concurrent binds so it cannot hold any mutable allocation
		// state (spec.md §4.3, §5).
		aliased := target.WithAlias(join.Table.DisplayName() + "_" + name)
		child = join.AddChild(name, aliased)
	}

	return b.resolveColumn(child, path[1:])
}

// literalValue converts a parsed AST literal into a runtime schema.Value.
func literalValue(v ast.Value) schema.Value {
	switch v.Kind {
	case ast.Bool:
		return schema.BoolValue(v.B)
	case ast.Int64:
		return schema.Int64Value(v.I)
	case ast.Float64:
		return schema.Float64Value(v.F)
	case ast.String:
		return schema.StringValue(v.S)
	case ast.Null:
		return schema.Null()
	default:
		return schema.Null()
	}
}
