// Package relquery is the relational query tree the FQL compiler emits:
// predicate/value expressions, a join tree, and the SELECT/FROM/WHERE/
// ORDER BY/LIMIT query (or UPDATE/DELETE mutation) handed to the driver.
//
// Like the source this was distilled from (which represents both
// predicates and scalar values as SQLAlchemy ColumnElement), Expr is a
// single tagged sum covering columns, literals, parameters, lists, and
// unary/binary operators — booleans are just another value shape, not a
// separate type, since the grammar itself doesn't distinguish them until
// an operator's precondition check does.
package relquery

import (
	"github.com/nicolas-van/fql/internal/fql/ast"
	"github.com/nicolas-van/fql/internal/schema"
)

// Expr is any bound value or predicate fragment in a query tree.
type Expr interface {
	isExpr()
}

// Column references a column on a bound table or join alias.
type Column struct {
	Table  *schema.Table
	Column string
}

func (Column) isExpr() {}

// Literal is a constant value taken directly from FQL source.
type Literal struct {
	Value schema.Value
}

func (Literal) isExpr() {}

// Param is a value substituted from the caller's parameter map. Name is
// kept for diagnostics; the driver only ever sees Value, never Name —
// parameters are passed out-of-band as bind values, never spliced into
// rendered text.
type Param struct {
	Name  string
	Value schema.Value
}

func (Param) isExpr() {}

// List is an ordered sequence of bound values or columns, valid only as
// the right-hand side of In.
type List struct {
	Items []Expr
}

func (List) isExpr() {}

// Unary applies a prefix operator to a single bound operand.
type Unary struct {
	Op      ast.UnaryOp
	Operand Expr
}

func (Unary) isExpr() {}

// Binary applies an infix operator to two bound operands.
type Binary struct {
	Op          ast.BinaryOp
	Left, Right Expr
}

func (Binary) isExpr() {}

// Subquery embeds a full Query as an expression, used only for the
// "id IN (SELECT id FROM ... WHERE ...)" pattern UPDATE/DELETE rely on to
// keep join logic out of the mutating statement itself.
type Subquery struct {
	Query *Query
}

func (Subquery) isExpr() {}

// True is the literal boolean true predicate, used when a nil WHERE
// expression is rendered for UPDATE/DELETE (spec.md §4.5: "a null
// predicate becomes the literal TRUE").
func True() Expr {
	return Literal{Value: schema.BoolValue(true)}
}
