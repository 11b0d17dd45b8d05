package memdriver

import (
	"regexp"
	"strings"

	"github.com/nicolas-van/fql/internal/fql/ast"
	"github.com/nicolas-van/fql/internal/relquery"
	"github.com/nicolas-van/fql/internal/schema"
)

// joinedRow is a single expanded result row: table/alias display name to
// that table's column values. A branch with no matching foreign-key
// target (a LEFT OUTER JOIN miss) is present as a nil map, so column
// lookups against it resolve to NULL rather than erroring.
type joinedRow map[string]map[string]schema.Value

func (tx *Tx) expandRow(row map[string]schema.Value, node *relquery.JoinNode) joinedRow {
	out := joinedRow{node.Table.DisplayName(): row}
	for _, child := range node.SortedChildren() {
		var childRow map[string]schema.Value
		if row != nil {
			if fk, ok := row[child.FKColumn]; ok && !fk.IsNil {
				childRow = tx.store.table(child.Table.Name).rows[fk.I]
			}
		}
		for alias, r := range tx.expandRow(childRow, child) {
			out[alias] = r
		}
	}
	return out
}

func lookupColumn(row joinedRow, c relquery.Column) schema.Value {
	branch, ok := row[c.Table.DisplayName()]
	if !ok || branch == nil {
		return schema.Null()
	}
	v, ok := branch[c.Column]
	if !ok {
		return schema.Null()
	}
	return v
}

// evalScalar evaluates e, which must not be a List or a bare Subquery,
// to a single schema.Value.
func (tx *Tx) evalScalar(row joinedRow, e relquery.Expr) (schema.Value, error) {
	switch n := e.(type) {
	case relquery.Column:
		return lookupColumn(row, n), nil
	case relquery.Literal:
		return n.Value, nil
	case relquery.Param:
		return n.Value, nil
	case relquery.Unary:
		return tx.evalUnary(row, n)
	case relquery.Binary:
		return tx.evalBinary(row, n)
	default:
		return schema.Value{}, errf("expression of type %T is not a scalar", e)
	}
}

func (tx *Tx) evalUnary(row joinedRow, n relquery.Unary) (schema.Value, error) {
	v, err := tx.evalScalar(row, n.Operand)
	if err != nil {
		return schema.Value{}, err
	}
	if v.IsNil {
		return schema.Null(), nil
	}
	switch n.Op {
	case ast.UnaryNot:
		return schema.BoolValue(!truthy(v)), nil
	case ast.UnaryMinus:
		if v.Kind == schema.Float64 {
			return schema.Float64Value(-v.F), nil
		}
		return schema.Int64Value(-v.I), nil
	case ast.UnaryPlus:
		return v, nil
	default:
		return schema.Value{}, errf("unknown unary operator %q", n.Op)
	}
}

func (tx *Tx) evalBinary(row joinedRow, n relquery.Binary) (schema.Value, error) {
	switch n.Op {
	case ast.And, ast.Or:
		left, err := tx.evalScalar(row, n.Left)
		if err != nil {
			return schema.Value{}, err
		}
		if n.Op == ast.And && !truthy(left) {
			return schema.BoolValue(false), nil
		}
		if n.Op == ast.Or && truthy(left) {
			return schema.BoolValue(true), nil
		}
		right, err := tx.evalScalar(row, n.Right)
		if err != nil {
			return schema.Value{}, err
		}
		return schema.BoolValue(truthy(right)), nil

	case ast.In:
		return tx.evalIn(row, n)

	case ast.Like, ast.ILike:
		left, err := tx.evalScalar(row, n.Left)
		if err != nil {
			return schema.Value{}, err
		}
		right, err := tx.evalScalar(row, n.Right)
		if err != nil {
			return schema.Value{}, err
		}
		if left.IsNil || right.IsNil {
			return schema.Null(), nil
		}
		return schema.BoolValue(matchLike(left.S, right.S, n.Op == ast.ILike)), nil

	case ast.Eq, ast.Neq, ast.Le, ast.Ge, ast.Lt, ast.Gt:
		left, err := tx.evalScalar(row, n.Left)
		if err != nil {
			return schema.Value{}, err
		}
		right, err := tx.evalScalar(row, n.Right)
		if err != nil {
			return schema.Value{}, err
		}
		if left.IsNil || right.IsNil {
			return schema.Null(), nil
		}
		return compareOp(n.Op, left, right)

	case ast.Add, ast.Sub, ast.Mul, ast.Div, ast.Mod:
		left, err := tx.evalScalar(row, n.Left)
		if err != nil {
			return schema.Value{}, err
		}
		right, err := tx.evalScalar(row, n.Right)
		if err != nil {
			return schema.Value{}, err
		}
		if left.IsNil || right.IsNil {
			return schema.Null(), nil
		}
		return arith(n.Op, left, right)

	default:
		return schema.Value{}, errf("unknown binary operator %q", n.Op)
	}
}

func (tx *Tx) evalIn(row joinedRow, n relquery.Binary) (schema.Value, error) {
	left, err := tx.evalScalar(row, n.Left)
	if err != nil {
		return schema.Value{}, err
	}
	candidates, err := tx.evalCandidates(row, n.Right)
	if err != nil {
		return schema.Value{}, err
	}
	if left.IsNil {
		return schema.Null(), nil
	}
	for _, c := range candidates {
		if c.IsNil {
			continue
		}
		if valuesEqual(left, c) {
			return schema.BoolValue(true), nil
		}
	}
	return schema.BoolValue(false), nil
}

// evalCandidates evaluates the right-hand side of an `in` expression,
// which is always either a bound List or a Subquery selecting a single
// column (the "id IN (SELECT id FROM ...)" mutation pattern).
func (tx *Tx) evalCandidates(row joinedRow, e relquery.Expr) ([]schema.Value, error) {
	switch n := e.(type) {
	case relquery.List:
		out := make([]schema.Value, len(n.Items))
		for i, item := range n.Items {
			v, err := tx.evalScalar(row, item)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case relquery.Subquery:
		rows, err := tx.executeQuery(n.Query)
		if err != nil {
			return nil, err
		}
		if len(n.Query.Select) == 0 {
			return nil, errf("subquery has no select list")
		}
		field := n.Query.Select[0].Name
		out := make([]schema.Value, len(rows))
		for i, r := range rows {
			out[i] = r[field]
		}
		return out, nil
	default:
		return nil, errf("right-hand side of 'in' must be a list or subquery, got %T", e)
	}
}

func truthy(v schema.Value) bool {
	if v.IsNil {
		return false
	}
	return v.Kind == schema.Bool && v.B
}

func valuesEqual(a, b schema.Value) bool {
	if a.IsNil || b.IsNil {
		return a.IsNil && b.IsNil
	}
	switch a.Kind {
	case schema.Int64:
		if b.Kind == schema.Float64 {
			return float64(a.I) == b.F
		}
		return a.I == b.I
	case schema.Float64:
		if b.Kind == schema.Int64 {
			return a.F == float64(b.I)
		}
		return a.F == b.F
	case schema.String:
		return a.S == b.S
	case schema.Bool:
		return a.B == b.B
	case schema.DateTime:
		return a.T.Equal(b.T)
	default:
		return false
	}
}

func compareOp(op ast.BinaryOp, a, b schema.Value) (schema.Value, error) {
	if op == ast.Eq {
		return schema.BoolValue(valuesEqual(a, b)), nil
	}
	if op == ast.Neq {
		return schema.BoolValue(!valuesEqual(a, b)), nil
	}
	var cmp int
	switch {
	case a.Kind == schema.String && b.Kind == schema.String:
		cmp = strings.Compare(a.S, b.S)
	case isNumeric(a) && isNumeric(b):
		af, bf := numeric(a), numeric(b)
		switch {
		case af < bf:
			cmp = -1
		case af > bf:
			cmp = 1
		}
	case a.Kind == schema.DateTime && b.Kind == schema.DateTime:
		switch {
		case a.T.Before(b.T):
			cmp = -1
		case a.T.After(b.T):
			cmp = 1
		}
	default:
		return schema.Value{}, errf("cannot compare %s and %s", a.Kind, b.Kind)
	}
	switch op {
	case ast.Lt:
		return schema.BoolValue(cmp < 0), nil
	case ast.Le:
		return schema.BoolValue(cmp <= 0), nil
	case ast.Gt:
		return schema.BoolValue(cmp > 0), nil
	case ast.Ge:
		return schema.BoolValue(cmp >= 0), nil
	default:
		return schema.Value{}, errf("unknown comparison operator %q", op)
	}
}

func isNumeric(v schema.Value) bool {
	return v.Kind == schema.Int64 || v.Kind == schema.Float64
}

func numeric(v schema.Value) float64 {
	if v.Kind == schema.Float64 {
		return v.F
	}
	return float64(v.I)
}

// arith implements FQL's numeric operators, plus `+` as string
// concatenation when both operands are strings (used to build `like`
// patterns such as `"%" + value`). Division follows the driver's native
// semantics rather than any FQL-level policy (spec.md §9 open
// question): integer division truncates, as Go's own `/` does.
func arith(op ast.BinaryOp, a, b schema.Value) (schema.Value, error) {
	if op == ast.Add && a.Kind == schema.String && b.Kind == schema.String {
		return schema.StringValue(a.S + b.S), nil
	}
	if !isNumeric(a) || !isNumeric(b) {
		return schema.Value{}, errf("arithmetic operator %q requires numeric operands, got %s and %s", op, a.Kind, b.Kind)
	}
	bothInt := a.Kind == schema.Int64 && b.Kind == schema.Int64
	if bothInt {
		switch op {
		case ast.Add:
			return schema.Int64Value(a.I + b.I), nil
		case ast.Sub:
			return schema.Int64Value(a.I - b.I), nil
		case ast.Mul:
			return schema.Int64Value(a.I * b.I), nil
		case ast.Div:
			if b.I == 0 {
				return schema.Value{}, errf("division by zero")
			}
			return schema.Int64Value(a.I / b.I), nil
		case ast.Mod:
			if b.I == 0 {
				return schema.Value{}, errf("modulo by zero")
			}
			return schema.Int64Value(a.I % b.I), nil
		}
	}
	af, bf := numeric(a), numeric(b)
	switch op {
	case ast.Add:
		return schema.Float64Value(af + bf), nil
	case ast.Sub:
		return schema.Float64Value(af - bf), nil
	case ast.Mul:
		return schema.Float64Value(af * bf), nil
	case ast.Div:
		if bf == 0 {
			return schema.Value{}, errf("division by zero")
		}
		return schema.Float64Value(af / bf), nil
	case ast.Mod:
		return schema.Value{}, errf("modulo requires integer operands")
	default:
		return schema.Value{}, errf("unknown arithmetic operator %q", op)
	}
}

// likeToRegexp translates a SQL LIKE pattern (% any run, _ any single
// rune) into an anchored regular expression.
func likeToRegexp(pattern string, caseInsensitive bool) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	expr := b.String()
	if caseInsensitive {
		expr = "(?i)" + expr
	}
	return regexp.MustCompile(expr)
}

func matchLike(value, pattern string, caseInsensitive bool) bool {
	return likeToRegexp(pattern, caseInsensitive).MatchString(value)
}
