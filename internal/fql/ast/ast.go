// Package ast defines the FQL abstract syntax tree: a tagged sum over
// literals, identifiers, variables, lists, and unary/binary operators.
package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// ValueKind tags the scalar variant of a Literal.
type ValueKind int

const (
	Bool ValueKind = iota
	Int64
	Float64
	String
	Null
)

// Value is a literal scalar value carried by a Literal node.
type Value struct {
	Kind ValueKind
	B    bool
	I    int64
	F    float64
	S    string
}

func (v Value) String() string {
	switch v.Kind {
	case Bool:
		return fmt.Sprintf("%v", v.B)
	case Int64:
		return fmt.Sprintf("%d", v.I)
	case Float64:
		// Always keep a '.' so the printed form lexes back as a float.
		s := strconv.FormatFloat(v.F, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += "."
		}
		return s
	case String:
		return fmt.Sprintf("%q", v.S)
	case Null:
		return "null"
	default:
		return "<invalid value>"
	}
}

// UnaryOp is the operator of a Unary node.
type UnaryOp string

const (
	UnaryPlus  UnaryOp = "+"
	UnaryMinus UnaryOp = "-"
	UnaryNot   UnaryOp = "not"
)

// BinaryOp is the operator of a Binary node.
type BinaryOp string

const (
	Or    BinaryOp = "or"
	And   BinaryOp = "and"
	Eq    BinaryOp = "=="
	Neq   BinaryOp = "!="
	In    BinaryOp = "in"
	Like  BinaryOp = "like"
	ILike BinaryOp = "ilike"
	Le    BinaryOp = "<="
	Ge    BinaryOp = ">="
	Lt    BinaryOp = "<"
	Gt    BinaryOp = ">"
	Add   BinaryOp = "+"
	Sub   BinaryOp = "-"
	Mul   BinaryOp = "*"
	Div   BinaryOp = "/"
	Mod   BinaryOp = "%"
)

// Node is the tagged sum of all FQL AST node kinds. Exactly one of the
// fields on a given variant is meaningful; callers switch on the
// concrete type returned by a parse, never on a discriminant field, so
// that exhaustiveness is compiler-checked.
type Node interface {
	fmt.Stringer
	isNode()
}

// Literal is a scalar constant.
type Literal struct {
	Value Value
}

func (Literal) isNode() {}
func (l Literal) String() string {
	return l.Value.String()
}

// Identifier is a non-empty, dotted column/foreign-key path.
type Identifier struct {
	Path []string
}

func (Identifier) isNode() {}
func (id Identifier) String() string {
	s := ""
	for i, p := range id.Path {
		if i > 0 {
			s += "."
		}
		s += p
	}
	return s
}

// Variable is a `:name` placeholder bound from a parameter map.
type Variable struct {
	Name string
}

func (Variable) isNode() {}
func (v Variable) String() string { return ":" + v.Name }

// List is an ordered sequence of expressions, used as the RHS of `in`.
type List struct {
	Items []Node
}

func (List) isNode() {}
func (l List) String() string {
	s := "["
	for i, it := range l.Items {
		if i > 0 {
			s += ", "
		}
		s += it.String()
	}
	return s + "]"
}

// Unary is a prefix operator applied to a single operand.
type Unary struct {
	Op    UnaryOp
	Child Node
}

func (Unary) isNode() {}
func (u Unary) String() string {
	if u.Op == UnaryNot {
		return fmt.Sprintf("not %s", u.Child)
	}
	return fmt.Sprintf("%s%s", u.Op, u.Child)
}

// Binary is an infix operator applied to two operands.
type Binary struct {
	Op          BinaryOp
	Left, Right Node
}

func (Binary) isNode() {}
func (b Binary) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, b.Op, b.Right)
}

// Equal reports whether two AST nodes are structurally identical. Used by
// the cache hit / round-trip tests to compare trees by value rather than
// by pointer identity.
func Equal(a, b Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch av := a.(type) {
	case Literal:
		bv, ok := b.(Literal)
		return ok && av.Value == bv.Value
	case Identifier:
		bv, ok := b.(Identifier)
		if !ok || len(av.Path) != len(bv.Path) {
			return false
		}
		for i := range av.Path {
			if av.Path[i] != bv.Path[i] {
				return false
			}
		}
		return true
	case Variable:
		bv, ok := b.(Variable)
		return ok && av.Name == bv.Name
	case List:
		bv, ok := b.(List)
		if !ok || len(av.Items) != len(bv.Items) {
			return false
		}
		for i := range av.Items {
			if !Equal(av.Items[i], bv.Items[i]) {
				return false
			}
		}
		return true
	case Unary:
		bv, ok := b.(Unary)
		return ok && av.Op == bv.Op && Equal(av.Child, bv.Child)
	case Binary:
		bv, ok := b.(Binary)
		return ok && av.Op == bv.Op && Equal(av.Left, bv.Left) && Equal(av.Right, bv.Right)
	default:
		return false
	}
}
