package parser

import (
	"testing"

	"github.com/nicolas-van/fql/internal/fql/ast"
)

func mustParse(t *testing.T, src string) ast.Node {
	t.Helper()
	node, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", src, err)
	}
	return node
}

func TestParsePrimaries(t *testing.T) {
	cases := map[string]ast.Node{
		"true":     ast.Literal{Value: ast.Value{Kind: ast.Bool, B: true}},
		"false":    ast.Literal{Value: ast.Value{Kind: ast.Bool, B: false}},
		"null":     ast.Literal{Value: ast.Value{Kind: ast.Null}},
		"42":       ast.Literal{Value: ast.Value{Kind: ast.Int64, I: 42}},
		"3.5":      ast.Literal{Value: ast.Value{Kind: ast.Float64, F: 3.5}},
		"'hi'":     ast.Literal{Value: ast.Value{Kind: ast.String, S: "hi"}},
		":uid":     ast.Variable{Name: "uid"},
		"a.b.c":    ast.Identifier{Path: []string{"a", "b", "c"}},
		"[]":       ast.List{},
		"[1, 2]": ast.List{Items: []ast.Node{
			ast.Literal{Value: ast.Value{Kind: ast.Int64, I: 1}},
			ast.Literal{Value: ast.Value{Kind: ast.Int64, I: 2}},
		}},
	}
	for src, want := range cases {
		got := mustParse(t, src)
		if !ast.Equal(got, want) {
			t.Errorf("Parse(%q) = %s, want %s", src, got, want)
		}
	}
}

func TestParsePrecedenceOrLowerThanAnd(t *testing.T) {
	got := mustParse(t, "a or b and c")
	want := "(a or (b and c))"
	if got.String() != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestParsePrecedenceArithmeticOverComparison(t *testing.T) {
	got := mustParse(t, "a + 1 == b * 2")
	want := "((a + 1) == (b * 2))"
	if got.String() != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestParseLeftAssociativity(t *testing.T) {
	got := mustParse(t, "a - b - c")
	want := "((a - b) - c)"
	if got.String() != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestParseUnaryBindsTighterThanBinary(t *testing.T) {
	// Unary.String does not parenthesize, so the expected tree
	// (not a) == b prints as "(not a == b)"; the other grouping would
	// print as "not (a == b)".
	got := mustParse(t, "not a == b")
	want := "(not a == b)"
	if got.String() != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestParseUnaryMinusChain(t *testing.T) {
	got := mustParse(t, "- -1")
	want := ast.Unary{Op: ast.UnaryMinus, Child: ast.Unary{Op: ast.UnaryMinus, Child: ast.Literal{Value: ast.Value{Kind: ast.Int64, I: 1}}}}
	if !ast.Equal(got, want) {
		t.Errorf("got %s", got)
	}
}

func TestParseParenthesesOverridePrecedence(t *testing.T) {
	got := mustParse(t, "(a or b) and c")
	want := "((a or b) and c)"
	if got.String() != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestParseAllComparisonAndMembershipOperators(t *testing.T) {
	for src, op := range map[string]ast.BinaryOp{
		"a == b":      ast.Eq,
		"a != b":      ast.Neq,
		"a in [1]":    ast.In,
		"a like b":    ast.Like,
		"a ilike b":   ast.ILike,
		"a <= b":      ast.Le,
		"a >= b":      ast.Ge,
		"a < b":       ast.Lt,
		"a > b":       ast.Gt,
	} {
		got := mustParse(t, src)
		bin, ok := got.(ast.Binary)
		if !ok {
			t.Fatalf("Parse(%q) did not produce a Binary: %T", src, got)
		}
		if bin.Op != op {
			t.Errorf("Parse(%q) op = %s, want %s", src, bin.Op, op)
		}
	}
}

func TestParseTrailingTokensAreAnError(t *testing.T) {
	if _, err := Parse("a == b )"); err == nil {
		t.Fatal("expected a trailing-token parse error")
	}
}

func TestParseEmptyInputIsAnError(t *testing.T) {
	if _, err := Parse(""); err == nil {
		t.Fatal("expected an error on empty input")
	}
}

func TestParseMalformedListIsAnError(t *testing.T) {
	if _, err := Parse("[1, 2"); err == nil {
		t.Fatal("expected an error on unterminated list")
	}
	if _, err := Parse("[1,]"); err == nil {
		t.Fatal("expected an error on trailing comma")
	}
}
