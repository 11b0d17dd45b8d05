package ast_test

import (
	"testing"

	"github.com/nicolas-van/fql/internal/fql/ast"
	"github.com/nicolas-van/fql/internal/fql/parser"
)

// TestRoundTrip confirms Binary.String() always parenthesizes, so the
// printed form can be reparsed to an identical tree regardless of the
// original expression's precedence or associativity.
func TestRoundTrip(t *testing.T) {
	sources := []string{
		"a or b and c",
		"not a == b",
		"a + 1 == b * 2 - 3",
		"a.b.c in [1, 2, 3]",
		"(a or b) and not c",
		":x <= 5 and :y >= -3.5",
	}
	for _, src := range sources {
		node, err := parser.Parse(src)
		if err != nil {
			t.Fatalf("Parse(%q): %v", src, err)
		}
		printed := node.String()
		reparsed, err := parser.Parse(printed)
		if err != nil {
			t.Fatalf("reparsing %q (from %q): %v", printed, src, err)
		}
		if !ast.Equal(node, reparsed) {
			t.Errorf("round trip mismatch for %q: printed %q reparsed to %s", src, printed, reparsed)
		}
	}
}

func TestEqualDistinguishesDifferentShapes(t *testing.T) {
	a := ast.Binary{Op: ast.Add, Left: ast.Identifier{Path: []string{"x"}}, Right: ast.Literal{Value: ast.Value{Kind: ast.Int64, I: 1}}}
	b := ast.Binary{Op: ast.Sub, Left: ast.Identifier{Path: []string{"x"}}, Right: ast.Literal{Value: ast.Value{Kind: ast.Int64, I: 1}}}
	if ast.Equal(a, b) {
		t.Fatal("expected different operators to compare unequal")
	}
}

func TestEqualNilHandling(t *testing.T) {
	if !ast.Equal(nil, nil) {
		t.Fatal("nil should equal nil")
	}
	if ast.Equal(nil, ast.Literal{}) {
		t.Fatal("nil should not equal a non-nil node")
	}
}
