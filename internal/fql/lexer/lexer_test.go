package lexer

import (
	"testing"

	"github.com/nicolas-van/fql/internal/fql/token"
)

func scanAll(t *testing.T, src string) []token.Token {
	t.Helper()
	l := New(src)
	var toks []token.Token
	for {
		tok := l.Next()
		toks = append(toks, tok)
		if tok.Kind == token.EOF || tok.Kind == token.ERROR {
			break
		}
	}
	return toks
}

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, tok := range toks {
		out[i] = tok.Kind
	}
	return out
}

func TestLexerPunctuationAndOperators(t *testing.T) {
	toks := scanAll(t, "a.b == 1 != 2 <= 3 >= 4 < 5 > 6")
	got := kinds(toks)
	want := []token.Kind{
		token.IDENT, token.DOT, token.IDENT,
		token.EQ, token.INT, token.NEQ, token.INT,
		token.LE, token.INT, token.GE, token.INT,
		token.LT, token.INT, token.GT, token.INT,
		token.EOF,
	}
	if len(got) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestLexerKeywordsTakePrecedenceOverIdentifiers(t *testing.T) {
	toks := scanAll(t, "and or not in like ilike true false null")
	for i, want := range []token.Kind{
		token.AND, token.OR, token.NOT, token.IN, token.LIKE, token.ILIKE,
		token.TRUE, token.FALSE, token.NULL,
	} {
		if toks[i].Kind != want {
			t.Errorf("token %d: got %v, want %v", i, toks[i].Kind, want)
		}
	}
}

func TestLexerStringEscapes(t *testing.T) {
	toks := scanAll(t, `'it\'s a \n test'`)
	if toks[0].Kind != token.STRING {
		t.Fatalf("expected STRING, got %v", toks[0].Kind)
	}
	if toks[0].Text != "it's a \n test" {
		t.Errorf("got %q", toks[0].Text)
	}
}

func TestLexerUnterminatedStringIsError(t *testing.T) {
	toks := scanAll(t, `'unterminated`)
	if toks[len(toks)-1].Kind != token.ERROR {
		t.Fatalf("expected trailing ERROR token, got %v", toks[len(toks)-1].Kind)
	}
}

func TestLexerVariable(t *testing.T) {
	toks := scanAll(t, ":userId")
	if toks[0].Kind != token.VAR || toks[0].Text != "userId" {
		t.Fatalf("got %+v", toks[0])
	}
}

func TestLexerFloatWithTrailingDot(t *testing.T) {
	toks := scanAll(t, "5. 5.5 5")
	if toks[0].Kind != token.FLOAT || toks[0].Text != "5." {
		t.Errorf("got %+v", toks[0])
	}
	if toks[1].Kind != token.FLOAT || toks[1].Text != "5.5" {
		t.Errorf("got %+v", toks[1])
	}
	if toks[2].Kind != token.INT || toks[2].Text != "5" {
		t.Errorf("got %+v", toks[2])
	}
}

func TestLexerStrayCharacterIsError(t *testing.T) {
	toks := scanAll(t, "a & b")
	if toks[len(toks)-1].Kind != token.ERROR {
		t.Fatalf("expected ERROR token for '&', got %v", toks)
	}
}
