// Package lexer tokenizes FQL source text.
package lexer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/nicolas-van/fql/internal/fql/token"
)

// Lexer scans an FQL source string into a token stream. It is a
// hand-written table-driven scanner in the style of the teacher's
// generated lexer (one rune of lookahead, position tracked in byte
// offsets), rather than a regex-table lexer, since the FQL token set is
// small and fixed.
type Lexer struct {
	src string
	pos int // byte offset of the next unread rune
}

// New creates a Lexer over src.
func New(src string) *Lexer {
	return &Lexer{src: src}
}

func (l *Lexer) peek() (rune, int) {
	if l.pos >= len(l.src) {
		return 0, 0
	}
	r, size := utf8.DecodeRuneInString(l.src[l.pos:])
	return r, size
}

func (l *Lexer) peekAt(offset int) rune {
	p := l.pos
	for i := 0; i <= offset; i++ {
		r, size := utf8.DecodeRuneInString(l.src[p:])
		if size == 0 {
			return 0
		}
		if i == offset {
			return r
		}
		p += size
	}
	return 0
}

func (l *Lexer) advance() rune {
	r, size := l.peek()
	l.pos += size
	return r
}

func (l *Lexer) skipSpace() {
	for {
		r, size := l.peek()
		if size == 0 || !unicode.IsSpace(r) {
			return
		}
		l.pos += size
	}
}

func isIdentStart(r rune) bool {
	return r == '_' || (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z')
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || isDigit(r)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// Next returns the next token in the stream. Once EOF is reached it keeps
// returning an EOF token.
func (l *Lexer) Next() token.Token {
	l.skipSpace()
	start := l.pos
	r, size := l.peek()
	if size == 0 {
		return token.Token{Kind: token.EOF, Pos: start}
	}

	switch {
	case isIdentStart(r):
		return l.scanIdent(start)
	case isDigit(r):
		return l.scanNumber(start)
	case r == '\'' || r == '"':
		return l.scanString(start, r)
	case r == ':':
		return l.scanVariable(start)
	}

	switch r {
	case '.':
		l.advance()
		return token.Token{Kind: token.DOT, Text: ".", Pos: start}
	case ',':
		l.advance()
		return token.Token{Kind: token.COMMA, Text: ",", Pos: start}
	case '(':
		l.advance()
		return token.Token{Kind: token.LPAREN, Text: "(", Pos: start}
	case ')':
		l.advance()
		return token.Token{Kind: token.RPAREN, Text: ")", Pos: start}
	case '[':
		l.advance()
		return token.Token{Kind: token.LBRACKET, Text: "[", Pos: start}
	case ']':
		l.advance()
		return token.Token{Kind: token.RBRACKET, Text: "]", Pos: start}
	case '+':
		l.advance()
		return token.Token{Kind: token.PLUS, Text: "+", Pos: start}
	case '-':
		l.advance()
		return token.Token{Kind: token.MINUS, Text: "-", Pos: start}
	case '*':
		l.advance()
		return token.Token{Kind: token.STAR, Text: "*", Pos: start}
	case '/':
		l.advance()
		return token.Token{Kind: token.SLASH, Text: "/", Pos: start}
	case '%':
		l.advance()
		return token.Token{Kind: token.PERCENT, Text: "%", Pos: start}
	case '=':
		if l.peekAt(1) == '=' {
			l.advance()
			l.advance()
			return token.Token{Kind: token.EQ, Text: "==", Pos: start}
		}
		l.advance()
		return token.Token{Kind: token.ERROR, Text: "unexpected '='; did you mean '=='?", Pos: start}
	case '!':
		if l.peekAt(1) == '=' {
			l.advance()
			l.advance()
			return token.Token{Kind: token.NEQ, Text: "!=", Pos: start}
		}
		l.advance()
		return token.Token{Kind: token.ERROR, Text: "unexpected '!'", Pos: start}
	case '<':
		l.advance()
		if r2, size2 := l.peek(); size2 > 0 && r2 == '=' {
			l.advance()
			return token.Token{Kind: token.LE, Text: "<=", Pos: start}
		}
		return token.Token{Kind: token.LT, Text: "<", Pos: start}
	case '>':
		l.advance()
		if r2, size2 := l.peek(); size2 > 0 && r2 == '=' {
			l.advance()
			return token.Token{Kind: token.GE, Text: ">=", Pos: start}
		}
		return token.Token{Kind: token.GT, Text: ">", Pos: start}
	}

	l.advance()
	return token.Token{Kind: token.ERROR, Text: "unexpected character " + string(r), Pos: start}
}

func (l *Lexer) scanIdent(start int) token.Token {
	var b strings.Builder
	for {
		r, size := l.peek()
		if size == 0 || !isIdentPart(r) {
			break
		}
		b.WriteRune(r)
		l.pos += size
	}
	text := b.String()
	return token.Token{Kind: token.Lookup(text), Text: text, Pos: start}
}

func (l *Lexer) scanNumber(start int) token.Token {
	var b strings.Builder
	for {
		r, size := l.peek()
		if size == 0 || !isDigit(r) {
			break
		}
		b.WriteRune(r)
		l.pos += size
	}
	isFloat := false
	if r, size := l.peek(); size > 0 && r == '.' {
		isFloat = true
		b.WriteRune('.')
		l.pos += size
		for {
			r, size := l.peek()
			if size == 0 || !isDigit(r) {
				break
			}
			b.WriteRune(r)
			l.pos += size
		}
	}
	kind := token.INT
	if isFloat {
		kind = token.FLOAT
	}
	return token.Token{Kind: kind, Text: b.String(), Pos: start}
}

func (l *Lexer) scanString(start int, quote rune) token.Token {
	l.advance() // opening quote
	var b strings.Builder
	for {
		r, size := l.peek()
		if size == 0 {
			return token.Token{Kind: token.ERROR, Text: "unterminated string literal", Pos: start}
		}
		if r == quote {
			l.advance()
			return token.Token{Kind: token.STRING, Text: b.String(), Pos: start}
		}
		if r == '\\' {
			l.advance()
			esc, escSize := l.peek()
			if escSize == 0 {
				return token.Token{Kind: token.ERROR, Text: "unterminated string literal", Pos: start}
			}
			l.pos += escSize
			switch esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '\\', '\'', '"':
				b.WriteRune(esc)
			default:
				b.WriteRune(esc)
			}
			continue
		}
		b.WriteRune(r)
		l.pos += size
	}
}

func (l *Lexer) scanVariable(start int) token.Token {
	l.advance() // ':'
	r, size := l.peek()
	if size == 0 || !isIdentStart(r) {
		return token.Token{Kind: token.ERROR, Text: "expected identifier after ':'", Pos: start}
	}
	var b strings.Builder
	for {
		r, size := l.peek()
		if size == 0 || !isIdentPart(r) {
			break
		}
		b.WriteRune(r)
		l.pos += size
	}
	return token.Token{Kind: token.VAR, Text: b.String(), Pos: start}
}
