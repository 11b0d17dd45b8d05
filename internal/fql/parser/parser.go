// Package parser implements a precedence-climbing (Pratt) recursive
// descent parser for FQL, with packrat memoization keyed on (rule,
// position) to guard against super-linear reparse of deeply nested
// left-associative chains.
package parser

import (
	"fmt"
	"strconv"

	"github.com/nicolas-van/fql/internal/fql/ast"
	"github.com/nicolas-van/fql/internal/fql/lexer"
	"github.com/nicolas-van/fql/internal/fql/token"
)

// ParseError is the sole error type raised by Parse. No partial AST is
// ever surfaced alongside an error.
type ParseError struct {
	Pos     int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d: %s", e.Pos, e.Message)
}

// Parse tokenizes and parses src, returning the root AST node. Trailing
// tokens after a complete expression are a parse error.
func Parse(src string) (ast.Node, error) {
	toks := tokenize(src)
	p := &parser{toks: toks, memo: make(map[memoKey]memoEntry)}

	node, pos, err := p.parseOr(0)
	if err != nil {
		return nil, err
	}
	if p.toks[pos].Kind != token.EOF {
		return nil, &ParseError{Pos: p.toks[pos].Pos, Message: fmt.Sprintf("unexpected trailing token %s", p.toks[pos].Kind)}
	}
	return node, nil
}

func tokenize(src string) []token.Token {
	lx := lexer.New(src)
	var toks []token.Token
	for {
		t := lx.Next()
		toks = append(toks, t)
		if t.Kind == token.EOF {
			break
		}
	}
	return toks
}

type rule int

const (
	ruleOr rule = iota
	ruleAnd
	ruleEquality
	ruleRelational
	ruleAdditive
	ruleMultiplicative
	ruleUnary
	rulePrimary
	ruleList
)

type memoKey struct {
	rule rule
	pos  int
}

type memoEntry struct {
	node ast.Node
	next int
	err  error
}

type parser struct {
	toks []token.Token
	memo map[memoKey]memoEntry
}

func (p *parser) at(pos int) token.Token {
	if pos >= len(p.toks) {
		return p.toks[len(p.toks)-1] // EOF sentinel
	}
	return p.toks[pos]
}

func (p *parser) memoized(r rule, pos int, fn func() (ast.Node, int, error)) (ast.Node, int, error) {
	key := memoKey{r, pos}
	if e, ok := p.memo[key]; ok {
		return e.node, e.next, e.err
	}
	node, next, err := fn()
	p.memo[key] = memoEntry{node, next, err}
	return node, next, err
}

// leftAssocBinary parses a left-associative chain of `next`-precedence
// operands joined by any operator in ops, at `r`'s memoization level.
func (p *parser) leftAssocBinary(r rule, pos int, next func(int) (ast.Node, int, error), ops map[token.Kind]ast.BinaryOp) (ast.Node, int, error) {
	return p.memoized(r, pos, func() (ast.Node, int, error) {
		left, cur, err := next(pos)
		if err != nil {
			return nil, pos, err
		}
		for {
			tk := p.at(cur)
			op, ok := ops[tk.Kind]
			if !ok {
				return left, cur, nil
			}
			right, after, err := next(cur + 1)
			if err != nil {
				return nil, pos, err
			}
			left = ast.Binary{Op: op, Left: left, Right: right}
			cur = after
		}
	})
}

var equalityOps = map[token.Kind]ast.BinaryOp{
	token.EQ: ast.Eq, token.NEQ: ast.Neq, token.IN: ast.In,
	token.LIKE: ast.Like, token.ILIKE: ast.ILike,
}

var relationalOps = map[token.Kind]ast.BinaryOp{
	token.LE: ast.Le, token.GE: ast.Ge, token.LT: ast.Lt, token.GT: ast.Gt,
}

var additiveOps = map[token.Kind]ast.BinaryOp{
	token.PLUS: ast.Add, token.MINUS: ast.Sub,
}

var multiplicativeOps = map[token.Kind]ast.BinaryOp{
	token.STAR: ast.Mul, token.SLASH: ast.Div, token.PERCENT: ast.Mod,
}

func (p *parser) parseOr(pos int) (ast.Node, int, error) {
	return p.leftAssocBinary(ruleOr, pos, p.parseAnd, map[token.Kind]ast.BinaryOp{token.OR: ast.Or})
}

func (p *parser) parseAnd(pos int) (ast.Node, int, error) {
	return p.leftAssocBinary(ruleAnd, pos, p.parseEquality, map[token.Kind]ast.BinaryOp{token.AND: ast.And})
}

func (p *parser) parseEquality(pos int) (ast.Node, int, error) {
	return p.leftAssocBinary(ruleEquality, pos, p.parseRelational, equalityOps)
}

func (p *parser) parseRelational(pos int) (ast.Node, int, error) {
	return p.leftAssocBinary(ruleRelational, pos, p.parseAdditive, relationalOps)
}

func (p *parser) parseAdditive(pos int) (ast.Node, int, error) {
	return p.leftAssocBinary(ruleAdditive, pos, p.parseMultiplicative, additiveOps)
}

func (p *parser) parseMultiplicative(pos int) (ast.Node, int, error) {
	return p.leftAssocBinary(ruleMultiplicative, pos, p.parseUnary, multiplicativeOps)
}

// parseUnary handles the three prefix operators. Position in the
// precedence-climbing loop (not lookahead) is what makes a leading "+"/"-"
// unary here and additive one level up: by the time control reaches this
// rule there is no left operand yet, so a leading sign can only be unary.
func (p *parser) parseUnary(pos int) (ast.Node, int, error) {
	return p.memoized(ruleUnary, pos, func() (ast.Node, int, error) {
		tk := p.at(pos)
		var op ast.UnaryOp
		switch tk.Kind {
		case token.NOT:
			op = ast.UnaryNot
		case token.PLUS:
			op = ast.UnaryPlus
		case token.MINUS:
			op = ast.UnaryMinus
		default:
			return p.parsePrimary(pos)
		}
		child, next, err := p.parseUnary(pos + 1)
		if err != nil {
			return nil, pos, err
		}
		return ast.Unary{Op: op, Child: child}, next, nil
	})
}

func (p *parser) parsePrimary(pos int) (ast.Node, int, error) {
	return p.memoized(rulePrimary, pos, func() (ast.Node, int, error) {
		tk := p.at(pos)
		switch tk.Kind {
		case token.LPAREN:
			inner, next, err := p.parseOr(pos + 1)
			if err != nil {
				return nil, pos, err
			}
			if p.at(next).Kind != token.RPAREN {
				return nil, pos, &ParseError{Pos: p.at(next).Pos, Message: "expected ')'"}
			}
			return inner, next + 1, nil
		case token.LBRACKET:
			return p.parseList(pos)
		case token.TRUE:
			return ast.Literal{Value: ast.Value{Kind: ast.Bool, B: true}}, pos + 1, nil
		case token.FALSE:
			return ast.Literal{Value: ast.Value{Kind: ast.Bool, B: false}}, pos + 1, nil
		case token.NULL:
			return ast.Literal{Value: ast.Value{Kind: ast.Null}}, pos + 1, nil
		case token.INT:
			n, err := strconv.ParseInt(tk.Text, 10, 64)
			if err != nil {
				return nil, pos, &ParseError{Pos: tk.Pos, Message: "invalid integer literal: " + tk.Text}
			}
			return ast.Literal{Value: ast.Value{Kind: ast.Int64, I: n}}, pos + 1, nil
		case token.FLOAT:
			f, err := strconv.ParseFloat(tk.Text, 64)
			if err != nil {
				return nil, pos, &ParseError{Pos: tk.Pos, Message: "invalid float literal: " + tk.Text}
			}
			return ast.Literal{Value: ast.Value{Kind: ast.Float64, F: f}}, pos + 1, nil
		case token.STRING:
			return ast.Literal{Value: ast.Value{Kind: ast.String, S: tk.Text}}, pos + 1, nil
		case token.VAR:
			return ast.Variable{Name: tk.Text}, pos + 1, nil
		case token.IDENT:
			return p.parseIdentifier(pos)
		case token.ERROR:
			return nil, pos, &ParseError{Pos: tk.Pos, Message: tk.Text}
		case token.EOF:
			return nil, pos, &ParseError{Pos: tk.Pos, Message: "unexpected end of input"}
		default:
			return nil, pos, &ParseError{Pos: tk.Pos, Message: fmt.Sprintf("unexpected token %s", tk.Kind)}
		}
	})
}

// parseIdentifier parses a dotted name path; inter-segment whitespace is
// already elided by the lexer's token boundaries, so "a . b" tokenizes
// identically to "a.b".
func (p *parser) parseIdentifier(pos int) (ast.Node, int, error) {
	first := p.at(pos)
	path := []string{first.Text}
	cur := pos + 1
	for p.at(cur).Kind == token.DOT {
		next := p.at(cur + 1)
		if next.Kind != token.IDENT {
			return nil, pos, &ParseError{Pos: next.Pos, Message: "expected identifier after '.'"}
		}
		path = append(path, next.Text)
		cur += 2
	}
	return ast.Identifier{Path: path}, cur, nil
}

func (p *parser) parseList(pos int) (ast.Node, int, error) {
	return p.memoized(ruleList, pos, func() (ast.Node, int, error) {
		// pos is the '[' token.
		if p.at(pos + 1).Kind == token.RBRACKET {
			return ast.List{}, pos + 2, nil
		}
		var items []ast.Node
		item, cur, err := p.parseOr(pos + 1)
		if err != nil {
			return nil, pos, err
		}
		items = append(items, item)
		for p.at(cur).Kind == token.COMMA {
			item, cur, err = p.parseOr(cur + 1)
			if err != nil {
				return nil, pos, err
			}
			items = append(items, item)
		}
		if p.at(cur).Kind != token.RBRACKET {
			return nil, pos, &ParseError{Pos: p.at(cur).Pos, Message: "expected ']'"}
		}
		return ast.List{Items: items}, cur + 1, nil
	})
}
