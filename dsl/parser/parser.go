// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package parser

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Error is a syntax error at a particular place in the source text.
type Error struct {
	Span Span
	Msg  string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return e.Span.Start.String() + ": " + e.Msg
}

// Parser is a recursive-descent parser for scripts.
type Parser struct {
	s *Scanner

	// pushed-back tokens, most recent last.
	buf [2]item
	n   int
}

type item struct {
	tok  Token
	span Span
	lit  string
}

// NewParser returns a new instance of Parser that reads from r.
func NewParser(r io.Reader) *Parser {
	return &Parser{s: NewScanner(r)}
}

// ParseScript parses a complete script from a string.
func ParseScript(src string) (*Script, error) {
	return NewParser(strings.NewReader(src)).ParseScript()
}

// ParseScript parses statements until the end of input. Parsing stops at
// the first syntax error.
func (p *Parser) ParseScript() (*Script, error) {
	script := &Script{}
	for {
		stmt, err := p.ParseStatement()
		if err == io.EOF {
			return script, nil
		} else if err != nil {
			return script, err
		}
		script.Statements = append(script.Statements, stmt)
	}
}

// ParseStatement parses the next statement. It returns io.EOF when the input
// is exhausted.
func (p *Parser) ParseStatement() (Statement, error) {
	tok, span, lit := p.scan()
	switch tok {
	case EOF:
		return nil, io.EOF
	case SEMI:
		return &EmptyStatement{Semi: span}, nil
	case IDENT:
	default:
		return nil, p.errorExpected(span, tok, lit, "tensor name")
	}

	stmt := &DefineTensor{Name: &Ident{Name: lit, Span: span}}
	if tok, span, lit = p.scan(); tok != IS {
		return nil, p.errorExpected(span, tok, lit, "IS")
	}
	stmt.Is = span

	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	stmt.Expr = expr

	if tok, _, _ = p.peek(); tok == SEMI {
		p.scan()
	}
	return stmt, nil
}

func (p *Parser) parseExpr() (Expr, error) {
	x, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if tok, _, _ := p.peek(); tok != WHERE {
		return x, nil
	}
	_, where, _ := p.scan()

	crit, err := p.parseCriterion()
	if err != nil {
		return nil, err
	}
	if tok, _, _ := p.peek(); tok != ELSE {
		return &Selection{X: x, Where: where, Criterion: crit}, nil
	}
	_, els, _ := p.scan()

	y, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &Multiplex{Then: x, Where: where, Criterion: crit, Else: els, Otherwise: y}, nil
}

func (p *Parser) parseAdditive() (Expr, error) {
	x, err := p.parseTensorOperand()
	if err != nil {
		return nil, err
	}
	for {
		tok, span, _ := p.peek()
		if tok != ADD && tok != SUB {
			return x, nil
		}
		p.scan()
		y, err := p.parseTensorOperand()
		if err != nil {
			return nil, err
		}
		x = &BinaryExpr{X: x, Op: tok, OpPos: span, Y: y}
	}
}

// parseTensorOperand parses a multiplicative expression that must denote a
// tensor rather than a bare number.
func (p *Parser) parseTensorOperand() (Expr, error) {
	x, num, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	if x == nil {
		return nil, &Error{Span: num.Span, Msg: "expected tensor expression, found number " + num.String()}
	}
	return x, nil
}

// parseMultiplicative returns either a tensor expression or, when the whole
// term is a constant, a number.
func (p *Parser) parseMultiplicative() (Expr, *NumberLit, error) {
	x, num, err := p.parseFactor()
	if err != nil {
		return nil, nil, err
	}
	for {
		tok, opPos, _ := p.peek()
		if tok != MUL && tok != DIV {
			return x, num, nil
		}
		p.scan()
		y, ynum, err := p.parseFactor()
		if err != nil {
			return nil, nil, err
		}

		switch {
		case x != nil && y != nil:
			x = &BinaryExpr{X: x, Op: tok, OpPos: opPos, Y: y}
		case x != nil:
			x = &ScaleBy{X: x, Op: tok, OpPos: opPos, Factor: ynum}
		case y != nil && tok == MUL:
			x, num = &ScaleBy{X: y, Op: MUL, OpPos: opPos, Factor: num}, nil
		case y != nil:
			return nil, nil, &Error{Span: opPos, Msg: "a constant may not be divided by a tensor"}
		default:
			return nil, nil, &Error{Span: opPos, Msg: "expected tensor expression, found number " + ynum.String()}
		}
	}
}

// parseFactor parses a postfix expression or a possibly-negated number.
func (p *Parser) parseFactor() (Expr, *NumberLit, error) {
	switch tok, _, _ := p.peek(); tok {
	case SUB, INTEGER, FLOAT:
		num, err := p.parseNumber()
		return nil, num, err
	}
	x, err := p.parsePostfix()
	return x, nil, err
}

func (p *Parser) parsePostfix() (Expr, error) {
	x, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch tok, _, _ := p.peek(); tok {
		case BY:
			_, by, _ := p.scan()
			axes, err := p.parseAxisList()
			if err != nil {
				return nil, err
			}
			x = &Aggregation{X: x, By: by, Axes: axes}
		case SUM:
			if x, err = p.parseSumImage(x); err != nil {
				return nil, err
			}
		default:
			return x, nil
		}
	}
}

func (p *Parser) parsePrimary() (Expr, error) {
	tok, span, lit := p.scan()
	switch tok {
	case IDENT:
		return &Name{Ident: &Ident{Name: lit, Span: span}}, nil
	case LPAREN:
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		rtok, rspan, rlit := p.scan()
		if rtok != RPAREN {
			return nil, p.errorExpected(rspan, rtok, rlit, "right paren")
		}
		return &ParenExpr{Lparen: span, X: x, Rparen: rspan}, nil
	default:
		return nil, p.errorExpected(span, tok, lit, "tensor expression")
	}
}

func (p *Parser) parseSumImage(x Expr) (Expr, error) {
	_, sum, _ := p.scan()
	out := &SumImage{X: x, Sum: sum}

	if tok, span, lit := p.scan(); tok != LBRACE {
		return nil, p.errorExpected(span, tok, lit, "left brace")
	}
	for {
		m, err := p.parseMapping()
		if err != nil {
			return nil, err
		}
		out.Mappings = append(out.Mappings, m)

		tok, span, lit := p.scan()
		if tok == RBRACE {
			break
		} else if tok != COMMA {
			return nil, p.errorExpected(span, tok, lit, "comma or right brace")
		}
	}

	if tok, _, _ := p.peek(); tok == BY {
		_, out.By, _ = p.scan()
		axes, err := p.parseAxisList()
		if err != nil {
			return nil, err
		}
		out.Axes = axes
	}
	return out, nil
}

func (p *Parser) parseMapping() (*Mapping, error) {
	domain, err := p.parseAxisGroup()
	if err != nil {
		return nil, err
	}
	tok, arrow, lit := p.scan()
	if tok != ARROW {
		return nil, p.errorExpected(arrow, tok, lit, "->")
	}
	rng, err := p.parseAxisGroup()
	if err != nil {
		return nil, err
	}
	return &Mapping{Domain: domain, Arrow: arrow, Range: rng}, nil
}

// parseAxisGroup parses `axis` or `(axis, ...)`.
func (p *Parser) parseAxisGroup() ([]*Ident, error) {
	tok, span, lit := p.scan()
	switch tok {
	case IDENT:
		return []*Ident{{Name: lit, Span: span}}, nil
	case LPAREN:
		return p.parseIdents(RPAREN, "right paren")
	default:
		return nil, p.errorExpected(span, tok, lit, "dimension name")
	}
}

// parseAxisList parses `[axis, ...]`.
func (p *Parser) parseAxisList() ([]*Ident, error) {
	if tok, span, lit := p.scan(); tok != LBRACK {
		return nil, p.errorExpected(span, tok, lit, "left bracket")
	}
	return p.parseIdents(RBRACK, "right bracket")
}

func (p *Parser) parseIdents(closer Token, closerName string) ([]*Ident, error) {
	var out []*Ident
	for {
		tok, span, lit := p.scan()
		if tok != IDENT {
			return nil, p.errorExpected(span, tok, lit, "dimension name")
		}
		out = append(out, &Ident{Name: lit, Span: span})

		tok, span, lit = p.scan()
		if tok == closer {
			return out, nil
		} else if tok != COMMA {
			return nil, p.errorExpected(span, tok, lit, "comma or "+closerName)
		}
	}
}

func (p *Parser) parseCriterion() (*Comparison, error) {
	tok, span, lit := p.scan()
	if tok != IDENT {
		return nil, p.errorExpected(span, tok, lit, "dimension name")
	}
	c := &Comparison{Axis: &Ident{Name: lit, Span: span}}

	tok, span, lit = p.scan()
	switch {
	case tok.IsRelop():
		c.Op, c.OpPos = tok, span
		v, err := p.parseScalarOperand()
		if err != nil {
			return nil, err
		}
		c.Value = v
	case tok == IN:
		c.Op, c.OpPos = tok, span
		v, err := p.parseSetOperand()
		if err != nil {
			return nil, err
		}
		c.Value = v
	default:
		return nil, p.errorExpected(span, tok, lit, "comparison operator")
	}
	return c, nil
}

func (p *Parser) parseScalarOperand() (Operand, error) {
	switch tok, span, lit := p.peek(); tok {
	case VARIABLE:
		p.scan()
		return &VariableRef{Span: span, Name: lit}, nil
	default:
		return p.parseLiteral()
	}
}

func (p *Parser) parseSetOperand() (Operand, error) {
	tok, span, lit := p.scan()
	switch tok {
	case VARIABLE:
		return &VariableRef{Span: span, Name: lit}, nil
	case LPAREN:
	default:
		return nil, p.errorExpected(span, tok, lit, "variable or left paren")
	}

	list := &ListLit{Span: span}
	for {
		v, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		list.Values = append(list.Values, v)

		tok, end, lit := p.scan()
		list.Span = list.Span.Join(end)
		if tok == RPAREN {
			return list, nil
		} else if tok != COMMA {
			return nil, p.errorExpected(end, tok, lit, "comma or right paren")
		}
	}
}

func (p *Parser) parseLiteral() (Operand, error) {
	switch tok, span, lit := p.peek(); tok {
	case STRING:
		p.scan()
		return &StringLit{Span: span, Value: lit}, nil
	case BADSTRING:
		p.scan()
		return nil, &Error{Span: span, Msg: "unterminated string"}
	case SUB, INTEGER, FLOAT:
		return p.parseNumber()
	default:
		p.scan()
		return nil, p.errorExpected(span, tok, lit, "literal")
	}
}

// parseNumber parses an optionally negated integer or float.
func (p *Parser) parseNumber() (*NumberLit, error) {
	tok, span, lit := p.scan()
	neg := false
	if tok == SUB {
		neg = true
		start := span
		tok, span, lit = p.scan()
		span = start.Join(span)
	}
	if tok != INTEGER && tok != FLOAT {
		return nil, p.errorExpected(span, tok, lit, "number")
	}
	v, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return nil, &Error{Span: span, Msg: fmt.Sprintf("unable to parse number '%s'", lit)}
	}
	if neg {
		v = -v
	}
	return &NumberLit{Span: span, Value: v, Integer: tok == INTEGER}, nil
}

// scan returns the next non-trivia token, consuming it.
func (p *Parser) scan() (Token, Span, string) {
	if p.n > 0 {
		p.n--
		it := p.buf[p.n]
		return it.tok, it.span, it.lit
	}
	for {
		tok, span, lit := p.s.Scan()
		if tok == WS || tok == COMMENT {
			continue
		}
		return tok, span, lit
	}
}

// peek returns the next non-trivia token without consuming it.
func (p *Parser) peek() (Token, Span, string) {
	tok, span, lit := p.scan()
	p.buf[p.n] = item{tok: tok, span: span, lit: lit}
	p.n++
	return tok, span, lit
}

func (p *Parser) errorExpected(span Span, tok Token, lit, expected string) error {
	found := tok.String()
	if lit != "" && tok != EOF {
		found = lit
	}
	if tok == ILLEGAL {
		return &Error{Span: span, Msg: fmt.Sprintf("illegal character sequence '%s'", lit)}
	}
	return &Error{Span: span, Msg: fmt.Sprintf("expected %s, found '%s'", expected, found)}
}
