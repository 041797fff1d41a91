// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package parser

import (
	"strconv"
	"strings"
)

// Token is a lexical token of the language.
type Token int

const (
	// Special tokens
	ILLEGAL Token = iota
	EOF
	WS
	COMMENT

	literal_beg
	IDENT     // gross
	VARIABLE  // @country
	STRING    // 'France'
	BADSTRING // unterminated string
	INTEGER   // 12345
	FLOAT     // 100.2
	literal_end

	keyword_beg
	IS
	BY
	SUM
	WHERE
	ELSE
	IN
	keyword_end

	ADD // +
	SUB // -
	MUL // *
	DIV // /

	EQ // = or ==
	NE // != or <>
	LT // <
	LE // <=
	GT // >
	GE // >=

	ARROW  // ->
	COMMA  // ,
	SEMI   // ;
	LPAREN // (
	RPAREN // )
	LBRACK // [
	RBRACK // ]
	LBRACE // {
	RBRACE // }
)

var tokens = [...]string{
	ILLEGAL: "ILLEGAL",
	EOF:     "EOF",
	WS:      "WS",
	COMMENT: "COMMENT",

	IDENT:     "IDENT",
	VARIABLE:  "VARIABLE",
	STRING:    "STRING",
	BADSTRING: "BADSTRING",
	INTEGER:   "INTEGER",
	FLOAT:     "FLOAT",

	IS:    "IS",
	BY:    "BY",
	SUM:   "SUM",
	WHERE: "WHERE",
	ELSE:  "ELSE",
	IN:    "IN",

	ADD: "+",
	SUB: "-",
	MUL: "*",
	DIV: "/",

	EQ: "=",
	NE: "!=",
	LT: "<",
	LE: "<=",
	GT: ">",
	GE: ">=",

	ARROW:  "->",
	COMMA:  ",",
	SEMI:   ";",
	LPAREN: "(",
	RPAREN: ")",
	LBRACK: "[",
	RBRACK: "]",
	LBRACE: "{",
	RBRACE: "}",
}

var keywords map[string]Token

func init() {
	keywords = make(map[string]Token)
	for tok := keyword_beg + 1; tok < keyword_end; tok++ {
		keywords[strings.ToLower(tokens[tok])] = tok
	}
}

// String returns the string representation of the token.
func (tok Token) String() string {
	if tok >= 0 && tok < Token(len(tokens)) {
		return tokens[tok]
	}
	return "Token(" + strconv.Itoa(int(tok)) + ")"
}

// IsLiteral returns true for identifier, variable, string and number tokens.
func (tok Token) IsLiteral() bool { return tok > literal_beg && tok < literal_end }

// IsKeyword returns true for reserved words.
func (tok Token) IsKeyword() bool { return tok > keyword_beg && tok < keyword_end }

// IsRelop returns true for the comparison operators usable in a criterion.
func (tok Token) IsRelop() bool { return tok >= EQ && tok <= GE }

// Lookup returns the token associated with a given (lower-case) word.
func Lookup(ident string) Token {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// Pos specifies the byte offset, line, and character position of a token.
// Line and Char are zero-based.
type Pos struct {
	Offset int
	Line   int
	Char   int
}

// String returns a one-based "line:char" description.
func (p Pos) String() string {
	return strconv.Itoa(p.Line+1) + ":" + strconv.Itoa(p.Char+1)
}

// Span is the half-open extent [Start, End) of one or more tokens in the
// source text.
type Span struct {
	Start Pos
	End   Pos
}

// Width is the number of bytes covered by the span.
func (s Span) Width() int { return s.End.Offset - s.Start.Offset }

// Join returns the smallest span covering both s and other.
func (s Span) Join(other Span) Span {
	out := s
	if other.Start.Offset < out.Start.Offset {
		out.Start = other.Start
	}
	if other.End.Offset > out.End.Offset {
		out.End = other.End
	}
	return out
}
