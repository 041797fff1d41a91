// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package parser

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"unicode"
)

// Scanner represents a lexical scanner. The language is caseless: identifiers
// and keywords are reported in lower case.
type Scanner struct {
	r    io.RuneScanner
	pos  Pos
	prev Pos
}

// NewScanner returns a new instance of Scanner.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{r: bufio.NewReader(r)}
}

// Scan returns the next token, its extent, and its literal text.
func (s *Scanner) Scan() (tok Token, span Span, lit string) {
	start := s.pos
	tok, lit = s.scan()
	return tok, Span{Start: start, End: s.pos}, lit
}

func (s *Scanner) scan() (tok Token, lit string) {
	ch := s.read()

	if isWhitespace(ch) {
		s.unread()
		return s.scanWhitespace()
	} else if isIdentFirstChar(ch) {
		s.unread()
		return s.scanIdent()
	} else if isDigit(ch) {
		s.unread()
		return s.scanNumber()
	} else if ch == '"' || ch == '\'' {
		return s.scanString(ch)
	}

	switch ch {
	case eof:
		return EOF, ""
	case '@':
		_, lit := s.scanIdent()
		if lit == "" {
			return ILLEGAL, "@"
		}
		return VARIABLE, lit
	case '+':
		return ADD, "+"
	case '-':
		switch s.read() {
		case '-':
			return s.scanLineComment()
		case '>':
			return ARROW, "->"
		}
		s.unread()
		return SUB, "-"
	case '*':
		return MUL, "*"
	case '/':
		return DIV, "/"
	case '=':
		if s.read() == '=' {
			return EQ, "=="
		}
		s.unread()
		return EQ, "="
	case '!':
		if s.read() == '=' {
			return NE, "!="
		}
		s.unread()
		return ILLEGAL, "!"
	case '<':
		switch s.read() {
		case '=':
			return LE, "<="
		case '>':
			return NE, "<>"
		}
		s.unread()
		return LT, "<"
	case '>':
		if s.read() == '=' {
			return GE, ">="
		}
		s.unread()
		return GT, ">"
	case ',':
		return COMMA, ","
	case ';':
		return SEMI, ";"
	case '(':
		return LPAREN, "("
	case ')':
		return RPAREN, ")"
	case '[':
		return LBRACK, "["
	case ']':
		return RBRACK, "]"
	case '{':
		if s.read() == '-' {
			return s.scanBlockComment()
		}
		s.unread()
		return LBRACE, "{"
	case '}':
		return RBRACE, "}"
	default:
		return ILLEGAL, string(ch)
	}
}

// read returns the next code point from the underlying reader and updates
// the position.
func (s *Scanner) read() rune {
	ch, size, err := s.r.ReadRune()
	if err != nil {
		s.prev = s.pos
		return eof
	}

	s.prev = s.pos
	s.pos.Offset += size
	if ch == '\n' {
		s.pos.Line++
		s.pos.Char = 0
	} else {
		s.pos.Char++
	}
	return ch
}

// unread pushes the previously read rune back onto the reader. Only one rune
// of push-back is supported. Unreading at end of input is a no-op.
func (s *Scanner) unread() {
	if s.prev == s.pos {
		return
	}
	if err := s.r.UnreadRune(); err != nil {
		return
	}
	s.pos = s.prev
}

func (s *Scanner) scanWhitespace() (tok Token, lit string) {
	var buf bytes.Buffer
	for {
		ch := s.read()
		if ch == eof {
			break
		} else if !isWhitespace(ch) {
			s.unread()
			break
		}
		buf.WriteRune(ch)
	}
	return WS, buf.String()
}

// scanLineComment consumes a "--" comment up to (not including) the newline.
func (s *Scanner) scanLineComment() (tok Token, lit string) {
	var buf bytes.Buffer
	buf.WriteString("--")
	for {
		ch := s.read()
		if ch == eof {
			break
		} else if ch == '\n' {
			s.unread()
			break
		}
		buf.WriteRune(ch)
	}
	return COMMENT, buf.String()
}

// scanBlockComment consumes a "{- ... -}" comment. An unterminated block
// comment is ILLEGAL.
func (s *Scanner) scanBlockComment() (tok Token, lit string) {
	var buf bytes.Buffer
	buf.WriteString("{-")
	for {
		ch := s.read()
		if ch == eof {
			return ILLEGAL, buf.String()
		}
		buf.WriteRune(ch)
		if ch == '-' {
			if next := s.read(); next == '}' {
				buf.WriteRune(next)
				return COMMENT, buf.String()
			}
			s.unread()
		}
	}
}

func (s *Scanner) scanIdent() (tok Token, lit string) {
	var buf bytes.Buffer
	for {
		ch := s.read()
		if ch == eof {
			break
		} else if !isIdentChar(ch) {
			s.unread()
			break
		}
		buf.WriteRune(unicode.ToLower(ch))
	}
	lit = buf.String()
	return Lookup(lit), lit
}

// scanNumber consumes consecutive digits with up to one '.' character.
func (s *Scanner) scanNumber() (tok Token, lit string) {
	tok = INTEGER

	var buf bytes.Buffer
	var seenDot bool
	for {
		ch := s.read()
		if ch == '.' && !seenDot {
			seenDot = true
			tok = FLOAT
		} else if !isDigit(ch) {
			s.unread()
			break
		}
		buf.WriteRune(ch)
	}
	return tok, buf.String()
}

// scanString consumes a string delimited by quote, which has already been
// read. Backslash escapes the next character.
func (s *Scanner) scanString(quote rune) (tok Token, lit string) {
	var buf strings.Builder
	for {
		ch := s.read()
		switch ch {
		case quote:
			return STRING, buf.String()
		case eof, '\n':
			return BADSTRING, buf.String()
		case '\\':
			next := s.read()
			if next == eof {
				return BADSTRING, buf.String()
			}
			buf.WriteRune(next)
		default:
			buf.WriteRune(ch)
		}
	}
}

// isWhitespace returns true if the rune is a space, tab, or newline.
func isWhitespace(ch rune) bool { return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' }

// isLetter returns true if the rune is a letter.
func isLetter(ch rune) bool { return unicode.IsLetter(ch) }

// isDigit returns true if the rune is a digit.
func isDigit(ch rune) bool { return (ch >= '0' && ch <= '9') }

// isIdentChar returns true if the rune can be used in an unquoted identifier.
func isIdentChar(ch rune) bool { return isLetter(ch) || isDigit(ch) || ch == '_' }

// isIdentFirstChar returns true if the rune can be used as the first char in
// an unquoted identifier.
func isIdentFirstChar(ch rune) bool { return isLetter(ch) || ch == '_' }

// eof represents a marker rune for the end of the reader. It is not a valid
// code point, so a NUL in the input scans as ILLEGAL.
const eof = rune(-1)
