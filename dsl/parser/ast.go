// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package parser

import (
	"bytes"
	"strconv"
	"strings"
)

// Node is implemented by every element of the syntax tree.
type Node interface {
	node()
	String() string
}

func (*Script) node()         {}
func (*DefineTensor) node()   {}
func (*EmptyStatement) node() {}
func (*Ident) node()          {}
func (*Name) node()           {}
func (*BinaryExpr) node()     {}
func (*ScaleBy) node()        {}
func (*Aggregation) node()    {}
func (*SumImage) node()       {}
func (*Mapping) node()        {}
func (*Multiplex) node()      {}
func (*Selection) node()      {}
func (*ParenExpr) node()      {}
func (*Comparison) node()     {}
func (*NumberLit) node()      {}
func (*StringLit) node()      {}
func (*VariableRef) node()    {}
func (*ListLit) node()        {}

// Statement is a top-level element of a script.
type Statement interface {
	Node
	stmt()
}

func (*DefineTensor) stmt()   {}
func (*EmptyStatement) stmt() {}

// Expr is a tensor-valued expression.
type Expr interface {
	Node
	expr()
}

func (*Name) expr()        {}
func (*BinaryExpr) expr()  {}
func (*ScaleBy) expr()     {}
func (*Aggregation) expr() {}
func (*SumImage) expr()    {}
func (*Multiplex) expr()   {}
func (*Selection) expr()   {}
func (*ParenExpr) expr()   {}

// Operand is the right-hand side of a criterion: a literal or a variable.
type Operand interface {
	Node
	operand()
}

func (*NumberLit) operand()   {}
func (*StringLit) operand()   {}
func (*VariableRef) operand() {}
func (*ListLit) operand()     {}

// Script is a sequence of statements.
type Script struct {
	Statements []Statement
}

func (s *Script) String() string {
	var buf bytes.Buffer
	for _, stmt := range s.Statements {
		if _, ok := stmt.(*EmptyStatement); ok {
			continue
		}
		buf.WriteString(stmt.String())
		buf.WriteString("\n")
	}
	return buf.String()
}

// DefineTensor is `name is expr`.
type DefineTensor struct {
	Name *Ident
	Is   Span
	Expr Expr
}

func (s *DefineTensor) String() string {
	return s.Name.String() + " is " + s.Expr.String()
}

// EmptyStatement is a stray statement terminator.
type EmptyStatement struct {
	Semi Span
}

func (s *EmptyStatement) String() string { return ";" }

// Ident is a (lower-cased) name with its location.
type Ident struct {
	Name string
	Span Span
}

func (i *Ident) String() string { return i.Name }

// Name refers to a tensor by name.
type Name struct {
	Ident *Ident
}

func (n *Name) String() string { return n.Ident.Name }

// BinaryExpr is one of the symmetric operators: +, -, * or /.
type BinaryExpr struct {
	X     Expr
	Op    Token // ADD, SUB, MUL or DIV
	OpPos Span
	Y     Expr
}

func (e *BinaryExpr) String() string {
	return e.X.String() + " " + e.Op.String() + " " + e.Y.String()
}

// ScaleBy multiplies or divides a tensor by a numeric constant.
type ScaleBy struct {
	X      Expr
	Op     Token // MUL or DIV
	OpPos  Span
	Factor *NumberLit
}

func (e *ScaleBy) String() string {
	return e.X.String() + " " + e.Op.String() + " " + e.Factor.String()
}

// Aggregation is `expr by [axis, ...]`.
type Aggregation struct {
	X    Expr
	By   Span
	Axes []*Ident
}

func (e *Aggregation) String() string {
	return e.X.String() + " by " + identList(e.Axes)
}

// SumImage is `expr sum {mapping, ...}` with an optional `by [axis, ...]`.
type SumImage struct {
	X        Expr
	Sum      Span
	Mappings []*Mapping
	By       Span
	Axes     []*Ident // nil when there is no trailing list
}

func (e *SumImage) String() string {
	parts := make([]string, len(e.Mappings))
	for i, m := range e.Mappings {
		parts[i] = m.String()
	}
	s := e.X.String() + " sum {" + strings.Join(parts, ", ") + "}"
	if e.Axes != nil {
		s += " by " + identList(e.Axes)
	}
	return s
}

// Mapping is one `domain -> range` step of a SumImage.
type Mapping struct {
	Domain []*Ident
	Arrow  Span
	Range  []*Ident
}

func (m *Mapping) String() string {
	return axisGroup(m.Domain) + " -> " + axisGroup(m.Range)
}

// Span covers the mapping from its first domain axis to its last range axis.
func (m *Mapping) Span() Span {
	out := m.Arrow
	for _, id := range m.Domain {
		out = out.Join(id.Span)
	}
	for _, id := range m.Range {
		out = out.Join(id.Span)
	}
	return out
}

// Multiplex is `then where criterion else otherwise`.
type Multiplex struct {
	Then      Expr
	Where     Span
	Criterion *Comparison
	Else      Span
	Otherwise Expr
}

func (e *Multiplex) String() string {
	return e.Then.String() + " where " + e.Criterion.String() + " else " + e.Otherwise.String()
}

// Selection is `expr where criterion` with no else branch.
type Selection struct {
	X         Expr
	Where     Span
	Criterion *Comparison
}

func (e *Selection) String() string {
	return e.X.String() + " where " + e.Criterion.String()
}

// ParenExpr is a parenthesized expression.
type ParenExpr struct {
	Lparen Span
	X      Expr
	Rparen Span
}

func (e *ParenExpr) String() string { return "(" + e.X.String() + ")" }

// Comparison is `axis relop operand` or `axis in operand`.
type Comparison struct {
	Axis  *Ident
	Op    Token // a relop, or IN
	OpPos Span
	Value Operand
}

func (c *Comparison) String() string {
	op := c.Op.String()
	if c.Op == IN {
		op = "in"
	}
	return c.Axis.String() + " " + op + " " + c.Value.String()
}

// NumberLit is an integer or float constant, possibly negated.
type NumberLit struct {
	Span    Span
	Value   float64
	Integer bool
}

func (n *NumberLit) String() string {
	if n.Integer {
		return strconv.FormatInt(int64(n.Value), 10)
	}
	return strconv.FormatFloat(n.Value, 'g', -1, 64)
}

// StringLit is a quoted constant.
type StringLit struct {
	Span  Span
	Value string
}

func (s *StringLit) String() string { return strconv.Quote(s.Value) }

// VariableRef is `@name`, bound when a query runs.
type VariableRef struct {
	Span Span
	Name string
}

func (v *VariableRef) String() string { return "@" + v.Name }

// ListLit is a parenthesized list of constants, used with `in`.
type ListLit struct {
	Span   Span
	Values []Operand // NumberLit or StringLit
}

func (l *ListLit) String() string {
	parts := make([]string, len(l.Values))
	for i, v := range l.Values {
		parts[i] = v.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func identList(ids []*Ident) string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = id.Name
	}
	return "[" + strings.Join(names, ", ") + "]"
}

func axisGroup(ids []*Ident) string {
	if len(ids) == 1 {
		return ids[0].Name
	}
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = id.Name
	}
	return "(" + strings.Join(names, ", ") + ")"
}
