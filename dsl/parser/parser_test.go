// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package parser_test

import (
	"strings"
	"testing"

	"github.com/featurebasedb/mistake/dsl/parser"
	"github.com/go-test/deep"
)

func TestParser_ParseDefineTensor(t *testing.T) {
	t.Run("Product", func(t *testing.T) {
		AssertParseStatement(t, `gross is quantity_sold * unit_price`, &parser.DefineTensor{
			Name: ident("gross", 0),
			Is:   sp(6, 8),
			Expr: &parser.BinaryExpr{
				X:     name("quantity_sold", 9),
				Op:    parser.MUL,
				OpPos: sp(23, 24),
				Y:     name("unit_price", 25),
			},
		})
	})
	t.Run("ScaleLeft", func(t *testing.T) {
		AssertParseStatement(t, `y is 2 * x`, &parser.DefineTensor{
			Name: ident("y", 0),
			Is:   sp(2, 4),
			Expr: &parser.ScaleBy{
				X:      name("x", 9),
				Op:     parser.MUL,
				OpPos:  sp(7, 8),
				Factor: &parser.NumberLit{Span: sp(5, 6), Value: 2, Integer: true},
			},
		})
	})
	t.Run("ScaleRight", func(t *testing.T) {
		AssertParseStatement(t, `y is x / 0.5`, &parser.DefineTensor{
			Name: ident("y", 0),
			Is:   sp(2, 4),
			Expr: &parser.ScaleBy{
				X:      name("x", 5),
				Op:     parser.DIV,
				OpPos:  sp(7, 8),
				Factor: &parser.NumberLit{Span: sp(9, 12), Value: 0.5},
			},
		})
	})
	t.Run("SumImage", func(t *testing.T) {
		AssertParseStatement(t, `x is a sum {orderid -> country} by [country]`, &parser.DefineTensor{
			Name: ident("x", 0),
			Is:   sp(2, 4),
			Expr: &parser.SumImage{
				X:   name("a", 5),
				Sum: sp(7, 10),
				Mappings: []*parser.Mapping{{
					Domain: []*parser.Ident{ident("orderid", 12)},
					Arrow:  sp(20, 22),
					Range:  []*parser.Ident{ident("country", 23)},
				}},
				By:   sp(32, 34),
				Axes: []*parser.Ident{ident("country", 36)},
			},
		})
	})
	t.Run("Multiplex", func(t *testing.T) {
		AssertParseStatement(t, `m is a where country = 'France' else b`, &parser.DefineTensor{
			Name: ident("m", 0),
			Is:   sp(2, 4),
			Expr: &parser.Multiplex{
				Then:  name("a", 5),
				Where: sp(7, 12),
				Criterion: &parser.Comparison{
					Axis:  ident("country", 13),
					Op:    parser.EQ,
					OpPos: sp(21, 22),
					Value: &parser.StringLit{Span: sp(23, 31), Value: "France"},
				},
				Else:      sp(32, 36),
				Otherwise: name("b", 37),
			},
		})
	})
	t.Run("SelectionWithVariable", func(t *testing.T) {
		AssertParseStatement(t, `s is a where country <> @c`, &parser.DefineTensor{
			Name: ident("s", 0),
			Is:   sp(2, 4),
			Expr: &parser.Selection{
				X:     name("a", 5),
				Where: sp(7, 12),
				Criterion: &parser.Comparison{
					Axis:  ident("country", 13),
					Op:    parser.NE,
					OpPos: sp(21, 23),
					Value: &parser.VariableRef{Span: sp(24, 26), Name: "c"},
				},
			},
		})
	})
	t.Run("NegativeLiteral", func(t *testing.T) {
		AssertParseStatement(t, `s is a where year >= -1`, &parser.DefineTensor{
			Name: ident("s", 0),
			Is:   sp(2, 4),
			Expr: &parser.Selection{
				X:     name("a", 5),
				Where: sp(7, 12),
				Criterion: &parser.Comparison{
					Axis:  ident("year", 13),
					Op:    parser.GE,
					OpPos: sp(18, 20),
					Value: &parser.NumberLit{Span: sp(21, 23), Value: -1, Integer: true},
				},
			},
		})
	})
	t.Run("Membership", func(t *testing.T) {
		stmt := MustParseStatement(t, `s is a where country in ('France', 'Spain')`)
		c := stmt.(*parser.DefineTensor).Expr.(*parser.Selection).Criterion
		if c.Op != parser.IN {
			t.Fatalf("unexpected op %s", c.Op)
		}
		list, ok := c.Value.(*parser.ListLit)
		if !ok || len(list.Values) != 2 {
			t.Fatalf("unexpected value %#v", c.Value)
		}
		if s := c.String(); s != `country in ("France", "Spain")` {
			t.Fatalf("String()=%q", s)
		}
	})
	t.Run("MembershipVariable", func(t *testing.T) {
		stmt := MustParseStatement(t, `s is a where country in @countries`)
		c := stmt.(*parser.DefineTensor).Expr.(*parser.Selection).Criterion
		if v, ok := c.Value.(*parser.VariableRef); !ok || v.Name != "countries" {
			t.Fatalf("unexpected value %#v", c.Value)
		}
	})
}

func TestParser_Precedence(t *testing.T) {
	t.Run("ByBindsTighterThanDivide", func(t *testing.T) {
		stmt := MustParseStatement(t, `avg is gross by [productid] / quantity_sold by [productid]`)
		bin, ok := stmt.(*parser.DefineTensor).Expr.(*parser.BinaryExpr)
		if !ok || bin.Op != parser.DIV {
			t.Fatalf("expected quotient, got %T", stmt.(*parser.DefineTensor).Expr)
		}
		if _, ok := bin.X.(*parser.Aggregation); !ok {
			t.Fatalf("expected aggregation on the left, got %T", bin.X)
		}
		if _, ok := bin.Y.(*parser.Aggregation); !ok {
			t.Fatalf("expected aggregation on the right, got %T", bin.Y)
		}
	})
	t.Run("MultiplyBeforeAdd", func(t *testing.T) {
		stmt := MustParseStatement(t, `x is a + b * c - d`)
		sub := stmt.(*parser.DefineTensor).Expr.(*parser.BinaryExpr)
		if sub.Op != parser.SUB {
			t.Fatalf("expected difference at the root, got %s", sub.Op)
		}
		add := sub.X.(*parser.BinaryExpr)
		if add.Op != parser.ADD {
			t.Fatalf("expected sum, got %s", add.Op)
		}
		if mul := add.Y.(*parser.BinaryExpr); mul.Op != parser.MUL {
			t.Fatalf("expected product, got %s", mul.Op)
		}
	})
	t.Run("ElseIsRightAssociative", func(t *testing.T) {
		stmt := MustParseStatement(t, `x is a where k = 1 else b where k = 2 else c`)
		mux := stmt.(*parser.DefineTensor).Expr.(*parser.Multiplex)
		if _, ok := mux.Otherwise.(*parser.Multiplex); !ok {
			t.Fatalf("expected nested multiplex, got %T", mux.Otherwise)
		}
	})
	t.Run("Parens", func(t *testing.T) {
		stmt := MustParseStatement(t, `x is (a + b) by [k]`)
		agg := stmt.(*parser.DefineTensor).Expr.(*parser.Aggregation)
		if _, ok := agg.X.(*parser.ParenExpr); !ok {
			t.Fatalf("expected paren expr, got %T", agg.X)
		}
	})
}

func TestParser_ParseScript(t *testing.T) {
	script, err := parser.ParseScript("a is b; ; -- note\nc is d\n{- block -} e is f sum {(x, y) -> z}")
	if err != nil {
		t.Fatal(err)
	}
	if len(script.Statements) != 4 {
		t.Fatalf("expected 4 statements, got %d", len(script.Statements))
	}
	if _, ok := script.Statements[1].(*parser.EmptyStatement); !ok {
		t.Fatalf("expected empty statement, got %T", script.Statements[1])
	}
	want := "a is b\nc is d\ne is f sum {(x, y) -> z}\n"
	if s := script.String(); s != want {
		t.Fatalf("String()=%q, want %q", s, want)
	}

	m := script.Statements[3].(*parser.DefineTensor).Expr.(*parser.SumImage).Mappings[0]
	if w := m.Span().Width(); w != len("(x, y) -> z")-1 {
		t.Fatalf("unexpected mapping span width %d", w)
	}
}

func TestParser_Errors(t *testing.T) {
	for _, tt := range []struct {
		s   string
		err string
	}{
		{`x is`, `1:5: expected tensor expression, found 'EOF'`},
		{`x is 2`, `1:6: expected tensor expression, found number 2`},
		{`x is 2 / y`, `1:8: a constant may not be divided by a tensor`},
		{`x is 2 * 3`, `1:8: expected tensor expression, found number 3`},
		{`x is a by productid`, `1:11: expected left bracket, found 'productid'`},
		{`x is a where`, `1:13: expected dimension name, found 'EOF'`},
		{`x is a where k ~ 1`, `1:16: illegal character sequence '~'`},
		{`x is a where k = 'open`, `1:18: unterminated string`},
		{`x is a sum {k}`, `1:14: expected ->, found '}'`},
		{`is x`, `1:1: expected tensor name, found 'is'`},
		{`x y`, `1:3: expected IS, found 'y'`},
	} {
		t.Run(tt.s, func(t *testing.T) {
			AssertParseStatementError(t, tt.s, tt.err)
		})
	}
}

func TestParser_ErrorStopsScript(t *testing.T) {
	script, err := parser.ParseScript("a is b\nc is ;\nd is e")
	if err == nil {
		t.Fatal("expected error")
	}
	perr, ok := err.(*parser.Error)
	if !ok {
		t.Fatalf("unexpected error type %T", err)
	}
	if perr.Span.Start.Line != 1 {
		t.Fatalf("unexpected error line: %s", perr)
	}
	if len(script.Statements) != 1 {
		t.Fatalf("expected the statement before the error, got %d", len(script.Statements))
	}
}

func TestParser_NULIsSyntaxError(t *testing.T) {
	script, err := parser.ParseScript("a is b;\x00 c is d; e is f")
	perr, ok := err.(*parser.Error)
	if !ok {
		t.Fatalf("expected a syntax error, got %v", err)
	}
	if perr.Span.Start.Offset != len("a is b;") {
		t.Fatalf("unexpected error position: %s", perr)
	}
	if len(script.Statements) != 1 {
		t.Fatalf("expected the statement before the NUL, got %d", len(script.Statements))
	}
}

// MustParseStatement parses a single statement or fails the test.
func MustParseStatement(tb testing.TB, s string) parser.Statement {
	tb.Helper()
	stmt, err := parser.NewParser(strings.NewReader(s)).ParseStatement()
	if err != nil {
		tb.Fatal(err)
	}
	return stmt
}

// AssertParseStatement asserts the value of the first parse of s.
func AssertParseStatement(tb testing.TB, s string, want parser.Statement) {
	tb.Helper()
	stmt, err := parser.NewParser(strings.NewReader(s)).ParseStatement()
	if err != nil {
		tb.Fatal(err)
	} else if diff := deep.Equal(stmt, want); diff != nil {
		tb.Fatalf("mismatch:\n%s", strings.Join(diff, "\n"))
	}
}

// AssertParseStatementError asserts s parses to a given error string.
func AssertParseStatementError(tb testing.TB, s string, want string) {
	tb.Helper()
	_, err := parser.NewParser(strings.NewReader(s)).ParseStatement()
	if err == nil || err.Error() != want {
		tb.Fatalf("ParseStatement()=%q, want %q", err, want)
	}
}

// sp returns a span on the first line.
func sp(start, end int) parser.Span {
	return parser.Span{
		Start: parser.Pos{Offset: start, Char: start},
		End:   parser.Pos{Offset: end, Char: end},
	}
}

func ident(s string, offset int) *parser.Ident {
	return &parser.Ident{Name: s, Span: sp(offset, offset+len(s))}
}

func name(s string, offset int) *parser.Name {
	return &parser.Name{Ident: ident(s, offset)}
}
