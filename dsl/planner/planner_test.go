// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package planner_test

import (
	"context"
	"strings"
	"testing"

	"github.com/featurebasedb/mistake/dsl"
	"github.com/featurebasedb/mistake/dsl/parser"
	"github.com/featurebasedb/mistake/dsl/planner"
	"github.com/featurebasedb/mistake/dsl/runtime"
	"github.com/featurebasedb/mistake/dsl/semantics"
	"github.com/featurebasedb/mistake/dsl/types"
	"github.com/featurebasedb/mistake/dsl/universe"
	"github.com/featurebasedb/mistake/errors"
	"github.com/featurebasedb/mistake/logger"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// diagnostic is one complaint, located by its one-based start position.
type diagnostic struct {
	At      string
	Width   int
	Message string
}

type harness struct {
	u           *universe.Universe
	p           *planner.Planner
	diagnostics []diagnostic
}

func northwind(t *testing.T, opts ...planner.PlannerOption) *harness {
	t.Helper()
	u, err := universe.New()
	require.NoError(t, err)
	for _, axis := range []string{"orderid", "productid", "shipcountry"} {
		require.NoError(t, u.RegisterAxis(axis))
	}
	each, err := u.CreateFundamentalUnit("each", "count")
	require.NoError(t, err)
	usd, err := u.CreateFundamentalUnit("usd", "money")
	require.NoError(t, err)

	key := func(order, product int64) types.Point {
		return types.Point{"orderid": order, "productid": product}
	}
	space := semantics.NewTensorType("orderid", "productid")

	q := runtime.NewTensorBuffer(space.WithUnit(each))
	q.Add(key(10248, 11), 12)
	q.Add(key(10248, 42), 10)
	q.Add(key(10249, 11), 4)
	q.Add(key(10250, 41), 9)
	require.NoError(t, u.RegisterTensor("quantity_sold", q))

	price := runtime.NewTensorBuffer(space.WithUnit(usd.Div(each)))
	price.Add(key(10248, 11), 14)
	price.Add(key(10248, 42), 9.5)
	price.Add(key(10249, 11), 14)
	price.Add(key(10250, 41), 20)
	require.NoError(t, u.RegisterTensor("unit_price", price))

	countries := map[int64]string{10248: "France", 10249: "Germany", 10250: "Brazil"}
	require.NoError(t, u.RegisterAttribute("orderid", "shipcountry", func(v interface{}) (interface{}, error) {
		return countries[v.(int64)], nil
	}))

	h := &harness{u: u}
	h.p, err = planner.NewPlanner(u, func(span parser.Span, message string) {
		h.diagnostics = append(h.diagnostics, diagnostic{At: span.Start.String(), Width: span.Width(), Message: message})
	}, opts...)
	require.NoError(t, err)
	return h
}

func (h *harness) compile(t *testing.T, src string) {
	t.Helper()
	script, err := parser.ParseScript(src)
	require.NoError(t, err)
	require.NoError(t, h.p.CompileScript(context.Background(), script))
}

func (h *harness) space(t *testing.T, name string) semantics.Space {
	t.Helper()
	tensor, ok := h.u.Tensor(name)
	require.True(t, ok, "%s is not defined", name)
	return tensor.Shape().Space
}

func (h *harness) query(t *testing.T, name string, env types.Environment) map[string]float64 {
	t.Helper()
	buf, err := h.u.Query(context.Background(), name, env)
	require.NoError(t, err)
	out := make(map[string]float64)
	for _, e := range buf.Sorted() {
		out[e.Point.String()] = e.Value
	}
	return out
}

func (h *harness) messages() []string {
	out := make([]string, len(h.diagnostics))
	for i, d := range h.diagnostics {
		out[i] = d.Message
	}
	return out
}

func TestSymmetricOperators(t *testing.T) {
	h := northwind(t)
	h.compile(t, `
gross is quantity_sold * unit_price
avg is gross by [productid] / quantity_sold by [productid]
twice is quantity_sold + quantity_sold
none is quantity_sold - quantity_sold
`)
	assert.Empty(t, h.diagnostics)
	assert.Equal(t, semantics.Space{"orderid", "productid"}, h.space(t, "gross"))
	assert.Equal(t, semantics.Space{"productid"}, h.space(t, "avg"))

	assert.Equal(t, map[string]float64{
		"{productid=11}": 14,
		"{productid=41}": 20,
		"{productid=42}": 9.5,
	}, h.query(t, "avg", nil))
	assert.Equal(t, 24.0, h.query(t, "twice", nil)["{orderid=10248, productid=11}"])
	assert.Empty(t, h.query(t, "none", nil))

	gross, _ := h.u.Tensor("gross")
	assert.Equal(t, "usd", gross.Shape().Unit.String())
}

func TestAsymmetricOperands(t *testing.T) {
	for _, op := range []string{"+", "-", "*", "/"} {
		t.Run(op, func(t *testing.T) {
			h := northwind(t)
			h.compile(t, "bad is quantity_sold "+op+" quantity_sold by [productid]")
			want := []diagnostic{
				{At: "1:1", Width: 3, Message: "Tensor value has invalid type, because..."},
				{At: "1:22", Width: 1, Message: "Operand spaces do not agree about [orderid]"},
			}
			if diff := cmp.Diff(want, h.diagnostics); diff != "" {
				t.Fatalf("diagnostics mismatch (-want +got):\n%s", diff)
			}
			_, ok := h.u.Tensor("bad")
			assert.False(t, ok)
		})
	}
}

func TestRedefinition(t *testing.T) {
	h := northwind(t)
	h.compile(t, "gross is quantity_sold * unit_price\ngross is quantity_sold by [orderid]")
	want := []diagnostic{
		{At: "2:1", Width: 5, Message: "Tensor name was previously defined; ignoring redefinition."},
	}
	if diff := cmp.Diff(want, h.diagnostics); diff != "" {
		t.Fatalf("diagnostics mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, semantics.Space{"orderid", "productid"}, h.space(t, "gross"))

	// Base tensors are defined too.
	h.compile(t, "unit_price is quantity_sold")
	assert.Len(t, h.diagnostics, 2)
	assert.Equal(t, 2, h.p.Diagnostics())
}

func TestNames(t *testing.T) {
	h := northwind(t)
	h.compile(t, "bad is nothing\nworse is bad * quantity_sold")
	want := []diagnostic{
		{At: "1:1", Width: 3, Message: "Tensor value has invalid type, because..."},
		{At: "1:8", Width: 7, Message: "undefined name."},
		{At: "2:1", Width: 5, Message: "Tensor value has invalid type, because..."},
		{At: "2:10", Width: 3, Message: "ill-typed name."},
	}
	if diff := cmp.Diff(want, h.diagnostics); diff != "" {
		t.Fatalf("diagnostics mismatch (-want +got):\n%s", diff)
	}

	typ, ok := h.p.Type("bad")
	assert.True(t, ok)
	assert.Nil(t, typ)

	// A failed name is not redefinable either.
	h.compile(t, "bad is quantity_sold")
	assert.Equal(t, "Tensor name was previously defined; ignoring redefinition.", h.messages()[4])
}

func TestAggregation(t *testing.T) {
	t.Run("Unavailable", func(t *testing.T) {
		h := northwind(t)
		h.compile(t, "x is quantity_sold by [bogus]")
		want := []diagnostic{
			{At: "1:1", Width: 1, Message: "Tensor value has invalid type, because..."},
			{At: "1:24", Width: 5, Message: "Dimension 'bogus' is not available here. options are [orderid, productid]."},
		}
		if diff := cmp.Diff(want, h.diagnostics); diff != "" {
			t.Fatalf("diagnostics mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Duplicate", func(t *testing.T) {
		h := northwind(t)
		h.compile(t, "x is quantity_sold by [productid, productid]")
		require.Len(t, h.diagnostics, 2)
		assert.Equal(t, diagnostic{At: "1:35", Width: 9, Message: "Dimension 'productid' is already present and may not be duplicated."}, h.diagnostics[1])
	})

	t.Run("RoundTrip", func(t *testing.T) {
		h := northwind(t)
		h.compile(t, "per_product is quantity_sold by [productid]\nall is quantity_sold by [orderid, productid]")
		assert.Empty(t, h.diagnostics)

		// Summing raw rows by product directly.
		raw, ok := h.u.Tensor("quantity_sold")
		require.True(t, ok)
		want := map[string]float64{}
		buf := raw.(*runtime.TensorBuffer)
		for _, e := range buf.Content() {
			want[e.Point.Project([]string{"productid"}).String()] += e.Value
		}
		assert.Equal(t, want, h.query(t, "per_product", nil))
		assert.Len(t, h.query(t, "all", nil), 4)
	})

	t.Run("Requirements", func(t *testing.T) {
		h := northwind(t)
		require.NoError(t, h.u.RegisterAxis("year"))
		require.NoError(t, h.u.RegisterAxis("month", "year"))
		monthly := runtime.NewTensorBuffer(semantics.NewTensorType("month", "year"))
		require.NoError(t, h.u.RegisterTensor("monthly", monthly))

		h.compile(t, "m is monthly by [month]\ny is monthly by [year]")
		assert.Equal(t, []string{
			"Tensor value has invalid type, because...",
			"Dimension 'month' requires [year] to be present.",
		}, h.messages())
	})
}

func TestSumImage(t *testing.T) {
	h := northwind(t)
	h.compile(t, `
by_country is quantity_sold sum {orderid -> shipcountry}
country_totals is quantity_sold sum {orderid -> shipcountry} by [shipcountry]
`)
	assert.Empty(t, h.diagnostics)
	assert.Equal(t, semantics.Space{"productid", "shipcountry"}, h.space(t, "by_country"))
	assert.Equal(t, map[string]float64{
		"{shipcountry=Brazil}":  9,
		"{shipcountry=France}":  22,
		"{shipcountry=Germany}": 4,
	}, h.query(t, "country_totals", nil))
	assert.Equal(t, 16.0,
		h.query(t, "by_country", nil)["{productid=11, shipcountry=France}"]+
			h.query(t, "by_country", nil)["{productid=11, shipcountry=Germany}"])

	tests := []struct {
		src  string
		want diagnostic
	}{
		{
			src:  "x is quantity_sold sum {productid -> shipcountry}",
			want: diagnostic{At: "1:25", Width: 24, Message: "No known transform applies."},
		},
		{
			src:  "x is quantity_sold sum {bogus -> shipcountry}",
			want: diagnostic{At: "1:25", Width: 5, Message: "Dimension 'bogus' is not available here. options are [orderid, productid]."},
		},
		{
			src:  "x is quantity_sold sum {orderid -> productid}",
			want: diagnostic{At: "1:36", Width: 9, Message: "Dimension 'productid' is already present and may not be duplicated."},
		},
		{
			src:  "x is quantity_sold sum {orderid -> shipcountry} by [orderid]",
			want: diagnostic{At: "1:53", Width: 7, Message: "Dimension 'orderid' is not available here. options are [productid, shipcountry]."},
		},
	}
	for _, test := range tests {
		t.Run(test.src, func(t *testing.T) {
			h := northwind(t)
			h.compile(t, test.src)
			require.Len(t, h.diagnostics, 2)
			if diff := cmp.Diff(test.want, h.diagnostics[1]); diff != "" {
				t.Fatalf("diagnostic mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMultiplex(t *testing.T) {
	h := northwind(t)
	h.compile(t, `
small is quantity_sold where productid < 42 else 100 * quantity_sold
picked is quantity_sold where productid = @p
listed is quantity_sold where orderid in (10248, 10250)
`)
	assert.Empty(t, h.diagnostics)

	// Every key comes from exactly one branch.
	assert.Equal(t, map[string]float64{
		"{orderid=10248, productid=11}": 12,
		"{orderid=10248, productid=42}": 1000,
		"{orderid=10249, productid=11}": 4,
		"{orderid=10250, productid=41}": 9,
	}, h.query(t, "small", nil))

	assert.Len(t, h.query(t, "picked", types.Environment{"p": 11}), 2)
	assert.Len(t, h.query(t, "listed", nil), 3)

	t.Run("Errors", func(t *testing.T) {
		h.compile(t, `
asym is quantity_sold where productid < 42 else quantity_sold by [productid]
gone is quantity_sold by [productid] where orderid = 1 else quantity_sold by [productid]
clash is quantity_sold where orderid in @p
`)
		assert.Equal(t, []string{
			"Tensor value has invalid type, because...",
			"Operand spaces do not agree about [orderid]",
			"Tensor value has invalid type, because...",
			"Dimension 'orderid' is not available here. options are [productid].",
			"Tensor value has invalid type, because...",
			"Variable '@p' used as a set of 'orderid' but previously as a single 'productid'.",
		}, h.messages())
		assert.Equal(t, "4:41", h.diagnostics[5].At)
	})
}

func TestVariableUsage(t *testing.T) {
	t.Run("FailedDefinition", func(t *testing.T) {
		h := northwind(t)
		h.compile(t, `
bad is (quantity_sold where orderid = @p) + nothing
good is quantity_sold where productid in @p
`)
		assert.Equal(t, []string{
			"Tensor value has invalid type, because...",
			"undefined name.",
		}, h.messages())

		axis, plural, ok := h.u.VariableUsage("p")
		require.True(t, ok)
		assert.Equal(t, "productid", axis)
		assert.True(t, plural)
		assert.Len(t, h.query(t, "good", types.Environment{"p": []interface{}{int64(11)}}), 2)
	})

	t.Run("SameDefinition", func(t *testing.T) {
		h := northwind(t)
		h.compile(t, "both is (quantity_sold where orderid = @q) + (quantity_sold where productid = @q)")
		assert.Equal(t, []string{
			"Tensor value has invalid type, because...",
			"Variable '@q' used as a single 'productid' but previously as a single 'orderid'.",
		}, h.messages())
		_, _, ok := h.u.VariableUsage("q")
		assert.False(t, ok)
	})
}

func TestScaleBy(t *testing.T) {
	h := northwind(t)
	h.compile(t, "double is 2 * quantity_sold\nhalf is quantity_sold / 2\nbroken is quantity_sold / 0")
	assert.Equal(t, 24.0, h.query(t, "double", nil)["{orderid=10248, productid=11}"])
	assert.Equal(t, 6.0, h.query(t, "half", nil)["{orderid=10248, productid=11}"])
	assert.Equal(t, []string{"Tensor value has invalid type, because...", "Division by zero."}, h.messages())
}

func TestCheckUnits(t *testing.T) {
	src := "bad is quantity_sold + unit_price"

	h := northwind(t)
	h.compile(t, src)
	assert.Empty(t, h.diagnostics)

	h = northwind(t, planner.OptPlannerCheckUnits(true))
	h.compile(t, src+"\nok is quantity_sold * unit_price + quantity_sold * unit_price")
	assert.Equal(t, []string{
		"Tensor value has invalid type, because...",
		"Operand units do not agree: each vs usd/each",
	}, h.messages())
}

func TestCompileStatement(t *testing.T) {
	ctx := context.Background()
	h := northwind(t)

	tensor, err := h.p.CompileStatement(ctx, &parser.EmptyStatement{})
	assert.NoError(t, err)
	assert.Nil(t, tensor)

	stmt, err := parser.NewParser(strings.NewReader("x is nothing")).ParseStatement()
	require.NoError(t, err)
	_, err = h.p.CompileStatement(ctx, stmt)
	var g *dsl.Gripe
	require.True(t, errors.As(err, &g))
	assert.True(t, errors.Is(err, dsl.ErrUndefinedName))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = h.p.CompileStatement(cancelled, stmt)
	assert.Equal(t, context.Canceled, err)
}

func TestLogging(t *testing.T) {
	buf := logger.NewBufferLogger()
	h := northwind(t, planner.OptPlannerLogger(buf))
	h.compile(t, "gross is quantity_sold * unit_price")
	assert.Contains(t, buf.String(), "DEBUG: gross has shape [orderid, productid] usd")
}
