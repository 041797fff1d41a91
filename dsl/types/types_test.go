// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package types_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/featurebasedb/mistake/dsl/semantics"
	"github.com/featurebasedb/mistake/dsl/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompare(t *testing.T) {
	now := time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		a, b interface{}
		exp  int
	}{
		{nil, false, -1},
		{false, true, -1},
		{true, true, 0},
		{true, int64(0), -1},
		{int64(3), 3.0, 0},
		{2, int64(3), -1},
		{4.5, int64(4), 1},
		{int64(1000), "1", -1},
		{"France", "Spain", -1},
		{"b", "a", 1},
		{"zzz", now, -1},
		{now, now.Add(time.Hour), -1},
		{now, now, 0},
	}
	for i, test := range tests {
		t.Run(fmt.Sprintf("test-%d", i), func(t *testing.T) {
			assert.Equal(t, test.exp, types.Compare(test.a, test.b))
			assert.Equal(t, -test.exp, types.Compare(test.b, test.a))
		})
	}
}

func TestPoint(t *testing.T) {
	p := types.Point{"orderid": int64(10248), "productid": int64(11)}
	q := p.Clone()
	q["country"] = "France"
	assert.Len(t, p, 2)
	assert.Equal(t, "{country=France, orderid=10248, productid=11}", q.String())
	assert.Equal(t, types.Point{"productid": int64(11)}, q.Project([]string{"productid", "missing"}))
}

// axisEquals is a minimal criterion for exercising predicates.
type axisEquals struct {
	axis   string
	value  interface{}
	negate bool
}

func (c *axisEquals) Domain() semantics.Space { return semantics.NewSpace(c.axis) }

func (c *axisEquals) Test(p types.Point, env types.Environment) (bool, error) {
	return (types.Compare(p[c.axis], c.value) == 0) != c.negate, nil
}

func (c *axisEquals) Complement() types.Criterion {
	return &axisEquals{axis: c.axis, value: c.value, negate: !c.negate}
}

func (c *axisEquals) String() string { return fmt.Sprintf("%s = %v", c.axis, c.value) }

func countryOf() *types.Transform {
	countries := map[int64]string{1: "France", 2: "Spain"}
	return &types.Transform{
		Domain: semantics.NewSpace("orderid"),
		Range:  semantics.NewSpace("country"),
		Update: func(p types.Point) error {
			p["country"] = countries[p["orderid"].(int64)]
			return nil
		},
	}
}

func TestPredicate(t *testing.T) {
	france := &axisEquals{axis: "country", value: "France"}
	product := &axisEquals{axis: "productid", value: int64(7)}

	t.Run("Empty", func(t *testing.T) {
		var pred types.Predicate
		ok, err := pred.Test(types.Point{}, nil)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("Augmented", func(t *testing.T) {
		base := types.Predicate{product}
		aug := base.Augmented(france)
		assert.Len(t, base, 1)
		assert.Len(t, aug, 2)
		assert.Equal(t, semantics.Space{"country", "productid"}, aug.Domain())
		assert.Equal(t, "productid = 7 and country = France", aug.String())

		ok, err := aug.Test(types.Point{"country": "France", "productid": int64(7)}, nil)
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = aug.Test(types.Point{"country": "Spain", "productid": int64(7)}, nil)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Divmod", func(t *testing.T) {
		pred := types.Predicate{france, product}
		q, r := pred.Divmod(semantics.NewSpace("productid", "orderid"))
		assert.Equal(t, types.Predicate{product}, q)
		assert.Equal(t, types.Predicate{france}, r)
	})

	t.Run("Transformed", func(t *testing.T) {
		tr := countryOf()
		pred := types.Predicate{france, product}.Transformed(tr)
		require.Len(t, pred, 2)

		tc, ok := pred[0].(*types.TranslatedCriterion)
		require.True(t, ok)
		assert.Equal(t, semantics.Space{"orderid"}, tc.Domain())
		assert.Same(t, product, pred[1])

		basis := types.Point{"orderid": int64(1), "productid": int64(7)}
		ok, err := pred.Test(basis, nil)
		require.NoError(t, err)
		assert.True(t, ok)
		_, has := basis["country"]
		assert.False(t, has, "translation must not modify the basis point")

		ok, err = tc.Complement().Test(basis, nil)
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = pred.Test(types.Point{"orderid": int64(2), "productid": int64(7)}, nil)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestTransform_Then(t *testing.T) {
	first := countryOf()
	second := &types.Transform{
		Domain: semantics.NewSpace("country"),
		Range:  semantics.NewSpace("continent"),
		Update: func(p types.Point) error {
			p["continent"] = "Europe"
			return nil
		},
	}
	both := first.Then(second)
	assert.Equal(t, semantics.Space{"orderid"}, both.Domain)
	assert.Equal(t, semantics.Space{"continent", "country"}, both.Range)

	p := types.Point{"orderid": int64(2)}
	q, err := both.Apply(p)
	require.NoError(t, err)
	assert.Equal(t, types.Point{"orderid": int64(2), "country": "Spain", "continent": "Europe"}, q)
	assert.Len(t, p, 1)
	assert.NotEqual(t, first.Key(), second.Key())
}

func TestDrain(t *testing.T) {
	it := types.NewSliceIterator(
		[]types.Point{{"k": "a"}, {"k": "b"}},
		[]float64{1, 2},
	)
	var sum float64
	require.NoError(t, types.Drain(context.Background(), it, func(p types.Point, v float64) error {
		sum += v
		return nil
	}))
	assert.Equal(t, 3.0, sum)

	_, _, err := it.Next(context.Background())
	assert.Equal(t, types.ErrNoMorePoints, err)
}
