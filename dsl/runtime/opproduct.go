// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package runtime

import (
	"context"
	"fmt"

	"github.com/featurebasedb/mistake/dsl/semantics"
	"github.com/featurebasedb/mistake/dsl/types"
)

// Product multiplies each point of its left operand by the value of the
// right operand at the same key. A key absent on the right counts as zero.
type Product struct {
	LHS types.Tensor
	RHS types.Tensor
}

func NewProduct(lhs, rhs types.Tensor) *Product {
	return &Product{LHS: lhs, RHS: rhs}
}

func (n *Product) Shape() semantics.TensorType {
	l, r := n.LHS.Shape(), n.RHS.Shape()
	return l.WithUnit(l.Unit.Mul(r.Unit))
}

func (n *Product) Stream(ctx context.Context, pred types.Predicate, env types.Environment) (types.PointIterator, error) {
	return newLookupIterator(ctx, n.LHS, n.RHS, pred, env, func(v, d float64, ok bool) (float64, bool) {
		return v * d, true
	}), nil
}

func (n *Product) Children() []types.Tensor {
	return []types.Tensor{n.LHS, n.RHS}
}

func (n *Product) Plan() map[string]interface{} {
	result := make(map[string]interface{})
	result["_op"] = fmt.Sprintf("%T", n)
	result["_shape"] = n.Shape().String()
	result["lhs"] = planOf(n.LHS)
	result["rhs"] = planOf(n.RHS)
	return result
}

func (n *Product) String() string {
	return "(" + stringOf(n.LHS) + " * " + stringOf(n.RHS) + ")"
}

// lookupIterator streams lhs and combines each value with the value of rhs
// at the same key. rhs is materialized on the first call to Next.
type lookupIterator struct {
	lhs, rhs types.Tensor
	pred     types.Predicate
	env      types.Environment
	combine  func(v, d float64, ok bool) (float64, bool)

	buffer *TensorBuffer
	child  types.PointIterator
	closed bool
}

func newLookupIterator(ctx context.Context, lhs, rhs types.Tensor, pred types.Predicate, env types.Environment, combine func(v, d float64, ok bool) (float64, bool)) *lookupIterator {
	return &lookupIterator{lhs: lhs, rhs: rhs, pred: pred, env: env, combine: combine}
}

func (i *lookupIterator) Next(ctx context.Context) (types.Point, float64, error) {
	if i.closed {
		return nil, 0, types.ErrNoMorePoints
	}
	if i.child == nil {
		buf, err := Materialize(ctx, i.rhs, i.pred, i.env)
		if err != nil {
			return nil, 0, err
		}
		it, err := i.lhs.Stream(ctx, i.pred, i.env)
		if err != nil {
			return nil, 0, err
		}
		i.buffer, i.child = buf, it
	}
	for {
		p, v, err := i.child.Next(ctx)
		if err != nil {
			return nil, 0, err
		}
		d, ok := i.buffer.Lookup(p)
		if out, keep := i.combine(v, d, ok); keep {
			return p, out, nil
		}
	}
}

func (i *lookupIterator) Close() {
	if i.child != nil {
		i.child.Close()
	}
	i.closed = true
	i.buffer = nil
}
