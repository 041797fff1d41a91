// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package runtime

import (
	"context"
	"fmt"

	"github.com/featurebasedb/mistake/dsl/semantics"
	"github.com/featurebasedb/mistake/dsl/types"
)

// Quotient divides each point of its left operand by the value of the right
// operand at the same key. Keys where the denominator is absent or zero
// produce no point at all.
type Quotient struct {
	LHS types.Tensor
	RHS types.Tensor
}

func NewQuotient(lhs, rhs types.Tensor) *Quotient {
	return &Quotient{LHS: lhs, RHS: rhs}
}

func (n *Quotient) Shape() semantics.TensorType {
	l, r := n.LHS.Shape(), n.RHS.Shape()
	return l.WithUnit(l.Unit.Div(r.Unit))
}

func (n *Quotient) Stream(ctx context.Context, pred types.Predicate, env types.Environment) (types.PointIterator, error) {
	return newLookupIterator(ctx, n.LHS, n.RHS, pred, env, func(v, d float64, ok bool) (float64, bool) {
		if !ok || d == 0 {
			CounterQuotientDropped.Inc()
			return 0, false
		}
		return v / d, true
	}), nil
}

func (n *Quotient) Children() []types.Tensor {
	return []types.Tensor{n.LHS, n.RHS}
}

func (n *Quotient) Plan() map[string]interface{} {
	result := make(map[string]interface{})
	result["_op"] = fmt.Sprintf("%T", n)
	result["_shape"] = n.Shape().String()
	result["lhs"] = planOf(n.LHS)
	result["rhs"] = planOf(n.RHS)
	return result
}

func (n *Quotient) String() string {
	return "(" + stringOf(n.LHS) + " / " + stringOf(n.RHS) + ")"
}
