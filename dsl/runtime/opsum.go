// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package runtime

import (
	"context"
	"fmt"

	"github.com/featurebasedb/mistake/dsl/semantics"
	"github.com/featurebasedb/mistake/dsl/types"
)

// SumTensor streams both of its operands, one after the other. The same
// point may be yielded once by each side; the values are only summed when a
// consumer materializes the stream. That is sound because values are
// additive.
type SumTensor struct {
	LHS types.Tensor
	RHS types.Tensor
}

func NewSumTensor(lhs, rhs types.Tensor) *SumTensor {
	return &SumTensor{LHS: lhs, RHS: rhs}
}

// Difference is lhs + (-1 * rhs).
func Difference(lhs, rhs types.Tensor) *SumTensor {
	return NewSumTensor(lhs, NewScaleTensor(rhs, -1))
}

func (n *SumTensor) Shape() semantics.TensorType {
	return n.LHS.Shape()
}

func (n *SumTensor) Stream(ctx context.Context, pred types.Predicate, env types.Environment) (types.PointIterator, error) {
	return newConcatIterator(
		func() (types.PointIterator, error) { return n.LHS.Stream(ctx, pred, env) },
		func() (types.PointIterator, error) { return n.RHS.Stream(ctx, pred, env) },
	), nil
}

func (n *SumTensor) Children() []types.Tensor {
	return []types.Tensor{n.LHS, n.RHS}
}

func (n *SumTensor) Plan() map[string]interface{} {
	result := make(map[string]interface{})
	result["_op"] = fmt.Sprintf("%T", n)
	result["_shape"] = n.Shape().String()
	result["lhs"] = planOf(n.LHS)
	result["rhs"] = planOf(n.RHS)
	return result
}

func (n *SumTensor) String() string {
	return "(" + stringOf(n.LHS) + " + " + stringOf(n.RHS) + ")"
}
