// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package runtime

import (
	"context"
	"fmt"

	"github.com/featurebasedb/mistake/dsl/semantics"
	"github.com/featurebasedb/mistake/dsl/types"
)

// Multiplex partitions points between two tensors: the points of LHS which
// pass the criterion, then the points of RHS which pass its complement.
// Every key comes from exactly one side.
type Multiplex struct {
	LHS       types.Tensor
	Criterion types.Criterion
	RHS       types.Tensor
}

func NewMultiplex(lhs types.Tensor, c types.Criterion, rhs types.Tensor) *Multiplex {
	return &Multiplex{LHS: lhs, Criterion: c, RHS: rhs}
}

func (n *Multiplex) Shape() semantics.TensorType {
	return n.LHS.Shape()
}

func (n *Multiplex) Stream(ctx context.Context, pred types.Predicate, env types.Environment) (types.PointIterator, error) {
	complement := n.Criterion.Complement()
	return newConcatIterator(
		func() (types.PointIterator, error) { return n.LHS.Stream(ctx, pred.Augmented(n.Criterion), env) },
		func() (types.PointIterator, error) { return n.RHS.Stream(ctx, pred.Augmented(complement), env) },
	), nil
}

func (n *Multiplex) Children() []types.Tensor {
	return []types.Tensor{n.LHS, n.RHS}
}

func (n *Multiplex) Plan() map[string]interface{} {
	result := make(map[string]interface{})
	result["_op"] = fmt.Sprintf("%T", n)
	result["_shape"] = n.Shape().String()
	result["criterion"] = n.Criterion.String()
	result["lhs"] = planOf(n.LHS)
	result["rhs"] = planOf(n.RHS)
	return result
}

func (n *Multiplex) String() string {
	return "(" + stringOf(n.LHS) + " where " + n.Criterion.String() + " else " + stringOf(n.RHS) + ")"
}
