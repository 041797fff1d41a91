// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package runtime

import (
	"context"
	"fmt"

	"github.com/featurebasedb/mistake/dsl/semantics"
	"github.com/featurebasedb/mistake/dsl/types"
)

// Filter is a filter operator: the points of its basis which pass one more
// criterion.
type Filter struct {
	Basis     types.Tensor
	Criterion types.Criterion
}

func NewFilter(basis types.Tensor, c types.Criterion) *Filter {
	return &Filter{Basis: basis, Criterion: c}
}

func (n *Filter) Shape() semantics.TensorType {
	return n.Basis.Shape()
}

func (n *Filter) Stream(ctx context.Context, pred types.Predicate, env types.Environment) (types.PointIterator, error) {
	return n.Basis.Stream(ctx, pred.Augmented(n.Criterion), env)
}

func (n *Filter) Children() []types.Tensor {
	return []types.Tensor{n.Basis}
}

func (n *Filter) Plan() map[string]interface{} {
	result := make(map[string]interface{})
	result["_op"] = fmt.Sprintf("%T", n)
	result["_shape"] = n.Shape().String()
	result["criterion"] = n.Criterion.String()
	result["basis"] = planOf(n.Basis)
	return result
}

func (n *Filter) String() string {
	return "(" + stringOf(n.Basis) + " where " + n.Criterion.String() + ")"
}
