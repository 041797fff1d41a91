// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package runtime

import (
	"context"
	"fmt"

	"github.com/featurebasedb/mistake/dsl/semantics"
	"github.com/featurebasedb/mistake/dsl/types"
)

// Aggregation reduces its basis to a subspace. Only the declared shape
// changes: the stream is the basis's stream, and the dropped axes are summed
// over when a consumer materializes it by the reduced key.
type Aggregation struct {
	Basis types.Tensor
	shape semantics.TensorType
}

func NewAggregation(basis types.Tensor, space semantics.Space) *Aggregation {
	return &Aggregation{
		Basis: basis,
		shape: semantics.TensorType{Space: space, Unit: basis.Shape().Unit},
	}
}

func (n *Aggregation) Shape() semantics.TensorType {
	return n.shape
}

func (n *Aggregation) Stream(ctx context.Context, pred types.Predicate, env types.Environment) (types.PointIterator, error) {
	return n.Basis.Stream(ctx, pred, env)
}

func (n *Aggregation) Children() []types.Tensor {
	return []types.Tensor{n.Basis}
}

func (n *Aggregation) Plan() map[string]interface{} {
	result := make(map[string]interface{})
	result["_op"] = fmt.Sprintf("%T", n)
	result["_shape"] = n.Shape().String()
	result["basis"] = planOf(n.Basis)
	return result
}

func (n *Aggregation) String() string {
	return stringOf(n.Basis) + " by " + n.shape.Space.String()
}
