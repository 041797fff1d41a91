// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package runtime

import (
	"context"
	"fmt"
	"strconv"

	"github.com/featurebasedb/mistake/dsl/semantics"
	"github.com/featurebasedb/mistake/dsl/types"
)

// ScaleTensor multiplies every value of its basis by a fixed factor.
type ScaleTensor struct {
	Basis  types.Tensor
	Factor float64
}

func NewScaleTensor(basis types.Tensor, factor float64) *ScaleTensor {
	return &ScaleTensor{Basis: basis, Factor: factor}
}

func (n *ScaleTensor) Shape() semantics.TensorType {
	return n.Basis.Shape()
}

func (n *ScaleTensor) Stream(ctx context.Context, pred types.Predicate, env types.Environment) (types.PointIterator, error) {
	it, err := n.Basis.Stream(ctx, pred, env)
	if err != nil {
		return nil, err
	}
	return &scaleIterator{child: it, factor: n.Factor}, nil
}

func (n *ScaleTensor) Children() []types.Tensor {
	return []types.Tensor{n.Basis}
}

func (n *ScaleTensor) Plan() map[string]interface{} {
	result := make(map[string]interface{})
	result["_op"] = fmt.Sprintf("%T", n)
	result["_shape"] = n.Shape().String()
	result["factor"] = n.Factor
	result["basis"] = planOf(n.Basis)
	return result
}

func (n *ScaleTensor) String() string {
	return strconv.FormatFloat(n.Factor, 'g', -1, 64) + " * " + stringOf(n.Basis)
}

type scaleIterator struct {
	child  types.PointIterator
	factor float64
}

func (i *scaleIterator) Next(ctx context.Context) (types.Point, float64, error) {
	p, v, err := i.child.Next(ctx)
	if err != nil {
		return nil, 0, err
	}
	return p, v * i.factor, nil
}

func (i *scaleIterator) Close() {
	i.child.Close()
}
