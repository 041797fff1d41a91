// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package runtime

import (
	"context"
	"fmt"

	"github.com/featurebasedb/mistake/dsl/semantics"
	"github.com/featurebasedb/mistake/dsl/types"
)

// Transformation remaps the points of its basis into another space by
// applying a transform to each one.
type Transformation struct {
	Basis     types.Tensor
	Transform *types.Transform
	shape     semantics.TensorType
}

// NewTransformation returns a node whose points are the basis's points with
// t applied, and whose type is shape.
func NewTransformation(basis types.Tensor, shape semantics.TensorType, t *types.Transform) *Transformation {
	return &Transformation{Basis: basis, Transform: t, shape: shape}
}

func (n *Transformation) Shape() semantics.TensorType {
	return n.shape
}

// Stream pushes the predicate below the transform, so that the basis only
// yields points whose transformed image will pass.
func (n *Transformation) Stream(ctx context.Context, pred types.Predicate, env types.Environment) (types.PointIterator, error) {
	it, err := n.Basis.Stream(ctx, pred.Transformed(n.Transform), env)
	if err != nil {
		return nil, err
	}
	return &transformationIterator{child: it, transform: n.Transform}, nil
}

func (n *Transformation) Children() []types.Tensor {
	return []types.Tensor{n.Basis}
}

func (n *Transformation) Plan() map[string]interface{} {
	result := make(map[string]interface{})
	result["_op"] = fmt.Sprintf("%T", n)
	result["_shape"] = n.Shape().String()
	result["transform"] = n.Transform.String()
	result["basis"] = planOf(n.Basis)
	return result
}

func (n *Transformation) String() string {
	return stringOf(n.Basis) + " sum {" + n.Transform.String() + "}"
}

type transformationIterator struct {
	child     types.PointIterator
	transform *types.Transform
}

func (i *transformationIterator) Next(ctx context.Context) (types.Point, float64, error) {
	p, v, err := i.child.Next(ctx)
	if err != nil {
		return nil, 0, err
	}
	q, err := i.transform.Apply(p)
	if err != nil {
		return nil, 0, err
	}
	return q, v, nil
}

func (i *transformationIterator) Close() {
	i.child.Close()
}
