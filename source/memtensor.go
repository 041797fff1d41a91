// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package source

import (
	"context"

	"github.com/featurebasedb/mistake/dsl/semantics"
	"github.com/featurebasedb/mistake/dsl/types"
)

// MemTensor is a base tensor held in memory as a list of rows. Unlike a
// buffer it keeps rows as they were added, duplicates included.
type MemTensor struct {
	shape  semantics.TensorType
	points []types.Point
	values []float64
}

// Ensure type implements interface.
var _ types.Tensor = (*MemTensor)(nil)

func NewMemTensor(shape semantics.TensorType) *MemTensor {
	return &MemTensor{shape: shape}
}

// Add appends a row. Members are normalized and members for axes outside
// the tensor's space are dropped.
func (m *MemTensor) Add(p types.Point, v float64) {
	q := make(types.Point, len(m.shape.Space))
	for _, a := range m.shape.Space {
		if x, ok := p[a]; ok {
			q[a] = types.Normalize(x)
		}
	}
	m.points = append(m.points, q)
	m.values = append(m.values, v)
}

// Len returns the number of rows.
func (m *MemTensor) Len() int {
	return len(m.points)
}

func (m *MemTensor) Shape() semantics.TensorType {
	return m.shape
}

func (m *MemTensor) Stream(ctx context.Context, pred types.Predicate, env types.Environment) (types.PointIterator, error) {
	return &memIterator{m: m, pred: pred, env: env}, nil
}

func (m *MemTensor) String() string {
	return "memory" + m.shape.Space.String()
}

type memIterator struct {
	m    *MemTensor
	pred types.Predicate
	env  types.Environment
	i    int
}

func (it *memIterator) Next(ctx context.Context) (types.Point, float64, error) {
	for it.i < len(it.m.points) {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		p, v := it.m.points[it.i], it.m.values[it.i]
		it.i++
		ok, err := it.pred.Test(p, it.env)
		if err != nil {
			return nil, 0, err
		} else if ok {
			return p.Clone(), v, nil
		}
	}
	return nil, 0, types.ErrNoMorePoints
}

func (it *memIterator) Close() {
	it.i = len(it.m.points)
}
