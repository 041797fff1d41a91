// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package types

import (
	"context"

	"github.com/featurebasedb/mistake/dsl/parser"
	"github.com/featurebasedb/mistake/dsl/semantics"
	"github.com/featurebasedb/mistake/errors"
)

const ErrNoMorePointsCode errors.Code = "ErrNoMorePoints"

// ErrNoMorePoints is returned by PointIterator.Next at the end of a stream.
var ErrNoMorePoints = errors.New(ErrNoMorePointsCode, "no more points")

// Tensor is a (possibly computed) mapping from the points of a space to
// numeric values.
//
// Stream returns a lazy sequence of the tensor's (point, value) pairs which
// satisfy pred. Every call starts over from the beginning: leaf tensors
// re-read their data and computed tensors keep no state between calls. A
// stream may report the same point more than once; consumers that need one
// value per point must sum duplicates.
type Tensor interface {
	Shape() semantics.TensorType
	Stream(ctx context.Context, pred Predicate, env Environment) (PointIterator, error)
}

// PointIterator produces the pairs of a stream on demand. Next returns
// ErrNoMorePoints when the stream is exhausted. Close releases any resources
// held by the iterator; it is safe to abandon an iterator part way through
// as long as it is closed.
type PointIterator interface {
	Next(ctx context.Context) (Point, float64, error)
	Close()
}

// CompilePlanner compiles statements into tensors.
type CompilePlanner interface {
	CompileStatement(context.Context, parser.Statement) (Tensor, error)
}

// SliceIterator iterates over pairs held in memory.
type SliceIterator struct {
	points []Point
	values []float64
	i      int
}

// NewSliceIterator returns an iterator over parallel slices of points and
// values.
func NewSliceIterator(points []Point, values []float64) *SliceIterator {
	return &SliceIterator{points: points, values: values}
}

func (it *SliceIterator) Next(ctx context.Context) (Point, float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	if it.i >= len(it.points) {
		return nil, 0, ErrNoMorePoints
	}
	p, v := it.points[it.i], it.values[it.i]
	it.i++
	return p, v, nil
}

func (it *SliceIterator) Close() {
	it.i = len(it.points)
}

// EmptyIterator yields nothing.
type EmptyIterator struct{}

func (EmptyIterator) Next(ctx context.Context) (Point, float64, error) {
	return nil, 0, ErrNoMorePoints
}

func (EmptyIterator) Close() {}

// Drain calls fn with every pair of it and then closes it.
func Drain(ctx context.Context, it PointIterator, fn func(Point, float64) error) error {
	defer it.Close()
	for {
		p, v, err := it.Next(ctx)
		if err == ErrNoMorePoints {
			return nil
		} else if err != nil {
			return err
		}
		if err := fn(p, v); err != nil {
			return err
		}
	}
}
