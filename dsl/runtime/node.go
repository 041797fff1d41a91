// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

// Package runtime contains the operator graph which compiled expressions
// run as: lazy tensor nodes that sift, filter and combine other tensors, and
// the buffer used where random access by key cannot be avoided.
package runtime

import (
	"context"
	"fmt"

	"github.com/featurebasedb/mistake/dsl/semantics"
	"github.com/featurebasedb/mistake/dsl/types"
)

// Node is a tensor of the operator graph. The set of nodes is closed: only
// this package implements it.
type Node interface {
	types.Tensor

	// Children returns the tensors this node draws from.
	Children() []types.Tensor

	// Plan returns a rich description of the node and its children; intended
	// to be marshalled into json.
	Plan() map[string]interface{}

	String() string

	node()
}

func (*TensorRef) node()      {}
func (*SumTensor) node()      {}
func (*ScaleTensor) node()    {}
func (*Transformation) node() {}
func (*Aggregation) node()    {}
func (*Product) node()        {}
func (*Quotient) node()       {}
func (*Multiplex) node()      {}
func (*Filter) node()         {}

// TensorRef names a tensor registered elsewhere, typically a base tensor.
type TensorRef struct {
	Name   string
	Tensor types.Tensor
}

func NewTensorRef(name string, t types.Tensor) *TensorRef {
	return &TensorRef{Name: name, Tensor: t}
}

func (n *TensorRef) Shape() semantics.TensorType {
	return n.Tensor.Shape()
}

func (n *TensorRef) Stream(ctx context.Context, pred types.Predicate, env types.Environment) (types.PointIterator, error) {
	return n.Tensor.Stream(ctx, pred, env)
}

func (n *TensorRef) Children() []types.Tensor {
	return []types.Tensor{}
}

func (n *TensorRef) Plan() map[string]interface{} {
	result := make(map[string]interface{})
	result["_op"] = fmt.Sprintf("%T", n)
	result["_shape"] = n.Shape().String()
	result["name"] = n.Name
	result["tensor"] = fmt.Sprintf("%T", n.Tensor)
	return result
}

func (n *TensorRef) String() string {
	return n.Name
}

// planOf describes t, which need not be a Node.
func planOf(t types.Tensor) map[string]interface{} {
	if n, ok := t.(Node); ok {
		return n.Plan()
	}
	result := make(map[string]interface{})
	result["_op"] = fmt.Sprintf("%T", t)
	result["_shape"] = t.Shape().String()
	return result
}

func stringOf(t types.Tensor) string {
	if s, ok := t.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", t)
}

// concatIterator yields everything from each of a sequence of streams in
// turn. Streams are opened lazily.
type concatIterator struct {
	open    []func() (types.PointIterator, error)
	current types.PointIterator
}

func newConcatIterator(open ...func() (types.PointIterator, error)) *concatIterator {
	return &concatIterator{open: open}
}

func (i *concatIterator) Next(ctx context.Context) (types.Point, float64, error) {
	for {
		if i.current == nil {
			if len(i.open) == 0 {
				return nil, 0, types.ErrNoMorePoints
			}
			it, err := i.open[0]()
			if err != nil {
				return nil, 0, err
			}
			i.open, i.current = i.open[1:], it
		}
		p, v, err := i.current.Next(ctx)
		if err == types.ErrNoMorePoints {
			i.current.Close()
			i.current = nil
			continue
		}
		return p, v, err
	}
}

func (i *concatIterator) Close() {
	if i.current != nil {
		i.current.Close()
		i.current = nil
	}
	i.open = nil
}
