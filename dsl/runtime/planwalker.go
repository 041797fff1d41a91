// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package runtime

import (
	"encoding/json"
	"strings"

	"github.com/featurebasedb/mistake/dsl/types"
)

// TensorVisitor visits nodes of an operator graph.
type TensorVisitor interface {
	// VisitTensor is invoked for each tensor during Walk. If the resulting
	// TensorVisitor is not nil, Walk visits each of the children of the tensor
	// with that visitor, followed by a call of VisitTensor(nil) to the
	// returned visitor.
	VisitTensor(t types.Tensor) TensorVisitor
}

// Walk traverses the graph depth-first. Tensors which are not Nodes have no
// children.
func Walk(v TensorVisitor, t types.Tensor) {
	if v = v.VisitTensor(t); v == nil {
		return
	}

	if n, ok := t.(Node); ok {
		for _, child := range n.Children() {
			Walk(v, child)
		}
	}

	v.VisitTensor(nil)
}

type inspector func(types.Tensor) bool

func (f inspector) VisitTensor(t types.Tensor) TensorVisitor {
	if f(t) {
		return f
	}
	return nil
}

// Inspect traverses the graph in depth-first order. If f(t) returns true,
// Inspect invokes f recursively for each of the children of t, followed by a
// call of f(nil).
func Inspect(t types.Tensor, f func(types.Tensor) bool) {
	Walk(inspector(f), t)
}

// Leaves returns the names of the registered tensors t draws from, in the
// order they are first reached.
func Leaves(t types.Tensor) []string {
	var names []string
	seen := make(map[string]struct{})
	Inspect(t, func(t types.Tensor) bool {
		if ref, ok := t.(*TensorRef); ok {
			if _, dup := seen[ref.Name]; !dup {
				seen[ref.Name] = struct{}{}
				names = append(names, ref.Name)
			}
			return false
		}
		return t != nil
	})
	return names
}

// Explain renders the plan of t as indented json.
func Explain(t types.Tensor) (string, error) {
	b, err := json.MarshalIndent(planOf(t), "", "    ")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
