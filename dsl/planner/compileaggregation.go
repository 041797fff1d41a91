// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package planner

import (
	"context"

	"github.com/featurebasedb/mistake/dsl"
	"github.com/featurebasedb/mistake/dsl/parser"
	"github.com/featurebasedb/mistake/dsl/runtime"
	"github.com/featurebasedb/mistake/dsl/semantics"
	"github.com/featurebasedb/mistake/dsl/types"
)

func (p *Planner) compileAggregation(ctx context.Context, expr *parser.Aggregation) (runtime.Node, error) {
	basis, err := p.CompileExpr(ctx, expr.X)
	if err != nil {
		return nil, err
	}
	return p.aggregate(basis, expr.By, expr.Axes)
}

// aggregate reduces basis to the listed axes.
func (p *Planner) aggregate(basis runtime.Node, by parser.Span, axes []*parser.Ident) (runtime.Node, error) {
	space, err := p.checkAxes(basis.Shape().Space, axes)
	if err != nil {
		return nil, err
	}
	if err := p.universe.Lexicon().CheckRequirements(space); err != nil {
		return nil, dsl.NewGripe(identsSpan(by, axes), err)
	}
	return runtime.NewAggregation(basis, space), nil
}

// compileSumImage compiles `x sum {d -> r, ...} [by [...]]`. Each mapping
// consumes its domain axes from the running space and contributes its range
// axes; the registered transforms are chained in the order written.
func (p *Planner) compileSumImage(ctx context.Context, expr *parser.SumImage) (runtime.Node, error) {
	basis, err := p.CompileExpr(ctx, expr.X)
	if err != nil {
		return nil, err
	}

	effective := semantics.NewSpace(basis.Shape().Space...)
	var procedure *types.Transform
	for _, m := range expr.Mappings {
		domain := make([]string, 0, len(m.Domain))
		for _, id := range m.Domain {
			if !effective.Contains(id.Name) {
				return nil, dsl.NewGripe(id.Span, dsl.NewErrUnavailableAxis(id.Name, effective))
			}
			effective = effective.Minus(semantics.Space{id.Name})
			domain = append(domain, id.Name)
		}
		rng := make([]string, 0, len(m.Range))
		for _, id := range m.Range {
			if effective.Contains(id.Name) {
				return nil, dsl.NewGripe(id.Span, dsl.NewErrDuplicateAxis(id.Name))
			}
			effective = effective.Union(semantics.Space{id.Name})
			rng = append(rng, id.Name)
		}

		step, ok := p.universe.FindTransform(semantics.NewSpace(domain...), semantics.NewSpace(rng...))
		if !ok {
			return nil, dsl.NewGripe(m.Span(), dsl.NewErrNoTransform())
		}
		if procedure == nil {
			procedure = step
		} else {
			procedure = procedure.Then(step)
		}
	}
	if procedure == nil {
		return nil, dsl.NewGripe(expr.Sum, dsl.NewErrNoTransform())
	}
	if err := p.universe.Lexicon().CheckRequirements(effective); err != nil {
		return nil, dsl.NewGripe(expr.Sum, err)
	}

	shape := semantics.TensorType{Space: effective, Unit: basis.Shape().Unit}
	var node runtime.Node = runtime.NewTransformation(basis, shape, procedure)
	if expr.Axes != nil {
		return p.aggregate(node, expr.By, expr.Axes)
	}
	return node, nil
}
