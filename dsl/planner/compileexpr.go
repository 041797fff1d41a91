// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package planner

import (
	"context"

	"github.com/featurebasedb/mistake/dsl"
	"github.com/featurebasedb/mistake/dsl/parser"
	"github.com/featurebasedb/mistake/dsl/runtime"
	"github.com/featurebasedb/mistake/dsl/semantics"
)

// CompileExpr type-checks expr and returns the node it compiles to. A type
// error is returned as a *dsl.Gripe locating the fault.
func (p *Planner) CompileExpr(ctx context.Context, expr parser.Expr) (runtime.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch expr := expr.(type) {
	case *parser.Name:
		return p.compileName(expr)
	case *parser.ParenExpr:
		return p.CompileExpr(ctx, expr.X)
	case *parser.BinaryExpr:
		return p.compileBinaryExpr(ctx, expr)
	case *parser.ScaleBy:
		return p.compileScaleBy(ctx, expr)
	case *parser.Aggregation:
		return p.compileAggregation(ctx, expr)
	case *parser.SumImage:
		return p.compileSumImage(ctx, expr)
	case *parser.Multiplex:
		return p.compileMultiplex(ctx, expr)
	case *parser.Selection:
		return p.compileSelection(ctx, expr)
	default:
		return nil, dsl.NewErrInternalf("cannot plan expression: %T", expr)
	}
}

func (p *Planner) compileName(n *parser.Name) (runtime.Node, error) {
	name := n.Ident.Name
	if t, ok := p.universe.Tensor(name); ok {
		return runtime.NewTensorRef(name, t), nil
	}
	if _, ok := p.types[name]; ok {
		return nil, dsl.NewGripe(n.Ident.Span, dsl.NewErrIllTypedName())
	}
	return nil, dsl.NewGripe(n.Ident.Span, dsl.NewErrUndefinedName())
}

func (p *Planner) compileBinaryExpr(ctx context.Context, expr *parser.BinaryExpr) (runtime.Node, error) {
	lhs, rhs, err := p.compileSymmetric(ctx, expr.X, expr.OpPos, expr.Y)
	if err != nil {
		return nil, err
	}
	switch expr.Op {
	case parser.ADD, parser.SUB:
		if err := p.requireSameUnit(lhs, expr.OpPos, rhs); err != nil {
			return nil, err
		}
		if expr.Op == parser.SUB {
			return runtime.Difference(lhs, rhs), nil
		}
		return runtime.NewSumTensor(lhs, rhs), nil
	case parser.MUL:
		return runtime.NewProduct(lhs, rhs), nil
	case parser.DIV:
		return runtime.NewQuotient(lhs, rhs), nil
	default:
		return nil, dsl.NewErrInternalf("unexpected binary operator: %s", expr.Op)
	}
}

// compileSymmetric compiles both operands of a symmetric operator and
// requires that they share a space. A disagreement is a fault at span.
func (p *Planner) compileSymmetric(ctx context.Context, x parser.Expr, span parser.Span, y parser.Expr) (runtime.Node, runtime.Node, error) {
	lhs, err := p.CompileExpr(ctx, x)
	if err != nil {
		return nil, nil, err
	}
	rhs, err := p.CompileExpr(ctx, y)
	if err != nil {
		return nil, nil, err
	}
	if err := lhs.Shape().RequirePerfectSymmetry(rhs.Shape()); err != nil {
		return nil, nil, dsl.NewGripe(span, err)
	}
	return lhs, rhs, nil
}

func (p *Planner) requireSameUnit(lhs runtime.Node, span parser.Span, rhs runtime.Node) error {
	if !p.checkUnits {
		return nil
	}
	if err := lhs.Shape().RequireSameUnit(rhs.Shape()); err != nil {
		return dsl.NewGripe(span, err)
	}
	return nil
}

func (p *Planner) compileScaleBy(ctx context.Context, expr *parser.ScaleBy) (runtime.Node, error) {
	basis, err := p.CompileExpr(ctx, expr.X)
	if err != nil {
		return nil, err
	}
	factor := expr.Factor.Value
	if expr.Op == parser.DIV {
		if factor == 0 {
			return nil, dsl.NewGripe(expr.Factor.Span, dsl.NewErrDivisionByZero())
		}
		factor = 1 / factor
	}
	return runtime.NewScaleTensor(basis, factor), nil
}

// checkAxes resolves an explicit list of axes against the space of the
// expression it applies to. Every axis must be available, and none may be
// listed twice.
func (p *Planner) checkAxes(space semantics.Space, axes []*parser.Ident) (semantics.Space, error) {
	names := make([]string, 0, len(axes))
	seen := make(map[string]struct{}, len(axes))
	for _, id := range axes {
		if _, ok := seen[id.Name]; ok {
			return nil, dsl.NewGripe(id.Span, dsl.NewErrDuplicateAxis(id.Name))
		}
		if !space.Contains(id.Name) {
			return nil, dsl.NewGripe(id.Span, dsl.NewErrUnavailableAxis(id.Name, space))
		}
		seen[id.Name] = struct{}{}
		names = append(names, id.Name)
	}
	return semantics.NewSpace(names...), nil
}

func identsSpan(start parser.Span, ids []*parser.Ident) parser.Span {
	out := start
	for _, id := range ids {
		out = out.Join(id.Span)
	}
	return out
}
