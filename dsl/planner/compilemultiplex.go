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

func (p *Planner) compileMultiplex(ctx context.Context, expr *parser.Multiplex) (runtime.Node, error) {
	axis := expr.Criterion.Axis
	lhs, rhs, err := p.compileSymmetric(ctx, expr.Then, axis.Span, expr.Otherwise)
	if err != nil {
		return nil, err
	}
	if err := p.requireSameUnit(lhs, axis.Span, rhs); err != nil {
		return nil, err
	}
	c, err := p.compileCriterion(expr.Criterion, lhs.Shape().Space)
	if err != nil {
		return nil, err
	}
	return runtime.NewMultiplex(lhs, c, rhs), nil
}

func (p *Planner) compileSelection(ctx context.Context, expr *parser.Selection) (runtime.Node, error) {
	basis, err := p.CompileExpr(ctx, expr.X)
	if err != nil {
		return nil, err
	}
	c, err := p.compileCriterion(expr.Criterion, basis.Shape().Space)
	if err != nil {
		return nil, err
	}
	return runtime.NewFilter(basis, c), nil
}

var relops = map[parser.Token]runtime.Relop{
	parser.LT: runtime.LT,
	parser.LE: runtime.LE,
	parser.EQ: runtime.EQ,
	parser.NE: runtime.NE,
	parser.GE: runtime.GE,
	parser.GT: runtime.GT,
}

// compileCriterion builds the criterion of a multiplex or selection over a
// tensor in space. Variables are cast in the universe as they are met, so
// that every use of one name in a script agrees.
func (p *Planner) compileCriterion(cmp *parser.Comparison, space semantics.Space) (types.Criterion, error) {
	axis := cmp.Axis
	if !space.Contains(axis.Name) {
		return nil, dsl.NewGripe(axis.Span, dsl.NewErrUnavailableAxis(axis.Name, space))
	}

	if cmp.Op == parser.IN {
		values, err := p.compileValue(axis.Name, cmp.Value, true)
		if err != nil {
			return nil, err
		}
		return runtime.NewMembership(axis.Name, values), nil
	}

	op, ok := relops[cmp.Op]
	if !ok {
		return nil, dsl.NewErrInternalf("unexpected relational operator: %s", cmp.Op)
	}
	value, err := p.compileValue(axis.Name, cmp.Value, false)
	if err != nil {
		return nil, err
	}
	return runtime.NewScalarComparison(axis.Name, op, value), nil
}

// compileValue compiles the right-hand side of a criterion. plural is true
// where a list of members is expected.
func (p *Planner) compileValue(axis string, operand parser.Operand, plural bool) (runtime.Value, error) {
	switch v := operand.(type) {
	case *parser.VariableRef:
		if err := p.castVariable(v.Name, axis, plural); err != nil {
			return nil, dsl.NewGripe(v.Span, err)
		}
		return runtime.NewVariable(v.Name), nil
	case *parser.ListLit:
		if !plural {
			return nil, dsl.NewGripe(v.Span, dsl.NewErrInvalidCriterion("A list of values may only follow 'in'."))
		}
		members := make([]interface{}, len(v.Values))
		for i, x := range v.Values {
			m, err := literal(x)
			if err != nil {
				return nil, err
			}
			members[i] = m
		}
		return runtime.NewConstant(members), nil
	default:
		m, err := literal(operand)
		if err != nil {
			return nil, err
		}
		if plural {
			return runtime.NewConstant([]interface{}{m}), nil
		}
		return runtime.NewConstant(m), nil
	}
}

func literal(operand parser.Operand) (interface{}, error) {
	switch v := operand.(type) {
	case *parser.NumberLit:
		if v.Integer {
			return int64(v.Value), nil
		}
		return v.Value, nil
	case *parser.StringLit:
		return v.Value, nil
	case *parser.VariableRef:
		return nil, dsl.NewGripe(v.Span, dsl.NewErrInvalidCriterion("A variable may not appear inside a list."))
	default:
		return nil, dsl.NewErrInternalf("unexpected operand: %T", operand)
	}
}
