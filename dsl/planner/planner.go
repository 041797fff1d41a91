// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

// Package planner type-checks tensor scripts and compiles them into operator
// graphs in a single pass. Definitions which fail to type-check are reported
// through a Complainer and skipped; the rest of the script still compiles.
package planner

import (
	"context"

	"github.com/featurebasedb/mistake/dsl"
	"github.com/featurebasedb/mistake/dsl/parser"
	"github.com/featurebasedb/mistake/dsl/semantics"
	"github.com/featurebasedb/mistake/dsl/types"
	"github.com/featurebasedb/mistake/dsl/universe"
	"github.com/featurebasedb/mistake/errors"
	"github.com/featurebasedb/mistake/logger"
)

// Complainer receives diagnostics: the extent of the offending source text
// and a message about it.
type Complainer func(span parser.Span, message string)

// Planner compiles the statements of a script against a Universe. Each
// definition which type-checks is registered in the Universe under its name.
type Planner struct {
	universe   *universe.Universe
	complain   Complainer
	logger     logger.Logger
	checkUnits bool

	// types records the type of every name defined so far. A nil entry
	// marks a name whose definition failed to type-check.
	types map[string]*semantics.TensorType

	// casts holds the variable usages of the definition being compiled.
	// They reach the Universe only if the definition succeeds.
	casts map[string]cast

	diagnostics int
}

type cast struct {
	axis   string
	plural bool
}

// Ensure type implements interface.
var _ types.CompilePlanner = (*Planner)(nil)

// PlannerOption is a functional option type for Planner.
type PlannerOption func(p *Planner) error

func OptPlannerLogger(l logger.Logger) PlannerOption {
	return func(p *Planner) error {
		p.logger = l
		return nil
	}
}

// OptPlannerCheckUnits turns on unit-of-measure checking: the operands of a
// sum, a difference or a multiplex must then be measured in the same unit.
func OptPlannerCheckUnits(check bool) PlannerOption {
	return func(p *Planner) error {
		p.checkUnits = check
		return nil
	}
}

// NewPlanner returns a Planner which compiles into u and reports through
// complain.
func NewPlanner(u *universe.Universe, complain Complainer, opts ...PlannerOption) (*Planner, error) {
	if u == nil {
		return nil, dsl.NewErrInternalf("planner requires a universe")
	}
	p := &Planner{
		universe: u,
		complain: complain,
		logger:   logger.NopLogger,
		types:    make(map[string]*semantics.TensorType),
		casts:    make(map[string]cast),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, errors.Wrap(err, "applying option")
		}
	}
	if p.complain == nil {
		p.complain = func(parser.Span, string) {}
	}
	for name, typ := range u.TensorTypes() {
		typ := typ
		p.types[name] = &typ
	}
	return p, nil
}

// Diagnostics returns the number of complaints made so far.
func (p *Planner) Diagnostics() int {
	return p.diagnostics
}

// Type returns the type of a defined name. The second result is false when
// the name is undefined; a name whose definition failed has a nil type.
func (p *Planner) Type(name string) (*semantics.TensorType, bool) {
	typ, ok := p.types[name]
	return typ, ok
}

// CompileScript compiles every statement of script in order. Faults in one
// definition are reported and do not stop the others; the error result is
// for failures which are not about the script, such as cancellation.
func (p *Planner) CompileScript(ctx context.Context, script *parser.Script) error {
	for _, stmt := range script.Statements {
		if _, err := p.CompileStatement(ctx, stmt); err != nil {
			var g *dsl.Gripe
			if !errors.As(err, &g) {
				return err
			}
		}
	}
	return nil
}

// CompileStatement compiles and registers one statement. A definition which
// is rejected has already been reported when the *dsl.Gripe describing it is
// returned.
func (p *Planner) CompileStatement(ctx context.Context, stmt parser.Statement) (types.Tensor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch stmt := stmt.(type) {
	case *parser.DefineTensor:
		return p.compileDefineTensor(ctx, stmt)
	case *parser.EmptyStatement:
		return nil, nil
	default:
		return nil, dsl.NewErrInternalf("cannot plan statement: %T", stmt)
	}
}

func (p *Planner) compileDefineTensor(ctx context.Context, stmt *parser.DefineTensor) (types.Tensor, error) {
	name := stmt.Name.Name
	if _, ok := p.types[name]; ok {
		g := dsl.NewGripe(stmt.Name.Span, dsl.NewErrRedefinition())
		p.gripe(g)
		return nil, g
	}
	if _, ok := p.universe.Tensor(name); ok {
		g := dsl.NewGripe(stmt.Name.Span, dsl.NewErrRedefinition())
		p.gripe(g)
		return nil, g
	}

	p.casts = make(map[string]cast)
	tensor, err := p.CompileExpr(ctx, stmt.Expr)
	if err != nil {
		var g *dsl.Gripe
		if !errors.As(err, &g) {
			return nil, err
		}
		p.gripe(dsl.NewGripe(stmt.Name.Span, dsl.NewErrInvalidTensor()))
		p.gripe(g)
		p.types[name] = nil
		return nil, g
	}

	if err := p.universe.RegisterTensor(name, tensor); err != nil {
		return nil, errors.Wrapf(err, "registering '%s'", name)
	}
	for v, c := range p.casts {
		if err := p.universe.CastVariable(v, c.axis, c.plural); err != nil {
			return nil, errors.Wrapf(err, "casting '@%s'", v)
		}
	}
	typ := tensor.Shape()
	p.types[name] = &typ
	p.logger.Debugf("%s has shape %s", name, typ)
	return tensor, nil
}

// castVariable checks a use of a variable against its earlier uses, in the
// Universe and in the current definition, and records it for the current
// definition.
func (p *Planner) castVariable(name, axis string, plural bool) error {
	if prevAxis, prevPlural, ok := p.universe.VariableUsage(name); ok {
		if prevAxis != axis || prevPlural != plural {
			return dsl.NewErrUsageConflict(name, axis, plural, prevAxis, prevPlural)
		}
		return nil
	}
	if prev, ok := p.casts[name]; ok {
		if prev.axis != axis || prev.plural != plural {
			return dsl.NewErrUsageConflict(name, axis, plural, prev.axis, prev.plural)
		}
		return nil
	}
	p.casts[name] = cast{axis: axis, plural: plural}
	return nil
}

func (p *Planner) gripe(g *dsl.Gripe) {
	p.diagnostics++
	p.complain(g.Span, g.Error())
}
