// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package runtime

import (
	"fmt"

	"github.com/featurebasedb/mistake/dsl"
	"github.com/featurebasedb/mistake/dsl/semantics"
	"github.com/featurebasedb/mistake/dsl/types"
)

// Relop is a relational operator usable in a ScalarComparison.
type Relop int

const (
	LT Relop = iota
	LE
	EQ
	NE
	GE
	GT
)

type relopInfo struct {
	symbol  string
	inverse Relop
	test    func(cmp int) bool
}

// relops pairs each operator with the operator that accepts exactly the
// members it rejects.
var relops = [...]relopInfo{
	LT: {"<", GE, func(c int) bool { return c < 0 }},
	LE: {"<=", GT, func(c int) bool { return c <= 0 }},
	EQ: {"=", NE, func(c int) bool { return c == 0 }},
	NE: {"!=", EQ, func(c int) bool { return c != 0 }},
	GE: {">=", LT, func(c int) bool { return c >= 0 }},
	GT: {">", LE, func(c int) bool { return c > 0 }},
}

func (op Relop) String() string {
	if op < 0 || int(op) >= len(relops) {
		return fmt.Sprintf("Relop(%d)", int(op))
	}
	return relops[op].symbol
}

// Inverse returns the complementary operator.
func (op Relop) Inverse() Relop {
	return relops[op].inverse
}

// ScalarComparison compares one axis of a point against a single value.
// There is deliberately no "between": its complement would be a
// disjunction.
type ScalarComparison struct {
	Axis  string
	Op    Relop
	Value Value
}

// Ensure type implements interface.
var _ types.Criterion = (*ScalarComparison)(nil)

func NewScalarComparison(axis string, op Relop, v Value) *ScalarComparison {
	return &ScalarComparison{Axis: axis, Op: op, Value: v}
}

func (c *ScalarComparison) Domain() semantics.Space {
	return semantics.Space{c.Axis}
}

func (c *ScalarComparison) Test(p types.Point, env types.Environment) (bool, error) {
	v, err := c.Value.Resolve(env)
	if err != nil {
		return false, err
	}
	if _, ok := v.([]interface{}); ok {
		return false, dsl.NewErrBindingPlurality(valueName(c.Value), false)
	}
	return relops[c.Op].test(types.Compare(p[c.Axis], v)), nil
}

func (c *ScalarComparison) Complement() types.Criterion {
	return &ScalarComparison{Axis: c.Axis, Op: c.Op.Inverse(), Value: c.Value}
}

func (c *ScalarComparison) String() string {
	return c.Axis + " " + c.Op.String() + " " + c.Value.String()
}

// Membership tests whether one axis of a point is among a list of values.
type Membership struct {
	Axis   string
	Values Value
	Negate bool
}

// Ensure type implements interface.
var _ types.Criterion = (*Membership)(nil)

func NewMembership(axis string, values Value) *Membership {
	return &Membership{Axis: axis, Values: values}
}

func (c *Membership) Domain() semantics.Space {
	return semantics.Space{c.Axis}
}

func (c *Membership) Test(p types.Point, env types.Environment) (bool, error) {
	v, err := c.Values.Resolve(env)
	if err != nil {
		return false, err
	}
	list, ok := v.([]interface{})
	if !ok {
		list = []interface{}{v}
	}
	member := p[c.Axis]
	for _, x := range list {
		if types.Compare(member, x) == 0 {
			return !c.Negate, nil
		}
	}
	return c.Negate, nil
}

func (c *Membership) Complement() types.Criterion {
	return &Membership{Axis: c.Axis, Values: c.Values, Negate: !c.Negate}
}

func (c *Membership) String() string {
	if c.Negate {
		return c.Axis + " not in " + c.Values.String()
	}
	return c.Axis + " in " + c.Values.String()
}

func valueName(v Value) string {
	if vv, ok := v.(*Variable); ok {
		return vv.Name
	}
	return v.String()
}
