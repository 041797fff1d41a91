// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package types

import (
	"strings"

	"github.com/featurebasedb/mistake/dsl/semantics"
)

// Criterion is a filter condition over points.
type Criterion interface {
	// Domain is the set of axes the criterion inspects.
	Domain() semantics.Space

	// Test reports whether the point satisfies the criterion. Variables are
	// resolved against env.
	Test(p Point, env Environment) (bool, error)

	// Complement returns a criterion which passes exactly the points this
	// one rejects.
	Complement() Criterion

	String() string
}

// Predicate is a conjunction of criteria. The zero value accepts every point.
type Predicate []Criterion

// Augmented returns a new predicate with c conjoined. pred is not modified.
func (pred Predicate) Augmented(c Criterion) Predicate {
	out := make(Predicate, 0, len(pred)+1)
	out = append(out, pred...)
	return append(out, c)
}

// Test reports whether p satisfies every criterion.
func (pred Predicate) Test(p Point, env Environment) (bool, error) {
	for _, c := range pred {
		ok, err := c.Test(p, env)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// Domain is the union of the domains of the criteria.
func (pred Predicate) Domain() semantics.Space {
	out := semantics.Space{}
	for _, c := range pred {
		out = out.Union(c.Domain())
	}
	return out
}

// Divmod splits the predicate into the criteria which are fully determined
// by the axes of divisor and the remainder.
func (pred Predicate) Divmod(divisor semantics.Space) (quotient, remainder Predicate) {
	for _, c := range pred {
		if c.Domain().SubsetOf(divisor) {
			quotient = append(quotient, c)
		} else {
			remainder = append(remainder, c)
		}
	}
	return quotient, remainder
}

// Transformed rewrites the predicate so that it may be tested on the points
// of a transform's basis rather than on its output. Criteria which inspect
// any of the transform's range axes become TranslatedCriteria; the others
// are kept as they are.
func (pred Predicate) Transformed(t *Transform) Predicate {
	if len(pred) == 0 {
		return nil
	}
	out := make(Predicate, len(pred))
	for i, c := range pred {
		if c.Domain().Intersects(t.Range) {
			out[i] = &TranslatedCriterion{Criterion: c, Transform: t}
		} else {
			out[i] = c
		}
	}
	return out
}

func (pred Predicate) String() string {
	parts := make([]string, len(pred))
	for i, c := range pred {
		parts[i] = c.String()
	}
	return strings.Join(parts, " and ")
}

// TranslatedCriterion applies a transform to a copy of the point and then
// tests the copy with the original criterion.
type TranslatedCriterion struct {
	Criterion Criterion
	Transform *Transform
}

func (tc *TranslatedCriterion) Domain() semantics.Space {
	return tc.Criterion.Domain().Minus(tc.Transform.Range).Union(tc.Transform.Domain)
}

func (tc *TranslatedCriterion) Test(p Point, env Environment) (bool, error) {
	q, err := tc.Transform.Apply(p)
	if err != nil {
		return false, err
	}
	return tc.Criterion.Test(q, env)
}

func (tc *TranslatedCriterion) Complement() Criterion {
	return &TranslatedCriterion{Criterion: tc.Criterion.Complement(), Transform: tc.Transform}
}

func (tc *TranslatedCriterion) String() string {
	return tc.Criterion.String() + " via " + tc.Transform.String()
}
