// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package types

import (
	"github.com/featurebasedb/mistake/dsl/semantics"
)

// UpdateFunc adds members for a transform's range axes to a point which
// already has members for its domain axes.
type UpdateFunc func(Point) error

// Transform is a function from points in one space to points in another,
// like "orderid -> shipcountry" or "date -> (month, year)". A transform is
// identified by its (Domain, Range) pair.
type Transform struct {
	Domain semantics.Space
	Range  semantics.Space
	Update UpdateFunc
}

// Key identifies the transform's (domain, range) pair.
func (t *Transform) Key() string {
	return TransformKey(t.Domain, t.Range)
}

// TransformKey identifies a (domain, range) pair.
func TransformKey(domain, rng semantics.Space) string {
	return domain.Key() + "\x01" + rng.Key()
}

func (t *Transform) String() string {
	return t.Domain.String() + " -> " + t.Range.String()
}

// Then returns a transform which applies t and then next. Range axes of t
// may feed the domain of next.
func (t *Transform) Then(next *Transform) *Transform {
	return &Transform{
		Domain: t.Domain.Union(next.Domain.Minus(t.Range)),
		Range:  t.Range.Union(next.Range),
		Update: func(p Point) error {
			if err := t.Update(p); err != nil {
				return err
			}
			return next.Update(p)
		},
	}
}

// Apply returns a copy of p with the transform applied. p is not modified.
func (t *Transform) Apply(p Point) (Point, error) {
	q := p.Clone()
	if err := t.Update(q); err != nil {
		return nil, err
	}
	return q, nil
}
