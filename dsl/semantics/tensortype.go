// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package semantics

import (
	"github.com/featurebasedb/mistake/dsl"
)

// TensorType is the static type of a tensor: the space that indexes it and
// the unit its values are measured in.
type TensorType struct {
	Space Space
	Unit  Unit
}

// NewTensorType returns a dimensionless type over the given axes.
func NewTensorType(axes ...string) TensorType {
	return TensorType{Space: NewSpace(axes...), Unit: Dimensionless()}
}

// WithUnit returns a copy of t measured in u.
func (t TensorType) WithUnit(u Unit) TensorType {
	t.Unit = u
	return t
}

// RequirePerfectSymmetry succeeds when t and other have the same space. It
// otherwise returns an *AsymmetryError naming the axes they disagree about.
func (t TensorType) RequirePerfectSymmetry(other TensorType) error {
	diff := t.Space.SymmetricDifference(other.Space)
	if len(diff) == 0 {
		return nil
	}
	return &AsymmetryError{
		Axes: diff,
		err:  dsl.NewErrAsymmetricSpaces(diff),
	}
}

// RequireSameUnit succeeds when t and other are measured in the same unit.
func (t TensorType) RequireSameUnit(other TensorType) error {
	if t.Unit.Equal(other.Unit) {
		return nil
	}
	return dsl.NewErrIncompatibleUnits(t.Unit.Describe(), other.Unit.Describe())
}

func (t TensorType) String() string {
	if t.Unit.IsDimensionless() {
		return t.Space.String()
	}
	return t.Space.String() + " " + t.Unit.String()
}

// AsymmetryError reports the (sorted) axes on which two spaces disagree.
type AsymmetryError struct {
	Axes []string
	err  error
}

func (e *AsymmetryError) Error() string {
	return e.err.Error()
}

func (e *AsymmetryError) Unwrap() error {
	return e.err
}
