// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

// Package semantics holds the type-level ideas of the tensor language:
// dimensions (axes), units of measure, the spaces tensors live in, and the
// lexicon that records which of these are known.
//
// Nothing here touches data. It is all about deciding whether an expression
// makes sense before it is evaluated.
package semantics

import (
	"strings"

	"golang.org/x/exp/slices"
)

// Space is a set of axis names. It is kept sorted and free of duplicates so
// that two equal sets have equal representations.
type Space []string

// NewSpace returns the space containing the given axes.
func NewSpace(axes ...string) Space {
	s := make(Space, len(axes))
	copy(s, axes)
	slices.Sort(s)
	return slices.Compact(s)
}

// Contains reports whether axis is a member of s.
func (s Space) Contains(axis string) bool {
	return slices.Contains(s, axis)
}

// Equal reports whether two spaces are set-equal.
func (s Space) Equal(other Space) bool {
	return slices.Equal(s, other)
}

// Symmetric is a synonym for Equal: two operands of a symmetric operator
// must live in the same space.
func (s Space) Symmetric(other Space) bool {
	return s.Equal(other)
}

// SymmetricDifference returns, sorted, every axis in exactly one of s and
// other.
func (s Space) SymmetricDifference(other Space) []string {
	var out []string
	for _, a := range s {
		if !other.Contains(a) {
			out = append(out, a)
		}
	}
	for _, a := range other {
		if !s.Contains(a) {
			out = append(out, a)
		}
	}
	slices.Sort(out)
	return out
}

// Union returns the axes of s and other.
func (s Space) Union(other Space) Space {
	return NewSpace(append(append([]string{}, s...), other...)...)
}

// Minus returns the axes of s which are not in other.
func (s Space) Minus(other Space) Space {
	out := Space{}
	for _, a := range s {
		if !other.Contains(a) {
			out = append(out, a)
		}
	}
	return out
}

// Intersects reports whether s and other share any axis.
func (s Space) Intersects(other Space) bool {
	for _, a := range s {
		if other.Contains(a) {
			return true
		}
	}
	return false
}

// SubsetOf reports whether every axis of s is in other.
func (s Space) SubsetOf(other Space) bool {
	for _, a := range s {
		if !other.Contains(a) {
			return false
		}
	}
	return true
}

// Key returns a string which uniquely identifies the space.
func (s Space) Key() string {
	return strings.Join(s, "\x00")
}

func (s Space) String() string {
	return "[" + strings.Join(s, ", ") + "]"
}
