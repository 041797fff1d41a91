// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package semantics

import (
	"strconv"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Unit is a unit of measure: a formal product of fundamental units, each
// raised to a non-zero integer exponent. The zero value (and the empty map)
// is the dimensionless unit.
type Unit map[string]int

// Dimensionless returns the multiplicative identity.
func Dimensionless() Unit {
	return Unit{}
}

// Mul returns u * v.
func (u Unit) Mul(v Unit) Unit {
	out := make(Unit, len(u)+len(v))
	for k, e := range u {
		out[k] = e
	}
	for k, e := range v {
		if n := out[k] + e; n != 0 {
			out[k] = n
		} else {
			delete(out, k)
		}
	}
	return out
}

// Invert returns 1/u.
func (u Unit) Invert() Unit {
	out := make(Unit, len(u))
	for k, e := range u {
		out[k] = -e
	}
	return out
}

// Div returns u / v.
func (u Unit) Div(v Unit) Unit {
	return u.Mul(v.Invert())
}

// Equal reports whether both units have the same exponents.
func (u Unit) Equal(v Unit) bool {
	return maps.Equal(u, v)
}

// IsDimensionless reports whether u is the identity.
func (u Unit) IsDimensionless() bool {
	return len(u) == 0
}

// String lists the units with positive exponents, then "/" and the units
// with negative exponents. The dimensionless unit is "".
func (u Unit) String() string {
	keys := maps.Keys(u)
	slices.Sort(keys)

	var num, den []string
	for _, k := range keys {
		e := u[k]
		if e > 0 {
			num = append(num, power(k, e))
		} else {
			den = append(den, power(k, -e))
		}
	}

	s := strings.Join(num, " ")
	if len(den) > 0 {
		s += "/" + strings.Join(den, " ")
	}
	return s
}

// Describe is like String but renders the dimensionless unit as "1".
func (u Unit) Describe() string {
	if u.IsDimensionless() {
		return "1"
	}
	return u.String()
}

func power(name string, e int) string {
	if e == 1 {
		return name
	}
	return name + "^" + strconv.Itoa(e)
}
