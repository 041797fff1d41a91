// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

// Package types holds the contracts shared by the planner, the runtime and
// the data sources: points, tensors, iterators, criteria and transforms.
package types

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Point assigns a member to each axis of a space. Members are int64,
// float64, string, bool or time.Time.
type Point map[string]interface{}

// Clone returns a shallow copy of p.
func (p Point) Clone() Point {
	out := make(Point, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Project returns a copy of p restricted to axes.
func (p Point) Project(axes []string) Point {
	out := make(Point, len(axes))
	for _, a := range axes {
		if v, ok := p[a]; ok {
			out[a] = v
		}
	}
	return out
}

// String renders the point with its axes in sorted order.
func (p Point) String() string {
	keys := maps.Keys(p)
	slices.Sort(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, p[k])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Environment binds query variables to values. A plural variable is bound to
// a []interface{}.
type Environment map[string]interface{}

// Normalize converts the integer and float kinds a source might produce to
// int64 and float64.
func Normalize(v interface{}) interface{} {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return int64(x)
	case float32:
		return float64(x)
	default:
		return v
	}
}

// kind ranks member types for Compare.
func kind(v interface{}) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case int64, float64:
		return 2
	case string:
		return 3
	case time.Time:
		return 4
	default:
		return 5
	}
}

// Compare imposes a total order on members: nil < bool < numbers < strings <
// times. Integers and floats compare numerically with one another. It
// returns -1, 0 or +1.
func Compare(a, b interface{}) int {
	a, b = Normalize(a), Normalize(b)
	ka, kb := kind(a), kind(b)
	if ka != kb {
		return sign(ka - kb)
	}

	switch x := a.(type) {
	case nil:
		return 0
	case bool:
		y := b.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		default:
			return 1
		}
	case int64:
		switch y := b.(type) {
		case int64:
			return compareOrdered(x, y)
		case float64:
			return compareOrdered(float64(x), y)
		}
	case float64:
		switch y := b.(type) {
		case int64:
			return compareOrdered(x, float64(y))
		case float64:
			return compareOrdered(x, y)
		}
	case string:
		return strings.Compare(x, b.(string))
	case time.Time:
		y := b.(time.Time)
		switch {
		case x.Before(y):
			return -1
		case x.After(y):
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func compareOrdered[T int64 | float64](x, y T) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}
