// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package runtime

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/featurebasedb/mistake/dsl"
	"github.com/featurebasedb/mistake/dsl/types"
)

// Value is the right-hand side of a criterion: a constant known when the
// script is compiled, or a variable bound when it is queried.
type Value interface {
	Resolve(env types.Environment) (interface{}, error)
	String() string
}

// Constant is a value fixed at compile time.
type Constant struct {
	Value interface{}
}

func NewConstant(v interface{}) *Constant {
	return &Constant{Value: normalizeMember(v)}
}

func (c *Constant) Resolve(env types.Environment) (interface{}, error) {
	return c.Value, nil
}

func (c *Constant) String() string {
	return formatMember(c.Value)
}

// Variable is a value looked up in the query environment.
type Variable struct {
	Name string
}

func NewVariable(name string) *Variable {
	return &Variable{Name: name}
}

func (v *Variable) Resolve(env types.Environment) (interface{}, error) {
	x, ok := env[v.Name]
	if !ok {
		return nil, dsl.NewErrUnboundVariable(v.Name)
	}
	return normalizeMember(x), nil
}

func (v *Variable) String() string {
	return "@" + v.Name
}

// normalizeMember applies types.Normalize to a member or to each element of
// a list of members.
func normalizeMember(v interface{}) interface{} {
	switch x := v.(type) {
	case []interface{}:
		out := make([]interface{}, len(x))
		for i := range x {
			out[i] = types.Normalize(x[i])
		}
		return out
	case []string:
		out := make([]interface{}, len(x))
		for i := range x {
			out[i] = x[i]
		}
		return out
	default:
		return types.Normalize(v)
	}
}

func formatMember(v interface{}) string {
	switch x := v.(type) {
	case string:
		return strconv.Quote(x)
	case []interface{}:
		parts := make([]string, len(x))
		for i := range x {
			parts[i] = formatMember(x[i])
		}
		return "(" + strings.Join(parts, ", ") + ")"
	default:
		return fmt.Sprint(v)
	}
}
