// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package semantics

import (
	"strings"
)

// Axis is a named categorical key, roughly analogous to a (partial)
// relational key. An axis refuses to be in a space without the axes it
// Requires.
type Axis struct {
	Name     string
	Requires Space
}

// NewAxis returns an axis with a lower-case name and lower-case requirements.
func NewAxis(name string, requires ...string) *Axis {
	req := make([]string, len(requires))
	for i, r := range requires {
		req[i] = strings.ToLower(r)
	}
	return &Axis{
		Name:     strings.ToLower(name),
		Requires: NewSpace(req...),
	}
}

func (a *Axis) String() string {
	return a.Name
}
