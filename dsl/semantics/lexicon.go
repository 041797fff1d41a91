// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package semantics

import (
	"strings"

	"github.com/featurebasedb/mistake/dsl"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// FundamentalUnit is a unit which is not defined in terms of others. Dollars
// and euros are both of the fundamental quantity "money".
type FundamentalUnit struct {
	Name     string
	Quantity string
}

// DerivedUnit names a product of other units.
type DerivedUnit struct {
	Name string
	Unit Unit
}

// Lexicon is a universe of discourse: the registry of the words (axes and
// units of measure) that can ever make sense, independent of any data.
// Words are case-insensitive and each word has at most one meaning.
type Lexicon struct {
	words map[string]interface{}
}

// NewLexicon returns an empty Lexicon.
func NewLexicon() *Lexicon {
	return &Lexicon{words: make(map[string]interface{})}
}

// Contains reports whether word has a definition.
func (l *Lexicon) Contains(word string) bool {
	_, ok := l.words[strings.ToLower(word)]
	return ok
}

// RegisterAxis enters an axis. Its required co-axes must already be known.
func (l *Lexicon) RegisterAxis(axis *Axis) error {
	if l.Contains(axis.Name) {
		return dsl.NewErrAlreadyRegistered("word", axis.Name)
	}
	var missing []string
	for _, r := range axis.Requires {
		if _, ok := l.Axis(r); !ok {
			missing = append(missing, r)
		}
	}
	if len(missing) > 0 {
		return dsl.NewErrMissingRequiredAxes(axis.Name, missing)
	}
	l.words[strings.ToLower(axis.Name)] = axis
	return nil
}

// CreateFundamentalUnit enters a new fundamental unit and returns the unit
// of measure consisting of it alone.
func (l *Lexicon) CreateFundamentalUnit(name, quantity string) (Unit, error) {
	name = strings.ToLower(name)
	if l.Contains(name) {
		return nil, dsl.NewErrAlreadyRegistered("word", name)
	}
	l.words[name] = &FundamentalUnit{Name: name, Quantity: quantity}
	return Unit{name: 1}, nil
}

// DefineUnit enters a name for a product of known units.
func (l *Lexicon) DefineUnit(name string, u Unit) error {
	name = strings.ToLower(name)
	if l.Contains(name) {
		return dsl.NewErrAlreadyRegistered("word", name)
	}
	for k := range u {
		if _, ok := l.words[k].(*FundamentalUnit); !ok {
			return dsl.NewErrUnknownUnit(k)
		}
	}
	l.words[name] = &DerivedUnit{Name: name, Unit: u}
	return nil
}

// Axis returns the axis named by word.
func (l *Lexicon) Axis(word string) (*Axis, bool) {
	a, ok := l.words[strings.ToLower(word)].(*Axis)
	return a, ok
}

// Unit resolves the name of a fundamental or derived unit. The empty name
// is the dimensionless unit.
func (l *Lexicon) Unit(word string) (Unit, error) {
	if word == "" {
		return Dimensionless(), nil
	}
	switch e := l.words[strings.ToLower(word)].(type) {
	case *FundamentalUnit:
		return Unit{e.Name: 1}, nil
	case *DerivedUnit:
		return e.Unit.Mul(Dimensionless()), nil
	default:
		return nil, dsl.NewErrUnknownUnit(word)
	}
}

// Axes returns the names of every known axis, sorted.
func (l *Lexicon) Axes() []string {
	var out []string
	for k, v := range l.words {
		if _, ok := v.(*Axis); ok {
			out = append(out, k)
		}
	}
	slices.Sort(out)
	return out
}

// Words returns every defined word, sorted.
func (l *Lexicon) Words() []string {
	out := maps.Keys(l.words)
	slices.Sort(out)
	return out
}

// CheckSpace verifies that every axis of s is known and that the
// requirements of each are met within s.
func (l *Lexicon) CheckSpace(s Space) error {
	for _, name := range s {
		if _, ok := l.Axis(name); !ok {
			return dsl.NewErrUnknownAxis(name)
		}
	}
	return l.CheckRequirements(s)
}

// CheckRequirements verifies that each known axis of s has its required
// co-axes present in s. Unknown axes are ignored.
func (l *Lexicon) CheckRequirements(s Space) error {
	for _, name := range s {
		axis, ok := l.Axis(name)
		if !ok {
			continue
		}
		if missing := axis.Requires.Minus(s); len(missing) > 0 {
			return dsl.NewErrMissingRequiredAxes(name, missing)
		}
	}
	return nil
}
