// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

// Package config decodes workspace schema files. A schema declares the axes,
// units, attributes and base tensors of a Universe.
package config

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/PaesslerAG/gval"
	"github.com/featurebasedb/mistake/dsl/semantics"
	"github.com/featurebasedb/mistake/dsl/universe"
	"github.com/featurebasedb/mistake/errors"
	"github.com/featurebasedb/mistake/logger"
	"github.com/featurebasedb/mistake/source"
	toml "github.com/pelletier/go-toml"
)

// Schema is the decoded form of a workspace schema file.
type Schema struct {
	CheckUnits   bool          `toml:"check-units"`
	Axes         []Axis        `toml:"axis"`
	Units        []Unit        `toml:"unit"`
	DerivedUnits []DerivedUnit `toml:"derived-unit"`
	Attributes   []Attribute   `toml:"attribute"`
	Tensors      []Tensor      `toml:"tensor"`

	// Dir is the directory relative source paths are resolved against.
	Dir string `toml:"-"`
}

type Axis struct {
	Name     string   `toml:"name"`
	Requires []string `toml:"requires"`
}

type Unit struct {
	Name     string `toml:"name"`
	Quantity string `toml:"quantity"`
}

// DerivedUnit names the product of the numerator units divided by the
// product of the denominator units.
type DerivedUnit struct {
	Name        string   `toml:"name"`
	Numerator   []string `toml:"numerator"`
	Denominator []string `toml:"denominator"`
}

// Attribute maps one axis to another, either through a lookup table read
// from a CSV source or through an expression of the domain member, which is
// available to the expression as "value".
type Attribute struct {
	Domain      string `toml:"domain"`
	Range       string `toml:"range"`
	Source      string `toml:"source"`
	Archive     string `toml:"archive"`
	Member      string `toml:"member"`
	KeyColumn   string `toml:"key-column"`
	ValueColumn string `toml:"value-column"`
	Expr        string `toml:"expr"`
}

// Tensor is a base tensor read from CSV. Columns renames axes whose column
// in the file has a different name.
type Tensor struct {
	Name        string            `toml:"name"`
	Source      string            `toml:"source"`
	Archive     string            `toml:"archive"`
	Member      string            `toml:"member"`
	Axes        []string          `toml:"axes"`
	Columns     map[string]string `toml:"columns"`
	ValueColumn string            `toml:"value-column"`
	Unit        string            `toml:"unit"`
	Delimiter   string            `toml:"delimiter"`
}

// Parse decodes a schema.
func Parse(data []byte) (*Schema, error) {
	s := &Schema{}
	if err := toml.Unmarshal(data, s); err != nil {
		return nil, errors.Wrap(err, "decoding schema")
	}
	return s, nil
}

// Load reads and decodes the schema file at path. Relative source paths in
// it are resolved against the file's directory.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading schema")
	}
	s, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "in %s", path)
	}
	s.Dir = filepath.Dir(path)
	return s, nil
}

// Apply registers everything the schema declares with u: axes first, then
// units, attributes and finally tensors.
func (s *Schema) Apply(u *universe.Universe) error {
	log := u.Logger()
	for _, a := range s.Axes {
		if err := u.RegisterAxis(a.Name, a.Requires...); err != nil {
			return errors.Wrapf(err, "axis '%s'", a.Name)
		}
	}
	for _, unit := range s.Units {
		if _, err := u.CreateFundamentalUnit(unit.Name, unit.Quantity); err != nil {
			return errors.Wrapf(err, "unit '%s'", unit.Name)
		}
	}
	for _, d := range s.DerivedUnits {
		unit, err := s.derive(u.Lexicon(), d)
		if err != nil {
			return errors.Wrapf(err, "derived unit '%s'", d.Name)
		}
		if err := u.DefineUnit(d.Name, unit); err != nil {
			return errors.Wrapf(err, "derived unit '%s'", d.Name)
		}
	}
	for _, a := range s.Attributes {
		fn, err := s.attribute(a)
		if err != nil {
			return errors.Wrapf(err, "attribute %s -> %s", a.Domain, a.Range)
		}
		if err := u.RegisterAttribute(strings.ToLower(a.Domain), strings.ToLower(a.Range), fn); err != nil {
			return errors.Wrapf(err, "attribute %s -> %s", a.Domain, a.Range)
		}
	}
	for _, t := range s.Tensors {
		tensor, err := s.tensor(u.Lexicon(), t, log)
		if err != nil {
			return errors.Wrapf(err, "tensor '%s'", t.Name)
		}
		if err := u.RegisterTensor(strings.ToLower(t.Name), tensor); err != nil {
			return err
		}
	}
	return nil
}

func (s *Schema) derive(lex *semantics.Lexicon, d DerivedUnit) (semantics.Unit, error) {
	unit := semantics.Dimensionless()
	for _, name := range d.Numerator {
		v, err := lex.Unit(name)
		if err != nil {
			return nil, err
		}
		unit = unit.Mul(v)
	}
	for _, name := range d.Denominator {
		v, err := lex.Unit(name)
		if err != nil {
			return nil, err
		}
		unit = unit.Div(v)
	}
	return unit, nil
}

func (s *Schema) attribute(a Attribute) (func(interface{}) (interface{}, error), error) {
	switch {
	case a.Expr != "" && (a.Source != "" || a.Archive != ""):
		return nil, errors.Errorf("an attribute takes either an expression or a source, not both")
	case a.Expr != "":
		eval, err := gval.Full().NewEvaluable(a.Expr)
		if err != nil {
			return nil, errors.Wrap(err, "parsing expression")
		}
		return func(member interface{}) (interface{}, error) {
			v, err := eval(context.Background(), map[string]interface{}{"value": member})
			if err != nil {
				return nil, err
			}
			return integral(v), nil
		}, nil
	}

	open, err := s.opener(a.Source, a.Archive, a.Member)
	if err != nil {
		return nil, err
	}
	key, value := a.KeyColumn, a.ValueColumn
	if key == "" {
		key = a.Domain
	}
	if value == "" {
		value = a.Range
	}
	return source.NewLazyAttributeTable(open, key, value).Lookup, nil
}

func (s *Schema) tensor(lex *semantics.Lexicon, t Tensor, log logger.Logger) (*source.CSVTensor, error) {
	open, err := s.opener(t.Source, t.Archive, t.Member)
	if err != nil {
		return nil, err
	}
	unit, err := lex.Unit(t.Unit)
	if err != nil {
		return nil, err
	}
	axes := make([]string, len(t.Axes))
	for i, a := range t.Axes {
		axes[i] = strings.ToLower(a)
	}
	shape := semantics.NewTensorType(axes...).WithUnit(unit)
	opts := []source.CSVOption{source.OptCSVLogger(log)}
	for axis, column := range t.Columns {
		opts = append(opts, source.OptCSVColumn(strings.ToLower(axis), column))
	}
	switch len([]rune(t.Delimiter)) {
	case 0:
	case 1:
		opts = append(opts, source.OptCSVComma([]rune(t.Delimiter)[0]))
	default:
		return nil, errors.Errorf("delimiter '%s' is not a single character", t.Delimiter)
	}
	return source.NewCSVTensor(open, shape, t.ValueColumn, opts...), nil
}

func (s *Schema) opener(file, archive, member string) (source.Opener, error) {
	switch {
	case archive != "" && member != "":
		return source.ArchiveMember{Archive: s.resolve(archive), Member: member}, nil
	case archive != "":
		return nil, errors.Errorf("archive '%s' needs a member", archive)
	case file != "":
		return source.File(s.resolve(file)), nil
	default:
		return nil, errors.Errorf("no source given")
	}
}

func (s *Schema) resolve(path string) string {
	if s.Dir == "" || filepath.IsAbs(path) || strings.HasPrefix(path, "http") {
		return path
	}
	return filepath.Join(s.Dir, path)
}

// integral turns whole floats, which is how gval reports numbers, back into
// integers so they compare equal to members read from files.
func integral(v interface{}) interface{} {
	if f, ok := v.(float64); ok && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return int64(f)
	}
	return v
}
