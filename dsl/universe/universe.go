// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

// Package universe holds the schema registry a script is compiled against:
// the lexicon of axes and units, the transforms between spaces, the named
// tensors and the variables queries may bind.
package universe

import (
	"context"
	"strings"
	"time"

	"github.com/featurebasedb/mistake/dsl"
	"github.com/featurebasedb/mistake/dsl/runtime"
	"github.com/featurebasedb/mistake/dsl/semantics"
	"github.com/featurebasedb/mistake/dsl/types"
	"github.com/featurebasedb/mistake/errors"
	"github.com/featurebasedb/mistake/logger"
	"github.com/google/uuid"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Universe is the registry of everything a script may refer to. It is
// created once per session and is not safe for concurrent use.
type Universe struct {
	id      string
	lexicon *semantics.Lexicon

	transforms map[string]*types.Transform
	tensors    map[string]types.Tensor
	variables  map[string]usage

	longQueryTime time.Duration
	logger        logger.Logger
}

// usage is the way a query variable is used: compared against a single
// member of an axis, or tested for membership in a set of them.
type usage struct {
	axis   string
	plural bool
}

// Option is a functional option type for Universe.
type Option func(u *Universe) error

func OptUniverseLogger(l logger.Logger) Option {
	return func(u *Universe) error {
		u.logger = l
		return nil
	}
}

// OptUniverseLongQueryTime sets the duration above which a query is logged
// as slow. Zero disables the warning.
func OptUniverseLongQueryTime(d time.Duration) Option {
	return func(u *Universe) error {
		u.longQueryTime = d
		return nil
	}
}

// OptUniverseLexicon starts the universe with an existing lexicon, which it
// then shares with its creator.
func OptUniverseLexicon(l *semantics.Lexicon) Option {
	return func(u *Universe) error {
		if l == nil {
			return errors.New(dsl.ErrInternal, "nil lexicon")
		}
		u.lexicon = l
		return nil
	}
}

// New returns an empty Universe.
func New(opts ...Option) (*Universe, error) {
	u := &Universe{
		id:         uuid.New().String(),
		lexicon:    semantics.NewLexicon(),
		transforms: make(map[string]*types.Transform),
		tensors:    make(map[string]types.Tensor),
		variables:  make(map[string]usage),
		logger:     logger.NopLogger,
	}
	for _, opt := range opts {
		if err := opt(u); err != nil {
			return nil, errors.Wrap(err, "applying option")
		}
	}
	u.logger = u.logger.WithPrefix("[" + u.id[:8] + "] ")
	return u, nil
}

// ID returns the session id of the universe.
func (u *Universe) ID() string {
	return u.id
}

func (u *Universe) Lexicon() *semantics.Lexicon {
	return u.lexicon
}

func (u *Universe) Logger() logger.Logger {
	return u.logger
}

// RegisterAxis enters a new dimension, which may require others.
func (u *Universe) RegisterAxis(name string, requires ...string) error {
	if err := u.lexicon.RegisterAxis(semantics.NewAxis(name, requires...)); err != nil {
		return err
	}
	u.logger.Debugf("registered axis %s", name)
	return nil
}

// CreateFundamentalUnit enters a unit of measure which is not defined in
// terms of any other.
func (u *Universe) CreateFundamentalUnit(name, quantity string) (semantics.Unit, error) {
	unit, err := u.lexicon.CreateFundamentalUnit(name, quantity)
	if err != nil {
		return nil, err
	}
	u.logger.Debugf("registered unit %s of %s", name, quantity)
	return unit, nil
}

// DefineUnit names a product of fundamental units.
func (u *Universe) DefineUnit(name string, unit semantics.Unit) error {
	if err := u.lexicon.DefineUnit(name, unit); err != nil {
		return err
	}
	u.logger.Debugf("registered unit %s = %s", name, unit)
	return nil
}

// RegisterTensor makes t available to scripts under name.
func (u *Universe) RegisterTensor(name string, t types.Tensor) error {
	if name != strings.ToLower(name) {
		return dsl.NewErrNotLowerCase(name)
	}
	if _, ok := u.tensors[name]; ok {
		return dsl.NewErrAlreadyRegistered("tensor", name)
	}
	if err := u.lexicon.CheckSpace(t.Shape().Space); err != nil {
		return errors.Wrapf(err, "registering tensor '%s'", name)
	}
	u.tensors[name] = t
	u.logger.Debugf("registered tensor %s %s", name, t.Shape())
	return nil
}

// RegisterTransform enters a transform from the domain axes to the range
// axes. At most one transform may connect a given pair of spaces.
func (u *Universe) RegisterTransform(domain, rng []string, update types.UpdateFunc) error {
	if len(rng) == 0 {
		return dsl.NewErrEmptyRange()
	}
	for _, names := range [][]string{domain, rng} {
		for _, name := range names {
			if name != strings.ToLower(name) {
				return dsl.NewErrNotLowerCase(name)
			}
			if _, ok := u.lexicon.Axis(name); !ok {
				return dsl.NewErrUnknownAxis(name)
			}
		}
	}
	t := &types.Transform{
		Domain: semantics.NewSpace(domain...),
		Range:  semantics.NewSpace(rng...),
		Update: update,
	}
	if _, ok := u.transforms[t.Key()]; ok {
		return dsl.NewErrAlreadyRegistered("transform", t.String())
	}
	u.transforms[t.Key()] = t
	u.logger.Debugf("registered transform %s", t)
	return nil
}

// RegisterAttribute enters a transform from one axis to another, computed
// by fn from the single member of the domain axis.
func (u *Universe) RegisterAttribute(domain, rng string, fn func(interface{}) (interface{}, error)) error {
	return u.RegisterTransform([]string{domain}, []string{rng}, func(p types.Point) error {
		v, err := fn(p[domain])
		if err != nil {
			return errors.Wrapf(err, "computing %s of %s", rng, domain)
		}
		p[rng] = types.Normalize(v)
		return nil
	})
}

// FindTransform returns the transform registered for exactly this pair of
// spaces.
func (u *Universe) FindTransform(domain, rng semantics.Space) (*types.Transform, bool) {
	t, ok := u.transforms[types.TransformKey(domain, rng)]
	return t, ok
}

// Transforms returns every registered transform, ordered by domain then
// range.
func (u *Universe) Transforms() []*types.Transform {
	out := maps.Values(u.transforms)
	slices.SortFunc(out, func(a, b *types.Transform) bool {
		return a.Key() < b.Key()
	})
	return out
}

// Tensor returns the tensor registered under name.
func (u *Universe) Tensor(name string) (types.Tensor, bool) {
	t, ok := u.tensors[strings.ToLower(name)]
	return t, ok
}

// Names returns the names of every registered tensor, sorted.
func (u *Universe) Names() []string {
	out := maps.Keys(u.tensors)
	slices.Sort(out)
	return out
}

// TensorTypes returns the type of each registered tensor by name.
func (u *Universe) TensorTypes() map[string]semantics.TensorType {
	out := make(map[string]semantics.TensorType, len(u.tensors))
	for name, t := range u.tensors {
		out[name] = t.Shape()
	}
	return out
}

// CastVariable records that variable name is used against axis. The first
// use decides; a later use against another axis, or with the other
// plurality, is a conflict.
func (u *Universe) CastVariable(name, axis string, plural bool) error {
	want := usage{axis: axis, plural: plural}
	if prev, ok := u.variables[name]; ok {
		if prev != want {
			return dsl.NewErrUsageConflict(name, axis, plural, prev.axis, prev.plural)
		}
		return nil
	}
	u.variables[name] = want
	return nil
}

// Variables returns the names of every cast variable, sorted.
func (u *Universe) Variables() []string {
	out := maps.Keys(u.variables)
	slices.Sort(out)
	return out
}

// VariableUsage returns the axis a variable was cast against and whether it
// holds a list of members.
func (u *Universe) VariableUsage(name string) (axis string, plural bool, ok bool) {
	use, ok := u.variables[name]
	return use.axis, use.plural, ok
}

// Query materializes the named tensor with the given variable bindings.
func (u *Universe) Query(ctx context.Context, name string, bindings types.Environment) (*runtime.TensorBuffer, error) {
	t, ok := u.Tensor(name)
	if !ok {
		return nil, dsl.NewErrTensorNotFound(name)
	}
	env, err := u.checkBindings(bindings)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	buf, err := runtime.Materialize(ctx, t, nil, env)
	if err != nil {
		return nil, errors.Wrapf(err, "querying '%s'", name)
	}
	dur := time.Since(start)
	if u.longQueryTime > 0 && dur > u.longQueryTime {
		u.logger.Warnf("query duration %v exceeds %v: %s (%d keys)", dur, u.longQueryTime, name, buf.Len())
	} else {
		u.logger.Debugf("query %s: %d keys in %v", name, buf.Len(), dur)
	}
	return buf, nil
}

// checkBindings returns a copy of bindings in which each value has the
// plurality its variable was cast with.
func (u *Universe) checkBindings(bindings types.Environment) (types.Environment, error) {
	env := make(types.Environment, len(bindings))
	for name, v := range bindings {
		use, ok := u.variables[name]
		if !ok {
			return nil, dsl.NewErrUnknownVariable(name)
		}
		list, isList := asList(v)
		if isList != use.plural {
			return nil, dsl.NewErrBindingPlurality(name, use.plural)
		}
		if isList {
			env[name] = list
		} else {
			env[name] = types.Normalize(v)
		}
	}
	return env, nil
}

func asList(v interface{}) ([]interface{}, bool) {
	switch x := v.(type) {
	case []interface{}:
		out := make([]interface{}, len(x))
		for i := range x {
			out[i] = types.Normalize(x[i])
		}
		return out, true
	case []string:
		out := make([]interface{}, len(x))
		for i := range x {
			out[i] = x[i]
		}
		return out, true
	case []int64:
		out := make([]interface{}, len(x))
		for i := range x {
			out[i] = x[i]
		}
		return out, true
	}
	return nil, false
}
