// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

// Package dsl contains the tensor definition language: its error codes and
// the compilation fault type shared by the planner and its collaborators.
package dsl

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/featurebasedb/mistake/dsl/parser"
	"github.com/featurebasedb/mistake/errors"
)

const (
	ErrInternal errors.Code = "ErrInternal"
	ErrSyntax   errors.Code = "ErrSyntax"

	// registration errors
	ErrAlreadyRegistered   errors.Code = "ErrAlreadyRegistered"
	ErrMissingRequiredAxes errors.Code = "ErrMissingRequiredAxes"
	ErrNotLowerCase        errors.Code = "ErrNotLowerCase"
	ErrUnknownAxis         errors.Code = "ErrUnknownAxis"
	ErrUnknownUnit         errors.Code = "ErrUnknownUnit"
	ErrEmptyRange          errors.Code = "ErrEmptyRange"

	// type errors
	ErrAsymmetricSpaces  errors.Code = "ErrAsymmetricSpaces"
	ErrIncompatibleUnits errors.Code = "ErrIncompatibleUnits"

	// planner faults
	ErrRedefinition     errors.Code = "ErrRedefinition"
	ErrInvalidTensor    errors.Code = "ErrInvalidTensor"
	ErrDivisionByZero   errors.Code = "ErrDivisionByZero"
	ErrDuplicateAxis    errors.Code = "ErrDuplicateAxis"
	ErrUnavailableAxis  errors.Code = "ErrUnavailableAxis"
	ErrNoTransform      errors.Code = "ErrNoTransform"
	ErrIllTypedName     errors.Code = "ErrIllTypedName"
	ErrUndefinedName    errors.Code = "ErrUndefinedName"
	ErrUsageConflict    errors.Code = "ErrUsageConflict"
	ErrInvalidCriterion errors.Code = "ErrInvalidCriterion"

	// query errors
	ErrTensorNotFound   errors.Code = "ErrTensorNotFound"
	ErrUnknownVariable  errors.Code = "ErrUnknownVariable"
	ErrUnboundVariable  errors.Code = "ErrUnboundVariable"
	ErrBindingPlurality errors.Code = "ErrBindingPlurality"
	ErrReadingSource    errors.Code = "ErrReadingSource"
)

// Gripe is a compilation fault anchored at a span of the source text. The
// planner turns gripes into diagnostics at statement boundaries.
type Gripe struct {
	Span parser.Span
	Err  error
}

// NewGripe anchors err at span.
func NewGripe(span parser.Span, err error) *Gripe {
	return &Gripe{Span: span, Err: err}
}

// Error returns the message of the underlying error, without context.
func (g *Gripe) Error() string {
	return errors.MessageOf(g.Err)
}

func (g *Gripe) Unwrap() error {
	return g.Err
}

func NewErrInternal(msg string) error {
	preamble := "internal error"
	_, filename, line, ok := runtime.Caller(1)
	if ok {
		preamble = fmt.Sprintf("internal error (%s:%d)", filename, line)
	}
	return errors.New(
		ErrInternal,
		fmt.Sprintf("%s %s", preamble, msg),
	)
}

func NewErrInternalf(format string, a ...interface{}) error {
	preamble := "internal error"
	_, filename, line, ok := runtime.Caller(1)
	if ok {
		preamble = fmt.Sprintf("internal error (%s:%d)", filename, line)
	}
	errorMessage := fmt.Sprintf(format, a...)
	return errors.New(
		ErrInternal,
		fmt.Sprintf("%s %s", preamble, errorMessage),
	)
}

// NewErrSyntax wraps a parse error.
func NewErrSyntax(err *parser.Error) error {
	return errors.New(
		ErrSyntax,
		err.Error(),
	)
}

func NewErrAlreadyRegistered(kind, name string) error {
	return errors.New(
		ErrAlreadyRegistered,
		fmt.Sprintf("%s '%s' is already registered", kind, name),
	)
}

func NewErrMissingRequiredAxes(axis string, missing []string) error {
	return errors.New(
		ErrMissingRequiredAxes,
		fmt.Sprintf("Dimension '%s' requires [%s] to be present.", axis, strings.Join(missing, ", ")),
	)
}

func NewErrNotLowerCase(name string) error {
	return errors.New(
		ErrNotLowerCase,
		fmt.Sprintf("name '%s' must be lower case", name),
	)
}

func NewErrUnknownAxis(axis string) error {
	return errors.New(
		ErrUnknownAxis,
		fmt.Sprintf("unknown dimension '%s'", axis),
	)
}

func NewErrUnknownUnit(unit string) error {
	return errors.New(
		ErrUnknownUnit,
		fmt.Sprintf("unknown unit of measure '%s'", unit),
	)
}

func NewErrEmptyRange() error {
	return errors.New(
		ErrEmptyRange,
		"transform range may not be empty",
	)
}

func NewErrAsymmetricSpaces(axes []string) error {
	return errors.New(
		ErrAsymmetricSpaces,
		fmt.Sprintf("Operand spaces do not agree about [%s]", strings.Join(axes, ", ")),
	)
}

func NewErrIncompatibleUnits(a, b string) error {
	return errors.New(
		ErrIncompatibleUnits,
		fmt.Sprintf("Operand units do not agree: %s vs %s", a, b),
	)
}

func NewErrRedefinition() error {
	return errors.New(
		ErrRedefinition,
		"Tensor name was previously defined; ignoring redefinition.",
	)
}

func NewErrInvalidTensor() error {
	return errors.New(
		ErrInvalidTensor,
		"Tensor value has invalid type, because...",
	)
}

func NewErrDivisionByZero() error {
	return errors.New(
		ErrDivisionByZero,
		"Division by zero.",
	)
}

func NewErrDuplicateAxis(axis string) error {
	return errors.New(
		ErrDuplicateAxis,
		fmt.Sprintf("Dimension '%s' is already present and may not be duplicated.", axis),
	)
}

func NewErrUnavailableAxis(axis string, options []string) error {
	return errors.New(
		ErrUnavailableAxis,
		fmt.Sprintf("Dimension '%s' is not available here. options are [%s].", axis, strings.Join(options, ", ")),
	)
}

func NewErrNoTransform() error {
	return errors.New(
		ErrNoTransform,
		"No known transform applies.",
	)
}

func NewErrIllTypedName() error {
	return errors.New(
		ErrIllTypedName,
		"ill-typed name.",
	)
}

func NewErrUndefinedName() error {
	return errors.New(
		ErrUndefinedName,
		"undefined name.",
	)
}

func NewErrUsageConflict(variable, axis string, plural bool, prevAxis string, prevPlural bool) error {
	return errors.New(
		ErrUsageConflict,
		fmt.Sprintf("Variable '@%s' used as %s but previously as %s.", variable, usage(axis, plural), usage(prevAxis, prevPlural)),
	)
}

func NewErrInvalidCriterion(msg string) error {
	return errors.New(
		ErrInvalidCriterion,
		msg,
	)
}

func NewErrTensorNotFound(name string) error {
	return errors.New(
		ErrTensorNotFound,
		fmt.Sprintf("tensor '%s' not found", name),
	)
}

func NewErrUnknownVariable(name string) error {
	return errors.New(
		ErrUnknownVariable,
		fmt.Sprintf("variable '@%s' is not used by this query", name),
	)
}

func NewErrUnboundVariable(name string) error {
	return errors.New(
		ErrUnboundVariable,
		fmt.Sprintf("variable '@%s' has no binding", name),
	)
}

func NewErrBindingPlurality(name string, plural bool) error {
	want := "a single value"
	if plural {
		want = "a list of values"
	}
	return errors.New(
		ErrBindingPlurality,
		fmt.Sprintf("variable '@%s' must be bound to %s", name, want),
	)
}

func NewErrReadingSource(source string, err error) error {
	return errors.New(
		ErrReadingSource,
		fmt.Sprintf("reading '%s': %v", source, err),
	)
}

func usage(axis string, plural bool) string {
	if plural {
		return "a set of '" + axis + "'"
	}
	return "a single '" + axis + "'"
}
