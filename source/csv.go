// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package source

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/featurebasedb/mistake/dsl"
	"github.com/featurebasedb/mistake/dsl/semantics"
	"github.com/featurebasedb/mistake/dsl/types"
	"github.com/featurebasedb/mistake/logger"
	"github.com/pkg/errors"
)

// CSVTensor is a base tensor read from CSV text with a header row. Each row
// contributes one point: the members of the axis columns, valued by the
// value column. Without a value column every row counts one. The text is
// read again on every call to Stream.
type CSVTensor struct {
	open        Opener
	shape       semantics.TensorType
	columns     map[string]string
	valueColumn string
	comma       rune
	logger      logger.Logger
}

// Ensure type implements interface.
var _ types.Tensor = (*CSVTensor)(nil)

// CSVOption is a functional option type for CSVTensor.
type CSVOption func(t *CSVTensor)

// OptCSVColumn reads the members of axis from the named column rather than
// the column named like the axis.
func OptCSVColumn(axis, column string) CSVOption {
	return func(t *CSVTensor) {
		t.columns[axis] = strings.ToLower(column)
	}
}

func OptCSVComma(r rune) CSVOption {
	return func(t *CSVTensor) {
		t.comma = r
	}
}

func OptCSVLogger(l logger.Logger) CSVOption {
	return func(t *CSVTensor) {
		t.logger = l
	}
}

// NewCSVTensor returns a tensor of the given shape over the CSV text opened
// by open. Column names are matched without regard to case.
func NewCSVTensor(open Opener, shape semantics.TensorType, valueColumn string, opts ...CSVOption) *CSVTensor {
	t := &CSVTensor{
		open:        open,
		shape:       shape,
		columns:     make(map[string]string),
		valueColumn: strings.ToLower(valueColumn),
		comma:       ',',
		logger:      logger.NopLogger,
	}
	for _, axis := range shape.Space {
		t.columns[axis] = axis
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *CSVTensor) Shape() semantics.TensorType {
	return t.shape
}

func (t *CSVTensor) String() string {
	return "csv(" + t.open.String() + ")"
}

func (t *CSVTensor) Stream(ctx context.Context, pred types.Predicate, env types.Environment) (types.PointIterator, error) {
	rc, err := t.open.Open()
	if err != nil {
		return nil, dsl.NewErrReadingSource(t.open.String(), err)
	}
	reader := csv.NewReader(rc)
	reader.Comma = t.comma
	reader.ReuseRecord = true
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		rc.Close()
		return nil, dsl.NewErrReadingSource(t.open.String(), errors.Wrap(err, "reading header"))
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}

	it := &csvIterator{
		t:      t,
		rc:     rc,
		reader: reader,
		pred:   pred,
		env:    env,
		axes:   make([]int, len(t.shape.Space)),
		value:  -1,
	}
	for i, axis := range t.shape.Space {
		col, ok := index[t.columns[axis]]
		if !ok {
			rc.Close()
			return nil, dsl.NewErrReadingSource(t.open.String(), errors.Errorf("no column '%s' for dimension '%s'", t.columns[axis], axis))
		}
		it.axes[i] = col
	}
	if t.valueColumn != "" {
		col, ok := index[t.valueColumn]
		if !ok {
			rc.Close()
			return nil, dsl.NewErrReadingSource(t.open.String(), errors.Errorf("no value column '%s'", t.valueColumn))
		}
		it.value = col
	}
	t.logger.Debugf("streaming %s", t)
	return it, nil
}

type csvIterator struct {
	t      *CSVTensor
	rc     io.ReadCloser
	reader *csv.Reader
	pred   types.Predicate
	env    types.Environment

	// column indexes, in the order of the tensor's axes
	axes  []int
	value int

	rows   int
	closed bool
}

func (it *csvIterator) Next(ctx context.Context) (types.Point, float64, error) {
	for !it.closed {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		row, err := it.reader.Read()
		if err == io.EOF {
			it.Close()
			break
		} else if err != nil {
			return nil, 0, dsl.NewErrReadingSource(it.t.open.String(), err)
		}
		it.rows++
		CounterRowsRead.Inc()

		p := make(types.Point, len(it.axes))
		for i, col := range it.axes {
			if col >= len(row) {
				return nil, 0, it.rowError("missing column for dimension '%s'", it.t.shape.Space[i])
			}
			p[it.t.shape.Space[i]] = ParseMember(row[col])
		}
		v := 1.0
		if it.value >= 0 {
			if it.value >= len(row) {
				return nil, 0, it.rowError("missing value column")
			}
			text := strings.TrimSpace(row[it.value])
			if text == "" {
				continue
			}
			if v, err = strconv.ParseFloat(text, 64); err != nil {
				return nil, 0, it.rowError("bad value '%s'", text)
			}
		}

		ok, err := it.pred.Test(p, it.env)
		if err != nil {
			return nil, 0, err
		} else if ok {
			return p, v, nil
		}
	}
	return nil, 0, types.ErrNoMorePoints
}

func (it *csvIterator) rowError(format string, args ...interface{}) error {
	return dsl.NewErrReadingSource(it.t.open.String(), errors.Errorf("row %d: "+format, append([]interface{}{it.rows}, args...)...))
}

func (it *csvIterator) Close() {
	if it.closed {
		return
	}
	it.closed = true
	if err := it.rc.Close(); err != nil {
		it.t.logger.Warnf("closing %s: %v", it.t, err)
	}
	it.t.logger.Debugf("%s: read %d rows", it.t, it.rows)
}
