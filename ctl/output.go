// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package ctl

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/featurebasedb/mistake/dsl/runtime"
	"github.com/featurebasedb/mistake/dsl/semantics"
	"github.com/featurebasedb/mistake/errors"
	"github.com/jedib0t/go-pretty/table"
	"github.com/jedib0t/go-pretty/text"
)

const nullValue string = "NULL"

// writeResult renders a materialized tensor as a table with one column per
// axis and a final value column, sorted by key.
func writeResult(w io.Writer, name string, buf *runtime.TensorBuffer) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("%s", name)

	// Don't uppercase the header and footer values.
	t.Style().Format.Header = text.FormatDefault
	t.Style().Format.Footer = text.FormatDefault

	axes := buf.Shape().Space
	header := make(table.Row, 0, len(axes)+1)
	for _, a := range axes {
		header = append(header, a)
	}
	valueHeader := "value"
	if unit := buf.Shape().Unit; !unit.IsDimensionless() {
		valueHeader += " (" + unit.String() + ")"
	}
	t.AppendHeader(append(header, valueHeader))
	t.SetColumnConfigs([]table.ColumnConfig{{Number: len(axes) + 1, Align: text.AlignRight}})

	entries := buf.Sorted()
	for _, e := range entries {
		row := make(table.Row, 0, len(axes)+1)
		for _, a := range axes {
			row = append(row, formatMember(e.Point[a]))
		}
		t.AppendRow(append(row, strconv.FormatFloat(e.Value, 'g', -1, 64)))
	}
	t.AppendFooter(table.Row{fmt.Sprintf("%d keys", len(entries))})
	t.Render()

	if _, err := w.Write([]byte("\n")); err != nil {
		return errors.Wrap(err, "writing result")
	}
	return nil
}

// writeShapes renders the type of each named tensor.
func writeShapes(w io.Writer, names []string, shapes map[string]semantics.TensorType) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.Style().Format.Header = text.FormatDefault
	t.AppendHeader(table.Row{"tensor", "space", "unit"})
	for _, name := range names {
		shape, ok := shapes[name]
		if !ok {
			continue
		}
		t.AppendRow(table.Row{name, shape.Space.String(), shape.Unit.Describe()})
	}
	t.Render()
}

func formatMember(v interface{}) string {
	switch v := v.(type) {
	case nil:
		// go-pretty doesn't expect nil values.
		return nullValue
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}
