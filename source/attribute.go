// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package source

import (
	"encoding/csv"
	"io"
	"math"
	"strings"
	"sync"

	"github.com/featurebasedb/mistake/dsl"
	"github.com/featurebasedb/mistake/dsl/types"
	"github.com/pkg/errors"
)

// AttributeTable maps members of one axis to members of another, as read
// from two columns of a CSV file.
type AttributeTable struct {
	name    string
	entries map[interface{}]interface{}
}

// LoadAttributeTable reads the key and value columns of the CSV text opened
// by open. A key which appears twice keeps its first value.
func LoadAttributeTable(open Opener, keyColumn, valueColumn string) (*AttributeTable, error) {
	rc, err := open.Open()
	if err != nil {
		return nil, dsl.NewErrReadingSource(open.String(), err)
	}
	defer rc.Close()

	reader := csv.NewReader(rc)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err != nil {
		return nil, dsl.NewErrReadingSource(open.String(), errors.Wrap(err, "reading header"))
	}
	key, value := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case strings.ToLower(keyColumn):
			key = i
		case strings.ToLower(valueColumn):
			value = i
		}
	}
	if key < 0 || value < 0 {
		return nil, dsl.NewErrReadingSource(open.String(), errors.Errorf("need columns '%s' and '%s'", keyColumn, valueColumn))
	}

	a := &AttributeTable{
		name:    strings.ToLower(valueColumn),
		entries: make(map[interface{}]interface{}),
	}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, dsl.NewErrReadingSource(open.String(), err)
		}
		if key >= len(row) || value >= len(row) {
			continue
		}
		k := tableKey(ParseMember(row[key]))
		if _, ok := a.entries[k]; !ok {
			a.entries[k] = ParseMember(row[value])
		}
	}
	return a, nil
}

// NewAttributeTable returns a table over the given pairs.
func NewAttributeTable(name string, entries map[interface{}]interface{}) *AttributeTable {
	a := &AttributeTable{name: name, entries: make(map[interface{}]interface{}, len(entries))}
	for k, v := range entries {
		a.entries[tableKey(k)] = types.Normalize(v)
	}
	return a
}

// Len returns the number of keys.
func (a *AttributeTable) Len() int {
	return len(a.entries)
}

// Lookup returns the value for a member of the key axis. It is suitable for
// registering the table as an attribute transform.
func (a *AttributeTable) Lookup(member interface{}) (interface{}, error) {
	v, ok := a.entries[tableKey(member)]
	if !ok {
		return nil, errors.Errorf("no %s for %v", a.name, member)
	}
	return v, nil
}

// LazyAttributeTable is an AttributeTable which is not read until its first
// lookup, so that a schema can be applied without touching any data.
type LazyAttributeTable struct {
	open        Opener
	keyColumn   string
	valueColumn string

	once  sync.Once
	table *AttributeTable
	err   error
}

// NewLazyAttributeTable returns a table which will load the given columns of
// the CSV text opened by open when it is first used.
func NewLazyAttributeTable(open Opener, keyColumn, valueColumn string) *LazyAttributeTable {
	return &LazyAttributeTable{open: open, keyColumn: keyColumn, valueColumn: valueColumn}
}

// Lookup loads the table if need be, then looks member up in it. A table
// which failed to load fails every lookup the same way.
func (l *LazyAttributeTable) Lookup(member interface{}) (interface{}, error) {
	l.once.Do(func() {
		l.table, l.err = LoadAttributeTable(l.open, l.keyColumn, l.valueColumn)
	})
	if l.err != nil {
		return nil, l.err
	}
	return l.table.Lookup(member)
}

// Loaded reports whether the table has been read.
func (l *LazyAttributeTable) Loaded() bool {
	return l.table != nil || l.err != nil
}

// tableKey normalizes a member for use as a map key. Whole floats are stored
// as integers so that "1.0" in a table matches the member 1.
func tableKey(member interface{}) interface{} {
	v := types.Normalize(member)
	if f, ok := v.(float64); ok && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return int64(f)
	}
	return v
}
