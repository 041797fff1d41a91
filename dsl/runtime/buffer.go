// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package runtime

import (
	"context"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash"
	"github.com/featurebasedb/mistake/dsl/semantics"
	"github.com/featurebasedb/mistake/dsl/types"
)

// Entry is one (point, value) pair held by a TensorBuffer.
type Entry struct {
	Point types.Point
	Value float64
}

// TensorBuffer is a materialized tensor: values summed by the tuple of
// members of the buffer's axes. It is the only place the runtime holds
// state, and it is used wherever random access by key is unavoidable.
type TensorBuffer struct {
	shape semantics.TensorType

	// entries in insertion order; buckets index them by key hash.
	entries []*bufferEntry
	buckets map[uint64][]*bufferEntry
}

type bufferEntry struct {
	key   string
	point types.Point
	value float64
}

// Ensure type implements interface.
var _ types.Tensor = (*TensorBuffer)(nil)

// NewTensorBuffer returns an empty buffer keyed by the axes of shape.
func NewTensorBuffer(shape semantics.TensorType) *TensorBuffer {
	return &TensorBuffer{
		shape:   shape,
		buckets: make(map[uint64][]*bufferEntry),
	}
}

// Materialize drains the stream of t into a new buffer keyed by t's space.
func Materialize(ctx context.Context, t types.Tensor, pred types.Predicate, env types.Environment) (*TensorBuffer, error) {
	b := NewTensorBuffer(t.Shape())
	it, err := t.Stream(ctx, pred, env)
	if err != nil {
		return nil, err
	}
	var n int
	if err := types.Drain(ctx, it, func(p types.Point, v float64) error {
		b.Add(p, v)
		n++
		return nil
	}); err != nil {
		return nil, err
	}
	CounterBuffersMaterialized.Inc()
	CounterPointsBuffered.Add(float64(n))
	return b, nil
}

// Add sums v into the entry for p's key. Members of p for axes outside the
// buffer's space are ignored.
func (b *TensorBuffer) Add(p types.Point, v float64) {
	key := b.key(p)
	h := xxhash.Sum64([]byte(key))
	for _, e := range b.buckets[h] {
		if e.key == key {
			e.value += v
			return
		}
	}
	e := &bufferEntry{key: key, point: p.Project(b.shape.Space), value: v}
	b.buckets[h] = append(b.buckets[h], e)
	b.entries = append(b.entries, e)
}

// Lookup returns the value for p's key and whether the key is present.
func (b *TensorBuffer) Lookup(p types.Point) (float64, bool) {
	key := b.key(p)
	for _, e := range b.buckets[xxhash.Sum64([]byte(key))] {
		if e.key == key {
			return e.value, true
		}
	}
	return 0, false
}

// Get returns the value for p's key, or zero.
func (b *TensorBuffer) Get(p types.Point) float64 {
	v, _ := b.Lookup(p)
	return v
}

// Len returns the number of distinct keys, including those whose values sum
// to zero.
func (b *TensorBuffer) Len() int {
	return len(b.entries)
}

// Content returns every entry with a nonzero value, in the order its key
// was first seen.
func (b *TensorBuffer) Content() []Entry {
	out := make([]Entry, 0, len(b.entries))
	for _, e := range b.entries {
		if e.value != 0 {
			out = append(out, Entry{Point: e.point, Value: e.value})
		}
	}
	return out
}

// Sorted is like Content but ordered by the members of the buffer's axes.
func (b *TensorBuffer) Sorted() []Entry {
	out := b.Content()
	axes := b.shape.Space
	sort.SliceStable(out, func(i, j int) bool {
		for _, a := range axes {
			if c := types.Compare(out[i].Point[a], out[j].Point[a]); c != 0 {
				return c < 0
			}
		}
		return false
	})
	return out
}

func (b *TensorBuffer) Shape() semantics.TensorType {
	return b.shape
}

// Stream yields the buffer's nonzero entries which satisfy pred.
func (b *TensorBuffer) Stream(ctx context.Context, pred types.Predicate, env types.Environment) (types.PointIterator, error) {
	return &bufferIterator{entries: b.Content(), pred: pred, env: env}, nil
}

func (b *TensorBuffer) String() string {
	return "buffer" + b.shape.Space.String()
}

type bufferIterator struct {
	entries []Entry
	pred    types.Predicate
	env     types.Environment
	i       int
}

func (it *bufferIterator) Next(ctx context.Context) (types.Point, float64, error) {
	for it.i < len(it.entries) {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		e := it.entries[it.i]
		it.i++
		ok, err := it.pred.Test(e.Point, it.env)
		if err != nil {
			return nil, 0, err
		} else if ok {
			return e.Point.Clone(), e.Value, nil
		}
	}
	return nil, 0, types.ErrNoMorePoints
}

func (it *bufferIterator) Close() {
	it.i = len(it.entries)
}

// key encodes the members of p for the buffer's axes. Members which compare
// equal encode equally, so an integral float and the matching integer share
// a key.
func (b *TensorBuffer) key(p types.Point) string {
	var sb strings.Builder
	for _, a := range b.shape.Space {
		encodeMember(&sb, types.Normalize(p[a]))
		sb.WriteByte(0)
	}
	return sb.String()
}

func encodeMember(sb *strings.Builder, v interface{}) {
	switch x := v.(type) {
	case nil:
		sb.WriteByte('n')
	case bool:
		if x {
			sb.WriteString("b1")
		} else {
			sb.WriteString("b0")
		}
	case int64:
		sb.WriteByte('i')
		sb.WriteString(strconv.FormatInt(x, 10))
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1<<53 {
			sb.WriteByte('i')
			sb.WriteString(strconv.FormatInt(int64(x), 10))
			return
		}
		sb.WriteByte('f')
		sb.WriteString(strconv.FormatFloat(x, 'g', -1, 64))
	case string:
		sb.WriteByte('s')
		sb.WriteString(strconv.Itoa(len(x)))
		sb.WriteByte(':')
		sb.WriteString(x)
	case time.Time:
		sb.WriteByte('t')
		sb.WriteString(x.UTC().Format(time.RFC3339Nano))
	default:
		sb.WriteByte('?')
		sb.WriteString(formatMember(x))
	}
}
