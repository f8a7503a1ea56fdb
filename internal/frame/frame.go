package frame

import (
	"fmt"
	"math"
	"time"
)

// Kind identifies the type of a column
type Kind int

const (
	KindFloat Kind = iota
	KindString
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindTime:
		return "time"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Frame is a column-oriented table with an optional date row index.
// Float columns use NaN for null, time columns use the zero time.
type Frame struct {
	indexName string
	index     []time.Time
	order     []string
	kinds     map[string]Kind
	floats    map[string][]float64
	strings   map[string][]string
	times     map[string][]time.Time
	rows      int
}

// New creates an empty frame with the given number of rows
func New(rows int) *Frame {
	return &Frame{
		kinds:   make(map[string]Kind),
		floats:  make(map[string][]float64),
		strings: make(map[string][]string),
		times:   make(map[string][]time.Time),
		rows:    rows,
	}
}

// Len returns the number of rows
func (f *Frame) Len() int {
	return f.rows
}

// Columns returns the column names in insertion order
func (f *Frame) Columns() []string {
	out := make([]string, len(f.order))
	copy(out, f.order)
	return out
}

// Kind returns the kind of a column and whether it exists
func (f *Frame) Kind(name string) (Kind, bool) {
	k, ok := f.kinds[name]
	return k, ok
}

// Has reports whether a column exists
func (f *Frame) Has(name string) bool {
	_, ok := f.kinds[name]
	return ok
}

// IndexName returns the name of the row index, or "" when the frame has none
func (f *Frame) IndexName() string {
	return f.indexName
}

// SetIndex sets the date row index
func (f *Frame) SetIndex(name string, index []time.Time) error {
	if len(index) != f.rows {
		return fmt.Errorf("index %q has %d values, frame has %d rows", name, len(index), f.rows)
	}
	f.indexName = name
	f.index = append([]time.Time(nil), index...)
	return nil
}

// SetFloat adds or replaces a float column
func (f *Frame) SetFloat(name string, values []float64) error {
	if err := f.checkLen(name, len(values)); err != nil {
		return err
	}
	f.register(name, KindFloat)
	f.floats[name] = append([]float64(nil), values...)
	return nil
}

// SetString adds or replaces a string column
func (f *Frame) SetString(name string, values []string) error {
	if err := f.checkLen(name, len(values)); err != nil {
		return err
	}
	f.register(name, KindString)
	f.strings[name] = append([]string(nil), values...)
	return nil
}

// SetTime adds or replaces a time column
func (f *Frame) SetTime(name string, values []time.Time) error {
	if err := f.checkLen(name, len(values)); err != nil {
		return err
	}
	f.register(name, KindTime)
	f.times[name] = append([]time.Time(nil), values...)
	return nil
}

// Floats returns a copy of a float column
func (f *Frame) Floats(name string) ([]float64, error) {
	if err := f.expect(name, KindFloat); err != nil {
		return nil, err
	}
	return append([]float64(nil), f.floats[name]...), nil
}

// Strings returns a copy of a string column
func (f *Frame) Strings(name string) ([]string, error) {
	if err := f.expect(name, KindString); err != nil {
		return nil, err
	}
	return append([]string(nil), f.strings[name]...), nil
}

// Times returns a copy of a time column
func (f *Frame) Times(name string) ([]time.Time, error) {
	if err := f.expect(name, KindTime); err != nil {
		return nil, err
	}
	return append([]time.Time(nil), f.times[name]...), nil
}

// ResetIndex moves the row index into a time column named after the index
// and returns the new frame. The receiver is left untouched.
func (f *Frame) ResetIndex() (*Frame, error) {
	if f.indexName == "" {
		return nil, fmt.Errorf("frame has no index")
	}
	out := New(f.rows)
	if err := out.SetTime(f.indexName, f.index); err != nil {
		return nil, err
	}
	for _, name := range f.order {
		if name == f.indexName {
			continue
		}
		out.copyColumn(f, name, nil)
	}
	return out, nil
}

// Project returns a frame holding only the named columns, in that order
func (f *Frame) Project(names ...string) (*Frame, error) {
	out := New(f.rows)
	for _, name := range names {
		if !f.Has(name) {
			return nil, &MissingColumnError{Column: name}
		}
		out.copyColumn(f, name, nil)
	}
	if f.indexName != "" {
		out.indexName = f.indexName
		out.index = append([]time.Time(nil), f.index...)
	}
	return out, nil
}

// Filter returns a frame with the rows for which keep returns true
func (f *Frame) Filter(keep func(row int) bool) *Frame {
	rows := make([]int, 0, f.rows)
	for i := 0; i < f.rows; i++ {
		if keep(i) {
			rows = append(rows, i)
		}
	}
	out := New(len(rows))
	for _, name := range f.order {
		out.copyColumn(f, name, rows)
	}
	if f.indexName != "" {
		out.indexName = f.indexName
		out.index = make([]time.Time, len(rows))
		for j, i := range rows {
			out.index[j] = f.index[i]
		}
	}
	return out
}

// IsNull reports whether the named column holds a null at row i
func (f *Frame) IsNull(name string, i int) bool {
	switch f.kinds[name] {
	case KindFloat:
		return math.IsNaN(f.floats[name][i])
	case KindTime:
		return f.times[name][i].IsZero()
	default:
		return false
	}
}

// DropNull returns a frame without the rows that have a null in any column
func (f *Frame) DropNull() *Frame {
	return f.Filter(func(i int) bool {
		for _, name := range f.order {
			if f.IsNull(name, i) {
				return false
			}
		}
		return true
	})
}

func (f *Frame) register(name string, kind Kind) {
	if old, ok := f.kinds[name]; ok {
		if old == kind {
			return
		}
		delete(f.floats, name)
		delete(f.strings, name)
		delete(f.times, name)
	} else {
		f.order = append(f.order, name)
	}
	f.kinds[name] = kind
}

func (f *Frame) checkLen(name string, n int) error {
	if n != f.rows {
		return fmt.Errorf("column %q has %d values, frame has %d rows", name, n, f.rows)
	}
	return nil
}

func (f *Frame) expect(name string, kind Kind) error {
	k, ok := f.kinds[name]
	if !ok {
		return &MissingColumnError{Column: name}
	}
	if k != kind {
		return &KindError{Column: name, Want: kind, Got: k}
	}
	return nil
}

// copyColumn copies column name from src, restricted to rows when rows is non-nil
func (f *Frame) copyColumn(src *Frame, name string, rows []int) {
	kind := src.kinds[name]
	f.register(name, kind)
	switch kind {
	case KindFloat:
		f.floats[name] = pick(src.floats[name], rows)
	case KindString:
		f.strings[name] = pick(src.strings[name], rows)
	case KindTime:
		f.times[name] = pick(src.times[name], rows)
	}
}

func pick[T any](values []T, rows []int) []T {
	if rows == nil {
		return append([]T(nil), values...)
	}
	out := make([]T, len(rows))
	for j, i := range rows {
		out[j] = values[i]
	}
	return out
}

// MissingColumnError is returned when a named column does not exist
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("column %q not found", e.Column)
}

// KindError is returned when a column exists with an unexpected type
type KindError struct {
	Column string
	Want   Kind
	Got    Kind
}

func (e *KindError) Error() string {
	return fmt.Sprintf("column %q is %s, want %s", e.Column, e.Got, e.Want)
}
