package frame

import (
	"fmt"
	"math"
	"time"
)

// Concat stacks frames vertically in the given order. Columns are the union of
// all inputs; a frame lacking a column contributes nulls ("" for strings).
func Concat(frames ...*Frame) (*Frame, error) {
	total := 0
	indexName := ""
	var order []string
	kinds := make(map[string]Kind)
	for i, f := range frames {
		total += f.rows
		if i == 0 {
			indexName = f.indexName
		} else if f.indexName != indexName {
			return nil, fmt.Errorf("frame %d has index %q, want %q", i, f.indexName, indexName)
		}
		for _, name := range f.order {
			k := f.kinds[name]
			if prev, ok := kinds[name]; ok {
				if prev != k {
					return nil, &KindError{Column: name, Want: prev, Got: k}
				}
				continue
			}
			kinds[name] = k
			order = append(order, name)
		}
	}

	out := New(total)
	if indexName != "" {
		out.indexName = indexName
		out.index = make([]time.Time, 0, total)
		for _, f := range frames {
			out.index = append(out.index, f.index...)
		}
	}
	for _, name := range order {
		out.register(name, kinds[name])
		switch kinds[name] {
		case KindFloat:
			col := make([]float64, 0, total)
			for _, f := range frames {
				col = appendOr(col, f.floats[name], f.Has(name), f.rows, math.NaN())
			}
			out.floats[name] = col
		case KindString:
			col := make([]string, 0, total)
			for _, f := range frames {
				col = appendOr(col, f.strings[name], f.Has(name), f.rows, "")
			}
			out.strings[name] = col
		case KindTime:
			col := make([]time.Time, 0, total)
			for _, f := range frames {
				col = appendOr(col, f.times[name], f.Has(name), f.rows, time.Time{})
			}
			out.times[name] = col
		}
	}
	return out, nil
}

func appendOr[T any](dst, src []T, present bool, n int, null T) []T {
	if present {
		return append(dst, src...)
	}
	for i := 0; i < n; i++ {
		dst = append(dst, null)
	}
	return dst
}

// Filter returns the elements of items for which keep returns true
func Filter[T any](items []T, keep func(T) bool) []T {
	var out []T
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}

// Group is one group produced by GroupBy
type Group[K comparable, T any] struct {
	Key   K
	Items []T
}

// GroupBy groups items by key. Groups come out in order of first appearance
// and items keep their relative order.
func GroupBy[K comparable, T any](items []T, key func(T) K) []Group[K, T] {
	pos := make(map[K]int)
	var groups []Group[K, T]
	for _, it := range items {
		k := key(it)
		i, ok := pos[k]
		if !ok {
			i = len(groups)
			pos[k] = i
			groups = append(groups, Group[K, T]{Key: k})
		}
		groups[i].Items = append(groups[i].Items, it)
	}
	return groups
}

// Window describes a trailing window. Near the start of a sequence the window
// shrinks down to MinPeriods observations; positions with fewer observations
// than MinPeriods yield NaN.
type Window struct {
	Size       int
	MinPeriods int
}

// Aggregate reduces the values of one window position
type Aggregate func(window []float64) float64

// Rolling applies agg over a trailing window ending at every position of values
func Rolling(values []float64, w Window, agg Aggregate) ([]float64, error) {
	if w.Size < 1 {
		return nil, fmt.Errorf("window size must be positive, got %d", w.Size)
	}
	if w.MinPeriods < 1 || w.MinPeriods > w.Size {
		return nil, fmt.Errorf("min periods must be in [1, %d], got %d", w.Size, w.MinPeriods)
	}
	out := make([]float64, len(values))
	for i := range values {
		start := i - w.Size + 1
		if start < 0 {
			start = 0
		}
		win := values[start : i+1]
		if len(win) < w.MinPeriods {
			out[i] = math.NaN()
			continue
		}
		out[i] = agg(win)
	}
	return out, nil
}

// Mean is the arithmetic mean
func Mean(window []float64) float64 {
	if len(window) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, v := range window {
		sum += v
	}
	return sum / float64(len(window))
}

// SampleStd is the sample standard deviation (divisor n-1). It is NaN for
// fewer than two observations.
func SampleStd(window []float64) float64 {
	n := len(window)
	if n < 2 {
		return math.NaN()
	}
	mean := Mean(window)
	var ss float64
	for _, v := range window {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1))
}
