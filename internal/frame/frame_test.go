package frame

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func newPriceFrame(t *testing.T, dates []string, closes []float64, symbol string) *Frame {
	t.Helper()
	f := New(len(dates))
	idx := make([]time.Time, len(dates))
	for i, d := range dates {
		idx[i] = day(d)
	}
	require.NoError(t, f.SetIndex("Date", idx))
	require.NoError(t, f.SetFloat("Close", closes))
	syms := make([]string, len(dates))
	for i := range syms {
		syms[i] = symbol
	}
	require.NoError(t, f.SetString("stock", syms))
	return f
}

func TestSetColumnLengthMismatch(t *testing.T) {
	f := New(2)
	err := f.SetFloat("Open", []float64{1})
	assert.Error(t, err)
	assert.False(t, f.Has("Open"))
}

func TestColumnAccessErrors(t *testing.T) {
	f := New(1)
	require.NoError(t, f.SetString("Open", []string{"x"}))

	_, err := f.Floats("Open")
	var kindErr *KindError
	require.ErrorAs(t, err, &kindErr)
	assert.Equal(t, KindFloat, kindErr.Want)
	assert.Equal(t, KindString, kindErr.Got)

	_, err = f.Floats("High")
	var missing *MissingColumnError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "High", missing.Column)
}

func TestResetIndex(t *testing.T) {
	f := newPriceFrame(t, []string{"2024-01-02", "2024-01-03"}, []float64{1, 2}, "AAPL")

	out, err := f.ResetIndex()
	require.NoError(t, err)
	assert.Equal(t, []string{"Date", "Close", "stock"}, out.Columns())
	dates, err := out.Times("Date")
	require.NoError(t, err)
	assert.Equal(t, day("2024-01-03"), dates[1])

	_, err = New(0).ResetIndex()
	assert.Error(t, err)
}

func TestProjectAndFilter(t *testing.T) {
	f := newPriceFrame(t, []string{"2024-01-02", "2024-01-03", "2024-01-04"}, []float64{1, math.NaN(), 3}, "AAPL")

	p, err := f.Project("Close")
	require.NoError(t, err)
	assert.Equal(t, []string{"Close"}, p.Columns())

	_, err = f.Project("Volume")
	assert.Error(t, err)

	clean := p.DropNull()
	assert.Equal(t, 2, clean.Len())
	closes, _ := clean.Floats("Close")
	assert.Equal(t, []float64{1, 3}, closes)

	// source untouched
	orig, _ := f.Floats("Close")
	assert.Len(t, orig, 3)
}

func TestConcatUnionsColumns(t *testing.T) {
	a := newPriceFrame(t, []string{"2024-01-02"}, []float64{1}, "AAPL")
	b := newPriceFrame(t, []string{"2024-01-02", "2024-01-03"}, []float64{5, 6}, "MSFT")
	require.NoError(t, b.SetFloat("Volume", []float64{10, 20}))

	out, err := Concat(a, b)
	require.NoError(t, err)
	assert.Equal(t, 3, out.Len())
	assert.Equal(t, "Date", out.IndexName())

	vol, err := out.Floats("Volume")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(vol[0]))
	assert.Equal(t, []float64{10, 20}, vol[1:])

	syms, _ := out.Strings("stock")
	assert.Equal(t, []string{"AAPL", "MSFT", "MSFT"}, syms)
}

func TestConcatKindConflict(t *testing.T) {
	a := New(1)
	require.NoError(t, a.SetFloat("Open", []float64{1}))
	b := New(1)
	require.NoError(t, b.SetString("Open", []string{"1"}))
	_, err := Concat(a, b)
	assert.Error(t, err)
}

func TestGroupByKeepsFirstAppearanceOrder(t *testing.T) {
	groups := GroupBy([]string{"b1", "a1", "b2", "c1", "a2"}, func(s string) byte { return s[0] })
	require.Len(t, groups, 3)
	assert.Equal(t, byte('b'), groups[0].Key)
	assert.Equal(t, []string{"b1", "b2"}, groups[0].Items)
	assert.Equal(t, []string{"a1", "a2"}, groups[1].Items)
	assert.Equal(t, []string{"c1"}, groups[2].Items)
}

func TestFilterGeneric(t *testing.T) {
	out := Filter([]int{1, 2, 3, 4}, func(v int) bool { return v%2 == 0 })
	assert.Equal(t, []int{2, 4}, out)
}

func TestRollingShrinkingWindow(t *testing.T) {
	values := []float64{2, 10, 6, 14}

	mean, err := Rolling(values, Window{Size: 3, MinPeriods: 1}, Mean)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 6, 6, 10}, mean)

	std, err := Rolling(values, Window{Size: 3, MinPeriods: 1}, SampleStd)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(std[0]))
	assert.InDelta(t, math.Sqrt(32), std[1], 1e-12)
	assert.InDelta(t, 4.0, std[2], 1e-12)
	assert.InDelta(t, 4.0, std[3], 1e-12)

	strict, err := Rolling(values, Window{Size: 3, MinPeriods: 3}, Mean)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(strict[1]))
	assert.Equal(t, 6.0, strict[2])
}

func TestRollingRejectsBadWindow(t *testing.T) {
	_, err := Rolling([]float64{1}, Window{Size: 0, MinPeriods: 1}, Mean)
	assert.Error(t, err)
	_, err = Rolling([]float64{1}, Window{Size: 2, MinPeriods: 3}, Mean)
	assert.Error(t, err)
}
