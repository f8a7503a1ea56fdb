package features

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/sabarim/gapfeed/internal/frame"
	"github.com/sabarim/gapfeed/internal/model"
)

// Transform derives feature rows from the raw price frame. The input frame is
// not modified and equal inputs always give equal outputs.
//
// Rolling statistics follow the row order of the frame. With OrderGlobal this
// is the concatenated multi-symbol order; OrderPerSymbol restarts the window
// whenever the stock column changes identity.
func Transform(raw *frame.Frame, opts Options) ([]FeatureRow, error) {
	opts = opts.withDefaults()
	if opts.Window < 1 {
		return nil, &TransformError{Step: "options", Err: fmt.Errorf("window must be positive, got %d", opts.Window)}
	}
	if opts.Order != OrderGlobal && opts.Order != OrderPerSymbol {
		return nil, &TransformError{Step: "options", Err: fmt.Errorf("unknown order %v", opts.Order)}
	}
	if err := checkSchema(raw, opts); err != nil {
		return nil, err
	}

	// Date index becomes a real column
	data := raw
	if !raw.Has(model.ColDate) {
		var err error
		if data, err = raw.ResetIndex(); err != nil {
			return nil, &TransformError{Step: "reset index", Err: err}
		}
	}
	if k, _ := data.Kind(model.ColDate); k != frame.KindTime {
		return nil, &TransformError{Step: "reset index", Err: fmt.Errorf("column %q is %s, want time", model.ColDate, k)}
	}

	rounded, err := roundPrices(data)
	if err != nil {
		return nil, err
	}

	keep := []string{model.ColDate, model.ColOpen, model.ColHigh, model.ColLow, model.ColClose}
	if opts.Order == OrderPerSymbol {
		keep = append(keep, model.ColSymbol)
	}
	projected, err := rounded.Project(keep...)
	if err != nil {
		return nil, &TransformError{Step: "project", Err: err}
	}
	clean := projected.DropNull()

	rows, symbols, err := buildRows(clean, opts.Order == OrderPerSymbol)
	if err != nil {
		return nil, err
	}
	if err := applyWindowStats(rows, symbols, opts.Window); err != nil {
		return nil, &TransformError{Step: "rolling", Err: err}
	}
	return rows, nil
}

func checkSchema(raw *frame.Frame, opts Options) error {
	var missing []string
	if !raw.Has(model.ColDate) && raw.IndexName() != model.ColDate {
		missing = append(missing, model.ColDate)
	}
	for _, col := range model.PriceColumns {
		if !raw.Has(col) {
			missing = append(missing, col)
		}
	}
	if opts.Order == OrderPerSymbol && !raw.Has(model.ColSymbol) {
		missing = append(missing, model.ColSymbol)
	}
	if len(missing) > 0 {
		return &SchemaError{Missing: missing}
	}
	return nil
}

// roundPrices returns a copy of f with the price columns rounded to cents
func roundPrices(f *frame.Frame) (*frame.Frame, error) {
	out, err := f.Project(f.Columns()...)
	if err != nil {
		return nil, &TransformError{Step: "round", Err: err}
	}
	for _, col := range model.PriceColumns {
		values, err := out.Floats(col)
		if err != nil {
			return nil, &TransformError{Step: "round", Err: err}
		}
		for i, v := range values {
			r, err := round2(v)
			if err != nil {
				return nil, &TransformError{Step: "round", Err: fmt.Errorf("%s row %d: %w", col, i, err)}
			}
			values[i] = r
		}
		if err := out.SetFloat(col, values); err != nil {
			return nil, &TransformError{Step: "round", Err: err}
		}
	}
	return out, nil
}

// round2 rounds half to even at two decimals. NaN passes through.
func round2(v float64) (float64, error) {
	if math.IsNaN(v) {
		return v, nil
	}
	if math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite price %v", v)
	}
	r, _ := decimal.NewFromFloat(v).RoundBank(2).Float64()
	return r, nil
}

func buildRows(f *frame.Frame, withSymbols bool) ([]FeatureRow, []string, error) {
	dates, err := f.Times(model.ColDate)
	if err != nil {
		return nil, nil, &TransformError{Step: "build rows", Err: err}
	}
	cols := make(map[string][]float64, len(model.PriceColumns))
	for _, col := range model.PriceColumns {
		if cols[col], err = f.Floats(col); err != nil {
			return nil, nil, &TransformError{Step: "build rows", Err: err}
		}
	}
	var symbols []string
	if withSymbols {
		if symbols, err = f.Strings(model.ColSymbol); err != nil {
			return nil, nil, &TransformError{Step: "build rows", Err: err}
		}
	}

	rows := make([]FeatureRow, f.Len())
	for i := range rows {
		high, low := cols[model.ColHigh][i], cols[model.ColLow][i]
		gap := high - low
		rows[i] = FeatureRow{
			Date:        dates[i].Format(DateLayout),
			Open:        cols[model.ColOpen][i],
			High:        high,
			Low:         low,
			Close:       cols[model.ColClose][i],
			Gap:         gap,
			GapCategory: Categorize(gap),
		}
	}
	return rows, symbols, nil
}

// applyWindowStats fills the moving average and sample std-dev of the gap.
// When symbols is nil the whole slice is one sequence.
func applyWindowStats(rows []FeatureRow, symbols []string, size int) error {
	positions := make([]int, len(rows))
	for i := range positions {
		positions[i] = i
	}
	sequences := [][]int{positions}
	if symbols != nil {
		sequences = sequences[:0]
		for _, g := range frame.GroupBy(positions, func(i int) string { return symbols[i] }) {
			sequences = append(sequences, g.Items)
		}
	}

	w := frame.Window{Size: size, MinPeriods: 1}
	for _, seq := range sequences {
		gaps := make([]float64, len(seq))
		for j, i := range seq {
			gaps[j] = rows[i].Gap
		}
		mean, err := frame.Rolling(gaps, w, frame.Mean)
		if err != nil {
			return err
		}
		std, err := frame.Rolling(gaps, w, frame.SampleStd)
		if err != nil {
			return err
		}
		for j, i := range seq {
			rows[i].GapMovingAverage = mean[j]
			if math.IsNaN(std[j]) {
				rows[i].GapStdDev = gaps[j]
			} else {
				rows[i].GapStdDev = std[j]
			}
		}
	}
	return nil
}
