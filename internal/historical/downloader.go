package historical

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/sabarim/gapfeed/internal/frame"
	"github.com/sabarim/gapfeed/internal/model"
)

// Downloader fetches daily history for a list of symbols from one provider
type Downloader struct {
	provider    Provider
	daysToFetch int
	now         func() time.Time
	logger      *zap.Logger
}

// NewDownloader creates a downloader that looks back daysToFetch days
func NewDownloader(provider Provider, daysToFetch int, logger *zap.Logger) *Downloader {
	return &Downloader{
		provider:    provider,
		daysToFetch: daysToFetch,
		now:         time.Now,
		logger:      logger,
	}
}

// Fetch downloads every symbol in order and concatenates the series into one
// frame indexed by Date with a stock column. A symbol that fails is logged and
// skipped; only when every symbol fails does Fetch return a *NoDataError.
func (d *Downloader) Fetch(ctx context.Context, symbols []string) (*frame.Frame, Report, error) {
	report := Report{Requested: len(symbols)}

	to := d.now()
	from := to.AddDate(0, 0, -d.daysToFetch)

	var frames []*frame.Frame
	for _, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return nil, report, err
		}

		d.logger.Info("fetching data", zap.String("symbol", symbol), zap.String("provider", d.provider.Name()))
		bars, err := d.provider.DailyBars(ctx, symbol, from, to)
		if err == nil && len(bars) == 0 {
			err = errors.New("no price data returned")
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, report, ctxErr
			}
			fetchErr := &FetchError{Symbol: symbol, Err: err}
			report.Failed = append(report.Failed, fetchErr)
			d.logger.Error("error fetching data, skipping", zap.String("symbol", symbol), zap.Error(err))
			continue
		}

		f, err := barsToFrame(symbol, bars)
		if err != nil {
			fetchErr := &FetchError{Symbol: symbol, Err: err}
			report.Failed = append(report.Failed, fetchErr)
			d.logger.Error("error fetching data, skipping", zap.String("symbol", symbol), zap.Error(err))
			continue
		}
		frames = append(frames, f)
		report.Fetched = append(report.Fetched, symbol)
		report.Rows += f.Len()
		d.logger.Debug("fetched", zap.String("symbol", symbol), zap.Int("bars", f.Len()))
	}

	if len(frames) == 0 {
		d.logger.Error("no data was fetched", zap.Int("requested", len(symbols)))
		return nil, report, &NoDataError{Requested: len(symbols), Failures: report.Failed}
	}

	all, err := frame.Concat(frames...)
	if err != nil {
		return nil, report, fmt.Errorf("failed to concatenate price data: %w", err)
	}

	d.logger.Info("fetch completed",
		zap.Int("fetched", len(report.Fetched)),
		zap.Int("skipped", len(report.Failed)),
		zap.Int("rows", report.Rows))
	return all, report, nil
}

// barsToFrame lays out one symbol's bars in the raw frame shape
func barsToFrame(symbol string, bars []model.Bar) (*frame.Frame, error) {
	n := len(bars)
	dates := make([]time.Time, n)
	open := make([]float64, n)
	high := make([]float64, n)
	low := make([]float64, n)
	closes := make([]float64, n)
	volume := make([]float64, n)
	stock := make([]string, n)
	for i, b := range bars {
		dates[i] = b.Date
		open[i], high[i], low[i], closes[i] = b.Open, b.High, b.Low, b.Close
		volume[i] = float64(b.Volume)
		if b.Volume < 0 {
			volume[i] = math.NaN()
		}
		stock[i] = symbol
	}

	f := frame.New(n)
	if err := f.SetIndex(model.ColDate, dates); err != nil {
		return nil, err
	}
	columns := []struct {
		name   string
		values []float64
	}{
		{model.ColOpen, open},
		{model.ColHigh, high},
		{model.ColLow, low},
		{model.ColClose, closes},
		{model.ColVolume, volume},
	}
	for _, c := range columns {
		if err := f.SetFloat(c.name, c.values); err != nil {
			return nil, err
		}
	}
	if err := f.SetString(model.ColSymbol, stock); err != nil {
		return nil, err
	}
	return f, nil
}
